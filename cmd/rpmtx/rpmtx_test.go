/*
Copyright SUSE LLC.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	shellwords "github.com/mattn/go-shellwords"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/pkg/action"
	"github.com/rancher-sandbox/rpmtx/pkg/cli"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cmdTestCase describes a command run against testdata/world.yaml.
type cmdTestCase struct {
	name      string
	cmd       string
	wantError bool
	// contains lists the strings the output must hold.
	contains []string
	// excludes lists the strings the output must not hold.
	excludes []string
}

func runTestCmd(t *testing.T, tests []cmdTestCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()
			is := assert.New(t)

			t.Logf("running cmd: %s", tt.cmd)
			_, out, err := executeCommandStdinC(worldArgs(t) + " " + tt.cmd)
			if tt.wantError {
				is.Error(err)
			} else {
				is.NoError(err, out)
			}
			for _, s := range tt.contains {
				is.Contains(out, s)
			}
			for _, s := range tt.excludes {
				is.NotContains(out, s)
			}
		})
	}
}

// worldArgs points a command at the test world and a private lock file.
func worldArgs(t *testing.T) string {
	return "--world testdata/world.yaml --noemojis --lock-file " + filepath.Join(t.TempDir(), "rpmtx.lock")
}

func TestTransactionCommands(t *testing.T) {
	runTestCmd(t, []cmdTestCase{
		{
			name:     "install pulls in dependencies",
			cmd:      "install tool",
			contains: []string{"Installing:", "tool-2.0-1.x86_64", "Installing for dependencies:", "libbar-2.1-1.x86_64", "Total size: 24.58kB", "Status: ok", "Done!"},
			excludes: []string{"libbar-1.0-1.x86_64"},
		},
		{
			name:      "install unresolvable",
			cmd:       "install broken",
			wantError: true,
			contains:  []string{"broken-1.0-1.x86_64 requires nothere", "Status: error"},
		},
		{
			name:     "install skipping broken packages",
			cmd:      "install broken tool --skip-broken",
			contains: []string{"Skipped:", "broken-1.0-1.x86_64", "tool-2.0-1.x86_64", "Status: ok"},
		},
		{
			name:     "install what is installed",
			cmd:      "install bash-5.1-2.x86_64",
			contains: []string{"Status: empty", "Nothing to do."},
		},
		{
			name:     "update to the newest",
			cmd:      "update bash",
			contains: []string{"Updating:", "bash-5.2-1.x86_64", "bash-5.1-2.x86_64", "Status: ok"},
		},
		{
			name:     "downgrade to the newest older",
			cmd:      "downgrade bash",
			contains: []string{"Downgrading:", "bash-5.0-1.x86_64", "Status: ok"},
		},
		{
			name:     "remove takes the requirers along",
			cmd:      "remove libfoo",
			contains: []string{"Removing:", "libfoo-1.0-1.x86_64", "Removing for dependencies:", "app-1.0-1.x86_64"},
		},
		{
			name:      "remove a protected package",
			cmd:       "erase rpmtx",
			wantError: true,
			contains:  []string{`Trying to remove "rpmtx", which is protected`},
		},
		{
			name:     "autoremove unneeded dependencies",
			cmd:      "autoremove",
			contains: []string{"orphan-1.0-1.noarch"},
			excludes: []string{"libfoo-1.0-1.x86_64"},
		},
		{
			name:     "reinstall",
			cmd:      "reinstall bash",
			contains: []string{"Reinstalling:", "bash-5.1-2.x86_64"},
		},
		{
			name:      "unknown package",
			cmd:       "remove 0:nothere-1-1.x86_64",
			wantError: true,
		},
		{
			name:     "check",
			cmd:      "check",
			contains: []string{"installed packages are consistent"},
		},
	})
}

func TestReinstallWithoutCopy(t *testing.T) {
	defer resetEnv()()
	_, _, err := executeCommandStdinC(worldArgs(t) + " reinstall app")
	var rie *action.ReinstallInstallError
	if assert.ErrorAs(t, err, &rie) {
		assert.Equal(t, "app-1.0-1.x86_64", rie.FailedPkgs[0].String())
	}
}

func TestJSONOutput(t *testing.T) {
	defer resetEnv()()
	is := assert.New(t)

	_, out, err := executeCommandStdinC(worldArgs(t) + " install tool -o json")
	require.NoError(t, err)

	rep := solver.Report{}
	require.NoError(t, json.Unmarshal([]byte(strings.SplitN(out, "\n", 2)[0]), &rep))
	is.Equal("ok", rep.Status)
	if is.Len(rep.Installing, 1) {
		is.Equal("tool-2.0-1.x86_64", rep.Installing[0].Package)
		is.Equal("base", rep.Installing[0].Repo)
	}
	is.Len(rep.DepInstalling, 1)
}

func TestSaveAndLoadTransaction(t *testing.T) {
	defer resetEnv()()
	is := assert.New(t)
	dir := t.TempDir()
	saved := filepath.Join(dir, "tx.yaml")
	metrics := filepath.Join(dir, "rpmtx.prom")

	_, out, err := executeCommandStdinC(worldArgs(t) + " install tool --save " + saved + " --metrics-textfile " + metrics)
	require.NoError(t, err, out)
	is.Contains(out, "Transaction saved to "+saved)
	is.FileExists(saved)

	m, err := ioutil.ReadFile(metrics)
	require.NoError(t, err)
	is.Contains(string(m), "rpmtx_resolver_passes_total")

	_, out, err = executeCommandStdinC(worldArgs(t) + " load-transaction " + saved)
	require.NoError(t, err, out)
	is.Contains(out, "tool-2.0-1.x86_64")
	is.Contains(out, "libbar-2.1-1.x86_64")
	is.Contains(out, "Status: ok")

	_, _, err = executeCommandStdinC(worldArgs(t) + " load-transaction " + filepath.Join(dir, "missing.yaml"))
	is.Error(err)
}

func TestCheckInconsistent(t *testing.T) {
	defer resetEnv()()
	is := assert.New(t)
	world := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, ioutil.WriteFile(world, []byte(`
installed:
  - nevra: app-1.0-1.x86_64
    requires: [libfoo]
  - nevra: other-1.0-1.x86_64
`), 0644))

	_, out, err := executeCommandStdinC("--world " + world + " --lock-file " + filepath.Join(t.TempDir(), "l") + " check")
	is.EqualError(err, "1 installed packages would have to be removed")
	is.Contains(out, "app-1.0-1.x86_64 requires libfoo")
}

func TestMissingWorld(t *testing.T) {
	defer resetEnv()()
	_, _, err := executeCommandStdinC("--lock-file " + filepath.Join(t.TempDir(), "l") + " install tool")
	assert.EqualError(t, err, "no world file given, use --world or RPMTX_WORLD")
}

func TestVersion(t *testing.T) {
	defer resetEnv()()
	_, out, err := executeCommandStdinC("version --template {{.Version}}")
	require.NoError(t, err)
	assert.Contains(t, out, "v0.1")
}

func executeCommandStdinC(cmd string) (*cobra.Command, string, error) {

	args, err := shellwords.Parse(cmd)

	if err != nil {
		return nil, "", err
	}

	buf := new(bytes.Buffer)
	root, err := newRootCmd(buf, args)
	if err != nil {
		return nil, "", err
	}

	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)

	oldStdin := os.Stdin

	c, err := root.ExecuteC()
	result := buf.String()
	os.Stdin = oldStdin

	return c, result, err
}

func resetEnv() func() {
	origEnv := os.Environ()
	for e := range cli.New().EnvVars() {
		os.Unsetenv(e)
	}
	settings = cli.New()
	return func() {
		os.Clearenv()
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
		settings = cli.New()
	}
}

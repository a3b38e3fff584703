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

package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

func TestEnvSettings(t *testing.T) {
	tests := []struct {
		name string

		// input
		args    string
		envvars map[string]string

		// expected values
		debug     bool
		noColors  bool
		noEmojis  bool
		world     string
		lockFile  string
		logFormat string
	}{
		{
			name:      "defaults",
			lockFile:  DefaultLockFile,
			logFormat: "text",
		},
		{
			name:      "with flags set",
			args:      "--debug --nocolor --noemojis -w world.yaml --lock-file /tmp/l --log-format json",
			debug:     true,
			noColors:  true,
			noEmojis:  true,
			world:     "world.yaml",
			lockFile:  "/tmp/l",
			logFormat: "json",
		},
		{
			name: "with envvars set",
			envvars: map[string]string{
				"RPMTX_DEBUG":     "true",
				"RPMTX_NOCOLORS":  "true",
				"RPMTX_WORLD":     "env.yaml",
				"RPMTX_LOCK_FILE": "/tmp/env.lock",
			},
			debug:     true,
			noColors:  true,
			world:     "env.yaml",
			lockFile:  "/tmp/env.lock",
			logFormat: "text",
		},
		{
			name:      "with args and envvars set",
			args:      "--debug --nocolor --world flag.yaml",
			envvars:   map[string]string{"RPMTX_DEBUG": "false", "RPMTX_NOCOLORS": "false", "RPMTX_WORLD": "env.yaml"},
			debug:     true,
			noColors:  true,
			world:     "flag.yaml",
			lockFile:  DefaultLockFile,
			logFormat: "text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer resetEnv()()
			is := assert.New(t)

			for k, v := range tt.envvars {
				os.Setenv(k, v)
			}

			flags := pflag.NewFlagSet("testing", pflag.ContinueOnError)

			settings := New()
			settings.AddFlags(flags)
			is.NoError(flags.Parse(strings.Fields(tt.args)))

			is.Equal(tt.debug, settings.Debug)
			is.Equal(tt.noColors, settings.NoColors)
			is.Equal(tt.noEmojis, settings.NoEmojis)
			is.Equal(tt.world, settings.WorldFile)
			is.Equal(tt.lockFile, settings.LockFile)
			is.Equal(tt.logFormat, settings.LogFormat)
			is.Equal(tt.world, settings.EnvVars()["RPMTX_WORLD"])
		})
	}
}

func resetEnv() func() {
	origEnv := os.Environ()

	// ensure any local envvars do not hose us
	for e := range New().EnvVars() {
		os.Unsetenv(e)
	}

	return func() {
		for e := range New().EnvVars() {
			os.Unsetenv(e)
		}
		for _, pair := range origEnv {
			kv := strings.SplitN(pair, "=", 2)
			os.Setenv(kv[0], kv[1])
		}
	}
}

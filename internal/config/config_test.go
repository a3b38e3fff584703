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

package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	is := assert.New(t)
	cfg := Default()

	is.Equal("x86_64", cfg.Arch)
	is.Equal(MultilibBest, cfg.MultilibPolicy)
	is.Equal(30, cfg.SkipBrokenMaxRounds)
	is.Equal(2, cfg.SkipBrokenMaxNoProgress)
	is.Equal(3, cfg.InstallOnlyLimit)
	is.True(cfg.Obsoletes)
	is.True(cfg.ProtectedMultilib)
	is.False(cfg.SkipBroken)
	is.True(cfg.IsInstallOnly("kernel"))
	is.False(cfg.IsInstallOnly("bash"))
	is.True(cfg.IsProtected("rpmtx"))
	is.NoError(cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	is := assert.New(t)
	path := filepath.Join(t.TempDir(), "rpmtx.toml")
	require.NoError(t, ioutil.WriteFile(path, []byte(`
skip_broken = true
multilib_policy = "all"
protected_packages = ["systemd", "glibc"]
installonly_limit = 2
`), 0644))

	t.Setenv("RPMTX_INSTALLONLY_LIMIT", "5")
	t.Setenv("RPMTX_ARCH", "i686")

	cfg, err := Load(path)
	require.NoError(t, err)
	is.True(cfg.SkipBroken)
	is.Equal(MultilibAll, cfg.MultilibPolicy)
	is.Equal([]string{"systemd", "glibc"}, cfg.ProtectedPackages)
	is.Equal(5, cfg.InstallOnlyLimit)
	is.Equal("i686", cfg.Arch)
	// untouched keys keep their defaults
	is.Equal(30, cfg.SkipBrokenMaxRounds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"bad policy", func(c *Config) { c.MultilibPolicy = "some" }, "multilib_policy"},
		{"limit one", func(c *Config) { c.InstallOnlyLimit = 1 }, "installonly_limit"},
		{"limit off", func(c *Config) { c.InstallOnlyLimit = 0 }, ""},
		{"no rounds", func(c *Config) { c.SkipBrokenMaxRounds = 0 }, "skip_broken_max_rounds"},
		{"no retries", func(c *Config) { c.SkipBrokenMaxNoProgress = 0 }, "skip_broken_max_no_progress"},
		{"unknown arch", func(c *Config) { c.Arch = "vax" }, "vax"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.errMsg)
			}
		})
	}
}

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

//go:build !windows && !darwin

package rpmtxpath

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRpmtxHome(t *testing.T) {
	is := assert.New(t)
	defer reload()
	os.Setenv("XDG_CONFIG_HOME", "/config")
	xdg.Reload()

	is.Equal("/config/rpmtx", ConfigPath())
	is.Equal("/config/rpmtx/config.toml", ConfigPath(ConfigFileName))

	// the environment is read again on reload
	os.Setenv("XDG_CONFIG_HOME", "/config2")
	xdg.Reload()
	is.Equal("/config2/rpmtx", ConfigPath())
}

func TestDefaultConfigFile(t *testing.T) {
	is := assert.New(t)
	defer reload()
	dir := t.TempDir()
	os.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()

	is.Equal("", DefaultConfigFile())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, appName), 0755))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, appName, ConfigFileName), []byte("skip_broken = true\n"), 0644))
	is.Equal(filepath.Join(dir, "rpmtx", "config.toml"), DefaultConfigFile())
}

func reload() {
	os.Unsetenv("XDG_CONFIG_HOME")
	xdg.Reload()
}

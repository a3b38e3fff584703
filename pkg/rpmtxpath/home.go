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

// Package rpmtxpath locates the files rpmtx keeps under the XDG base
// directories.
package rpmtxpath

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "rpmtx"

// ConfigFileName is the policy file looked up in ConfigPath.
const ConfigFileName = "config.toml"

// ConfigPath returns the path where rpmtx stores configuration.
func ConfigPath(elem ...string) string {
	return filepath.Join(append([]string{xdg.ConfigHome, appName}, elem...)...)
}

// DefaultConfigFile returns the user's policy file, or "" when there is
// none.
func DefaultConfigFile() string {
	p := ConfigPath(ConfigFileName)
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p
	}
	return ""
}

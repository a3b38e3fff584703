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

/*Package cli describes the operating environment of the rpmtx CLI.

Every setting has an RPMTX_* environment variable and a flag; flags win.
*/
package cli

import (
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

// DefaultLockFile is where the rpmdb lock lives unless told otherwise.
const DefaultLockFile = "/var/run/rpmtx.lock"

// EnvSettings describes all of the environment settings.
type EnvSettings struct {
	// Debug indicates whether or not rpmtx is running in Debug mode.
	Debug    bool
	NoColors bool
	NoEmojis bool

	// WorldFile is the YAML description of the installed and available
	// packages.
	WorldFile  string
	ConfigFile string
	LockFile   string
	// LogFormat is "text" or "json".
	LogFormat string
	// MetricsTextfile, when set, receives the resolver metrics.
	MetricsTextfile string
}

// New returns the settings taken from the environment.
func New() *EnvSettings {
	env := &EnvSettings{
		WorldFile:       os.Getenv("RPMTX_WORLD"),
		ConfigFile:      os.Getenv("RPMTX_CONFIG"),
		LockFile:        envOr("RPMTX_LOCK_FILE", DefaultLockFile),
		LogFormat:       envOr("RPMTX_LOG_FORMAT", "text"),
		MetricsTextfile: os.Getenv("RPMTX_METRICS_TEXTFILE"),
	}
	env.Debug, _ = strconv.ParseBool(os.Getenv("RPMTX_DEBUG"))
	env.NoColors, _ = strconv.ParseBool(os.Getenv("RPMTX_NOCOLORS"))
	env.NoEmojis, _ = strconv.ParseBool(os.Getenv("RPMTX_NOEMOJIS"))
	return env
}

// AddFlags binds flags to the given flagset.
func (s *EnvSettings) AddFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&s.Debug, "debug", s.Debug, "enable verbose output")
	fs.BoolVar(&s.NoColors, "nocolor", s.NoColors, "disable colorized output")
	fs.BoolVar(&s.NoEmojis, "noemojis", s.NoEmojis, "disable emojis in output")
	fs.StringVarP(&s.WorldFile, "world", "w", s.WorldFile, "path to the world file describing installed and available packages")
	fs.StringVar(&s.ConfigFile, "config", s.ConfigFile, "path to the policy configuration file (TOML)")
	fs.StringVar(&s.LockFile, "lock-file", s.LockFile, "path to the rpmdb lock file")
	fs.StringVar(&s.LogFormat, "log-format", s.LogFormat, "log format: text or json")
	fs.StringVar(&s.MetricsTextfile, "metrics-textfile", s.MetricsTextfile, "write resolver metrics to this file")
}

// EnvVars returns the environment as the settings see it.
func (s *EnvSettings) EnvVars() map[string]string {
	return map[string]string{
		"RPMTX_DEBUG":            strconv.FormatBool(s.Debug),
		"RPMTX_NOCOLORS":         strconv.FormatBool(s.NoColors),
		"RPMTX_NOEMOJIS":         strconv.FormatBool(s.NoEmojis),
		"RPMTX_WORLD":            s.WorldFile,
		"RPMTX_CONFIG":           s.ConfigFile,
		"RPMTX_LOCK_FILE":        s.LockFile,
		"RPMTX_LOG_FORMAT":       s.LogFormat,
		"RPMTX_METRICS_TEXTFILE": s.MetricsTextfile,
	}
}

func envOr(name, def string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return def
}

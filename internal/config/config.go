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

// Package config holds the resolution policy: skip-broken, protected
// packages, install-only limits, multilib policy and friends.
package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rancher-sandbox/rpmtx/internal/arch"
)

// EnvPrefix prefixes the environment variables overriding config keys, as in
// RPMTX_SKIP_BROKEN=true.
const EnvPrefix = "RPMTX_"

const (
	MultilibBest = "best"
	MultilibAll  = "all"
)

//go:embed defaults.toml
var defaultConfig []byte

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// Config is the policy a resolution runs under.
type Config struct {
	// Arch is the native architecture of the machine.
	Arch string `koanf:"arch"`

	SkipBroken                bool `koanf:"skip_broken"`
	CleanRequirementsOnRemove bool `koanf:"clean_requirements_on_remove"`

	ProtectedPackages []string `koanf:"protected_packages"`
	ProtectedMultilib bool     `koanf:"protected_multilib"`

	// InstallOnlyLimit caps the installed versions of an install-only
	// package. Zero disables the limit.
	InstallOnlyLimit int      `koanf:"installonly_limit"`
	InstallOnlyPkgs  []string `koanf:"installonlypkgs"`

	MultilibPolicy string   `koanf:"multilib_policy"`
	ExactArchList  []string `koanf:"exactarchlist"`
	Obsoletes      bool     `koanf:"obsoletes"`

	SkipMissingNames bool `koanf:"skip_missing_names_on_install"`

	SkipBrokenMaxRounds     int `koanf:"skip_broken_max_rounds"`
	SkipBrokenMaxNoProgress int `koanf:"skip_broken_max_no_progress"`

	Exclude     []string `koanf:"exclude"`
	IncludeOnly []string `koanf:"includepkgs"`
}

// Default returns the built-in policy.
func Default() *Config {
	cfg, err := load("", nil)
	if err != nil {
		// the embedded defaults are part of the binary
		panic(err)
	}
	return cfg
}

// Load layers the built-in policy, the TOML file at path (skipped when path
// is empty) and the RPMTX_* environment, then validates the result.
func Load(path string) (*Config, error) {
	cfg, err := load(path, env.Provider(EnvPrefix, ".", envKey))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

func load(path string, environ koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, "loading default config")
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "loading config file %s", path)
		}
	}

	if environ != nil {
		if err := k.Load(environ, nil); err != nil {
			return nil, errors.Wrap(err, "loading environment")
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	return cfg, nil
}

// Validate rejects values the resolver cannot run with.
func (c *Config) Validate() error {
	switch c.MultilibPolicy {
	case MultilibBest, MultilibAll:
	default:
		return errors.Errorf("multilib_policy must be %q or %q, got %q", MultilibBest, MultilibAll, c.MultilibPolicy)
	}
	if c.InstallOnlyLimit < 0 || c.InstallOnlyLimit == 1 {
		return errors.Errorf("installonly_limit must be 0 or at least 2, got %d", c.InstallOnlyLimit)
	}
	if c.SkipBrokenMaxRounds < 1 {
		return errors.Errorf("skip_broken_max_rounds must be positive, got %d", c.SkipBrokenMaxRounds)
	}
	if c.SkipBrokenMaxNoProgress < 1 {
		return errors.Errorf("skip_broken_max_no_progress must be positive, got %d", c.SkipBrokenMaxNoProgress)
	}
	if _, err := arch.NewDefault(c.Arch); err != nil {
		return errors.Wrap(err, "arch")
	}
	return nil
}

// IsInstallOnly reports whether name may have several versions installed.
func (c *Config) IsInstallOnly(name string) bool {
	return contains(c.InstallOnlyPkgs, name)
}

// IsProtected reports whether name is a protected package.
func (c *Config) IsProtected(name string) bool {
	return contains(c.ProtectedPackages, name)
}

// IsExactArch reports whether name must keep its arch on update.
func (c *Config) IsExactArch(name string) bool {
	return contains(c.ExactArchList, name)
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

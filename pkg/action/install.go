/*
Copyright The Helm Authors, SUSE LLC.

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

package action

import (
	"context"

	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// Install marks packages for installation.
type Install struct {
	Config *Configuration
}

// NewInstall creates a new Install object with the given configuration.
func NewInstall(cfg *Configuration) *Install {
	return &Install{Config: cfg}
}

// Run adds the packages each selector picks to the transaction and returns
// the members created.
//
// Repository packages obsoleted by something newer are replaced by their
// obsoleter. A package newer than an installed one of the same name turns
// into an update of it. Install-only packages are installed alongside the
// copies already there.
func (i *Install) Run(ctx context.Context, sels ...Selector) ([]*transaction.Member, error) {
	c := i.Config
	env := c.Env
	ret := []*transaction.Member{}

	for _, sel := range sels {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		found, err := c.available(sel)
		if err != nil {
			return ret, err
		}
		if len(found) == 0 {
			if err := c.noMatch("install", sel); err != nil {
				return ret, err
			}
			continue
		}

		pkgs := found
		switch sel.(type) {
		case Pattern, Nevra:
			pkgs = c.bestPackages(c.redirectObsoleted(found))
		}

		for _, p := range pkgs {
			if m := i.install(p); m != nil {
				ret = append(ret, m)
			}
		}
	}
	env.Logger.Debugf("install: %d members added", len(ret))
	return ret, nil
}

// redirectObsoleted swaps repository packages for the end of their
// obsoletion chain.
func (c *Configuration) redirectObsoleted(pkgs []*pkg.Pkg) []*pkg.Pkg {
	if !c.Env.Config.Obsoletes {
		return pkgs
	}
	seen := map[pkg.PkgTup]bool{}
	ret := []*pkg.Pkg{}
	for _, p := range pkgs {
		if !p.IsLocal() {
			if o := c.obsoleterOf(p); o != nil {
				c.Env.Logger.Infof("Package %s is obsoleted by %s, trying to install %s instead", p, o, o)
				p = o
			}
		}
		if !seen[p.PkgTup()] {
			seen[p.PkgTup()] = true
			ret = append(ret, p)
		}
	}
	return ret
}

func (i *Install) install(p *pkg.Pkg) *transaction.Member {
	c := i.Config
	env := c.Env
	t := p.PkgTup()

	if env.RPMDB.Contains(t) {
		env.Logger.Infof("Package %s already installed and latest version", p)
		return nil
	}
	if m := env.TS.MemberWithState(t, transaction.InstallStates...); m != nil {
		env.Logger.Debugf("%s already in the transaction", p)
		return nil
	}
	if !c.validArch(p) {
		env.Logger.Warnf("Package %s does not fit the arch of the installed packages, skipping", p)
		return nil
	}
	for _, o := range env.RPMDB.SearchObsoleters(p) {
		if env.TS.MemberWithState(o.PkgTup(), transaction.RemoveStates...) == nil {
			env.Logger.Infof("Package %s is obsoleted by %s which is already installed", p, o)
			return nil
		}
	}

	if env.AllowedMultipleInstalls(p) {
		return env.TS.AddTrueInstall(p)
	}

	// installing a newer version of something installed is an update
	var older *pkg.Pkg
	for _, ip := range env.RPMDB.SearchNames(p.Name) {
		if !env.Arch.UpdateCompatible(ip.Arch, p.Arch) {
			continue
		}
		switch {
		case ip.Compare(p) > 0:
			env.Logger.Infof("Package %s: a newer version, %s, is already installed", p, ip)
			return nil
		case ip.Compare(p) < 0:
			if older == nil || ip.Compare(older) > 0 {
				older = ip
			}
		}
	}
	if older != nil {
		env.Logger.Debugf("%s updates installed %s", p, older)
		return env.TS.AddUpdate(p, older)
	}
	return env.TS.AddInstall(p)
}

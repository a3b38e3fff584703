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

// Update marks installed packages for update.
type Update struct {
	Config *Configuration
}

// NewUpdate creates a new Update object with the given configuration.
func NewUpdate(cfg *Configuration) *Update {
	return &Update{Config: cfg}
}

// Run updates the installed packages the selectors match to the newest
// matching version. With no selector every installed package is updated.
// Obsoleters take precedence over plain updates when obsoletes processing
// is enabled.
func (u *Update) Run(ctx context.Context, sels ...Selector) ([]*transaction.Member, error) {
	c := u.Config
	env := c.Env
	ret := []*transaction.Member{}

	if len(sels) == 0 {
		for _, ip := range env.RPMDB.Packages() {
			if err := ctx.Err(); err != nil {
				return ret, err
			}
			if m := u.update(ip, env.Sack.SearchNames(ip.Name)); m != nil {
				ret = append(ret, m)
			}
		}
		return ret, nil
	}

	for _, sel := range sels {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		installed := c.installed(sel)
		avail, err := c.available(sel)
		if err != nil {
			return ret, err
		}
		if len(installed) == 0 && len(avail) == 0 {
			if err := c.noMatch("update", sel); err != nil {
				return ret, err
			}
			continue
		}

		// a selector naming an available version updates the installed
		// packages of that name
		seen := map[pkg.PkgTup]bool{}
		for _, ip := range installed {
			seen[ip.PkgTup()] = true
		}
		for _, p := range avail {
			for _, ip := range env.RPMDB.SearchNames(p.Name) {
				if !seen[ip.PkgTup()] {
					seen[ip.PkgTup()] = true
					installed = append(installed, ip)
				}
			}
		}

		if _, ok := sel.(Pattern); ok {
			// a bare pattern updates to the newest there is
			for _, ip := range installed {
				avail = append(avail, env.Sack.SearchNames(ip.Name)...)
			}
		}
		names := map[string]bool{}
		for _, ip := range installed {
			names[ip.Name] = true
			if m := u.update(ip, avail); m != nil {
				ret = append(ret, m)
			}
		}
		for _, p := range avail {
			if !names[p.Name] && len(env.RPMDB.SearchNames(p.Name)) == 0 {
				names[p.Name] = true
				env.Logger.Infof("Package(s) %s available, but not installed.", p.Name)
			}
		}
	}
	return ret, nil
}

// update adds the member replacing installed ip: its obsoleter, or the
// newest of cands updating it.
func (u *Update) update(ip *pkg.Pkg, cands []*pkg.Pkg) *transaction.Member {
	c := u.Config
	env := c.Env
	if env.TS.MemberWithState(ip.PkgTup(), transaction.RemoveStates...) != nil {
		return nil
	}

	if env.Config.Obsoletes {
		if o := c.obsoleterOf(ip); o != nil && !env.RPMDB.Contains(o.PkgTup()) {
			if env.TS.MemberWithState(o.PkgTup(), transaction.InstallStates...) != nil {
				return env.TS.AddObsoleted(ip, o)
			}
			env.Logger.Debugf("%s obsoletes installed %s", o, ip)
			return env.TS.AddObsoleting(o, ip)
		}
	}

	p := c.newestUpdate(ip, cands)
	if p == nil {
		return nil
	}
	if env.AllowedMultipleInstalls(p) {
		// install-only packages go alongside; only the newest installed
		// copy triggers it
		for _, other := range env.RPMDB.SearchNames(ip.Name) {
			if other.Compare(ip) > 0 {
				return nil
			}
		}
		if env.RPMDB.Contains(p.PkgTup()) || env.TS.Exists(p.PkgTup()) {
			return nil
		}
		return env.TS.AddTrueInstall(p)
	}
	return env.TS.AddUpdate(p, ip)
}

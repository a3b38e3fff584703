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

package action

import (
	"context"
	"fmt"

	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// Downgrade replaces installed packages with older available versions.
type Downgrade struct {
	Config *Configuration
}

// NewDowngrade creates a new Downgrade object with the given configuration.
func NewDowngrade(cfg *Configuration) *Downgrade {
	return &Downgrade{Config: cfg}
}

// Run downgrades, for each name the selectors match, the newest installed
// version to the newest matching available version strictly older than it.
// A selector naming a specific version downgrades to that version. The
// members added before a failing selector stay in the transaction.
func (d *Downgrade) Run(ctx context.Context, sels ...Selector) (ret []*transaction.Member, err error) {
	c := d.Config
	env := c.Env
	ret = []*transaction.Member{}
	defer func() {
		if len(ret) > 0 {
			env.TS.AddProbFilter(transaction.ProbFilterOldPackage)
		}
	}()

	for _, sel := range sels {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		avail, err := c.available(sel)
		if err != nil {
			return ret, err
		}
		if len(avail) == 0 {
			if err := c.noMatch("downgrade", sel); err != nil {
				return ret, err
			}
			continue
		}

		byName := map[string][]*pkg.Pkg{}
		order := []string{}
		for _, p := range avail {
			if _, ok := byName[p.Name]; !ok {
				order = append(order, p.Name)
			}
			byName[p.Name] = append(byName[p.Name], p)
		}

		for _, name := range order {
			installed := env.RPMDB.SearchNames(name)
			if len(installed) == 0 {
				return ret, &DowngradeError{Msg: fmt.Sprintf("No package %s installed.", name)}
			}
			if env.AllowedMultipleInstalls(installed[0]) && len(installed) > 1 {
				return ret, &DowngradeError{Msg: fmt.Sprintf("Package %s is allowed multiple installs, skipping", name)}
			}
			for _, ip := range newestPerArch(installed) {
				cand := c.olderCandidate(ip, byName[name])
				if cand == nil {
					env.Logger.Infof("Only Upgrade available on package: %s", ip)
					continue
				}
				if env.TS.Exists(cand.PkgTup()) {
					continue
				}
				env.Logger.Debugf("downgrading %s to %s", ip, cand)
				ret = append(ret, env.TS.AddDowngrade(cand, ip))
			}
		}
	}
	return ret, nil
}

// olderCandidate returns the newest of cands strictly older than ip.
func (c *Configuration) olderCandidate(ip *pkg.Pkg, cands []*pkg.Pkg) *pkg.Pkg {
	var best *pkg.Pkg
	for _, p := range cands {
		if p.Compare(ip) >= 0 || !c.Env.Arch.UpdateCompatible(ip.Arch, p.Arch) {
			continue
		}
		if best == nil || p.Compare(best) > 0 || (p.Compare(best) == 0 && p.Arch == ip.Arch) {
			best = p
		}
	}
	return best
}

// newestPerArch keeps the newest installed package of each arch.
func newestPerArch(pkgs []*pkg.Pkg) []*pkg.Pkg {
	newest := map[string]*pkg.Pkg{}
	order := []string{}
	for _, p := range pkgs {
		cur, ok := newest[p.Arch]
		if !ok {
			order = append(order, p.Arch)
		}
		if !ok || p.Compare(cur) > 0 {
			newest[p.Arch] = p
		}
	}
	ret := make([]*pkg.Pkg, 0, len(order))
	for _, a := range order {
		ret = append(ret, newest[a])
	}
	return ret
}

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

// Reinstall installs installed packages again, from a repository copy of the
// very same version.
type Reinstall struct {
	Config *Configuration
}

// NewReinstall creates a new Reinstall object with the given configuration.
func NewReinstall(cfg *Configuration) *Reinstall {
	return &Reinstall{Config: cfg}
}

// Run erases and installs again each installed package the selectors match.
// When any of them cannot be removed or has no available copy, every member
// the call added is taken back out and the error names the culprits.
func (r *Reinstall) Run(ctx context.Context, sels ...Selector) ([]*transaction.Member, error) {
	c := r.Config
	ts := c.Env.TS
	ret := []*transaction.Member{}
	added := []pkg.PkgTup{}
	failed := []*pkg.Pkg{}

	rollback := func() {
		for _, t := range added {
			ts.Remove(t)
		}
	}

	for _, sel := range sels {
		if err := ctx.Err(); err != nil {
			rollback()
			return nil, err
		}
		installed := c.installed(sel)
		if len(installed) == 0 {
			if err := c.noMatch("reinstall", sel); err != nil {
				rollback()
				return nil, err
			}
			continue
		}

		for _, ip := range installed {
			t := ip.PkgTup()
			if m := ts.MemberWithState(t, transaction.RemoveStates...); m != nil {
				rollback()
				return nil, &ReinstallRemoveError{
					Msg: fmt.Sprintf("Problem in reinstall: %s is already being removed (%s)", ip, m.OutputState),
				}
			}
			copies := c.Env.Sack.SearchNevra(t)
			if len(copies) == 0 {
				c.Env.Logger.Warnf("Problem in reinstall: no package %s available", ip)
				failed = append(failed, ip)
				continue
			}
			if !ts.Exists(t) {
				added = append(added, t)
			}
			ts.AddErase(ip)
			m := ts.AddInstall(copies[0])
			ret = append(ret, m)
		}
	}

	if len(failed) > 0 {
		rollback()
		return nil, &ReinstallInstallError{FailedPkgs: failed}
	}
	if len(ret) > 0 {
		ts.AddProbFilter(transaction.ProbFilterReplacePkg,
			transaction.ProbFilterReplaceNewFiles,
			transaction.ProbFilterReplaceOldFiles)
	}
	return ret, nil
}

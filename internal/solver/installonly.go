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

package solver

import (
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// LimitInstallOnly erases the oldest installed copies of install-only
// packages when the pending installs would take them over the configured
// limit. The running kernel is never picked. Each erase is tied to the new
// install that caused it, so skip-broken drops both together. It returns the
// erase members it added.
func LimitInstallOnly(env *Env) []*transaction.Member {
	limit := env.Config.InstallOnlyLimit
	if limit < 1 {
		return nil
	}

	newest := map[string]*transaction.Member{}
	found := map[string]int{}
	names := []string{}
	for _, m := range env.TS.Members() {
		if m.TsState != transaction.TsInstall && m.TsState != transaction.TsUpdate {
			continue
		}
		if m.Reinstall || !env.AllowedMultipleInstalls(m.Pkg) {
			continue
		}
		if _, ok := found[m.Pkg.Name]; !ok {
			names = append(names, m.Pkg.Name)
		}
		found[m.Pkg.Name]++
		if cur := newest[m.Pkg.Name]; cur == nil || m.Pkg.Compare(cur.Pkg) > 0 {
			newest[m.Pkg.Name] = m
		}
	}

	running, hasRunning := env.RPMDB.RunningKernel()
	added := []*transaction.Member{}
	for _, name := range names {
		installed := []*pkg.Pkg{}
		for _, ip := range env.RPMDB.SearchNames(name) {
			if env.RPMDB.InstallOnlyMarker(ip.PkgTup()) == sack.InstallOnlyKeep {
				continue
			}
			installed = append(installed, ip)
		}
		// oldest first
		sack.SortPkgs(installed)

		total := len(installed) + found[name]
		if total <= limit {
			continue
		}
		numleft := total - limit
		for _, ip := range installed {
			if numleft == 0 {
				break
			}
			if hasRunning && ip.Version == running.Version && ip.Release == running.Release {
				continue
			}
			env.Logger.Debugf("installonly limit %d: removing %s", limit, ip)
			m := env.TS.AddErase(ip)
			m.AddRequiredBy(newest[name].Pkg)
			added = append(added, m)
			numleft--
		}
	}
	return added
}

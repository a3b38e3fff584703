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
	"fmt"
	"sort"

	"github.com/rancher-sandbox/rpmtx/internal/arch"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// CheckMultilib reports the names that would end up installed for several
// arches at different versions, as a partial multilib update leaves them.
func CheckMultilib(env *Env) []string {
	msgs := []string{}
	if !env.Config.ProtectedMultilib || !env.Arch.IsMultilib() {
		return msgs
	}

	names := []string{}
	seen := map[string]bool{}
	for _, m := range env.TS.MembersWithState(transaction.InstallStates...) {
		if m.Pkg.Arch == arch.Noarch || seen[m.Pkg.Name] || env.AllowedMultipleInstalls(m.Pkg) {
			continue
		}
		seen[m.Pkg.Name] = true
		names = append(names, m.Pkg.Name)
	}
	if len(names) == 0 {
		return msgs
	}

	byName := map[string][]*pkg.Pkg{}
	for _, p := range env.TS.FinalPackages() {
		if seen[p.Name] && p.Arch != arch.Noarch {
			byName[p.Name] = append(byName[p.Name], p)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		pkgs := byName[name]
		for i := 0; i < len(pkgs); i++ {
			for j := i + 1; j < len(pkgs); j++ {
				a, b := pkgs[i], pkgs[j]
				if a.Arch == b.Arch || a.Compare(b) == 0 {
					continue
				}
				msgs = append(msgs, fmt.Sprintf("Protected multilib versions: %s != %s", a, b))
			}
		}
	}
	return msgs
}

// CheckProtected reports protected packages the transaction would take off
// the system entirely, and the running kernel if it is being removed.
func CheckProtected(env *Env) []string {
	msgs := []string{}
	if running, ok := env.RPMDB.RunningKernel(); ok {
		if env.TS.MemberWithState(running, transaction.RemoveStates...) != nil {
			msgs = append(msgs, fmt.Sprintf("Trying to remove %q, the running kernel", running.String()))
		}
	}
	if len(env.Config.ProtectedPackages) == 0 {
		return msgs
	}

	badToGo := map[string]map[pkg.PkgTup]bool{}
	for _, m := range env.TS.MembersWithState(transaction.RemoveStates...) {
		if !env.Config.IsProtected(m.Pkg.Name) {
			continue
		}
		if badToGo[m.Pkg.Name] == nil {
			badToGo[m.Pkg.Name] = map[pkg.PkgTup]bool{}
		}
		badToGo[m.Pkg.Name][m.PkgTup()] = true
	}
	if len(badToGo) == 0 {
		return msgs
	}

	names := []string{}
	for name := range badToGo {
		names = append(names, name)
	}
	for _, ip := range env.RPMDB.SearchNames(names...) {
		if tups, ok := badToGo[ip.Name]; ok && !tups[ip.PkgTup()] {
			// another installed copy stays
			delete(badToGo, ip.Name)
		}
	}
	for _, m := range env.TS.MembersWithState(transaction.InstallStates...) {
		delete(badToGo, m.Pkg.Name)
	}

	names = names[:0]
	for name := range badToGo {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		msgs = append(msgs, fmt.Sprintf("Trying to remove %q, which is protected", name))
	}
	return msgs
}

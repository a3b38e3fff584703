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

// PruneLeaves queues for removal every installed dependency that nothing
// needs once the packages already leaving the system are gone. A package is
// a candidate when a package being removed requires it and its install
// reason is "dep". It is kept when a package staying on the system, reached
// through its chain of requiring packages, was installed by the user, or
// when a package entering the system requires it. Each removal can expose
// new leaves, so the walk runs until nothing more is found. It returns the
// erase members added.
func PruneLeaves(env *Env) []*transaction.Member {
	beingRemoved := []*pkg.Pkg{}
	removing := map[pkg.PkgTup]bool{}
	for _, m := range env.TS.MembersWithState(transaction.RemoveStates...) {
		beingRemoved = append(beingRemoved, m.Pkg)
		removing[m.PkgTup()] = true
	}

	okToRemove := map[pkg.PkgTup]bool{}
	for _, ip := range env.RPMDB.Packages() {
		okToRemove[ip.PkgTup()] = true
	}

	added := []*transaction.Member{}
	// beingRemoved grows while we walk it
	for i := 0; i < len(beingRemoved); i++ {
		p := beingRemoved[i]
		for _, required := range env.RPMDB.RequiredPackages(p) {
			t := required.PkgTup()
			if env.RPMDB.Reason(t) != sack.ReasonDep {
				okToRemove[t] = false
				continue
			}
			if removing[t] {
				continue
			}
			if hasNeededRevdeps(env, required, removing, okToRemove) {
				continue
			}
			env.Logger.Debugf("removing %s as it is a dep of %s", required, p)
			m := env.TS.AddErase(required)
			m.SetAsDep(p)
			added = append(added, m)
			beingRemoved = append(beingRemoved, required)
			removing[t] = true
		}
	}
	leafRemovalsTotal.Add(float64(len(added)))
	return added
}

// Leaves returns the installed dependencies no package installed by the user
// needs, once the removals already in the transaction are done.
func Leaves(env *Env) []*pkg.Pkg {
	removing := map[pkg.PkgTup]bool{}
	for _, m := range env.TS.MembersWithState(transaction.RemoveStates...) {
		removing[m.PkgTup()] = true
	}
	okToRemove := map[pkg.PkgTup]bool{}
	for _, ip := range env.RPMDB.Packages() {
		okToRemove[ip.PkgTup()] = true
	}

	ret := []*pkg.Pkg{}
	for _, ip := range env.RPMDB.Packages() {
		t := ip.PkgTup()
		if removing[t] || env.RPMDB.Reason(t) != sack.ReasonDep {
			continue
		}
		if !hasNeededRevdeps(env, ip, removing, okToRemove) {
			ret = append(ret, ip)
		}
	}
	return ret
}

const (
	unvisited = iota
	onPath
	done
)

// hasNeededRevdeps walks the requiring packages of p depth first. Reaching a
// package that stays installed and is not a plain dependency marks the whole
// path as needed. Packages already known to be needed short-cut the walk.
func hasNeededRevdeps(env *Env, p *pkg.Pkg, removing, okToRemove map[pkg.PkgTup]bool) bool {
	if !okToRemove[p.PkgTup()] {
		return true
	}
	if env.TS.NewRequiresProvidedBy(p) {
		okToRemove[p.PkgTup()] = false
		return true
	}

	state := map[pkg.PkgTup]int{}
	path := []*pkg.Pkg{}

	var visit func(cur *pkg.Pkg) bool
	visit = func(cur *pkg.Pkg) bool {
		state[cur.PkgTup()] = onPath
		path = append(path, cur)
		defer func() {
			path = path[:len(path)-1]
			state[cur.PkgTup()] = done
		}()

		for _, requiring := range env.RPMDB.RequiringPackages(cur) {
			t := requiring.PkgTup()
			if removing[t] || state[t] != unvisited {
				continue
			}
			if !okToRemove[t] || env.RPMDB.Reason(t) != sack.ReasonDep {
				for _, x := range path {
					okToRemove[x.PkgTup()] = false
				}
				okToRemove[t] = false
				return true
			}
			if visit(requiring) {
				return true
			}
		}
		return false
	}
	return visit(p)
}

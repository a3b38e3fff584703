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
	"context"
	"fmt"
	"time"

	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// SkipBroken drops the packages with dependency problems, and whatever only
// came along with them, from the transaction and from the package sack, then
// checks again. It gives up after MaxRounds rounds, or after MaxNoProgress
// consecutive rounds that change nothing, restoring the messages of the
// first failure.
type SkipBroken struct {
	Checker       DependencyChecker
	MaxRounds     int
	MaxNoProgress int

	env             *Env
	skipped         map[pkg.PkgTup]*pkg.Pkg
	removedFromSack map[pkg.PkgTup]bool
	rounds          int
}

// NewSkipBroken uses the round limits of the env config.
func NewSkipBroken(env *Env, checker DependencyChecker) *SkipBroken {
	return &SkipBroken{
		Checker:       checker,
		MaxRounds:     env.Config.SkipBrokenMaxRounds,
		MaxNoProgress: env.Config.SkipBrokenMaxNoProgress,
		env:           env,
	}
}

// Rounds returns how many rounds the last Run took.
func (sb *SkipBroken) Rounds() int { return sb.rounds }

// Skipped returns the packages dropped by the last Run, sorted.
func (sb *SkipBroken) Skipped() []*pkg.Pkg {
	ret := make([]*pkg.Pkg, 0, len(sb.skipped))
	for _, p := range sb.skipped {
		ret = append(ret, p)
	}
	sack.SortPkgs(ret)
	return ret
}

// Run recovers from a failed check that returned res and msgs.
func (sb *SkipBroken) Run(ctx context.Context, res Result, msgs []string) (Result, []string, error) {
	env := sb.env
	start := time.Now()
	sb.skipped = map[pkg.PkgTup]*pkg.Pkg{}
	sb.removedFromSack = map[pkg.PkgTup]bool{}
	sb.rounds = 0

	origMsgs := msgs
	looping := 0
	// events left over from before skip-broken do not concern the sack
	env.TS.DrainEvents()

	for res == ResultError && len(sb.Checker.Problems()) > 0 && sb.rounds < sb.MaxRounds {
		if err := ctx.Err(); err != nil {
			return res, msgs, err
		}
		sb.rounds++
		skipBrokenRoundsTotal.Inc()
		env.RPMDB.InvalidateCaches()
		env.Sack.InvalidateCaches()
		env.Logger.Debugf("SKIPBROKEN: round %d", sb.rounds)

		depTree := sb.buildDepTree()
		startTs := memberSet(env.TS)
		toRemove := newPkgSet()
		for _, prob := range sb.Checker.Problems() {
			switch {
			case prob.Pkg != nil && env.TS.Exists(prob.Pkg.PkgTup()):
				sb.packagesToRemove(prob.Pkg, depTree, toRemove)
				sb.removeFromSack(prob.Pkg)
			case prob.Related != nil:
				if prob.Pkg != nil {
					sb.removeFromSack(prob.Pkg)
				}
				sb.packagesToRemove(prob.Related, depTree, toRemove)
				sb.removeFromSack(prob.Related)
			case prob.Pkg != nil:
				sb.removeFromSack(prob.Pkg)
			}
		}

		for _, p := range toRemove.list {
			sb.skipFromTransaction(p)
		}
		sb.syncSack()

		if toRemove.len() == 0 {
			looping++
			if looping > sb.MaxNoProgress {
				break
			}
			env.Logger.Debugf("SKIPBROKEN: resetting already resolved packages (no packages to skip)")
			env.TS.ResetResolved(true)
		}

		var err error
		res, msgs, err = sb.Checker.ResolveDeps(ctx, env)
		if err != nil {
			return res, msgs, err
		}
		sb.syncSack()

		if sameMembers(startTs, memberSet(env.TS)) {
			looping++
			if looping > sb.MaxNoProgress {
				break
			}
			env.Logger.Debugf("SKIPBROKEN: resetting already resolved packages (transaction not changed)")
			env.TS.ResetResolved(true)
		} else {
			looping = 0
		}

		// the packages skipped so far can break what passed before
		if res != ResultError {
			env.Logger.Debugf("SKIPBROKEN: sanity check the current transaction")
			env.TS.ResetResolved(true)
			for _, msg := range env.TS.Repair() {
				env.Logger.Debugf("SKIPBROKEN: %s", msg)
			}
			res, msgs, err = sb.Checker.ResolveDeps(ctx, env)
			if err != nil {
				return res, msgs, err
			}
			sb.syncSack()
		}
	}

	if res == ResultError {
		env.Logger.Infof("Skip-broken could not solve problems")
		return ResultError, origMsgs, nil
	}
	env.Logger.Debugf("SKIPBROKEN: took %d rounds (%0.3f sec)", sb.rounds, time.Since(start).Seconds())
	skippedPackagesTotal.Add(float64(len(sb.skipped)))
	for _, p := range sb.Skipped() {
		env.Logger.Infof("Skipping %s from %s: dependency problems", p, p.Repository)
	}
	return res, msgs, nil
}

// buildDepTree maps each package to the members it pulled in.
func (sb *SkipBroken) buildDepTree() map[pkg.PkgTup][]*pkg.Pkg {
	tree := map[pkg.PkgTup][]*pkg.Pkg{}
	for _, m := range sb.env.TS.Members() {
		for _, r := range m.RequiredBy {
			tree[r.PkgTup()] = append(tree[r.PkgTup()], m.Pkg)
		}
	}
	return tree
}

// packagesToRemove collects p, what its member updates, obsoletes or is
// related to, and the dependencies left without a requirer.
func (sb *SkipBroken) packagesToRemove(p *pkg.Pkg, tree map[pkg.PkgTup][]*pkg.Pkg, toRemove *pkgSet) {
	toRemove.add(p)
	if m := sb.env.TS.Member(p.PkgTup()); m != nil {
		related := append(append([]*pkg.Pkg{}, m.Updates...), m.Obsoletes...)
		for _, r := range m.RelatedTo {
			related = append(related, r.Pkg)
		}
		for _, r := range related {
			if toRemove.add(r) {
				sb.depsToRemove(r, tree, toRemove)
			}
		}
	}
	sb.depsToRemove(p, tree, toRemove)
}

// depsToRemove adds the members p pulled in that nothing else requires.
func (sb *SkipBroken) depsToRemove(p *pkg.Pkg, tree map[pkg.PkgTup][]*pkg.Pkg, toRemove *pkgSet) {
	for _, dep := range tree[p.PkgTup()] {
		moreDeps := false
		if m := sb.env.TS.Member(dep.PkgTup()); m != nil {
			m.RemoveDep(p)
			for _, r := range m.RequiredBy {
				if !toRemove.has(r) {
					moreDeps = true
					break
				}
			}
		}
		if !moreDeps && toRemove.add(dep) {
			sb.depsToRemove(dep, tree, toRemove)
		}
	}
}

// skipFromTransaction removes p and its builds for every compatible arch.
func (sb *SkipBroken) skipFromTransaction(p *pkg.Pkg) {
	env := sb.env
	for _, a := range archesFor(env, p.Arch) {
		t := pkg.NewPkgTup(p.Name, a, p.Epoch, p.Version, p.Release)
		if !env.TS.Exists(t) {
			continue
		}
		env.Logger.Debugf("SKIPBROKEN: removing %s from transaction", t)
		for _, m := range env.TS.Remove(t) {
			if !m.Pkg.IsInstalled() {
				sb.skipped[m.PkgTup()] = m.Pkg
			}
		}
	}
}

// syncSack applies the membership events to the sack: available packages
// dropped from the transaction leave the sack so no later pass pulls them
// back in.
func (sb *SkipBroken) syncSack() {
	for _, ev := range sb.env.TS.DrainEvents() {
		if ev.Kind != transaction.MemberRemoved {
			continue
		}
		if _, ok := sb.skipped[ev.Member.PkgTup()]; ok {
			sb.removeFromSack(ev.Member.Pkg)
		}
	}
}

// removeFromSack deletes p and its compatible arch builds from the sack, so
// a skipped x86_64 package does not drag its i686 sibling in.
func (sb *SkipBroken) removeFromSack(p *pkg.Pkg) {
	if p.IsInstalled() {
		return
	}
	env := sb.env
	for _, a := range archesFor(env, p.Arch) {
		q := pkg.NewPkgTup(p.Name, a, p.Epoch, p.Version, p.Release)
		for _, sp := range env.Sack.SearchNevra(q) {
			if sb.removedFromSack[sp.PkgTup()] {
				continue
			}
			env.Logger.Debugf("SKIPBROKEN: removing %s from pkgSack", sp)
			env.Sack.Delete(sp)
			sb.removedFromSack[sp.PkgTup()] = true
		}
	}
}

func archesFor(env *Env, a string) []string {
	list := env.Arch.ArchList()
	for _, x := range list {
		if x == a {
			return list
		}
	}
	return append(list, a)
}

type pkgSet struct {
	seen map[pkg.PkgTup]bool
	list []*pkg.Pkg
}

func newPkgSet() *pkgSet {
	return &pkgSet{seen: map[pkg.PkgTup]bool{}}
}

// add reports whether p was not in the set yet.
func (s *pkgSet) add(p *pkg.Pkg) bool {
	t := p.PkgTup()
	if s.seen[t] {
		return false
	}
	s.seen[t] = true
	s.list = append(s.list, p)
	return true
}

func (s *pkgSet) has(p *pkg.Pkg) bool { return s.seen[p.PkgTup()] }

func (s *pkgSet) len() int { return len(s.list) }

func memberSet(ts *transaction.Info) map[pkg.PkgTup]bool {
	ret := map[pkg.PkgTup]bool{}
	for _, m := range ts.Members() {
		ret[m.PkgTup()] = true
	}
	return ret
}

// sameMembers reports whether nothing of before left the transaction.
func sameMembers(before, after map[pkg.PkgTup]bool) bool {
	for t := range before {
		if !after[t] {
			return false
		}
	}
	return true
}

func formatSkipped(pkgs []*pkg.Pkg) []string {
	ret := []string{}
	for _, p := range pkgs {
		ret = append(ret, fmt.Sprintf("%s from %s", p, p.Repository))
	}
	return ret
}

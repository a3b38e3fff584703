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

// Package depcheck is a dependency checker working on package metadata only.
package depcheck

import (
	"context"
	"fmt"

	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// DefaultMaxPasses bounds the passes over unresolved members.
const DefaultMaxPasses = 1000

// Checker resolves requirements against the sack and the rpmdb. New
// requirements pull in providers, packages requiring an erased package are
// erased too, and packages requiring something an update takes away are
// updated when a newer version exists.
type Checker struct {
	MaxPasses int

	problems []solver.Problem
}

func New() *Checker {
	return &Checker{MaxPasses: DefaultMaxPasses}
}

func (c *Checker) Problems() []solver.Problem {
	return c.problems
}

func (c *Checker) ResolveDeps(ctx context.Context, env *solver.Env) (solver.Result, []string, error) {
	c.problems = []solver.Problem{}
	ts := env.TS

	for pass := 0; ; pass++ {
		if pass >= c.MaxPasses {
			c.problems = append(c.problems, solver.Problem{
				Message: fmt.Sprintf("dependency resolution did not settle after %d passes", pass),
			})
			break
		}
		if err := ctx.Err(); err != nil {
			return solver.ResultError, nil, err
		}
		unresolved := ts.UnresolvedMembers()
		if len(unresolved) == 0 {
			break
		}
		env.Logger.Debugf("depcheck pass %d: %d unresolved members", pass+1, len(unresolved))
		for _, m := range unresolved {
			ts.MarkResolved(m.PkgTup())
			if !ts.Exists(m.PkgTup()) {
				continue
			}
			switch {
			case m.IsInstall():
				c.checkInstall(env, m)
			case m.IsRemove():
				c.checkRemove(env, m)
			}
		}
	}

	if len(c.problems) > 0 {
		msgs := []string{}
		for _, p := range c.problems {
			msgs = append(msgs, p.Message)
		}
		return solver.ResultError, msgs, nil
	}
	if ts.Len() == 0 {
		return solver.ResultEmpty, []string{}, nil
	}
	return solver.ResultOK, []string{}, nil
}

// checkInstall pulls in a provider for every requirement of m nothing on the
// final system satisfies, and reports conflicts.
func (c *Checker) checkInstall(env *solver.Env, m *transaction.Member) {
	p := m.Pkg
	for _, req := range p.Requires {
		if p.ProvidesFor(req) || satisfied(env, req, nil) {
			continue
		}
		prov := bestProvider(env, p, req)
		if prov == nil {
			c.problems = append(c.problems, solver.Problem{
				Pkg:     p,
				Message: fmt.Sprintf("%s requires %s", p, req),
			})
			continue
		}
		env.Logger.Debugf("%s requires %s, pulling in %s", p, req, prov)
		dep := addProvider(env, prov)
		dep.SetAsDep(p)
	}

	for _, q := range env.TS.FinalPackages() {
		if q.PkgTup() == p.PkgTup() {
			continue
		}
		if p.ConflictsWith(q) || q.ConflictsWith(p) {
			c.problems = append(c.problems, solver.Problem{
				Pkg:     p,
				Related: q,
				Message: fmt.Sprintf("%s conflicts with %s", p, q),
			})
		}
	}
}

// checkRemove handles the installed packages that require m. When m is
// erased they are erased too. When m is replaced by an update, obsoleter or
// downgrade, they are updated if a newer version exists, and reported
// otherwise.
func (c *Checker) checkRemove(env *solver.Env, m *transaction.Member) {
	ts := env.TS
	replacer := replacerOf(m)
	for _, r := range env.RPMDB.RequiringPackages(m.Pkg) {
		if ts.MemberWithState(r.PkgTup(), transaction.RemoveStates...) != nil {
			continue
		}
		for _, req := range r.Requires {
			if !m.Pkg.ProvidesFor(req) || satisfied(env, req, r) {
				continue
			}
			if replacer == nil {
				env.Logger.Debugf("%s requires %s, removing it with %s", r, req, m.Pkg)
				ts.AddErase(r).SetAsDep(m.Pkg)
				break
			}
			if up := newerVersion(env, r); up != nil {
				env.Logger.Debugf("%s requires %s, updating it to %s", r, req, up)
				ts.AddUpdate(up, r).SetAsDep(replacer)
				break
			}
			c.problems = append(c.problems, solver.Problem{
				Pkg:     r,
				Related: replacer,
				Message: fmt.Sprintf("%s requires %s, which %s removes", r, req, replacer),
			})
			break
		}
	}
}

func replacerOf(m *transaction.Member) *pkg.Pkg {
	for _, list := range [][]*pkg.Pkg{m.UpdatedBy, m.ObsoletedBy, m.DowngradedBy} {
		if len(list) > 0 {
			return list[0]
		}
	}
	return nil
}

// satisfied reports whether a package staying on or entering the system,
// other than skip, provides req.
func satisfied(env *solver.Env, req *pkg.PkgRel, skip *pkg.Pkg) bool {
	for _, m := range env.TS.MembersWithState(transaction.InstallStates...) {
		if m.Pkg.ProvidesFor(req) && (skip == nil || m.PkgTup() != skip.PkgTup()) {
			return true
		}
	}
	for _, ip := range env.RPMDB.SearchProvides(req) {
		if skip != nil && ip.PkgTup() == skip.PkgTup() {
			continue
		}
		if env.TS.MemberWithState(ip.PkgTup(), transaction.RemoveStates...) == nil {
			return true
		}
	}
	return false
}

// bestProvider picks the provider of req for requirer: a package named like
// the requirement first, then one of the requirer's arch, then the newest,
// then the best arch.
func bestProvider(env *solver.Env, requirer *pkg.Pkg, req *pkg.PkgRel) *pkg.Pkg {
	var best *pkg.Pkg
	for _, p := range env.Sack.SearchProvides(req) {
		if !env.Arch.Compatible(p.Arch) {
			continue
		}
		if env.TS.MemberWithState(p.PkgTup(), transaction.RemoveStates...) != nil {
			continue
		}
		if best == nil || betterProvider(env, requirer, req, p, best) {
			best = p
		}
	}
	return best
}

func betterProvider(env *solver.Env, requirer *pkg.Pkg, req *pkg.PkgRel, a, b *pkg.Pkg) bool {
	if (a.Name == req.Name) != (b.Name == req.Name) {
		return a.Name == req.Name
	}
	if (a.Arch == requirer.Arch) != (b.Arch == requirer.Arch) {
		return a.Arch == requirer.Arch
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if c := a.Compare(b); c != 0 {
		return c > 0
	}
	sa, sb := env.Arch.Score(a.Arch), env.Arch.Score(b.Arch)
	return sa != 0 && (sb == 0 || sa < sb)
}

// addProvider adds prov as an update of its installed older version when
// there is one, as a plain install otherwise.
func addProvider(env *solver.Env, prov *pkg.Pkg) *transaction.Member {
	if env.AllowedMultipleInstalls(prov) {
		return env.TS.AddTrueInstall(prov)
	}
	for _, ip := range env.RPMDB.SearchNames(prov.Name) {
		if ip.Compare(prov) < 0 && env.Arch.UpdateCompatible(ip.Arch, prov.Arch) {
			return env.TS.AddUpdate(prov, ip)
		}
	}
	return env.TS.AddInstall(prov)
}

// newerVersion returns the newest available version of installed package
// ip, if newer than ip and not already entering the system.
func newerVersion(env *solver.Env, ip *pkg.Pkg) *pkg.Pkg {
	var best *pkg.Pkg
	for _, p := range env.Sack.SearchNames(ip.Name) {
		if !env.Arch.UpdateCompatible(ip.Arch, p.Arch) || p.Compare(ip) <= 0 {
			continue
		}
		if best == nil || p.Compare(best) > 0 {
			best = p
		}
	}
	if best != nil && env.TS.Exists(best.PkgTup()) {
		return nil
	}
	return best
}

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
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/pkg/errors"
	"github.com/rancher-sandbox/rpmtx/internal/arch"
	"github.com/rancher-sandbox/rpmtx/internal/config"
	"github.com/rancher-sandbox/rpmtx/internal/graph"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// search returns the packages of s matched by sel.
func search(s sack.PackageSack, sel Selector) []*pkg.Pkg {
	switch q := sel.(type) {
	case Pattern:
		found, _ := s.MatchPatterns(string(q))
		return found
	case Nevra:
		if q.Name == "" {
			return []*pkg.Pkg{}
		}
		return s.SearchNevra(pkg.PkgTup{
			Name:    q.Name,
			Arch:    q.Arch,
			Epoch:   q.Epoch,
			Version: q.Version,
			Release: q.Release,
		})
	case PkgTup:
		return s.SearchNevra(pkg.PkgTup(q))
	case DirectRef:
		if q.Pkg == nil || !s.Contains(q.Pkg.PkgTup()) {
			return []*pkg.Pkg{}
		}
		return []*pkg.Pkg{q.Pkg}
	}
	return []*pkg.Pkg{}
}

// available returns the packages sel matches in the repositories, or the
// local package it names.
func (c *Configuration) available(sel Selector) ([]*pkg.Pkg, error) {
	switch q := sel.(type) {
	case Pattern:
		if q.IsLocalFile() {
			p, err := c.localPackage(string(q))
			if err != nil {
				return nil, err
			}
			if p == nil {
				return []*pkg.Pkg{}, nil
			}
			return []*pkg.Pkg{p}, nil
		}
	case DirectRef:
		if q.Pkg != nil && q.Pkg.IsLocal() {
			c.Env.Sack.Add(q.Pkg)
			return []*pkg.Pkg{q.Pkg}, nil
		}
	}
	return search(c.Env.Sack, sel), nil
}

// installed returns the installed packages sel matches.
func (c *Configuration) installed(sel Selector) []*pkg.Pkg {
	return search(c.Env.RPMDB, sel)
}

// localPackage looks up a local package file. The path is resolved under the
// world root and may not point outside of it. A found package joins the
// sack so the resolver can see it.
func (c *Configuration) localPackage(path string) (*pkg.Pkg, error) {
	if c.World == nil {
		return nil, nil
	}
	full, err := securejoin.SecureJoin(c.World.Root, strings.TrimPrefix(path, c.World.Root))
	if err != nil {
		return nil, errors.Wrapf(err, "resolving %s", path)
	}
	p, ok := c.World.Local[full]
	if !ok {
		return nil, nil
	}
	if !c.Env.Sack.Contains(p.PkgTup()) {
		c.Env.Sack.Add(p)
	}
	return p, nil
}

// noMatch builds the error for an unmatched selector, or nil when policy
// tolerates missing names.
func (c *Configuration) noMatch(op string, sel Selector) error {
	if _, ok := sel.(Pattern); ok && c.Env.Config.SkipMissingNames {
		c.Env.Logger.Warnf("No match for argument: %s", sel)
		return nil
	}
	return &NoMatchError{Op: op, Selector: sel}
}

// bestPackages narrows pkgs to what an install of them should pick: the
// newest of each name.arch, then the multilib policy. Under "best", when
// the primary arches or noarch offer the name, only the newest of those is
// kept. Names in the exact arch list keep every arch.
func (c *Configuration) bestPackages(pkgs []*pkg.Pkg) []*pkg.Pkg {
	env := c.Env
	compatible := []*pkg.Pkg{}
	for _, p := range pkgs {
		if env.Arch.Compatible(p.Arch) {
			compatible = append(compatible, p)
		}
	}
	newest := sack.NewestByNameArch(compatible)
	if env.Config.MultilibPolicy == config.MultilibAll {
		return newest
	}

	byName := map[string][]*pkg.Pkg{}
	order := []string{}
	for _, p := range newest {
		if _, ok := byName[p.Name]; !ok {
			order = append(order, p.Name)
		}
		byName[p.Name] = append(byName[p.Name], p)
	}

	best := map[string]bool{arch.Noarch: true}
	for _, a := range env.Arch.BestArches() {
		best[a] = true
	}
	ret := []*pkg.Pkg{}
	for _, name := range order {
		cands := byName[name]
		if env.Config.IsExactArch(name) {
			ret = append(ret, cands...)
			continue
		}
		primary := []*pkg.Pkg{}
		for _, p := range cands {
			if best[p.Arch] {
				primary = append(primary, p)
			}
		}
		if len(primary) == 0 {
			// only secondary arches offer it, as with an explicit foo.i686
			ret = append(ret, cands...)
			continue
		}
		ret = append(ret, pickBest(env.Arch, primary))
	}
	sack.SortPkgs(ret)
	return ret
}

// pickBest returns the newest of pkgs, preferring the best scored arch on
// equal versions.
func pickBest(policy arch.Policy, pkgs []*pkg.Pkg) *pkg.Pkg {
	var best *pkg.Pkg
	for _, p := range pkgs {
		if best == nil {
			best = p
			continue
		}
		c := p.Compare(best)
		if c > 0 || (c == 0 && policy.Score(p.Arch) < policy.Score(best.Arch)) {
			best = p
		}
	}
	return best
}

// obsoleterOf follows the chain of available packages obsoleting p and
// returns its end. An obsoletion cycle counts as no obsoleter.
func (c *Configuration) obsoleterOf(p *pkg.Pkg) *pkg.Pkg {
	env := c.Env
	next := func(cur *pkg.Pkg) (*pkg.Pkg, bool) {
		var best *pkg.Pkg
		for _, o := range env.Sack.SearchObsoleters(cur) {
			if o.Name == cur.Name || !env.Arch.Compatible(o.Arch) {
				continue
			}
			if best == nil || betterObsoleter(env.Arch, cur, o, best) {
				best = o
			}
		}
		return best, best != nil
	}
	end, res := graph.Chase(p, next)
	if res == graph.Cycle {
		env.Logger.Warnf("obsoletion loop starting at %s, ignoring obsoletes", p)
		return nil
	}
	return end
}

func betterObsoleter(policy arch.Policy, obsoleted, a, b *pkg.Pkg) bool {
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	if c := a.Compare(b); c != 0 {
		return c > 0
	}
	if (a.Arch == obsoleted.Arch) != (b.Arch == obsoleted.Arch) {
		return a.Arch == obsoleted.Arch
	}
	return policy.Score(a.Arch) < policy.Score(b.Arch)
}

// validArch rejects p when another arch of the same name and version is
// installed or being installed and the two arches cannot coexist.
func (c *Configuration) validArch(p *pkg.Pkg) bool {
	env := c.Env
	if !env.Arch.Compatible(p.Arch) {
		return false
	}
	others := env.RPMDB.SearchNames(p.Name)
	for _, m := range env.TS.MatchNaevr(pkg.PkgTup{Name: p.Name}) {
		if m.IsInstall() {
			others = append(others, m.Pkg)
		}
	}
	for _, o := range others {
		if o.Arch == p.Arch || o.Compare(p) != 0 {
			continue
		}
		if env.TS.MemberWithState(o.PkgTup(), transaction.RemoveStates...) != nil {
			continue
		}
		if !env.Arch.Coinstallable(o.Arch, p.Arch) {
			return false
		}
	}
	return true
}

// newestUpdate returns the newest package of cands updating installed ip.
func (c *Configuration) newestUpdate(ip *pkg.Pkg, cands []*pkg.Pkg) *pkg.Pkg {
	var best *pkg.Pkg
	for _, p := range cands {
		if p.Name != ip.Name || p.Compare(ip) <= 0 || !c.Env.Arch.UpdateCompatible(ip.Arch, p.Arch) {
			continue
		}
		if best == nil || p.Compare(best) > 0 || (p.Compare(best) == 0 && p.Arch == ip.Arch) {
			best = p
		}
	}
	return best
}

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

/*
Package sack holds package collections: the sack of packages available from
repositories and the rpm database of installed packages.

Packages are keyed by fingerprint (tuple plus repository), with a secondary
index by name. Query results are always sorted by name, EVR and arch so the
resolver behaves the same from run to run.
*/
package sack

import (
	"sort"

	"github.com/Masterminds/log-go"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
)

// PackageSack is a queryable collection of packages.
type PackageSack interface {
	Add(p *pkg.Pkg)
	Delete(p *pkg.Pkg) bool
	Packages() []*pkg.Pkg
	Len() int
	Contains(t pkg.PkgTup) bool
	// SearchNevra treats empty fields of q as wildcards.
	SearchNevra(q pkg.PkgTup) []*pkg.Pkg
	SearchNames(names ...string) []*pkg.Pkg
	// ReturnNewestByName returns, per name, every arch at the newest EVR.
	ReturnNewestByName(name string) []*pkg.Pkg
	// ReturnNewestByNameArch returns the newest package of each name.arch.
	// An empty arch means every arch.
	ReturnNewestByNameArch(name, arch string) []*pkg.Pkg
	MatchPatterns(patterns ...string) (matched []*pkg.Pkg, unmatched []string)
	SearchProvides(req *pkg.PkgRel) []*pkg.Pkg
	SearchObsoleters(p *pkg.Pkg) []*pkg.Pkg
	AddExclude(patterns ...string)
	SetIncludeOnly(patterns ...string)
	InvalidateCaches()
}

// MemorySack implements PackageSack in memory.
//
// Excluded packages stay stored but are invisible to every query.
type MemorySack struct {
	mapFingerprintToPkg map[string]*pkg.Pkg
	// map: name -> fingerprints
	mapNameToFingerprints map[string]map[string]struct{}

	excludes    []string
	includeOnly []string

	// caches, dropped by InvalidateCaches
	providesIndex map[string][]*pkg.Pkg
	obsoletesIdx  map[string][]*pkg.Pkg
	visible       map[string]bool
}

// New creates an empty sack.
func New() *MemorySack {
	return &MemorySack{
		mapFingerprintToPkg:   make(map[string]*pkg.Pkg),
		mapNameToFingerprints: make(map[string]map[string]struct{}),
	}
}

// NewWithPackages creates a sack filled with pkgs.
// Useful for testing.
func NewWithPackages(pkgs ...*pkg.Pkg) *MemorySack {
	s := New()
	for _, p := range pkgs {
		s.Add(p)
	}
	return s
}

// Add adds a package, replacing any package with the same fingerprint.
func (s *MemorySack) Add(p *pkg.Pkg) {
	fp := p.GetFingerPrint()
	s.mapFingerprintToPkg[fp] = p
	if _, ok := s.mapNameToFingerprints[p.Name]; !ok {
		s.mapNameToFingerprints[p.Name] = make(map[string]struct{})
	}
	s.mapNameToFingerprints[p.Name][fp] = struct{}{}
	s.InvalidateCaches()
}

// Delete removes p from the sack, reporting whether it was there.
func (s *MemorySack) Delete(p *pkg.Pkg) bool {
	fp := p.GetFingerPrint()
	if _, ok := s.mapFingerprintToPkg[fp]; !ok {
		return false
	}
	delete(s.mapFingerprintToPkg, fp)
	delete(s.mapNameToFingerprints[p.Name], fp)
	if len(s.mapNameToFingerprints[p.Name]) == 0 {
		delete(s.mapNameToFingerprints, p.Name)
	}
	s.InvalidateCaches()
	return true
}

func (s *MemorySack) InvalidateCaches() {
	s.providesIndex = nil
	s.obsoletesIdx = nil
	s.visible = nil
}

// AddExclude hides packages matching any of patterns.
func (s *MemorySack) AddExclude(patterns ...string) {
	s.excludes = append(s.excludes, patterns...)
	s.InvalidateCaches()
}

// SetIncludeOnly hides every package not matching one of patterns. An empty
// list disables the filter.
func (s *MemorySack) SetIncludeOnly(patterns ...string) {
	s.includeOnly = patterns
	s.InvalidateCaches()
}

func (s *MemorySack) isVisible(fp string, p *pkg.Pkg) bool {
	if s.visible == nil {
		s.visible = make(map[string]bool)
	}
	if v, ok := s.visible[fp]; ok {
		return v
	}
	v := true
	if len(s.excludes) > 0 && p.MatchAny(s.excludes) {
		v = false
	}
	if v && len(s.includeOnly) > 0 && !p.MatchAny(s.includeOnly) {
		v = false
	}
	s.visible[fp] = v
	return v
}

// Packages returns every visible package, sorted.
func (s *MemorySack) Packages() []*pkg.Pkg {
	ret := []*pkg.Pkg{}
	for fp, p := range s.mapFingerprintToPkg {
		if s.isVisible(fp, p) {
			ret = append(ret, p)
		}
	}
	SortPkgs(ret)
	return ret
}

func (s *MemorySack) Len() int {
	return len(s.Packages())
}

func (s *MemorySack) Contains(t pkg.PkgTup) bool {
	return len(s.SearchNevra(t)) > 0
}

func (s *MemorySack) byName(name string) []*pkg.Pkg {
	ret := []*pkg.Pkg{}
	for fp := range s.mapNameToFingerprints[name] {
		p := s.mapFingerprintToPkg[fp]
		if s.isVisible(fp, p) {
			ret = append(ret, p)
		}
	}
	return ret
}

func (s *MemorySack) SearchNevra(q pkg.PkgTup) []*pkg.Pkg {
	var cands []*pkg.Pkg
	if q.Name != "" {
		cands = s.byName(q.Name)
	} else {
		cands = s.Packages()
	}
	ret := []*pkg.Pkg{}
	for _, p := range cands {
		if q.Arch != "" && q.Arch != p.Arch {
			continue
		}
		if q.Epoch != "" && q.Epoch != p.Epoch {
			continue
		}
		if q.Version != "" && q.Version != p.Version {
			continue
		}
		if q.Release != "" && q.Release != p.Release {
			continue
		}
		ret = append(ret, p)
	}
	SortPkgs(ret)
	return ret
}

func (s *MemorySack) SearchNames(names ...string) []*pkg.Pkg {
	ret := []*pkg.Pkg{}
	for _, n := range names {
		ret = append(ret, s.byName(n)...)
	}
	SortPkgs(ret)
	return ret
}

func (s *MemorySack) ReturnNewestByName(name string) []*pkg.Pkg {
	pkgs := s.byName(name)
	if len(pkgs) == 0 {
		return []*pkg.Pkg{}
	}
	SortPkgs(pkgs)
	newest := pkgs[len(pkgs)-1]
	ret := []*pkg.Pkg{}
	for _, p := range pkgs {
		if p.Compare(newest) == 0 {
			ret = append(ret, p)
		}
	}
	return ret
}

func (s *MemorySack) ReturnNewestByNameArch(name, arch string) []*pkg.Pkg {
	return NewestByNameArch(s.SearchNevra(pkg.PkgTup{Name: name, Arch: arch}))
}

// MatchPatterns returns the visible packages matched by any of patterns, and
// the patterns that matched nothing.
func (s *MemorySack) MatchPatterns(patterns ...string) ([]*pkg.Pkg, []string) {
	matched := []*pkg.Pkg{}
	unmatched := []string{}
	seen := map[string]bool{}
	all := s.Packages()
	for _, pat := range patterns {
		found := false
		for _, p := range all {
			if p.MatchPattern(pat) {
				found = true
				if !seen[p.GetFingerPrint()] {
					seen[p.GetFingerPrint()] = true
					matched = append(matched, p)
				}
			}
		}
		if !found {
			unmatched = append(unmatched, pat)
		}
	}
	SortPkgs(matched)
	return matched, unmatched
}

func (s *MemorySack) buildIndexes() {
	if s.providesIndex != nil {
		return
	}
	s.providesIndex = make(map[string][]*pkg.Pkg)
	s.obsoletesIdx = make(map[string][]*pkg.Pkg)
	for _, p := range s.Packages() {
		for _, n := range p.ProvideNames() {
			s.providesIndex[n] = append(s.providesIndex[n], p)
		}
		for _, f := range p.Files {
			s.providesIndex[f] = append(s.providesIndex[f], p)
		}
		for _, o := range p.Obsoletes {
			s.obsoletesIdx[o.Name] = append(s.obsoletesIdx[o.Name], p)
		}
	}
}

// SearchProvides returns the packages satisfying req.
func (s *MemorySack) SearchProvides(req *pkg.PkgRel) []*pkg.Pkg {
	s.buildIndexes()
	ret := []*pkg.Pkg{}
	seen := map[*pkg.Pkg]bool{}
	for _, p := range s.providesIndex[req.Name] {
		if !seen[p] && p.ProvidesFor(req) {
			seen[p] = true
			ret = append(ret, p)
		}
	}
	SortPkgs(ret)
	return ret
}

// SearchObsoleters returns the packages whose obsoletes match p.
func (s *MemorySack) SearchObsoleters(p *pkg.Pkg) []*pkg.Pkg {
	s.buildIndexes()
	ret := []*pkg.Pkg{}
	seen := map[*pkg.Pkg]bool{}
	for _, o := range s.obsoletesIdx[p.Name] {
		if !seen[o] && o.ObsoletesPkg(p) {
			seen[o] = true
			ret = append(ret, o)
		}
	}
	SortPkgs(ret)
	return ret
}

// DebugPrint dumps the sack contents to logger.
func (s *MemorySack) DebugPrint(logger log.Logger) {
	logger.Debugf("Printing sack")
	for _, p := range s.Packages() {
		logger.Debugf("%s from %s", p, p.Repository)
	}
}

// SortPkgs orders packages by name, EVR, arch and repository.
func SortPkgs(pkgs []*pkg.Pkg) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := a.Compare(b); c != 0 {
			return c < 0
		}
		if a.Arch != b.Arch {
			return a.Arch < b.Arch
		}
		return a.Repository < b.Repository
	})
}

// NewestByNameArch keeps, for each name.arch in pkgs, the packages at the
// newest EVR.
func NewestByNameArch(pkgs []*pkg.Pkg) []*pkg.Pkg {
	newest := map[string][]*pkg.Pkg{}
	order := []string{}
	for _, p := range pkgs {
		bfp := p.GetBaseFingerPrint()
		cur, ok := newest[bfp]
		switch {
		case !ok:
			order = append(order, bfp)
			newest[bfp] = []*pkg.Pkg{p}
		case p.Compare(cur[0]) > 0:
			newest[bfp] = []*pkg.Pkg{p}
		case p.Compare(cur[0]) == 0:
			newest[bfp] = append(cur, p)
		}
	}
	ret := []*pkg.Pkg{}
	for _, bfp := range order {
		ret = append(ret, newest[bfp]...)
	}
	SortPkgs(ret)
	return ret
}

// NewestByName keeps, for each name in pkgs, the packages at the newest EVR
// whatever their arch.
func NewestByName(pkgs []*pkg.Pkg) []*pkg.Pkg {
	newest := map[string]*pkg.Pkg{}
	for _, p := range pkgs {
		if cur, ok := newest[p.Name]; !ok || p.Compare(cur) > 0 {
			newest[p.Name] = p
		}
	}
	ret := []*pkg.Pkg{}
	for _, p := range pkgs {
		if p.Compare(newest[p.Name]) == 0 {
			ret = append(ret, p)
		}
	}
	SortPkgs(ret)
	return ret
}

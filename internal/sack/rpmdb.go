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

package sack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
)

const (
	ReasonUser = "user"
	ReasonDep  = "dep"
)

// InstallOnlyKeep marks an installed package the install-only limit must
// never erase.
const InstallOnlyKeep = "keep"

// RPMDB is the sack of installed packages plus the per-package data the rpm
// and yum databases keep.
type RPMDB interface {
	PackageSack
	// Reason is why p was installed: "user" or "dep".
	Reason(t pkg.PkgTup) string
	InstallOnlyMarker(t pkg.PkgTup) string
	Groups(t pkg.PkgTup) []string
	RunningKernel() (pkg.PkgTup, bool)
	// RequiringPackages returns the installed packages requiring something p
	// provides.
	RequiringPackages(p *pkg.Pkg) []*pkg.Pkg
	// RequiredPackages returns the installed packages providing something p
	// requires.
	RequiredPackages(p *pkg.Pkg) []*pkg.Pkg
	// SimpleVersion summarizes the installed set as "count:digest".
	SimpleVersion() string
}

// MemoryRPMDB implements RPMDB in memory.
type MemoryRPMDB struct {
	*MemorySack
	reasons       map[pkg.PkgTup]string
	installOnly   map[pkg.PkgTup]string
	groups        map[pkg.PkgTup][]string
	runningKernel *pkg.PkgTup

	requiringCache map[pkg.PkgTup][]*pkg.Pkg
}

// NewRPMDB creates an empty installed-package database.
func NewRPMDB() *MemoryRPMDB {
	return &MemoryRPMDB{
		MemorySack:  New(),
		reasons:     map[pkg.PkgTup]string{},
		installOnly: map[pkg.PkgTup]string{},
		groups:      map[pkg.PkgTup][]string{},
	}
}

// Install records p as installed for reason. p is marked as coming from the
// rpm database.
func (db *MemoryRPMDB) Install(p *pkg.Pkg, reason string) {
	p.Repository = pkg.InstalledRepo
	p.Origin = pkg.OriginInstalled
	db.Add(p)
	if reason == "" {
		reason = ReasonUser
	}
	db.reasons[p.PkgTup()] = reason
}

func (db *MemoryRPMDB) Add(p *pkg.Pkg) {
	db.MemorySack.Add(p)
	db.requiringCache = nil
}

func (db *MemoryRPMDB) Delete(p *pkg.Pkg) bool {
	db.requiringCache = nil
	return db.MemorySack.Delete(p)
}

func (db *MemoryRPMDB) InvalidateCaches() {
	db.MemorySack.InvalidateCaches()
	db.requiringCache = nil
}

func (db *MemoryRPMDB) SetReason(t pkg.PkgTup, reason string) {
	db.reasons[t] = reason
}

func (db *MemoryRPMDB) Reason(t pkg.PkgTup) string {
	if r, ok := db.reasons[t]; ok {
		return r
	}
	return ReasonUser
}

func (db *MemoryRPMDB) SetInstallOnlyMarker(t pkg.PkgTup, marker string) {
	db.installOnly[t] = marker
}

func (db *MemoryRPMDB) InstallOnlyMarker(t pkg.PkgTup) string {
	return db.installOnly[t]
}

func (db *MemoryRPMDB) SetGroups(t pkg.PkgTup, groups []string) {
	db.groups[t] = groups
}

func (db *MemoryRPMDB) Groups(t pkg.PkgTup) []string {
	return db.groups[t]
}

func (db *MemoryRPMDB) SetRunningKernel(t pkg.PkgTup) {
	db.runningKernel = &t
}

func (db *MemoryRPMDB) RunningKernel() (pkg.PkgTup, bool) {
	if db.runningKernel == nil {
		return pkg.PkgTup{}, false
	}
	return *db.runningKernel, true
}

func (db *MemoryRPMDB) RequiringPackages(p *pkg.Pkg) []*pkg.Pkg {
	if db.requiringCache == nil {
		db.requiringCache = map[pkg.PkgTup][]*pkg.Pkg{}
	}
	if ret, ok := db.requiringCache[p.PkgTup()]; ok {
		return ret
	}
	ret := []*pkg.Pkg{}
	for _, other := range db.Packages() {
		if other.PkgTup() == p.PkgTup() {
			continue
		}
		for _, req := range other.Requires {
			if p.ProvidesFor(req) {
				ret = append(ret, other)
				break
			}
		}
	}
	db.requiringCache[p.PkgTup()] = ret
	return ret
}

func (db *MemoryRPMDB) RequiredPackages(p *pkg.Pkg) []*pkg.Pkg {
	ret := []*pkg.Pkg{}
	seen := map[pkg.PkgTup]bool{p.PkgTup(): true}
	for _, req := range p.Requires {
		for _, prov := range db.SearchProvides(req) {
			if !seen[prov.PkgTup()] {
				seen[prov.PkgTup()] = true
				ret = append(ret, prov)
			}
		}
	}
	SortPkgs(ret)
	return ret
}

func (db *MemoryRPMDB) SimpleVersion() string {
	return VersionOf(db.Packages())
}

// VersionOf summarizes a set of installed packages as "count:digest", where
// the digest covers the sorted package tuples. Two sets with the same
// packages always get the same version.
func VersionOf(pkgs []*pkg.Pkg) string {
	tups := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		tups = append(tups, p.PkgTup().String())
	}
	sort.Strings(tups)
	d := digest.FromString(strings.Join(tups, "\n"))
	return fmt.Sprintf("%d:%s", len(tups), d.Encoded())
}

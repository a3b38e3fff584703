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
Package transaction holds the transaction being built: one Member per package
tuple, the links between members, and the bookkeeping the resolver needs
(dirty flag, unresolved members, conditionals, problem filters).

Every Add* operation creates the member for a tuple or fetches the existing
one and re-marks it, and also creates the reciprocal link on the peer: marking
A as obsoleting B marks B as obsoleted by A.

Removing a member emits an event. The resolver drains them to keep other
views, like the package sack, in step with the transaction.
*/
package transaction

import (
	"sort"

	"github.com/Masterminds/log-go"
	"github.com/google/uuid"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
)

// ProbFilter is a problem class rpm should ignore when running the
// transaction.
type ProbFilter string

const (
	ProbFilterOldPackage      ProbFilter = "OLDPACKAGE"
	ProbFilterReplacePkg      ProbFilter = "REPLACEPKG"
	ProbFilterReplaceNewFiles ProbFilter = "REPLACENEWFILES"
	ProbFilterReplaceOldFiles ProbFilter = "REPLACEOLDFILES"
)

// EventKind tells what happened to a member.
type EventKind int

const (
	MemberAdded EventKind = iota
	MemberRemoved
)

// Event reports a change of membership.
type Event struct {
	Kind   EventKind
	Member *Member
}

// Info is the transaction under construction.
type Info struct {
	ID uuid.UUID
	// Changed is set by every mutation. The resolver clears it to find out
	// whether a hook touched the transaction.
	Changed bool
	// CheckFutureRPMDBVersion is set on transactions loaded from disk: their
	// expected post-transaction rpmdb version must be verified before running.
	CheckFutureRPMDBVersion bool

	members      map[pkg.PkgTup]*Member
	order        []pkg.PkgTup
	unresolved   map[pkg.PkgTup]struct{}
	conditionals map[string][]*pkg.Pkg
	probFilters  []ProbFilter
	events       []Event
	futureRPMDB  string

	pkgSack sack.PackageSack
	rpmdb   sack.RPMDB
	logger  log.Logger
}

// New creates an empty transaction.
func New(logger log.Logger) *Info {
	if logger == nil {
		logger = log.Current
	}
	return &Info{
		ID:           uuid.New(),
		members:      map[pkg.PkgTup]*Member{},
		unresolved:   map[pkg.PkgTup]struct{}{},
		conditionals: map[string][]*pkg.Pkg{},
		logger:       logger,
	}
}

// SetDatabases wires the sacks the transaction consults: the rpm database for
// installed packages and the sack of available ones.
func (ts *Info) SetDatabases(pkgSack sack.PackageSack, rpmdb sack.RPMDB) {
	ts.pkgSack = pkgSack
	ts.rpmdb = rpmdb
}

func (ts *Info) RPMDB() sack.RPMDB { return ts.rpmdb }

func (ts *Info) PkgSack() sack.PackageSack { return ts.pkgSack }

func (ts *Info) Len() int { return len(ts.members) }

// Members returns all members in insertion order.
func (ts *Info) Members() []*Member {
	ret := make([]*Member, 0, len(ts.order))
	for _, t := range ts.order {
		ret = append(ret, ts.members[t])
	}
	return ret
}

// Exists reports whether t has a member.
func (ts *Info) Exists(t pkg.PkgTup) bool {
	_, ok := ts.members[t]
	return ok
}

// Member returns the member of t, or nil.
func (ts *Info) Member(t pkg.PkgTup) *Member {
	return ts.members[t]
}

// GetMembers returns the members of t, empty when there are none.
func (ts *Info) GetMembers(t pkg.PkgTup) []*Member {
	if m, ok := ts.members[t]; ok {
		return []*Member{m}
	}
	return []*Member{}
}

// MembersWithState returns the members in any of states.
func (ts *Info) MembersWithState(states ...State) []*Member {
	ret := []*Member{}
	for _, m := range ts.Members() {
		if hasState(states, m.OutputState) {
			ret = append(ret, m)
		}
	}
	return ret
}

// MemberWithState returns the member of t if its output state is in states.
func (ts *Info) MemberWithState(t pkg.PkgTup, states ...State) *Member {
	if m, ok := ts.members[t]; ok && hasState(states, m.OutputState) {
		return m
	}
	return nil
}

// MatchNaevr returns the members matching the given fields, empty fields
// matching anything.
func (ts *Info) MatchNaevr(q pkg.PkgTup) []*Member {
	ret := []*Member{}
	for _, m := range ts.Members() {
		t := m.PkgTup()
		if (q.Name == "" || q.Name == t.Name) &&
			(q.Arch == "" || q.Arch == t.Arch) &&
			(q.Epoch == "" || q.Epoch == t.Epoch) &&
			(q.Version == "" || q.Version == t.Version) &&
			(q.Release == "" || q.Release == t.Release) {
			ret = append(ret, m)
		}
	}
	return ret
}

// IsObsoleted reports whether t is being obsoleted.
func (ts *Info) IsObsoleted(t pkg.PkgTup) bool {
	return ts.MemberWithState(t, StateObsoleted) != nil
}

func (ts *Info) touch(t pkg.PkgTup) {
	ts.Changed = true
	ts.unresolved[t] = struct{}{}
}

// mark fetches or creates the member of p and applies fn to it.
func (ts *Info) mark(p *pkg.Pkg, fn func(m *Member)) *Member {
	t := p.PkgTup()
	m, ok := ts.members[t]
	if !ok {
		m = newMember(p)
		ts.members[t] = m
		ts.order = append(ts.order, t)
		ts.events = append(ts.events, Event{Kind: MemberAdded, Member: m})
	}
	fn(m)
	if ts.rpmdb != nil {
		if g := ts.rpmdb.Groups(t); len(g) > 0 && len(m.Groups) == 0 {
			m.Groups = append([]string{}, g...)
		}
	}
	ts.touch(t)
	return m
}

func (ts *Info) installedInRPMDB(p *pkg.Pkg) bool {
	return ts.rpmdb != nil && ts.rpmdb.Contains(p.PkgTup())
}

// AddInstall marks p to be installed. Installing a tuple that is already
// installed marks the member as a reinstall.
func (ts *Info) AddInstall(p *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		if m.Pkg.IsInstalled() && !p.IsInstalled() {
			m.Pkg = p
		}
		m.CurrentState = StateAvailable
		m.OutputState = StateInstall
		m.TsState = TsUpdate
		m.Process = ProcessInstall
	})
	if ts.installedInRPMDB(p) {
		m.Reinstall = true
	}
	ts.findObsoletedByThisMember(m)
	ts.pullConditionals(m)
	return m
}

// AddTrueInstall marks p to be installed alongside any other installed
// version, as install-only packages are.
func (ts *Info) AddTrueInstall(p *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		m.CurrentState = StateAvailable
		m.OutputState = StateTrueInstall
		m.TsState = TsInstall
		m.Process = ProcessTrueInstall
	})
	ts.pullConditionals(m)
	return m
}

// AddErase marks installed package p to be removed. A member that is
// already leaving the system is returned unchanged.
func (ts *Info) AddErase(p *pkg.Pkg) *Member {
	if m := ts.MemberWithState(p.PkgTup(), RemoveStates...); m != nil {
		return m
	}
	return ts.mark(p, func(m *Member) {
		m.CurrentState = StateInstalled
		m.OutputState = StateErase
		m.TsState = TsErase
		m.Process = ProcessErase
	})
}

// AddUpdate marks p as updating old. old may be nil when the update has no
// specific installed counterpart.
func (ts *Info) AddUpdate(p, old *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		m.CurrentState = StateAvailable
		m.OutputState = StateUpdate
		m.TsState = TsUpdate
		m.Process = ProcessUpdate
		if old != nil {
			m.Updates = appendUnique(m.Updates, old)
			m.addRelation(old, RelUpdates)
		}
	})
	if old != nil {
		ts.AddUpdated(old, p)
	}
	ts.findObsoletedByThisMember(m)
	ts.pullConditionals(m)
	return m
}

// AddUpdated marks installed package p as being updated by by.
func (ts *Info) AddUpdated(p, by *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		m.CurrentState = StateInstalled
		m.OutputState = StateUpdated
		m.TsState = TsNone
		m.Process = ProcessUpdated
		m.UpdatedBy = appendUnique(m.UpdatedBy, by)
		m.addRelation(by, RelUpdatedBy)
	})
	if peer := ts.members[by.PkgTup()]; peer != nil {
		peer.Updates = appendUnique(peer.Updates, p)
		peer.addRelation(p, RelUpdates)
	}
	return m
}

// AddObsoleting marks p as obsoleting old.
func (ts *Info) AddObsoleting(p, old *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		m.CurrentState = StateAvailable
		m.OutputState = StateObsoleting
		m.TsState = TsUpdate
		m.Process = ProcessObsoleting
		m.Obsoletes = appendUnique(m.Obsoletes, old)
		m.addRelation(old, RelObsoletes)
	})
	ts.AddObsoleted(old, p)
	ts.pullConditionals(m)
	return m
}

// AddObsoleted marks installed package p as obsoleted by by.
func (ts *Info) AddObsoleted(p, by *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		m.CurrentState = StateInstalled
		m.OutputState = StateObsoleted
		m.TsState = TsNone
		m.Process = ProcessObsoleted
		m.ObsoletedBy = appendUnique(m.ObsoletedBy, by)
		m.addRelation(by, RelObsoletedBy)
	})
	if peer := ts.members[by.PkgTup()]; peer != nil {
		peer.Obsoletes = appendUnique(peer.Obsoletes, p)
		peer.addRelation(p, RelObsoletes)
	}
	return m
}

// AddDowngrade marks p as replacing the newer installed package old. old
// becomes an erase member downgraded by p.
func (ts *Info) AddDowngrade(p, old *pkg.Pkg) *Member {
	m := ts.mark(p, func(m *Member) {
		m.CurrentState = StateAvailable
		m.OutputState = StateInstall
		m.TsState = TsUpdate
		m.Process = ProcessDowngrade
		m.Downgrades = appendUnique(m.Downgrades, old)
		m.addRelation(old, RelDowngrades)
	})
	ts.mark(old, func(o *Member) {
		o.CurrentState = StateInstalled
		o.OutputState = StateErase
		o.TsState = TsNone
		o.Process = ProcessDowngraded
		o.DowngradedBy = appendUnique(o.DowngradedBy, p)
		o.addRelation(p, RelDowngradedBy)
	})
	return m
}

// findObsoletedByThisMember marks every installed package m's package
// obsoletes as obsoleted, turning m into an obsoleting member.
func (ts *Info) findObsoletedByThisMember(m *Member) {
	if ts.rpmdb == nil || len(m.Pkg.Obsoletes) == 0 {
		return
	}
	for _, obs := range m.Pkg.Obsoletes {
		for _, ip := range ts.rpmdb.SearchNames(obs.Name) {
			if !m.Pkg.ObsoletesPkg(ip) || ip.PkgTup() == m.PkgTup() {
				continue
			}
			if ts.MemberWithState(ip.PkgTup(), StateErase) != nil {
				continue
			}
			ts.logger.Debugf("%s obsoletes installed %s", m.Pkg, ip)
			m.Obsoletes = appendUnique(m.Obsoletes, ip)
			m.addRelation(ip, RelObsoletes)
			if m.OutputState == StateInstall || m.OutputState == StateUpdate {
				m.OutputState = StateObsoleting
			}
			ts.AddObsoleted(ip, m.Pkg)
		}
	}
}

// Remove drops the member of t. Every link naming it is pruned from the
// remaining members, and members that only existed because of it (an updated,
// obsoleted or downgraded package with nothing left replacing it, or a
// conditional package it pulled in that nothing else requires) are removed
// too. It returns every removed member.
func (ts *Info) Remove(t pkg.PkgTup) []*Member {
	m, ok := ts.members[t]
	if !ok {
		ts.logger.Debugf("Remove: %s not in transaction", t)
		return nil
	}
	delete(ts.members, t)
	delete(ts.unresolved, t)
	for i, x := range ts.order {
		if x == t {
			ts.order = append(ts.order[:i:i], ts.order[i+1:]...)
			break
		}
	}
	ts.Changed = true
	ts.events = append(ts.events, Event{Kind: MemberRemoved, Member: m})
	removed := []*Member{m}

	orphans := []pkg.PkgTup{}
	for _, ot := range ts.order {
		other := ts.members[ot]
		required := containsTup(other.RequiredBy, t)
		other.Updates = without(other.Updates, t)
		other.UpdatedBy = without(other.UpdatedBy, t)
		other.Obsoletes = without(other.Obsoletes, t)
		other.ObsoletedBy = without(other.ObsoletedBy, t)
		other.Downgrades = without(other.Downgrades, t)
		other.DowngradedBy = without(other.DowngradedBy, t)
		other.RequiredBy = without(other.RequiredBy, t)
		other.RelatedTo = relationsWithout(other.RelatedTo, t)

		switch {
		case other.OutputState == StateUpdated && len(other.UpdatedBy) == 0,
			other.OutputState == StateObsoleted && len(other.ObsoletedBy) == 0,
			other.Process == ProcessDowngraded && len(other.DowngradedBy) == 0,
			required && len(other.RequiredBy) == 0 && ts.isConditionalOf(m.Pkg.Name, ot):
			orphans = append(orphans, ot)
		}
	}
	for _, ot := range orphans {
		removed = append(removed, ts.Remove(ot)...)
	}
	return removed
}

// DrainEvents returns and clears the pending events.
func (ts *Info) DrainEvents() []Event {
	ev := ts.events
	ts.events = nil
	return ev
}

// Deselect removes the members matching pattern, trying it as a name, as
// name.arch, and as a package pattern against the sacks. Members pulled in as
// dependencies of something still in the transaction are kept.
func (ts *Info) Deselect(pattern string) []*Member {
	matches := ts.MatchNaevr(pkg.PkgTup{Name: pattern})
	if len(matches) == 0 {
		if i := lastDot(pattern); i > 0 {
			matches = ts.MatchNaevr(pkg.PkgTup{Name: pattern[:i], Arch: pattern[i+1:]})
		}
	}
	if len(matches) == 0 {
		for _, m := range ts.Members() {
			if m.Pkg.MatchPattern(pattern) {
				matches = append(matches, m)
			}
		}
		for name, pkgs := range ts.conditionals {
			kept := pkgs[:0:0]
			for _, p := range pkgs {
				if !p.MatchPattern(pattern) {
					kept = append(kept, p)
				}
			}
			ts.conditionals[name] = kept
		}
	}

	removed := []*Member{}
	for _, m := range matches {
		if !ts.Exists(m.PkgTup()) {
			continue
		}
		if m.IsDep && ts.requiredByPresent(m) {
			ts.logger.Debugf("Deselect: keeping %s, still required", m.Pkg)
			continue
		}
		removed = append(removed, ts.Remove(m.PkgTup())...)
	}
	return removed
}

func (ts *Info) requiredByPresent(m *Member) bool {
	for _, r := range m.RequiredBy {
		if ts.Exists(r.PkgTup()) {
			return true
		}
	}
	return false
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// UnresolvedMembers returns the members whose dependencies have not been
// checked since they last changed.
func (ts *Info) UnresolvedMembers() []*Member {
	ret := []*Member{}
	for _, t := range ts.order {
		if _, ok := ts.unresolved[t]; ok {
			ret = append(ret, ts.members[t])
		}
	}
	return ret
}

// MarkResolved clears the unresolved mark of t.
func (ts *Info) MarkResolved(t pkg.PkgTup) {
	delete(ts.unresolved, t)
}

// ResetResolved marks members as needing dependency checking again: all of
// them when hard is set, none otherwise. It reports whether anything was
// unresolved before the call.
func (ts *Info) ResetResolved(hard bool) bool {
	had := len(ts.unresolved) > 0
	if hard {
		for t := range ts.members {
			ts.unresolved[t] = struct{}{}
		}
	}
	return had
}

// AddConditional records that p should be installed whenever a package named
// required enters the transaction.
func (ts *Info) AddConditional(required string, p *pkg.Pkg) {
	ts.conditionals[required] = appendUnique(ts.conditionals[required], p)
}

// Conditionals returns the conditional packages keyed by the name that
// triggers them.
func (ts *Info) Conditionals() map[string][]*pkg.Pkg {
	return ts.conditionals
}

// isConditionalOf reports whether t is a conditional package of name.
func (ts *Info) isConditionalOf(name string, t pkg.PkgTup) bool {
	return containsTup(ts.conditionals[name], t)
}

func (ts *Info) pullConditionals(m *Member) {
	for _, p := range ts.conditionals[m.Pkg.Name] {
		if ts.Exists(p.PkgTup()) {
			continue
		}
		ts.logger.Debugf("%s pulls in conditional %s", m.Pkg, p)
		c := ts.AddInstall(p)
		c.SetAsDep(m.Pkg)
	}
}

// AddProbFilter adds problem classes to ignore, keeping each once.
func (ts *Info) AddProbFilter(flags ...ProbFilter) {
	for _, f := range flags {
		found := false
		for _, x := range ts.probFilters {
			if x == f {
				found = true
				break
			}
		}
		if !found {
			ts.probFilters = append(ts.probFilters, f)
		}
	}
}

func (ts *Info) ProbFilters() []ProbFilter {
	return append([]ProbFilter{}, ts.probFilters...)
}

// FinalPackages returns the packages installed once the transaction has run:
// installed packages not being removed, plus every package being installed.
func (ts *Info) FinalPackages() []*pkg.Pkg {
	ret := []*pkg.Pkg{}
	seen := map[pkg.PkgTup]bool{}
	if ts.rpmdb != nil {
		for _, p := range ts.rpmdb.Packages() {
			t := p.PkgTup()
			if m := ts.members[t]; m != nil && (m.IsRemove() || m.Reinstall) {
				continue
			}
			seen[t] = true
			ret = append(ret, p)
		}
	}
	for _, m := range ts.Members() {
		if m.IsInstall() && !seen[m.PkgTup()] {
			seen[m.PkgTup()] = true
			ret = append(ret, m.Pkg)
		}
	}
	sack.SortPkgs(ret)
	return ret
}

// FutureRPMDBVersion returns the rpmdb version the system will have once the
// transaction has run.
func (ts *Info) FutureRPMDBVersion() string {
	if ts.futureRPMDB != "" {
		return ts.futureRPMDB
	}
	return sack.VersionOf(ts.FinalPackages())
}

// SetFutureRPMDBVersion pins the expected post-transaction rpmdb version, as
// recorded by a saved transaction.
func (ts *Info) SetFutureRPMDBVersion(v string) {
	ts.futureRPMDB = v
}

// NewRequiresProvidedBy reports whether a package entering the system
// requires something p provides.
func (ts *Info) NewRequiresProvidedBy(p *pkg.Pkg) bool {
	for _, m := range ts.Members() {
		if !m.IsInstall() {
			continue
		}
		for _, req := range m.Pkg.Requires {
			if p.ProvidesFor(req) {
				return true
			}
		}
	}
	return false
}

// SortMembers orders members by package name, EVR and arch.
func SortMembers(ms []*Member) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i].Pkg, ms[j].Pkg
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := a.Compare(b); c != 0 {
			return c < 0
		}
		return a.Arch < b.Arch
	})
}

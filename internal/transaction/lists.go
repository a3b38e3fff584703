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

package transaction

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// Lists groups members the way a transaction summary shows them.
type Lists struct {
	Installed     []*Member
	Updated       []*Member
	Removed       []*Member
	Obsoleted     []*Member
	DepInstalled  []*Member
	DepUpdated    []*Member
	DepRemoved    []*Member
	Reinstalled   []*Member
	Downgraded    []*Member
	Failed        []*Member
	InstGroups    []string
	RemovedGroups []string
}

// MakeLists buckets the members. Reinstalls and downgrades get their own
// lists only when asked for; otherwise they show as plain installs and
// erases.
func (ts *Info) MakeLists(includeReinstall, includeDowngrade bool) *Lists {
	l := &Lists{}
	instGroups := map[string]bool{}
	rmGroups := map[string]bool{}

	for _, m := range ts.Members() {
		switch m.OutputState {
		case StateUpdate:
			if m.IsDep {
				l.DepUpdated = append(l.DepUpdated, m)
			} else {
				l.Updated = append(l.Updated, m)
			}
		case StateInstall, StateTrueInstall:
			if includeReinstall && m.Reinstall {
				l.Reinstalled = append(l.Reinstalled, m)
				continue
			}
			if includeDowngrade && len(m.Downgrades) > 0 {
				l.Downgraded = append(l.Downgraded, m)
				continue
			}
			for _, g := range m.Groups {
				instGroups[g] = true
			}
			if m.IsDep {
				l.DepInstalled = append(l.DepInstalled, m)
			} else {
				l.Installed = append(l.Installed, m)
			}
		case StateErase:
			if includeReinstall && m.Reinstall {
				continue
			}
			if includeDowngrade && len(m.DowngradedBy) > 0 {
				continue
			}
			for _, g := range m.Groups {
				rmGroups[g] = true
			}
			if m.IsDep {
				l.DepRemoved = append(l.DepRemoved, m)
			} else {
				l.Removed = append(l.Removed, m)
			}
		case StateObsoleted:
			l.Obsoleted = append(l.Obsoleted, m)
		case StateObsoleting:
			l.Installed = append(l.Installed, m)
		case StateFailed:
			l.Failed = append(l.Failed, m)
		}
	}

	for _, list := range [][]*Member{l.Installed, l.Updated, l.Removed, l.Obsoleted,
		l.DepInstalled, l.DepUpdated, l.DepRemoved, l.Reinstalled, l.Downgraded, l.Failed} {
		SortMembers(list)
	}
	l.InstGroups = sortedKeys(instGroups)
	l.RemovedGroups = sortedKeys(rmGroups)
	return l
}

func sortedKeys(m map[string]bool) []string {
	ret := []string{}
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

// CheckInvariants verifies the links between members and returns one error
// per broken link.
func (ts *Info) CheckInvariants() []error {
	errs := []error{}
	for _, m := range ts.Members() {
		switch m.OutputState {
		case StateUpdated:
			if len(m.UpdatedBy) == 0 {
				errs = append(errs, errors.Errorf("%s is updated by nothing", m.Pkg))
			}
			for _, by := range m.UpdatedBy {
				peer := ts.members[by.PkgTup()]
				if peer == nil || !containsTup(peer.Updates, m.PkgTup()) {
					errs = append(errs, errors.Errorf("%s is updated by %s, which does not update it", m.Pkg, by))
				}
			}
		case StateObsoleted:
			if len(m.ObsoletedBy) == 0 {
				errs = append(errs, errors.Errorf("%s is obsoleted by nothing", m.Pkg))
			}
			for _, by := range m.ObsoletedBy {
				peer := ts.members[by.PkgTup()]
				if peer == nil || !containsTup(peer.Obsoletes, m.PkgTup()) {
					errs = append(errs, errors.Errorf("%s is obsoleted by %s, which does not obsolete it", m.Pkg, by))
				}
			}
		case StateObsoleting:
			for _, old := range m.Obsoletes {
				if ts.rpmdb != nil && !ts.rpmdb.Contains(old.PkgTup()) {
					continue
				}
				if ts.MemberWithState(old.PkgTup(), StateObsoleted) == nil {
					errs = append(errs, errors.Errorf("%s obsoletes %s, which is not marked obsoleted", m.Pkg, old))
				}
			}
		}
		for _, r := range m.RequiredBy {
			if !ts.Exists(r.PkgTup()) {
				errs = append(errs, errors.Errorf("%s is required by %s, which is not in the transaction", m.Pkg, r))
			}
		}
	}
	return errs
}

// Repair restores the links skip-broken and deselection may leave dangling:
// installed packages an obsoleting member obsoletes get their obsoleted
// member back, and updated or obsoleted members whose counterpart is gone are
// dropped. It returns a message per repair.
func (ts *Info) Repair() []string {
	msgs := []string{}

	for _, m := range ts.MembersWithState(StateObsoleting) {
		for _, old := range m.Obsoletes {
			if ts.Exists(old.PkgTup()) {
				continue
			}
			if ts.rpmdb != nil && !ts.rpmdb.Contains(old.PkgTup()) {
				continue
			}
			ts.AddObsoleted(old, m.Pkg)
			msgs = append(msgs, fmt.Sprintf("%s re-added as obsoleted by %s", old, m.Pkg))
		}
	}

	for _, m := range ts.MembersWithState(StateUpdated, StateObsoleted) {
		if !ts.Exists(m.PkgTup()) {
			continue
		}
		peers := m.UpdatedBy
		if m.OutputState == StateObsoleted {
			peers = m.ObsoletedBy
		}
		alive := 0
		for _, p := range peers {
			if ts.Exists(p.PkgTup()) {
				alive++
			}
		}
		if alive == 0 {
			ts.Remove(m.PkgTup())
			msgs = append(msgs, fmt.Sprintf("%s dropped, nothing replaces it", m.Pkg))
		}
	}
	return msgs
}

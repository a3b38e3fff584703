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

	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
)

// TsState is the mode handed to rpm for a member.
type TsState string

const (
	TsNone    TsState = ""
	TsUpdate  TsState = "u"
	TsInstall TsState = "i"
	TsErase   TsState = "e"
)

// State is what happens to a member's package, as reported to the user.
type State int

const (
	StateAvailable State = iota
	StateInstalled
	StateInstall
	StateTrueInstall
	StateUpdate
	StateErase
	StateObsoleting
	StateObsoleted
	StateUpdated
	StateFailed
)

var stateNames = map[State]string{
	StateAvailable:   "available",
	StateInstalled:   "installed",
	StateInstall:     "install",
	StateTrueInstall: "trueinstall",
	StateUpdate:      "update",
	StateErase:       "erase",
	StateObsoleting:  "obsoleting",
	StateObsoleted:   "obsoleted",
	StateUpdated:     "updated",
	StateFailed:      "failed",
}

func (s State) String() string {
	return stateNames[s]
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, bool) {
	for k, v := range stateNames {
		if v == s {
			return k, true
		}
	}
	return StateAvailable, false
}

// InstallStates are the output states that put a package on the system.
var InstallStates = []State{StateInstall, StateTrueInstall, StateUpdate, StateObsoleting}

// RemoveStates are the output states that take a package off the system.
var RemoveStates = []State{StateErase, StateObsoleted, StateUpdated}

// IsInstallState reports whether s puts a package on the system.
func IsInstallState(s State) bool { return hasState(InstallStates, s) }

// IsRemoveState reports whether s takes a package off the system.
func IsRemoveState(s State) bool { return hasState(RemoveStates, s) }

func hasState(list []State, s State) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// Process names the operation that created a member.
type Process string

const (
	ProcessInstall     Process = "install"
	ProcessTrueInstall Process = "trueinstall"
	ProcessUpdate      Process = "update"
	ProcessErase       Process = "erase"
	ProcessObsoleting  Process = "obsoleting"
	ProcessObsoleted   Process = "obsoleted"
	ProcessUpdated     Process = "updated"
	ProcessDowngrade   Process = "downgrade"
	ProcessDowngraded  Process = "downgraded"
)

// RelationKind qualifies a RelatedTo link.
type RelationKind string

const (
	RelUpdates      RelationKind = "updates"
	RelUpdatedBy    RelationKind = "updatedby"
	RelObsoletes    RelationKind = "obsoletes"
	RelObsoletedBy  RelationKind = "obsoletedby"
	RelDowngrades   RelationKind = "downgrades"
	RelDowngradedBy RelationKind = "downgradedby"
	RelDependsOn    RelationKind = "dependson"
)

// Relation links a member to another package of the transaction.
type Relation struct {
	Pkg  *pkg.Pkg
	Kind RelationKind
}

const (
	ReasonUser = "user"
	ReasonDep  = "dep"
)

// Member is one package of a transaction with everything the resolver knows
// about why it is there. The link lists (Updates, UpdatedBy, Obsoletes,
// ObsoletedBy, Downgrades, DowngradedBy, RequiredBy) only name packages that
// are members too.
type Member struct {
	Pkg          *pkg.Pkg
	TsState      TsState
	OutputState  State
	CurrentState State // StateAvailable or StateInstalled
	Process      Process
	IsDep        bool
	Reason       string
	Reinstall    bool
	Groups       []string

	RelatedTo    []Relation
	Updates      []*pkg.Pkg
	UpdatedBy    []*pkg.Pkg
	Obsoletes    []*pkg.Pkg
	ObsoletedBy  []*pkg.Pkg
	Downgrades   []*pkg.Pkg
	DowngradedBy []*pkg.Pkg
	// RequiredBy lists the members that pulled this one in.
	RequiredBy []*pkg.Pkg
}

func newMember(p *pkg.Pkg) *Member {
	return &Member{
		Pkg:          p,
		Reason:       ReasonUser,
		CurrentState: StateAvailable,
	}
}

func (m *Member) PkgTup() pkg.PkgTup {
	return m.Pkg.PkgTup()
}

func (m *Member) String() string {
	return fmt.Sprintf("%s (%s)", m.Pkg, m.OutputState)
}

// SetAsDep marks the member as pulled in by requirer.
func (m *Member) SetAsDep(requirer *pkg.Pkg) {
	m.IsDep = true
	m.Reason = ReasonDep
	if requirer == nil {
		return
	}
	m.RequiredBy = appendUnique(m.RequiredBy, requirer)
	m.addRelation(requirer, RelDependsOn)
}

// AddRequiredBy records that the member only stays in the transaction as long
// as requirer does, without turning it into a dependency install.
func (m *Member) AddRequiredBy(requirer *pkg.Pkg) {
	m.RequiredBy = appendUnique(m.RequiredBy, requirer)
}

// RemoveDep drops requirer from RequiredBy.
func (m *Member) RemoveDep(requirer *pkg.Pkg) {
	m.RequiredBy = without(m.RequiredBy, requirer.PkgTup())
}

func (m *Member) addRelation(p *pkg.Pkg, kind RelationKind) {
	for _, r := range m.RelatedTo {
		if r.Kind == kind && r.Pkg.PkgTup() == p.PkgTup() {
			return
		}
	}
	m.RelatedTo = append(m.RelatedTo, Relation{Pkg: p, Kind: kind})
}

// IsInstall reports whether the member puts its package on the system.
func (m *Member) IsInstall() bool { return IsInstallState(m.OutputState) }

// IsRemove reports whether the member takes its package off the system.
func (m *Member) IsRemove() bool { return IsRemoveState(m.OutputState) }

func appendUnique(list []*pkg.Pkg, p *pkg.Pkg) []*pkg.Pkg {
	t := p.PkgTup()
	for _, x := range list {
		if x.PkgTup() == t {
			return list
		}
	}
	return append(list, p)
}

func without(list []*pkg.Pkg, t pkg.PkgTup) []*pkg.Pkg {
	ret := list[:0:0]
	for _, x := range list {
		if x.PkgTup() != t {
			ret = append(ret, x)
		}
	}
	return ret
}

func relationsWithout(list []Relation, t pkg.PkgTup) []Relation {
	ret := list[:0:0]
	for _, r := range list {
		if r.Pkg.PkgTup() != t {
			ret = append(ret, r)
		}
	}
	return ret
}

func containsTup(list []*pkg.Pkg, t pkg.PkgTup) bool {
	for _, x := range list {
		if x.PkgTup() == t {
			return true
		}
	}
	return false
}

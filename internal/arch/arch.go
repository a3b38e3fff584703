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
Package arch answers the architecture questions the resolver asks: which
arches can be installed on this machine, which are the primary (best) ones on
a multilib system, whether two builds of the same package may be installed
side by side, and whether an installed arch may be updated to another one.
*/
package arch

import (
	"sort"

	"github.com/pkg/errors"
)

const Noarch = "noarch"

// Policy is the pluggable architecture policy.
type Policy interface {
	// BaseArch is the canonical arch of the machine, e.g. x86_64.
	BaseArch() string
	// ArchList returns every installable arch, best first, ending in noarch.
	ArchList() []string
	// Compatible reports whether a can be installed at all.
	Compatible(a string) bool
	// IsMultilib reports whether the machine can run two arch families.
	IsMultilib() bool
	// BestArches returns the arches of the primary family, excluding noarch.
	BestArches() []string
	// Coinstallable reports whether the same NEVR can be installed for both
	// arches at once.
	Coinstallable(a, b string) bool
	// UpdateCompatible reports whether an installed package of arch installed
	// may be replaced by one of arch candidate.
	UpdateCompatible(installed, candidate string) bool
	// Score ranks a: 1 is best, 0 means incompatible.
	Score(a string) int
}

// parents maps each arch to the next less specific arch it can run.
var parents = map[string]string{
	"athlon": "i686",
	"i686":   "i586",
	"geode":  "i586",
	"i586":   "i486",
	"i486":   "i386",
	"i386":   Noarch,

	"x86_64": "athlon",
	"amd64":  "x86_64",
	"ia32e":  "x86_64",

	"ppc64le": Noarch,
	"ppc64":   "ppc",
	"ppc":     Noarch,

	"s390x": "s390",
	"s390":  Noarch,

	"aarch64": Noarch,
	"armv7hl": "armv7l",
	"armv7l":  "armv6l",
	"armv6l":  Noarch,
}

// multilib maps 64-bit bases to the first arch of their 32-bit family.
var multilib = map[string]string{
	"x86_64": "athlon",
	"ppc64":  "ppc",
	"s390x":  "s390",
}

// canonical maps arch aliases to their base.
var canonical = map[string]string{
	"amd64":  "x86_64",
	"ia32e":  "x86_64",
	"i486":   "i386",
	"i586":   "i386",
	"i686":   "i386",
	"athlon": "i386",
	"geode":  "i386",
}

// Table is the default Policy, built from static arch tables.
type Table struct {
	base  string
	list  []string
	score map[string]int
	best  map[string]bool
}

// NewDefault returns the policy of a machine whose native arch is a.
func NewDefault(a string) (*Table, error) {
	if _, ok := parents[a]; !ok && a != Noarch {
		return nil, errors.Errorf("unsupported architecture %q", a)
	}
	t := &Table{
		base:  a,
		list:  archList(a),
		score: map[string]int{},
		best:  map[string]bool{},
	}
	for i, x := range t.list {
		t.score[x] = i + 1
	}

	// best arches run from the base down to the 32-bit family on multilib
	// machines, the whole list otherwise
	stop := multilib[baseOf(a)]
	for _, x := range t.list {
		if x == Noarch || (stop != "" && x == stop) {
			break
		}
		t.best[x] = true
	}
	return t, nil
}

func archList(a string) []string {
	list := []string{}
	for cur := a; cur != ""; cur = parents[cur] {
		list = append(list, cur)
		if cur == Noarch {
			break
		}
	}
	return list
}

func baseOf(a string) string {
	if c, ok := canonical[a]; ok {
		return c
	}
	return a
}

func isMultilibArch(a string) bool {
	_, ok := multilib[baseOf(a)]
	return ok
}

func (t *Table) BaseArch() string { return t.base }

func (t *Table) ArchList() []string {
	return append([]string{}, t.list...)
}

func (t *Table) Compatible(a string) bool {
	_, ok := t.score[a]
	return ok
}

func (t *Table) IsMultilib() bool {
	return isMultilibArch(t.base)
}

func (t *Table) BestArches() []string {
	ret := []string{}
	for _, a := range t.list {
		if t.best[a] {
			ret = append(ret, a)
		}
	}
	return ret
}

func (t *Table) Coinstallable(a, b string) bool {
	if a == Noarch || b == Noarch {
		return false
	}
	if isMultilibArch(a) == isMultilibArch(b) {
		return false
	}
	return contains(archList(a), b) || contains(archList(b), a)
}

func (t *Table) UpdateCompatible(installed, candidate string) bool {
	if installed == candidate || installed == Noarch || candidate == Noarch {
		return true
	}
	if !t.Compatible(candidate) {
		return false
	}
	if !t.IsMultilib() {
		return true
	}
	return !t.Coinstallable(installed, candidate)
}

func (t *Table) Score(a string) int {
	return t.score[a]
}

// SortByScore orders arches best first, unknown arches last.
func SortByScore(p Policy, arches []string) {
	sort.SliceStable(arches, func(i, j int) bool {
		si, sj := p.Score(arches[i]), p.Score(arches[j])
		if si == 0 {
			return false
		}
		if sj == 0 {
			return true
		}
		return si < sj
	})
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

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

package pkg

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Sense is the comparison bitmask of a dependency relation, with the same
// values rpm uses in its headers.
type Sense int

const (
	SenseAny Sense = 0
	SenseLT  Sense = 1 << 1
	SenseGT  Sense = 1 << 2
	SenseEQ  Sense = 1 << 3
	SenseLE        = SenseLT | SenseEQ
	SenseGE        = SenseGT | SenseEQ
)

var senseNames = map[Sense]string{
	SenseLT: "LT",
	SenseGT: "GT",
	SenseEQ: "EQ",
	SenseLE: "LE",
	SenseGE: "GE",
}

var senseSymbols = map[Sense]string{
	SenseLT: "<",
	SenseGT: ">",
	SenseEQ: "=",
	SenseLE: "<=",
	SenseGE: ">=",
}

func (s Sense) String() string {
	return senseNames[s]
}

// Symbol returns the operator form of the sense, e.g. ">=".
func (s Sense) Symbol() string {
	return senseSymbols[s]
}

// ParseSense accepts both the flag names found in repository metadata (EQ,
// GE, ...) and the operators used on the command line (=, >=, ...).
func ParseSense(s string) (Sense, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return SenseAny, nil
	case "EQ", "=", "==":
		return SenseEQ, nil
	case "LT", "<":
		return SenseLT, nil
	case "GT", ">":
		return SenseGT, nil
	case "LE", "<=", "=<":
		return SenseLE, nil
	case "GE", ">=", "=>":
		return SenseGE, nil
	}
	return SenseAny, errors.Errorf("unknown dependency sense %q", s)
}

// PkgRel is a dependency relation: a name with an optional versioned range.
// It is used for requires, provides, obsoletes and conflicts.
type PkgRel struct {
	Name    string
	Flags   Sense
	Epoch   string
	Version string
	Release string
}

// NewPkgRel builds a versioned relation. evr may be empty for an unversioned
// relation.
func NewPkgRel(name string, flags Sense, evr EVR) *PkgRel {
	return &PkgRel{
		Name:    name,
		Flags:   flags,
		Epoch:   evr.Epoch,
		Version: evr.Version,
		Release: evr.Release,
	}
}

// ParseRel parses "name", "name >= 1.0", "name = 2:1.0-3" and the same forms
// without spaces around the operator.
func ParseRel(s string) (*PkgRel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty dependency relation")
	}
	i := strings.IndexAny(s, "<>=")
	if i < 0 {
		if strings.ContainsAny(s, " \t") {
			return nil, errors.Errorf("malformed dependency relation %q", s)
		}
		return &PkgRel{Name: s}, nil
	}
	name := strings.TrimSpace(s[:i])
	rest := s[i:]
	j := 0
	for j < len(rest) && strings.ContainsRune("<>=", rune(rest[j])) {
		j++
	}
	flags, err := ParseSense(rest[:j])
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", s)
	}
	evrStr := strings.TrimSpace(rest[j:])
	if name == "" || evrStr == "" || strings.ContainsAny(name, " \t~") {
		return nil, errors.Errorf("malformed dependency relation %q", s)
	}
	return NewPkgRel(name, flags, ParseEVR(evrStr)), nil
}

// MustParseRel is ParseRel that panics on error. Useful for testing.
func MustParseRel(s string) *PkgRel {
	r, err := ParseRel(s)
	if err != nil {
		panic(err)
	}
	return r
}

// ParseEVR splits "[epoch:]version[-release]".
func ParseEVR(s string) EVR {
	var evr EVR
	if i := strings.Index(s, ":"); i >= 0 {
		evr.Epoch = s[:i]
		s = s[i+1:]
	}
	if i := strings.LastIndex(s, "-"); i >= 0 {
		evr.Release = s[i+1:]
		s = s[:i]
	}
	evr.Version = s
	return evr
}

func (r *PkgRel) EVR() EVR {
	return EVR{Epoch: r.Epoch, Version: r.Version, Release: r.Release}
}

func (r *PkgRel) String() string {
	if r.Flags == SenseAny {
		return r.Name
	}
	return fmt.Sprintf("%s %s %s", r.Name, r.Flags.Symbol(), r.EVR())
}

// IsFile reports whether the relation names a file path.
func (r *PkgRel) IsFile() bool {
	return strings.HasPrefix(r.Name, "/")
}

// Overlaps reports whether the ranges of r and prov intersect. Both must
// carry the same name. An unversioned relation on either side always
// overlaps. A missing release on the requirement ignores the release of the
// provide, so "foo = 1.0" is satisfied by "foo = 1.0-15".
func (r *PkgRel) Overlaps(prov *PkgRel) bool {
	if r.Name != prov.Name {
		return false
	}
	if r.Flags == SenseAny || prov.Flags == SenseAny {
		return true
	}

	reqEVR, provEVR := r.EVR(), prov.EVR()
	if reqEVR.Release == "" || provEVR.Release == "" {
		reqEVR.Release, provEVR.Release = "", ""
	}
	rc := CompareEVR(provEVR, reqEVR)
	rf, pf := r.Flags, prov.Flags

	switch {
	case rc > 0:
		if rf&SenseGT != 0 {
			return true
		}
		if pf&SenseLT != 0 {
			return true
		}
	case rc == 0:
		if rf&pf != 0 {
			return true
		}
	default:
		if pf&SenseGT != 0 {
			return true
		}
		if rf&SenseLT != 0 {
			return true
		}
	}
	return false
}

// MatchesEVR reports whether a package named r.Name at evr satisfies r.
func (r *PkgRel) MatchesEVR(evr EVR) bool {
	return r.Overlaps(NewPkgRel(r.Name, SenseEQ, evr))
}

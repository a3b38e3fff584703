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
	"fmt"
	"strings"

	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
)

// Selector is what a user asks an action for. It is one of Pattern, Nevra,
// PkgTup or DirectRef.
type Selector interface {
	fmt.Stringer
	isSelector()
}

// Pattern is free text matched the way yum matches package patterns: name,
// name.arch, name-version, name-version-release.arch and so on, with shell
// globs. A pattern ending in ".rpm" names a local package file.
type Pattern string

// Nevra is a structured request. Empty fields match anything, except Name
// which is required.
type Nevra struct {
	Name    string
	Epoch   string
	Version string
	Release string
	Arch    string
}

// PkgTup selects exactly one package identity.
type PkgTup pkg.PkgTup

// DirectRef hands an action a package object directly.
type DirectRef struct {
	Pkg *pkg.Pkg
}

func (Pattern) isSelector()   {}
func (Nevra) isSelector()     {}
func (PkgTup) isSelector()    {}
func (DirectRef) isSelector() {}

func (s Pattern) String() string { return string(s) }

func (s Nevra) String() string {
	var sb strings.Builder
	sb.WriteString(s.Name)
	if s.Version != "" {
		sb.WriteString("-")
		if s.Epoch != "" {
			sb.WriteString(s.Epoch + ":")
		}
		sb.WriteString(s.Version)
		if s.Release != "" {
			sb.WriteString("-" + s.Release)
		}
	}
	if s.Arch != "" {
		sb.WriteString("." + s.Arch)
	}
	return sb.String()
}

func (s PkgTup) String() string { return pkg.PkgTup(s).String() }

func (s DirectRef) String() string {
	if s.Pkg == nil {
		return "<nil>"
	}
	return s.Pkg.String()
}

// IsLocalFile reports whether the pattern names an .rpm file.
func (s Pattern) IsLocalFile() bool {
	return strings.HasSuffix(string(s), ".rpm")
}

// ParseSelectors turns command line arguments into selectors. Arguments
// parsing as a full NEVRA without globs select that exact package, anything
// else is a pattern.
func ParseSelectors(args []string) []Selector {
	ret := make([]Selector, 0, len(args))
	for _, a := range args {
		if !pkg.IsGlob(a) && !Pattern(a).IsLocalFile() && strings.Contains(a, ":") {
			if t, err := pkg.ParseNEVRA(a); err == nil {
				ret = append(ret, PkgTup(t))
				continue
			}
		}
		ret = append(ret, Pattern(a))
	}
	return ret
}

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
	"path"
	"strings"
)

// IsGlob reports whether s contains shell wildcard characters.
func IsGlob(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// Names returns every user-facing spelling of p that a pattern may match:
//
//	name
//	name.arch
//	name-version
//	name-version-release
//	name-version-release.arch
//	epoch:name-version-release.arch
//	name-epoch:version-release.arch
func (p *Pkg) Names() []string {
	return []string{
		p.Name,
		fmt.Sprintf("%s.%s", p.Name, p.Arch),
		fmt.Sprintf("%s-%s", p.Name, p.Version),
		fmt.Sprintf("%s-%s-%s", p.Name, p.Version, p.Release),
		fmt.Sprintf("%s-%s-%s.%s", p.Name, p.Version, p.Release, p.Arch),
		fmt.Sprintf("%s:%s-%s-%s.%s", p.Epoch, p.Name, p.Version, p.Release, p.Arch),
		fmt.Sprintf("%s-%s:%s-%s.%s", p.Name, p.Epoch, p.Version, p.Release, p.Arch),
	}
}

// MatchPattern reports whether pattern names p in any of the forms listed in
// Names. Patterns may use shell globs.
func (p *Pkg) MatchPattern(pattern string) bool {
	glob := IsGlob(pattern)
	for _, n := range p.Names() {
		if n == pattern {
			return true
		}
		if glob {
			if ok, err := path.Match(pattern, n); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// MatchAny reports whether any of patterns names p.
func (p *Pkg) MatchAny(patterns []string) bool {
	for _, pat := range patterns {
		if p.MatchPattern(pat) {
			return true
		}
	}
	return false
}

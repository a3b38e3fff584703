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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// InstalledRepo is the repository id of packages read from the rpm database.
const InstalledRepo = "installed"

// Origin tells where a package object came from.
type Origin int

const (
	OriginAvailable Origin = iota // repository metadata
	OriginInstalled               // rpm database
	OriginLocal                   // .rpm file on disk
	OriginURL                     // .rpm file behind a URL
)

func (o Origin) String() string {
	switch o {
	case OriginInstalled:
		return "installed"
	case OriginLocal:
		return "local"
	case OriginURL:
		return "url"
	}
	return "available"
}

// PkgTup is the identity of a package: (name, arch, epoch, version, release).
// The epoch is always normalized to a number, "0" when absent.
type PkgTup struct {
	Name    string
	Arch    string
	Epoch   string
	Version string
	Release string
}

// NewPkgTup builds a tuple, normalizing an empty epoch to "0".
func NewPkgTup(name, arch, epoch, version, release string) PkgTup {
	if epoch == "" {
		epoch = "0"
	}
	return PkgTup{Name: name, Arch: arch, Epoch: epoch, Version: version, Release: release}
}

func (t PkgTup) EVR() EVR {
	return EVR{Epoch: t.Epoch, Version: t.Version, Release: t.Release}
}

// String renders the tuple as name-[epoch:]version-release.arch.
func (t PkgTup) String() string {
	return fmt.Sprintf("%s-%s.%s", t.Name, t.EVR(), t.Arch)
}

// Fields returns the tuple in (name, arch, epoch, version, release) order.
func (t PkgTup) Fields() []string {
	return []string{t.Name, t.Arch, t.Epoch, t.Version, t.Release}
}

// Pkg is the minimum object the resolver reasons about: an rpm identified by
// its PkgTup, with its dependency metadata and where it came from.
// Note that each package is unique. foo-1.0-1.x86_64 and foo-1.0-1.i686 are
// different packages.
type Pkg struct {
	Name       string
	Arch       string
	Epoch      string
	Version    string
	Release    string
	Repository string    // repo id, "installed" for the rpm database
	Origin     Origin    // where the package object was read from
	Location   string    // path or URL of local packages
	Size       int64     // package size in bytes
	Requires   []*PkgRel // requirements on capabilities or files
	Provides   []*PkgRel // provided capabilities, not including the name
	Obsoletes  []*PkgRel // obsoleted capabilities
	Conflicts  []*PkgRel // conflicting capabilities
	Files      []string  // owned file paths
}

// NewPkg creates a package without any dependency metadata.
func NewPkg(name, arch, epoch, version, release, repo string) *Pkg {
	if epoch == "" {
		epoch = "0"
	}
	p := &Pkg{
		Name:       name,
		Arch:       arch,
		Epoch:      epoch,
		Version:    version,
		Release:    release,
		Repository: repo,
		Origin:     OriginAvailable,
	}
	if repo == InstalledRepo {
		p.Origin = OriginInstalled
	}
	return p
}

// NewPkgFromTup creates a package out of its identity.
func NewPkgFromTup(t PkgTup, repo string) *Pkg {
	return NewPkg(t.Name, t.Arch, t.Epoch, t.Version, t.Release, repo)
}

// NewPkgMock creates a package out of a "name-[epoch:]version-release.arch"
// string, panicking on malformed input.
// Useful for testing.
func NewPkgMock(nevra, repo string) *Pkg {
	t, err := ParseNEVRA(nevra)
	if err != nil {
		panic(err)
	}
	return NewPkgFromTup(t, repo)
}

func mustRels(rels []string) []*PkgRel {
	ret := make([]*PkgRel, 0, len(rels))
	for _, r := range rels {
		ret = append(ret, MustParseRel(r))
	}
	return ret
}

// Requiring appends requirements parsed from rels and returns p.
// Useful for testing.
func (p *Pkg) Requiring(rels ...string) *Pkg {
	p.Requires = append(p.Requires, mustRels(rels)...)
	return p
}

// Providing appends provides parsed from rels and returns p.
func (p *Pkg) Providing(rels ...string) *Pkg {
	p.Provides = append(p.Provides, mustRels(rels)...)
	return p
}

// Obsoleting appends obsoletes parsed from rels and returns p.
func (p *Pkg) Obsoleting(rels ...string) *Pkg {
	p.Obsoletes = append(p.Obsoletes, mustRels(rels)...)
	return p
}

// Conflicting appends conflicts parsed from rels and returns p.
func (p *Pkg) Conflicting(rels ...string) *Pkg {
	p.Conflicts = append(p.Conflicts, mustRels(rels)...)
	return p
}

// WithFiles appends owned files and returns p.
func (p *Pkg) WithFiles(files ...string) *Pkg {
	p.Files = append(p.Files, files...)
	return p
}

func (p *Pkg) PkgTup() PkgTup {
	return PkgTup{Name: p.Name, Arch: p.Arch, Epoch: p.Epoch, Version: p.Version, Release: p.Release}
}

func (p *Pkg) EVR() EVR {
	return EVR{Epoch: p.Epoch, Version: p.Version, Release: p.Release}
}

func (p *Pkg) String() string {
	return p.PkgTup().String()
}

// IsInstalled reports whether p was read from the rpm database.
func (p *Pkg) IsInstalled() bool {
	return p.Origin == OriginInstalled
}

// IsLocal reports whether p comes from an .rpm file rather than a repository.
func (p *Pkg) IsLocal() bool {
	return p.Origin == OriginLocal || p.Origin == OriginURL
}

// Compare orders p and o by EVR only.
func (p *Pkg) Compare(o *Pkg) int {
	return CompareEVR(p.EVR(), o.EVR())
}

func (p *Pkg) VerEQ(o *Pkg) bool { return p.Name == o.Name && p.Compare(o) == 0 }
func (p *Pkg) VerGT(o *Pkg) bool { return p.Name == o.Name && p.Compare(o) > 0 }
func (p *Pkg) VerLT(o *Pkg) bool { return p.Name == o.Name && p.Compare(o) < 0 }

// SelfProvide is the implicit "name = evr" provide every package carries.
func (p *Pkg) SelfProvide() *PkgRel {
	return NewPkgRel(p.Name, SenseEQ, p.EVR())
}

// ProvideNames returns the names of all capabilities p provides, its own name
// first.
func (p *Pkg) ProvideNames() []string {
	names := []string{p.Name}
	for _, prov := range p.Provides {
		if prov.Name != p.Name {
			names = append(names, prov.Name)
		}
	}
	return names
}

// ProvidesFor reports whether p satisfies req, through its name, an explicit
// provide or, for file requirements, an owned file.
func (p *Pkg) ProvidesFor(req *PkgRel) bool {
	if req.IsFile() {
		for _, f := range p.Files {
			if f == req.Name {
				return true
			}
		}
		for _, prov := range p.Provides {
			if prov.Name == req.Name {
				return true
			}
		}
		return false
	}
	if req.Overlaps(p.SelfProvide()) {
		return true
	}
	for _, prov := range p.Provides {
		if req.Overlaps(prov) {
			return true
		}
	}
	return false
}

// ObsoletesPkg reports whether one of p's obsoletes matches o. A package
// never obsoletes itself.
func (p *Pkg) ObsoletesPkg(o *Pkg) bool {
	if p.PkgTup() == o.PkgTup() {
		return false
	}
	self := o.SelfProvide()
	for _, obs := range p.Obsoletes {
		if obs.Overlaps(self) {
			return true
		}
	}
	return false
}

// ConflictsWith reports whether one of p's conflicts is provided by o.
func (p *Pkg) ConflictsWith(o *Pkg) bool {
	if p.PkgTup() == o.PkgTup() {
		return false
	}
	for _, c := range p.Conflicts {
		if o.ProvidesFor(c) {
			return true
		}
	}
	return false
}

// JSON serializes package p into JSON, returning a []byte
func (p *Pkg) JSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(p)
	return buffer.Bytes(), err
}

// GetFingerPrint returns a unique id of the package, including the repository
// it was read from.
func (p *Pkg) GetFingerPrint() string {
	return fmt.Sprintf("%s@%s", p.PkgTup(), p.Repository)
}

// GetBaseFingerPrint returns an id of the package minus its EVR. Packages
// that only differ in version share it.
func (p *Pkg) GetBaseFingerPrint() string {
	return CreateBaseFingerPrint(p.Name, p.Arch)
}

// CreateBaseFingerPrint returns a base fingerprint (name.arch)
func CreateBaseFingerPrint(name, arch string) string {
	return fmt.Sprintf("%s.%s", name, arch)
}

// Encode encodes the package to string.
func (p *Pkg) Encode() (string, error) {
	encodedPackage, err := p.JSON()
	if err != nil {
		return "", err
	}
	return string(encodedPackage), nil
}

// ParseNEVRA parses "name-[epoch:]version-release.arch", also accepting the
// epoch in front of the name ("epoch:name-version-release.arch").
func ParseNEVRA(s string) (PkgTup, error) {
	orig := s
	var epoch string
	dot := strings.LastIndex(s, ".")
	if dot < 0 {
		return PkgTup{}, errors.Errorf("malformed package %q: missing arch", orig)
	}
	arch := s[dot+1:]
	s = s[:dot]

	dash := strings.LastIndex(s, "-")
	if dash < 0 {
		return PkgTup{}, errors.Errorf("malformed package %q: missing release", orig)
	}
	release := s[dash+1:]
	s = s[:dash]

	dash = strings.LastIndex(s, "-")
	if dash < 0 {
		return PkgTup{}, errors.Errorf("malformed package %q: missing version", orig)
	}
	version := s[dash+1:]
	name := s[:dash]

	if i := strings.Index(version, ":"); i >= 0 {
		epoch, version = version[:i], version[i+1:]
	} else if i := strings.Index(name, ":"); i >= 0 {
		epoch, name = name[:i], name[i+1:]
	}

	if name == "" || arch == "" || version == "" || release == "" {
		return PkgTup{}, errors.Errorf("malformed package %q", orig)
	}
	return NewPkgTup(name, arch, epoch, version, release), nil
}

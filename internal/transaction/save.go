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
	"io"
	"io/ioutil"
	"strings"

	"github.com/Masterminds/log-go"
	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"gopkg.in/yaml.v2"
)

// FormatVersion is the version written into saved transactions. Loading
// accepts any version compatible with formatConstraint.
const FormatVersion = "1.0.0"

const formatConstraint = "^1.0"

// ErrRPMDBChanged is returned when loading a transaction saved against a
// different set of installed packages.
var ErrRPMDBChanged = errors.New("rpmdb has changed since the transaction was saved")

// LoadError lists the packages of a saved transaction that could not be found.
type LoadError struct {
	Missing []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("saved transaction references unknown packages: %s", strings.Join(e.Missing, ", "))
}

type savedRelation struct {
	Pkg  string `yaml:"pkg"`
	Kind string `yaml:"kind"`
}

type savedMember struct {
	Tup          string          `yaml:"tup"`
	Repo         string          `yaml:"repo"`
	TsState      string          `yaml:"ts_state,omitempty"`
	OutputState  string          `yaml:"output_state"`
	CurrentState string          `yaml:"current_state"`
	Process      string          `yaml:"process"`
	IsDep        bool            `yaml:"isdep,omitempty"`
	Reason       string          `yaml:"reason"`
	Reinstall    bool            `yaml:"reinstall,omitempty"`
	Groups       []string        `yaml:"groups,omitempty"`
	RelatedTo    []savedRelation `yaml:"relatedto,omitempty"`
	Updates      []string        `yaml:"updates,omitempty"`
	UpdatedBy    []string        `yaml:"updated_by,omitempty"`
	Obsoletes    []string        `yaml:"obsoletes,omitempty"`
	ObsoletedBy  []string        `yaml:"obsoleted_by,omitempty"`
	Downgrades   []string        `yaml:"downgrades,omitempty"`
	DowngradedBy []string        `yaml:"downgraded_by,omitempty"`
	RequiredBy   []string        `yaml:"required_by,omitempty"`
}

type savedTransaction struct {
	Version            string        `yaml:"version"`
	ID                 string        `yaml:"id"`
	RPMDBVersion       string        `yaml:"rpmdb_version"`
	FutureRPMDBVersion string        `yaml:"future_rpmdb_version"`
	ProbFilters        []string      `yaml:"prob_filters,omitempty"`
	Members            []savedMember `yaml:"members"`
	Digest             string        `yaml:"digest"`
}

// encodeTup writes a tuple as "name,arch,epoch,version,release".
func encodeTup(t pkg.PkgTup) string {
	return strings.Join(t.Fields(), ",")
}

func decodeTup(s string) (pkg.PkgTup, error) {
	f := strings.Split(s, ",")
	if len(f) != 5 {
		return pkg.PkgTup{}, errors.Errorf("malformed package tuple %q", s)
	}
	return pkg.NewPkgTup(f[0], f[1], f[2], f[3], f[4]), nil
}

func encodePkgs(pkgs []*pkg.Pkg) []string {
	var ret []string
	for _, p := range pkgs {
		ret = append(ret, encodeTup(p.PkgTup()))
	}
	return ret
}

// Save writes the transaction as YAML. The member list is covered by a
// digest so that hand-edited files are rejected on load.
func (ts *Info) Save(w io.Writer) error {
	st := savedTransaction{
		Version:            FormatVersion,
		ID:                 ts.ID.String(),
		FutureRPMDBVersion: ts.FutureRPMDBVersion(),
	}
	if ts.rpmdb != nil {
		st.RPMDBVersion = ts.rpmdb.SimpleVersion()
	}
	for _, f := range ts.probFilters {
		st.ProbFilters = append(st.ProbFilters, string(f))
	}
	for _, m := range ts.Members() {
		sm := savedMember{
			Tup:          encodeTup(m.PkgTup()),
			Repo:         m.Pkg.Repository,
			TsState:      string(m.TsState),
			OutputState:  m.OutputState.String(),
			CurrentState: m.CurrentState.String(),
			Process:      string(m.Process),
			IsDep:        m.IsDep,
			Reason:       m.Reason,
			Reinstall:    m.Reinstall,
			Groups:       m.Groups,
			Updates:      encodePkgs(m.Updates),
			UpdatedBy:    encodePkgs(m.UpdatedBy),
			Obsoletes:    encodePkgs(m.Obsoletes),
			ObsoletedBy:  encodePkgs(m.ObsoletedBy),
			Downgrades:   encodePkgs(m.Downgrades),
			DowngradedBy: encodePkgs(m.DowngradedBy),
			RequiredBy:   encodePkgs(m.RequiredBy),
		}
		for _, r := range m.RelatedTo {
			sm.RelatedTo = append(sm.RelatedTo, savedRelation{Pkg: encodeTup(r.Pkg.PkgTup()), Kind: string(r.Kind)})
		}
		st.Members = append(st.Members, sm)
	}

	body, err := yaml.Marshal(st.Members)
	if err != nil {
		return errors.Wrap(err, "encoding transaction members")
	}
	st.Digest = digest.FromBytes(body).String()

	out, err := yaml.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding transaction")
	}
	_, err = w.Write(out)
	return err
}

// LoadOptions tunes Load.
type LoadOptions struct {
	// IgnoreRPMDBChange loads the transaction even when the installed
	// packages differ from those it was saved against.
	IgnoreRPMDBChange bool
}

// Load reads a transaction written by Save, resolving its packages against
// pkgSack and rpmdb.
func Load(r io.Reader, pkgSack sack.PackageSack, rpmdb sack.RPMDB, logger log.Logger, opts LoadOptions) (*Info, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading saved transaction")
	}
	st := savedTransaction{}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrap(err, "parsing saved transaction")
	}

	v, err := semver.NewVersion(st.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "saved transaction version %q", st.Version)
	}
	c, err := semver.NewConstraint(formatConstraint)
	if err != nil {
		return nil, err
	}
	if !c.Check(v) {
		return nil, errors.Errorf("unsupported saved transaction version %s", st.Version)
	}

	d, err := digest.Parse(st.Digest)
	if err != nil {
		return nil, errors.Wrap(err, "saved transaction digest")
	}
	body, err := yaml.Marshal(st.Members)
	if err != nil {
		return nil, err
	}
	if d.Algorithm().FromBytes(body) != d {
		return nil, errors.New("saved transaction digest mismatch, file was modified")
	}

	if rpmdb != nil && st.RPMDBVersion != rpmdb.SimpleVersion() {
		if !opts.IgnoreRPMDBChange {
			return nil, errors.Wrapf(ErrRPMDBChanged, "saved against %s, now %s", st.RPMDBVersion, rpmdb.SimpleVersion())
		}
		logger.Warnf("rpmdb changed since the transaction was saved, loading anyway")
	}

	ts := New(logger)
	ts.SetDatabases(pkgSack, rpmdb)
	if id, err := uuid.Parse(st.ID); err == nil {
		ts.ID = id
	}

	missing := []string{}
	lookup := func(tupStr, repo string) *pkg.Pkg {
		t, err := decodeTup(tupStr)
		if err != nil {
			missing = append(missing, tupStr)
			return nil
		}
		if p := findPkg(t, repo, pkgSack, rpmdb); p != nil {
			return p
		}
		missing = append(missing, t.String())
		return nil
	}
	lookupAll := func(list []string) []*pkg.Pkg {
		ret := []*pkg.Pkg{}
		for _, s := range list {
			if p := lookup(s, ""); p != nil {
				ret = append(ret, p)
			}
		}
		return ret
	}

	for _, sm := range st.Members {
		p := lookup(sm.Tup, sm.Repo)
		if p == nil {
			continue
		}
		m := newMember(p)
		m.TsState = TsState(sm.TsState)
		m.OutputState, _ = ParseState(sm.OutputState)
		m.CurrentState, _ = ParseState(sm.CurrentState)
		m.Process = Process(sm.Process)
		m.IsDep = sm.IsDep
		m.Reason = sm.Reason
		m.Reinstall = sm.Reinstall
		m.Groups = sm.Groups
		m.Updates = lookupAll(sm.Updates)
		m.UpdatedBy = lookupAll(sm.UpdatedBy)
		m.Obsoletes = lookupAll(sm.Obsoletes)
		m.ObsoletedBy = lookupAll(sm.ObsoletedBy)
		m.Downgrades = lookupAll(sm.Downgrades)
		m.DowngradedBy = lookupAll(sm.DowngradedBy)
		m.RequiredBy = lookupAll(sm.RequiredBy)
		for _, r := range sm.RelatedTo {
			if rp := lookup(r.Pkg, ""); rp != nil {
				m.RelatedTo = append(m.RelatedTo, Relation{Pkg: rp, Kind: RelationKind(r.Kind)})
			}
		}
		t := p.PkgTup()
		ts.members[t] = m
		ts.order = append(ts.order, t)
	}
	if len(missing) > 0 {
		return nil, &LoadError{Missing: missing}
	}

	for _, f := range st.ProbFilters {
		ts.AddProbFilter(ProbFilter(f))
	}
	ts.SetFutureRPMDBVersion(st.FutureRPMDBVersion)
	ts.CheckFutureRPMDBVersion = true
	ts.ResetResolved(true)
	ts.Changed = true
	return ts, nil
}

func findPkg(t pkg.PkgTup, repo string, pkgSack sack.PackageSack, rpmdb sack.RPMDB) *pkg.Pkg {
	if repo == pkg.InstalledRepo && rpmdb != nil {
		if found := rpmdb.SearchNevra(t); len(found) > 0 {
			return found[0]
		}
		return nil
	}
	if pkgSack != nil {
		found := pkgSack.SearchNevra(t)
		for _, p := range found {
			if repo == "" || p.Repository == repo {
				return p
			}
		}
		if len(found) > 0 {
			return found[0]
		}
	}
	if rpmdb != nil {
		if found := rpmdb.SearchNevra(t); len(found) > 0 {
			return found[0]
		}
	}
	return nil
}

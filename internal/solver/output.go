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

package solver

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"gopkg.in/yaml.v2"
)

type OutputMode int

const (
	JSON OutputMode = iota
	YAML
	Table
)

// ParseOutputMode maps "json", "yaml" and "table" to an OutputMode.
func ParseOutputMode(s string) (OutputMode, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "yaml":
		return YAML, nil
	case "table", "":
		return Table, nil
	}
	return Table, errors.Errorf("unknown output format %q", s)
}

// ReportEntry is one line of a transaction report.
type ReportEntry struct {
	Package string `json:"package" yaml:"package"`
	Repo    string `json:"repo" yaml:"repo"`
	Size    int64  `json:"size,omitempty" yaml:"size,omitempty"`
	// Replaces names the packages this one updates, obsoletes or downgrades.
	Replaces []string `json:"replaces,omitempty" yaml:"replaces,omitempty"`
}

// Report is the outcome of a resolution, as shown to the user. It is
// marshalled into YAML and JSON.
type Report struct {
	Status        string        `json:"status" yaml:"status"`
	Installing    []ReportEntry `json:"installing,omitempty" yaml:"installing,omitempty"`
	Updating      []ReportEntry `json:"updating,omitempty" yaml:"updating,omitempty"`
	Removing      []ReportEntry `json:"removing,omitempty" yaml:"removing,omitempty"`
	Obsoleted     []ReportEntry `json:"obsoleted,omitempty" yaml:"obsoleted,omitempty"`
	DepInstalling []ReportEntry `json:"dep_installing,omitempty" yaml:"dep_installing,omitempty"`
	DepUpdating   []ReportEntry `json:"dep_updating,omitempty" yaml:"dep_updating,omitempty"`
	DepRemoving   []ReportEntry `json:"dep_removing,omitempty" yaml:"dep_removing,omitempty"`
	Reinstalling  []ReportEntry `json:"reinstalling,omitempty" yaml:"reinstalling,omitempty"`
	Downgrading   []ReportEntry `json:"downgrading,omitempty" yaml:"downgrading,omitempty"`
	Skipped       []string      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Messages      []string      `json:"messages,omitempty" yaml:"messages,omitempty"`
	ProbFilters   []string      `json:"prob_filters,omitempty" yaml:"prob_filters,omitempty"`
}

// Section is a titled list of report entries, in display order.
type Section struct {
	Title   string
	Entries []ReportEntry
}

// NewReport summarizes the transaction of r after BuildTransaction returned
// res and msgs.
func (r *Resolver) NewReport(res Result, msgs []string) *Report {
	rep := &Report{
		Status:   res.String(),
		Messages: msgs,
		Skipped:  r.SkippedMessages(),
	}
	if res == ResultError {
		return rep
	}
	l := r.Env.TS.MakeLists(true, true)
	rep.Installing = entries(l.Installed)
	rep.Updating = entries(l.Updated)
	rep.Removing = entries(l.Removed)
	rep.Obsoleted = entries(l.Obsoleted)
	rep.DepInstalling = entries(l.DepInstalled)
	rep.DepUpdating = entries(l.DepUpdated)
	rep.DepRemoving = entries(l.DepRemoved)
	rep.Reinstalling = entries(l.Reinstalled)
	rep.Downgrading = entries(l.Downgraded)
	for _, f := range r.Env.TS.ProbFilters() {
		rep.ProbFilters = append(rep.ProbFilters, string(f))
	}
	return rep
}

func entries(ms []*transaction.Member) []ReportEntry {
	ret := []ReportEntry{}
	for _, m := range ms {
		e := ReportEntry{
			Package: m.Pkg.String(),
			Repo:    m.Pkg.Repository,
			Size:    m.Pkg.Size,
		}
		for _, replaced := range [][]*pkg.Pkg{m.Updates, m.Obsoletes, m.Downgrades} {
			e.Replaces = append(e.Replaces, names(replaced)...)
		}
		ret = append(ret, e)
	}
	return ret
}

func names(pkgs []*pkg.Pkg) []string {
	ret := []string{}
	for _, p := range pkgs {
		ret = append(ret, p.String())
	}
	return ret
}

// Sections returns the non-empty lists of the report in display order.
func (rep *Report) Sections() []Section {
	all := []Section{
		{"Installing", rep.Installing},
		{"Updating", rep.Updating},
		{"Reinstalling", rep.Reinstalling},
		{"Downgrading", rep.Downgrading},
		{"Removing", rep.Removing},
		{"Installing for dependencies", rep.DepInstalling},
		{"Updating for dependencies", rep.DepUpdating},
		{"Removing for dependencies", rep.DepRemoving},
		{"Obsoleted", rep.Obsoleted},
	}
	ret := []Section{}
	for _, s := range all {
		if len(s.Entries) > 0 {
			ret = append(ret, s)
		}
	}
	return ret
}

func (rep *Report) FormatOutput(t OutputMode) (string, error) {
	var sb strings.Builder
	switch t {
	case Table:
		sb.WriteString(fmt.Sprintf("Status: %s\n", rep.Status))
		for _, s := range rep.Sections() {
			sb.WriteString(s.Title + ":\n")
			for _, e := range s.Entries {
				sb.WriteString(fmt.Sprintf("\t%s\t%s\n", e.Package, e.Repo))
			}
		}
		if len(rep.Skipped) > 0 {
			sb.WriteString("Skipped (dependency problems):\n")
			for _, s := range rep.Skipped {
				sb.WriteString(fmt.Sprintf("\t%s\n", s))
			}
		}
		for _, m := range rep.Messages {
			sb.WriteString(fmt.Sprintf("%s\n", m))
		}
	case YAML:
		o, err := yaml.Marshal(rep)
		if err != nil {
			return "", errors.Wrap(err, "encoding report")
		}
		sb.Write(o)
	case JSON:
		o, err := json.Marshal(rep)
		if err != nil {
			return "", errors.Wrap(err, "encoding report")
		}
		sb.Write(o)
	}
	return sb.String(), nil
}

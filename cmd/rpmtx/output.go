/*
Copyright The Helm Authors, SUSE

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

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/pkg/eyecandy"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

func sectionColor(title string) func(a ...interface{}) string {
	switch {
	case strings.HasPrefix(title, "Removing"), title == "Obsoleted":
		return red
	case strings.HasPrefix(title, "Updating"), title == "Downgrading", title == "Reinstalling":
		return yellow
	}
	return green
}

// writeReport prints rep to out in the given format.
func writeReport(out io.Writer, rep *solver.Report, mode solver.OutputMode) error {
	if mode != solver.Table {
		s, err := rep.FormatOutput(mode)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, s)
		return err
	}
	return writeReportTable(out, rep)
}

func writeReportTable(out io.Writer, rep *solver.Report) error {
	var sb strings.Builder
	var total int64

	sections := rep.Sections()
	if len(sections) > 0 {
		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("PACKAGE", "REPOSITORY", "SIZE", "REPLACES")
		for _, s := range sections {
			table.AddRow(sectionColor(s.Title)(eyecandy.SectionHeader(settings.NoEmojis, s.Title)), "", "", "")
			for _, e := range s.Entries {
				size := "-"
				if e.Size > 0 {
					size = units.HumanSize(float64(e.Size))
					total += e.Size
				}
				table.AddRow("  "+e.Package, blue(e.Repo), size, strings.Join(e.Replaces, ", "))
			}
		}
		sb.WriteString(table.String())
		sb.WriteString("\n")
	}

	if len(rep.Skipped) > 0 {
		sb.WriteString(eyecandy.SectionHeader(settings.NoEmojis, "Skipped") + "\n")
		for _, s := range rep.Skipped {
			sb.WriteString("  " + s + "\n")
		}
	}
	for _, m := range rep.Messages {
		sb.WriteString(red(m) + "\n")
	}
	if total > 0 {
		sb.WriteString(fmt.Sprintf("Total size: %s\n", units.HumanSize(float64(total))))
	}
	sb.WriteString(fmt.Sprintf("Status: %s\n", rep.Status))

	_, err := io.WriteString(out, sb.String())
	return err
}

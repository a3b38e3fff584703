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

// NoMatchError is returned when a selector matches no package.
type NoMatchError struct {
	Op       string
	Selector Selector
}

func (e *NoMatchError) Error() string {
	where := "available"
	if e.Op == "remove" || e.Op == "reinstall" {
		where = "installed"
	}
	switch s := e.Selector.(type) {
	case Pattern:
		if s.IsLocalFile() {
			return fmt.Sprintf("cannot %s %s: no such local package", e.Op, s)
		}
		return fmt.Sprintf("no package %s %s to %s", s, where, e.Op)
	case Nevra:
		return fmt.Sprintf("no package matching %s %s to %s", s, where, e.Op)
	case PkgTup, DirectRef:
		return fmt.Sprintf("package %s is not %s to %s", s, where, e.Op)
	}
	return fmt.Sprintf("nothing to %s", e.Op)
}

// DowngradeError is returned when a downgrade cannot be set up.
type DowngradeError struct {
	Msg string
}

func (e *DowngradeError) Error() string { return e.Msg }

// ReinstallRemoveError is returned when the installed copy of a package to
// reinstall cannot be removed.
type ReinstallRemoveError struct {
	Msg string
}

func (e *ReinstallRemoveError) Error() string { return e.Msg }

// ReinstallInstallError is returned when no copy of a package to reinstall
// can be installed again.
type ReinstallInstallError struct {
	FailedPkgs []*pkg.Pkg
}

func (e *ReinstallInstallError) Error() string {
	names := make([]string, 0, len(e.FailedPkgs))
	for _, p := range e.FailedPkgs {
		names = append(names, p.String())
	}
	return fmt.Sprintf("problem in reinstall: no package available to install for %s", strings.Join(names, ", "))
}

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
	"strconv"
	"strings"

	"github.com/cavaliercoder/go-rpm/version"
)

// EVR is the (epoch, version, release) triple used to order packages of the
// same name.
type EVR struct {
	Epoch   string
	Version string
	Release string
}

func (e EVR) String() string {
	var b strings.Builder
	if e.Epoch != "" && e.Epoch != "0" {
		fmt.Fprintf(&b, "%s:", e.Epoch)
	}
	b.WriteString(e.Version)
	if e.Release != "" {
		fmt.Fprintf(&b, "-%s", e.Release)
	}
	return b.String()
}

func epochNum(e string) int64 {
	if e == "" {
		return 0
	}
	n, err := strconv.ParseInt(e, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// evrVersion adapts an EVR to the rpm version comparison.
type evrVersion struct {
	evr EVR
}

func (v evrVersion) Name() string    { return "" }
func (v evrVersion) Epoch() int      { return int(epochNum(v.evr.Epoch)) }
func (v evrVersion) Version() string { return v.evr.Version }
func (v evrVersion) Release() string { return v.evr.Release }

// CompareEVR returns -1, 0 or 1 when a is older, equal or newer than b.
// Epochs compare numerically, with an empty epoch meaning 0.
func CompareEVR(a, b EVR) int {
	return version.Compare(evrVersion{a}, evrVersion{b})
}

// Vercmp compares two version or release strings with rpm's segment rules:
// digit runs compare numerically and beat letter runs, and '~' sorts before
// anything, even the end of the string.
func Vercmp(a, b string) int {
	return CompareEVR(EVR{Version: a}, EVR{Version: b})
}

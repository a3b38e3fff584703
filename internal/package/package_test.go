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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVercmp(t *testing.T) {
	for _, tcase := range []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "2.0", -1},
		{"2.0.1", "2.0", 1},
		{"1.10", "1.9", 1},
		{"1.001", "1.1", 0},
		{"1.0a", "1.0", 1},
		{"a", "1", -1},
		{"1.0~rc1", "1.0", -1},
		{"1.0~rc1", "1.0~rc2", -1},
		{"1.0~rc1", "1.0.1", -1},
		{"1.0.0", "1.0", 1},
		{"", "1", -1},
		{"fc4", "fc.4", 0},
	} {
		t.Run(tcase.a+"_"+tcase.b, func(t *testing.T) {
			is := assert.New(t)
			is.Equal(tcase.want, Vercmp(tcase.a, tcase.b))
			is.Equal(-tcase.want, Vercmp(tcase.b, tcase.a))
		})
	}
}

func TestCompareEVR(t *testing.T) {
	is := assert.New(t)
	is.Equal(1, CompareEVR(EVR{"1", "1.0", "1"}, EVR{"0", "9.0", "1"}))
	is.Equal(0, CompareEVR(EVR{"", "1.0", "1"}, EVR{"0", "1.0", "1"}))
	is.Equal(-1, CompareEVR(EVR{"0", "1.0", "1"}, EVR{"0", "1.0", "2"}))
	is.Equal(-1, CompareEVR(EVR{"2", "1.0", "1"}, EVR{"10", "0.1", "1"}))
	is.Equal(1, CompareEVR(EVR{"0", "1.0~rc1", "1"}, EVR{"0", "1.0~beta", "9"}))
}

func TestParseNEVRA(t *testing.T) {
	for _, tcase := range []struct {
		in      string
		want    PkgTup
		wantErr bool
	}{
		{"foo-1.0-1.x86_64", PkgTup{"foo", "x86_64", "0", "1.0", "1"}, false},
		{"foo-bar-2:1.0-1.fc30.noarch", PkgTup{"foo-bar", "noarch", "2", "1.0", "1.fc30"}, false},
		{"3:foo-1.0-1.i686", PkgTup{"foo", "i686", "3", "1.0", "1"}, false},
		{"foo.x86_64", PkgTup{}, true},
		{"foo-1.x86_64", PkgTup{}, true},
	} {
		t.Run(tcase.in, func(t *testing.T) {
			is := assert.New(t)
			got, err := ParseNEVRA(tcase.in)
			if tcase.wantErr {
				is.Error(err)
				return
			}
			is.NoError(err)
			is.Equal(tcase.want, got)
		})
	}
}

func TestParseRel(t *testing.T) {
	is := assert.New(t)

	r, err := ParseRel("libfoo.so.1")
	is.NoError(err)
	is.Equal(SenseAny, r.Flags)
	is.Equal("libfoo.so.1", r.String())

	r, err = ParseRel("foo>=1:2.0-3")
	is.NoError(err)
	is.Equal("foo", r.Name)
	is.Equal(SenseGE, r.Flags)
	is.Equal(EVR{"1", "2.0", "3"}, r.EVR())
	is.Equal("foo >= 1:2.0-3", r.String())

	_, err = ParseRel("foo >=")
	is.Error(err)
	_, err = ParseRel("foo ~> 1")
	is.Error(err)
}

func TestOverlaps(t *testing.T) {
	for _, tcase := range []struct {
		req, prov string
		want      bool
	}{
		{"foo", "foo = 1.0-1", true},
		{"foo >= 1.0", "foo = 1.0-1", true},
		{"foo > 1.0", "foo = 1.0-1", false},
		{"foo = 1.0", "foo = 1.0-15", true},
		{"foo = 1.0-2", "foo = 1.0-15", false},
		{"foo < 2.0", "foo = 1.0-1", true},
		{"foo < 1.0", "foo = 2.0-1", false},
		{"foo >= 2.0", "foo < 3.0", true},
		{"foo <= 1.0", "foo > 2.0", false},
		{"foo", "bar", false},
	} {
		t.Run(tcase.req+"/"+tcase.prov, func(t *testing.T) {
			is := assert.New(t)
			is.Equal(tcase.want, MustParseRel(tcase.req).Overlaps(MustParseRel(tcase.prov)))
		})
	}
}

func TestProvidesFor(t *testing.T) {
	is := assert.New(t)
	p := NewPkgMock("foo-2.0-1.x86_64", "base").
		Providing("libfoo.so.2", "webserver = 1.0").
		WithFiles("/usr/bin/foo")

	is.True(p.ProvidesFor(MustParseRel("foo >= 1.0")))
	is.False(p.ProvidesFor(MustParseRel("foo < 2.0")))
	is.True(p.ProvidesFor(MustParseRel("libfoo.so.2")))
	is.True(p.ProvidesFor(MustParseRel("webserver")))
	is.True(p.ProvidesFor(MustParseRel("/usr/bin/foo")))
	is.False(p.ProvidesFor(MustParseRel("/usr/bin/bar")))
	is.Equal([]string{"foo", "libfoo.so.2", "webserver"}, p.ProvideNames())
}

func TestObsoletesPkg(t *testing.T) {
	is := assert.New(t)
	newp := NewPkgMock("new-1.0-1.noarch", "base").Obsoleting("old < 2.0")
	old1 := NewPkgMock("old-1.5-1.noarch", InstalledRepo)
	old2 := NewPkgMock("old-2.0-1.noarch", InstalledRepo)

	is.True(newp.ObsoletesPkg(old1))
	is.False(newp.ObsoletesPkg(old2))
	is.False(newp.ObsoletesPkg(newp))
	is.True(old1.IsInstalled())
	is.False(newp.IsInstalled())
}

func TestMatchPattern(t *testing.T) {
	p := NewPkgMock("foo-devel-1:1.2-3.x86_64", "base")
	for _, tcase := range []struct {
		pattern string
		want    bool
	}{
		{"foo-devel", true},
		{"foo-devel.x86_64", true},
		{"foo-devel-1.2", true},
		{"foo-devel-1.2-3", true},
		{"foo-devel-1:1.2-3.x86_64", true},
		{"1:foo-devel-1.2-3.x86_64", true},
		{"foo-*", true},
		{"foo-devel.i?86", false},
		{"foo", false},
	} {
		t.Run(tcase.pattern, func(t *testing.T) {
			assert.Equal(t, tcase.want, p.MatchPattern(tcase.pattern))
		})
	}
}

func TestFingerPrints(t *testing.T) {
	is := assert.New(t)
	p := NewPkgMock("foo-1.0-1.x86_64", "updates")
	is.Equal("foo-1.0-1.x86_64@updates", p.GetFingerPrint())
	is.Equal("foo.x86_64", p.GetBaseFingerPrint())

	enc, err := p.Encode()
	is.NoError(err)
	is.Contains(enc, `"Name":"foo"`)
}

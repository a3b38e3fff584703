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

package arch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefault(t *testing.T) {
	is := assert.New(t)

	_, err := NewDefault("z80")
	is.Error(err)

	p, err := NewDefault("x86_64")
	is.NoError(err)
	is.Equal([]string{"x86_64", "athlon", "i686", "i586", "i486", "i386", "noarch"}, p.ArchList())
	is.Equal([]string{"x86_64"}, p.BestArches())
	is.True(p.IsMultilib())
	is.True(p.Compatible("i686"))
	is.False(p.Compatible("ppc64"))
	is.Equal(1, p.Score("x86_64"))
	is.Equal(0, p.Score("aarch64"))

	p, err = NewDefault("aarch64")
	is.NoError(err)
	is.False(p.IsMultilib())
	is.Equal([]string{"aarch64"}, p.BestArches())
}

func TestCoinstallable(t *testing.T) {
	p, _ := NewDefault("x86_64")
	for _, tcase := range []struct {
		a, b string
		want bool
	}{
		{"x86_64", "i686", true},
		{"i686", "x86_64", true},
		{"i586", "i686", false},
		{"x86_64", "noarch", false},
		{"x86_64", "ppc", false},
		{"x86_64", "amd64", false},
	} {
		t.Run(tcase.a+"_"+tcase.b, func(t *testing.T) {
			assert.Equal(t, tcase.want, p.Coinstallable(tcase.a, tcase.b))
		})
	}
}

func TestUpdateCompatible(t *testing.T) {
	is := assert.New(t)
	p, _ := NewDefault("x86_64")
	is.True(p.UpdateCompatible("x86_64", "x86_64"))
	is.True(p.UpdateCompatible("i586", "i686"))
	is.True(p.UpdateCompatible("noarch", "x86_64"))
	is.True(p.UpdateCompatible("x86_64", "noarch"))
	is.False(p.UpdateCompatible("x86_64", "i686"))
	is.False(p.UpdateCompatible("x86_64", "ppc64"))

	single, _ := NewDefault("i686")
	is.True(single.UpdateCompatible("i386", "i686"))
}

func TestSortByScore(t *testing.T) {
	p, _ := NewDefault("x86_64")
	arches := []string{"noarch", "ppc", "i686", "x86_64"}
	SortByScore(p, arches)
	assert.Equal(t, []string{"x86_64", "i686", "noarch", "ppc"}, arches)
}

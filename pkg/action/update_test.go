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
	"context"
	"testing"

	"github.com/rancher-sandbox/rpmtx/internal/config"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func updateWorld() *WorldFile {
	return &WorldFile{
		Installed: []WorldPackage{
			inst("foo-1-1.x86_64", "user"),
			inst("bar-1-1.x86_64", "user"),
			inst("gone-1-1.noarch", "user"),
		},
		Repos: base(
			WorldPackage{Nevra: "foo-2-1.x86_64"},
			WorldPackage{Nevra: "foo-3-1.x86_64"},
			WorldPackage{Nevra: "bar-1-1.x86_64"},
			WorldPackage{Nevra: "here-1-1.noarch", Obsoletes: []string{"gone"}},
			WorldPackage{Nevra: "new-1-1.noarch"},
		),
	}
}

func TestUpdateAll(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, updateWorld())
	got, err := NewUpdate(c).Run(context.Background())
	require.NoError(t, err)
	transaction.SortMembers(got)
	is.Equal([]string{"foo-3-1.x86_64", "here-1-1.noarch"}, memberNames(got))
	is.Equal(transaction.StateUpdate, got[0].OutputState)
	is.Equal(transaction.StateObsoleting, got[1].OutputState)
	is.True(c.Env.TS.IsObsoleted(got[1].Obsoletes[0].PkgTup()))
}

func TestUpdateAllWithoutObsoletes(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, updateWorld(), func(cfg *config.Config) { cfg.Obsoletes = false })
	got, err := NewUpdate(c).Run(context.Background())
	require.NoError(t, err)
	is.Equal([]string{"foo-3-1.x86_64"}, memberNames(got))
}

func TestUpdateSelected(t *testing.T) {
	for _, tcase := range []struct {
		name    string
		sels    []Selector
		want    []string
		wantErr bool
	}{
		{"newest", []Selector{Pattern("foo")}, []string{"foo-3-1.x86_64"}, false},
		{"pinned version", []Selector{Nevra{Name: "foo", Version: "2"}}, []string{"foo-2-1.x86_64"}, false},
		{"up to date", []Selector{Pattern("bar")}, []string{}, false},
		{"not installed", []Selector{Pattern("new")}, []string{}, false},
		{"unknown", []Selector{Nevra{Name: "nothere"}}, nil, true},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			c := actionConfigFixture(t, updateWorld())
			got, err := NewUpdate(c).Run(context.Background(), tcase.sels...)
			if tcase.wantErr {
				var nm *NoMatchError
				is.ErrorAs(err, &nm)
				return
			}
			require.NoError(t, err)
			is.Equal(tcase.want, memberNames(got))
		})
	}
}

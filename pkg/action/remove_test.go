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
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemove(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{Installed: []WorldPackage{
		inst("lib-1-1.x86_64", "dep"),
		inst("app-1-1.x86_64", "user", "lib"),
	}})
	ctx := context.Background()

	got, err := NewRemove(c).Run(ctx, Pattern("lib"))
	require.NoError(t, err)
	is.Equal([]string{"lib-1-1.x86_64"}, memberNames(got))

	r, res, msgs, err := c.Resolve(ctx)
	require.NoError(t, err)
	is.Equal(solver.ResultOK, res, msgs)
	rep := r.NewReport(res, msgs)
	if is.Len(rep.DepRemoving, 1) {
		is.Equal("app-1-1.x86_64", rep.DepRemoving[0].Package)
	}

	_, err = NewRemove(c).Run(ctx, PkgTup(pkg.NewPkgTup("nothere", "x86_64", "", "1", "1")))
	var nm *NoMatchError
	is.ErrorAs(err, &nm)
}

func TestRemoveProtected(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{Installed: []WorldPackage{
		inst("rpmtx-1-1.x86_64", "user"),
		inst("other-1-1.x86_64", "user"),
	}})
	ctx := context.Background()

	_, err := NewRemove(c).Run(ctx, Pattern("rpmtx"), Pattern("other"))
	require.NoError(t, err)
	_, res, msgs, err := c.Resolve(ctx)
	require.NoError(t, err)
	is.Equal(solver.ResultError, res)
	is.Equal([]string{`Trying to remove "rpmtx", which is protected`}, msgs)
}

func TestAutoremove(t *testing.T) {
	for _, tcase := range []struct {
		name      string
		installed []WorldPackage
		sels      []Selector
		removed   []string
	}{
		{
			name: "dependency goes with its only requirer",
			installed: []WorldPackage{
				inst("a-1-1.x86_64", "user"),
				inst("b-1-1.x86_64", "dep"),
				inst("c-1-1.x86_64", "user", "b"),
			},
			sels:    []Selector{Pattern("c")},
			removed: []string{"b-1-1.x86_64", "c-1-1.x86_64"},
		},
		{
			name: "dependency kept for another user package",
			installed: []WorldPackage{
				inst("a-1-1.x86_64", "user"),
				inst("b-1-1.x86_64", "dep"),
				inst("c-1-1.x86_64", "user", "b"),
				inst("d-1-1.x86_64", "user", "b"),
			},
			sels:    []Selector{Pattern("c")},
			removed: []string{"c-1-1.x86_64"},
		},
		{
			name: "leaves without selectors",
			installed: []WorldPackage{
				inst("a-1-1.x86_64", "user", "b"),
				inst("b-1-1.x86_64", "dep"),
				inst("x-1-1.x86_64", "dep", "y"),
				inst("y-1-1.x86_64", "dep"),
			},
			removed: []string{"x-1-1.x86_64", "y-1-1.x86_64"},
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			is := assert.New(t)
			c := actionConfigFixture(t, &WorldFile{Installed: tcase.installed})
			ctx := context.Background()

			_, err := NewAutoremove(c).Run(ctx, tcase.sels...)
			require.NoError(t, err)
			_, res, msgs, err := c.Resolve(ctx)
			require.NoError(t, err)
			is.Equal(solver.ResultOK, res, msgs)

			ms := c.Env.TS.MembersWithState(transaction.StateErase)
			transaction.SortMembers(ms)
			is.Equal(tcase.removed, memberNames(ms))
		})
	}
}

func TestAutoremoveNothingToDo(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{Installed: []WorldPackage{inst("a-1-1.x86_64", "user")}},
		func(cfg *config.Config) { cfg.CleanRequirementsOnRemove = false })
	got, err := NewAutoremove(c).Run(context.Background())
	require.NoError(t, err)
	is.Empty(got)
	is.True(c.Env.Config.CleanRequirementsOnRemove)
}

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

	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func downgradeWorld() *WorldFile {
	return &WorldFile{
		Installed: []WorldPackage{inst("foo-2-1.x86_64", "user")},
		Repos:     base(avail("foo-1-1.x86_64", "foo-1-2.x86_64", "foo-3-1.x86_64")...),
	}
}

func TestDowngradePicksNewestOlder(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, downgradeWorld())
	ctx := context.Background()

	got, err := NewDowngrade(c).Run(ctx, Pattern("foo"))
	require.NoError(t, err)
	is.Equal([]string{"foo-1-2.x86_64"}, memberNames(got))
	is.Equal(transaction.ProcessDowngrade, got[0].Process)
	old := c.Env.TS.Member(got[0].Downgrades[0].PkgTup())
	if is.NotNil(old) {
		is.Equal(transaction.StateErase, old.OutputState)
	}

	r, res, msgs, err := c.Resolve(ctx)
	require.NoError(t, err)
	is.Equal(solver.ResultOK, res, msgs)
	is.Contains(c.Env.TS.ProbFilters(), transaction.ProbFilterOldPackage)
	rep := r.NewReport(res, msgs)
	if is.Len(rep.Downgrading, 1) {
		is.Equal([]string{"foo-2-1.x86_64"}, rep.Downgrading[0].Replaces)
	}
}

func TestDowngradeToVersion(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, downgradeWorld())
	got, err := NewDowngrade(c).Run(context.Background(), Nevra{Name: "foo", Version: "1", Release: "1"})
	require.NoError(t, err)
	is.Equal([]string{"foo-1-1.x86_64"}, memberNames(got))
}

func TestDowngradeNothingOlder(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, downgradeWorld())
	got, err := NewDowngrade(c).Run(context.Background(), Nevra{Name: "foo", Version: "3"})
	require.NoError(t, err)
	is.Empty(got)
	is.Equal(0, c.Env.TS.Len())
	is.Empty(c.Env.TS.ProbFilters())
}

func TestDowngradeNotInstalled(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{Repos: base(avail("foo-1-1.x86_64")...)})
	_, err := NewDowngrade(c).Run(context.Background(), Pattern("foo"))
	var de *DowngradeError
	if is.ErrorAs(err, &de) {
		is.Equal("No package foo installed.", de.Error())
	}
}

func TestDowngradeFailureKeepsFilter(t *testing.T) {
	is := assert.New(t)
	wf := downgradeWorld()
	wf.Repos[0].Packages = append(wf.Repos[0].Packages, avail("bar-1-1.x86_64")...)
	c := actionConfigFixture(t, wf)

	got, err := NewDowngrade(c).Run(context.Background(), Pattern("foo"), Pattern("bar"))
	var de *DowngradeError
	is.ErrorAs(err, &de)
	require.Equal(t, []string{"foo-1-2.x86_64"}, memberNames(got))
	is.True(c.Env.TS.Exists(got[0].PkgTup()))
	is.Contains(c.Env.TS.ProbFilters(), transaction.ProbFilterOldPackage)
}

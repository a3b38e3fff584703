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

func TestReinstall(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{
		Installed: []WorldPackage{inst("foo-1-1.x86_64", "user")},
		Repos:     base(avail("foo-1-1.x86_64")...),
	})
	ctx := context.Background()

	got, err := NewReinstall(c).Run(ctx, Pattern("foo"))
	require.NoError(t, err)
	if is.Len(got, 1) {
		is.True(got[0].Reinstall)
		is.Equal(transaction.StateInstall, got[0].OutputState)
		is.Equal("base", got[0].Pkg.Repository)
	}

	r, res, msgs, err := c.Resolve(ctx)
	require.NoError(t, err)
	is.Equal(solver.ResultOK, res, msgs)
	is.ElementsMatch([]transaction.ProbFilter{
		transaction.ProbFilterReplacePkg,
		transaction.ProbFilterReplaceNewFiles,
		transaction.ProbFilterReplaceOldFiles,
	}, c.Env.TS.ProbFilters())
	is.Len(r.NewReport(res, msgs).Reinstalling, 1)
}

func TestReinstallNotAvailable(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{
		Installed: []WorldPackage{
			inst("foo-1-1.x86_64", "user"),
			inst("bar-1-1.x86_64", "user"),
		},
		Repos: base(avail("bar-1-1.x86_64", "foo-2-1.x86_64")...),
	})

	got, err := NewReinstall(c).Run(context.Background(), Pattern("bar"), Pattern("foo"))
	is.Nil(got)
	var rie *ReinstallInstallError
	if is.ErrorAs(err, &rie) && is.Len(rie.FailedPkgs, 1) {
		is.Equal("foo-1-1.x86_64", rie.FailedPkgs[0].String())
	}
	// bar was rolled back too, nothing is left half done
	is.Equal(0, c.Env.TS.Len())
	is.Empty(c.Env.TS.MembersWithState(transaction.StateErase))
}

func TestReinstallBeingRemoved(t *testing.T) {
	is := assert.New(t)
	c := actionConfigFixture(t, &WorldFile{
		Installed: []WorldPackage{inst("foo-1-1.x86_64", "user")},
		Repos:     base(avail("foo-1-1.x86_64")...),
	})
	ctx := context.Background()
	_, err := NewRemove(c).Run(ctx, Pattern("foo"))
	require.NoError(t, err)

	_, err = NewReinstall(c).Run(ctx, Pattern("foo"))
	var rre *ReinstallRemoveError
	is.ErrorAs(err, &rre)
	is.NotNil(c.Env.TS.MemberWithState(c.Env.RPMDB.Packages()[0].PkgTup(), transaction.StateErase))
}

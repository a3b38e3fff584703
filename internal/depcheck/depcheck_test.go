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

package depcheck

import (
	"bytes"
	"context"
	"testing"

	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/rancher-sandbox/rpmtx/internal/config"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	env   *solver.Env
	sack  *sack.MemorySack
	rpmdb *sack.MemoryRPMDB
}

func newWorld(t *testing.T) *world {
	buf := new(bytes.Buffer)
	logger := logcli.NewStandard()
	logger.InfoOut = buf
	logger.WarnOut = buf
	logger.ErrorOut = buf
	logger.DebugOut = buf

	s := sack.New()
	db := sack.NewRPMDB()
	env, err := solver.NewEnv(s, db, config.Default(), logger)
	require.NoError(t, err)
	return &world{env: env, sack: s, rpmdb: db}
}

func (w *world) available(nevra string) *pkg.Pkg {
	p := pkg.NewPkgMock(nevra, "base")
	w.sack.Add(p)
	return p
}

func (w *world) installed(nevra, reason string) *pkg.Pkg {
	p := pkg.NewPkgMock(nevra, pkg.InstalledRepo)
	w.rpmdb.Install(p, reason)
	return p
}

func (w *world) resolve(t *testing.T) (solver.Result, []string, *Checker) {
	w.sack.InvalidateCaches()
	w.rpmdb.InvalidateCaches()
	c := New()
	res, msgs, err := c.ResolveDeps(context.Background(), w.env)
	require.NoError(t, err)
	return res, msgs, c
}

func TestEmptyTransaction(t *testing.T) {
	w := newWorld(t)
	res, _, _ := w.resolve(t)
	assert.Equal(t, solver.ResultEmpty, res)
}

func TestPullsInProvider(t *testing.T) {
	is := assert.New(t)
	w := newWorld(t)
	app := w.available("app-1-1.x86_64").Requiring("libfoo >= 1.0")
	w.available("libfoo-0.9-1.x86_64")
	want := w.available("libfoo-1.2-1.x86_64")
	w.available("libfoo-1.2-1.i686")
	w.env.TS.AddInstall(app)

	res, msgs, _ := w.resolve(t)
	is.Equal(solver.ResultOK, res)
	is.Empty(msgs)
	is.Equal(2, w.env.TS.Len())
	m := w.env.TS.Member(want.PkgTup())
	if is.NotNil(m) {
		is.True(m.IsDep)
		is.Equal([]*pkg.Pkg{app}, m.RequiredBy)
		is.Equal(transaction.StateInstall, m.OutputState)
	}
}

func TestProviderUpdatesInstalled(t *testing.T) {
	is := assert.New(t)
	w := newWorld(t)
	old := w.installed("libfoo-1.0-1.x86_64", sack.ReasonDep)
	up := w.available("libfoo-1.1-1.x86_64")
	w.env.TS.AddInstall(w.available("app-1-1.x86_64").Requiring("libfoo >= 1.1"))

	res, _, _ := w.resolve(t)
	is.Equal(solver.ResultOK, res)
	is.NotNil(w.env.TS.MemberWithState(up.PkgTup(), transaction.StateUpdate))
	is.NotNil(w.env.TS.MemberWithState(old.PkgTup(), transaction.StateUpdated))
}

func TestMissingRequirement(t *testing.T) {
	is := assert.New(t)
	w := newWorld(t)
	app := w.available("app-1-1.x86_64").Requiring("nothere")
	w.env.TS.AddInstall(app)

	res, msgs, c := w.resolve(t)
	is.Equal(solver.ResultError, res)
	is.Equal([]string{"app-1-1.x86_64 requires nothere"}, msgs)
	if is.Len(c.Problems(), 1) {
		is.Equal(app, c.Problems()[0].Pkg)
		is.Nil(c.Problems()[0].Related)
	}
}

func TestEraseCascades(t *testing.T) {
	is := assert.New(t)
	w := newWorld(t)
	lib := w.installed("lib-1-1.x86_64", sack.ReasonDep)
	app := w.installed("app-1-1.x86_64", sack.ReasonUser).Requiring("lib")
	tool := w.installed("tool-1-1.x86_64", sack.ReasonUser).Requiring("app")
	w.env.TS.AddErase(lib)

	res, _, _ := w.resolve(t)
	is.Equal(solver.ResultOK, res)
	for _, p := range []*pkg.Pkg{app, tool} {
		m := w.env.TS.MemberWithState(p.PkgTup(), transaction.StateErase)
		if is.NotNil(m, p.String()) {
			is.True(m.IsDep)
		}
	}
}

func TestUpdateBreakingRequirer(t *testing.T) {
	setup := func(w *world) (*pkg.Pkg, *pkg.Pkg) {
		old := w.installed("lib-1-1.x86_64", sack.ReasonDep).Providing("lib(abi) = 1")
		w.installed("app-1-1.x86_64", sack.ReasonUser).Requiring("lib(abi) = 1")
		up := w.available("lib-2-1.x86_64").Providing("lib(abi) = 2")
		w.env.TS.AddUpdate(up, old)
		return old, up
	}

	t.Run("requirer updated along", func(t *testing.T) {
		is := assert.New(t)
		w := newWorld(t)
		setup(w)
		app2 := w.available("app-2-1.x86_64").Requiring("lib(abi) = 2")

		res, _, _ := w.resolve(t)
		is.Equal(solver.ResultOK, res)
		is.NotNil(w.env.TS.MemberWithState(app2.PkgTup(), transaction.StateUpdate))
	})

	t.Run("no newer requirer", func(t *testing.T) {
		is := assert.New(t)
		w := newWorld(t)
		_, up := setup(w)

		res, _, c := w.resolve(t)
		is.Equal(solver.ResultError, res)
		if is.Len(c.Problems(), 1) {
			is.Equal("app", c.Problems()[0].Pkg.Name)
			is.Equal(up, c.Problems()[0].Related)
		}
	})

	t.Run("skip broken drops the update", func(t *testing.T) {
		is := assert.New(t)
		w := newWorld(t)
		w.env.Config.SkipBroken = true
		_, up := setup(w)

		r, err := solver.NewResolver(w.env, New())
		require.NoError(t, err)
		res, _, err := r.BuildTransaction(context.Background())
		require.NoError(t, err)
		is.Equal(solver.ResultEmpty, res)
		is.Equal(0, w.env.TS.Len())
		is.Equal([]*pkg.Pkg{up}, r.Skipped())
		is.False(w.sack.Contains(up.PkgTup()))
	})
}

func TestConflicts(t *testing.T) {
	is := assert.New(t)
	w := newWorld(t)
	installed := w.installed("sendmail-8-1.x86_64", sack.ReasonUser)
	postfix := w.available("postfix-3-1.x86_64").Conflicting("sendmail")
	w.env.TS.AddInstall(postfix)

	res, _, c := w.resolve(t)
	is.Equal(solver.ResultError, res)
	if is.Len(c.Problems(), 1) {
		is.Equal(postfix, c.Problems()[0].Pkg)
		is.Equal(installed, c.Problems()[0].Related)
	}

	// removing sendmail in the same transaction settles it
	w.env.TS.AddErase(installed)
	w.env.TS.ResetResolved(true)
	res, _, _ = w.resolve(t)
	is.Equal(solver.ResultOK, res)
}

func TestResolverAutoremove(t *testing.T) {
	is := assert.New(t)
	w := newWorld(t)
	w.env.Config.CleanRequirementsOnRemove = true
	w.installed("a-1-1.x86_64", sack.ReasonUser)
	b := w.installed("b-1-1.x86_64", sack.ReasonDep)
	c := w.installed("c-1-1.x86_64", sack.ReasonUser).Requiring("b")
	w.rpmdb.InvalidateCaches()
	w.env.TS.AddErase(c)

	r, err := solver.NewResolver(w.env, New())
	require.NoError(t, err)
	res, _, err := r.BuildTransaction(context.Background())
	require.NoError(t, err)
	is.Equal(solver.ResultOK, res)
	is.NotNil(w.env.TS.MemberWithState(b.PkgTup(), transaction.StateErase))
	is.Equal(2, w.env.TS.Len())
	is.True(solver.Verify(w.env).Consistent)
}

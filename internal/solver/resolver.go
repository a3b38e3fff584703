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

package solver

import (
	"context"
	"time"

	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"github.com/rancher-sandbox/rpmtx/internal/config"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// PreResolveHook runs before the first dependency check.
type PreResolveHook func(ctx context.Context, env *Env) error

// PostResolveHook runs after the transaction is resolved. Changing the
// transaction makes the resolver check it once more.
type PostResolveHook func(ctx context.Context, env *Env, res Result, msgs []string) error

// Resolver turns a populated transaction into a checked one.
type Resolver struct {
	Env         *Env
	Checker     DependencyChecker
	PreResolve  PreResolveHook
	PostResolve PostResolveHook

	skipped map[pkg.PkgTup]*pkg.Pkg
}

// NewResolver snapshots the config of env, so that changes made to it while
// a resolution runs do not leak into it.
func NewResolver(env *Env, checker DependencyChecker) (*Resolver, error) {
	snap := &config.Config{}
	if err := copier.CopyWithOption(snap, env.Config, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "copying config")
	}
	e := *env
	e.Config = snap
	return &Resolver{
		Env:     &e,
		Checker: checker,
		skipped: map[pkg.PkgTup]*pkg.Pkg{},
	}, nil
}

// BuildTransaction resolves the dependencies of the transaction, applying
// the install-only limit, removing unneeded dependencies when configured and
// skipping broken packages when allowed. A resolved transaction is then
// checked against the multilib and protected package policies. Failures to
// resolve are reported through the result and messages; the error is only
// set when resolution could not run.
func (r *Resolver) BuildTransaction(ctx context.Context) (Result, []string, error) {
	env := r.Env
	start := time.Now()
	defer func() {
		resolveDuration.Observe(time.Since(start).Seconds())
	}()

	if r.PreResolve != nil {
		if err := r.PreResolve(ctx, env); err != nil {
			return ResultError, nil, errors.Wrap(err, "pre-resolve hook")
		}
	}

	res, msgs, err := r.resolve(ctx)
	if err != nil {
		return res, msgs, err
	}

	if r.PostResolve != nil {
		env.TS.Changed = false
		if err := r.PostResolve(ctx, env, res, msgs); err != nil {
			return ResultError, nil, errors.Wrap(err, "post-resolve hook")
		}
		if env.TS.Changed {
			env.Logger.Debugf("transaction changed by post-resolve hook, resolving again")
			res, msgs, err = r.resolve(ctx)
			if err != nil {
				return res, msgs, err
			}
		}
	}
	env.Sack.InvalidateCaches()

	if res == ResultOK {
		bad := append(CheckMultilib(env), CheckProtected(env)...)
		if len(bad) > 0 {
			res, msgs = ResultError, bad
		}
	}

	if res == ResultOK {
		r.applyProbFilters()
		if env.TS.CheckFutureRPMDBVersion {
			pinned := env.TS.FutureRPMDBVersion()
			env.TS.SetFutureRPMDBVersion("")
			if now := env.TS.FutureRPMDBVersion(); now != pinned {
				env.Logger.Warnf("future rpmdb version mismatch: saved %s, resolved %s", pinned, now)
			}
			env.TS.SetFutureRPMDBVersion(pinned)
		}
		env.TS.Changed = false
	}
	resolveResultTotal.WithLabelValues(res.String()).Inc()
	return res, msgs, nil
}

func (r *Resolver) resolve(ctx context.Context) (Result, []string, error) {
	env := r.Env
	res, msgs, err := r.check(ctx)
	if err != nil {
		return res, msgs, err
	}

	added := len(LimitInstallOnly(env))
	if env.Config.CleanRequirementsOnRemove {
		added += len(PruneLeaves(env))
	}
	if added > 0 && res != ResultError {
		if res, msgs, err = r.check(ctx); err != nil {
			return res, msgs, err
		}
	}

	if res == ResultError && env.Config.SkipBroken {
		sb := NewSkipBroken(env, r.Checker)
		res, msgs, err = sb.Run(ctx, res, msgs)
		if err != nil {
			return res, msgs, err
		}
		for _, p := range sb.Skipped() {
			r.skipped[p.PkgTup()] = p
		}
	}
	return res, msgs, nil
}

func (r *Resolver) check(ctx context.Context) (Result, []string, error) {
	resolvePassesTotal.Inc()
	res, msgs, err := r.Checker.ResolveDeps(ctx, r.Env)
	if err != nil {
		return ResultError, nil, errors.Wrap(err, "checking dependencies")
	}
	r.Env.Logger.Debugf("dependency check: %s, %d members", res, r.Env.TS.Len())
	return res, msgs, nil
}

// applyProbFilters enables the problem filters rpm needs for downgrades and
// reinstalls in the resolved transaction.
func (r *Resolver) applyProbFilters() {
	for _, m := range r.Env.TS.Members() {
		if m.Process == transaction.ProcessDowngrade {
			r.Env.TS.AddProbFilter(transaction.ProbFilterOldPackage)
		}
		if m.Reinstall && m.IsInstall() {
			r.Env.TS.AddProbFilter(transaction.ProbFilterReplacePkg)
		}
	}
}

// Skipped returns the packages skip-broken dropped, sorted.
func (r *Resolver) Skipped() []*pkg.Pkg {
	ret := make([]*pkg.Pkg, 0, len(r.skipped))
	for _, p := range r.skipped {
		ret = append(ret, p)
	}
	sack.SortPkgs(ret)
	return ret
}

// SkippedMessages describes the skipped packages with their repository.
func (r *Resolver) SkippedMessages() []string {
	return formatSkipped(r.Skipped())
}

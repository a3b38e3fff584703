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
	"io"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"github.com/rancher-sandbox/rpmtx/internal/config"
	"github.com/rancher-sandbox/rpmtx/internal/depcheck"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// Configuration owns the resolution context every action works on: the
// sacks of the world, the transaction, the policy and the dependency
// checker.
type Configuration struct {
	Env     *solver.Env
	Checker solver.DependencyChecker
	World   *World

	// Hooks handed to the resolver.
	PreResolve  solver.PreResolveHook
	PostResolve solver.PostResolveHook
}

// NewConfiguration builds the resolution context over w. The world's arch,
// when set, overrides the configured one.
func NewConfiguration(w *World, cfg *config.Config, logger log.Logger) (*Configuration, error) {
	if w.Arch != "" && w.Arch != cfg.Arch {
		cfg.Arch = w.Arch
		if err := cfg.Validate(); err != nil {
			return nil, errors.Wrap(err, "world arch")
		}
	}
	if len(cfg.Exclude) > 0 {
		w.Sack.AddExclude(cfg.Exclude...)
	}
	if len(cfg.IncludeOnly) > 0 {
		w.Sack.SetIncludeOnly(cfg.IncludeOnly...)
	}

	env, err := solver.NewEnv(w.Sack, w.RPMDB, cfg, logger)
	if err != nil {
		return nil, err
	}
	for required, pkgs := range w.Conditionals {
		for _, p := range pkgs {
			env.TS.AddConditional(required, p)
		}
	}
	return &Configuration{
		Env:     env,
		Checker: depcheck.New(),
		World:   w,
	}, nil
}

// Resolve runs the resolver over the transaction the actions built.
func (c *Configuration) Resolve(ctx context.Context) (*solver.Resolver, solver.Result, []string, error) {
	r, err := solver.NewResolver(c.Env, c.Checker)
	if err != nil {
		return nil, solver.ResultError, nil, err
	}
	r.PreResolve = c.PreResolve
	r.PostResolve = c.PostResolve
	res, msgs, err := r.BuildTransaction(ctx)
	return r, res, msgs, err
}

// SaveTransaction writes the transaction to w for a later LoadTransaction.
func (c *Configuration) SaveTransaction(w io.Writer) error {
	return c.Env.TS.Save(w)
}

// LoadTransaction replaces the transaction with the one saved in r.
func (c *Configuration) LoadTransaction(r io.Reader, opts transaction.LoadOptions) error {
	ts, err := transaction.Load(r, c.Env.Sack, c.Env.RPMDB, c.Env.Logger, opts)
	if err != nil {
		return err
	}
	c.Env.TS = ts
	return nil
}

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

	"github.com/Masterminds/log-go"
	"github.com/rancher-sandbox/rpmtx/internal/arch"
	"github.com/rancher-sandbox/rpmtx/internal/config"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
	"github.com/rancher-sandbox/rpmtx/internal/sack"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// Env is the resolution context handed to every step: the package sacks,
// the transaction being built, the policy and a logger. Nothing in the
// resolver reaches for globals.
type Env struct {
	Sack   sack.PackageSack
	RPMDB  sack.RPMDB
	TS     *transaction.Info
	Config *config.Config
	Arch   arch.Policy
	Logger log.Logger
}

// NewEnv builds a context over the given sacks with a fresh transaction.
func NewEnv(s sack.PackageSack, db sack.RPMDB, cfg *config.Config, logger log.Logger) (*Env, error) {
	if logger == nil {
		logger = log.Current
	}
	a, err := arch.NewDefault(cfg.Arch)
	if err != nil {
		return nil, err
	}
	ts := transaction.New(logger)
	ts.SetDatabases(s, db)
	return &Env{
		Sack:   s,
		RPMDB:  db,
		TS:     ts,
		Config: cfg,
		Arch:   a,
		Logger: logger,
	}, nil
}

// AllowedMultipleInstalls reports whether p is an install-only package,
// either by name or by providing an install-only name.
func (e *Env) AllowedMultipleInstalls(p *pkg.Pkg) bool {
	if e.Config.IsInstallOnly(p.Name) {
		return true
	}
	for _, prov := range p.Provides {
		if e.Config.IsInstallOnly(prov.Name) {
			return true
		}
	}
	return false
}

// Result is the outcome code of a dependency check or resolution.
type Result int

const (
	// ResultEmpty means there is nothing to do.
	ResultEmpty Result = iota
	// ResultError means the transaction cannot be satisfied.
	ResultError
	// ResultOK means the transaction is resolved and has pending work.
	ResultOK
)

func (r Result) String() string {
	switch r {
	case ResultEmpty:
		return "empty"
	case ResultError:
		return "error"
	case ResultOK:
		return "ok"
	}
	return "unknown"
}

// Problem is one unsatisfied requirement or conflict: Pkg has the problem,
// Related is the package it involves, if any.
type Problem struct {
	Pkg     *pkg.Pkg
	Related *pkg.Pkg
	Message string
}

// DependencyChecker validates the transaction of env. It may add members to
// satisfy requirements. When it returns ResultError, Problems describes why.
type DependencyChecker interface {
	ResolveDeps(ctx context.Context, env *Env) (Result, []string, error)
	Problems() []Problem
}

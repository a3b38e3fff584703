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
	"fmt"

	"github.com/crillab/gophersat/maxsat"
	pkg "github.com/rancher-sandbox/rpmtx/internal/package"
)

// Verification is the outcome of Verify.
type Verification struct {
	// Consistent is set when every package of the final system can stay.
	Consistent bool
	// MinRemovals is the smallest number of packages that would have to go
	// for the final system to be consistent.
	MinRemovals int
	// Problems lists the unsatisfied requirements and conflicts found.
	Problems []string
}

// Verify encodes the system the transaction leaves behind as a MaxSAT
// problem: every final package is a soft clause asking for it to stay, its
// requirements and conflicts are hard clauses. A zero cost optimum means the
// final system is consistent.
func Verify(env *Env) Verification {
	final := env.TS.FinalPackages()
	v := Verification{Problems: []string{}}
	constrs := []maxsat.Constr{}

	for _, p := range final {
		fp := p.GetFingerPrint()
		constrs = append(constrs, maxsat.SoftClause(maxsat.Var(fp)))
		constrs = append(constrs, requiresConstraints(p, final, &v)...)

		for _, q := range final {
			if q == p || q.GetFingerPrint() <= fp {
				continue
			}
			if p.ConflictsWith(q) || q.ConflictsWith(p) {
				v.Problems = append(v.Problems, fmt.Sprintf("%s conflicts with %s", p, q))
				constrs = append(constrs, maxsat.HardClause(maxsat.Not(fp), maxsat.Not(q.GetFingerPrint())))
			}
		}
	}

	if len(constrs) == 0 {
		v.Consistent = true
		return v
	}
	problem := maxsat.New(constrs...)
	result := problem.Solver().Optimal(nil, nil)
	if result.Status.String() == "SAT" {
		v.MinRemovals = result.Weight
		v.Consistent = result.Weight == 0
	}
	env.Logger.Debugf("verify: %d packages, %d constraints, %d removals needed", len(final), len(constrs), v.MinRemovals)
	return v
}

// requiresConstraints builds, for each requirement of p, the clause "p is
// absent or one of its providers is present".
func requiresConstraints(p *pkg.Pkg, final []*pkg.Pkg, v *Verification) []maxsat.Constr {
	constrs := []maxsat.Constr{}
	fp := p.GetFingerPrint()
	for _, req := range p.Requires {
		if p.ProvidesFor(req) {
			continue
		}
		lits := []maxsat.Lit{maxsat.Not(fp)}
		for _, q := range final {
			if q != p && q.ProvidesFor(req) {
				lits = append(lits, maxsat.Var(q.GetFingerPrint()))
			}
		}
		if len(lits) == 1 {
			v.Problems = append(v.Problems, fmt.Sprintf("%s requires %s", p, req))
		}
		constrs = append(constrs, maxsat.HardClause(lits...))
	}
	return constrs
}

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

	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// Autoremove removes dependencies nothing needs anymore.
type Autoremove struct {
	Config *Configuration
}

// NewAutoremove creates a new Autoremove object with the given configuration.
func NewAutoremove(cfg *Configuration) *Autoremove {
	return &Autoremove{Config: cfg}
}

// Run removes the packages the selectors match and turns on the cleaning of
// requirements on remove, so the resolver takes their unneeded dependencies
// along. With no selector it removes every installed dependency left
// without a user installed package needing it.
func (a *Autoremove) Run(ctx context.Context, sels ...Selector) ([]*transaction.Member, error) {
	c := a.Config
	env := c.Env
	env.Config.CleanRequirementsOnRemove = true

	if len(sels) > 0 {
		return NewRemove(c).Run(ctx, sels...)
	}

	ret := []*transaction.Member{}
	for _, p := range solver.Leaves(env) {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		env.Logger.Debugf("autoremove: %s is not needed", p)
		m := env.TS.AddErase(p)
		m.IsDep = true
		ret = append(ret, m)
	}
	if len(ret) == 0 {
		env.Logger.Info("No unneeded packages to remove")
	}
	return ret, nil
}

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

	"github.com/rancher-sandbox/rpmtx/internal/transaction"
)

// Remove marks installed packages for removal.
type Remove struct {
	Config *Configuration
}

// NewRemove creates a new Remove object with the given configuration.
func NewRemove(cfg *Configuration) *Remove {
	return &Remove{Config: cfg}
}

// Run erases every installed package the selectors match. Protected
// packages are let through here and refused by the resolver.
func (r *Remove) Run(ctx context.Context, sels ...Selector) ([]*transaction.Member, error) {
	c := r.Config
	ret := []*transaction.Member{}
	for _, sel := range sels {
		if err := ctx.Err(); err != nil {
			return ret, err
		}
		found := c.installed(sel)
		if len(found) == 0 {
			if err := c.noMatch("remove", sel); err != nil {
				return ret, err
			}
			continue
		}
		for _, ip := range found {
			ret = append(ret, c.Env.TS.AddErase(ip))
		}
	}
	return ret, nil
}

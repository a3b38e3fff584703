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

package main

import (
	"context"
	"io"

	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/rancher-sandbox/rpmtx/pkg/action"
	"github.com/spf13/cobra"
)

const autoremoveDesc = `
This command removes the packages that were installed as dependencies and
are no longer required by anything. Packages named as arguments are removed
first, then the dependencies they leave unneeded.
`

func newAutoremoveCmd(out io.Writer, o *txOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoremove [PACKAGE...]",
		Short: "remove unneeded dependencies",
		Long:  autoremoveDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransaction(cmd.Context(), out, o, func(ctx context.Context, c *action.Configuration) ([]*transaction.Member, error) {
				return action.NewAutoremove(c).Run(ctx, action.ParseSelectors(args)...)
			})
		},
	}
	return cmd
}

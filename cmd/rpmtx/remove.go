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
	"github.com/rancher-sandbox/rpmtx/pkg/eyecandy"
	"github.com/spf13/cobra"
)

const removeDesc = `
This command removes installed packages, together with the installed packages
requiring them. Protected packages cannot be removed.
`

func newRemoveCmd(out io.Writer, o *txOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove PACKAGE...",
		Aliases: []string{"erase", "uninstall"},
		Short:   "remove packages",
		Long:    removeDesc,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransaction(cmd.Context(), out, o, func(ctx context.Context, c *action.Configuration) ([]*transaction.Member, error) {
				for _, a := range args {
					c.Env.Logger.Debug(eyecandy.ESPrintf(settings.NoEmojis, ":fire: removing %s", a))
				}
				return action.NewRemove(c).Run(ctx, action.ParseSelectors(args)...)
			})
		},
	}
	return cmd
}

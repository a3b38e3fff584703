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

const installDesc = `
This command installs packages and whatever they require.

A package is named by a pattern (name, name.arch, name-version,
name-version-release.arch, with shell globs), by a full
name-epoch:version-release.arch tuple or by the path of a local .rpm file
listed in the world file.

An available package obsoleted by another one is replaced by its obsoleter.
When several architectures match, the multilib policy picks which ones are
installed. Installing a newer version of an installed package updates it.
`

func newInstallCmd(out io.Writer, o *txOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install PACKAGE...",
		Short: "install packages",
		Long:  installDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransaction(cmd.Context(), out, o, func(ctx context.Context, c *action.Configuration) ([]*transaction.Member, error) {
				return action.NewInstall(c).Run(ctx, action.ParseSelectors(args)...)
			})
		},
	}
	return cmd
}

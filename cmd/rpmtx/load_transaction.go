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
	"os"

	"github.com/pkg/errors"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/rancher-sandbox/rpmtx/pkg/action"
	"github.com/spf13/cobra"
)

const loadTransactionDesc = `
This command loads a transaction saved with --save and resolves it again
against the world file.

Loading fails when the installed packages changed since the transaction was
saved, unless --ignore-rpmdb-change is given, or when the transaction names
packages the world does not know about.
`

func newLoadTransactionCmd(out io.Writer, o *txOptions) *cobra.Command {
	opts := transaction.LoadOptions{}

	cmd := &cobra.Command{
		Use:     "load-transaction FILE",
		Aliases: []string{"load-ts"},
		Short:   "resolve a saved transaction",
		Long:    loadTransactionDesc,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransaction(cmd.Context(), out, o, func(ctx context.Context, c *action.Configuration) ([]*transaction.Member, error) {
				f, err := os.Open(args[0])
				if err != nil {
					return nil, errors.Wrap(err, "loading transaction")
				}
				defer f.Close()
				if err := c.LoadTransaction(f, opts); err != nil {
					return nil, err
				}
				return c.Env.TS.Members(), nil
			})
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.IgnoreRPMDBChange, "ignore-rpmdb-change", false, "load the transaction even if the installed packages changed")
	return cmd
}

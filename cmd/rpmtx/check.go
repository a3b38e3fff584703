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
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/pkg/eyecandy"
	"github.com/spf13/cobra"
)

const checkDesc = `
This command checks that the installed packages of the world satisfy each
other's requirements and do not conflict. It reports how many packages would
have to go for the system to be consistent.
`

func newCheckCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "check the consistency of the installed packages",
		Long:  checkDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(out)
			unlock, err := lock(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer unlock()

			c, err := setup(cmd.Context(), logger)
			if err != nil {
				return err
			}
			v := solver.Verify(c.Env)
			for _, p := range v.Problems {
				fmt.Fprintln(out, p)
			}
			if !v.Consistent {
				return errors.Errorf("%d installed packages would have to be removed", v.MinRemovals)
			}
			logger.Info(eyecandy.ESPrint(settings.NoEmojis, ":white_check_mark: installed packages are consistent"))
			return nil
		},
	}
	return cmd
}

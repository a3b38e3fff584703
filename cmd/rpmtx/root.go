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
	"errors"
	"io"
	"os"

	"github.com/Masterminds/log-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

var globalUsage = `Usage: rpmtx command

Resolves rpm transactions the way yum does: selections are recorded in a
transaction, dependencies are pulled in or removed, and packages that break
the transaction may be skipped.

The installed and available packages are described by a world file:

  arch: x86_64
  installed:
    - nevra: bash-5.1-2.x86_64
  repos:
    - id: base
      packages:
        - nevra: bash-5.2-1.x86_64
`

func newRootCmd(out io.Writer, args []string) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:           "rpmtx",
		Short:         "A yum transaction resolver",
		Long:          globalUsage,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	settings.AddFlags(flags)
	opts := &txOptions{}
	bindOutputFlag(cmd, &opts.output)
	flags.StringVar(&opts.save, "save", "", "save the resolved transaction to this file")
	flags.BoolVar(&opts.skipBroken, "skip-broken", false, "skip packages with dependency problems instead of failing")

	cmd.AddCommand(
		newInstallCmd(out, opts),
		newUpdateCmd(out, opts),
		newRemoveCmd(out, opts),
		newDowngradeCmd(out, opts),
		newReinstallCmd(out, opts),
		newAutoremoveCmd(out, opts),
		newLoadTransactionCmd(out, opts),
		newCheckCmd(out),
		newVersionCmd(out),
	)

	flags.ParseErrorsWhitelist.UnknownFlags = true
	err := flags.Parse(args)

	if err != nil && !errors.Is(err, pflag.ErrHelp) {
		log.Errorf("failed while parsing flags for %s: %s", args, err)

		os.Exit(1)
	}

	if settings.NoColors || !isTerminal(out) {
		color.NoColor = true // disable colorized output
	}

	return cmd, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

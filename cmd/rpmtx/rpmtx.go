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
	"log"
	"os"

	golog "github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	loglogrus "github.com/Masterminds/log-go/impl/logrus"
	"github.com/fatih/color"
	"github.com/rancher-sandbox/rpmtx/pkg/cli"
	"github.com/sirupsen/logrus"
)

var settings = cli.New()

var blue = color.New(color.FgBlue).SprintFunc()
var magenta = color.New(color.FgMagenta).SprintFunc()

func debug(format string, v ...interface{}) {
	if settings.Debug {
		format = fmt.Sprintf("[debug] %s\n", magenta(format))
		_ = log.Output(2, fmt.Sprintf(format, v...))
	}
}

// newLogger returns the logger commands report through, writing to out in
// the format the settings ask for.
func newLogger(out io.Writer) golog.Logger {
	if settings.LogFormat == "json" {
		l := logrus.New()
		l.SetOutput(out)
		l.SetFormatter(&logrus.JSONFormatter{})
		if settings.Debug {
			l.SetLevel(logrus.DebugLevel)
		}
		return loglogrus.New(l)
	}

	logger := logcli.NewStandard()
	logger.InfoOut = out
	logger.WarnOut = out
	logger.ErrorOut = out
	logger.DebugOut = out
	if settings.Debug {
		logger.Level = golog.DebugLevel
	}
	return logger
}

func main() {
	cmd, err := newRootCmd(os.Stdout, os.Args[1:])
	if err != nil {
		debug("%v", err)
		os.Exit(1)
	}

	if err := cmd.Execute(); err != nil {
		debug("%+v", err)
		os.Exit(1)
	}
}

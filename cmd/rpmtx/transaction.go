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

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rancher-sandbox/rpmtx/internal/config"
	"github.com/rancher-sandbox/rpmtx/internal/solver"
	"github.com/rancher-sandbox/rpmtx/internal/transaction"
	"github.com/rancher-sandbox/rpmtx/pkg/action"
	"github.com/rancher-sandbox/rpmtx/pkg/eyecandy"
	"github.com/rancher-sandbox/rpmtx/pkg/rpmdblock"
	"github.com/rancher-sandbox/rpmtx/pkg/rpmtxpath"
)

// txOptions are the flags shared by the commands building a transaction.
type txOptions struct {
	output     solver.OutputMode
	save       string
	skipBroken bool
}

// mutator records the user's selection in the transaction of c.
type mutator func(ctx context.Context, c *action.Configuration) ([]*transaction.Member, error)

// errResolve is returned when the transaction cannot be resolved. The
// problems were already printed with the report.
var errResolve = errors.New("dependency resolution failed")

// setup loads the configuration and the world the settings point at.
func setup(ctx context.Context, logger log.Logger) (*action.Configuration, error) {
	if settings.WorldFile == "" {
		return nil, errors.New("no world file given, use --world or RPMTX_WORLD")
	}
	path := settings.ConfigFile
	if path == "" {
		path = rpmtxpath.DefaultConfigFile()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	w, err := action.LoadWorld(ctx, settings.WorldFile, logger)
	if err != nil {
		return nil, err
	}
	return action.NewConfiguration(w, cfg, logger)
}

// lock takes the rpmdb lock and returns its release function.
func lock(ctx context.Context, logger log.Logger) (func(), error) {
	l := rpmdblock.New(settings.LockFile)
	logger.Debugf("waiting for lock %s", l.Path())
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := l.Unlock(); err != nil {
			logger.Warn(err)
		}
	}, nil
}

// runTransaction applies mutate to the world, resolves the transaction and
// prints the report.
func runTransaction(ctx context.Context, out io.Writer, o *txOptions, mutate mutator) error {
	logger := newLogger(out)

	unlock, err := lock(ctx, logger)
	if err != nil {
		return err
	}
	defer unlock()

	c, err := setup(ctx, logger)
	if err != nil {
		return err
	}
	if o.skipBroken {
		c.Env.Config.SkipBroken = true
	}
	added, err := mutate(ctx, c)
	if err != nil {
		return err
	}
	logger.Debugf("selection added %d members", len(added))

	r, res, msgs, err := c.Resolve(ctx)
	if err != nil {
		return err
	}
	writeMetrics(logger)

	if err := writeReport(out, r.NewReport(res, msgs), o.output); err != nil {
		return err
	}
	switch res {
	case solver.ResultError:
		return errResolve
	case solver.ResultEmpty:
		logger.Info(eyecandy.ESPrint(settings.NoEmojis, ":zzz: Nothing to do."))
		return nil
	}

	if o.save != "" {
		if err := saveTransaction(c, o.save); err != nil {
			return err
		}
		logger.Infof("Transaction saved to %s", o.save)
	}
	logger.Info(eyecandy.ESPrint(settings.NoEmojis, "Done! :clapping_hands:"))
	return nil
}

func saveTransaction(c *action.Configuration, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "saving transaction")
	}
	if err := c.SaveTransaction(f); err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "saving transaction")
}

// writeMetrics dumps the resolver metrics for the node_exporter textfile
// collector, when asked to.
func writeMetrics(logger log.Logger) {
	if settings.MetricsTextfile == "" {
		return
	}
	if err := prometheus.WriteToTextfile(settings.MetricsTextfile, solver.Registry); err != nil {
		logger.Warnf("writing metrics: %s", err)
	}
}

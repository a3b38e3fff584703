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

package solver

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the resolver metrics. The CLI dumps it as a textfile for
// node_exporter.
var Registry = prometheus.NewRegistry()

var (
	resolvePassesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rpmtx_resolver_passes_total",
			Help: "Number of dependency checker passes.",
		},
	)
	resolveResultTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpmtx_resolver_result_total",
			Help: "Number of resolutions by result.",
		},
		[]string{"result"},
	)
	skipBrokenRoundsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rpmtx_skipbroken_rounds_total",
			Help: "Number of skip-broken rounds.",
		},
	)
	skippedPackagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rpmtx_skipbroken_skipped_packages_total",
			Help: "Number of packages skipped because of dependency problems.",
		},
	)
	leafRemovalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rpmtx_autoremove_leaves_total",
			Help: "Number of unneeded dependencies queued for removal.",
		},
	)
	resolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rpmtx_resolver_duration_seconds",
			Help:    "Time taken to build a transaction.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	Registry.MustRegister(
		resolvePassesTotal,
		resolveResultTotal,
		skipBrokenRoundsTotal,
		skippedPackagesTotal,
		leafRemovalsTotal,
		resolveDuration,
	)
}

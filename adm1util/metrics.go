/*
Copyright © 2019 the adm1char authors.
This file is part of adm1char.

adm1char is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

adm1char is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with adm1char.  If not, see <http://www.gnu.org/licenses/>.
*/

package adm1util

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spatialmodel/adm1char"
)

// Metrics holds batch conversion counters.
type Metrics struct {
	Registry *prometheus.Registry

	Samples     prometheus.Counter
	Conversions prometheus.Counter
	Faults      *prometheus.CounterVec
	Duration    prometheus.Histogram
}

// NewMetrics creates a set of batch metrics in a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Samples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adm1char_samples_total",
			Help: "Number of samples submitted for conversion.",
		}),
		Conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "adm1char_conversions_total",
			Help: "Number of conversions calculated, after removing duplicate samples.",
		}),
		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adm1char_faults_total",
			Help: "Number of samples that failed their checks, by kind of fault.",
		}, []string{"kind"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "adm1char_batch_seconds",
			Help:    "Batch conversion wall time.",
			Buckets: prometheus.ExponentialBuckets(0.001, 10, 6),
		}),
	}
	m.Registry.MustRegister(m.Samples, m.Conversions, m.Faults, m.Duration)
	return m
}

// WriteToTextfile writes the metrics in the Prometheus text format,
// for use with the node exporter textfile collector.
func (m *Metrics) WriteToTextfile(fileName string) error {
	if err := prometheus.WriteToTextfile(fileName, m.Registry); err != nil {
		return fmt.Errorf("adm1util: writing metrics: %v", err)
	}
	return nil
}

var faultKinds = []struct {
	err  error
	kind string
}{
	{adm1char.ErrZeroTOC, "zero_toc"},
	{adm1char.ErrNegativeMeasurement, "negative_measurement"},
	{adm1char.ErrNoGas, "no_gas"},
	{adm1char.ErrNonPhysicalAlkalinity, "alkalinity"},
	{adm1char.ErrNonPositiveHydrogen, "hydrogen"},
	{adm1char.ErrNonFinite, "non_finite"},
}

// faultKind returns the metric label for a fault.
func faultKind(err error) string {
	for _, k := range faultKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}

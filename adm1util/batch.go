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
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/adm1char"
	"github.com/spatialmodel/adm1char/internal/hash"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SampleResult is the outcome of converting one sample.
type SampleResult struct {
	Sample
	Result  *adm1char.Result
	Outputs map[string]float64

	// Fault is set in strict mode if the sample or its result
	// failed the checks.
	Fault error
}

// Batch converts samples using up to numWorkers concurrent workers
// (GOMAXPROCS if numWorkers < 1). Identical measurements are only
// converted once. Results are returned in the same order as samples.
//
// In strict mode, samples that fail their checks are logged and
// counted, and have Fault set; they do not stop the batch.
// m may be nil.
func Batch(ctx context.Context, log logrus.FieldLogger, c adm1char.Characterizer, samples []Sample, numWorkers int, strict bool, o *adm1char.Outputter, m *Metrics) ([]*SampleResult, error) {
	start := time.Now()
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(-1)
	}
	if m == nil {
		m = NewMetrics()
	}

	// The processor must not fail: Deduplicate only releases waiting
	// duplicates after a successful request. Memory comes first so that
	// the result is stored before the duplicates are released.
	cache := requestcache.NewCache(func(_ context.Context, req interface{}) (interface{}, error) {
		m.Conversions.Inc()
		return c.Characterize(req.(adm1char.Measurement)), nil
	}, numWorkers, requestcache.Memory(len(samples)), requestcache.Deduplicate())

	results := make([]*SampleResult, len(samples))
	errs := make([]error, len(samples))
	var wg sync.WaitGroup
	wg.Add(len(samples))
	for i, s := range samples {
		m.Samples.Inc()
		go func(i int, s Sample) {
			defer wg.Done()
			results[i], errs[i] = convertSample(ctx, cache, s, strict, o)
		}(i, s)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var faults int
	for _, r := range results {
		if r.Fault != nil {
			faults++
			m.Faults.WithLabelValues(faultKind(r.Fault)).Inc()
			log.WithError(r.Fault).WithField("sample", r.Name).Warn("sample failed checks")
		}
	}
	d := time.Since(start)
	m.Duration.Observe(d.Seconds())
	log.WithFields(logrus.Fields{
		"samples":    len(samples),
		"duplicates": len(samples) - uniqueSamples(samples),
		"faults":     faults,
		"workers":    numWorkers,
		"duration":   d,
	}).Info("batch conversion finished")
	return results, nil
}

// convertSample converts one sample through the cache. The cached
// Result may be shared between identical samples and must not be
// modified.
func convertSample(ctx context.Context, cache *requestcache.Cache, s Sample, strict bool, o *adm1char.Outputter) (*SampleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sr := &SampleResult{Sample: s}
	if strict {
		if sr.Fault = s.Measurement.Check(); sr.Fault != nil {
			return sr, nil
		}
	}
	req := cache.NewRequest(ctx, s.Measurement, measurementKey(s.Measurement))
	res, err := req.Result()
	if err != nil {
		return nil, err
	}
	sr.Result = res.(*adm1char.Result)
	if strict {
		if sr.Fault = sr.Result.Check(); sr.Fault != nil {
			return sr, nil
		}
	}
	if o != nil {
		if sr.Outputs, err = o.Evaluate(sr.Result); err != nil {
			if !strict {
				return nil, err
			}
			sr.Fault = err
		}
	}
	return sr, nil
}

// measurementKey returns the cache key for a measurement.
func measurementKey(m adm1char.Measurement) string {
	return hash.Hash(m)
}

func uniqueSamples(samples []Sample) int {
	keys := make(map[string]struct{})
	for _, s := range samples {
		keys[measurementKey(s.Measurement)] = struct{}{}
	}
	return len(keys)
}

// Summary holds statistics of one variable over a batch.
type Summary struct {
	Name                string
	N                   int
	Mean, Std, Min, Max float64
}

// Summarize calculates statistics of each state variable and derived
// output over the results without a fault. Non-finite values are
// skipped.
func Summarize(results []*SampleResult, outputNames []string) []Summary {
	names := resultsHeader(outputNames)[1:]
	vals := make([][]float64, len(names))
	for _, r := range results {
		if r.Fault != nil || r.Result == nil {
			continue
		}
		for i, v := range resultsRow(r, outputNames) {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals[i] = append(vals[i], v)
			}
		}
	}
	var o []Summary
	for i, v := range vals {
		if len(v) == 0 {
			continue
		}
		s := Summary{Name: names[i], N: len(v), Min: floats.Min(v), Max: floats.Max(v)}
		if len(v) == 1 {
			s.Mean = v[0]
		} else {
			s.Mean, s.Std = stat.MeanStdDev(v, nil)
		}
		o = append(o, s)
	}
	return o
}

// ClosureError returns the largest deviation from one of the sum of
// the molar fractions over the results.
func ClosureError(results []*SampleResult) float64 {
	var e float64
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		if d := math.Abs(floats.Sum(r.Result.Fractions.Slice()) - 1); d > e {
			e = d
		}
	}
	return e
}

// logSummary logs batch statistics.
func logSummary(log logrus.FieldLogger, results []*SampleResult, outputNames []string) {
	for _, s := range Summarize(results, outputNames) {
		log.WithFields(logrus.Fields{
			"variable": s.Name,
			"n":        s.N,
			"mean":     s.Mean,
			"std":      s.Std,
			"min":      s.Min,
			"max":      s.Max,
		}).Info("summary")
	}
	log.WithField("closure_error", ClosureError(results)).Debug("molar fraction closure")
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metercacher

import (
	"errors"

	"github.com/luxfi/metric"
)

const (
	resultLabel = "result"
	hitResult   = "hit"
	missResult  = "miss"
	errorResult = "error"

	setKindLabel = "kind"
)

var (
	resultLabels = []string{resultLabel}
	hitLabels    = metric.Labels{resultLabel: hitResult}
	missLabels   = metric.Labels{resultLabel: missResult}
	errorLabels  = metric.Labels{resultLabel: errorResult}
	okLabels     = metric.Labels{resultLabel: "ok"}

	foundLabels   = metric.Labels{resultLabel: "found"}
	missingLabels = metric.Labels{resultLabel: "missing"}

	plainLabels        = metric.Labels{setKindLabel: "plain"}
	invalidationLabels = metric.Labels{setKindLabel: "invalidation"}
	refreshLabels      = metric.Labels{setKindLabel: "refresh"}
)

type cacheMetrics struct {
	getCount    metric.CounterVec
	getTime     metric.CounterVec
	setCount    metric.CounterVec
	setTime     metric.Counter
	removeCount metric.CounterVec
	sweepCount  metric.CounterVec
	sweepTime   metric.Counter
	len         metric.Gauge
}

func newMetrics(namespace string, reg metric.Registry) (*cacheMetrics, error) {
	m := &cacheMetrics{
		getCount: metric.NewCounterVec(
			metric.CounterOpts{
				Namespace: namespace,
				Name:      "get_count",
				Help:      "number of get calls",
			},
			resultLabels,
		),
		getTime: metric.NewCounterVec(
			metric.CounterOpts{
				Namespace: namespace,
				Name:      "get_time",
				Help:      "time spent (ns) in get calls",
			},
			resultLabels,
		),
		setCount: metric.NewCounterVec(
			metric.CounterOpts{
				Namespace: namespace,
				Name:      "set_count",
				Help:      "number of set calls",
			},
			[]string{setKindLabel},
		),
		setTime: metric.NewCounter(metric.CounterOpts{
			Namespace: namespace,
			Name:      "set_time",
			Help:      "time spent (ns) in set calls",
		}),
		removeCount: metric.NewCounterVec(
			metric.CounterOpts{
				Namespace: namespace,
				Name:      "remove_count",
				Help:      "number of remove calls",
			},
			resultLabels,
		),
		sweepCount: metric.NewCounterVec(
			metric.CounterOpts{
				Namespace: namespace,
				Name:      "sweep_count",
				Help:      "number of invalidation sweeps",
			},
			resultLabels,
		),
		sweepTime: metric.NewCounter(metric.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_time",
			Help:      "time spent (ns) in invalidation sweeps",
		}),
		len: metric.NewGauge(metric.GaugeOpts{
			Namespace: namespace,
			Name:      "len",
			Help:      "number of entries",
		}),
	}
	err := errors.Join(
		reg.Register(metric.AsCollector(m.getCount)),
		reg.Register(metric.AsCollector(m.getTime)),
		reg.Register(metric.AsCollector(m.setCount)),
		reg.Register(metric.AsCollector(m.setTime)),
		reg.Register(metric.AsCollector(m.removeCount)),
		reg.Register(metric.AsCollector(m.sweepCount)),
		reg.Register(metric.AsCollector(m.sweepTime)),
		reg.Register(metric.AsCollector(m.len)),
	)
	return m, err
}

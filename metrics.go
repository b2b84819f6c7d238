package lumed

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	effectSwitches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lumed",
		Name:      "effect_switches_total",
		Help:      "Number of times an effect was (re)started, by effect.",
	}, []string{"effect"})

	framesFlushed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lumed",
		Name:      "frames_flushed_total",
		Help:      "Number of frames written to the LED strip.",
	})

	flushErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lumed",
		Name:      "flush_errors_total",
		Help:      "Number of failed writes to the LED strip.",
	})

	updatesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lumed",
		Name:      "updates_applied_total",
		Help:      "Number of non-empty settings updates applied, by source.",
	}, []string{"source"})
)

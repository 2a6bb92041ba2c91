// Package metrics exposes the daemon's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry wraps the process-wide prometheus registry and the scan-cycle
// collectors.
type Registry struct {
	registry *prometheus.Registry

	CyclesTotal          prometheus.Counter
	PhaseDuration        *prometheus.HistogramVec
	TorrentsIdentified   prometheus.Counter
	DuplicatesResolved   *prometheus.CounterVec
	RepairAttemptsTotal  prometheus.Counter
	RepairExhaustedTotal prometheus.Counter
	SymlinksCreated      prometheus.Counter
	SymlinksRemoved      prometheus.Counter
}

// NewRegistry builds and registers the daemon's metric collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		registry: reg,
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "cycles_total", Help: "Scan cycles completed.",
		}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reconciled", Name: "phase_duration_seconds", Help: "Duration of each scan phase.",
		}, []string{"phase"}),
		TorrentsIdentified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "torrents_identified_total", Help: "Torrents successfully identified.",
		}),
		DuplicatesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "duplicates_resolved_total", Help: "Duplicate-contest outcomes by kind.",
		}, []string{"outcome"}),
		RepairAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "repair_attempts_total", Help: "Repair attempts made.",
		}),
		RepairExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "repair_exhausted_total", Help: "Torrents deleted after repair exhaustion.",
		}),
		SymlinksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "symlinks_created_total", Help: "Symlinks created or replaced.",
		}),
		SymlinksRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "reconciled", Name: "symlinks_removed_total", Help: "Symlinks removed.",
		}),
	}

	reg.MustRegister(
		r.CyclesTotal, r.PhaseDuration, r.TorrentsIdentified, r.DuplicatesResolved,
		r.RepairAttemptsTotal, r.RepairExhaustedTotal, r.SymlinksCreated, r.SymlinksRemoved,
	)
	return r
}

// Gatherer returns the underlying registry for exposition.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

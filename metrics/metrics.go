// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics wraps the prometheus collectors one module arena
// exposes: message drops, MAC authentication failures, ballot
// outcomes, k-set size, active ballot count, and the age of the
// oldest field among the module's k-set neighbours.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is one module's set of registered collectors.
type Metrics struct {
	MessagesDropped  prometheus.Counter
	AuthFailures     prometheus.Counter
	BallotsApproved  prometheus.Counter
	BallotsRejected  prometheus.Counter
	BallotsInhibited prometheus.Counter
	KSetSize         prometheus.Gauge
	ActiveBallots    prometheus.Gauge
	OldestFieldAgeUS prometheus.Gauge
}

// New constructs and registers every collector against reg, labeled
// with the owning module's id so a process running several arenas
// (as hal/simhal's test harnesses do) doesn't collide on metric names.
func New(reg prometheus.Registerer, moduleID uint8) (*Metrics, error) {
	constLabels := prometheus.Labels{"module_id": strconv.Itoa(int(moduleID))}

	m := &Metrics{
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmesh",
			Name:        "messages_dropped_total",
			Help:        "Messages a Send call could not deliver, or inbound messages dropped for failing to decode.",
			ConstLabels: constLabels,
		}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmesh",
			Name:        "auth_failures_total",
			Help:        "Inbound messages rejected by MAC validation.",
			ConstLabels: constLabels,
		}),
		BallotsApproved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmesh",
			Name:        "ballots_approved_total",
			Help:        "Ballots that reached their approval threshold.",
			ConstLabels: constLabels,
		}),
		BallotsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmesh",
			Name:        "ballots_rejected_total",
			Help:        "Ballots rejected by vote or timed out without reaching threshold.",
			ConstLabels: constLabels,
		}),
		BallotsInhibited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fieldmesh",
			Name:        "ballots_inhibited_total",
			Help:        "Ballots suppressed by a mutual-inhibition message.",
			ConstLabels: constLabels,
		}),
		KSetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fieldmesh",
			Name:        "kset_size",
			Help:        "Current size of the k-neighbour set.",
			ConstLabels: constLabels,
		}),
		ActiveBallots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fieldmesh",
			Name:        "active_ballots",
			Help:        "Ballots currently open (proposed, not yet decided).",
			ConstLabels: constLabels,
		}),
		OldestFieldAgeUS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fieldmesh",
			Name:        "oldest_field_age_us",
			Help:        "Age in microseconds of the stalest field among this module's k-set neighbours.",
			ConstLabels: constLabels,
		}),
	}

	collectors := []prometheus.Collector{
		m.MessagesDropped, m.AuthFailures,
		m.BallotsApproved, m.BallotsRejected, m.BallotsInhibited,
		m.KSetSize, m.ActiveBallots, m.OldestFieldAgeUS,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appliedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnstable_applied_commands_total",
		Help: "The total number of commands applied to the table, replays included",
	}, []string{"kind"})
	undoCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnstable_undone_commands_total",
		Help: "The total number of undone commands",
	})
	redoCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnstable_redone_commands_total",
		Help: "The total number of redone commands",
	})
	mismatchCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnstable_mismatched_deletes_total",
		Help: "The total number of deletes rejected because the address did not match",
	})
	recordsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnstable_records",
		Help: "The number of records in the table",
	})
)

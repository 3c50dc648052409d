package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ReconcileCount = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "confsync_reconcile_total",
		Help: "Total number of startup reconciliations by scenario and result",
	},
	[]string{"scenario", "result"},
)

func Reconciled(scenario string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ReconcileCount.WithLabelValues(scenario, result).Inc()
}

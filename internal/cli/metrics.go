package cli

import (
	"fmt"
	"net/http"

	"github.com/n6g7/dnstable/internal/config"
	"github.com/n6g7/nomtail/pkg/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func metrics(logger *log.Logger, conf *config.Config) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "{\"healthy\": true}")
	})
	mux.Handle(conf.Prometheus.MetricsPath, promhttp.Handler())

	logger.Info("starting prometheus exporter", "addr", conf.Prometheus.ListenAddr, "metrics_path", conf.Prometheus.MetricsPath)
	if err := http.ListenAndServe(conf.Prometheus.ListenAddr, mux); err != nil {
		logger.Error("prometheus exporter stopped", "err", err)
	}
}

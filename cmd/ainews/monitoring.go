package main

import (
	"encoding/json"
	"net/http"

	"github.com/deusflow/ainewsreport/internal/metrics"
)

func monitoringHandler(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler(m))
	mux.HandleFunc("/metrics", metricsHandler(m))
	return mux
}

func healthHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := m.GetStats()

		w.Header().Set("Content-Type", "application/json")

		status := "ok"
		if !m.Healthy() {
			status = "error"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		response := map[string]interface{}{
			"status":     status,
			"last_run":   stats["last_run_time"],
			"last_error": stats["last_error"],
		}
		json.NewEncoder(w).Encode(response)
	}
}

func metricsHandler(m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.GetStats())
	}
}

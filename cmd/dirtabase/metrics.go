package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/dirtabase/dirtabase/pipeline"
)

// maybeServeMetrics starts a /metrics endpoint on g.metricsAddr, if
// set, and returns the Metrics to attach to the driver. Returns nil if
// metrics were not requested.
func maybeServeMetrics(g *globalFlags) *pipeline.Metrics {
	if g.metricsAddr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	m := pipeline.NewMetrics(reg)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(g.metricsAddr, mux); err != nil {
			log.WithError(err).Warn("metrics server exited")
		}
	}()
	return m
}

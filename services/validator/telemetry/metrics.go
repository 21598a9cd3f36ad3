// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry exposes the service's Prometheus metrics.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Response Validation
// =============================================================================

var (
	// validateTotal counts validation requests by outcome.
	// Labels: valid (true, false), uid_found (true, false)
	validateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "validator",
		Subsystem: "validate",
		Name:      "requests_total",
		Help:      "Total validation requests by outcome and question resolution",
	}, []string{"valid", "uid_found"})

	// pipelineSeconds measures end-to-end pipeline latency per request.
	// Labels: spelling (on, off, rescue). The rescue bucket isolates the
	// double-work auto path so its cost stays visible.
	pipelineSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "validator",
		Subsystem: "validate",
		Name:      "pipeline_seconds",
		Help:      "Response pipeline latency by spelling-correction mode",
		Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"spelling"})

	// spellingCorrectionsTotal counts individual token corrections applied.
	spellingCorrectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "validator",
		Subsystem: "validate",
		Name:      "spelling_corrections_total",
		Help:      "Total spelling corrections applied across all requests",
	})

	// trainingRunsTotal counts training runs by status.
	// Labels: status (ok, bad_request, error)
	trainingRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "validator",
		Subsystem: "train",
		Name:      "runs_total",
		Help:      "Total training runs by status",
	}, []string{"status"})

	// datasetReloadsTotal counts vocabulary dataset reloads by trigger.
	// Labels: trigger (startup, watch, manual), status (ok, error)
	datasetReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "validator",
		Subsystem: "datasets",
		Name:      "reloads_total",
		Help:      "Total vocabulary dataset reloads by trigger and status",
	}, []string{"trigger", "status"})
)

// RecordValidation records one completed validation request.
//
// Inputs:
//   - valid: The validity decision.
//   - uidFound: Whether the question id resolved.
//   - spellingMode: "on", "off", or "rescue" (auto mode that re-ran).
//   - corrections: Number of token corrections applied.
//   - duration: End-to-end pipeline duration.
func RecordValidation(valid, uidFound bool, spellingMode string, corrections int, duration time.Duration) {
	validateTotal.WithLabelValues(boolLabel(valid), boolLabel(uidFound)).Inc()
	pipelineSeconds.WithLabelValues(spellingMode).Observe(duration.Seconds())
	if corrections > 0 {
		spellingCorrectionsTotal.Add(float64(corrections))
	}
}

// RecordTraining records one training run.
func RecordTraining(status string) {
	trainingRunsTotal.WithLabelValues(status).Inc()
}

// RecordDatasetReload records a vocabulary dataset reload attempt.
func RecordDatasetReload(trigger string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	datasetReloadsTotal.WithLabelValues(trigger, status).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bodysharing_applications_submitted_total",
		Help: "Applications accepted by the submission endpoint.",
	})

	metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bodysharing_status_transitions_total",
		Help: "Admin status transitions by target status.",
	}, []string{"status"})

	metricCheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bodysharing_checkins_total",
		Help: "QR scan attempts by outcome.",
	}, []string{"outcome"})
)

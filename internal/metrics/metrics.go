// Package metrics collects and exposes Prometheus metrics for the auth flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resolution outcomes recorded by the session synchronizer.
const (
	ResolutionExisting  = "existing"
	ResolutionCreated   = "created"
	ResolutionDegraded  = "degraded"
	ResolutionSignedOut = "signed_out"
)

// Recorder is the metrics interface consumed by the account service and the
// session synchronizer.
type Recorder interface {
	RecordSignIn(outcome string)
	RecordRegistration(role string)
	RecordResolution(result string, duration time.Duration)
}

// Collector is the Prometheus-backed Recorder.
type Collector struct {
	signIns       *prometheus.CounterVec
	registrations *prometheus.CounterVec
	resolutions   *prometheus.CounterVec
	resolveTime   prometheus.Histogram
}

// NewCollector creates a Collector and registers its instruments with the
// supplied registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		signIns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxisbcn_sign_in_total",
			Help: "Sign-in attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxisbcn_registrations_total",
			Help: "Completed registrations by chosen role.",
		}, []string{"role"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taxisbcn_profile_resolutions_total",
			Help: "Session-to-profile resolutions by result.",
		}, []string{"result"}),
		resolveTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxisbcn_profile_resolve_seconds",
			Help:    "Latency of profile resolution after a session change.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.signIns,
		c.registrations,
		c.resolutions,
		c.resolveTime,
	)

	return c
}

// RecordSignIn records a sign-in attempt result.
func (c *Collector) RecordSignIn(outcome string) {
	c.signIns.WithLabelValues(outcome).Inc()
}

// RecordRegistration records a completed registration.
func (c *Collector) RecordRegistration(role string) {
	c.registrations.WithLabelValues(role).Inc()
}

// RecordResolution records the result and latency of a profile resolution.
func (c *Collector) RecordResolution(result string, duration time.Duration) {
	c.resolutions.WithLabelValues(result).Inc()
	c.resolveTime.Observe(duration.Seconds())
}

// Nop is a Recorder that discards everything. Used in tests.
type Nop struct{}

func (Nop) RecordSignIn(string) {}

func (Nop) RecordRegistration(string) {}

func (Nop) RecordResolution(string, time.Duration) {}

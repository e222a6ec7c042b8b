// Package ceremonymetrics collects round-level counters, gauges, and
// histograms for the coordinator daemon and exposes them over HTTP in
// Prometheus exposition format. Adapted from teacher's
// cmd/auctiond/metrics.go (a hand-rolled MetricsCollector over
// sync/atomic maps, with named convenience methods per domain event), but
// rebuilt on github.com/prometheus/client_golang: that dependency is
// already present in the corpus (parsdao-pars's go.mod, pulled in
// transitively by its cosmos-sdk stack), and is the ecosystem's standard
// metrics library where the teacher's own collector is a bespoke
// reimplementation of the same concern.
package ceremonymetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the coordinator and participant daemons
// report during a ceremony run.
type Collector struct {
	registry *prometheus.Registry

	commitments      prometheus.Counter
	roundAccepted    *prometheus.CounterVec
	roundRejected    *prometheus.CounterVec
	roundDuration    *prometheus.HistogramVec
	activeRound      prometheus.Gauge
	participantCount prometheus.Gauge
}

// New builds a Collector registered against its own prometheus.Registry,
// so a ceremony binary's metrics never collide with another registered
// collector in the same process.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		commitments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ceremony_commitments_total",
			Help: "Total public-key commitments registered during the collecting round.",
		}),
		roundAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceremony_round_accepted_total",
			Help: "Accepted contributions per round.",
		}, []string{"round"}),
		roundRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ceremony_round_rejected_total",
			Help: "Rejected contributions per round, by reason.",
		}, []string{"round", "reason"}),
		roundDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "ceremony_round_duration_seconds",
			Help: "Time to verify and record one participant's turn, by round.",
		}, []string{"round"}),
		activeRound: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceremony_active_round",
			Help: "Current round, encoded as coordinator.Round's integer value.",
		}),
		participantCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ceremony_participant_count",
			Help: "Number of registered participants for the running ceremony.",
		}),
	}

	reg.MustRegister(c.commitments, c.roundAccepted, c.roundRejected, c.roundDuration, c.activeRound, c.participantCount)
	return c
}

// RecordCommitment increments the collecting-round commitment counter.
func (c *Collector) RecordCommitment() { c.commitments.Inc() }

// RecordAccepted records one accepted contribution in round.
func (c *Collector) RecordAccepted(round string) { c.roundAccepted.WithLabelValues(round).Inc() }

// RecordRejected records one rejected contribution in round, tagged with
// the verification failure that caused the rejection.
func (c *Collector) RecordRejected(round, reason string) {
	c.roundRejected.WithLabelValues(round, reason).Inc()
}

// ObserveRoundDuration records how long one participant's turn took to
// verify in round.
func (c *Collector) ObserveRoundDuration(round string, d time.Duration) {
	c.roundDuration.WithLabelValues(round).Observe(d.Seconds())
}

// SetActiveRound records the ceremony's current round as an integer gauge.
func (c *Collector) SetActiveRound(round int) { c.activeRound.Set(float64(round)) }

// SetParticipantCount records the number of registered participants.
func (c *Collector) SetParticipantCount(n int) { c.participantCount.Set(float64(n)) }

// Handler returns an http.Handler serving this Collector's metrics in
// Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

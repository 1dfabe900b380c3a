package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus instruments the backend exposes on
// /metrics: lifecycle events, how an utterance was routed, how a
// sandboxed skill invocation came out, and per-stage turn latency.
type Metrics struct {
	LifecycleEvents   *prometheus.CounterVec
	IntentMatches     *prometheus.CounterVec
	SkillInvocations  *prometheus.CounterVec
	ProviderErrors    *prometheus.CounterVec
	FirstAudioLatency prometheus.Histogram
	TurnStageLatency  *prometheus.HistogramVec
	turnStageWindow   *turnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		LifecycleEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_events_total",
			Help:      "Process lifecycle events (started, shutdown) by name.",
		}, []string{"event"}),
		IntentMatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_matches_total",
			Help:      "Utterances routed to an intent, by resolution method.",
		}, []string{"method"}),
		SkillInvocations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skill_invocations_total",
			Help:      "Sandboxed skill invocations by skill id and outcome.",
		}, []string{"skill_id", "outcome"}),
		ProviderErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "LLM provider errors by provider and error code.",
		}, []string{"provider", "code"}),
		FirstAudioLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_audio_latency_ms",
			Help:      "Latency from TTS request to first played audio sample, in milliseconds.",
			Buckets:   []float64{100, 200, 300, 500, 700, 900, 1200, 2000},
		}),
		TurnStageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_stage_latency_ms",
			Help:      "Turn-stage latency in milliseconds.",
			Buckets:   []float64{20, 50, 100, 150, 250, 400, 700, 1200, 2000, 4000, 7000, 10000},
		}, []string{"stage"}),
		turnStageWindow: newTurnStageWindow(256),
	}
}

// ObserveLifecycleEvent records a process lifecycle event such as
// "backend_started".
func (m *Metrics) ObserveLifecycleEvent(event string) {
	if m == nil || m.LifecycleEvents == nil {
		return
	}
	m.LifecycleEvents.WithLabelValues(event).Inc()
}

// ObserveIntentMatch records how one utterance resolved to an intent:
// "fast_path" (fuzzy phrase match, no LLM involved), "llm_route" (the
// LLM picked a skill), or "chat" (no skill matched, fell through to
// conversation).
func (m *Metrics) ObserveIntentMatch(method string) {
	if m == nil || m.IntentMatches == nil {
		return
	}
	m.IntentMatches.WithLabelValues(method).Inc()
}

// ObserveSkillInvocation records one sandbox.Invoke outcome.
func (m *Metrics) ObserveSkillInvocation(skillID, outcome string) {
	if m == nil || m.SkillInvocations == nil {
		return
	}
	m.SkillInvocations.WithLabelValues(skillID, outcome).Inc()
}

// ObserveProviderError records an LLM provider failure, labeled by
// provider name and code (an HTTP status code, or "transport").
func (m *Metrics) ObserveProviderError(provider, code string) {
	if m == nil || m.ProviderErrors == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider, code).Inc()
}

func (m *Metrics) ObserveFirstAudioLatency(d time.Duration) {
	if m == nil || m.FirstAudioLatency == nil {
		return
	}
	m.FirstAudioLatency.Observe(float64(d.Milliseconds()))
}

// ObserveTurnStage records one named stage's duration, both to the
// Prometheus histogram and to the in-memory rolling window SnapshotTurnStages
// reads from.
func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	if m == nil || m.TurnStageLatency == nil {
		return
	}
	ms := float64(d.Milliseconds())
	m.TurnStageLatency.WithLabelValues(stage).Observe(ms)
	m.turnStageWindow.Observe(stage, ms)
}

func (m *Metrics) SnapshotTurnStages() TurnStageSnapshot {
	if m == nil || m.turnStageWindow == nil {
		return TurnStageSnapshot{}
	}
	return m.turnStageWindow.Snapshot()
}

func (m *Metrics) ResetTurnStages() {
	if m == nil || m.turnStageWindow == nil {
		return
	}
	m.turnStageWindow.Reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Package metrics exports controller, speech and cache activity to
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/neelchudasama51-ui/netramarg/internal/announce"
	"github.com/neelchudasama51-ui/netramarg/internal/cache"
	"github.com/neelchudasama51-ui/netramarg/internal/speech"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netramarg"

// Metrics owns a private registry so tests and embedders do not collide
// with the default one.
type Metrics struct {
	registry *prometheus.Registry

	triggers      *prometheus.CounterVec
	rejected      prometheus.Counter
	announcements *prometheus.CounterVec
	toasts        *prometheus.CounterVec
	voiceEnabled  prometheus.Gauge
	busy          prometheus.Gauge
	pending       prometheus.Gauge
}

// New creates the collectors and registers them with Go runtime metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		triggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "triggers_total",
			Help:      "Accepted feature triggers.",
		}, []string{"feature"}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_rejected_total",
			Help:      "Vision triggers refused because an analysis was running.",
		}),
		announcements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "announcements_total",
			Help:      "Announcement requests, by whether they were voiced.",
		}, []string{"spoken"}),
		toasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toasts_total",
			Help:      "Toasts raised, by level.",
		}, []string{"level"}),
		voiceEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_enabled",
			Help:      "1 when voice feedback is on.",
		}),
		busy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vision_busy",
			Help:      "1 while a vision analysis is running.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_tasks",
			Help:      "Scheduled announcements not yet fired.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.triggers, m.rejected, m.announcements, m.toasts,
		m.voiceEnabled, m.busy, m.pending,
	)
	return m
}

// Observe records a controller event. It is meant to be passed to
// Controller.Subscribe.
func (m *Metrics) Observe(e announce.Event) {
	switch e.Kind {
	case announce.EventTrigger:
		if e.Feature != nil {
			m.triggers.WithLabelValues(e.Feature.String()).Inc()
		}
	case announce.EventRejected:
		m.rejected.Inc()
	case announce.EventAnnounce:
		if e.Spoken {
			m.announcements.WithLabelValues("true").Inc()
		} else {
			m.announcements.WithLabelValues("false").Inc()
		}
	case announce.EventToast:
		if e.Toast != nil {
			m.toasts.WithLabelValues(e.Toast.Level.String()).Inc()
		}
	}

	m.voiceEnabled.Set(boolToFloat(e.State.VoiceEnabled))
	m.busy.Set(boolToFloat(e.State.Busy))
	m.pending.Set(float64(e.State.Pending))
}

// Attach subscribes to c and returns the unsubscribe function.
func (m *Metrics) Attach(c *announce.Controller) func() {
	s := c.State()
	m.voiceEnabled.Set(boolToFloat(s.VoiceEnabled))
	m.busy.Set(boolToFloat(s.Busy))
	m.pending.Set(float64(s.Pending))
	return c.Subscribe(m.Observe)
}

// RegisterSpeech exports the announcer counters, read at scrape time.
func (m *Metrics) RegisterSpeech(stats func() speech.Stats) {
	counter := func(name, help string, get func(speech.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "speech",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(get(stats())) })
	}

	m.registry.MustRegister(
		counter("requests_total", "Utterances requested.", func(s speech.Stats) uint64 { return s.Requested }),
		counter("played_total", "Utterances that reached the speaker.", func(s speech.Stats) uint64 { return s.Played }),
		counter("interrupted_total", "Utterances cut short by a newer one.", func(s speech.Stats) uint64 { return s.Interrupted }),
		counter("failed_total", "Utterances lost to synthesis or playback errors.", func(s speech.Stats) uint64 { return s.Failed }),
		counter("cache_hits_total", "Utterances served from the audio cache.", func(s speech.Stats) uint64 { return s.CacheHits }),
	)
}

// RegisterCache exports the audio cache size and hit counters.
func (m *Metrics) RegisterCache(stats func() cache.ManagerStats) {
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "hits_total",
			Help: "Audio cache hits across both tiers.",
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "cache", Name: "misses_total",
			Help: "Audio cache misses.",
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cache", Name: "memory_bytes",
			Help: "Bytes held by the memory tier.",
		}, func() float64 { return float64(stats().Memory.Size) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "cache", Name: "disk_bytes",
			Help: "Bytes held by the disk tier.",
		}, func() float64 {
			if d := stats().Disk; d != nil {
				return float64(d.Size)
			}
			return 0
		}),
	)
}

// RegisterToasts exports how many toasts the history currently holds.
func (m *Metrics) RegisterToasts(size func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "toasts", Name: "recorded",
		Help: "Toasts kept in the history served over HTTP.",
	}, func() float64 { return float64(size()) }))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

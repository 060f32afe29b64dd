package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"camera-notifier/internal/domain/entity"
	"camera-notifier/internal/domain/port"
)

// StatsProvider источник счётчиков тиков (планировщик)
type StatsProvider interface {
	Stats() entity.RunStats
	State() entity.SchedulerState
}

// Snapshot ответ /stats
type Snapshot struct {
	entity.RunStats
	State         entity.SchedulerState `json:"state"`
	Label         string                `json:"label,omitempty"`
	LastTick      *time.Time            `json:"last_tick,omitempty"`
	LastFailure   entity.FailureKind    `json:"last_failure,omitempty"`
	Transitions   uint64                `json:"transitions"`
	Notifications uint64                `json:"notifications"`
}

// Metrics метрики цикла наблюдения
type Metrics struct {
	stats StatsProvider

	mu          sync.RWMutex
	label       entity.Label
	lastTick    time.Time
	lastFailure entity.FailureKind
	transitions uint64
	notified    uint64

	tickDuration prometheus.Histogram
	failures     *prometheus.CounterVec
	currentLabel *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New создаёт метрики поверх счётчиков stats
func New(stats StatsProvider) *Metrics {
	m := &Metrics{
		stats:    stats,
		registry: prometheus.NewRegistry(),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	// Счётчики планировщика
	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "camera_notifier_ticks_successful_total",
			Help: "Total ticks that classified a frame",
		},
		func() float64 { return float64(m.stats.Stats().Successful) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "camera_notifier_ticks_failed_total",
			Help: "Total ticks that failed",
		},
		func() float64 { return float64(m.stats.Stats().Failed) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "camera_notifier_scheduler_running",
			Help: "Scheduler running (0=idle or stopping, 1=running)",
		},
		func() float64 {
			if m.stats.State() == entity.StateRunning {
				return 1
			}
			return 0
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "camera_notifier_transitions_total",
			Help: "Total label transitions written to the status file",
		},
		func() float64 {
			m.mu.RLock()
			defer m.mu.RUnlock()
			return float64(m.transitions)
		},
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "camera_notifier_notifications_total",
			Help: "Total notifications delivered",
		},
		func() float64 {
			m.mu.RLock()
			defer m.mu.RUnlock()
			return float64(m.notified)
		},
	))

	// Длительность тика включая скачивание и инференс
	m.tickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "camera_notifier_tick_duration_seconds",
		Help:    "Tick processing time",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
	})
	m.registry.MustRegister(m.tickDuration)

	m.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "camera_notifier_tick_failures_total",
		Help: "Failed ticks by failure kind",
	}, []string{"kind"})
	m.registry.MustRegister(m.failures)

	m.currentLabel = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "camera_notifier_current_label",
		Help: "Last classified label (1 for the current one)",
	}, []string{"label"})
	m.registry.MustRegister(m.currentLabel)
}

// RecordTick обновляет метрики по итогу тика
func (m *Metrics) RecordTick(ctx context.Context, result entity.TickResult) error {
	m.tickDuration.Observe(result.Duration.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastTick = result.Started
	m.lastFailure = result.Kind
	if !result.Success() {
		m.failures.WithLabelValues(string(result.Kind)).Inc()
		return nil
	}

	if result.Changed {
		m.transitions++
	}
	if result.Notified {
		m.notified++
	}
	if m.label != result.Label {
		if m.label != entity.NoLabel {
			m.currentLabel.DeleteLabelValues(string(m.label))
		}
		m.label = result.Label
	}
	m.currentLabel.WithLabelValues(string(m.label)).Set(1)
	return nil
}

// Snapshot текущее состояние для /stats
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := Snapshot{
		RunStats:      m.stats.Stats(),
		State:         m.stats.State(),
		Label:         string(m.label),
		LastFailure:   m.lastFailure,
		Transitions:   m.transitions,
		Notifications: m.notified,
	}
	if !m.lastTick.IsZero() {
		t := m.lastTick
		s.LastTick = &t
	}
	return s
}

// Handler /metrics в формате Prometheus и /stats в JSON
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Snapshot())
	})
	return mux
}

// NewServer HTTP-сервер метрик на addr
func (m *Metrics) NewServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Проверка реализации интерфейса
var _ port.TickRecorder = (*Metrics)(nil)

package metrics

import (
	"context"
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"sync"
	"time"
	"warden/pkg/log"
)

const (
	OutcomeAnswered  = "answered"
	OutcomeReacted   = "reacted"
	OutcomeCancelled = "cancelled"
	OutcomeTimeout   = "timeout"
)

var (
	once sync.Once

	ActionsApplied   *prometheus.CounterVec
	ActionsReversed  *prometheus.CounterVec
	ReversalFailures *prometheus.CounterVec
	PendingActions   prometheus.Gauge
	PromptsResolved  *prometheus.CounterVec
	RaidsTriggered   prometheus.Counter
	FloodsDetected   prometheus.Counter
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		ActionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{Name: "warden_actions_applied_total", Help: "Timed actions applied, by kind"}, []string{"kind"})
		ActionsReversed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "warden_actions_reversed_total", Help: "Timed actions reversed, by kind"}, []string{"kind"})
		ReversalFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "warden_reversal_failures_total", Help: "Reversals that failed and were dropped, by kind"}, []string{"kind"})
		PendingActions = promauto.NewGauge(prometheus.GaugeOpts{Name: "warden_pending_actions", Help: "Reversals currently scheduled"})
		PromptsResolved = promauto.NewCounterVec(prometheus.CounterOpts{Name: "warden_prompts_resolved_total", Help: "Interactive prompts resolved, by outcome"}, []string{"outcome"})
		RaidsTriggered = promauto.NewCounter(prometheus.CounterOpts{Name: "warden_raids_triggered_total", Help: "Times raid mode was activated"})
		FloodsDetected = promauto.NewCounter(prometheus.CounterOpts{Name: "warden_floods_detected_total", Help: "Times a member tripped the flood limit"})
	})
}

func Applied(kind string) {
	if ActionsApplied != nil {
		ActionsApplied.WithLabelValues(kind).Inc()
	}
}

func Reversed(kind string) {
	if ActionsReversed != nil {
		ActionsReversed.WithLabelValues(kind).Inc()
	}
}

func ReversalFailed(kind string) {
	if ReversalFailures != nil {
		ReversalFailures.WithLabelValues(kind).Inc()
	}
}

func SetPending(n int) {
	if PendingActions != nil {
		PendingActions.Set(float64(n))
	}
}

func PromptResolved(outcome string) {
	if PromptsResolved != nil {
		PromptsResolved.WithLabelValues(outcome).Inc()
	}
}

func RaidTriggered() {
	if RaidsTriggered != nil {
		RaidsTriggered.Inc()
	}
}

func FloodDetected() {
	if FloodsDetected != nil {
		FloodsDetected.Inc()
	}
}

// Serve exposes /metrics on address until ctx is done.
func Serve(ctx context.Context, address string) {
	logger := log.Logger()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	logger.Infof(nil, "serving metrics on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf(nil, "error serving metrics, %s", err)
	}
}

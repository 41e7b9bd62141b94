package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
	"github.com/rika-labs/rikadeploy/internal/usecase"
)

const namespace = "rikadeploy"

// PrometheusReporter collects run metrics in a private registry and pushes
// them to a Pushgateway on Flush, the usual shape for batch jobs.
type PrometheusReporter struct {
	registry *prometheus.Registry
	url      string
	job      string
	network  string
	log      *slog.Logger

	stageDuration *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	transactions  *prometheus.CounterVec
	gasUsed       *prometheus.CounterVec
	verifications *prometheus.CounterVec
	lastRun       prometheus.Gauge
}

// NewPrometheusReporter creates a reporter. Without a pushgateway URL metrics
// are still collected but Flush does nothing.
func NewPrometheusReporter(cfg *config.RuntimeConfig, log *slog.Logger) *PrometheusReporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	network := ""
	if cfg.Network != nil {
		network = cfg.Network.Name
	}
	job := cfg.Metrics.Job
	if job == "" {
		job = namespace
	}

	return &PrometheusReporter{
		registry: reg,
		url:      cfg.Metrics.PushgatewayURL,
		job:      job,
		network:  network,
		log:      log.With("component", "MetricsReporter"),

		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each pipeline stage",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),
		stageFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "stage_failures_total",
				Help:      "Pipeline stages that ended in a fatal error",
			},
			[]string{"stage"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_total",
				Help:      "Transactions mined per stage",
			},
			[]string{"stage"},
		),
		gasUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gas_used_total",
				Help:      "Gas consumed per stage",
			},
			[]string{"stage"},
		),
		verifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verifications_total",
				Help:      "Explorer verification outcomes",
			},
			[]string{"artifact", "status"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time of the last flush",
			},
		),
	}
}

func (r *PrometheusReporter) StageCompleted(stage models.Stage, duration time.Duration) {
	r.stageDuration.WithLabelValues(stage.String()).Observe(duration.Seconds())
}

func (r *PrometheusReporter) StageFailed(stage models.Stage) {
	r.stageFailures.WithLabelValues(stage.String()).Inc()
}

func (r *PrometheusReporter) TransactionMined(stage models.Stage, gasUsed uint64) {
	r.transactions.WithLabelValues(stage.String()).Inc()
	r.gasUsed.WithLabelValues(stage.String()).Add(float64(gasUsed))
}

func (r *PrometheusReporter) VerificationFinished(artifact models.ArtifactName, status models.VerificationStatus) {
	r.verifications.WithLabelValues(artifact.String(), string(status)).Inc()
}

// Gatherer exposes the registry
func (r *PrometheusReporter) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Flush pushes the collected metrics, grouped by network
func (r *PrometheusReporter) Flush(ctx context.Context) error {
	if r.url == "" {
		return nil
	}
	r.lastRun.SetToCurrentTime()

	pusher := push.New(r.url, r.job).Gatherer(r.registry)
	if r.network != "" {
		pusher = pusher.Grouping("network", r.network)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", r.url, err)
	}

	r.log.Debug("metrics pushed", "url", r.url, "job", r.job)
	return nil
}

var _ usecase.MetricsReporter = (*PrometheusReporter)(nil)

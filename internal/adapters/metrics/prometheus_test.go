package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rika-labs/rikadeploy/internal/domain/config"
	"github.com/rika-labs/rikadeploy/internal/domain/models"
)

func newReporter(url string) *PrometheusReporter {
	return NewPrometheusReporter(&config.RuntimeConfig{
		Network: &config.Network{Name: "sonicTestnet", ChainID: 57054},
		Metrics: config.MetricsConfig{PushgatewayURL: url},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func families(t *testing.T, r *PrometheusReporter) map[string]*dto.MetricFamily {
	t.Helper()
	gathered, err := r.Gatherer().Gather()
	require.NoError(t, err)
	out := make(map[string]*dto.MetricFamily, len(gathered))
	for _, mf := range gathered {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPrometheusReporter_Collects(t *testing.T) {
	r := newReporter("")

	r.TransactionMined(models.StageDeployToken, 1_200_000)
	r.TransactionMined(models.StageFundFaucet, 52_000)
	r.StageCompleted(models.StageDeployToken, 3*time.Second)
	r.StageFailed(models.StageAwaitFinality)
	r.VerificationFinished(models.ArtifactFaucet, models.VerificationStatusRejected)

	mfs := families(t, r)

	gas := mfs["rikadeploy_gas_used_total"]
	require.NotNil(t, gas)
	total := 0.0
	for _, m := range gas.GetMetric() {
		total += m.GetCounter().GetValue()
	}
	assert.Equal(t, 1_252_000.0, total)

	failures := mfs["rikadeploy_stage_failures_total"]
	require.NotNil(t, failures)
	require.Len(t, failures.GetMetric(), 1)
	assert.Equal(t, "await_finality", failures.GetMetric()[0].GetLabel()[0].GetValue())

	verifications := mfs["rikadeploy_verifications_total"]
	require.NotNil(t, verifications)
	labels := map[string]string{}
	for _, l := range verifications.GetMetric()[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	assert.Equal(t, map[string]string{"artifact": "faucet", "status": "rejected"}, labels)

	duration := mfs["rikadeploy_stage_duration_seconds"]
	require.NotNil(t, duration)
	assert.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestPrometheusReporter_FlushWithoutGateway(t *testing.T) {
	assert.NoError(t, newReporter("").Flush(context.Background()))
}

func TestPrometheusReporter_Push(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newReporter(srv.URL)
	r.StageCompleted(models.StageDeployToken, time.Second)
	require.NoError(t, r.Flush(context.Background()))

	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/metrics/job/rikadeploy/network/sonicTestnet", path)
}

func TestPrometheusReporter_PushFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newReporter(srv.URL).Flush(context.Background())
	assert.ErrorContains(t, err, "failed to push metrics")
}

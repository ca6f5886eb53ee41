package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/projecthub/internal/config"
	"github.com/geocoder89/projecthub/internal/jobs"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		Env:            "test",
		StoreBackend:   "memory",
		SessionBackend: "memory",
		JWTSecret:      "test-secret",
		SeedPassword:   "demo-password",
	}
}

func TestNewWithMemoryBackends(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := New(context.Background(), memoryConfig(), log)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Seeder.Bootstrap(context.Background()))

	w := httptest.NewRecorder()
	a.Router(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lets make a React App!!!")
}

func TestNewRejectsUnknownBackends(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := memoryConfig()
	cfg.StoreBackend = "sqlite"
	_, err := New(context.Background(), cfg, log)
	require.Error(t, err)

	cfg = memoryConfig()
	cfg.SessionBackend = "postgres"
	_, err = New(context.Background(), cfg, log)
	require.ErrorContains(t, err, "STORE_BACKEND=postgres")
}

func TestNotificationsDrainOnClose(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := memoryConfig()
	cfg.NotifyEnabled = true
	cfg.NotifyWorkers = 1

	a, err := New(context.Background(), cfg, log)
	require.NoError(t, err)
	require.NotNil(t, a.Jobs)

	// the sample dataset has four memberships
	require.NoError(t, a.Seeder.Bootstrap(context.Background()))
	a.Close()

	joined := testutil.ToFloat64(a.Prom.JobsProcessed.WithLabelValues(string(jobs.JobMemberJoined), "succeeded"))
	assert.Equal(t, 4.0, joined)
	assert.Zero(t, testutil.ToFloat64(a.Prom.JobsProcessed.WithLabelValues(string(jobs.JobMemberJoined), "failed")))
}

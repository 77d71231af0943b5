package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/osse101/TriviaCast_Go/internal/config"
	"github.com/osse101/TriviaCast_Go/internal/domain"
)

type stubPool struct{}

func (stubPool) Ping(context.Context) error { return nil }
func (stubPool) Close()                     {}

// stubLifecycle answers every call with a fixed result
type stubLifecycle struct{}

func (stubLifecycle) GetStatus(context.Context, uuid.UUID) (domain.LifecycleStatus, error) {
	return domain.StatusLive, nil
}

func (stubLifecycle) RankGame(_ context.Context, id uuid.UUID) (*domain.RankResult, error) {
	return &domain.RankResult{GameID: id}, nil
}

func (stubLifecycle) PublishResults(_ context.Context, id uuid.UUID) (*domain.PublishResult, error) {
	return &domain.PublishResult{GameID: id}, nil
}

func (stubLifecycle) PreviewRanking(_ context.Context, id uuid.UUID) (*domain.RankResult, error) {
	return &domain.RankResult{GameID: id}, nil
}

func (stubLifecycle) Finalize(_ context.Context, id uuid.UUID) (*domain.FinalizeResult, error) {
	return &domain.FinalizeResult{GameID: id, Rank: &domain.RankResult{GameID: id}}, nil
}

func (stubLifecycle) Sweep(context.Context, int) (*domain.SweepReport, error) {
	return &domain.SweepReport{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:     "triviacast",
		Version:         "test",
		Port:            0,
		CronSecret:      "cron-secret",
		FinalizeTimeout: 5 * time.Second,
		SweepBatchSize:  10,
	}
}

func TestRouter_Routes(t *testing.T) {
	s := newSigner(t)
	verifier := newTestVerifier(t, s, 42)
	router := NewRouter(testConfig(), stubPool{}, stubLifecycle{}, verifier)

	gameID := uuid.NewString()
	adminToken := "Bearer " + s.token(t, validClaims("42"))

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		want   int
	}{
		{"healthz is public", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readyz is public", http.MethodGet, "/readyz", "", http.StatusOK},
		{"version is public", http.MethodGet, "/version", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", http.StatusOK},
		{"sweep requires secret", http.MethodPost, "/api/v1/cron/finalize", "", http.StatusUnauthorized},
		{"sweep with secret", http.MethodPost, "/api/v1/cron/finalize", "Bearer cron-secret", http.StatusOK},
		{"finalize with secret", http.MethodPost, "/api/v1/games/" + gameID + "/finalize", "Bearer cron-secret", http.StatusOK},
		{"finalize rejects admin token", http.MethodPost, "/api/v1/games/" + gameID + "/finalize", adminToken, http.StatusUnauthorized},
		{"admin rejects cron secret", http.MethodGet, "/api/v1/admin/games/" + gameID + "/status", "Bearer cron-secret", http.StatusUnauthorized},
		{"admin status", http.MethodGet, "/api/v1/admin/games/" + gameID + "/status", adminToken, http.StatusOK},
		{"admin preview", http.MethodGet, "/api/v1/admin/games/" + gameID + "/preview", adminToken, http.StatusOK},
		{"admin rank", http.MethodPost, "/api/v1/admin/games/" + gameID + "/rank", adminToken, http.StatusOK},
		{"admin publish", http.MethodPost, "/api/v1/admin/games/" + gameID + "/publish", adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRouter_AdminRoutesDisabledWithoutVerifier(t *testing.T) {
	router := NewRouter(testConfig(), stubPool{}, stubLifecycle{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/games/"+uuid.NewString()+"/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServer_Addr(t *testing.T) {
	cfg := testConfig()
	cfg.Port = 9090
	s := NewServer(cfg, stubPool{}, stubLifecycle{}, nil)
	assert.Equal(t, ":9090", s.httpServer.Addr)
}

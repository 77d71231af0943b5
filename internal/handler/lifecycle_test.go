package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/handler"
)

type MockLifecycleService struct {
	mock.Mock
}

func (m *MockLifecycleService) GetStatus(ctx context.Context, gameID uuid.UUID) (domain.LifecycleStatus, error) {
	args := m.Called(ctx, gameID)
	return args.Get(0).(domain.LifecycleStatus), args.Error(1)
}

func (m *MockLifecycleService) RankGame(ctx context.Context, gameID uuid.UUID) (*domain.RankResult, error) {
	args := m.Called(ctx, gameID)
	if r := args.Get(0); r != nil {
		return r.(*domain.RankResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLifecycleService) PublishResults(ctx context.Context, gameID uuid.UUID) (*domain.PublishResult, error) {
	args := m.Called(ctx, gameID)
	if r := args.Get(0); r != nil {
		return r.(*domain.PublishResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLifecycleService) PreviewRanking(ctx context.Context, gameID uuid.UUID) (*domain.RankResult, error) {
	args := m.Called(ctx, gameID)
	if r := args.Get(0); r != nil {
		return r.(*domain.RankResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLifecycleService) Finalize(ctx context.Context, gameID uuid.UUID) (*domain.FinalizeResult, error) {
	args := m.Called(ctx, gameID)
	if r := args.Get(0); r != nil {
		return r.(*domain.FinalizeResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockLifecycleService) Sweep(ctx context.Context, limit int) (*domain.SweepReport, error) {
	args := m.Called(ctx, limit)
	if r := args.Get(0); r != nil {
		return r.(*domain.SweepReport), args.Error(1)
	}
	return nil, args.Error(1)
}

func newLifecycleRouter(svc *MockLifecycleService) http.Handler {
	h := handler.NewLifecycleHandler(svc, 5*time.Second, 50)
	r := chi.NewRouter()
	r.Post("/games/{id}/finalize", h.HandleFinalizeGame)
	r.Post("/cron/finalize", h.HandleSweep)
	r.Get("/admin/games/{id}/status", h.HandleGetStatus)
	r.Get("/admin/games/{id}/preview", h.HandlePreviewRanking)
	r.Post("/admin/games/{id}/rank", h.HandleRankGame)
	r.Post("/admin/games/{id}/publish", h.HandlePublishResults)
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestLifecycleHandler_FinalizeGame(t *testing.T) {
	gameID := uuid.New()

	tests := []struct {
		name           string
		path           string
		setupMock      func(*MockLifecycleService)
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success",
			path: "/games/" + gameID.String() + "/finalize",
			setupMock: func(m *MockLifecycleService) {
				m.On("Finalize", mock.Anything, gameID).Return(&domain.FinalizeResult{
					GameID:  gameID,
					Rank:    &domain.RankResult{GameID: gameID, EntriesRanked: 3, PrizesDistributed: 2, TotalDistributed: 100},
					Publish: &domain.PublishResult{GameID: gameID, TxHash: "0xabc", Notified: 2},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Invalid game ID",
			path:           "/games/not-a-uuid/finalize",
			setupMock:      func(m *MockLifecycleService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  handler.ErrMsgInvalidGameID,
		},
		{
			name: "Game not found",
			path: "/games/" + gameID.String() + "/finalize",
			setupMock: func(m *MockLifecycleService) {
				m.On("Finalize", mock.Anything, gameID).Return(nil, domain.ErrGameNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedError:  handler.ErrMsgGameNotFoundError,
		},
		{
			name: "Game still running",
			path: "/games/" + gameID.String() + "/finalize",
			setupMock: func(m *MockLifecycleService) {
				m.On("Finalize", mock.Anything, gameID).
					Return(nil, fmt.Errorf("%w: ends at 12:00", domain.ErrGameNotEnded))
			},
			expectedStatus: http.StatusConflict,
			expectedError:  handler.ErrMsgGameNotEndedError,
		},
		{
			name: "Database unavailable",
			path: "/games/" + gameID.String() + "/finalize",
			setupMock: func(m *MockLifecycleService) {
				m.On("Finalize", mock.Anything, gameID).
					Return(nil, fmt.Errorf("%w: load game: connection refused", domain.ErrPersistence))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedError:  handler.ErrMsgUnavailableError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLifecycleService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			w := httptest.NewRecorder()
			newLifecycleRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, decodeError(t, w))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLifecycleHandler_FinalizeGame_PublishErrorInBody(t *testing.T) {
	gameID := uuid.New()
	svc := new(MockLifecycleService)
	svc.On("Finalize", mock.Anything, gameID).Return(&domain.FinalizeResult{
		GameID:       gameID,
		Rank:         &domain.RankResult{GameID: gameID, PrizesDistributed: 1},
		PublishError: "chain submission failed: nonce too low",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/games/"+gameID.String()+"/finalize", nil)
	w := httptest.NewRecorder()
	newLifecycleRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got domain.FinalizeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Nil(t, got.Publish)
	assert.Contains(t, got.PublishError, "nonce too low")
}

func TestLifecycleHandler_FinalizeGame_AppliesTimeout(t *testing.T) {
	gameID := uuid.New()
	svc := new(MockLifecycleService)
	svc.On("Finalize", mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 5*time.Second
	}), gameID).Return(&domain.FinalizeResult{GameID: gameID, Rank: &domain.RankResult{}}, nil)

	req := httptest.NewRequest(http.MethodPost, "/games/"+gameID.String()+"/finalize", nil)
	w := httptest.NewRecorder()
	newLifecycleRouter(svc).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestLifecycleHandler_Sweep(t *testing.T) {
	handler.InitValidator()

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockLifecycleService)
		expectedStatus int
	}{
		{
			name: "Empty body uses configured limit",
			body: "",
			setupMock: func(m *MockLifecycleService) {
				m.On("Sweep", mock.Anything, 50).Return(&domain.SweepReport{Processed: 2, Ranked: 2, Published: 1}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Explicit limit",
			body: `{"limit": 10}`,
			setupMock: func(m *MockLifecycleService) {
				m.On("Sweep", mock.Anything, 10).Return(&domain.SweepReport{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Limit over maximum",
			body:           `{"limit": 501}`,
			setupMock:      func(m *MockLifecycleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed JSON",
			body:           `{"limit":`,
			setupMock:      func(m *MockLifecycleService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Listing fails",
			body: "",
			setupMock: func(m *MockLifecycleService) {
				m.On("Sweep", mock.Anything, 50).
					Return(nil, fmt.Errorf("%w: list due games: timeout", domain.ErrPersistence))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLifecycleService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/cron/finalize", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			newLifecycleRouter(svc).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestLifecycleHandler_Sweep_ReportsFailures(t *testing.T) {
	failed := uuid.New()
	svc := new(MockLifecycleService)
	svc.On("Sweep", mock.Anything, 50).Return(&domain.SweepReport{
		Processed: 3,
		Ranked:    2,
		Failures:  []domain.SweepFailure{{GameID: failed, Error: "persistence failure"}},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/cron/finalize", nil)
	w := httptest.NewRecorder()
	newLifecycleRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var report domain.SweepReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Processed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, failed, report.Failures[0].GameID)
}

func TestLifecycleHandler_GetStatus(t *testing.T) {
	gameID := uuid.New()
	svc := new(MockLifecycleService)
	svc.On("GetStatus", mock.Anything, gameID).Return(domain.StatusRanked, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/games/"+gameID.String()+"/status", nil)
	w := httptest.NewRecorder()
	newLifecycleRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp handler.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, gameID, resp.GameID)
	assert.Equal(t, domain.StatusRanked, resp.Status)
}

func TestLifecycleHandler_AdminOperations(t *testing.T) {
	gameID := uuid.New()

	t.Run("Preview", func(t *testing.T) {
		svc := new(MockLifecycleService)
		svc.On("PreviewRanking", mock.Anything, gameID).
			Return(&domain.RankResult{GameID: gameID, EntriesRanked: 4}, nil)

		req := httptest.NewRequest(http.MethodGet, "/admin/games/"+gameID.String()+"/preview", nil)
		w := httptest.NewRecorder()
		newLifecycleRouter(svc).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got domain.RankResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 4, got.EntriesRanked)
	})

	t.Run("Rank", func(t *testing.T) {
		svc := new(MockLifecycleService)
		svc.On("RankGame", mock.Anything, gameID).
			Return(nil, fmt.Errorf("%w: 9000 + 2000 > 10000", domain.ErrInvalidPrizeCurve))

		req := httptest.NewRequest(http.MethodPost, "/admin/games/"+gameID.String()+"/rank", nil)
		w := httptest.NewRecorder()
		newLifecycleRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, handler.ErrMsgInvalidPrizeCurveError, decodeError(t, w))
	})

	t.Run("Publish chain failure", func(t *testing.T) {
		svc := new(MockLifecycleService)
		svc.On("PublishResults", mock.Anything, gameID).
			Return(nil, fmt.Errorf("%w: insufficient funds", domain.ErrChain))

		req := httptest.NewRequest(http.MethodPost, "/admin/games/"+gameID.String()+"/publish", nil)
		w := httptest.NewRecorder()
		newLifecycleRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, handler.ErrMsgChainError, decodeError(t, w))
	})

	t.Run("Publish in progress", func(t *testing.T) {
		svc := new(MockLifecycleService)
		svc.On("PublishResults", mock.Anything, gameID).Return(nil, domain.ErrPublishInProgress)

		req := httptest.NewRequest(http.MethodPost, "/admin/games/"+gameID.String()+"/publish", nil)
		w := httptest.NewRecorder()
		newLifecycleRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, handler.ErrMsgPublishInProgressError, decodeError(t, w))
	})

	t.Run("Timeout", func(t *testing.T) {
		svc := new(MockLifecycleService)
		svc.On("PublishResults", mock.Anything, gameID).
			Return(nil, fmt.Errorf("wait for receipt: %w", context.DeadlineExceeded))

		req := httptest.NewRequest(http.MethodPost, "/admin/games/"+gameID.String()+"/publish", nil)
		w := httptest.NewRecorder()
		newLifecycleRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})

	t.Run("Unexpected error", func(t *testing.T) {
		svc := new(MockLifecycleService)
		svc.On("PublishResults", mock.Anything, gameID).Return(nil, errors.New("boom"))

		req := httptest.NewRequest(http.MethodPost, "/admin/games/"+gameID.String()+"/publish", nil)
		w := httptest.NewRecorder()
		newLifecycleRouter(svc).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, handler.ErrMsgGenericServerError, decodeError(t, w))
	})
}

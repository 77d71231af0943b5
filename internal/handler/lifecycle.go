package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osse101/TriviaCast_Go/internal/domain"
	"github.com/osse101/TriviaCast_Go/internal/lifecycle"
	"github.com/osse101/TriviaCast_Go/internal/logger"
)

// URL parameter names
const (
	ParamGameID = "id"
)

// Operation names used in logs
const (
	OpFinalizeGame   = "Finalize game"
	OpSweep          = "Finalize sweep"
	OpGetStatus      = "Get game status"
	OpPreviewRanking = "Preview ranking"
	OpRankGame       = "Rank game"
	OpPublishResults = "Publish results"
)

// SweepRequest optionally overrides the configured batch size
type SweepRequest struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=500"`
}

// StatusResponse is returned by the status endpoint
type StatusResponse struct {
	GameID uuid.UUID              `json:"game_id"`
	Status domain.LifecycleStatus `json:"status"`
}

// LifecycleHandler serves the finalize triggers and admin lifecycle endpoints
type LifecycleHandler struct {
	service         lifecycle.Service
	finalizeTimeout time.Duration
	sweepLimit      int
}

// NewLifecycleHandler creates a handler. finalizeTimeout bounds each
// single-game call; sweepLimit is the default batch size for cron sweeps.
func NewLifecycleHandler(service lifecycle.Service, finalizeTimeout time.Duration, sweepLimit int) *LifecycleHandler {
	return &LifecycleHandler{
		service:         service,
		finalizeTimeout: finalizeTimeout,
		sweepLimit:      sweepLimit,
	}
}

func (h *LifecycleHandler) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.finalizeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.finalizeTimeout)
}

// parseGameID reads the {id} URL parameter. It writes a 400 and returns false when invalid.
func parseGameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, ParamGameID)
	id, err := uuid.Parse(raw)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Invalid game ID", "game_id", raw)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidGameID)
		return uuid.Nil, false
	}
	return id, true
}

// HandleFinalizeGame ranks a game and publishes its prizes when it has on-chain winners
// @Summary Finalize a game
// @Description Called by the real-time game service when a game ends. Safe to repeat.
// @Tags lifecycle
// @Produce json
// @Param id path string true "Game ID"
// @Security BearerAuth
// @Success 200 {object} domain.FinalizeResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/games/{id}/finalize [post]
func (h *LifecycleHandler) HandleFinalizeGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withBudget(r.Context())
	defer cancel()

	result, err := h.service.Finalize(ctx, gameID)
	if err != nil {
		respondServiceError(w, r, OpFinalizeGame, err)
		return
	}

	logger.FromContext(ctx).Info("Game finalized",
		"game_id", gameID,
		"winners", result.Rank.PrizesDistributed,
		"published", result.Publish != nil,
		"publish_error", result.PublishError)
	respondJSON(w, http.StatusOK, result)
}

// HandleSweep finalizes every due game
// @Summary Finalize due games
// @Description Scheduled fallback that ranks and publishes games the real-time trigger missed.
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param request body SweepRequest false "Optional batch size"
// @Security BearerAuth
// @Success 200 {object} domain.SweepReport
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/cron/finalize [post]
func (h *LifecycleHandler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := decodeOptionalRequest(r, w, &req, OpSweep); err != nil {
		return
	}

	limit := h.sweepLimit
	if req.Limit > 0 {
		limit = req.Limit
	}

	report, err := h.service.Sweep(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, OpSweep, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// HandleGetStatus reports the lifecycle phase of a game
// @Summary Game lifecycle status
// @Tags admin
// @Produce json
// @Param id path string true "Game ID"
// @Security QuickAuth
// @Success 200 {object} StatusResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/games/{id}/status [get]
func (h *LifecycleHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	status, err := h.service.GetStatus(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, r, OpGetStatus, err)
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{GameID: gameID, Status: status})
}

// HandlePreviewRanking computes the ranking without saving it
// @Summary Preview a ranking
// @Tags admin
// @Produce json
// @Param id path string true "Game ID"
// @Security QuickAuth
// @Success 200 {object} domain.RankResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/games/{id}/preview [get]
func (h *LifecycleHandler) HandlePreviewRanking(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	result, err := h.service.PreviewRanking(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, r, OpPreviewRanking, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandleRankGame ranks a game without publishing
// @Summary Rank a game
// @Tags admin
// @Produce json
// @Param id path string true "Game ID"
// @Security QuickAuth
// @Success 200 {object} domain.RankResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/admin/games/{id}/rank [post]
func (h *LifecycleHandler) HandleRankGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withBudget(r.Context())
	defer cancel()

	result, err := h.service.RankGame(ctx, gameID)
	if err != nil {
		respondServiceError(w, r, OpRankGame, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// HandlePublishResults pays out a ranked game
// @Summary Publish results on-chain
// @Tags admin
// @Produce json
// @Param id path string true "Game ID"
// @Security QuickAuth
// @Success 200 {object} domain.PublishResult
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/admin/games/{id}/publish [post]
func (h *LifecycleHandler) HandlePublishResults(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.withBudget(r.Context())
	defer cancel()

	result, err := h.service.PublishResults(ctx, gameID)
	if err != nil {
		respondServiceError(w, r, OpPublishResults, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ValidationErrorResponse defines the response structure for validation errors
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// decodeOptionalRequest decodes and validates a JSON body when one is present.
// If it returns an error the response has already been written.
func decodeOptionalRequest(r *http.Request, w http.ResponseWriter, req interface{}, opName string) error {
	log := logger.FromContext(r.Context())

	if r.Body != nil && r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			log.Warn("Failed to decode request", "operation", opName, "error", err)
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
			return err
		}
	}

	if err := GetValidator().ValidateStruct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:  ErrMsgInvalidRequestSummary,
			Fields: FormatValidationError(err),
		})
		return err
	}
	return nil
}

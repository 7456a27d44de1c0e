// Package handlers contains the HTTP handlers and their shared App container.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/middleware"
	"server/internal/pipeline"
)

// App bundles the dependencies shared by all handlers.
type App struct {
	Logger   zerolog.Logger
	Config   *infra.Config
	Users    domain.UserRepository
	Chats    domain.ChatRepository
	Usage    domain.UsageRepository
	Pipeline *pipeline.Pipeline
	Validate *validator.Validate
}

// NewApp creates the handler container.
func NewApp(logger zerolog.Logger, cfg *infra.Config, users domain.UserRepository, chats domain.ChatRepository, usage domain.UsageRepository, pl *pipeline.Pipeline) *App {
	return &App{
		Logger:   logger,
		Config:   cfg,
		Users:    users,
		Chats:    chats,
		Usage:    usage,
		Pipeline: pl,
		Validate: validator.New(),
	}
}

func (a *App) json(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.Logger.Error().Err(err).Msg("encode response")
	}
}

func (a *App) error(w http.ResponseWriter, status int, message string) {
	a.json(w, status, map[string]string{"error": message})
}

// queryError maps a pipeline failure onto an HTTP response. Entitlement
// denials expose the plan state; everything else stays generic.
func (a *App) queryError(w http.ResponseWriter, r *http.Request, err error) {
	var entitlement *pipeline.EntitlementError
	switch {
	case errors.As(err, &entitlement):
		a.json(w, http.StatusForbidden, map[string]any{
			"error":   "insufficient credits or inactive subscription",
			"plan":    entitlement.Plan,
			"credits": entitlement.Credits,
			"status":  entitlement.Status,
		})
	case errors.Is(err, domain.ErrInvalidQuery):
		a.error(w, http.StatusBadRequest, "message is required and must be at most 4000 characters")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "chat not found")
	case errors.Is(err, domain.ErrRetrievalUnavailable):
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("retrieval unavailable")
		a.error(w, http.StatusServiceUnavailable, "search is temporarily unavailable, please try again")
	default:
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("query failed")
		a.error(w, http.StatusInternalServerError, "internal server error")
	}
}

func (a *App) currentUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}

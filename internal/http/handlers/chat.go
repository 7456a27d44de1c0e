package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/pipeline"
)

type messageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
	Voice   bool   `json:"voice"`
}

type queryResponse struct {
	ChatID           string        `json:"chatId"`
	Title            string        `json:"title,omitempty"`
	Messages         []domain.Turn `json:"messages"`
	TokensUsed       int           `json:"tokensUsed"`
	CreditsDeducted  int           `json:"creditsDeducted"`
	CreditsRemaining int           `json:"creditsRemaining"`
}

type chatListResponse struct {
	Chats  []domain.Chat `json:"chats"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// CreateChat starts a new conversation from the first query.
func (a *App) CreateChat(w http.ResponseWriter, r *http.Request) {
	a.runQuery(w, r, "")
}

// SendMessage appends a query to an existing conversation.
func (a *App) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if chatID == "" {
		a.error(w, http.StatusBadRequest, "chat id is required")
		return
	}
	a.runQuery(w, r, chatID)
}

func (a *App) runQuery(w http.ResponseWriter, r *http.Request, chatID string) {
	userID, ok := a.currentUserID(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.Validate.Struct(req); err != nil {
		a.error(w, http.StatusBadRequest, "message is required and must be at most 4000 characters")
		return
	}

	resp, err := a.Pipeline.Query(r.Context(), pipeline.Request{
		UserID: userID,
		ChatID: chatID,
		Query:  req.Message,
		Locale: middleware.LocaleFromContext(r.Context()),
		Voice:  req.Voice,
	})
	if err != nil {
		a.queryError(w, r, err)
		return
	}

	status := http.StatusOK
	if chatID == "" {
		status = http.StatusCreated
	}
	a.json(w, status, queryResponse{
		ChatID:           resp.ChatID,
		Title:            resp.ChatTitle,
		Messages:         []domain.Turn{resp.UserTurn, resp.AssistantTurn},
		TokensUsed:       resp.TokensUsed,
		CreditsDeducted:  resp.CreditsDeducted,
		CreditsRemaining: resp.CreditsRemaining,
	})
}

// ListChats returns the user's conversations, most recently active first.
func (a *App) ListChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	chats, total, err := a.Chats.ListForUser(r.Context(), userID, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("list chats")
		a.error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	a.json(w, http.StatusOK, chatListResponse{Chats: chats, Total: total, Limit: limit, Offset: offset})
}

// GetChat returns one conversation with its full message history.
func (a *App) GetChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(w, r)
	if !ok {
		return
	}

	chat, err := a.Chats.GetForUser(r.Context(), chi.URLParam(r, "chatID"), userID)
	if err != nil {
		a.queryError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, chat)
}

// DeleteChat soft-deletes a conversation. The underlying rows survive for the
// usage ledger.
func (a *App) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(w, r)
	if !ok {
		return
	}

	if err := a.Chats.SoftDelete(r.Context(), chi.URLParam(r, "chatID"), userID); err != nil {
		a.queryError(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

// Package pipeline orchestrates one user query end to end: entitlement check,
// retrieval, grounded generation, persistence, credit debit and usage logging.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/generation"
	"server/internal/metrics"
)

const maxQueryLength = 4000

// tokensPerCredit is the metering exchange rate: one credit buys a thousand
// estimated tokens, partial thousands round up.
const tokensPerCredit = 1000

// Retriever finds reference passages similar to a query.
type Retriever interface {
	SearchSimilar(ctx context.Context, query string, topK int) ([]domain.Passage, error)
}

// AnswerGenerator produces a gated answer from retrieved passages.
type AnswerGenerator interface {
	Generate(ctx context.Context, query string, passages []domain.Passage, locale string) generation.Result
}

// EntitlementError carries the entitlement state that caused a denial so the
// transport layer can report it. It unwraps to domain.ErrEntitlementDenied.
type EntitlementError struct {
	Plan    domain.UserPlan
	Credits int
	Status  domain.SubscriptionStatus
}

func (e *EntitlementError) Error() string {
	if e.Plan == domain.UserPlanFree {
		return fmt.Sprintf("entitlement denied: free plan with %d credits", e.Credits)
	}
	return fmt.Sprintf("entitlement denied: %s plan subscription is %s", e.Plan, e.Status)
}

func (e *EntitlementError) Unwrap() error {
	return domain.ErrEntitlementDenied
}

// Request is one incoming user query. An empty ChatID starts a new
// conversation.
type Request struct {
	UserID string
	ChatID string
	Query  string
	Locale string
	Voice  bool
}

// Response is the successful outcome of one query.
type Response struct {
	ChatID           string
	ChatTitle        string
	UserTurn         domain.Turn
	AssistantTurn    domain.Turn
	TokensUsed       int
	CreditsDeducted  int
	CreditsRemaining int
}

// Pipeline runs the query flow. Queries from the same user are serialized with
// a per-user lock so the entitlement check and the debit cannot interleave;
// different users proceed concurrently.
type Pipeline struct {
	users     domain.UserRepository
	chats     domain.ChatRepository
	usage     domain.UsageRepository
	retriever Retriever
	generator AnswerGenerator
	topK      int
	logger    zerolog.Logger

	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sync.Mutex
	refs int
}

// New creates a Pipeline with injected dependencies.
func New(users domain.UserRepository, chats domain.ChatRepository, usage domain.UsageRepository, retriever Retriever, generator AnswerGenerator, topK int, logger zerolog.Logger) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	return &Pipeline{
		users:     users,
		chats:     chats,
		usage:     usage,
		retriever: retriever,
		generator: generator,
		topK:      topK,
		logger:    logger,
		locks:     map[string]*userLock{},
	}
}

// Query processes one user query. It returns EntitlementError when the user
// may not query, domain.ErrInvalidQuery for unusable input and
// domain.ErrNotFound when the target chat does not belong to the user. A
// failure after persistence (debit or usage logging) does not fail the
// request; it is logged for reconciliation instead.
func (p *Pipeline) Query(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	query := strings.TrimSpace(req.Query)
	if query == "" || len([]rune(query)) > maxQueryLength {
		return nil, domain.ErrInvalidQuery
	}

	unlock := p.lockUser(req.UserID)
	defer unlock()

	user, err := p.users.GetByID(ctx, req.UserID)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	if !user.CanMakeQuery() {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
		return nil, &EntitlementError{
			Plan:    user.Subscription.Plan,
			Credits: user.Credits,
			Status:  user.Subscription.Status,
		}
	}

	passages, err := p.retriever.SearchSimilar(ctx, query, p.topK)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	result := p.generator.Generate(ctx, query, passages, req.Locale)

	creditsToCharge := 0
	if result.TokensUsed > 0 {
		creditsToCharge = (result.TokensUsed + tokensPerCredit - 1) / tokensPerCredit
	}

	now := time.Now().UTC()
	userTurn := domain.Turn{
		ID:        uuid.NewString(),
		Role:      domain.TurnRoleUser,
		Content:   query,
		Voice:     req.Voice,
		Timestamp: now,
	}
	assistantTurn := domain.Turn{
		ID:              uuid.NewString(),
		Role:            domain.TurnRoleAssistant,
		Content:         result.Response,
		Voice:           req.Voice,
		Sources:         domain.SourcesFromPassages(passages),
		TokensUsed:      result.TokensUsed,
		CreditsDeducted: creditsToCharge,
		Timestamp:       now,
	}

	chatID := req.ChatID
	chatTitle := ""
	if chatID == "" {
		chat := &domain.Chat{
			ID:            uuid.NewString(),
			UserID:        req.UserID,
			Title:         domain.ChatTitle(query),
			LastMessageAt: now,
		}
		if err := p.chats.CreateWithTurns(ctx, chat, &userTurn, &assistantTurn); err != nil {
			metrics.QueriesTotal.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("create chat: %w", err)
		}
		chatID = chat.ID
		chatTitle = chat.Title
	} else {
		if err := p.chats.AppendTurns(ctx, chatID, req.UserID, &userTurn, &assistantTurn); err != nil {
			metrics.QueriesTotal.WithLabelValues(metrics.OutcomeError).Inc()
			return nil, fmt.Errorf("append turns: %w", err)
		}
	}

	// The exchange is persisted; from here failures are reconciliation work,
	// not user-facing errors.
	remaining := user.Credits
	if balance, err := p.users.Debit(ctx, req.UserID, creditsToCharge); err != nil {
		p.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Str("chat_id", chatID).
			Str("turn_id", assistantTurn.ID).
			Int("credits", creditsToCharge).
			Msg("debit failed after persisting turns, needs reconciliation")
	} else {
		remaining = balance
	}

	record := &domain.UsageRecord{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		ChatID:           chatID,
		TurnID:           assistantTurn.ID,
		Query:            query,
		Response:         result.Response,
		TokensUsed:       result.TokensUsed,
		CreditsDeducted:  creditsToCharge,
		Model:            result.Model,
		Voice:            req.Voice,
		Sources:          assistantTurn.Sources,
		ProcessingTimeMs: result.ProcessingTimeMs,
		CreatedAt:        now,
	}
	if err := p.usage.Insert(ctx, record); err != nil {
		p.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Str("chat_id", chatID).
			Str("turn_id", assistantTurn.ID).
			Msg("usage log insert failed, needs reconciliation")
	}

	outcome := metrics.OutcomeAnswered
	if generation.IsRefusal(result.Response) {
		outcome = metrics.OutcomeRefused
	}
	metrics.QueriesTotal.WithLabelValues(outcome).Inc()
	metrics.TokensUsedTotal.Add(float64(result.TokensUsed))
	metrics.CreditsChargedTotal.Add(float64(creditsToCharge))

	return &Response{
		ChatID:           chatID,
		ChatTitle:        chatTitle,
		UserTurn:         userTurn,
		AssistantTurn:    assistantTurn,
		TokensUsed:       result.TokensUsed,
		CreditsDeducted:  creditsToCharge,
		CreditsRemaining: remaining,
	}, nil
}

// lockUser acquires the per-user lock and returns its release func. Lock
// entries are refcounted and removed once the last holder releases.
func (p *Pipeline) lockUser(userID string) func() {
	p.mu.Lock()
	entry, ok := p.locks[userID]
	if !ok {
		entry = &userLock{}
		p.locks[userID] = entry
	}
	entry.refs++
	p.mu.Unlock()

	entry.Lock()
	return func() {
		entry.Unlock()
		p.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(p.locks, userID)
		}
		p.mu.Unlock()
	}
}

package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users and their entitlement state.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// Debit applies a completed query in a single atomic update: free-plan
	// credits drop by the given amount with a floor at zero, paid plans keep
	// their balance, and the usage counters increment either way. It returns
	// the post-debit credit balance.
	Debit(ctx context.Context, userID string, credits int) (int, error)
	UpdateEntitlement(ctx context.Context, userID string, plan UserPlan, credits int, status SubscriptionStatus, periodEnd *time.Time) (*User, error)
}

// ChatRepository persists conversations. Turn pairs are appended atomically:
// either both the user and assistant turn land, or neither does.
type ChatRepository interface {
	CreateWithTurns(ctx context.Context, chat *Chat, userTurn, assistantTurn *Turn) error
	AppendTurns(ctx context.Context, chatID, userID string, userTurn, assistantTurn *Turn) error
	GetForUser(ctx context.Context, chatID, userID string) (*Chat, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]Chat, int, error)
	SoftDelete(ctx context.Context, chatID, userID string) error
}

// UsageRepository is the append-only usage ledger.
type UsageRepository interface {
	Insert(ctx context.Context, record *UsageRecord) error
	MonthlySummary(ctx context.Context, userID string, since time.Time) (*MonthlySummary, error)
}

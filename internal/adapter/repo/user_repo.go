package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// GetByID fetches a user with their full entitlement state.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id)
	return scanUser(row)
}

// Debit applies a completed query to the user's entitlement state in one
// statement. The statement itself floors free-plan credits at zero, so the
// returned balance is never negative.
func (r *UserRepositoryPG) Debit(ctx context.Context, userID string, credits int) (int, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QDebitUser, userID, credits)
	var remaining, monthly, total int
	if err := row.Scan(&remaining, &monthly, &total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	return remaining, nil
}

// UpdateEntitlement sets a user's plan, credit balance and subscription window.
func (r *UserRepositoryPG) UpdateEntitlement(ctx context.Context, userID string, plan domain.UserPlan, credits int, status domain.SubscriptionStatus, periodEnd *time.Time) (*domain.User, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpdateUserEntitlement, userID, string(plan), credits, string(status), periodEnd)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var plan, status string
	if err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Credits, &plan, &status,
		&u.Subscription.CurrentPeriodStart, &u.Subscription.CurrentPeriodEnd, &u.Subscription.CancelAtPeriodEnd,
		&u.Usage.MonthlyQueries, &u.Usage.TotalQueries, &u.Usage.LastResetDate,
		&u.IsDeleted, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Subscription.Plan = domain.UserPlan(plan)
	u.Subscription.Status = domain.SubscriptionStatus(status)
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)

package repo

import (
	"context"
	"encoding/json"
	"time"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// UsageRepositoryPG implements the append-only usage ledger on PostgreSQL.
type UsageRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUsageRepository creates a new UsageRepositoryPG.
func NewUsageRepository(sql infra.SQLExecutor) *UsageRepositoryPG {
	return &UsageRepositoryPG{sql: sql}
}

// Insert writes one immutable usage record.
func (r *UsageRepositoryPG) Insert(ctx context.Context, rec *domain.UsageRecord) error {
	var sources []byte
	if len(rec.Sources) > 0 {
		// The ledger keeps title/url/similarity only, no snippets.
		slim := make([]domain.Source, len(rec.Sources))
		for i, s := range rec.Sources {
			slim[i] = domain.Source{Title: s.Title, URL: s.URL, Similarity: s.Similarity}
		}
		var err error
		sources, err = json.Marshal(slim)
		if err != nil {
			return err
		}
	}
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUsageLog,
		rec.ID, rec.UserID, rec.ChatID, rec.TurnID,
		rec.Query, rec.Response, rec.TokensUsed, rec.CreditsDeducted,
		rec.Model, rec.Voice, sources, rec.ProcessingTimeMs,
	)
	return err
}

// MonthlySummary aggregates usage records created at or after the given
// boundary, typically the first of the current calendar month.
func (r *UsageRepositoryPG) MonthlySummary(ctx context.Context, userID string, since time.Time) (*domain.MonthlySummary, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QMonthlyUsageSummary, userID, since)
	var s domain.MonthlySummary
	if err := row.Scan(&s.TotalQueries, &s.TotalTokens, &s.TotalCredits); err != nil {
		return nil, err
	}
	return &s, nil
}

var _ domain.UsageRepository = (*UsageRepositoryPG)(nil)

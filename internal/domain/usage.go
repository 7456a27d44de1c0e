package domain

import "time"

// UsageRecord is the immutable audit entry for one completed exchange. It is
// written once per assistant turn and never updated; the sources snapshot
// keeps title/url/similarity only.
type UsageRecord struct {
	ID               string
	UserID           string
	ChatID           string
	TurnID           string
	Query            string
	Response         string
	TokensUsed       int
	CreditsDeducted  int
	Model            string
	Voice            bool
	Sources          []Source
	ProcessingTimeMs int64
	CreatedAt        time.Time
}

// MonthlySummary aggregates usage records for one calendar month.
type MonthlySummary struct {
	TotalQueries int   `json:"totalQueries"`
	TotalTokens  int64 `json:"totalTokens"`
	TotalCredits int64 `json:"totalCredits"`
}

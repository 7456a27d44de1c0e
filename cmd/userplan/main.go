// Command userplan updates a user's plan, credits and subscription state.
// It is the operator-side replacement for a payment webhook.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		userID    = flag.String("user", "", "user id to update")
		plan      = flag.String("plan", "free", "plan: free, basic or pro")
		credits   = flag.Int("credits", 0, "credit balance to set")
		status    = flag.String("status", "inactive", "subscription status: active, inactive, canceled or past_due")
		periodEnd = flag.String("period-end", "", "subscription period end, RFC3339 (empty clears it)")
	)
	flag.Parse()

	cfg, err := infra.LoadConfig()
	if err != nil {
		fallback := infra.NewLogger("production")
		fallback.Fatal().Err(err).Msg("load config")
	}
	logger := infra.NewLogger(cfg.AppEnv)

	if *userID == "" {
		logger.Fatal().Msg("-user is required")
	}

	var end *time.Time
	if *periodEnd != "" {
		parsed, err := time.Parse(time.RFC3339, *periodEnd)
		if err != nil {
			logger.Fatal().Err(err).Msg("parse -period-end")
		}
		end = &parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	users := repo.NewUserRepository(infra.NewSQLRunner(pool, logger))
	user, err := users.UpdateEntitlement(ctx, *userID,
		domain.UserPlan(*plan), *credits, domain.SubscriptionStatus(*status), end)
	if err != nil {
		logger.Fatal().Err(err).Str("user_id", *userID).Msg("update entitlement")
	}

	logger.Info().
		Str("user_id", user.ID).
		Str("plan", string(user.Subscription.Plan)).
		Str("status", string(user.Subscription.Status)).
		Int("credits", user.Credits).
		Msg("entitlement updated")
}

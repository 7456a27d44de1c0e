package handlers

import (
	"net/http"
	"time"

	"server/internal/domain"
)

type usageStatsResponse struct {
	Plan            domain.UserPlan       `json:"plan"`
	Credits         int                   `json:"credits"`
	Subscription    subscriptionView      `json:"subscription"`
	Limits          domain.PlanLimits     `json:"limits"`
	CurrentMonth    domain.MonthlySummary `json:"currentMonth"`
	LifetimeQueries int                   `json:"lifetimeQueries"`
}

type subscriptionView struct {
	Status           domain.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time                `json:"currentPeriodEnd,omitempty"`
}

// UsageStats reports the caller's entitlement state and current-month usage.
// Monthly quotas are informational; enforcement happens on credits and
// subscription state.
func (a *App) UsageStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.currentUserID(w, r)
	if !ok {
		return
	}

	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.queryError(w, r, err)
		return
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	summary, err := a.Usage.MonthlySummary(r.Context(), userID, monthStart)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("monthly usage summary")
		a.error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	a.json(w, http.StatusOK, usageStatsResponse{
		Plan:    user.Subscription.Plan,
		Credits: user.Credits,
		Subscription: subscriptionView{
			Status:           user.Subscription.Status,
			CurrentPeriodEnd: user.Subscription.CurrentPeriodEnd,
		},
		Limits:          domain.GetPlanLimits(user.Subscription.Plan),
		CurrentMonth:    *summary,
		LifetimeQueries: user.Usage.TotalQueries,
	})
}

package domain

import "time"

// UserPlan enumerates billing plans.
type UserPlan string

const (
	UserPlanFree  UserPlan = "free"
	UserPlanBasic UserPlan = "basic"
	UserPlanPro   UserPlan = "pro"
)

// SubscriptionStatus enumerates subscription lifecycle states.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
)

// Subscription holds the billing state attached to a user.
type Subscription struct {
	Plan               UserPlan
	Status             SubscriptionStatus
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// UsageCounters tracks query counters maintained alongside the credit balance.
type UsageCounters struct {
	MonthlyQueries int
	TotalQueries   int
	LastResetDate  time.Time
}

// User represents an account together with its query entitlement state.
type User struct {
	ID           string
	Email        string
	Name         string
	Credits      int
	Subscription Subscription
	Usage        UsageCounters
	IsDeleted    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsFree reports whether the user is on the free plan.
func (u User) IsFree() bool {
	return u.Subscription.Plan == UserPlanFree
}

// CanMakeQuery reports whether the user is entitled to run a query right now.
// Free users spend credits; paid users need an active subscription whose
// period has not ended, regardless of their credit balance.
func (u User) CanMakeQuery() bool {
	if u.IsFree() {
		return u.Credits > 0
	}
	return u.Subscription.Status == SubscriptionActive &&
		u.Subscription.CurrentPeriodEnd != nil &&
		u.Subscription.CurrentPeriodEnd.After(time.Now())
}

// DeductCredits applies a completed query to the entitlement state. Credits
// move only on the free plan and never go below zero; the usage counters
// increment on every plan.
func (u *User) DeductCredits(amount int) {
	if u.IsFree() {
		u.Credits -= amount
		if u.Credits < 0 {
			u.Credits = 0
		}
	}
	u.Usage.MonthlyQueries++
	u.Usage.TotalQueries++
}

// UnlimitedQueries marks a plan without a monthly query cap.
const UnlimitedQueries = -1

// PlanLimits describes one row of the static per-plan quota table.
type PlanLimits struct {
	MaxQueriesPerMonth int `json:"queries"`
	MaxTokens          int `json:"maxTokens"`
}

var planLimits = map[UserPlan]PlanLimits{
	UserPlanFree:  {MaxQueriesPerMonth: 5, MaxTokens: 1000},
	UserPlanBasic: {MaxQueriesPerMonth: 100, MaxTokens: 4000},
	UserPlanPro:   {MaxQueriesPerMonth: UnlimitedQueries, MaxTokens: 8000},
}

// GetPlanLimits returns the limit table entry for a plan, defaulting to free.
func GetPlanLimits(plan UserPlan) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[UserPlanFree]
}

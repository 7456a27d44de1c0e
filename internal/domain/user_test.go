package domain

import (
	"testing"
	"time"
)

func TestCanMakeQuery(t *testing.T) {
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{
			name: "free with credits",
			user: User{Credits: 3, Subscription: Subscription{Plan: UserPlanFree}},
			want: true,
		},
		{
			name: "free with zero credits",
			user: User{Credits: 0, Subscription: Subscription{Plan: UserPlanFree}},
			want: false,
		},
		{
			name: "basic active in period",
			user: User{Subscription: Subscription{Plan: UserPlanBasic, Status: SubscriptionActive, CurrentPeriodEnd: &future}},
			want: true,
		},
		{
			name: "basic active in period with zero credits",
			user: User{Credits: 0, Subscription: Subscription{Plan: UserPlanBasic, Status: SubscriptionActive, CurrentPeriodEnd: &future}},
			want: true,
		},
		{
			name: "pro active but period ended",
			user: User{Subscription: Subscription{Plan: UserPlanPro, Status: SubscriptionActive, CurrentPeriodEnd: &past}},
			want: false,
		},
		{
			name: "pro canceled in period",
			user: User{Subscription: Subscription{Plan: UserPlanPro, Status: SubscriptionCanceled, CurrentPeriodEnd: &future}},
			want: false,
		},
		{
			name: "basic past due",
			user: User{Subscription: Subscription{Plan: UserPlanBasic, Status: SubscriptionPastDue, CurrentPeriodEnd: &future}},
			want: false,
		},
		{
			name: "pro active without period end",
			user: User{Subscription: Subscription{Plan: UserPlanPro, Status: SubscriptionActive}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.CanMakeQuery(); got != tt.want {
				t.Fatalf("CanMakeQuery() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeductCredits(t *testing.T) {
	t.Run("free plan spends credits and floors at zero", func(t *testing.T) {
		u := User{Credits: 2, Subscription: Subscription{Plan: UserPlanFree}}
		u.DeductCredits(5)
		if u.Credits != 0 {
			t.Fatalf("credits = %d, want 0", u.Credits)
		}
		if u.Usage.MonthlyQueries != 1 || u.Usage.TotalQueries != 1 {
			t.Fatalf("counters = %d/%d, want 1/1", u.Usage.MonthlyQueries, u.Usage.TotalQueries)
		}
	})

	t.Run("paid plan keeps balance but counts queries", func(t *testing.T) {
		u := User{Credits: 7, Subscription: Subscription{Plan: UserPlanPro}}
		u.DeductCredits(3)
		if u.Credits != 7 {
			t.Fatalf("credits = %d, want 7", u.Credits)
		}
		if u.Usage.TotalQueries != 1 {
			t.Fatalf("total queries = %d, want 1", u.Usage.TotalQueries)
		}
	})

	t.Run("zero deduction still counts the query", func(t *testing.T) {
		u := User{Credits: 4, Subscription: Subscription{Plan: UserPlanFree}}
		u.DeductCredits(0)
		if u.Credits != 4 {
			t.Fatalf("credits = %d, want 4", u.Credits)
		}
		if u.Usage.TotalQueries != 1 {
			t.Fatalf("total queries = %d, want 1", u.Usage.TotalQueries)
		}
	})
}

func TestGetPlanLimits(t *testing.T) {
	if got := GetPlanLimits(UserPlanPro); got.MaxQueriesPerMonth != UnlimitedQueries {
		t.Fatalf("pro monthly queries = %d, want unlimited", got.MaxQueriesPerMonth)
	}
	if got := GetPlanLimits(UserPlanBasic); got.MaxQueriesPerMonth != 100 || got.MaxTokens != 4000 {
		t.Fatalf("basic limits = %+v", got)
	}
	if got := GetPlanLimits(UserPlan("unknown")); got != GetPlanLimits(UserPlanFree) {
		t.Fatalf("unknown plan limits = %+v, want free defaults", got)
	}
}

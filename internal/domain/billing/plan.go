package billing

import "github.com/vidgist/vidgist-backend/internal/domain/user"

const (
	CreditCostStandard    = 1
	CreditCostDeepPer5Min = 15
	CreditCostChatMessage = 1
)

type PlanLimits struct {
	MaxDurationMinutes int
	DailyAnalysisLimit int
	DeepModeEnabled    bool
	MonthlyCredits     int
	AdsEnabled         bool
}

var planLimits = map[string]PlanLimits{
	user.PlanFree:     {MaxDurationMinutes: 10, DailyAnalysisLimit: 3, DeepModeEnabled: false, MonthlyCredits: 30, AdsEnabled: true},
	user.PlanLight:    {MaxDurationMinutes: 30, DailyAnalysisLimit: 20, DeepModeEnabled: false, MonthlyCredits: 500, AdsEnabled: false},
	user.PlanPro:      {MaxDurationMinutes: 60, DailyAnalysisLimit: 50, DeepModeEnabled: true, MonthlyCredits: 600, AdsEnabled: false},
	user.PlanBusiness: {MaxDurationMinutes: 120, DailyAnalysisLimit: 200, DeepModeEnabled: true, MonthlyCredits: 2500, AdsEnabled: false},
}

// LimitsForPlan falls back to the FREE limits for unknown plans.
func LimitsForPlan(plan string) PlanLimits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[user.PlanFree]
}

// DeepModeCredits bills 15 credits per started 5-minute band.
func DeepModeCredits(durationMinutes int) int {
	if durationMinutes <= 0 {
		return CreditCostDeepPer5Min
	}
	units := (durationMinutes + 4) / 5
	return units * CreditCostDeepPer5Min
}

package domain

import (
	"github.com/vidgist/vidgist-backend/internal/domain/analysis"
	"github.com/vidgist/vidgist-backend/internal/domain/billing"
	"github.com/vidgist/vidgist-backend/internal/domain/notion"
	"github.com/vidgist/vidgist-backend/internal/domain/user"
)

type Profile = user.Profile
type DailyUsage = user.DailyUsage

type CreditTransaction = billing.CreditTransaction
type PlanLimits = billing.PlanLimits

type AnalysisJob = analysis.Job
type AnalysisResult = analysis.Result
type ResultPayload = analysis.ResultPayload
type TimelineItem = analysis.TimelineItem
type TimelinePoint = analysis.TimelinePoint
type VisualAuditItem = analysis.VisualAuditItem
type ChatSession = analysis.Session

type NotionIntegration = notion.Integration
type NotionExport = notion.Export
type NotionOAuthState = notion.OAuthState

const (
	PlanFree     = user.PlanFree
	PlanLight    = user.PlanLight
	PlanPro      = user.PlanPro
	PlanBusiness = user.PlanBusiness

	TxTypeCharge = billing.TxTypeCharge
	TxTypeUse    = billing.TxTypeUse
	TxTypeRefund = billing.TxTypeRefund
	TxTypeExpire = billing.TxTypeExpire
	TxTypeBonus  = billing.TxTypeBonus
	TxTypeReward = billing.TxTypeReward

	ModeStandard = analysis.ModeStandard
	ModeDeep     = analysis.ModeDeep

	JobStatusPending    = analysis.StatusPending
	JobStatusProcessing = analysis.StatusProcessing
	JobStatusCompleted  = analysis.StatusCompleted
	JobStatusFailed     = analysis.StatusFailed
)

const (
	CreditCostStandard    = billing.CreditCostStandard
	CreditCostDeepPer5Min = billing.CreditCostDeepPer5Min
	CreditCostChatMessage = billing.CreditCostChatMessage
)

// JobTerminalStatuses are the states no job ever leaves.
var JobTerminalStatuses = analysis.TerminalStatuses

// ValidAnalysisMode reports whether mode is STANDARD or DEEP.
func ValidAnalysisMode(mode string) bool { return analysis.ValidMode(mode) }

// LimitsForPlan falls back to the FREE limits for unknown plans.
func LimitsForPlan(plan string) PlanLimits { return billing.LimitsForPlan(plan) }

// DeepModeCredits bills 15 credits per started 5-minute band.
func DeepModeCredits(durationMinutes int) int { return billing.DeepModeCredits(durationMinutes) }

// Package users exposes the backend's profile surface (/auth/me and the
// onboarding endpoints) and the Profile model.
package users

import "time"

// RepaymentStrategy selects the order debts are paid down in.
type RepaymentStrategy string

const (
	StrategyAvalanche RepaymentStrategy = "avalanche" // highest interest rate first
	StrategySnowball  RepaymentStrategy = "snowball"  // lowest balance first
)

// NotificationFrequency controls reminder cadence.
type NotificationFrequency string

const (
	NotifyDaily  NotificationFrequency = "daily"
	NotifyWeekly NotificationFrequency = "weekly"
	NotifyCustom NotificationFrequency = "custom"
)

// Profile is the backend's representation of the authenticated user. It is
// keyed by the session's subject id; a profile must never be shown for a
// different identity than the one the current session belongs to.
type Profile struct {
	ID                    string                `json:"id"`
	Email                 string                `json:"email"`
	FullName              *string               `json:"full_name,omitempty"`
	AvatarURL             *string               `json:"avatar_url,omitempty"`
	Timezone              string                `json:"timezone"`
	Language              string                `json:"language"`
	RepaymentStrategy     RepaymentStrategy     `json:"repayment_strategy"`
	NotificationEnabled   bool                  `json:"notification_enabled"`
	NotificationFrequency NotificationFrequency `json:"notification_frequency"`
	OnboardingCompleted   bool                  `json:"onboarding_completed"`
	CreatedAt             time.Time             `json:"created_at"`
}

// ProfileUpdate carries the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	FullName              *string                `json:"full_name,omitempty"`
	Timezone              *string                `json:"timezone,omitempty"`
	Language              *string                `json:"language,omitempty"`
	RepaymentStrategy     *RepaymentStrategy     `json:"repayment_strategy,omitempty"`
	NotificationEnabled   *bool                  `json:"notification_enabled,omitempty"`
	NotificationTime      *string                `json:"notification_time,omitempty"`
	NotificationFrequency *NotificationFrequency `json:"notification_frequency,omitempty"`
}

// OnboardingComplete finishes onboarding with the user's initial financial
// figures. Values arrive pre-encrypted; this client never sees plaintext
// amounts.
type OnboardingComplete struct {
	MonthlyIncomeEncrypted    string `json:"monthly_income_encrypted"`
	MonthlyExpensesEncrypted  string `json:"monthly_expenses_encrypted"`
	AvailableForDebtEncrypted string `json:"available_for_debt_encrypted"`
	TermsAccepted             bool   `json:"terms_accepted"`
}

// OnboardingStatus reports whether onboarding has been completed.
type OnboardingStatus struct {
	Completed        bool `json:"completed"`
	HasFinancialData bool `json:"has_financial_data"`
}

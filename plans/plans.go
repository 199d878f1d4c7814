// Package plans wraps the repayment-plan surface. Generation,
// recalculation, and simulation are asynchronous: the backend answers with
// a job id and the caller awaits the result through the jobs poller.
package plans

import "time"

// Status of a repayment plan.
type Status string

const (
	StatusActive    Status = "active"
	StatusArchived  Status = "archived"
	StatusCompleted Status = "completed"
)

// Strategy mirrors users.RepaymentStrategy for plan requests.
type Strategy string

const (
	StrategyAvalanche Strategy = "avalanche"
	StrategySnowball  Strategy = "snowball"
)

// Request parameterizes plan generation, recalculation, and simulation.
type Request struct {
	Strategy            Strategy `json:"strategy"`
	ExtraMonthlyPayment float64  `json:"extra_monthly_payment"`
	StartDate           *string  `json:"start_date,omitempty"` // YYYY-MM-DD
	CustomMonthlyBudget *float64 `json:"custom_monthly_budget,omitempty"`
	AvailableForDebt    *float64 `json:"available_for_debt,omitempty"`
}

// DebtPayoff describes when a single debt is retired under the plan.
type DebtPayoff struct {
	DebtID            string  `json:"debt_id"`
	DebtName          string  `json:"debt_name"`
	PayoffMonth       int     `json:"payoff_month"`
	PayoffDate        string  `json:"payoff_date"`
	TotalInterestPaid float64 `json:"total_interest_paid"`
	TotalPaid         float64 `json:"total_paid"`
}

// Projection is one month's aggregate trajectory point.
type Projection struct {
	Month                   int     `json:"month"`
	Date                    string  `json:"date"`
	TotalRemaining          float64 `json:"total_remaining"`
	CumulativeInterestPaid  float64 `json:"cumulative_interest_paid"`
	CumulativePrincipalPaid float64 `json:"cumulative_principal_paid"`
}

// Plan is a computed repayment plan. All arithmetic happens server side;
// the client only presents it.
type Plan struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Status         Status       `json:"status"`
	Strategy       Strategy     `json:"strategy"`
	DebtFreeDate   string       `json:"debt_free_date"`
	TotalMonths    int          `json:"total_months"`
	TotalInterest  float64      `json:"total_interest"`
	TotalPaid      float64      `json:"total_paid"`
	InterestSaved  float64      `json:"interest_saved"`
	MonthsSaved    int          `json:"months_saved"`
	MonthlyPayment float64      `json:"monthly_payment"`
	ExtraPayment   float64      `json:"extra_payment"`
	DebtPayoffs    []DebtPayoff `json:"debt_payoffs,omitempty"`
	Projections    []Projection `json:"projections,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Summary is the dashboard view of the active plan.
type Summary struct {
	DebtFreeDate   string  `json:"debt_free_date"`
	TotalMonths    int     `json:"total_months"`
	MonthsElapsed  int     `json:"months_elapsed"`
	TotalRemaining float64 `json:"total_remaining"`
	InterestSaved  float64 `json:"interest_saved"`
	OnTrack        bool    `json:"on_track"`
}

// Simulation compares a hypothetical scenario against the active plan
// without replacing it.
type Simulation struct {
	Plan             Plan    `json:"plan"`
	MonthsDifference int     `json:"months_difference"`
	InterestSavings  float64 `json:"interest_savings"`
}

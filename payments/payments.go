// Package payments wraps the backend's payment-logging surface.
package payments

import "time"

// Method records how a payment was made.
type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCard         Method = "card"
	MethodCash         Method = "cash"
	MethodOther        Method = "other"
)

// Payment is a logged repayment against a debt.
type Payment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	DebtID        string    `json:"debt_id"`
	PlanID        *string   `json:"plan_id,omitempty"`
	Amount        float64   `json:"amount"`
	PaymentDate   string    `json:"payment_date"` // YYYY-MM-DD
	PaymentMethod *string   `json:"payment_method,omitempty"`
	Confirmed     bool      `json:"confirmed"`
	NewBalance    float64   `json:"new_balance"`
	InterestSaved *float64  `json:"interest_saved,omitempty"`
	Notes         *string   `json:"notes,omitempty"`
	DebtName      *string   `json:"debt_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Create logs a new payment.
type Create struct {
	DebtID        string   `json:"debt_id"`
	Amount        float64  `json:"amount"`
	PaymentDate   *string  `json:"payment_date,omitempty"`
	PaymentMethod *Method  `json:"payment_method,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	NewBalance    *float64 `json:"new_balance,omitempty"`
}

// Update carries changed fields; nil means unchanged.
type Update struct {
	Amount        *float64 `json:"amount,omitempty"`
	PaymentDate   *string  `json:"payment_date,omitempty"`
	PaymentMethod *Method  `json:"payment_method,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
	Confirmed     *bool    `json:"confirmed,omitempty"`
}

// Milestone is a payoff milestone reached by a payment.
type Milestone struct {
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount,omitempty"`
}

// LoggedPayment is the log response: the payment plus any milestones it
// triggered.
type LoggedPayment struct {
	Payment
	Milestones []Milestone `json:"milestones,omitempty"`
}

// ListResponse pages the user's payments.
type ListResponse struct {
	Payments    []Payment `json:"payments"`
	TotalCount  int       `json:"total_count"`
	TotalAmount float64   `json:"total_amount"`
}

// Stats summarizes repayment activity.
type Stats struct {
	TotalPayments      int     `json:"total_payments"`
	TotalAmountPaid    float64 `json:"total_amount_paid"`
	TotalInterestSaved float64 `json:"total_interest_saved"`
	PaymentsThisMonth  int     `json:"payments_this_month"`
	AmountThisMonth    float64 `json:"amount_this_month"`
	PaymentsLast30Days int     `json:"payments_last_30_days"`
}

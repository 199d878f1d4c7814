// Package debts wraps the backend's debt CRUD surface. Balances arrive
// plaintext; the backend encrypts at rest.
package debts

import "time"

// Type classifies a debt.
type Type string

const (
	TypeCreditCard   Type = "credit_card"
	TypePersonalLoan Type = "personal_loan"
	TypeStudentLoan  Type = "student_loan"
	TypeMortgage     Type = "mortgage"
	TypeAutoLoan     Type = "auto_loan"
	TypeMedical      Type = "medical_bill"
	TypeOther        Type = "other"
)

// Debt is a single tracked liability.
type Debt struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	CreditorName       string     `json:"creditor_name"`
	DebtType           Type       `json:"debt_type"`
	Balance            float64    `json:"balance"`
	APR                float64    `json:"apr"`
	MinimumPayment     float64    `json:"minimum_payment"`
	AccountNumberLast4 *string    `json:"account_number_last4,omitempty"`
	DueDate            *int       `json:"due_date,omitempty"` // day of month
	Notes              *string    `json:"notes,omitempty"`
	IsActive           bool       `json:"is_active"`
	IsPaidOff          bool       `json:"is_paid_off"`
	PaidOffAt          *time.Time `json:"paid_off_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Create is the payload for a new debt.
type Create struct {
	CreditorName       string  `json:"creditor_name"`
	DebtType           Type    `json:"debt_type"`
	Balance            float64 `json:"balance"`
	APR                float64 `json:"apr"`
	MinimumPayment     float64 `json:"minimum_payment"`
	AccountNumberLast4 *string `json:"account_number_last4,omitempty"`
	DueDate            *int    `json:"due_date,omitempty"`
	Notes              *string `json:"notes,omitempty"`
}

// Update carries changed fields; nil means unchanged.
type Update struct {
	CreditorName       *string  `json:"creditor_name,omitempty"`
	DebtType           *Type    `json:"debt_type,omitempty"`
	Balance            *float64 `json:"balance,omitempty"`
	APR                *float64 `json:"apr,omitempty"`
	MinimumPayment     *float64 `json:"minimum_payment,omitempty"`
	AccountNumberLast4 *string  `json:"account_number_last4,omitempty"`
	DueDate            *int     `json:"due_date,omitempty"`
	Notes              *string  `json:"notes,omitempty"`
	IsActive           *bool    `json:"is_active,omitempty"`
}

// Summary aggregates the user's debts, computed server side.
type Summary struct {
	TotalDebts   int `json:"total_debts"`
	ActiveDebts  int `json:"active_debts"`
	PaidOffDebts int `json:"paid_off_debts"`
}

// ListResponse pairs the debts with their summary.
type ListResponse struct {
	Debts   []Debt  `json:"debts"`
	Summary Summary `json:"summary"`
}

// Package uploads wraps document upload and OCR processing. Uploading
// creates a background job; the extracted debts are retrieved by polling
// the upload's own status endpoint, which mirrors the generic job
// semantics with a bespoke payload shape.
package uploads

import "time"

// Status of an upload/OCR job. Completed and Failed are terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// DocumentType classifies the uploaded statement.
type DocumentType string

const (
	DocBankStatement       DocumentType = "bank_statement"
	DocCreditCardStatement DocumentType = "credit_card_statement"
	DocLoanStatement       DocumentType = "loan_statement"
	DocOther               DocumentType = "other"
)

// ExtractedDebt is one debt the OCR pass recognized in the document.
type ExtractedDebt struct {
	CreditorName       string   `json:"creditor_name"`
	DebtType           string   `json:"debt_type"`
	Balance            float64  `json:"balance"`
	APR                *float64 `json:"apr,omitempty"`
	MinimumPayment     *float64 `json:"minimum_payment,omitempty"`
	AccountNumberLast4 *string  `json:"account_number_last4,omitempty"`
	DueDate            *int     `json:"due_date,omitempty"`
	ConfidenceScore    float64  `json:"confidence_score"`
}

// OCRResult is the completed extraction.
type OCRResult struct {
	UploadID          string          `json:"upload_id"`
	Status            Status          `json:"status"`
	ExtractedDebts    []ExtractedDebt `json:"extracted_debts"`
	RawText           *string         `json:"raw_text,omitempty"`
	OverallConfidence float64         `json:"overall_confidence"`
	ProcessingTimeMS  *int            `json:"processing_time_ms,omitempty"`
	ErrorMessage      *string         `json:"error_message,omitempty"`
	ProcessedAt       *time.Time      `json:"processed_at,omitempty"`
}

// StatusResponse is the bespoke poll payload for uploads.
type StatusResponse struct {
	ID                 string     `json:"id"`
	Status             Status     `json:"status"`
	ProgressPercentage int        `json:"progress_percentage"`
	Result             *OCRResult `json:"result,omitempty"`
	ErrorMessage       *string    `json:"error_message,omitempty"`
}

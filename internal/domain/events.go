package domain

const (
	EventTypeLoanCreated = "loan.created"
	EventTypeLoanUpdated = "loan.updated"
	EventTypeLoanDeleted = "loan.deleted"
)

// LoanEventPayload is the outbox payload emitted for loan lifecycle events.
type LoanEventPayload struct {
	LoanID     string  `json:"loan_id"`
	BorrowerID string  `json:"borrower_id"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"`
}

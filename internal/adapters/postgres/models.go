package postgres

import (
	"time"

	"github.com/google/uuid"
)

type loanModel struct {
	LoanID          uuid.UUID `gorm:"column:loan_id;type:uuid;default:gen_random_uuid();primaryKey"`
	BorrowerID      string    `gorm:"column:borrower_id"`
	Amount          float64   `gorm:"column:amount"`
	Currency        string    `gorm:"column:currency"`
	TermMonths      int       `gorm:"column:term_months"`
	InterestRateAPR float64   `gorm:"column:interest_rate_apr"`
	Status          string    `gorm:"column:status"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (loanModel) TableName() string { return "loans" }

type loanOutboxModel struct {
	RecordID    uuid.UUID  `gorm:"column:record_id;type:uuid;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     string     `gorm:"column:payload;type:jsonb"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
	RetryCount  int        `gorm:"column:retry_count"`
	LastError   *string    `gorm:"column:last_error"`
	ClaimUntil  *time.Time `gorm:"column:claim_until"`
}

func (loanOutboxModel) TableName() string { return "loan_outbox" }

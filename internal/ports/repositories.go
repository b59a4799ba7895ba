package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/domain"
)

// LoanFilter narrows List results. Zero values mean "no filter".
type LoanFilter struct {
	Status     string
	BorrowerID string
}

type LoanRepository interface {
	// CreateWithOutboxTx persists the loan and its outbox event in one transaction.
	CreateWithOutboxTx(ctx context.Context, loan domain.Loan, event OutboxEvent) error
	GetByID(ctx context.Context, loanID uuid.UUID) (domain.Loan, error)
	List(ctx context.Context, filter LoanFilter) ([]domain.Loan, error)
	// UpdateWithOutboxTx persists the changed loan and its outbox event in one
	// transaction. The write only lands when the stored status still equals
	// expectedStatus; a concurrent transition surfaces as domain.ErrConflict so
	// a stale validation can never move a loan out of a terminal state.
	UpdateWithOutboxTx(ctx context.Context, loan domain.Loan, expectedStatus string, event OutboxEvent) error
	// DeleteWithOutboxTx removes the loan and records its outbox event in one transaction.
	DeleteWithOutboxTx(ctx context.Context, loanID uuid.UUID, event OutboxEvent) error
	Stats(ctx context.Context) (domain.LoanStats, error)
}

type OutboxRecord struct {
	RecordID    uuid.UUID
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	PublishedAt *time.Time
	RetryCount  int
	LastError   *string
	ClaimUntil  *time.Time
}

type OutboxRepository interface {
	// ClaimPending marks up to limit unpublished records as claimed until now+claimTTL
	// and returns them. Records already claimed by another worker are skipped, which
	// keeps pre-forked workers from double-publishing.
	ClaimPending(ctx context.Context, limit int, claimTTL time.Duration, now time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, recordID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, recordID uuid.UUID, reason string, at time.Time) error
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
)

func outboxEvent(eventType string) ports.OutboxEvent {
	return ports.OutboxEvent{
		EventID:    uuid.New(),
		EventType:  eventType,
		Payload:    []byte(`{}`),
		OccurredAt: time.Now().UTC(),
	}
}

func TestUpdateWithOutboxTxRejectsStaleStatus(t *testing.T) {
	repos := NewRepositories()
	loan := domain.Loan{
		LoanID:     uuid.New(),
		BorrowerID: "b1",
		Amount:     1000,
		Currency:   "USD",
		TermMonths: 12,
		Status:     domain.LoanStatusActive,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := repos.Loans.CreateWithOutboxTx(context.Background(), loan, outboxEvent(domain.EventTypeLoanCreated)); err != nil {
		t.Fatalf("CreateWithOutboxTx: %v", err)
	}

	// Two writers validated against the same active snapshot. The first lands.
	repaid := loan
	repaid.Status = domain.LoanStatusRepaid
	if err := repos.Loans.UpdateWithOutboxTx(context.Background(), repaid, domain.LoanStatusActive, outboxEvent(domain.EventTypeLoanUpdated)); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// The second must not move the loan out of its terminal state.
	defaulted := loan
	defaulted.Status = domain.LoanStatusDefaulted
	err := repos.Loans.UpdateWithOutboxTx(context.Background(), defaulted, domain.LoanStatusActive, outboxEvent(domain.EventTypeLoanUpdated))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("stale update must fail with ErrConflict, got %v", err)
	}

	stored, err := repos.Loans.GetByID(context.Background(), loan.LoanID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != domain.LoanStatusRepaid {
		t.Fatalf("loan left terminal state: got %q", stored.Status)
	}
	if pending := repos.Outbox.Pending(); len(pending) != 2 {
		t.Fatalf("rejected update must not enqueue an event, got %d pending", len(pending))
	}
}

func TestUpdateWithOutboxTxMissingLoan(t *testing.T) {
	repos := NewRepositories()
	loan := domain.Loan{LoanID: uuid.New(), Status: domain.LoanStatusActive}

	err := repos.Loans.UpdateWithOutboxTx(context.Background(), loan, domain.LoanStatusPending, outboxEvent(domain.EventTypeLoanUpdated))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

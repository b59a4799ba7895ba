package postgres

import (
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
)

func toDomainLoan(rec loanModel) domain.Loan {
	return domain.Loan{
		LoanID:          rec.LoanID,
		BorrowerID:      rec.BorrowerID,
		Amount:          rec.Amount,
		Currency:        rec.Currency,
		TermMonths:      rec.TermMonths,
		InterestRateAPR: rec.InterestRateAPR,
		Status:          rec.Status,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
}

func toLoanModel(loan domain.Loan) loanModel {
	return loanModel{
		LoanID:          loan.LoanID,
		BorrowerID:      loan.BorrowerID,
		Amount:          loan.Amount,
		Currency:        loan.Currency,
		TermMonths:      loan.TermMonths,
		InterestRateAPR: loan.InterestRateAPR,
		Status:          loan.Status,
		CreatedAt:       loan.CreatedAt,
		UpdatedAt:       loan.UpdatedAt,
	}
}

func toOutboxModel(event ports.OutboxEvent) loanOutboxModel {
	return loanOutboxModel{
		RecordID:  event.EventID,
		EventType: event.EventType,
		Payload:   string(event.Payload),
		CreatedAt: event.OccurredAt,
	}
}

func toOutboxRecord(rec loanOutboxModel) ports.OutboxRecord {
	return ports.OutboxRecord{
		RecordID:    rec.RecordID,
		EventType:   rec.EventType,
		Payload:     []byte(rec.Payload),
		CreatedAt:   rec.CreatedAt,
		PublishedAt: rec.PublishedAt,
		RetryCount:  rec.RetryCount,
		LastError:   rec.LastError,
		ClaimUntil:  rec.ClaimUntil,
	}
}

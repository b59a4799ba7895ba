package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	LoanStatusPending   = "pending"
	LoanStatusActive    = "active"
	LoanStatusRepaid    = "repaid"
	LoanStatusDefaulted = "defaulted"
)

type Loan struct {
	LoanID          uuid.UUID
	BorrowerID      string
	Amount          float64
	Currency        string
	TermMonths      int
	InterestRateAPR float64
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type LoanStats struct {
	TotalLoans  int64
	TotalAmount float64
	AvgAmount   float64
	ByStatus    map[string]int64
	ByCurrency  map[string]int64
}

// ValidStatus reports whether s is one of the known loan lifecycle states.
func ValidStatus(s string) bool {
	switch s {
	case LoanStatusPending, LoanStatusActive, LoanStatusRepaid, LoanStatusDefaulted:
		return true
	}
	return false
}

// ValidateTransition enforces the loan lifecycle:
// pending -> active, active -> repaid, active -> defaulted.
// Terminal states never transition.
func ValidateTransition(from, to string) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, to)
	}
	allowed := map[string][]string{
		LoanStatusPending: {LoanStatusActive},
		LoanStatusActive:  {LoanStatusRepaid, LoanStatusDefaulted},
	}
	for _, next := range allowed[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

package application

import (
	"time"

	"github.com/google/uuid"
)

type Config struct {
	StatsCacheTTL time.Duration
}

type CreateLoanRequest struct {
	BorrowerID      string  `json:"borrower_id"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	TermMonths      int     `json:"term_months"`
	InterestRateAPR float64 `json:"interest_rate_apr"`
}

type UpdateLoanRequest struct {
	Status string `json:"status"`
}

type LoanResponse struct {
	LoanID          uuid.UUID `json:"loan_id"`
	BorrowerID      string    `json:"borrower_id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	TermMonths      int       `json:"term_months"`
	InterestRateAPR float64   `json:"interest_rate_apr"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StatsResponse matches the aggregation shape served by /api/stats.
type StatsResponse struct {
	TotalLoans  int64            `json:"total_loans"`
	TotalAmount float64          `json:"total_amount"`
	AvgAmount   float64          `json:"avg_amount"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByCurrency  map[string]int64 `json:"by_currency"`
}

package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/adapters/memory"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
)

func newTestService() (*Service, *memory.Repositories, *memory.StatsCache) {
	repos := memory.NewRepositories()
	cache := memory.NewStatsCache()
	svc := NewService(Dependencies{
		Config: Config{StatsCacheTTL: time.Minute},
		Loans:  repos.Loans,
		Stats:  cache,
	})
	return svc, repos, cache
}

func validCreateRequest() CreateLoanRequest {
	return CreateLoanRequest{
		BorrowerID:      "borrower_123",
		Amount:          5000,
		Currency:        "INR",
		TermMonths:      12,
		InterestRateAPR: 15,
	}
}

func TestCreateLoanStartsPendingAndEnqueuesEvent(t *testing.T) {
	svc, repos, _ := newTestService()

	loan, err := svc.CreateLoan(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if loan.Status != domain.LoanStatusPending {
		t.Fatalf("new loans must start pending, got %q", loan.Status)
	}
	if loan.LoanID == uuid.Nil {
		t.Fatal("expected a generated loan id")
	}

	pending := repos.Outbox.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(pending))
	}
	if pending[0].EventType != domain.EventTypeLoanCreated {
		t.Fatalf("expected %s event, got %s", domain.EventTypeLoanCreated, pending[0].EventType)
	}
}

func TestCreateLoanNormalizesCurrency(t *testing.T) {
	svc, _, _ := newTestService()

	req := validCreateRequest()
	req.Currency = " inr "
	loan, err := svc.CreateLoan(context.Background(), req)
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if loan.Currency != "INR" {
		t.Fatalf("expected normalized currency INR, got %q", loan.Currency)
	}
}

func TestCreateLoanValidation(t *testing.T) {
	svc, _, _ := newTestService()

	cases := map[string]func(*CreateLoanRequest){
		"missing borrower": func(r *CreateLoanRequest) { r.BorrowerID = "  " },
		"zero amount":      func(r *CreateLoanRequest) { r.Amount = 0 },
		"negative amount":  func(r *CreateLoanRequest) { r.Amount = -10 },
		"short currency":   func(r *CreateLoanRequest) { r.Currency = "EU" },
		"digit currency":   func(r *CreateLoanRequest) { r.Currency = "E42" },
		"zero term":        func(r *CreateLoanRequest) { r.TermMonths = 0 },
		"negative apr":     func(r *CreateLoanRequest) { r.InterestRateAPR = -1 },
	}
	for name, mutate := range cases {
		req := validCreateRequest()
		mutate(&req)
		if _, err := svc.CreateLoan(context.Background(), req); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", name, err)
		}
	}
}

func TestGetLoanNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.GetLoan(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateLoanStatusTransitions(t *testing.T) {
	svc, repos, _ := newTestService()

	loan, err := svc.CreateLoan(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}

	updated, err := svc.UpdateLoanStatus(context.Background(), loan.LoanID, UpdateLoanRequest{Status: "active"})
	if err != nil {
		t.Fatalf("UpdateLoanStatus: %v", err)
	}
	if updated.Status != domain.LoanStatusActive {
		t.Fatalf("expected active, got %q", updated.Status)
	}

	if _, err := svc.UpdateLoanStatus(context.Background(), loan.LoanID, UpdateLoanRequest{Status: "pending"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	pending := repos.Outbox.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected create+update events, got %d", len(pending))
	}
	if pending[1].EventType != domain.EventTypeLoanUpdated {
		t.Fatalf("expected %s event, got %s", domain.EventTypeLoanUpdated, pending[1].EventType)
	}
}

func TestDeleteLoan(t *testing.T) {
	svc, repos, _ := newTestService()

	loan, err := svc.CreateLoan(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if err := svc.DeleteLoan(context.Background(), loan.LoanID); err != nil {
		t.Fatalf("DeleteLoan: %v", err)
	}
	if _, err := svc.GetLoan(context.Background(), loan.LoanID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	pending := repos.Outbox.Pending()
	if len(pending) != 2 {
		t.Fatalf("expected create+delete events, got %d", len(pending))
	}
	if pending[1].EventType != domain.EventTypeLoanDeleted {
		t.Fatalf("expected %s event, got %s", domain.EventTypeLoanDeleted, pending[1].EventType)
	}
}

func TestListLoansRejectsUnknownStatusFilter(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.ListLoans(context.Background(), ports.LoanFilter{Status: "cancelled"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatsAggregatesAndCaches(t *testing.T) {
	svc, _, cache := newTestService()

	reqs := []CreateLoanRequest{
		{BorrowerID: "b1", Amount: 1000, Currency: "USD", TermMonths: 6, InterestRateAPR: 10},
		{BorrowerID: "b2", Amount: 3000, Currency: "USD", TermMonths: 12, InterestRateAPR: 12},
		{BorrowerID: "b3", Amount: 2000, Currency: "INR", TermMonths: 24, InterestRateAPR: 14},
	}
	for _, req := range reqs {
		if _, err := svc.CreateLoan(context.Background(), req); err != nil {
			t.Fatalf("CreateLoan: %v", err)
		}
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalLoans != 3 {
		t.Fatalf("expected 3 loans, got %d", stats.TotalLoans)
	}
	if stats.TotalAmount != 6000 {
		t.Fatalf("expected total 6000, got %f", stats.TotalAmount)
	}
	if stats.AvgAmount != 2000 {
		t.Fatalf("expected avg 2000, got %f", stats.AvgAmount)
	}
	if stats.ByStatus[domain.LoanStatusPending] != 3 {
		t.Fatalf("expected 3 pending, got %d", stats.ByStatus[domain.LoanStatusPending])
	}
	if stats.ByCurrency["USD"] != 2 || stats.ByCurrency["INR"] != 1 {
		t.Fatalf("unexpected currency buckets: %v", stats.ByCurrency)
	}

	if _, ok, _ := cache.Get(context.Background()); !ok {
		t.Fatal("stats read should populate the cache")
	}

	// A write invalidates, so the next read recomputes.
	if _, err := svc.CreateLoan(context.Background(), validCreateRequest()); err != nil {
		t.Fatalf("CreateLoan: %v", err)
	}
	if _, ok, _ := cache.Get(context.Background()); ok {
		t.Fatal("writes must invalidate the stats cache")
	}
	stats, err = svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalLoans != 4 {
		t.Fatalf("expected 4 loans after write, got %d", stats.TotalLoans)
	}
}

func TestStatsEmptyDatasetHasZeroAverage(t *testing.T) {
	svc, _, _ := newTestService()

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalLoans != 0 || stats.AvgAmount != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}
	if stats.ByStatus == nil || stats.ByCurrency == nil {
		t.Fatal("stats maps must be non-nil for JSON encoding")
	}
}

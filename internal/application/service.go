package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
)

type Service struct {
	cfg   Config
	loans ports.LoanRepository
	stats ports.StatsCache
	nowFn func() time.Time
	newID func() uuid.UUID
}

type Dependencies struct {
	Config Config
	Loans  ports.LoanRepository
	Stats  ports.StatsCache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 30 * time.Second
	}
	return &Service{
		cfg:   cfg,
		loans: deps.Loans,
		stats: deps.Stats,
		nowFn: func() time.Time { return time.Now().UTC() },
		newID: uuid.New,
	}
}

func (s *Service) CreateLoan(ctx context.Context, req CreateLoanRequest) (LoanResponse, error) {
	borrowerID := strings.TrimSpace(req.BorrowerID)
	if borrowerID == "" {
		return LoanResponse{}, fmt.Errorf("%w: borrower_id is required", domain.ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return LoanResponse{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	currency, err := normalizeCurrency(req.Currency)
	if err != nil {
		return LoanResponse{}, err
	}
	if req.TermMonths <= 0 {
		return LoanResponse{}, fmt.Errorf("%w: term_months must be positive", domain.ErrInvalidInput)
	}
	if req.InterestRateAPR < 0 {
		return LoanResponse{}, fmt.Errorf("%w: interest_rate_apr must not be negative", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	loan := domain.Loan{
		LoanID:          s.newID(),
		BorrowerID:      borrowerID,
		Amount:          req.Amount,
		Currency:        currency,
		TermMonths:      req.TermMonths,
		InterestRateAPR: req.InterestRateAPR,
		Status:          domain.LoanStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	event, err := s.loanEvent(domain.EventTypeLoanCreated, loan, now)
	if err != nil {
		return LoanResponse{}, err
	}
	if err := s.loans.CreateWithOutboxTx(ctx, loan, event); err != nil {
		return LoanResponse{}, fmt.Errorf("create loan: %w", err)
	}
	s.invalidateStats(ctx)
	return toLoanResponse(loan), nil
}

func (s *Service) GetLoan(ctx context.Context, loanID uuid.UUID) (LoanResponse, error) {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}

func (s *Service) ListLoans(ctx context.Context, filter ports.LoanFilter) ([]LoanResponse, error) {
	if filter.Status != "" && !domain.ValidStatus(filter.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, filter.Status)
	}
	loans, err := s.loans.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	out := make([]LoanResponse, 0, len(loans))
	for _, loan := range loans {
		out = append(out, toLoanResponse(loan))
	}
	return out, nil
}

func (s *Service) UpdateLoanStatus(ctx context.Context, loanID uuid.UUID, req UpdateLoanRequest) (LoanResponse, error) {
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		return LoanResponse{}, fmt.Errorf("%w: status is required", domain.ErrInvalidInput)
	}

	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return LoanResponse{}, err
	}
	if err := domain.ValidateTransition(loan.Status, status); err != nil {
		return LoanResponse{}, err
	}

	now := s.nowFn()
	priorStatus := loan.Status
	loan.Status = status
	loan.UpdatedAt = now

	event, err := s.loanEvent(domain.EventTypeLoanUpdated, loan, now)
	if err != nil {
		return LoanResponse{}, err
	}
	if err := s.loans.UpdateWithOutboxTx(ctx, loan, priorStatus, event); err != nil {
		return LoanResponse{}, fmt.Errorf("update loan: %w", err)
	}
	s.invalidateStats(ctx)
	return toLoanResponse(loan), nil
}

func (s *Service) DeleteLoan(ctx context.Context, loanID uuid.UUID) error {
	loan, err := s.loans.GetByID(ctx, loanID)
	if err != nil {
		return err
	}

	now := s.nowFn()
	event, err := s.loanEvent(domain.EventTypeLoanDeleted, loan, now)
	if err != nil {
		return err
	}
	if err := s.loans.DeleteWithOutboxTx(ctx, loanID, event); err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *Service) Stats(ctx context.Context) (StatsResponse, error) {
	if s.stats != nil {
		if cached, ok, err := s.stats.Get(ctx); err == nil && ok {
			return toStatsResponse(cached), nil
		}
	}

	stats, err := s.loans.Stats(ctx)
	if err != nil {
		return StatsResponse{}, fmt.Errorf("aggregate stats: %w", err)
	}
	if s.stats != nil {
		// Best effort: a cache write failure must not fail the read.
		_ = s.stats.Set(ctx, stats, s.cfg.StatsCacheTTL)
	}
	return toStatsResponse(stats), nil
}

func (s *Service) loanEvent(eventType string, loan domain.Loan, now time.Time) (ports.OutboxEvent, error) {
	payload, err := json.Marshal(domain.LoanEventPayload{
		LoanID:     loan.LoanID.String(),
		BorrowerID: loan.BorrowerID,
		Amount:     loan.Amount,
		Currency:   loan.Currency,
		Status:     loan.Status,
	})
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:    s.newID(),
		EventType:  eventType,
		Payload:    payload,
		OccurredAt: now,
	}, nil
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.stats == nil {
		return
	}
	_ = s.stats.Invalidate(ctx)
}

func normalizeCurrency(raw string) (string, error) {
	currency := strings.ToUpper(strings.TrimSpace(raw))
	if len(currency) != 3 {
		return "", fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidInput)
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidInput)
		}
	}
	return currency, nil
}

func toLoanResponse(loan domain.Loan) LoanResponse {
	return LoanResponse{
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

func toStatsResponse(stats domain.LoanStats) StatsResponse {
	byStatus := stats.ByStatus
	if byStatus == nil {
		byStatus = map[string]int64{}
	}
	byCurrency := stats.ByCurrency
	if byCurrency == nil {
		byCurrency = map[string]int64{}
	}
	return StatsResponse{
		TotalLoans:  stats.TotalLoans,
		TotalAmount: stats.TotalAmount,
		AvgAmount:   stats.AvgAmount,
		ByStatus:    byStatus,
		ByCurrency:  byCurrency,
	}
}

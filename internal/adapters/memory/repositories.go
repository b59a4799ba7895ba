// Package memory provides in-memory implementations of the service ports.
// They back unit tests and mirror the semantics of the postgres adapters.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
)

type Repositories struct {
	Loans  *LoanRepository
	Outbox *OutboxRepository
}

func NewRepositories() *Repositories {
	outbox := &OutboxRepository{rows: map[uuid.UUID]ports.OutboxRecord{}}
	return &Repositories{
		Loans:  &LoanRepository{rows: map[uuid.UUID]domain.Loan{}, outbox: outbox},
		Outbox: outbox,
	}
}

type LoanRepository struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]domain.Loan
	outbox *OutboxRepository
}

func (r *LoanRepository) CreateWithOutboxTx(_ context.Context, loan domain.Loan, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[loan.LoanID]; ok {
		return domain.ErrConflict
	}
	r.rows[loan.LoanID] = loan
	r.outbox.append(event)
	return nil
}

func (r *LoanRepository) GetByID(_ context.Context, loanID uuid.UUID) (domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loan, ok := r.rows[loanID]
	if !ok {
		return domain.Loan{}, domain.ErrNotFound
	}
	return loan, nil
}

func (r *LoanRepository) List(_ context.Context, filter ports.LoanFilter) ([]domain.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Loan, 0, len(r.rows))
	for _, loan := range r.rows {
		if filter.Status != "" && loan.Status != filter.Status {
			continue
		}
		if filter.BorrowerID != "" && loan.BorrowerID != filter.BorrowerID {
			continue
		}
		out = append(out, loan)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *LoanRepository) UpdateWithOutboxTx(_ context.Context, loan domain.Loan, expectedStatus string, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[loan.LoanID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Status != expectedStatus {
		return domain.ErrConflict
	}
	r.rows[loan.LoanID] = loan
	r.outbox.append(event)
	return nil
}

func (r *LoanRepository) DeleteWithOutboxTx(_ context.Context, loanID uuid.UUID, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[loanID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, loanID)
	r.outbox.append(event)
	return nil
}

func (r *LoanRepository) Stats(_ context.Context) (domain.LoanStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := domain.LoanStats{
		ByStatus:   map[string]int64{},
		ByCurrency: map[string]int64{},
	}
	for _, loan := range r.rows {
		stats.TotalLoans++
		stats.TotalAmount += loan.Amount
		stats.ByStatus[loan.Status]++
		stats.ByCurrency[loan.Currency]++
	}
	if stats.TotalLoans > 0 {
		stats.AvgAmount = stats.TotalAmount / float64(stats.TotalLoans)
	}
	return stats, nil
}

type OutboxRepository struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]ports.OutboxRecord
	order []uuid.UUID
}

func (r *OutboxRepository) append(event ports.OutboxEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[event.EventID] = ports.OutboxRecord{
		RecordID:  event.EventID,
		EventType: event.EventType,
		Payload:   append([]byte(nil), event.Payload...),
		CreatedAt: event.OccurredAt,
	}
	r.order = append(r.order, event.EventID)
}

func (r *OutboxRepository) ClaimPending(_ context.Context, limit int, claimTTL time.Duration, now time.Time) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	claimUntil := now.Add(claimTTL)
	out := make([]ports.OutboxRecord, 0, limit)
	for _, id := range r.order {
		row, ok := r.rows[id]
		if !ok || row.PublishedAt != nil {
			continue
		}
		if row.ClaimUntil != nil && row.ClaimUntil.After(now) {
			continue
		}
		row.ClaimUntil = &claimUntil
		r.rows[id] = row
		out = append(out, row)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, recordID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	row.PublishedAt = &at
	row.ClaimUntil = nil
	r.rows[recordID] = row
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, recordID uuid.UUID, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[recordID]
	if !ok {
		return domain.ErrNotFound
	}
	row.RetryCount++
	row.LastError = &reason
	row.ClaimUntil = nil
	r.rows[recordID] = row
	return nil
}

// Pending lists unpublished records for test assertions.
func (r *OutboxRepository) Pending() []ports.OutboxRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxRecord, 0)
	for _, id := range r.order {
		row := r.rows[id]
		if row.PublishedAt == nil {
			out = append(out, row)
		}
	}
	return out
}

// StatsCache is an in-memory ports.StatsCache with real TTL expiry.
type StatsCache struct {
	mu        sync.Mutex
	stats     domain.LoanStats
	expiresAt time.Time
	set       bool
}

func NewStatsCache() *StatsCache {
	return &StatsCache{}
}

func (c *StatsCache) Get(_ context.Context) (domain.LoanStats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set || time.Now().After(c.expiresAt) {
		return domain.LoanStats{}, false, nil
	}
	return c.stats, true, nil
}

func (c *StatsCache) Set(_ context.Context, stats domain.LoanStats, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = stats
	c.expiresAt = time.Now().Add(ttl)
	c.set = true
	return nil
}

func (c *StatsCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = false
	return nil
}

package ports

import (
	"context"
	"time"

	"github.com/microloans/loan-service/internal/domain"
)

// StatsCache is a best-effort read cache for loan statistics. Implementations
// must treat backend failures as cache misses, never as request failures.
type StatsCache interface {
	Get(ctx context.Context) (domain.LoanStats, bool, error)
	Set(ctx context.Context, stats domain.LoanStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
	"gorm.io/gorm"
)

type outboxRepository struct {
	db *gorm.DB
}

// ClaimPending atomically claims a batch of unpublished records. The claim
// window keeps concurrent pre-forked workers from publishing the same record.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, claimTTL time.Duration, now time.Time) ([]ports.OutboxRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	claimUntil := now.Add(claimTTL)

	var recs []loanOutboxModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("published_at IS NULL").
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("created_at ASC").
			Limit(limit).
			Clauses(forUpdateSkipLocked()).
			Find(&recs).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		ids := make([]uuid.UUID, 0, len(recs))
		for _, rec := range recs {
			ids = append(ids, rec.RecordID)
		}
		return tx.Model(&loanOutboxModel{}).
			Where("record_id IN ?", ids).
			Update("claim_until", claimUntil).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]ports.OutboxRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toOutboxRecord(rec))
	}
	return out, nil
}

func (r *outboxRepository) MarkPublished(ctx context.Context, recordID uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&loanOutboxModel{}).
		Where("record_id = ?", recordID).
		Updates(map[string]any{
			"published_at": at,
			"claim_until":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, recordID uuid.UUID, reason string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&loanOutboxModel{}).
		Where("record_id = ?", recordID).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  reason,
			"claim_until": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

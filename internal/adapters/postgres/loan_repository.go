package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
	"gorm.io/gorm"
)

type loanRepository struct {
	db *gorm.DB
}

func (r *loanRepository) CreateWithOutboxTx(ctx context.Context, loan domain.Loan, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := toLoanModel(loan)
		if err := tx.Create(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrConflict
			}
			return err
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
}

func (r *loanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (domain.Loan, error) {
	var rec loanModel
	if err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Loan{}, domain.ErrNotFound
		}
		return domain.Loan{}, err
	}
	return toDomainLoan(rec), nil
}

func (r *loanRepository) List(ctx context.Context, filter ports.LoanFilter) ([]domain.Loan, error) {
	query := r.db.WithContext(ctx).Model(&loanModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BorrowerID != "" {
		query = query.Where("borrower_id = ?", filter.BorrowerID)
	}

	var recs []loanModel
	if err := query.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Loan, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainLoan(rec))
	}
	return out, nil
}

func (r *loanRepository) UpdateWithOutboxTx(ctx context.Context, loan domain.Loan, expectedStatus string, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conditioning on the prior status makes the transition atomic: a
		// concurrent writer that already moved the loan leaves zero rows here.
		res := tx.Model(&loanModel{}).
			Where("loan_id = ? AND status = ?", loan.LoanID, expectedStatus).
			Updates(map[string]any{
				"status":     loan.Status,
				"updated_at": loan.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var rec loanModel
			if err := tx.Where("loan_id = ?", loan.LoanID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			return domain.ErrConflict
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
}

func (r *loanRepository) DeleteWithOutboxTx(ctx context.Context, loanID uuid.UUID, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("loan_id = ?", loanID).Delete(&loanModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		outbox := toOutboxModel(event)
		return tx.Create(&outbox).Error
	})
}

func (r *loanRepository) Stats(ctx context.Context) (domain.LoanStats, error) {
	var totals struct {
		TotalLoans  int64
		TotalAmount float64
		AvgAmount   float64
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS total_loans,
		        COALESCE(SUM(amount), 0) AS total_amount,
		        COALESCE(AVG(amount), 0) AS avg_amount
		 FROM loans`,
	).Scan(&totals).Error
	if err != nil {
		return domain.LoanStats{}, err
	}

	stats := domain.LoanStats{
		TotalLoans:  totals.TotalLoans,
		TotalAmount: totals.TotalAmount,
		AvgAmount:   totals.AvgAmount,
		ByStatus:    map[string]int64{},
		ByCurrency:  map[string]int64{},
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var byStatus []bucket
	if err := r.db.WithContext(ctx).Raw(
		`SELECT status AS key, COUNT(*) AS count FROM loans GROUP BY status`,
	).Scan(&byStatus).Error; err != nil {
		return domain.LoanStats{}, err
	}
	for _, b := range byStatus {
		stats.ByStatus[b.Key] = b.Count
	}

	var byCurrency []bucket
	if err := r.db.WithContext(ctx).Raw(
		`SELECT currency AS key, COUNT(*) AS count FROM loans GROUP BY currency`,
	).Scan(&byCurrency).Error; err != nil {
		return domain.LoanStats{}, err
	}
	for _, b := range byCurrency {
		stats.ByCurrency[b.Key] = b.Count
	}

	return stats, nil
}

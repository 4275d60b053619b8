package db

import (
	"context"

	"neighborly/models"
)

func (r *Repo) RecordTransaction(ctx context.Context, t *models.Transaction) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

// ListTransactions returns every transaction the user paid or received, newest first.
func (r *Repo) ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error) {
	var ts []models.Transaction
	err := r.DB.WithContext(ctx).
		Where("borrower_id = ? OR lender_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&ts).Error
	return ts, err
}

package db

import (
	"context"
	"time"

	"neighborly/models"
)

func (r *Repo) PendingOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var evs []models.OutboxEvent
	err := r.DB.WithContext(ctx).
		Where("published_at IS NULL").
		Order("id").
		Limit(limit).
		Find(&evs).Error
	return evs, err
}

func (r *Repo) MarkOutboxPublished(ctx context.Context, id int64, at time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id = ? AND published_at IS NULL", id).
		Update("published_at", at).Error
}

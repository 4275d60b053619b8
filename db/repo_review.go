package db

import (
	"context"

	"neighborly/events"
	"neighborly/models"

	"gorm.io/gorm"
)

// CreateReview inserts rev and its review.created outbox row in one transaction.
func (r *Repo) CreateReview(ctx context.Context, rev *models.Review, ev events.ReviewCreated) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rev).Error; err != nil {
			return translate(err)
		}
		return emit(tx, events.TopicReviewCreated, rev.ToWhom, ev)
	})
}

// ListReviews joins each review to its author, newest first.
func (r *Repo) ListReviews(ctx context.Context, toWhom string, typ models.ReviewType) ([]models.ReviewWithAuthor, error) {
	var rows []models.ReviewWithAuthor
	err := r.DB.WithContext(ctx).
		Table(models.ReviewTable+" r").
		Select("r.*, u.username AS author_username, u.display_name AS author_display_name").
		Joins("JOIN "+models.UserTable+" u ON u.id = r.reviewer_id").
		Where("r.to_whom = ? AND r.type = ?", toWhom, typ).
		Order("r.created_at DESC").
		Scan(&rows).Error
	return rows, err
}

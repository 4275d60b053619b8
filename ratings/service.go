// Package ratings records reviews of users and items and serves their
// rounded-average summaries.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"neighborly/apperr"
	"neighborly/cache"
	"neighborly/events"
	"neighborly/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindItemByID(ctx context.Context, id string) (*models.Item, error)
	HasBorrowed(ctx context.Context, borrowerID, itemID string) (bool, error)
	// CreateReview inserts the review and its outbox event atomically; models.ErrDuplicate on a repeat.
	CreateReview(ctx context.Context, rev *models.Review, ev events.ReviewCreated) error
	ListReviews(ctx context.Context, toWhom string, typ models.ReviewType) ([]models.ReviewWithAuthor, error)
}

type CreateRequest struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
	ToWhom string `json:"toWhom"`
	Type   string `json:"type"`
}

type Summary struct {
	Reviews       []models.ReviewWithAuthor `json:"reviews"`
	Count         int                       `json:"count"`
	AverageRating float64                   `json:"averageRating"`
}

type Service struct {
	store Store
	cache cache.Cache
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store Store, c cache.Cache, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{store: store, cache: c, ttl: ttl, log: log, now: time.Now}
}

func (s *Service) Create(ctx context.Context, reviewerID string, req CreateRequest) (*models.Review, error) {
	typ := models.ReviewType(req.Type)
	text := strings.TrimSpace(req.Review)
	switch {
	case req.Rating < 1 || req.Rating > 5:
		return nil, apperr.Validation("rating must be between 1 and 5")
	case text == "":
		return nil, apperr.Validation("review is required")
	case !typ.Valid():
		return nil, apperr.Validation("type must be User or Item")
	}
	if _, err := uuid.Parse(req.ToWhom); err != nil {
		return nil, apperr.NotFound(string(typ) + " not found")
	}

	switch typ {
	case models.ReviewUser:
		if _, err := s.store.FindUserByID(ctx, req.ToWhom); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, apperr.NotFound("User not found")
			}
			return nil, fmt.Errorf("find user: %w", err)
		}
		if req.ToWhom == reviewerID {
			return nil, apperr.Conflict("You cannot review yourself")
		}
	case models.ReviewItem:
		item, err := s.store.FindItemByID(ctx, req.ToWhom)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, apperr.NotFound("Item not found")
			}
			return nil, fmt.Errorf("find item: %w", err)
		}
		if item.LenderID == reviewerID {
			return nil, apperr.Conflict("You cannot review your own item")
		}
		borrowed, err := s.store.HasBorrowed(ctx, reviewerID, item.ID)
		if err != nil {
			return nil, fmt.Errorf("has borrowed: %w", err)
		}
		if !borrowed {
			return nil, apperr.Conflict("You can only review items you have borrowed")
		}
	}

	now := s.now()
	rev := &models.Review{
		ID:         uuid.NewString(),
		ReviewerID: reviewerID,
		ToWhom:     req.ToWhom,
		Type:       typ,
		Rating:     req.Rating,
		Review:     text,
		CreatedAt:  now,
	}
	err := s.store.CreateReview(ctx, rev, events.ReviewCreated{
		ReviewID:   rev.ID,
		ReviewerID: reviewerID,
		ToWhom:     rev.ToWhom,
		Type:       string(typ),
		Rating:     rev.Rating,
		OccurredAt: now,
	})
	if errors.Is(err, models.ErrDuplicate) {
		return nil, apperr.Conflict("You have already reviewed this " + strings.ToLower(string(typ)))
	}
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.cache.Delete(ctx, summaryKey(typ, rev.ToWhom)); err != nil {
		s.log.Warn("review summary invalidation failed", zap.String("to_whom", rev.ToWhom), zap.Error(err))
	}
	return rev, nil
}

// Summary returns the reviews of a target, newest first, with count and average.
func (s *Service) Summary(ctx context.Context, typ models.ReviewType, toWhom string) (*Summary, error) {
	if !typ.Valid() {
		return nil, apperr.Validation("type must be User or Item")
	}
	if _, err := uuid.Parse(toWhom); err != nil {
		return nil, apperr.Validation("invalid id")
	}

	key := summaryKey(typ, toWhom)
	var cached Summary
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("review summary cache read failed", zap.String("key", key), zap.Error(err))
	}

	reviews, err := s.store.ListReviews(ctx, toWhom, typ)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	sum := Summarize(reviews)

	if err := cache.SetJSON(ctx, s.cache, key, sum, s.ttl); err != nil {
		s.log.Warn("review summary cache write failed", zap.String("key", key), zap.Error(err))
	}
	return sum, nil
}

// Summarize counts reviews and averages their ratings to the nearest 0.5.
func Summarize(reviews []models.ReviewWithAuthor) *Summary {
	if reviews == nil {
		reviews = []models.ReviewWithAuthor{}
	}
	sum := &Summary{Reviews: reviews, Count: len(reviews)}
	if len(reviews) == 0 {
		return sum
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	mean := float64(total) / float64(len(reviews))
	sum.AverageRating = math.Round(mean*2) / 2
	return sum
}

func summaryKey(typ models.ReviewType, toWhom string) string {
	return "reviews:" + strings.ToLower(string(typ)) + ":" + toWhom
}

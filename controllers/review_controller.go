package controllers

import (
	"context"
	"net/http"

	"neighborly/models"
	"neighborly/ratings"

	"github.com/gin-gonic/gin"
)

type Reviews interface {
	Create(ctx context.Context, reviewerID string, req ratings.CreateRequest) (*models.Review, error)
	Summary(ctx context.Context, typ models.ReviewType, toWhom string) (*ratings.Summary, error)
}

type ReviewController struct{ reviews Reviews }

func NewReviewController(r Reviews) *ReviewController { return &ReviewController{reviews: r} }

// POST /ratingAndReview/create
func (rc *ReviewController) Create(c *gin.Context) {
	var req ratings.CreateRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	rev, err := rc.reviews.Create(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Review created successfully", rev)
}

// GET /ratingAndReview/user/:id
func (rc *ReviewController) ForUser(c *gin.Context) { rc.summary(c, models.ReviewUser) }

// GET /ratingAndReview/item/:id
func (rc *ReviewController) ForItem(c *gin.Context) { rc.summary(c, models.ReviewItem) }

func (rc *ReviewController) summary(c *gin.Context, typ models.ReviewType) {
	sum, err := rc.reviews.Summary(c.Request.Context(), typ, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", sum)
}

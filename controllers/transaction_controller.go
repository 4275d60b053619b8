package controllers

import (
	"context"
	"errors"
	"net/http"

	"neighborly/apperr"
	"neighborly/models"
	"neighborly/notify"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Ledger interface {
	RecordTransaction(ctx context.Context, t *models.Transaction) error
	ListTransactions(ctx context.Context, userID string) ([]models.Transaction, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID string, n notify.Notification) error
}

type TransactionController struct {
	ledger   Ledger
	notifier Notifier
	log      *zap.Logger
}

func NewTransactionController(l Ledger, n Notifier, log *zap.Logger) *TransactionController {
	return &TransactionController{ledger: l, notifier: n, log: log}
}

type recordTransactionRequest struct {
	ID         string `json:"id" binding:"omitempty,uuid"`
	BorrowerID string `json:"borrowerId" binding:"required,uuid"`
	LenderID   string `json:"lenderId" binding:"required,uuid"`
	ItemID     string `json:"itemId" binding:"required,uuid"`
	Type       string `json:"type" binding:"required"`
	Amount     *int64 `json:"amount" binding:"required,min=0"`
	Status     string `json:"status" binding:"required"`
	GatewayRef string `json:"gatewayRef" binding:"max=120"`
}

type paymentRecorded struct {
	TransactionID string                   `json:"transactionId"`
	ItemID        string                   `json:"itemId"`
	Type          models.TransactionType   `json:"type"`
	Amount        int64                    `json:"amount"`
	Status        models.TransactionStatus `json:"status"`
}

// POST /transaction/record, called by the payment collaborator.
func (tc *TransactionController) Record(c *gin.Context) {
	var req recordTransactionRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	t := &models.Transaction{
		ID:         req.ID,
		BorrowerID: req.BorrowerID,
		LenderID:   req.LenderID,
		ItemID:     req.ItemID,
		Type:       models.TransactionType(req.Type),
		Amount:     *req.Amount,
		Status:     models.TransactionStatus(req.Status),
		GatewayRef: req.GatewayRef,
	}
	if !t.Type.Valid() {
		fail(c, apperr.Validation("Unknown transaction type"))
		return
	}
	if !t.Status.Valid() {
		fail(c, apperr.Validation("Unknown transaction status"))
		return
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	err := tc.ledger.RecordTransaction(c.Request.Context(), t)
	switch {
	case errors.Is(err, models.ErrDuplicate):
		err = apperr.Conflict("Transaction already recorded")
	case errors.Is(err, models.ErrNotFound):
		err = apperr.NotFound("Borrower, lender or item not found")
	}
	if err != nil {
		fail(c, err)
		return
	}

	n := notify.Notification{Type: notify.TypePaymentRecorded, Data: paymentRecorded{
		TransactionID: t.ID,
		ItemID:        t.ItemID,
		Type:          t.Type,
		Amount:        t.Amount,
		Status:        t.Status,
	}}
	if err := tc.notifier.Notify(c.Request.Context(), t.BorrowerID, n); err != nil {
		tc.log.Warn("payment notification failed", zap.String("transaction_id", t.ID), zap.Error(err))
	}
	respond(c, http.StatusCreated, "Transaction recorded", t)
}

// GET /transaction/my
func (tc *TransactionController) Mine(c *gin.Context) {
	ts, err := tc.ledger.ListTransactions(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	if ts == nil {
		ts = []models.Transaction{}
	}
	respond(c, http.StatusOK, "", ts)
}

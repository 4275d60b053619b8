// Package lending implements the borrow/return lifecycle: precondition
// ordering, and the item / borrow record / item stat writes that must commit
// together.
package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neighborly/apperr"
	"neighborly/events"
	"neighborly/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	store     Store
	log       *zap.Logger
	freshness time.Duration
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, log *zap.Logger, freshness time.Duration, opts ...Option) *Service {
	s := &Service{
		store:     store,
		log:       log,
		freshness: freshness,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Borrow runs the borrow preconditions in order and, if they all hold,
// applies every mutation in a single store transaction.
func (s *Service) Borrow(ctx context.Context, borrowerID string, req BorrowRequest) (*models.BorrowRecord, error) {
	in, err := req.Validate()
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(in.ItemID); err != nil {
		return nil, apperr.NotFound("Item not found")
	}

	var rec *models.BorrowRecord
	err = s.store.InTx(ctx, func(tx Tx) error {
		item, err := tx.LockItem(in.ItemID)
		if errors.Is(err, models.ErrNotFound) {
			return apperr.NotFound("Item not found")
		}
		if err != nil {
			return fmt.Errorf("lock item: %w", err)
		}

		now := s.now()
		if err := checkBorrowable(item, borrowerID); err != nil {
			return err
		}
		if err := checkWindow(in, now); err != nil {
			return err
		}
		switch in.PaymentMode {
		case models.PaymentOnline:
			if err := s.checkOnlinePayment(tx, in, item, borrowerID, now); err != nil {
				return err
			}
		case models.PaymentCash:
			if in.PaymentStatus != models.PaymentPending {
				return apperr.Validation("Cash payments must start as Pending")
			}
		}

		if err := tx.MarkItemBorrowed(item.ID, borrowerID, in.EndDate); err != nil {
			if errors.Is(err, models.ErrStaleState) {
				return apperr.Conflict("Item is not available")
			}
			return fmt.Errorf("mark item borrowed: %w", err)
		}

		rec = &models.BorrowRecord{
			ID:              uuid.NewString(),
			ItemID:          item.ID,
			BorrowerID:      borrowerID,
			LenderID:        item.LenderID,
			StartDate:       in.StartDate,
			EndDate:         in.EndDate,
			PaymentMode:     in.PaymentMode,
			PaymentStatus:   in.PaymentStatus,
			DeliveryType:    in.DeliveryType,
			DeliveryCharges: in.DeliveryCharges,
			DeliveryStatus:  in.DeliveryStatus,
		}
		if in.PaymentMode == models.PaymentOnline {
			id := in.TransactionID
			rec.TransactionID = &id
		}
		if err := tx.CreateBorrowRecord(rec); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return apperr.Conflict("Item is not available")
			}
			return fmt.Errorf("create borrow record: %w", err)
		}

		if err := tx.BumpItemStat(item.ID, item.LenderID, item.Price); err != nil {
			return fmt.Errorf("bump item stat: %w", err)
		}

		return tx.Emit(events.TopicItemBorrowed, item.ID, events.ItemBorrowed{
			BorrowRecordID: rec.ID,
			ItemID:         item.ID,
			BorrowerID:     borrowerID,
			LenderID:       item.LenderID,
			StartDate:      rec.StartDate,
			EndDate:        rec.EndDate,
			PaymentMode:    string(rec.PaymentMode),
			Price:          item.Price,
			OccurredAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item borrowed",
		zap.String("borrow_record_id", rec.ID),
		zap.String("item_id", rec.ItemID),
		zap.String("borrower_id", borrowerID),
		zap.String("payment_mode", string(rec.PaymentMode)),
	)
	return rec, nil
}

// checkBorrowable covers self-borrow and availability.
func checkBorrowable(item *models.Item, borrowerID string) error {
	if item.LenderID == borrowerID {
		return apperr.Conflict("You cannot borrow your own item")
	}
	if !item.IsAvailable {
		return apperr.Conflict("Item is not available")
	}
	return nil
}

func checkWindow(in BorrowInput, now time.Time) error {
	if in.StartDate.Before(now) || in.EndDate.Before(now) {
		return apperr.Validation("Start date and end date must not be in the past")
	}
	if in.StartDate.After(in.EndDate) {
		return apperr.Validation("Start date must not be after end date")
	}
	return nil
}

func (s *Service) checkOnlinePayment(tx Tx, in BorrowInput, item *models.Item, borrowerID string, now time.Time) error {
	if in.TransactionID == "" {
		return apperr.Validation("transactionId is required for online payments")
	}
	if in.PaymentStatus != models.PaymentPaid {
		return apperr.Validation("Online payments must be Paid")
	}
	if _, err := uuid.Parse(in.TransactionID); err != nil {
		return apperr.NotFound("Transaction not found")
	}

	t, err := tx.FindTransaction(in.TransactionID)
	if errors.Is(err, models.ErrNotFound) {
		return apperr.NotFound("Transaction not found")
	}
	if err != nil {
		return fmt.Errorf("find transaction: %w", err)
	}

	if now.Sub(t.CreatedAt) > s.freshness {
		return apperr.Validation("Transaction has expired")
	}
	if t.BorrowerID != borrowerID {
		return apperr.Conflict("Transaction does not belong to you")
	}
	if t.ItemID != item.ID {
		return apperr.Validation("Transaction is not for this item")
	}
	if in.DeliveryType == models.DeliveryDelivery && t.Amount != item.Price+in.DeliveryCharges {
		return apperr.Validation("Transaction amount does not match price and delivery charges")
	}
	if t.Type != models.TxDeposit {
		return apperr.Validation("Transaction is not a deposit")
	}
	if t.Status != models.TxCompleted {
		return apperr.Conflict("Transaction not completed")
	}

	used, err := tx.TransactionInUse(t.ID)
	if err != nil {
		return fmt.Errorf("transaction in use: %w", err)
	}
	if used {
		return apperr.Conflict("Transaction has already been used")
	}
	return nil
}

// Return frees the item held under recordID and closes the record.
func (s *Service) Return(ctx context.Context, borrowerID, recordID string) (*models.BorrowRecord, error) {
	if _, err := uuid.Parse(recordID); err != nil {
		return nil, apperr.NotFound("Borrow record not found")
	}

	var rec *models.BorrowRecord
	err := s.store.InTx(ctx, func(tx Tx) error {
		var err error
		rec, err = tx.LockBorrowRecord(recordID)
		if errors.Is(err, models.ErrNotFound) {
			return apperr.NotFound("Borrow record not found")
		}
		if err != nil {
			return fmt.Errorf("lock borrow record: %w", err)
		}
		if rec.BorrowerID != borrowerID {
			return apperr.Unauthorized("You did not borrow this item")
		}

		item, err := tx.LockItem(rec.ItemID)
		if errors.Is(err, models.ErrNotFound) {
			return apperr.NotFound("Item not found")
		}
		if err != nil {
			return fmt.Errorf("lock item: %w", err)
		}
		if item.CurrentBorrowerID == nil || *item.CurrentBorrowerID != borrowerID {
			return apperr.Unauthorized("You are not the current borrower of this item")
		}
		if rec.IsReturned {
			return apperr.Conflict("Item already returned")
		}

		now := s.now()
		if err := tx.MarkItemReturned(item.ID, borrowerID, now); err != nil {
			if errors.Is(err, models.ErrStaleState) {
				return apperr.Unauthorized("You are not the current borrower of this item")
			}
			return fmt.Errorf("mark item returned: %w", err)
		}
		if err := tx.MarkRecordReturned(rec.ID, now); err != nil {
			if errors.Is(err, models.ErrStaleState) {
				return apperr.Conflict("Item already returned")
			}
			return fmt.Errorf("mark record returned: %w", err)
		}
		rec.IsReturned = true
		rec.ReturnedAt = &now

		return tx.Emit(events.TopicItemReturned, item.ID, events.ItemReturned{
			BorrowRecordID: rec.ID,
			ItemID:         item.ID,
			BorrowerID:     borrowerID,
			LenderID:       rec.LenderID,
			OccurredAt:     now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item returned",
		zap.String("borrow_record_id", rec.ID),
		zap.String("item_id", rec.ItemID),
		zap.String("borrower_id", borrowerID),
	)
	return rec, nil
}

// BorrowHistory lists the borrower's records; status is "open", "returned" or "".
func (s *Service) BorrowHistory(ctx context.Context, borrowerID, status string) ([]models.BorrowRecord, error) {
	switch status {
	case "", "open", "returned":
	default:
		return nil, apperr.Validation("status must be open or returned")
	}
	return s.store.ListBorrowRecords(ctx, BorrowQuery{BorrowerID: borrowerID, Status: status})
}

func (s *Service) LenderStats(ctx context.Context, lenderID string) ([]models.ItemStat, error) {
	return s.store.ItemStatsByLender(ctx, lenderID)
}

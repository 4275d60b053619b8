package db

import (
	"context"
	"fmt"
	"time"

	"neighborly/events"
	"neighborly/lending"
	"neighborly/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InTx runs fn inside one database transaction; any error rolls everything back.
func (r *Repo) InTx(ctx context.Context, fn func(tx lending.Tx) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&lendingTx{tx: tx})
	})
}

type lendingTx struct{ tx *gorm.DB }

func (t *lendingTx) LockItem(id string) (*models.Item, error) {
	var it models.Item
	if err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&it, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &it, nil
}

func (t *lendingTx) FindTransaction(id string) (*models.Transaction, error) {
	var tr models.Transaction
	if err := t.tx.First(&tr, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &tr, nil
}

func (t *lendingTx) TransactionInUse(id string) (bool, error) {
	var n int64
	if err := t.tx.Model(&models.BorrowRecord{}).
		Where("transaction_id = ?", id).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *lendingTx) MarkItemBorrowed(itemID, borrowerID string, until time.Time) error {
	res := t.tx.Model(&models.Item{}).
		Where("id = ? AND is_available = TRUE", itemID).
		Updates(map[string]any{
			"is_available":        false,
			"current_borrower_id": borrowerID,
			"available_from":      until,
			"borrower_history":    gorm.Expr("array_append(borrower_history, ?::text)", borrowerID),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrStaleState
	}
	return nil
}

func (t *lendingTx) CreateBorrowRecord(rec *models.BorrowRecord) error {
	return translate(t.tx.Create(rec).Error)
}

func (t *lendingTx) BumpItemStat(itemID, lenderID string, profit int64) error {
	stat := models.ItemStat{
		ID:          uuid.NewString(),
		ItemID:      itemID,
		LenderID:    lenderID,
		BorrowCount: 1,
		TotalProfit: profit,
	}
	return t.tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "item_id"}, {Name: "lender_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"borrow_count": gorm.Expr(models.ItemStatTable + ".borrow_count + 1"),
			"total_profit": gorm.Expr(models.ItemStatTable + ".total_profit + EXCLUDED.total_profit"),
			"updated_at":   gorm.Expr("NOW()"),
		}),
	}).Create(&stat).Error
}

func (t *lendingTx) LockBorrowRecord(id string) (*models.BorrowRecord, error) {
	var rec models.BorrowRecord
	if err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&rec, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &rec, nil
}

func (t *lendingTx) MarkItemReturned(itemID, borrowerID string, at time.Time) error {
	res := t.tx.Model(&models.Item{}).
		Where("id = ? AND current_borrower_id = ?", itemID, borrowerID).
		Updates(map[string]any{
			"is_available":        true,
			"current_borrower_id": nil,
			"available_from":      at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrStaleState
	}
	return nil
}

func (t *lendingTx) MarkRecordReturned(recordID string, at time.Time) error {
	res := t.tx.Model(&models.BorrowRecord{}).
		Where("id = ? AND is_returned = FALSE", recordID).
		Updates(map[string]any{
			"is_returned": true,
			"returned_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrStaleState
	}
	return nil
}

func (t *lendingTx) Emit(topic, key string, payload any) error {
	return emit(t.tx, topic, key, payload)
}

func emit(tx *gorm.DB, topic, key string, payload any) error {
	b, err := events.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	return tx.Create(&models.OutboxEvent{Topic: topic, Key: key, Payload: b}).Error
}

func (r *Repo) ListBorrowRecords(ctx context.Context, q lending.BorrowQuery) ([]models.BorrowRecord, error) {
	tx := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).Order("created_at DESC")
	if q.BorrowerID != "" {
		tx = tx.Where("borrower_id = ?", q.BorrowerID)
	}
	if q.LenderID != "" {
		tx = tx.Where("lender_id = ?", q.LenderID)
	}
	if q.ItemID != "" {
		tx = tx.Where("item_id = ?", q.ItemID)
	}
	switch q.Status {
	case "open":
		tx = tx.Where("is_returned = FALSE")
	case "returned":
		tx = tx.Where("is_returned = TRUE")
	}
	var recs []models.BorrowRecord
	if err := tx.Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) ItemStatsByLender(ctx context.Context, lenderID string) ([]models.ItemStat, error) {
	var stats []models.ItemStat
	err := r.DB.WithContext(ctx).
		Where("lender_id = ?", lenderID).
		Order("borrow_count DESC, item_id").
		Find(&stats).Error
	return stats, err
}

// HasBorrowed reports whether borrowerID ever borrowed itemID.
func (r *Repo) HasBorrowed(ctx context.Context, borrowerID, itemID string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.BorrowRecord{}).
		Where("borrower_id = ? AND item_id = ?", borrowerID, itemID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ lending.Store = (*Repo)(nil)

package lending

import (
	"context"
	"time"

	"neighborly/models"
)

// Tx is the set of writes a borrow or return performs. An implementation
// binds every call to one database transaction.
type Tx interface {
	// LockItem loads a live item and locks it for the rest of the transaction.
	LockItem(id string) (*models.Item, error)
	FindTransaction(id string) (*models.Transaction, error)
	// TransactionInUse reports whether a borrow record already references the transaction.
	TransactionInUse(id string) (bool, error)
	// MarkItemBorrowed flips an available item to borrowed; models.ErrStaleState if it was not available.
	MarkItemBorrowed(itemID, borrowerID string, until time.Time) error
	CreateBorrowRecord(rec *models.BorrowRecord) error
	// BumpItemStat creates or increments the (item, lender) counters.
	BumpItemStat(itemID, lenderID string, profit int64) error

	LockBorrowRecord(id string) (*models.BorrowRecord, error)
	// MarkItemReturned frees an item held by borrowerID; models.ErrStaleState otherwise.
	MarkItemReturned(itemID, borrowerID string, at time.Time) error
	// MarkRecordReturned sets isReturned; models.ErrStaleState if already returned.
	MarkRecordReturned(recordID string, at time.Time) error

	// Emit appends an outbox event committed with the transaction.
	Emit(topic, key string, payload any) error
}

type BorrowQuery struct {
	BorrowerID string
	LenderID   string
	ItemID     string
	// "open", "returned" or "" for both
	Status string
}

type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	ListBorrowRecords(ctx context.Context, q BorrowQuery) ([]models.BorrowRecord, error)
	ItemStatsByLender(ctx context.Context, lenderID string) ([]models.ItemStat, error)
}

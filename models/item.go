// models/item.go
package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const ItemTable = "nb_items"

// Item is a lendable object. IsAvailable is true exactly when CurrentBorrowerID is nil.
type Item struct {
	ID          string         `gorm:"type:uuid;primaryKey" json:"id"`
	LenderID    string         `gorm:"type:uuid;index;not null" json:"lenderId"`
	Name        string         `gorm:"size:200;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:80;index" json:"category"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`

	Price   int64 `gorm:"not null" json:"price"`
	Deposit int64 `gorm:"not null" json:"deposit"`

	IsAvailable       bool      `gorm:"not null;default:true" json:"isAvailable"`
	CurrentBorrowerID *string   `gorm:"type:uuid" json:"currentBorrowerId,omitempty"`
	AvailableFrom     time.Time `gorm:"not null" json:"availableFrom"`
	// append-only, one entry per borrow
	BorrowerHistory pq.StringArray `gorm:"type:text[]" json:"borrowerHistory"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Item) TableName() string { return ItemTable }

// Consistent reports whether the availability flag and the borrower pointer agree.
func (it *Item) Consistent() bool {
	return it.IsAvailable == (it.CurrentBorrowerID == nil)
}

// models/borrow.go
package models

import "time"

const BorrowRecordTable = "nb_borrow_records"
const ItemStatTable = "nb_item_stats"

type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentOnline PaymentMode = "Online"
)

func (m PaymentMode) Valid() bool { return m == PaymentCash || m == PaymentOnline }

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPaid    PaymentStatus = "Paid"
)

func (s PaymentStatus) Valid() bool { return s == PaymentPending || s == PaymentPaid }

type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "Pickup"
	DeliveryDelivery DeliveryType = "Delivery"
)

func (d DeliveryType) Valid() bool { return d == DeliveryPickup || d == DeliveryDelivery }

type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "Pending"
	DeliveryDispatched DeliveryStatus = "Dispatched"
	DeliveryDelivered  DeliveryStatus = "Delivered"
)

func (d DeliveryStatus) Valid() bool {
	switch d {
	case DeliveryPending, DeliveryDispatched, DeliveryDelivered:
		return true
	}
	return false
}

// BorrowRecord is one rental period. IsReturned only ever moves false -> true.
type BorrowRecord struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID     string `gorm:"type:uuid;index;not null" json:"itemId"`
	BorrowerID string `gorm:"type:uuid;index;not null" json:"borrowerId"`
	LenderID   string `gorm:"type:uuid;index;not null" json:"lenderId"`

	StartDate time.Time `gorm:"not null" json:"startDate"`
	EndDate   time.Time `gorm:"not null" json:"endDate"`

	PaymentMode     PaymentMode    `gorm:"size:16;not null" json:"paymentMode"`
	PaymentStatus   PaymentStatus  `gorm:"size:16;not null" json:"paymentStatus"`
	DeliveryType    DeliveryType   `gorm:"size:16;not null" json:"deliveryType"`
	DeliveryCharges int64          `gorm:"not null;default:0" json:"deliveryCharges"`
	DeliveryStatus  DeliveryStatus `gorm:"size:16;not null" json:"deliveryStatus"`
	TransactionID   *string        `gorm:"type:uuid" json:"transactionId,omitempty"`

	IsReturned bool       `gorm:"not null;default:false" json:"isReturned"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BorrowRecord) TableName() string { return BorrowRecordTable }

// ItemStat holds running counters per (item, lender).
type ItemStat struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID      string    `gorm:"type:uuid;not null;uniqueIndex:nb_item_stats_item_lender" json:"itemId"`
	LenderID    string    `gorm:"type:uuid;not null;uniqueIndex:nb_item_stats_item_lender" json:"lenderId"`
	BorrowCount int64     `gorm:"not null;default:0" json:"borrowCount"`
	TotalProfit int64     `gorm:"not null;default:0" json:"totalProfit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (ItemStat) TableName() string { return ItemStatTable }

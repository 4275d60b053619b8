// Package events defines the domain events written to the outbox and the
// publishers that relay them.
package events

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	TopicItemBorrowed  = "item.borrowed"
	TopicItemReturned  = "item.returned"
	TopicReviewCreated = "review.created"
)

type ItemBorrowed struct {
	BorrowRecordID string    `json:"borrowRecordId"`
	ItemID         string    `json:"itemId"`
	BorrowerID     string    `json:"borrowerId"`
	LenderID       string    `json:"lenderId"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	PaymentMode    string    `json:"paymentMode"`
	Price          int64     `json:"price"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type ItemReturned struct {
	BorrowRecordID string    `json:"borrowRecordId"`
	ItemID         string    `json:"itemId"`
	BorrowerID     string    `json:"borrowerId"`
	LenderID       string    `json:"lenderId"`
	OccurredAt     time.Time `json:"occurredAt"`
}

type ReviewCreated struct {
	ReviewID   string    `json:"reviewId"`
	ReviewerID string    `json:"reviewerId"`
	ToWhom     string    `json:"toWhom"`
	Type       string    `json:"type"`
	Rating     int       `json:"rating"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Encode serializes an event payload for the outbox.
func Encode(payload any) ([]byte, error) {
	return json.Marshal(payload)
}

package lending

import (
	"strings"
	"time"

	"neighborly/apperr"
	"neighborly/models"
)

// BorrowRequest is the POST /item/borrowItem body.
type BorrowRequest struct {
	ItemID          string `json:"itemId" binding:"required"`
	StartDate       string `json:"startDate" binding:"required"`
	EndDate         string `json:"endDate" binding:"required"`
	PaymentMode     string `json:"paymentMode" binding:"required"`
	PaymentStatus   string `json:"paymentStatus" binding:"required"`
	DeliveryType    string `json:"deliveryType" binding:"required"`
	DeliveryCharges *int64 `json:"deliveryCharges"`
	DeliveryStatus  string `json:"deliveryStatus"`
	TransactionID   string `json:"transactionId"`
}

// BorrowInput is a BorrowRequest whose shape has been checked.
type BorrowInput struct {
	ItemID          string
	StartDate       time.Time
	EndDate         time.Time
	PaymentMode     models.PaymentMode
	PaymentStatus   models.PaymentStatus
	DeliveryType    models.DeliveryType
	DeliveryCharges int64
	DeliveryStatus  models.DeliveryStatus
	TransactionID   string
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// Validate checks shape only: parseable dates, known enum values, sane numbers.
// State-dependent rules run inside the borrow transaction.
func (r BorrowRequest) Validate() (BorrowInput, error) {
	in := BorrowInput{
		ItemID:         strings.TrimSpace(r.ItemID),
		PaymentMode:    models.PaymentMode(r.PaymentMode),
		PaymentStatus:  models.PaymentStatus(r.PaymentStatus),
		DeliveryType:   models.DeliveryType(r.DeliveryType),
		DeliveryStatus: models.DeliveryStatus(r.DeliveryStatus),
		TransactionID:  strings.TrimSpace(r.TransactionID),
	}
	if in.ItemID == "" {
		return BorrowInput{}, apperr.Validation("itemId is required")
	}

	var ok bool
	if in.StartDate, ok = parseDate(r.StartDate); !ok {
		return BorrowInput{}, apperr.Validation("startDate is not a valid date")
	}
	if in.EndDate, ok = parseDate(r.EndDate); !ok {
		return BorrowInput{}, apperr.Validation("endDate is not a valid date")
	}

	if !in.PaymentMode.Valid() {
		return BorrowInput{}, apperr.Validation("paymentMode must be Cash or Online")
	}
	if !in.PaymentStatus.Valid() {
		return BorrowInput{}, apperr.Validation("paymentStatus must be Pending or Paid")
	}
	if !in.DeliveryType.Valid() {
		return BorrowInput{}, apperr.Validation("deliveryType must be Pickup or Delivery")
	}
	if in.DeliveryStatus == "" {
		in.DeliveryStatus = models.DeliveryPending
	}
	if !in.DeliveryStatus.Valid() {
		return BorrowInput{}, apperr.Validation("deliveryStatus is not valid")
	}
	if r.DeliveryCharges != nil {
		if *r.DeliveryCharges < 0 {
			return BorrowInput{}, apperr.Validation("deliveryCharges must not be negative")
		}
		in.DeliveryCharges = *r.DeliveryCharges
	}
	return in, nil
}

package models

import "time"

const TransactionTable = "nb_transactions"

type TransactionType string

const (
	TxDeposit     TransactionType = "Deposit"
	TxWithdraw    TransactionType = "Withdraw"
	TxRefund      TransactionType = "Refund"
	TxRentPayment TransactionType = "RentPayment"
	TxPenalty     TransactionType = "Penalty"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdraw, TxRefund, TxRentPayment, TxPenalty:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TxPending   TransactionStatus = "Pending"
	TxCompleted TransactionStatus = "Completed"
	TxFailed    TransactionStatus = "Failed"
)

func (s TransactionStatus) Valid() bool {
	return s == TxPending || s == TxCompleted || s == TxFailed
}

// Transaction is a payment ledger entry written by the payment flow.
type Transaction struct {
	ID         string            `gorm:"type:uuid;primaryKey" json:"id"`
	BorrowerID string            `gorm:"type:uuid;index;not null" json:"borrowerId"`
	LenderID   string            `gorm:"type:uuid;index;not null" json:"lenderId"`
	ItemID     string            `gorm:"type:uuid;index;not null" json:"itemId"`
	Type       TransactionType   `gorm:"size:16;not null" json:"type"`
	Amount     int64             `gorm:"not null" json:"amount"`
	Status     TransactionStatus `gorm:"size:16;not null" json:"status"`
	GatewayRef string            `gorm:"size:120" json:"gatewayRef,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"createdAt"`
}

func (Transaction) TableName() string { return TransactionTable }

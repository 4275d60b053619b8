package models

import "time"

const OutboxTable = "nb_outbox"

// OutboxEvent is a domain event written in the same DB transaction as the change it describes.
type OutboxEvent struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Topic       string     `gorm:"size:80;not null" json:"topic"`
	Key         string     `gorm:"size:80;not null" json:"key"`
	Payload     []byte     `gorm:"type:jsonb;not null" json:"payload"`
	CreatedAt   time.Time  `json:"createdAt"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt,omitempty"`
}

func (OutboxEvent) TableName() string { return OutboxTable }

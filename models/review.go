package models

import "time"

const ReviewTable = "nb_reviews"

type ReviewType string

const (
	ReviewUser ReviewType = "User"
	ReviewItem ReviewType = "Item"
)

func (t ReviewType) Valid() bool { return t == ReviewUser || t == ReviewItem }

type Review struct {
	ID         string     `gorm:"type:uuid;primaryKey" json:"id"`
	ReviewerID string     `gorm:"type:uuid;not null;uniqueIndex:nb_reviews_once" json:"reviewerId"`
	ToWhom     string     `gorm:"type:uuid;not null;uniqueIndex:nb_reviews_once;index" json:"toWhom"`
	Type       ReviewType `gorm:"size:8;not null;uniqueIndex:nb_reviews_once" json:"type"`
	Rating     int        `gorm:"not null" json:"rating"`
	Review     string     `gorm:"type:text;not null" json:"review"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (Review) TableName() string { return ReviewTable }

// ReviewWithAuthor is a review joined to its author.
type ReviewWithAuthor struct {
	Review
	AuthorUsername    string `json:"authorUsername"`
	AuthorDisplayName string `json:"authorDisplayName"`
}

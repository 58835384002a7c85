package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status tracks where a listing stands in the auction calendar.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPostponed Status = "postponed"
	StatusSold      Status = "sold"
	StatusCanceled  Status = "canceled"
)

// ParseStatus validates a feed- or user-supplied status value.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	switch status {
	case StatusScheduled, StatusPostponed, StatusSold, StatusCanceled:
		return status, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Property is a sourced listing snapshot. The listings feed owns these rows;
// the override subsystem reads them and never writes them.
type Property struct {
	ID snowflake.ID `gorm:"primaryKey"`

	// SourceKey identifies the listing in the external feed, typically
	// county plus sheriff number. Upserts key on it.
	SourceKey string `gorm:"column:source_key;type:text;not null;uniqueIndex:ux_properties_source_key"`

	Address       string  `gorm:"type:text;not null"`
	City          string  `gorm:"type:text"`
	County        string  `gorm:"type:text;not null;index"`
	State         string  `gorm:"type:text"`
	Zip           string  `gorm:"type:text"`
	SheriffNumber string  `gorm:"column:sheriff_number;type:text"`
	Status        Status  `gorm:"type:text;not null;default:'scheduled';index"`

	AuctionAt *time.Time `gorm:"column:auction_at;index"`

	ApproxUpset    *float64 `gorm:"column:approx_upset"`
	JudgmentAmount *float64 `gorm:"column:judgment_amount"`
	OpeningBid     *float64 `gorm:"column:opening_bid"`
	Zestimate      *float64 `gorm:"column:zestimate"`
	EstimatedARV   *float64 `gorm:"column:estimated_arv"`

	// Attributes holds loose enrichment payload (beds, baths, lot size, ...)
	// passed through from the feed.
	Attributes datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Property) TableName() string { return "properties" }

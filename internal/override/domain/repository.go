package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// HistoryFilter selects override records for one triple, newest first.
type HistoryFilter struct {
	UserID     string
	PropertyID snowflake.ID
	Field      Field
	Cursor     *HistoryCursor
	Limit      int
}

// HistoryCursor is the keyset position: records strictly older than
// (CreatedAt, ID) are returned.
type HistoryCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, record *OverrideRecord) error

	// Latest returns the newest record for a triple, or nil when none exists.
	// With forUpdate the row is locked for the duration of the surrounding
	// transaction on dialects that support row locks.
	Latest(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID, field Field, forUpdate bool) (*OverrideRecord, error)

	// LatestBatch returns the newest record per (property, field) for the
	// given user across all requested properties in a single query. Revert
	// markers are included; callers decide how to treat them.
	LatestBatch(ctx context.Context, db *gorm.DB, userID string, propertyIDs []snowflake.ID) ([]OverrideRecord, error)

	// History lists records newest first using keyset pagination.
	History(ctx context.Context, db *gorm.DB, filter HistoryFilter) ([]*OverrideRecord, error)
}

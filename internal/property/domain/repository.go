package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ListFilter narrows the listing query. Zero values mean "no filter".
type ListFilter struct {
	County        string
	Status        *Status
	AuctionAfter  *time.Time
	AuctionBefore *time.Time
	Search        string

	SortBy  string
	OrderBy string

	Cursor *ListCursor
	Limit  int
}

// ListCursor is the keyset position for listing pagination.
type ListCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	// Upsert inserts a snapshot or refreshes the existing row with the same
	// source key, returning the stored row.
	Upsert(ctx context.Context, db *gorm.DB, property *Property) (*Property, error)

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Property, error)
	ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Property, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Property, error)
}

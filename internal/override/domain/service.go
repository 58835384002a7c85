package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/pkg/db/pagination"
)

// SaveRequest carries one user edit. Kind is the explicit discriminator for
// the dual-typed property_sold field; currency fields may omit it.
type SaveRequest struct {
	PropertyID string   `json:"-"`
	Field      Field    `json:"-"`
	Kind       string   `json:"kind,omitempty"`
	Amount     *float64 `json:"amount,omitempty"`
	Date       *string  `json:"date,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

// HistoryRequest pages through a field's edit history, newest first.
type HistoryRequest struct {
	pagination.Pagination
	PropertyID string
	Field      Field
}

type HistoryResponse struct {
	pagination.PageInfo
	Records []RecordResponse `json:"records"`
}

// RecordResponse is the wire shape of one history entry.
type RecordResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	Field      Field  `json:"field"`
	Revert     bool   `json:"revert"`

	Kind   ValueKind  `json:"kind"`
	Amount *float64   `json:"amount,omitempty"`
	Date   *time.Time `json:"date,omitempty"`

	OriginalKind   ValueKind  `json:"original_kind"`
	OriginalAmount *float64   `json:"original_amount,omitempty"`
	OriginalDate   *time.Time `json:"original_date,omitempty"`

	PreviousSpreadPercent *float64  `json:"previous_spread_percent,omitempty"`
	Notes                 *string   `json:"notes,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
}

// ActiveResponse is the wire shape of an active override.
type ActiveResponse struct {
	PropertyID string     `json:"property_id"`
	Field      Field      `json:"field"`
	Kind       ValueKind  `json:"kind"`
	Amount     *float64   `json:"amount,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SaveResponse returns the appended record together with the spread as it
// stands after the edit, so an open detail view can refresh without a second
// round trip.
type SaveResponse struct {
	Record        RecordResponse `json:"record"`
	SpreadPercent *float64       `json:"spread_percent,omitempty"`
}

// Service is the override facade consumed by the presentation layer. The
// acting user is taken from the request context.
type Service interface {
	Get(ctx context.Context, propertyID string, field Field) (*ActiveResponse, error)
	Save(ctx context.Context, req SaveRequest) (*SaveResponse, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
	Revert(ctx context.Context, propertyID string, field Field) error

	// ActiveForProperties batch-fetches active overrides for a visible set in
	// one query, keyed by property. It never issues per-row lookups.
	ActiveForProperties(ctx context.Context, propertyIDs []snowflake.ID) (map[snowflake.ID]FieldOverrides, error)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/dealgrid/auctionlens/pkg/db/pagination"
)

// Snapshot is one listing as delivered by the external feed.
type Snapshot struct {
	SourceKey     string         `json:"source_key"`
	Address       string         `json:"address"`
	City          string         `json:"city"`
	County        string         `json:"county"`
	State         string         `json:"state"`
	Zip           string         `json:"zip"`
	SheriffNumber string         `json:"sheriff_number"`
	Status        string         `json:"status"`
	AuctionAt     *time.Time     `json:"auction_at"`
	ApproxUpset   *float64       `json:"approx_upset"`
	Judgment      *float64       `json:"judgment_amount"`
	OpeningBid    *float64       `json:"opening_bid"`
	Zestimate     *float64       `json:"zestimate"`
	EstimatedARV  *float64       `json:"estimated_arv"`
	Attributes    map[string]any `json:"attributes"`
}

// ListRequest is the dashboard listing query.
type ListRequest struct {
	pagination.Pagination
	County        string
	Status        string
	AuctionAfter  *time.Time
	AuctionBefore *time.Time
	Search        string
	SpreadBand    string
	SortBy        string
	OrderBy       string
}

// Row is one listing row with the user's overrides and the computed spread
// merged in, the shape the table renders, sorts and colors from.
type Row struct {
	ID            string         `json:"id"`
	Address       string         `json:"address"`
	City          string         `json:"city,omitempty"`
	County        string         `json:"county"`
	State         string         `json:"state,omitempty"`
	Zip           string         `json:"zip,omitempty"`
	SheriffNumber string         `json:"sheriff_number,omitempty"`
	Status        Status         `json:"status"`
	AuctionAt     *time.Time     `json:"auction_at,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`

	ApproxUpset    *float64 `json:"approx_upset,omitempty"`
	JudgmentAmount *float64 `json:"judgment_amount,omitempty"`
	OpeningBid     *float64 `json:"opening_bid,omitempty"`
	Zestimate      *float64 `json:"zestimate,omitempty"`
	EstimatedARV   *float64 `json:"estimated_arv,omitempty"`

	// Overridden names the fields whose displayed value is a user override.
	Overridden []string `json:"overridden,omitempty"`

	StartingBid *float64   `json:"starting_bid,omitempty"`
	BidCap      *float64   `json:"bid_cap,omitempty"`
	SoldPrice   *float64   `json:"sold_price,omitempty"`
	SoldAt      *time.Time `json:"sold_at,omitempty"`

	// SpreadPercent is nil when the spread is undefined; the UI renders
	// "N/A", never 0%.
	SpreadPercent *float64 `json:"spread_percent,omitempty"`
	SpreadBand    string   `json:"spread_band,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type ListResponse struct {
	pagination.PageInfo
	Properties []Row `json:"properties"`
}

type ImportRequest struct {
	Snapshots []Snapshot `json:"snapshots"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type Service interface {
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Row, error)
	Import(ctx context.Context, req ImportRequest) (*ImportResponse, error)
}

var (
	ErrInvalidUser      = errors.New("invalid_user")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidSnapshot  = errors.New("invalid_snapshot")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrNotFound         = errors.New("not_found")
)

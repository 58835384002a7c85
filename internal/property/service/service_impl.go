package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/cache"
	"github.com/dealgrid/auctionlens/internal/config"
	obsmetrics "github.com/dealgrid/auctionlens/internal/observability/metrics"
	overridedomain "github.com/dealgrid/auctionlens/internal/override/domain"
	"github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/spread"
	"github.com/dealgrid/auctionlens/internal/usercontext"
	pkgdb "github.com/dealgrid/auctionlens/pkg/db"
	"github.com/dealgrid/auctionlens/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Overrides overridedomain.Service
	Display   *config.DisplayConfigHolder
	Listings  *cache.ListingCache `optional:"true"`
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	overrides overridedomain.Service
	display   *config.DisplayConfigHolder
	listings  *cache.ListingCache
	metrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("property.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		overrides: p.Overrides,
		display:   p.Display,
		listings:  p.Listings,
		metrics:   p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ListResponse{}, domain.ErrInvalidUser
	}

	if cached, hit := s.listings.Get(userID, req); hit {
		s.metrics.RecordListingCache(ctx, true)
		return cached, nil
	}
	s.metrics.RecordListingCache(ctx, false)

	filter, err := buildListFilter(req)
	if err != nil {
		return domain.ListResponse{}, err
	}

	properties, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, s.storageErr(err)
	}

	hasMore := len(properties) > filter.Limit
	if hasMore {
		properties = properties[:filter.Limit]
	}

	ids := make([]snowflake.ID, 0, len(properties))
	for i := range properties {
		ids = append(ids, properties[i].ID)
	}
	active, err := s.overrides.ActiveForProperties(ctx, ids)
	if err != nil {
		return domain.ListResponse{}, err
	}

	display := s.display.Get()
	rows := make([]domain.Row, 0, len(properties))
	for i := range properties {
		rows = append(rows, buildRow(&properties[i], active[properties[i].ID], display))
	}

	if band := strings.ToLower(strings.TrimSpace(req.SpreadBand)); band != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if strings.EqualFold(row.SpreadBand, band) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	if strings.EqualFold(strings.TrimSpace(req.SortBy), "spread") {
		sortRowsBySpread(rows, strings.EqualFold(strings.TrimSpace(req.OrderBy), "asc"))
	}

	resp := domain.ListResponse{Properties: rows}
	resp.HasMore = hasMore
	if hasMore && len(properties) > 0 {
		last := properties[len(properties)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return domain.ListResponse{}, err
		}
		resp.NextPageToken = token
	}

	s.listings.Set(userID, req, resp)
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Row, error) {
	if _, ok := usercontext.UserIDFromContext(ctx); !ok {
		return nil, domain.ErrInvalidUser
	}

	propID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || propID == 0 {
		return nil, domain.ErrInvalidID
	}

	property, err := s.repo.FindByID(ctx, s.db, propID)
	if err != nil {
		return nil, s.storageErr(err)
	}
	if property == nil {
		return nil, domain.ErrNotFound
	}

	active, err := s.overrides.ActiveForProperties(ctx, []snowflake.ID{propID})
	if err != nil {
		return nil, err
	}

	row := buildRow(property, active[propID], s.display.Get())
	return &row, nil
}

func (s *Service) Import(ctx context.Context, req domain.ImportRequest) (*domain.ImportResponse, error) {
	if len(req.Snapshots) == 0 {
		return &domain.ImportResponse{}, nil
	}

	imported := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range req.Snapshots {
			property, err := s.fromSnapshot(&req.Snapshots[i])
			if err != nil {
				return err
			}
			if _, err := s.repo.Upsert(ctx, tx, property); err != nil {
				return err
			}
			s.metrics.RecordPropertyImport(ctx, property.County)
			imported++
		}
		return nil
	})
	if err != nil {
		return nil, s.storageErr(err)
	}

	s.log.Info("snapshots imported", zap.Int("count", imported))
	return &domain.ImportResponse{Imported: imported}, nil
}

func (s *Service) fromSnapshot(snapshot *domain.Snapshot) (*domain.Property, error) {
	sourceKey := strings.TrimSpace(snapshot.SourceKey)
	address := strings.TrimSpace(snapshot.Address)
	if sourceKey == "" || address == "" {
		return nil, domain.ErrInvalidSnapshot
	}

	status := domain.StatusScheduled
	if strings.TrimSpace(snapshot.Status) != "" {
		parsed, err := domain.ParseStatus(snapshot.Status)
		if err != nil {
			return nil, err
		}
		status = parsed
	}

	now := time.Now().UTC()
	return &domain.Property{
		ID:             s.genID.Generate(),
		SourceKey:      sourceKey,
		Address:        address,
		City:           strings.TrimSpace(snapshot.City),
		County:         strings.TrimSpace(snapshot.County),
		State:          strings.TrimSpace(snapshot.State),
		Zip:            strings.TrimSpace(snapshot.Zip),
		SheriffNumber:  strings.TrimSpace(snapshot.SheriffNumber),
		Status:         status,
		AuctionAt:      snapshot.AuctionAt,
		ApproxUpset:    snapshot.ApproxUpset,
		JudgmentAmount: snapshot.Judgment,
		OpeningBid:     snapshot.OpeningBid,
		Zestimate:      snapshot.Zestimate,
		EstimatedARV:   snapshot.EstimatedARV,
		Attributes:     snapshot.Attributes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *Service) storageErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidSnapshot),
		errors.Is(err, domain.ErrInvalidPageToken),
		errors.Is(err, domain.ErrNotFound):
		return err
	}
	if pkgdb.IsUnavailableErr(err) {
		s.log.Warn("property store unavailable", zap.Error(err))
		return overridedomain.ErrStorageUnavailable
	}
	return err
}

func buildListFilter(req domain.ListRequest) (domain.ListFilter, error) {
	filter := domain.ListFilter{
		County:        strings.TrimSpace(req.County),
		AuctionAfter:  req.AuctionAfter,
		AuctionBefore: req.AuctionBefore,
		Search:        strings.TrimSpace(req.Search),
		SortBy:        strings.TrimSpace(req.SortBy),
		OrderBy:       strings.TrimSpace(req.OrderBy),
	}

	if status := strings.TrimSpace(req.Status); status != "" {
		parsed, err := domain.ParseStatus(status)
		if err != nil {
			return domain.ListFilter{}, err
		}
		filter.Status = &parsed
	}

	if strings.EqualFold(filter.SortBy, "spread") {
		// Spread is derived per user, so the store cannot order by it. The
		// page is re-sorted after the merge instead.
		filter.SortBy = ""
	}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		decoded, err := pagination.DecodeCursor(token)
		if err != nil {
			return domain.ListFilter{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.ListFilter{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListFilter{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = &domain.ListCursor{ID: id, CreatedAt: createdAt}
		// Keyset tokens are only stable under the default ordering.
		filter.SortBy = ""
		filter.OrderBy = ""
	}

	filter.Limit = req.PageSize
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 250 {
		filter.Limit = 250
	}
	return filter, nil
}

// buildRow merges a user's active overrides into the sourced snapshot and
// derives the spread from the merged values.
func buildRow(property *domain.Property, overrides overridedomain.FieldOverrides, display config.DisplayConfig) domain.Row {
	row := domain.Row{
		ID:            property.ID.String(),
		Address:       property.Address,
		City:          property.City,
		County:        property.County,
		State:         property.State,
		Zip:           property.Zip,
		SheriffNumber: property.SheriffNumber,
		Status:        property.Status,
		AuctionAt:     property.AuctionAt,
		Attributes:    property.Attributes,

		ApproxUpset:    property.ApproxUpset,
		JudgmentAmount: property.JudgmentAmount,
		OpeningBid:     property.OpeningBid,
		Zestimate:      property.Zestimate,
		EstimatedARV:   property.EstimatedARV,
		StartingBid:    property.OpeningBid,

		CreatedAt: property.CreatedAt,
	}

	inputs := spread.Inputs{
		ApproxUpset:    property.ApproxUpset,
		JudgmentAmount: property.JudgmentAmount,
		OpeningBid:     property.OpeningBid,
		Zestimate:      property.Zestimate,
		EstimatedARV:   property.EstimatedARV,
	}

	for field, value := range overrides {
		switch field {
		case overridedomain.FieldApproxUpset:
			row.ApproxUpset = value.Amount
			inputs.ApproxUpset = value.Amount
		case overridedomain.FieldJudgmentAmount:
			row.JudgmentAmount = value.Amount
			inputs.JudgmentAmount = value.Amount
		case overridedomain.FieldStartingBid:
			row.StartingBid = value.Amount
		case overridedomain.FieldBidCap:
			row.BidCap = value.Amount
		case overridedomain.FieldPropertySold:
			row.SoldPrice = value.Amount
			row.SoldAt = value.Date
		}
		row.Overridden = append(row.Overridden, string(field))
	}
	sort.Strings(row.Overridden)

	row.SpreadPercent = spread.Calculate(inputs)
	row.SpreadBand = display.Band(row.SpreadPercent)
	return row
}

// sortRowsBySpread orders a page by spread, undefined spreads last.
func sortRowsBySpread(rows []domain.Row, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].SpreadPercent, rows[j].SpreadPercent
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case ascending:
			return *a < *b
		default:
			return *a > *b
		}
	})
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/cache"
	obsmetrics "github.com/dealgrid/auctionlens/internal/observability/metrics"
	"github.com/dealgrid/auctionlens/internal/override/domain"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/spread"
	"github.com/dealgrid/auctionlens/internal/usercontext"
	pkgdb "github.com/dealgrid/auctionlens/pkg/db"
	"github.com/dealgrid/auctionlens/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tripleLockTTL = 5 * time.Second

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Properties propertydomain.Repository
	Listings   *cache.ListingCache `optional:"true"`
	Metrics    *obsmetrics.Metrics `optional:"true"`
	Locker     *Locker             `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	properties propertydomain.Repository
	listings   *cache.ListingCache
	metrics    *obsmetrics.Metrics
	locker     TripleLocker
}

func New(p Params) domain.Service {
	var locker TripleLocker
	if p.Locker != nil {
		locker = p.Locker
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("override.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		properties: p.Properties,
		listings:   p.Listings,
		metrics:    p.Metrics,
		locker:     locker,
	}
}

func (s *Service) Get(ctx context.Context, propertyID string, field domain.Field) (*domain.ActiveResponse, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	propID, err := parsePropertyID(propertyID)
	if err != nil {
		return nil, err
	}
	field, err = domain.ParseField(string(field))
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.Latest(ctx, s.db, userID, propID, field, false)
	if err != nil {
		return nil, s.storageErr(err)
	}
	if latest == nil || latest.IsRevert() {
		return nil, nil
	}

	value := latest.NewValue()
	return &domain.ActiveResponse{
		PropertyID: propID.String(),
		Field:      field,
		Kind:       value.Kind,
		Amount:     value.Amount,
		Date:       value.Date,
		Notes:      latest.Notes,
		UpdatedAt:  latest.CreatedAt,
	}, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) (*domain.SaveResponse, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	propID, err := parsePropertyID(req.PropertyID)
	if err != nil {
		return nil, err
	}
	field, err := domain.ParseField(string(req.Field))
	if err != nil {
		return nil, err
	}
	value, err := resolveValue(field, req)
	if err != nil {
		return nil, err
	}

	release, err := s.acquireTripleLock(ctx, userID, propID, field)
	if err != nil {
		return nil, err
	}
	defer release()

	var resp *domain.SaveResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		property, err := s.properties.FindByID(ctx, tx, propID)
		if err != nil {
			return err
		}
		if property == nil {
			return domain.ErrPropertyNotFound
		}

		// The latest row is locked for the duration of the transaction, so
		// the snapshots below can never observe a half-applied rival write.
		latest, err := s.repo.Latest(ctx, tx, userID, propID, field, true)
		if err != nil {
			return err
		}
		active, err := s.activeFields(ctx, tx, userID, propID)
		if err != nil {
			return err
		}

		previousSpread := spread.Calculate(mergeInputs(property, active))
		original := originalValue(latest, property, field)

		record := &domain.OverrideRecord{
			ID:                    s.genID.Generate(),
			UserID:                userID,
			PropertyID:            propID,
			Field:                 field,
			ValueKind:             value.Kind,
			Amount:                value.Amount,
			SoldAt:                value.Date,
			OriginalKind:          original.Kind,
			OriginalAmount:        original.Amount,
			OriginalSoldAt:        original.Date,
			PreviousSpreadPercent: previousSpread,
			Notes:                 normalizeNotes(req.Notes),
			CreatedAt:             time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, tx, record); err != nil {
			return err
		}

		active[field] = value
		resp = &domain.SaveResponse{
			Record:        toRecordResponse(record),
			SpreadPercent: spread.Calculate(mergeInputs(property, active)),
		}
		return nil
	})
	if err != nil {
		return nil, s.storageErr(err)
	}

	s.listings.Invalidate(userID)
	s.metrics.RecordOverrideSave(ctx, string(field))
	s.log.Info("override saved",
		zap.String("property_id", propID.String()),
		zap.String("field", string(field)),
		zap.String("kind", string(value.Kind)),
	)
	return resp, nil
}

func (s *Service) History(ctx context.Context, req domain.HistoryRequest) (domain.HistoryResponse, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.HistoryResponse{}, domain.ErrInvalidUser
	}

	propID, err := parsePropertyID(req.PropertyID)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	field, err := domain.ParseField(string(req.Field))
	if err != nil {
		return domain.HistoryResponse{}, err
	}

	var cursor *domain.HistoryCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.HistoryResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return domain.HistoryResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.HistoryResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.HistoryCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	records, err := s.repo.History(ctx, s.db, domain.HistoryFilter{
		UserID:     userID,
		PropertyID: propID,
		Field:      field,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return domain.HistoryResponse{}, s.storageErr(err)
	}

	hasMore := len(records) > pageSize
	if hasMore {
		records = records[:pageSize]
	}

	resp := domain.HistoryResponse{
		Records: make([]domain.RecordResponse, 0, len(records)),
	}
	for _, record := range records {
		resp.Records = append(resp.Records, toRecordResponse(record))
	}
	resp.HasMore = hasMore
	if hasMore && len(records) > 0 {
		last := records[len(records)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return domain.HistoryResponse{}, err
		}
		resp.NextPageToken = token
	}
	return resp, nil
}

func (s *Service) Revert(ctx context.Context, propertyID string, field domain.Field) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	propID, err := parsePropertyID(propertyID)
	if err != nil {
		return err
	}
	field, err = domain.ParseField(string(field))
	if err != nil {
		return err
	}

	release, err := s.acquireTripleLock(ctx, userID, propID, field)
	if err != nil {
		return err
	}
	defer release()

	reverted := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		latest, err := s.repo.Latest(ctx, tx, userID, propID, field, true)
		if err != nil {
			return err
		}
		// Reverting a field that is not overridden succeeds without writing
		// anything; the audit trail stays exactly as it was.
		if latest == nil || latest.IsRevert() {
			return nil
		}

		property, err := s.properties.FindByID(ctx, tx, propID)
		if err != nil {
			return err
		}
		if property == nil {
			return domain.ErrPropertyNotFound
		}

		active, err := s.activeFields(ctx, tx, userID, propID)
		if err != nil {
			return err
		}
		previousSpread := spread.Calculate(mergeInputs(property, active))

		original := latest.NewValue()
		marker := &domain.OverrideRecord{
			ID:                    s.genID.Generate(),
			UserID:                userID,
			PropertyID:            propID,
			Field:                 field,
			ValueKind:             domain.ValueKindNone,
			OriginalKind:          original.Kind,
			OriginalAmount:        original.Amount,
			OriginalSoldAt:        original.Date,
			PreviousSpreadPercent: previousSpread,
			CreatedAt:             time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, tx, marker); err != nil {
			return err
		}
		reverted = true
		return nil
	})
	if err != nil {
		return s.storageErr(err)
	}

	if reverted {
		s.listings.Invalidate(userID)
		s.metrics.RecordOverrideRevert(ctx, string(field))
		s.log.Info("override reverted",
			zap.String("property_id", propID.String()),
			zap.String("field", string(field)),
		)
	}
	return nil
}

func (s *Service) ActiveForProperties(ctx context.Context, propertyIDs []snowflake.ID) (map[snowflake.ID]domain.FieldOverrides, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}
	if len(propertyIDs) == 0 {
		return map[snowflake.ID]domain.FieldOverrides{}, nil
	}

	records, err := s.repo.LatestBatch(ctx, s.db, userID, propertyIDs)
	if err != nil {
		return nil, s.storageErr(err)
	}

	result := make(map[snowflake.ID]domain.FieldOverrides, len(records))
	for i := range records {
		record := &records[i]
		if record.IsRevert() {
			continue
		}
		fields, ok := result[record.PropertyID]
		if !ok {
			fields = domain.FieldOverrides{}
			result[record.PropertyID] = fields
		}
		fields[record.Field] = record.NewValue()
	}
	return result, nil
}

// activeFields resolves every active override for one (user, property) pair
// inside the current transaction.
func (s *Service) activeFields(ctx context.Context, tx *gorm.DB, userID string, propID snowflake.ID) (domain.FieldOverrides, error) {
	records, err := s.repo.LatestBatch(ctx, tx, userID, []snowflake.ID{propID})
	if err != nil {
		return nil, err
	}
	fields := domain.FieldOverrides{}
	for i := range records {
		record := &records[i]
		if record.IsRevert() {
			continue
		}
		fields[record.Field] = record.NewValue()
	}
	return fields, nil
}

func (s *Service) acquireTripleLock(ctx context.Context, userID string, propID snowflake.ID, field domain.Field) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}

	key := tripleLockKey(userID, propID, field)
	token, acquired, err := s.locker.TryLock(ctx, key, tripleLockTTL)
	if err != nil {
		// A redis outage must not block edits; the store transaction still
		// serializes same-triple writes on a single instance.
		s.log.Warn("triple lock unavailable", zap.Error(err))
		return func() {}, nil
	}
	if !acquired {
		s.metrics.RecordOverrideLockConflict(ctx, string(field))
		return nil, domain.ErrConflictLost
	}
	return func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.log.Warn("triple lock release failed", zap.Error(err))
		}
	}, nil
}

func (s *Service) storageErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrPropertyNotFound),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrInvalidField),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSoldValue),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidPageToken),
		errors.Is(err, domain.ErrConflictLost):
		return err
	}
	if pkgdb.IsUnavailableErr(err) {
		s.log.Warn("override store unavailable", zap.Error(err))
		return domain.ErrStorageUnavailable
	}
	return err
}

func parsePropertyID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

// resolveValue applies the explicit write-time discriminator. property_sold
// requires a kind because a bare value's shape is ambiguous by construction.
func resolveValue(field domain.Field, req domain.SaveRequest) (domain.Value, error) {
	kind := strings.ToLower(strings.TrimSpace(req.Kind))

	if field.CurrencyOnly() {
		if kind != "" && kind != string(domain.ValueKindAmount) {
			return domain.Value{}, domain.ErrInvalidValue
		}
		if req.Amount == nil {
			return domain.Value{}, domain.ErrInvalidAmount
		}
		value := domain.AmountValue(*req.Amount)
		return value, value.Validate(field)
	}

	switch kind {
	case string(domain.ValueKindAmount):
		if req.Amount == nil {
			return domain.Value{}, domain.ErrInvalidSoldValue
		}
		value := domain.AmountValue(*req.Amount)
		if err := value.Validate(field); err != nil {
			return domain.Value{}, domain.ErrInvalidSoldValue
		}
		return value, nil
	case string(domain.ValueKindDate):
		if req.Date == nil {
			return domain.Value{}, domain.ErrInvalidSoldValue
		}
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.Date))
		if err != nil {
			return domain.Value{}, domain.ErrInvalidSoldValue
		}
		value := domain.DateValue(at)
		return value, value.Validate(field)
	default:
		return domain.Value{}, domain.ErrInvalidSoldValue
	}
}

// originalValue is the value active immediately before the write: the latest
// non-revert override when one exists, else the sourced value.
func originalValue(latest *domain.OverrideRecord, property *propertydomain.Property, field domain.Field) domain.Value {
	if latest != nil && !latest.IsRevert() {
		return latest.NewValue()
	}
	return sourcedValue(property, field)
}

func sourcedValue(property *propertydomain.Property, field domain.Field) domain.Value {
	var amount *float64
	switch field {
	case domain.FieldApproxUpset:
		amount = property.ApproxUpset
	case domain.FieldJudgmentAmount:
		amount = property.JudgmentAmount
	case domain.FieldStartingBid:
		amount = property.OpeningBid
	default:
		// bid_cap and property_sold have no sourced counterpart.
		return domain.NoneValue()
	}
	if amount == nil {
		return domain.NoneValue()
	}
	return domain.AmountValue(*amount)
}

// mergeInputs layers active overrides over the sourced snapshot for the
// spread computation. Only upset and judgment overrides participate; starting
// bid and bid cap are informational.
func mergeInputs(property *propertydomain.Property, active domain.FieldOverrides) spread.Inputs {
	inputs := spread.Inputs{
		ApproxUpset:    property.ApproxUpset,
		JudgmentAmount: property.JudgmentAmount,
		OpeningBid:     property.OpeningBid,
		Zestimate:      property.Zestimate,
		EstimatedARV:   property.EstimatedARV,
	}
	if value, ok := active[domain.FieldApproxUpset]; ok && value.Kind == domain.ValueKindAmount {
		inputs.ApproxUpset = value.Amount
	}
	if value, ok := active[domain.FieldJudgmentAmount]; ok && value.Kind == domain.ValueKindAmount {
		inputs.JudgmentAmount = value.Amount
	}
	return inputs
}

func toRecordResponse(record *domain.OverrideRecord) domain.RecordResponse {
	return domain.RecordResponse{
		ID:                    record.ID.String(),
		PropertyID:            record.PropertyID.String(),
		Field:                 record.Field,
		Revert:                record.IsRevert(),
		Kind:                  record.ValueKind,
		Amount:                record.Amount,
		Date:                  record.SoldAt,
		OriginalKind:          record.OriginalKind,
		OriginalAmount:        record.OriginalAmount,
		OriginalDate:          record.OriginalSoldAt,
		PreviousSpreadPercent: record.PreviousSpreadPercent,
		Notes:                 record.Notes,
		CreatedAt:             record.CreatedAt,
	}
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

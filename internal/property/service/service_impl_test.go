package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/cache"
	"github.com/dealgrid/auctionlens/internal/config"
	overridedomain "github.com/dealgrid/auctionlens/internal/override/domain"
	overriderepo "github.com/dealgrid/auctionlens/internal/override/repository"
	overrideservice "github.com/dealgrid/auctionlens/internal/override/service"
	"github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/property/repository"
	"github.com/dealgrid/auctionlens/internal/usercontext"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	svc       domain.Service
	overrides overridedomain.Service
}

func setupPropertyService(t *testing.T, listings *cache.ListingCache) fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.Property{},
		&overridedomain.OverrideRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	propRepo := repository.Provide()
	overrides := overrideservice.New(overrideservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       overriderepo.Provide(),
		Properties: propRepo,
		Listings:   listings,
	})

	display, err := config.NewDisplayConfigHolder(config.Config{})
	require.NoError(t, err)

	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Repo:      propRepo,
		Overrides: overrides,
		Display:   display,
		Listings:  listings,
	})
	return fixture{db: db, node: node, svc: svc, overrides: overrides}
}

func seedProperty(t *testing.T, fx fixture, county string, upset, zestimate *float64) snowflake.ID {
	t.Helper()

	id := fx.node.Generate()
	now := time.Now().UTC()
	require.NoError(t, fx.db.Create(&domain.Property{
		ID:          id,
		SourceKey:   fmt.Sprintf("%s/%s", county, id),
		Address:     "1 Test Street",
		County:      county,
		Status:      domain.StatusScheduled,
		ApproxUpset: upset,
		Zestimate:   zestimate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}).Error)
	return id
}

func userCtx(userID string) context.Context {
	return usercontext.WithUserID(context.Background(), userID)
}

func f(v float64) *float64 { return &v }

func TestListMergesOverridesAndBands(t *testing.T) {
	fx := setupPropertyService(t, nil)
	hot := seedProperty(t, fx, "essex", f(245000), f(420000))
	workable := seedProperty(t, fx, "bergen", f(245000), f(420000))
	ctx := userCtx("u-1")

	_, err := fx.overrides.Save(ctx, overridedomain.SaveRequest{
		PropertyID: workable.String(),
		Field:      overridedomain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	resp, err := fx.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Properties, 2)

	byID := map[string]domain.Row{}
	for _, row := range resp.Properties {
		byID[row.ID] = row
	}

	hotRow := byID[hot.String()]
	require.Empty(t, hotRow.Overridden)
	require.InDelta(t, 71.4285714286, *hotRow.SpreadPercent, 1e-6)
	require.Equal(t, "hot", hotRow.SpreadBand)

	workRow := byID[workable.String()]
	require.Equal(t, []string{"approx_upset"}, workRow.Overridden)
	require.InDelta(t, 300000, *workRow.ApproxUpset, 1e-9)
	require.InDelta(t, 40.0, *workRow.SpreadPercent, 1e-9)
	require.Equal(t, "workable", workRow.SpreadBand)
}

func TestListSpreadIsPerUser(t *testing.T) {
	fx := setupPropertyService(t, nil)
	propID := seedProperty(t, fx, "essex", f(245000), f(420000))

	_, err := fx.overrides.Save(userCtx("u-1"), overridedomain.SaveRequest{
		PropertyID: propID.String(),
		Field:      overridedomain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	mine, err := fx.svc.List(userCtx("u-1"), domain.ListRequest{})
	require.NoError(t, err)
	require.InDelta(t, 40.0, *mine.Properties[0].SpreadPercent, 1e-9)

	theirs, err := fx.svc.List(userCtx("u-2"), domain.ListRequest{})
	require.NoError(t, err)
	require.Empty(t, theirs.Properties[0].Overridden)
	require.InDelta(t, 71.4285714286, *theirs.Properties[0].SpreadPercent, 1e-6)
}

func TestListUndefinedSpread(t *testing.T) {
	fx := setupPropertyService(t, nil)
	seedProperty(t, fx, "union", f(312000), nil)

	resp, err := fx.svc.List(userCtx("u-1"), domain.ListRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Properties, 1)
	require.Nil(t, resp.Properties[0].SpreadPercent)
	require.Empty(t, resp.Properties[0].SpreadBand)
}

func TestListFiltersAndPaginates(t *testing.T) {
	fx := setupPropertyService(t, nil)
	seedProperty(t, fx, "essex", f(245000), f(420000))
	seedProperty(t, fx, "essex", f(198000), f(365000))
	seedProperty(t, fx, "bergen", f(312000), f(330000))
	ctx := userCtx("u-1")

	essexOnly, err := fx.svc.List(ctx, domain.ListRequest{County: "essex"})
	require.NoError(t, err)
	require.Len(t, essexOnly.Properties, 2)

	req := domain.ListRequest{}
	req.PageSize = 2
	first, err := fx.svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, first.Properties, 2)
	require.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	req.PageToken = first.NextPageToken
	second, err := fx.svc.List(ctx, req)
	require.NoError(t, err)
	require.Len(t, second.Properties, 1)
	require.False(t, second.HasMore)

	req.PageToken = "garbage"
	_, err = fx.svc.List(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestListSortsBySpreadWithinPage(t *testing.T) {
	fx := setupPropertyService(t, nil)
	seedProperty(t, fx, "essex", f(245000), f(420000))  // ~71%
	seedProperty(t, fx, "bergen", f(300000), f(330000)) // 10%
	seedProperty(t, fx, "union", f(312000), nil)        // undefined
	ctx := userCtx("u-1")

	resp, err := fx.svc.List(ctx, domain.ListRequest{SortBy: "spread"})
	require.NoError(t, err)
	require.Len(t, resp.Properties, 3)
	require.InDelta(t, 71.4285714286, *resp.Properties[0].SpreadPercent, 1e-6)
	require.InDelta(t, 10.0, *resp.Properties[1].SpreadPercent, 1e-6)
	require.Nil(t, resp.Properties[2].SpreadPercent)
}

func TestListCacheInvalidatedByOverrideWrite(t *testing.T) {
	listings := cache.NewListingCache(config.Config{ListingCacheTTL: 60})
	fx := setupPropertyService(t, listings)
	propID := seedProperty(t, fx, "essex", f(245000), f(420000))
	ctx := userCtx("u-1")

	before, err := fx.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Empty(t, before.Properties[0].Overridden)

	// Cached result is reused for the identical query.
	again, err := fx.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Equal(t, before, again)

	_, err = fx.overrides.Save(ctx, overridedomain.SaveRequest{
		PropertyID: propID.String(),
		Field:      overridedomain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	after, err := fx.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{"approx_upset"}, after.Properties[0].Overridden)
	require.InDelta(t, 40.0, *after.Properties[0].SpreadPercent, 1e-9)
}

func TestGetUnknownProperty(t *testing.T) {
	fx := setupPropertyService(t, nil)

	_, err := fx.svc.Get(userCtx("u-1"), fx.node.Generate().String())
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = fx.svc.Get(userCtx("u-1"), "not-an-id")
	require.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestImportUpsertsBySourceKey(t *testing.T) {
	fx := setupPropertyService(t, nil)
	ctx := userCtx("feed")

	resp, err := fx.svc.Import(ctx, domain.ImportRequest{Snapshots: []domain.Snapshot{
		{SourceKey: "essex/F-1", Address: "114 Grove Street", County: "Essex", ApproxUpset: f(245000)},
		{SourceKey: "bergen/F-2", Address: "8 Lincoln Avenue", County: "Bergen"},
	}})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Imported)

	resp, err = fx.svc.Import(ctx, domain.ImportRequest{Snapshots: []domain.Snapshot{
		{SourceKey: "essex/F-1", Address: "114 Grove Street", County: "Essex", ApproxUpset: f(260000)},
	}})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Imported)

	var count int64
	require.NoError(t, fx.db.Model(&domain.Property{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	var stored domain.Property
	require.NoError(t, fx.db.Where("source_key = ?", "essex/F-1").First(&stored).Error)
	require.InDelta(t, 260000, *stored.ApproxUpset, 1e-9)

	_, err = fx.svc.Import(ctx, domain.ImportRequest{Snapshots: []domain.Snapshot{
		{SourceKey: "", Address: "missing key"},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidSnapshot)
}

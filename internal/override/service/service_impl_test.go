package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/override/domain"
	"github.com/dealgrid/auctionlens/internal/override/repository"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	propertyrepo "github.com/dealgrid/auctionlens/internal/property/repository"
	"github.com/dealgrid/auctionlens/internal/usercontext"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupOverrideService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(
		&propertydomain.Property{},
		&domain.OverrideRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Repo:       repository.Provide(),
		Properties: propertyrepo.Provide(),
	})
	return svc, db, node
}

func seedListing(t *testing.T, db *gorm.DB, node *snowflake.Node, upset, zestimate *float64) snowflake.ID {
	t.Helper()

	id := node.Generate()
	now := time.Now().UTC()
	property := propertydomain.Property{
		ID:          id,
		SourceKey:   fmt.Sprintf("essex/%s", id),
		Address:     "114 Grove Street",
		County:      "Essex",
		Status:      propertydomain.StatusScheduled,
		ApproxUpset: upset,
		Zestimate:   zestimate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&property).Error)
	return id
}

func userCtx(userID string) context.Context {
	return usercontext.WithUserID(context.Background(), userID)
}

func f(v float64) *float64 { return &v }

func TestSaveAndGetRoundTrip(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	resp, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)
	require.NotNil(t, resp.SpreadPercent)
	require.InDelta(t, 40.0, *resp.SpreadPercent, 1e-9)

	require.Equal(t, domain.ValueKindAmount, resp.Record.OriginalKind)
	require.NotNil(t, resp.Record.OriginalAmount)
	require.InDelta(t, 245000, *resp.Record.OriginalAmount, 1e-9)
	require.NotNil(t, resp.Record.PreviousSpreadPercent)
	require.InDelta(t, 71.4285714286, *resp.Record.PreviousSpreadPercent, 1e-6)

	active, err := svc.Get(ctx, propID.String(), domain.FieldApproxUpset)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, domain.ValueKindAmount, active.Kind)
	require.InDelta(t, 300000, *active.Amount, 1e-9)
}

func TestHistoryAppendsOneRecordPerWrite(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	for _, amount := range []float64{250000, 260000, 270000} {
		_, err := svc.Save(ctx, domain.SaveRequest{
			PropertyID: propID.String(),
			Field:      domain.FieldApproxUpset,
			Amount:     f(amount),
		})
		require.NoError(t, err)
	}
	require.NoError(t, svc.Revert(ctx, propID.String(), domain.FieldApproxUpset))

	history, err := svc.History(ctx, domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
	})
	require.NoError(t, err)
	require.Len(t, history.Records, 4)
	require.False(t, history.HasMore)

	// Newest first: the revert marker, then the writes in reverse order.
	require.True(t, history.Records[0].Revert)
	require.InDelta(t, 270000, *history.Records[1].Amount, 1e-9)
	require.InDelta(t, 260000, *history.Records[2].Amount, 1e-9)
	require.InDelta(t, 250000, *history.Records[3].Amount, 1e-9)

	// Each write snapshots the value it replaced.
	require.InDelta(t, 260000, *history.Records[1].OriginalAmount, 1e-9)
	require.InDelta(t, 250000, *history.Records[2].OriginalAmount, 1e-9)
	require.InDelta(t, 245000, *history.Records[3].OriginalAmount, 1e-9)
}

func TestRevertIsIdempotent(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	// Reverting an untouched field writes nothing.
	require.NoError(t, svc.Revert(ctx, propID.String(), domain.FieldApproxUpset))
	history, err := svc.History(ctx, domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
	})
	require.NoError(t, err)
	require.Empty(t, history.Records)

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Revert(ctx, propID.String(), domain.FieldApproxUpset))
	require.NoError(t, svc.Revert(ctx, propID.String(), domain.FieldApproxUpset))

	history, err = svc.History(ctx, domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
	})
	require.NoError(t, err)
	require.Len(t, history.Records, 2)

	active, err := svc.Get(ctx, propID.String(), domain.FieldApproxUpset)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestOverridesAreUserPrivate(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))

	_, err := svc.Save(userCtx("u-1"), domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	active, err := svc.Get(userCtx("u-2"), propID.String(), domain.FieldApproxUpset)
	require.NoError(t, err)
	require.Nil(t, active)

	history, err := svc.History(userCtx("u-2"), domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
	})
	require.NoError(t, err)
	require.Empty(t, history.Records)
}

func TestPropertySoldKeepsBothShapes(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	soldAt := "2026-08-14T15:00:00Z"
	_, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldPropertySold,
		Kind:       "date",
		Date:       &soldAt,
	})
	require.NoError(t, err)

	resp, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldPropertySold,
		Kind:       "amount",
		Amount:     f(285000),
	})
	require.NoError(t, err)

	// The amount write snapshots the date it replaced with its stored kind.
	require.Equal(t, domain.ValueKindDate, resp.Record.OriginalKind)
	require.NotNil(t, resp.Record.OriginalDate)
	require.True(t, resp.Record.OriginalDate.Equal(time.Date(2026, 8, 14, 15, 0, 0, 0, time.UTC)))

	history, err := svc.History(ctx, domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldPropertySold,
	})
	require.NoError(t, err)
	require.Len(t, history.Records, 2)
	require.Equal(t, domain.ValueKindAmount, history.Records[0].Kind)
	require.Equal(t, domain.ValueKindDate, history.Records[1].Kind)
}

func TestSaveValidation(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	_, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      "list_price",
		Amount:     f(100),
	})
	require.ErrorIs(t, err, domain.ErrInvalidField)

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(-5),
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	date := "2026-08-14T15:00:00Z"
	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldJudgmentAmount,
		Kind:       "date",
		Date:       &date,
	})
	require.ErrorIs(t, err, domain.ErrInvalidValue)

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldPropertySold,
		Amount:     f(285000),
	})
	require.ErrorIs(t, err, domain.ErrInvalidSoldValue)

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: node.Generate().String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(100),
	})
	require.ErrorIs(t, err, domain.ErrPropertyNotFound)

	_, err = svc.Save(context.Background(), domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(100),
	})
	require.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestHistoryPagination(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	for i := range 5 {
		_, err := svc.Save(ctx, domain.SaveRequest{
			PropertyID: propID.String(),
			Field:      domain.FieldBidCap,
			Amount:     f(float64(200000 + i*1000)),
		})
		require.NoError(t, err)
	}

	req := domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldBidCap,
	}
	req.PageSize = 2

	seen := 0
	for {
		page, err := svc.History(ctx, req)
		require.NoError(t, err)
		require.LessOrEqual(t, len(page.Records), 2)
		seen += len(page.Records)
		if !page.HasMore {
			break
		}
		require.NotEmpty(t, page.NextPageToken)
		req.PageToken = page.NextPageToken
	}
	require.Equal(t, 5, seen)

	req.PageToken = "not-a-token"
	_, err := svc.History(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestActiveForPropertiesBatches(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propA := seedListing(t, db, node, f(245000), f(420000))
	propB := seedListing(t, db, node, f(198000), f(365000))
	propC := seedListing(t, db, node, f(312000), nil)
	ctx := userCtx("u-1")

	_, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propA.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)
	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propA.String(),
		Field:      domain.FieldBidCap,
		Amount:     f(350000),
	})
	require.NoError(t, err)

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propB.String(),
		Field:      domain.FieldJudgmentAmount,
		Amount:     f(180000),
	})
	require.NoError(t, err)
	require.NoError(t, svc.Revert(ctx, propB.String(), domain.FieldJudgmentAmount))

	active, err := svc.ActiveForProperties(ctx, []snowflake.ID{propA, propB, propC})
	require.NoError(t, err)

	require.Len(t, active[propA], 2)
	require.InDelta(t, 300000, *active[propA][domain.FieldApproxUpset].Amount, 1e-9)
	require.InDelta(t, 350000, *active[propA][domain.FieldBidCap].Amount, 1e-9)

	// Reverted overrides and untouched properties do not appear.
	require.NotContains(t, active, propB)
	require.NotContains(t, active, propC)
}

func TestSaveMapsStorageFailure(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestFieldSpellingIsNormalizedEverywhere(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	// Any spelling the write path accepts must address the same override on
	// the read and revert paths.
	spelled := domain.Field("  Approx_Upset ")

	_, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      spelled,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	active, err := svc.Get(ctx, propID.String(), spelled)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, domain.FieldApproxUpset, active.Field)
	require.InDelta(t, 300000, *active.Amount, 1e-9)

	require.NoError(t, svc.Revert(ctx, propID.String(), spelled))

	active, err = svc.Get(ctx, propID.String(), domain.FieldApproxUpset)
	require.NoError(t, err)
	require.Nil(t, active)

	history, err := svc.History(ctx, domain.HistoryRequest{
		PropertyID: propID.String(),
		Field:      spelled,
	})
	require.NoError(t, err)
	require.Len(t, history.Records, 2)
	require.True(t, history.Records[0].Revert)
}

type stubLocker struct {
	acquired bool
	err      error
	keys     []string
	released [][2]string
}

func (l *stubLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return "", false, l.err
	}
	if !l.acquired {
		return "", false, nil
	}
	return "tok-1", true, nil
}

func (l *stubLocker) Release(ctx context.Context, key, token string) error {
	l.released = append(l.released, [2]string{key, token})
	return nil
}

func TestWritesConflictWhenTripleLockIsHeld(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	svc.(*Service).locker = &stubLocker{acquired: false}

	_, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.ErrorIs(t, err, domain.ErrConflictLost)
	require.ErrorIs(t, svc.Revert(ctx, propID.String(), domain.FieldApproxUpset), domain.ErrConflictLost)

	// The losing write must not leave a record behind.
	active, err := svc.Get(ctx, propID.String(), domain.FieldApproxUpset)
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestWritesProceedWhenLockStoreIsDown(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	svc.(*Service).locker = &stubLocker{err: fmt.Errorf("redis: connection refused")}

	resp, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.NoError(t, svc.Revert(ctx, propID.String(), domain.FieldApproxUpset))
}

func TestTripleLockReleasedAfterWrite(t *testing.T) {
	svc, db, node := setupOverrideService(t)
	propID := seedListing(t, db, node, f(245000), f(420000))
	ctx := userCtx("u-1")

	locker := &stubLocker{acquired: true}
	svc.(*Service).locker = locker

	_, err := svc.Save(ctx, domain.SaveRequest{
		PropertyID: propID.String(),
		Field:      domain.FieldApproxUpset,
		Amount:     f(300000),
	})
	require.NoError(t, err)

	wantKey := fmt.Sprintf("override:lock:u-1:%d:approx_upset", propID)
	require.Equal(t, []string{wantKey}, locker.keys)
	require.Equal(t, [][2]string{{wantKey, "tok-1"}}, locker.released)
}

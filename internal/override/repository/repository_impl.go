package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/override/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *domain.OverrideRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO override_records (
			id, user_id, property_id, field,
			value_kind, amount, sold_at,
			original_kind, original_amount, original_sold_at,
			previous_spread_percent, notes, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserID,
		record.PropertyID,
		record.Field,
		record.ValueKind,
		record.Amount,
		record.SoldAt,
		record.OriginalKind,
		record.OriginalAmount,
		record.OriginalSoldAt,
		record.PreviousSpreadPercent,
		record.Notes,
		record.CreatedAt,
	).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID, field domain.Field, forUpdate bool) (*domain.OverrideRecord, error) {
	stmt := db.WithContext(ctx).
		Where("user_id = ? AND property_id = ? AND field = ?", userID, propertyID, field).
		Order("created_at desc, id desc").
		Limit(1)

	// sqlite has no row locks; its writes serialize on the database handle.
	if forUpdate && db.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var records []domain.OverrideRecord
	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

func (r *repo) LatestBatch(ctx context.Context, db *gorm.DB, userID string, propertyIDs []snowflake.ID) ([]domain.OverrideRecord, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}

	// Record IDs increase monotonically within a triple, so MAX(id) picks the
	// newest record per (property, field) in one scan.
	var records []domain.OverrideRecord
	err := db.WithContext(ctx).Raw(
		`SELECT o.* FROM override_records o
		 JOIN (
			SELECT property_id, field, MAX(id) AS latest_id
			FROM override_records
			WHERE user_id = ? AND property_id IN ?
			GROUP BY property_id, field
		 ) latest ON latest.latest_id = o.id`,
		userID,
		propertyIDs,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) History(ctx context.Context, db *gorm.DB, filter domain.HistoryFilter) ([]*domain.OverrideRecord, error) {
	var records []*domain.OverrideRecord
	stmt := db.WithContext(ctx).Model(&domain.OverrideRecord{}).
		Where("user_id = ? AND property_id = ? AND field = ?",
			filter.UserID, filter.PropertyID, filter.Field)

	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

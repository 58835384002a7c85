package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, property *domain.Property) (*domain.Property, error) {
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"address", "city", "county", "state", "zip", "sheriff_number",
			"status", "auction_at", "approx_upset", "judgment_amount",
			"opening_bid", "zestimate", "estimated_arv", "attributes",
			"updated_at",
		}),
	}).Create(property).Error
	if err != nil {
		return nil, err
	}

	var stored domain.Property
	if err := db.WithContext(ctx).
		Where("source_key = ?", property.SourceKey).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Property, error) {
	var p domain.Property
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM properties WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Property, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Property
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Property, error) {
	var items []domain.Property
	stmt := db.WithContext(ctx).Model(&domain.Property{})

	if county := strings.TrimSpace(filter.County); county != "" {
		stmt = stmt.Where("county = ?", county)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.AuctionAfter != nil {
		stmt = stmt.Where("auction_at >= ?", filter.AuctionAfter.UTC())
	}
	if filter.AuctionBefore != nil {
		stmt = stmt.Where("auction_at <= ?", filter.AuctionBefore.UTC())
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where(
			"LOWER(address) LIKE ? OR LOWER(city) LIKE ? OR LOWER(sheriff_number) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	sortClause := option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"auction_at": true,
		"county":     true,
	})
	stmt = option.WithSortBy(sortClause + ", id desc").Apply(stmt)

	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/tag/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tag *domain.Tag) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO property_tags (id, user_id, property_id, label, color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		tag.ID, tag.UserID, tag.PropertyID, tag.Label, tag.Color, tag.CreatedAt,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID, label string) (*domain.Tag, error) {
	var tag domain.Tag
	err := db.WithContext(ctx).
		Where("user_id = ? AND property_id = ? AND label = ?", userID, propertyID, label).
		Limit(1).
		Find(&tag).Error
	if err != nil {
		return nil, err
	}
	if tag.ID == 0 {
		return nil, nil
	}
	return &tag, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&domain.Tag{})
	return result.RowsAffected, result.Error
}

func (r *repo) ListByProperty(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) ([]domain.Tag, error) {
	var tags []domain.Tag
	err := db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Order("label asc").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *repo) Labels(ctx context.Context, db *gorm.DB, userID string) ([]string, error) {
	var labels []string
	err := db.WithContext(ctx).
		Model(&domain.Tag{}).
		Distinct("label").
		Where("user_id = ?", userID).
		Order("label asc").
		Pluck("label", &labels).Error
	if err != nil {
		return nil, err
	}
	return labels, nil
}

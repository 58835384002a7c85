package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/favorite/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, favorite *domain.Favorite) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO property_favorites (id, user_id, property_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		favorite.ID, favorite.UserID, favorite.PropertyID, favorite.CreatedAt,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) (*domain.Favorite, error) {
	var favorite domain.Favorite
	err := db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Limit(1).
		Find(&favorite).Error
	if err != nil {
		return nil, err
	}
	if favorite.ID == 0 {
		return nil, nil
	}
	return &favorite, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&domain.Favorite{})
	return result.RowsAffected, result.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID string) ([]domain.Favorite, error) {
	var favorites []domain.Favorite
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&favorites).Error
	if err != nil {
		return nil, err
	}
	return favorites, nil
}

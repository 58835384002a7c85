package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/note/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, note *domain.Note) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO property_notes (id, user_id, property_id, body, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.PropertyID, note.Body, note.CreatedAt, note.UpdatedAt,
	).Error
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*domain.Note, error) {
	var note domain.Note
	err := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Limit(1).
		Find(&note).Error
	if err != nil {
		return nil, err
	}
	if note.ID == 0 {
		return nil, nil
	}
	return &note, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, note *domain.Note) error {
	return db.WithContext(ctx).Exec(
		`UPDATE property_notes SET body = ?, updated_at = ? WHERE user_id = ? AND id = ?`,
		note.Body, note.UpdatedAt, note.UserID, note.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (int64, error) {
	result := db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&domain.Note{})
	return result.RowsAffected, result.Error
}

func (r *repo) ListByProperty(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) ([]domain.Note, error) {
	var notes []domain.Note
	err := db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Order("created_at desc, id desc").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

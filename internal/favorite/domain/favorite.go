package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidUser = errors.New("invalid_user")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)

// Favorite pins a property to the user's watch list. At most one row exists
// per pair; setting twice is a no-op.
type Favorite struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     string       `gorm:"column:user_id;type:text;not null;uniqueIndex:ux_favorites_pair,priority:1"`
	PropertyID snowflake.ID `gorm:"column:property_id;not null;uniqueIndex:ux_favorites_pair,priority:2"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Favorite) TableName() string { return "property_favorites" }

type Response struct {
	PropertyID string    `json:"property_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, favorite *Favorite) error
	Find(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) (*Favorite, error)
	Delete(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) (int64, error)
	List(ctx context.Context, db *gorm.DB, userID string) ([]Favorite, error)
}

type Service interface {
	Set(ctx context.Context, propertyID string) error
	Unset(ctx context.Context, propertyID string) error
	List(ctx context.Context) ([]Response, error)
}

package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidLabel = errors.New("invalid_label")
	ErrNotFound     = errors.New("not_found")
)

// Tag is a user-private label on a property. The pair is unique per label;
// re-adding the same label is a no-op.
type Tag struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     string       `gorm:"column:user_id;type:text;not null;uniqueIndex:ux_tags_triple,priority:1"`
	PropertyID snowflake.ID `gorm:"column:property_id;not null;uniqueIndex:ux_tags_triple,priority:2"`
	Label      string       `gorm:"type:text;not null;uniqueIndex:ux_tags_triple,priority:3"`
	Color      string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Tag) TableName() string { return "property_tags" }

type Response struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Label      string    `json:"label"`
	Color      string    `json:"color,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type AddRequest struct {
	PropertyID string `json:"-"`
	Label      string `json:"label"`
	Color      string `json:"color,omitempty"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tag *Tag) error
	Find(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID, label string) (*Tag, error)
	Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (int64, error)
	ListByProperty(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) ([]Tag, error)
	Labels(ctx context.Context, db *gorm.DB, userID string) ([]string, error)
}

type Service interface {
	Add(ctx context.Context, req AddRequest) (*Response, error)
	Remove(ctx context.Context, id string) error
	ListByProperty(ctx context.Context, propertyID string) ([]Response, error)

	// Labels returns the user's distinct labels for filter dropdowns.
	Labels(ctx context.Context) ([]string, error)
}

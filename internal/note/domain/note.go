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
	ErrInvalidBody = errors.New("invalid_body")
	ErrNotFound    = errors.New("not_found")
)

// Note is a user-private free-text annotation on a property.
type Note struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     string       `gorm:"column:user_id;type:text;not null;index:ix_notes_owner,priority:1"`
	PropertyID snowflake.ID `gorm:"column:property_id;not null;index:ix_notes_owner,priority:2"`
	Body       string       `gorm:"type:text;not null"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Note) TableName() string { return "property_notes" }

type Response struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateRequest struct {
	PropertyID string `json:"-"`
	Body       string `json:"body"`
}

type UpdateRequest struct {
	ID   string `json:"-"`
	Body string `json:"body"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, note *Note) error
	Find(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (*Note, error)
	Update(ctx context.Context, db *gorm.DB, note *Note) error
	Delete(ctx context.Context, db *gorm.DB, userID string, id snowflake.ID) (int64, error)
	ListByProperty(ctx context.Context, db *gorm.DB, userID string, propertyID snowflake.ID) ([]Note, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	ListByProperty(ctx context.Context, propertyID string) ([]Response, error)
}

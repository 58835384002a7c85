package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Option applies a query modifier to a GORM statement.
type Option interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type sortBy struct {
	clause string
}

func (o sortBy) Apply(stmt *gorm.DB) *gorm.DB {
	if o.clause == "" {
		return stmt
	}
	return stmt.Order(o.clause)
}

// WithSortBy returns an option ordering by the given clause.
func WithSortBy(clause string) Option {
	return sortBy{clause: clause}
}

// WithQuerySortBy validates a user-supplied sort column against the allowed
// set and normalizes the direction. Unknown columns fall back to created_at.
func WithQuerySortBy(column, direction string, allowed map[string]bool) string {
	column = strings.ToLower(strings.TrimSpace(column))
	if column == "" || !allowed[column] {
		column = "created_at"
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != "asc" && direction != "desc" {
		direction = "desc"
	}

	return fmt.Sprintf("%s %s", column, direction)
}

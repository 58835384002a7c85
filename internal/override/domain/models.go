package domain

import (
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Field identifies a property field a user may override.
type Field string

const (
	FieldApproxUpset    Field = "approx_upset"
	FieldJudgmentAmount Field = "judgment_amount"
	FieldStartingBid    Field = "starting_bid"
	FieldBidCap         Field = "bid_cap"
	FieldPropertySold   Field = "property_sold"
)

// ParseField validates a user-supplied field name.
func ParseField(value string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(value))) {
	case FieldApproxUpset:
		return FieldApproxUpset, nil
	case FieldJudgmentAmount:
		return FieldJudgmentAmount, nil
	case FieldStartingBid:
		return FieldStartingBid, nil
	case FieldBidCap:
		return FieldBidCap, nil
	case FieldPropertySold:
		return FieldPropertySold, nil
	default:
		return "", ErrInvalidField
	}
}

// CurrencyOnly reports whether the field accepts only currency amounts.
// property_sold is the one dual-typed field: a sale price or a sold date.
func (f Field) CurrencyOnly() bool {
	return f != FieldPropertySold
}

// ValueKind is the explicit discriminator for an override value. The kind is
// resolved at write time and stored; it is never re-inferred from the value's
// shape when reading history.
type ValueKind string

const (
	// ValueKindAmount marks a currency amount.
	ValueKindAmount ValueKind = "amount"
	// ValueKindDate marks a point-in-time timestamp (property_sold only).
	ValueKindDate ValueKind = "date"
	// ValueKindNone marks the absence of a value. A record whose new value
	// has this kind is a revert marker.
	ValueKindNone ValueKind = "none"
)

// Value is a tagged variant: an amount, a date, or nothing.
type Value struct {
	Kind   ValueKind
	Amount *float64
	Date   *time.Time
}

// AmountValue builds an amount-kind value.
func AmountValue(amount float64) Value {
	return Value{Kind: ValueKindAmount, Amount: &amount}
}

// DateValue builds a date-kind value.
func DateValue(at time.Time) Value {
	utc := at.UTC()
	return Value{Kind: ValueKindDate, Date: &utc}
}

// NoneValue builds the absent value.
func NoneValue() Value {
	return Value{Kind: ValueKindNone}
}

// IsNone reports whether the value is absent.
func (v Value) IsNone() bool {
	return v.Kind == ValueKindNone || v.Kind == ""
}

// Validate checks the value against the field's semantic type.
func (v Value) Validate(field Field) error {
	switch v.Kind {
	case ValueKindAmount:
		if v.Amount == nil {
			return ErrInvalidAmount
		}
		if math.IsNaN(*v.Amount) || math.IsInf(*v.Amount, 0) || *v.Amount < 0 {
			return ErrInvalidAmount
		}
		return nil
	case ValueKindDate:
		if field.CurrencyOnly() {
			return ErrInvalidSoldValue
		}
		if v.Date == nil || v.Date.IsZero() {
			return ErrInvalidSoldValue
		}
		return nil
	default:
		return ErrInvalidValue
	}
}

// OverrideRecord is one append-only write in a field's override history.
// Records are never updated or deleted; the active override for a triple is
// the newest record, and a ValueKindNone record clears it.
type OverrideRecord struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	UserID     string       `gorm:"column:user_id;type:text;not null;index:ix_override_triple,priority:1"`
	PropertyID snowflake.ID `gorm:"column:property_id;not null;index:ix_override_triple,priority:2"`
	Field      Field        `gorm:"column:field;type:text;not null;index:ix_override_triple,priority:3"`

	ValueKind ValueKind  `gorm:"column:value_kind;type:text;not null"`
	Amount    *float64   `gorm:"column:amount"`
	SoldAt    *time.Time `gorm:"column:sold_at"`

	OriginalKind   ValueKind  `gorm:"column:original_kind;type:text;not null"`
	OriginalAmount *float64   `gorm:"column:original_amount"`
	OriginalSoldAt *time.Time `gorm:"column:original_sold_at"`

	PreviousSpreadPercent *float64 `gorm:"column:previous_spread_percent"`
	Notes                 *string  `gorm:"column:notes;type:text"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (OverrideRecord) TableName() string { return "override_records" }

// IsRevert reports whether this record is a revert marker.
func (r *OverrideRecord) IsRevert() bool {
	return r.ValueKind == ValueKindNone
}

// NewValue returns the value this record set.
func (r *OverrideRecord) NewValue() Value {
	return Value{Kind: r.ValueKind, Amount: r.Amount, Date: r.SoldAt}
}

// OriginalValue returns the value that was active immediately before this
// record, or the absent value when nothing was set.
func (r *OverrideRecord) OriginalValue() Value {
	return Value{Kind: r.OriginalKind, Amount: r.OriginalAmount, Date: r.OriginalSoldAt}
}

// ActiveOverride is the currently effective override for a triple, derived
// from the newest non-revert history record. It is never stored directly.
type ActiveOverride struct {
	PropertyID snowflake.ID
	Field      Field
	Value      Value
	Notes      *string
	UpdatedAt  time.Time
}

// FieldOverrides maps overridden fields to their active values for one
// property.
type FieldOverrides map[Field]Value

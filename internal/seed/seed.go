package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"gorm.io/gorm"
)

// EnsureSampleProperties seeds a handful of listings so a fresh local
// instance has something to render. Rows key on source_key, so reruns are
// idempotent.
func EnsureSampleProperties(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sample := range sampleProperties() {
			var existing propertydomain.Property
			err := tx.WithContext(ctx).
				Where("source_key = ?", sample.SourceKey).
				Limit(1).
				Find(&existing).Error
			if err != nil {
				return err
			}
			if existing.ID != 0 {
				continue
			}

			now := time.Now().UTC()
			sample.ID = node.Generate()
			sample.CreatedAt = now
			sample.UpdatedAt = now
			if err := tx.WithContext(ctx).Create(&sample).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func sampleProperties() []propertydomain.Property {
	auction1 := time.Date(2026, 10, 7, 14, 0, 0, 0, time.UTC)
	auction2 := time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC)
	auction3 := time.Date(2026, 9, 30, 13, 30, 0, 0, time.UTC)

	return []propertydomain.Property{
		{
			SourceKey:      "essex/F-2026-001843",
			Address:        "114 Grove Street",
			City:           "Montclair",
			County:         "Essex",
			State:          "NJ",
			Zip:            "07042",
			SheriffNumber:  "F-2026-001843",
			Status:         propertydomain.StatusScheduled,
			AuctionAt:      &auction1,
			ApproxUpset:    ptr(245000),
			JudgmentAmount: ptr(231500),
			Zestimate:      ptr(420000),
		},
		{
			SourceKey:      "bergen/F-2026-000912",
			Address:        "8 Lincoln Avenue",
			City:           "Hackensack",
			County:         "Bergen",
			State:          "NJ",
			Zip:            "07601",
			SheriffNumber:  "F-2026-000912",
			Status:         propertydomain.StatusScheduled,
			AuctionAt:      &auction2,
			OpeningBid:     ptr(198000),
			JudgmentAmount: ptr(176300),
			EstimatedARV:   ptr(365000),
		},
		{
			SourceKey:     "union/F-2026-002210",
			Address:       "42 Chestnut Street",
			City:          "Elizabeth",
			County:        "Union",
			State:         "NJ",
			Zip:           "07201",
			SheriffNumber: "F-2026-002210",
			Status:        propertydomain.StatusPostponed,
			AuctionAt:     &auction3,
			ApproxUpset:   ptr(312000),
		},
	}
}

func ptr(v float64) *float64 { return &v }

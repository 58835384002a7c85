package migration

import (
	"github.com/dealgrid/auctionlens/internal/config"
	favoritedomain "github.com/dealgrid/auctionlens/internal/favorite/domain"
	notedomain "github.com/dealgrid/auctionlens/internal/note/domain"
	overridedomain "github.com/dealgrid/auctionlens/internal/override/domain"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/seed"
	tagdomain "github.com/dealgrid/auctionlens/internal/tag/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// The versioned SQL migrations target postgres. Other dialects are
		// only used for local development, where the schema comes from the
		// models directly.
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&propertydomain.Property{},
				&overridedomain.OverrideRecord{},
				&tagdomain.Tag{},
				&notedomain.Note{},
				&favoritedomain.Favorite{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedSampleData {
			return seed.EnsureSampleProperties(conn)
		}
		return nil
	}),
)

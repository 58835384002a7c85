package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/favorite/domain"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	Properties propertydomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	properties propertydomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("favorite.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		properties: p.Properties,
	}
}

func (s *Service) Set(ctx context.Context, propertyID string) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	propID, err := snowflake.ParseString(strings.TrimSpace(propertyID))
	if err != nil || propID == 0 {
		return domain.ErrInvalidID
	}

	property, err := s.properties.FindByID(ctx, s.db, propID)
	if err != nil {
		return err
	}
	if property == nil {
		return domain.ErrNotFound
	}

	if existing, err := s.repo.Find(ctx, s.db, userID, propID); err != nil {
		return err
	} else if existing != nil {
		return nil
	}

	return s.repo.Insert(ctx, s.db, &domain.Favorite{
		ID:         s.genID.Generate(),
		UserID:     userID,
		PropertyID: propID,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *Service) Unset(ctx context.Context, propertyID string) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	propID, err := snowflake.ParseString(strings.TrimSpace(propertyID))
	if err != nil || propID == 0 {
		return domain.ErrInvalidID
	}

	_, err = s.repo.Delete(ctx, s.db, userID, propID)
	return err
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	favorites, err := s.repo.List(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.Response, 0, len(favorites))
	for i := range favorites {
		responses = append(responses, domain.Response{
			PropertyID: favorites[i].PropertyID.String(),
			CreatedAt:  favorites[i].CreatedAt,
		})
	}
	return responses, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/tag/domain"
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
		log:        p.Log.Named("tag.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		properties: p.Properties,
	}
}

func (s *Service) Add(ctx context.Context, req domain.AddRequest) (*domain.Response, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	propID, err := snowflake.ParseString(strings.TrimSpace(req.PropertyID))
	if err != nil || propID == 0 {
		return nil, domain.ErrInvalidID
	}
	label := strings.ToLower(strings.TrimSpace(req.Label))
	if label == "" || len(label) > 64 {
		return nil, domain.ErrInvalidLabel
	}

	property, err := s.properties.FindByID(ctx, s.db, propID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, domain.ErrNotFound
	}

	if existing, err := s.repo.Find(ctx, s.db, userID, propID, label); err != nil {
		return nil, err
	} else if existing != nil {
		return toResponse(existing), nil
	}

	tag := &domain.Tag{
		ID:         s.genID.Generate(),
		UserID:     userID,
		PropertyID: propID,
		Label:      label,
		Color:      strings.TrimSpace(req.Color),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, tag); err != nil {
		return nil, err
	}
	return toResponse(tag), nil
}

func (s *Service) Remove(ctx context.Context, id string) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	tagID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || tagID == 0 {
		return domain.ErrInvalidID
	}

	affected, err := s.repo.Delete(ctx, s.db, userID, tagID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) ListByProperty(ctx context.Context, propertyID string) ([]domain.Response, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	propID, err := snowflake.ParseString(strings.TrimSpace(propertyID))
	if err != nil || propID == 0 {
		return nil, domain.ErrInvalidID
	}

	tags, err := s.repo.ListByProperty(ctx, s.db, userID, propID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.Response, 0, len(tags))
	for i := range tags {
		responses = append(responses, *toResponse(&tags[i]))
	}
	return responses, nil
}

func (s *Service) Labels(ctx context.Context) ([]string, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}
	return s.repo.Labels(ctx, s.db, userID)
}

func toResponse(tag *domain.Tag) *domain.Response {
	return &domain.Response{
		ID:         tag.ID.String(),
		PropertyID: tag.PropertyID.String(),
		Label:      tag.Label,
		Color:      tag.Color,
		CreatedAt:  tag.CreatedAt,
	}
}

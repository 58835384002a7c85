package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/note/domain"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxBodyLen = 10000

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
		log:        p.Log.Named("note.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		properties: p.Properties,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	propID, err := snowflake.ParseString(strings.TrimSpace(req.PropertyID))
	if err != nil || propID == 0 {
		return nil, domain.ErrInvalidID
	}
	body := strings.TrimSpace(req.Body)
	if body == "" || len(body) > maxBodyLen {
		return nil, domain.ErrInvalidBody
	}

	property, err := s.properties.FindByID(ctx, s.db, propID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, domain.ErrNotFound
	}

	now := time.Now().UTC()
	note := &domain.Note{
		ID:         s.genID.Generate(),
		UserID:     userID,
		PropertyID: propID,
		Body:       body,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, note); err != nil {
		return nil, err
	}
	return toResponse(note), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidUser
	}

	noteID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || noteID == 0 {
		return nil, domain.ErrInvalidID
	}
	body := strings.TrimSpace(req.Body)
	if body == "" || len(body) > maxBodyLen {
		return nil, domain.ErrInvalidBody
	}

	note, err := s.repo.Find(ctx, s.db, userID, noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, domain.ErrNotFound
	}

	note.Body = body
	note.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, note); err != nil {
		return nil, err
	}
	return toResponse(note), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidUser
	}

	noteID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || noteID == 0 {
		return domain.ErrInvalidID
	}

	affected, err := s.repo.Delete(ctx, s.db, userID, noteID)
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

	notes, err := s.repo.ListByProperty(ctx, s.db, userID, propID)
	if err != nil {
		return nil, err
	}

	responses := make([]domain.Response, 0, len(notes))
	for i := range notes {
		responses = append(responses, *toResponse(&notes[i]))
	}
	return responses, nil
}

func toResponse(note *domain.Note) *domain.Response {
	return &domain.Response{
		ID:         note.ID.String(),
		PropertyID: note.PropertyID.String(),
		Body:       note.Body,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
	}
}

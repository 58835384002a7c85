package note

import (
	"github.com/dealgrid/auctionlens/internal/note/repository"
	"github.com/dealgrid/auctionlens/internal/note/service"
	"go.uber.org/fx"
)

var Module = fx.Module("note.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package favorite

import (
	"github.com/dealgrid/auctionlens/internal/favorite/repository"
	"github.com/dealgrid/auctionlens/internal/favorite/service"
	"go.uber.org/fx"
)

var Module = fx.Module("favorite.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

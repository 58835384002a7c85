package tag

import (
	"github.com/dealgrid/auctionlens/internal/tag/repository"
	"github.com/dealgrid/auctionlens/internal/tag/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tag.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package override

import (
	"github.com/dealgrid/auctionlens/internal/override/repository"
	"github.com/dealgrid/auctionlens/internal/override/service"
	"go.uber.org/fx"
)

var Module = fx.Module("override.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewRedisClient),
	fx.Provide(service.NewLocker),
	fx.Provide(service.New),
)

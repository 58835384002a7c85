package property

import (
	"github.com/dealgrid/auctionlens/internal/property/repository"
	"github.com/dealgrid/auctionlens/internal/property/service"
	"go.uber.org/fx"
)

var Module = fx.Module("property.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

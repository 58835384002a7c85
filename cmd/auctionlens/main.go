package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/migration"
	"github.com/dealgrid/auctionlens/internal/observability"
	"github.com/dealgrid/auctionlens/internal/server"
	"github.com/dealgrid/auctionlens/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		db.Module,
		fx.Provide(registerSnowflake),
		server.Module,
		migration.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

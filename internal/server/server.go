package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/dealgrid/auctionlens/internal/cache"
	"github.com/dealgrid/auctionlens/internal/config"
	"github.com/dealgrid/auctionlens/internal/favorite"
	favoritedomain "github.com/dealgrid/auctionlens/internal/favorite/domain"
	"github.com/dealgrid/auctionlens/internal/note"
	notedomain "github.com/dealgrid/auctionlens/internal/note/domain"
	"github.com/dealgrid/auctionlens/internal/observability"
	obsmiddleware "github.com/dealgrid/auctionlens/internal/observability/logger"
	obsmetrics "github.com/dealgrid/auctionlens/internal/observability/metrics"
	obstracing "github.com/dealgrid/auctionlens/internal/observability/tracing"
	"github.com/dealgrid/auctionlens/internal/override"
	overridedomain "github.com/dealgrid/auctionlens/internal/override/domain"
	"github.com/dealgrid/auctionlens/internal/property"
	propertydomain "github.com/dealgrid/auctionlens/internal/property/domain"
	"github.com/dealgrid/auctionlens/internal/tag"
	tagdomain "github.com/dealgrid/auctionlens/internal/tag/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	cache.Module,
	property.Module,
	override.Module,
	tag.Module,
	note.Module,
	favorite.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	genID       *snowflake.Node
	display     *config.DisplayConfigHolder
	propertySvc propertydomain.Service
	overrideSvc overridedomain.Service
	tagSvc      tagdomain.Service
	noteSvc     notedomain.Service
	favoriteSvc favoritedomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	GenID       *snowflake.Node
	Display     *config.DisplayConfigHolder
	PropertySvc propertydomain.Service
	OverrideSvc overridedomain.Service
	TagSvc      tagdomain.Service
	NoteSvc     notedomain.Service
	FavoriteSvc favoritedomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		genID:       p.GenID,
		display:     p.Display,
		propertySvc: p.PropertySvc,
		overrideSvc: p.OverrideSvc,
		tagSvc:      p.TagSvc,
		noteSvc:     p.NoteSvc,
		favoriteSvc: p.FavoriteSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api", UserContext())

	api.GET("/display", s.GetDisplayConfig)

	api.GET("/properties", s.ListProperties)
	api.GET("/properties/:id", s.GetProperty)
	api.POST("/feed/snapshots", s.ImportSnapshots)

	api.GET("/properties/:id/overrides/:field", s.GetOverride)
	api.PUT("/properties/:id/overrides/:field", s.SaveOverride)
	api.DELETE("/properties/:id/overrides/:field", s.RevertOverride)
	api.GET("/properties/:id/overrides/:field/history", s.ListOverrideHistory)

	api.GET("/properties/:id/tags", s.ListTags)
	api.POST("/properties/:id/tags", s.AddTag)
	api.DELETE("/tags/:id", s.RemoveTag)
	api.GET("/tags/labels", s.ListTagLabels)

	api.GET("/properties/:id/notes", s.ListNotes)
	api.POST("/properties/:id/notes", s.CreateNote)
	api.PUT("/notes/:id", s.UpdateNote)
	api.DELETE("/notes/:id", s.DeleteNote)

	api.PUT("/properties/:id/favorite", s.SetFavorite)
	api.DELETE("/properties/:id/favorite", s.UnsetFavorite)
	api.GET("/favorites", s.ListFavorites)
}

func (s *Server) GetDisplayConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.display.Get())
}

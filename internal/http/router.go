package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Handler      *Handler
	Logger       *zap.Logger
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger.Named("http")))
	r.Use(CORS(cfg.AllowOrigins))

	r.GET("/healthz", cfg.Handler.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/entities", cfg.Handler.ListEntities)
		api.GET("/entities/:id/scorecard", cfg.Handler.GetScorecard)
		api.GET("/entities/:id/outcomes", cfg.Handler.GetOutcomeSummary)
		api.GET("/compare", cfg.Handler.Compare)
		api.POST("/compare/row", cfg.Handler.BuildRow)
		api.POST("/outcomes/aggregate", cfg.Handler.AggregateReviews)
	}

	return r
}

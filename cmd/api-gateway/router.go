package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/alumni-directory/internal/handler"
	"github.com/noah-isme/alumni-directory/internal/middleware"
	"github.com/noah-isme/alumni-directory/internal/service"
	"github.com/noah-isme/alumni-directory/pkg/config"
	"github.com/noah-isme/alumni-directory/pkg/logger"
	corsmiddleware "github.com/noah-isme/alumni-directory/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/alumni-directory/pkg/middleware/requestid"
)

type routerDeps struct {
	cards   *handler.CardHandler
	metrics *handler.MetricsHandler
	service *service.MetricsService
	// auth guards the directory routes when non-nil; login serves its sign-in form.
	auth  *service.AuthService
	login *handler.AuthHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.service, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", deps.metrics.Health)
	r.GET("/ready", deps.metrics.Ready)
	r.GET("/metrics", deps.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.GET(handler.ListingScriptPath, deps.cards.Script)

	directory := r.Group("")
	if deps.auth != nil {
		if deps.login != nil {
			r.GET(middleware.LoginPath, deps.login.LoginPage)
			r.POST(middleware.LoginPath, deps.login.Login)
			r.POST("/logout", deps.login.Logout)
		}
		directory.Use(middleware.JWT(deps.auth))
	}
	directory.GET("/home", deps.cards.Home)
	directory.POST("/filter_cards", deps.cards.Filter)
	directory.GET("/profile/:id", deps.cards.Profile)

	return r
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/account-console/api/swagger"
	"github.com/noah-isme/account-console/internal/middleware"
	"github.com/noah-isme/account-console/internal/service"
	"github.com/noah-isme/account-console/pkg/config"
	"github.com/noah-isme/account-console/pkg/logger"
	corsmiddleware "github.com/noah-isme/account-console/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/account-console/pkg/middleware/requestid"
	"github.com/noah-isme/account-console/web"
)

// Handlers groups the route handlers.
type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	API     *APIHandler
	Metrics *MetricsHandler
}

// RouterDeps carries what the router needs besides the handlers.
type RouterDeps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *service.MetricsService
	Sessions *service.SessionService
}

// NewRouter builds the gin engine with every console route.
func NewRouter(deps RouterDeps, h Handlers) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(middleware.Metrics(deps.Metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)
	r.StaticFS("/static", http.FS(web.Static()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	cookie := middleware.CookieConfig{
		Name:   cfg.Session.CookieName,
		MaxAge: cfg.Session.TTL,
		Secure: cfg.Secure(),
	}
	console := r.Group("/", middleware.Session(deps.Sessions, cookie, deps.Logger))
	console.GET("/", h.Auth.LoginPage)
	console.POST("/login/systems", h.Auth.RequestSystems)
	console.POST("/login", h.Auth.Login)
	console.POST("/login/back", h.Auth.Back)
	console.POST("/logout", h.Auth.Logout)
	console.POST("/theme", h.Auth.ToggleTheme)

	users := console.Group("/users", middleware.RequireAuth(cfg.APIPrefix))
	users.GET("", h.Users.List)
	users.POST("/search", h.Users.Search)
	users.POST("/filters", h.Users.Filters)
	users.POST("/filters/clear", h.Users.ClearFilters)
	users.GET("/export", h.Users.Export)
	users.GET("/new", h.Users.New)
	users.POST("", middleware.Audit(deps.Logger, "user.create"), h.Users.Create)
	users.GET("/:id/edit", h.Users.Edit)
	users.POST("/:id", middleware.Audit(deps.Logger, "user.update"), h.Users.Update)
	users.POST("/:id/deactivate", middleware.Audit(deps.Logger, "user.deactivate"), h.Users.Deactivate)
	users.POST("/:id/reactivate", middleware.Audit(deps.Logger, "user.reactivate"), h.Users.Reactivate)

	api := console.Group(cfg.APIPrefix, middleware.RequireAuth(cfg.APIPrefix))
	api.GET("/users", h.API.ListUsers)
	api.GET("/users/:id", h.API.GetUser)
	api.GET("/levels", h.API.ListLevels)

	return r, nil
}

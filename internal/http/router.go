package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/http/handlers"
	"taskhub/internal/http/middlewares"
	"taskhub/internal/observability"
	"taskhub/internal/repo/postgres"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config, prom *observability.Prom) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	// panics get the same generic 500 body as any other unexpected failure
	r.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		log.Error("panic recovered", "err", recovered, "path", ctx.Request.URL.Path)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   handlers.KindInternal,
			"message": "Something went wrong",
		})
	}))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("taskhub"))

	if prom != nil {
		r.Use(prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	tasksRepo := postgres.NewTasksRepo(pool, prom)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiry)

	// wire up handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(usersRepo, usersRepo, jwtManager)
	tasksHandler := handlers.NewTasksHandler(tasksRepo)

	authMW := middlewares.NewAuthMiddleware(jwtManager)

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	api.POST("/auth/signup", authHandler.SignUp)
	api.POST("/auth/login", authHandler.Login)

	tasks := api.Group("/tasks", authMW.RequireAuth())
	tasks.GET("", tasksHandler.List)
	tasks.POST("", tasksHandler.Create)
	tasks.GET("/:id", tasksHandler.Get)
	tasks.PATCH("/:id", tasksHandler.Patch)
	tasks.DELETE("/:id", tasksHandler.Delete)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	return r
}

package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/authhub/internal/auth"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/predict"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Env          string
	ServiceName  string
	CORSOrigins  []string
	MaxBodyBytes int64
	// per request budget for store calls
	RequestTimeout time.Duration

	Auth      *auth.Service
	Users     *auth.Users
	Predictor *predict.Service
	Prom      *observability.Prom
	Checks    map[string]handlers.Check
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(d.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))

	// health
	h := handlers.NewHealthHandler(d.Checks)
	r.GET("/", h.Root)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Prom != nil {
		r.GET("/metrics", gin.WrapH(d.Prom.Handler()))
	}

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(d.Auth, d.RequestTimeout)
	usersHandler := handlers.NewUsersHandler(d.Users, d.RequestTimeout)
	authMW := middlewares.NewAuthMiddleware(d.Auth)

	public := r.Group("/", middlewares.RequireJSON())
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)

	protected := r.Group("/", authMW.RequireAuth())
	protected.GET("/me", authHandler.Me)
	protected.GET("/users", usersHandler.ListUsers)
	protected.GET("/users/:id", usersHandler.GetUser)
	protected.POST("/users", middlewares.RequireJSON(), usersHandler.CreateUser)
	protected.PUT("/users/:id", middlewares.RequireJSON(), usersHandler.UpdateUser)
	protected.DELETE("/users/:id", usersHandler.DeleteUser)

	// model inference, public like the rest of the ai routes
	if d.Predictor != nil {
		predictHandler := handlers.NewPredictHandler(d.Predictor)
		r.GET("/ai/health", predictHandler.Health)
		r.GET("/models", predictHandler.Models)
		r.POST("/predict", middlewares.RequireJSON(), predictHandler.Predict)
	}

	return r
}

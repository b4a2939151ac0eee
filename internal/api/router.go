package api

import (
	"net"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/collabhub/timesheet-api/internal/api/handler"
	"github.com/collabhub/timesheet-api/internal/api/middleware"
	"github.com/collabhub/timesheet-api/internal/core/ports"
	"github.com/collabhub/timesheet-api/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Identity  ports.IdentityService
	Oracle    ports.AccountOracle
	Tokens    ports.TokenIssuer
	Resources ports.ResourceService
	Live      handler.LiveServer
	// Limiter throttles the auth routes; nil disables throttling.
	Limiter middleware.Limiter
	Health  map[string]handlers.Pinger
	// TrustedProxies are the networks whose X-Forwarded-For is honoured.
	// Empty means the peer address is the client address.
	TrustedProxies []*net.IPNet
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
	Swagger    bool
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = ipExtractor(d.TrustedProxies)
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	reg := d.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "timesheet",
		Registerer: reg,
	}))

	// --- Operational routes (no auth required) ---
	health := handlers.NewHealthHandler(d.Health)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	if d.Swagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	v1 := e.Group("/v1")

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Identity, d.Oracle)
	auth := v1.Group("/auth")
	if d.Limiter != nil {
		auth.Use(middleware.RateLimit(d.Limiter, d.Log))
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/google", authHandler.Google)
	auth.POST("/github", authHandler.GitHub)

	// --- Authenticated routes ---
	secured := v1.Group("", middleware.Auth(d.Tokens))
	secured.GET("/me", authHandler.Me)

	res := handler.NewResourceHandler(d.Resources)
	secured.POST("/projects", res.CreateProject)
	secured.GET("/projects", res.ListProjects)
	secured.GET("/projects/:id", res.GetProject)
	secured.PUT("/projects/:id", res.UpdateProject)
	secured.DELETE("/projects/:id", res.DeleteProject)
	secured.GET("/projects/:id/tasks", res.ListTasks)

	secured.POST("/tasks", res.CreateTask)
	secured.GET("/tasks/:id", res.GetTask)

	secured.POST("/timesheets", res.CreateTimesheet)
	secured.GET("/timesheets", res.ListTimesheets)
	secured.GET("/timesheets/total", res.TotalHours)
	secured.GET("/timesheets/:id", res.GetTimesheet)

	if d.Live != nil {
		secured.GET("/live", handler.NewLiveHandler(d.Live, d.Log).Stream)
	}

	return e
}

// ipExtractor honours X-Forwarded-For only when the peer is a trusted proxy.
func ipExtractor(proxies []*net.IPNet) echo.IPExtractor {
	if len(proxies) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, n := range proxies {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

package router

import (
	"github.com/anonto42/jackpot/backend/internal/handlers"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Dependencies are the wired services the routes need.
type Dependencies struct {
	Coordinator handlers.Coordinator
	Reader      handlers.Reader
	Health      *handlers.HealthHandler
	// Auth authenticates /api/v1 and sets the caller.
	Auth echo.MiddlewareFunc
	// Mutation, when set, wraps the state-changing routes.
	Mutation echo.MiddlewareFunc
}

// SetupMiddleware configures global Echo middleware and the error envelope
func SetupMiddleware(e *echo.Echo, log zerolog.Logger) {
	e.HTTPErrorHandler = handlers.HTTPErrorHandler(e, log)
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestID())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	log.Info().Msg("global middleware configured")
}

// SetupRoutes configures all application routes
func SetupRoutes(e *echo.Echo, deps Dependencies, log zerolog.Logger) {
	if deps.Health != nil {
		e.GET("/health", deps.Health.Health)
	}

	api := e.Group("/api/v1")
	if deps.Auth != nil {
		api.Use(deps.Auth)
	}
	var mutate []echo.MiddlewareFunc
	if deps.Mutation != nil {
		mutate = append(mutate, deps.Mutation)
	}

	handlers.NewFollowHandler(deps.Coordinator, deps.Reader).RegisterFollowRoutes(api, mutate...)
	log.Info().Msg("follow routes configured")

	handlers.NewLikeHandler(deps.Coordinator, deps.Reader).RegisterLikeRoutes(api, mutate...)
	log.Info().Msg("like routes configured")

	handlers.NewCommentHandler(deps.Coordinator, deps.Reader).RegisterCommentRoutes(api, mutate...)
	log.Info().Msg("comment routes configured")

	handlers.NewProfileHandler(deps.Reader).RegisterProfileRoutes(api)
	log.Info().Msg("profile routes configured")

	log.Info().Msg("all routes configured")
}

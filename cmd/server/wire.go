package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anonto42/jackpot/backend/internal/events"
	"github.com/anonto42/jackpot/backend/internal/handlers"
	"github.com/anonto42/jackpot/backend/internal/identity"
	"github.com/anonto42/jackpot/backend/internal/middleware"
	"github.com/anonto42/jackpot/backend/internal/models"
	"github.com/anonto42/jackpot/backend/internal/repositories"
	"github.com/anonto42/jackpot/backend/pkg/config"
	"github.com/anonto42/jackpot/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// loadConfig applies the --config flag before reading configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		if err := os.Setenv("CONFIG_FILE", f.Value.String()); err != nil {
			return nil, err
		}
	}
	return config.Load()
}

// app is everything serve needs, built from config.
type app struct {
	cfg        *config.Config
	db         *config.DB
	follows    repositories.FollowGraphStore
	engagement repositories.EngagementStore
	posts      repositories.PostRepository
	users      identity.Source
	publisher  events.Publisher
	auth       echo.MiddlewareFunc
	health     map[string]handlers.HealthCheck
	closers    []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, publisher: events.NopPublisher{}, health: map[string]handlers.HealthCheck{}}

	db, err := config.InitDB(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, db.CloseDB)

	if err := a.wireHealth(); err != nil {
		a.Close()
		return nil, err
	}

	var fb *firebase.App
	if cfg.AuthMode == "firebase" || cfg.IdentitySource == "firebase" {
		if fb, err = firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, log); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
		}
	}

	switch cfg.IdentitySource {
	case "firebase":
		a.users = identity.NewFirebase(fb.AuthClient)
	case "postgres":
		a.users = identity.NewPostgres(repositories.NewPostgresUserRepository(db.Postgres))
	default:
		static := identity.NewStatic()
		for _, id := range cfg.StaticUsers {
			static.Add(models.User{ID: id, DisplayName: id})
		}
		a.users = static
	}
	if db.Redis != nil {
		a.users = identity.NewCached(a.users, db.Redis, cfg.IdentityCacheTTL, log)
	}

	limits := repositories.Limits{
		DefaultPageSize:  cfg.PageDefaultLimit,
		MaxPageSize:      cfg.PageMaxLimit,
		MaxCommentLength: cfg.CommentMaxLength,
	}
	// The coordinator checks identities outside the storage breaker, so the
	// stores get no UserChecker.
	if cfg.StoreBackend == "postgres" {
		follows, err := repositories.NewPostgresFollowStore(db.Postgres, nil, limits)
		if err != nil {
			a.Close()
			return nil, err
		}
		engagement, err := repositories.NewPostgresEngagementStore(db.Postgres, limits)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.follows, a.engagement = follows, engagement
	} else {
		log.Warn().Msg("using in-memory stores; state is lost on restart")
		a.follows = repositories.NewMemoryFollowStore(nil, limits)
		a.engagement = repositories.NewMemoryEngagementStore(limits)
	}

	if cfg.PostSource == "mongo" {
		a.posts = repositories.NewMongoPostRepository(db.MongoDatabase(), limits)
	} else {
		posts, err := seedMemoryPosts(ctx, cfg, limits)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.Warn().Int("posts", len(cfg.StaticPosts)).Msg("using in-memory post source seeded from STATIC_POSTS")
		a.posts = posts
	}

	if cfg.NatsURL != "" {
		pub, err := events.NewNatsPublisher(events.NatsConfig{URL: cfg.NatsURL, Name: "engagement"}, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
	}

	if cfg.AuthMode == "jwt" {
		a.auth = middleware.JWTAuthMiddleware(cfg.JWTSecret)
	} else {
		a.auth = middleware.FirebaseAuthMiddleware(fb.AuthClient)
	}
	return a, nil
}

func seedMemoryPosts(ctx context.Context, cfg *config.Config, limits repositories.Limits) (*repositories.MemoryPostRepository, error) {
	seeds, err := cfg.SeedPosts()
	if err != nil {
		return nil, err
	}
	repo := repositories.NewMemoryPostRepository(limits)
	for _, seed := range seeds {
		if err := repo.CreatePost(ctx, &models.Post{ID: seed.ID, AuthorID: seed.AuthorID}); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

func (a *app) wireHealth() error {
	if a.db.Postgres != nil {
		sqlDB, err := a.db.Postgres.DB()
		if err != nil {
			return err
		}
		a.health["postgres"] = sqlDB.PingContext
	}
	if a.db.Mongo != nil {
		a.health["mongo"] = func(ctx context.Context) error { return a.db.Mongo.Ping(ctx, nil) }
	}
	if a.db.Redis != nil {
		a.health["redis"] = func(ctx context.Context) error { return a.db.Redis.Ping(ctx).Err() }
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/brightform/userhub/internal/adapter/cache"
	"github.com/brightform/userhub/internal/bootstrap"
	"github.com/brightform/userhub/internal/config"
	httptransport "github.com/brightform/userhub/internal/http"
	"github.com/brightform/userhub/internal/http/handler"
	httpmiddleware "github.com/brightform/userhub/internal/http/middleware"
	"github.com/brightform/userhub/internal/identity"
	"github.com/brightform/userhub/internal/repository"
	"github.com/brightform/userhub/internal/server"
	"github.com/brightform/userhub/internal/service"
	"github.com/brightform/userhub/internal/telemetry"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newSnowflake,
			newPGXPool,
			newUserRepository,
			newRedisClient,
			newIdentityProvider,
			newKeysetSource,
			newVerifier,
			newRateLimiter,
			service.NewProvisioningService,
			service.NewDirectoryService,
			handler.NewUserHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, bootstrap.EnsureAdmin, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newSnowflake() (*snowflake.Node, error) {
	node, err := snowflake.NewNode(1)
	return node, err
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return repository.NewPostgresUserRepo(pool)
}

func newRedisClient(lc fx.Lifecycle, cfg config.Config) (redis.UniversalClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client, nil
}

// newIdentityProvider selects the hosted provider, or the in-process static
// one when no base URL is configured (development only, enforced by config).
func newIdentityProvider(cfg config.Config, node *snowflake.Node) identity.Provider {
	if cfg.IdentityBaseURL == "" {
		return identity.NewStaticProvider(node, true)
	}
	return identity.NewHTTPProvider(cfg.IdentityBaseURL, cfg.IdentityServiceKey, cfg.IdentityTimeout)
}

func newKeysetSource(cfg config.Config, client redis.UniversalClient, provider identity.Provider) identity.KeysetSource {
	if httpProvider, ok := provider.(*identity.HTTPProvider); ok {
		return cache.NewRedisKeysetCache(client, httpProvider, cfg.JWKSCacheTTL)
	}
	return identity.NewStaticKeyset([]byte(cfg.IdentityServiceKey))
}

func newVerifier(keys identity.KeysetSource) *identity.Verifier {
	return identity.NewVerifier(keys)
}

func newRateLimiter(cfg config.Config) *httpmiddleware.RateLimiter {
	return httpmiddleware.NewRateLimiter(cfg.RateLimitRPM)
}

func newAuthMiddleware(verifier *identity.Verifier) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Verifier: verifier}
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}

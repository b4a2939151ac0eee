// Command api serves the timesheet backend.
//
// @title                       Timesheet API
// @version                     1.0
// @description                 Identity, session and timesheet resources for the collaboration backend.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	_ "github.com/collabhub/timesheet-api/docs"
	"github.com/collabhub/timesheet-api/internal/api"
	"github.com/collabhub/timesheet-api/internal/api/metrics"
	"github.com/collabhub/timesheet-api/internal/core/domain"
	"github.com/collabhub/timesheet-api/internal/core/ports"
	"github.com/collabhub/timesheet-api/internal/core/service"
	"github.com/collabhub/timesheet-api/internal/infrastructure/config"
	mongodb "github.com/collabhub/timesheet-api/internal/infrastructure/db/mongo"
	"github.com/collabhub/timesheet-api/internal/infrastructure/db/postgres"
	redisdb "github.com/collabhub/timesheet-api/internal/infrastructure/db/redis"
	"github.com/collabhub/timesheet-api/internal/infrastructure/http/handlers"
	"github.com/collabhub/timesheet-api/internal/infrastructure/identity"
	"github.com/collabhub/timesheet-api/internal/infrastructure/queue"
	"github.com/collabhub/timesheet-api/internal/infrastructure/realtime"
	"github.com/collabhub/timesheet-api/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "timesheet-api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "timesheet-api",
	})

	// --- Account store ---
	mongoClient, mdb, err := mongodb.Connect(ctx, cfg.MongoConnection())
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	accounts := mongodb.NewAccountRepository(mdb)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}

	// --- Resource store ---
	pg, err := postgres.Open(ctx, cfg.PostgresConnection())
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, pg); err != nil {
			return err
		}
	}

	// --- Redis: event streams and rate limiting ---
	rdb, err := redisdb.Connect(ctx, cfg.RedisConnection())
	if err != nil {
		return err
	}
	defer rdb.Close()

	stream := redisdb.NewEventStream(rdb, cfg.Events.StreamMaxLen, cfg.Events.PublishTimeout, func(name string) {
		metrics.EventPublishFailuresTotal.WithLabelValues(name).Inc()
	})

	// --- Identity ---
	verifiers, err := buildVerifiers(ctx, cfg, log)
	if err != nil {
		return err
	}
	tokens := service.NewJWTIssuer(cfg.TokenConfig())
	identitySvc := service.NewIdentityService(accounts, service.NewPasswordHasher(), tokens, verifiers, stream, log)
	oracle := metrics.InstrumentOracle(service.NewAccountOracle(accounts))

	// --- Resources and live fan-out ---
	hub := realtime.NewHub(log, cfg.HTTP.AllowedOrigins)
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, service.NewResourceEventService(stream, hub, log), log)
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()
	dispatcher.Start(workersCtx)

	resources := service.NewResourceService(
		postgres.NewProjectRepository(pg),
		postgres.NewTaskRepository(pg),
		postgres.NewTimesheetRepository(pg),
		oracle,
		dispatcher,
		log,
	)

	deps := api.Deps{
		Identity:  identitySvc,
		Oracle:    oracle,
		Tokens:    tokens,
		Resources: resources,
		Live:      hub,
		Health: map[string]handlers.Pinger{
			"mongodb":  mongodb.NewPinger(mdb),
			"postgres": postgres.NewPinger(pg),
			"redis":    redisdb.NewPinger(rdb),
		},
		TrustedProxies: cfg.HTTP.TrustedProxyNets(),
		Swagger:        !cfg.IsProduction(),
		Log:            log,
	}
	if cfg.RateLimit.Enabled {
		deps.Limiter = redisdb.NewRateLimiter(rdb, "auth", cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// buildVerifiers registers a verifier for every configured provider. In
// trusted-input mode the claimed profile is accepted as is.
func buildVerifiers(ctx context.Context, cfg *config.Config, log zerolog.Logger) (map[domain.AccountKind]ports.IdentityVerifier, error) {
	verifiers := make(map[domain.AccountKind]ports.IdentityVerifier)

	if cfg.Identity.TrustedInput {
		if cfg.IsProduction() {
			return nil, errors.New("trusted identity input is not allowed in production")
		}
		log.Warn().Msg("federated logins are NOT verified: trusted input mode")
		verifiers[domain.KindGoogle] = identity.NewTrustedVerifier(domain.KindGoogle)
		verifiers[domain.KindGitHub] = identity.NewTrustedVerifier(domain.KindGitHub)
		return verifiers, nil
	}

	client := &http.Client{Timeout: cfg.Identity.HTTPTimeout}
	if cfg.Google.ClientID != "" {
		verifiers[domain.KindGoogle] = identity.NewGoogleVerifier(ctx, cfg.Google.ClientID, client)
	}
	if cfg.GitHub.ClientID != "" {
		verifiers[domain.KindGitHub] = identity.NewGitHubVerifier(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, client)
	}
	if len(verifiers) == 0 {
		log.Warn().Msg("no federated provider configured")
	}
	return verifiers, nil
}

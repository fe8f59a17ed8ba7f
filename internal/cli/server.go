package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"morse-quiz-service/internal/app"
	"morse-quiz-service/internal/auth"
	"morse-quiz-service/internal/config"
	"morse-quiz-service/internal/infra/memory"
	"morse-quiz-service/internal/infra/postgres"
	redisinfra "morse-quiz-service/internal/infra/redis"
	transport "morse-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// backends holds the connections behind a QuizService.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (b backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// buildService wires the quiz service to Postgres and Redis when configured and to
// in-process stores otherwise.
func buildService(ctx context.Context, cfg config.Config) (*app.QuizService, backends, error) {
	var b backends
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, backends{}, err
		}
		b.pool = pool
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(memory.MorseQuestions())
	var remote app.RemoteStore = memory.NewAnswerStore()
	if b.pool != nil {
		loader = postgres.NewQuestionLoader(b.pool)
		remote = postgres.NewAnswerStore(b.pool)
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var catalog app.CatalogRepository
	var sessions app.SessionRepository
	if b.redis != nil {
		catalog = redisinfra.NewCatalogRepository(b.redis, loader, catalogTTL)
		sessions = redisinfra.NewSessionStore(b.redis, redisTTL)
	} else {
		catalog = memory.NewCatalogRepository(loader, catalogTTL)
		sessions = memory.NewSessionStore()
	}

	var local app.LocalCache = memory.NewProgressCache()
	if cfg.UseRedisCache() {
		local = redisinfra.NewProgressCache(b.redis, 0)
	}

	timeout := config.TTLDuration(cfg.Remote.Timeout, app.DefaultRemoteTimeout)
	log.Info().
		Bool("postgres", b.pool != nil).
		Bool("redis", b.redis != nil).
		Bool("redis_local_cache", cfg.UseRedisCache()).
		Dur("remote_timeout", timeout).
		Msg("stores configured")
	return app.NewQuizService(sessions, catalog, remote, local, timeout), b, nil
}

// accountStore keeps accounts next to the answers when Postgres is configured.
func accountStore(b backends) auth.AccountStore {
	if b.pool != nil {
		return postgres.NewAccountStore(b.pool)
	}
	return auth.NewMemoryAccountStore()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	service, b, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Auth.Secret == "" {
		log.Warn().Msg("auth.secret not set, tokens will not survive a restart")
		cfg.Auth.Secret = uuid.NewString()
	}
	tokens := auth.NewTokens(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	authService := auth.NewService(accountStore(b), tokens)

	mux := http.NewServeMux()
	transport.NewAPIHandler(service, authService).Register(mux, transport.NewWSHandler(service, authService))

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting morse quiz service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

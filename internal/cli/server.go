package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/config"
	"quiz-session-engine/internal/engine"
	"quiz-session-engine/internal/infra/memory"
	pgstore "quiz-session-engine/internal/infra/postgres"
	redisstore "quiz-session-engine/internal/infra/redis"
	transport "quiz-session-engine/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, envPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the question bank server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", envPort, "port to listen on")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, true)
	defer func() { _ = logger.Sync() }()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	var results app.ResultRepository = memory.NewResultStore()
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
		results = pgstore.NewResultStore(pool)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	var stats app.StatsRepository
	if redisClient != nil {
		questions = redisstore.NewQuestionCache(redisClient, loader, questionTTL)
		stats = redisstore.NewStatsStore(redisClient)
	} else {
		questions = memory.NewQuestionCache(loader, questionTTL)
		stats = memory.NewStatsStore()
	}
	service := app.NewBankService(questions, results, stats, cfg.Questions.DefaultLimit)

	tokens := transport.NewTokenIssuer(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
	metrics := transport.NewMetrics()
	sessions := transport.BankSessions(service,
		engine.WithLogger(logger.Named("engine")),
		engine.WithQuestionTime(config.TTLDuration(cfg.Engine.QuestionTime, engine.DefaultQuestionTime)),
		engine.WithSubmitTimeout(config.TTLDuration(cfg.Engine.SubmitTimeout, engine.DefaultSubmitTimeout)),
	)

	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := transport.RouterConfig{
		Service: service,
		Tokens:  tokens,
		Metrics: metrics,
		Logger:  logger.Named("http"),
		WS:      transport.NewWSHandler(tokens, sessions, logger.Named("ws"), metrics),
	}
	routerCfg.RateLimit.Requests = cfg.RateLimit.Requests
	routerCfg.RateLimit.Window = config.TTLDuration(cfg.RateLimit.Window, time.Minute)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting quiz server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"quiz-service/internal/app"
	"quiz-service/internal/config"
	"quiz-service/internal/infra/file"
	"quiz-service/internal/infra/memory"
	"quiz-service/internal/infra/postgres"
	infraredis "quiz-service/internal/infra/redis"
	"quiz-service/internal/metrics"
	"quiz-service/internal/security"
	transport "quiz-service/internal/transport/http"
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

// backends are the stores picked from config: Redis first, then Postgres, then files
// and memory.
type backends struct {
	sessions        app.SessionRepository
	questions       app.QuestionRepository
	activeSessions  app.ActiveSessions
	leaderboard     app.Leaderboard
	history         app.History
	leaderboardFile string

	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	b := &backends{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = infraredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	var (
		pool *pgxpool.Pool
		db   *bun.DB
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			b.close()
			return nil, err
		}
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		db = postgres.OpenDB(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
	}

	var loader memory.QuestionLoader = file.NewQuestionLoader(cfg.Quiz.QuestionsFile)
	if pool != nil {
		loader = postgres.NewQuestionLoader(pool)
	}

	bankTTL := config.TTLDuration(cfg.Quiz.BankTTL, 0)
	sessionTTL := cfg.SessionIdleTimeout()
	switch {
	case redisClient != nil:
		b.questions = infraredis.NewQuestionRepository(redisClient, loader, bankTTL)
		b.sessions = infraredis.NewSessionStore(redisClient, sessionTTL)
		b.activeSessions = infraredis.NewActiveSessions(redisClient, cfg.Redis.Prefix)
	default:
		b.questions = memory.NewQuestionRepository(loader, bankTTL)
		b.sessions = memory.NewSessionStore(sessionTTL)
		b.activeSessions = memory.NewActiveSessions()
	}

	switch {
	case redisClient != nil:
		b.leaderboard = infraredis.NewLeaderboard(redisClient, cfg.Redis.Prefix)
	case pool != nil:
		b.leaderboard = postgres.NewLeaderboard(pool)
	case cfg.Leaderboard.SavePath != "":
		store, err := file.NewLeaderboardStore(cfg.Leaderboard.SavePath)
		if err != nil {
			b.close()
			return nil, err
		}
		b.leaderboard = store
		b.leaderboardFile = store.Path()
	default:
		b.leaderboard = memory.NewLeaderboard()
	}

	if db != nil {
		b.history = postgres.NewHistoryStore(db)
	} else {
		b.history = memory.NewHistoryStore()
	}
	return b, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	service := app.NewQuizService(app.Config{
		Sessions:       b.sessions,
		Questions:      b.questions,
		QuestionBank:   cfg.Quiz.QuestionBank,
		ActiveSessions: b.activeSessions,
		Leaderboard:    b.leaderboard,
		History:        b.history,
		Settings:       cfg.Settings(),
		Metrics:        m,
	})
	if bank := service.Bank(ctx); len(bank) == 0 {
		slog.WarnContext(ctx, "quiz: question bank is empty; games will start without questions", "bank", cfg.Quiz.QuestionBank)
	} else {
		slog.InfoContext(ctx, "quiz: question bank ready", "bank", cfg.Quiz.QuestionBank, "questions", len(bank))
	}

	var guard *security.DashboardGuard
	if cfg.Dashboard.Password != "" {
		guard, err = security.NewDashboardGuard(cfg.Dashboard.Password, cfg.Dashboard.Secret, config.TTLDuration(cfg.Dashboard.TokenTTL, security.DefaultTokenTTL))
		if err != nil {
			return err
		}
	} else {
		slog.WarnContext(ctx, "dashboard: no password configured; dashboard disabled")
	}

	handlerCfg := transport.Config{
		Service:         service,
		Guard:           guard,
		LeaderboardFile: b.leaderboardFile,
	}
	if m != nil {
		handlerCfg.Metrics = m.Handler()
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewHandler(handlerCfg).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "starting quiz service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	if idle := cfg.SessionIdleTimeout(); idle > 0 {
		eg.Go(func() error {
			expireIdleSessions(ctx, service, idle)
			return nil
		})
	}
	eg.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// expireIdleSessions sweeps abandoned sessions until ctx is done.
func expireIdleSessions(ctx context.Context, service *app.QuizService, idle time.Duration) {
	ticker := time.NewTicker(max(idle/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			service.ExpireIdleSessions(ctx)
		}
	}
}

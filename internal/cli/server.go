package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"school-quiz-service/internal/app"
	"school-quiz-service/internal/config"
	"school-quiz-service/internal/domain"
	"school-quiz-service/internal/grading"
	"school-quiz-service/internal/infra/memory"
	pginfra "school-quiz-service/internal/infra/postgres"
	redisinfra "school-quiz-service/internal/infra/redis"
	transport "school-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz and grading server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	groupsTTL := config.TTLDuration(cfg.Quiz.GroupsTTL, 10*time.Minute)
	snapshotTTL := config.TTLDuration(cfg.Quiz.SnapshotTTL, 10*time.Minute)

	var pool *pgxpool.Pool
	var bunDB *bun.DB
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		bunDB = bun.NewDB(sqldb, pgdialect.New())
	}

	var loader memory.GroupLoader = memory.NewStaticGroupLoader(sampleGroups())
	if pool != nil {
		loader = pginfra.NewGroupLoader(pool)
	}

	var groups app.GroupRepository
	if redisClient != nil {
		groups = redisinfra.NewGroupRepository(redisClient, loader, groupsTTL)
	} else {
		groups = memory.NewGroupRepository(loader, groupsTTL)
	}

	var snapshots app.SnapshotStore
	if redisClient != nil {
		snapshots = redisinfra.NewSnapshotStore(redisClient, snapshotTTL)
	} else {
		snapshots = memory.NewSnapshotStore()
	}

	var attempts app.AttemptRepository
	var results grading.ResultRepository
	if bunDB != nil {
		attempts = pginfra.NewAttemptRepository(bunDB)
		results = pginfra.NewResultRepository(bunDB)
	} else {
		attempts = memory.NewAttemptRepository()
		results = memory.NewResultRepository()
	}

	var notifier grading.Notifier
	if redisClient != nil {
		notifier = redisinfra.NewNotifier(redisClient)
	}

	attemptService := app.NewAttemptService(groups, attempts, snapshots)
	gradingService := grading.NewService(results, notifier, cfg.Grading.BatchSize)

	wsHandler := transport.NewWSHandler(attemptService)
	adminHandler := transport.NewAdminHandler(gradingService, results)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	adminHandler.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting school quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleGroups provides demo content for runs without postgres.
func sampleGroups() []domain.QuizGroup {
	return []domain.QuizGroup{
		{
			ID:              "science-2026",
			Name:            "Science Quiz 2026",
			Password:        "letmein",
			DurationSeconds: 60,
			Scoring:         domain.ScoringFlat,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is the chemical symbol for sodium?",
					Options: []domain.Option{
						{ID: "a", Text: "Na"},
						{ID: "b", Text: "So"},
						{ID: "c", Text: "Sd"},
						{ID: "d", Text: "N"},
					},
					CorrectOption: "a",
					GroupID:       "science-2026",
				},
			},
		},
	}
}

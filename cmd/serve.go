package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/federation-registry/config"
	"github.com/Dosada05/federation-registry/db"
	"github.com/Dosada05/federation-registry/handlers"
	"github.com/Dosada05/federation-registry/notify"
	"github.com/Dosada05/federation-registry/repositories"
	"github.com/Dosada05/federation-registry/repositories/memory"
	"github.com/Dosada05/federation-registry/routes"
	"github.com/Dosada05/federation-registry/services"
	"github.com/Dosada05/federation-registry/storage"
	"github.com/Dosada05/federation-registry/tracing"
)

const (
	serviceName     = "federation-registry"
	shutdownTimeout = 15 * time.Second
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply pending migrations before serving (postgres driver)")
}

// stores собирает реализации репозиториев выбранного драйвера.
type stores struct {
	tx            repositories.Transactor
	registrations repositories.RegistrationRepository
	audit         repositories.AuditRepository
	results       repositories.ResultRepository
	tournaments   repositories.TournamentRepository
	roster        repositories.RosterEntryRepository
	close         func()
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage", cfg.StorageDriver))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(cfg.TracingEnabled, serviceName)
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	// Уведомления: WebSocket-хаб всегда, Redis при наличии REDIS_URL
	hub := notify.NewHub(logger)
	notifiers := notify.Multi{hub}
	var events *handlers.EventsHandler
	if cfg.RedisURL != "" {
		redisPub, err := notify.NewRedisPublisher(ctx, cfg.RedisURL, cfg.RedisChannel)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() {
			if err := redisPub.Close(); err != nil {
				logger.Error("failed to close redis client", slog.Any("error", err))
			}
		}()
		notifiers = append(notifiers, redisPub)
		events = handlers.NewEventsHandler(redisPub)
		logger.Info("redis publisher initialized", slog.String("channel", cfg.RedisChannel))
	}

	categories := services.NewCachedTournamentProvider(
		services.NewTournamentProvider(st.tournaments), cfg.CategoryCacheTTL, logger)

	registrationService := services.NewRegistrationService(
		st.tx,
		st.registrations,
		st.audit,
		st.tournaments,
		st.roster,
		categories,
		notifiers,
		logger,
	)
	resultsService := services.NewResultsService(
		st.tx,
		st.results,
		st.tournaments,
		st.roster,
		categories,
		notifiers,
		logger,
	)

	var exportService *services.ExportService
	if cfg.R2.Configured() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
			Endpoint:        cfg.R2.Endpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		exportService = services.NewExportService(registrationService, uploader, logger)
		logger.Info("Cloudflare R2 uploader initialized", slog.String("bucket", cfg.R2.BucketName))
	}
	logger.Info("services initialized")

	router := routes.SetupRoutes(routes.Options{
		JWTSecret:      []byte(cfg.JWTSecretKey),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}, routes.Handlers{
		Registrations: handlers.NewRegistrationHandler(registrationService, exportService),
		Results:       handlers.NewResultsHandler(resultsService),
		WebSocket:     handlers.NewWebSocketHandler(hub, cfg.AllowedOrigins, logger),
		Events:        events,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("application exited")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.New()
		if cfg.MemorySeedFile != "" {
			if err := seedMemory(store, cfg.MemorySeedFile); err != nil {
				return nil, err
			}
		}
		logger.Warn("using in-memory storage, data is lost on exit")
		return &stores{
			tx:            store,
			registrations: store,
			audit:         store,
			results:       store,
			tournaments:   store,
			roster:        store,
			close:         func() {},
		}, nil

	default:
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.DefaultPool, cfg.DBConnTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("database connection established")
		if migrateOnStart {
			if err := db.MigrateUp(conn); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return &stores{
			tx:            repositories.NewPostgresTransactor(conn),
			registrations: repositories.NewPostgresRegistrationRepository(conn),
			audit:         repositories.NewPostgresAuditRepository(conn),
			results:       repositories.NewPostgresResultRepository(conn),
			tournaments:   repositories.NewPostgresTournamentRepository(conn),
			roster:        repositories.NewPostgresRosterEntryRepository(conn),
			close: func() {
				if err := conn.Close(); err != nil {
					logger.Error("failed to close database connection", slog.Any("error", err))
				} else {
					logger.Info("database connection closed")
				}
			},
		}, nil
	}
}

func seedMemory(store *memory.Store, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	seed, err := memory.ReadSeed(f)
	if err != nil {
		return err
	}
	return store.Load(seed)
}

package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/godilite/wellness-eval/internal/config"
	"github.com/godilite/wellness-eval/internal/evaluation/dimension"
	handler "github.com/godilite/wellness-eval/internal/grpc"
	httpapi "github.com/godilite/wellness-eval/internal/http"
	"github.com/godilite/wellness-eval/internal/repository"
	"github.com/godilite/wellness-eval/internal/service"
	"github.com/godilite/wellness-eval/internal/telemetry"
	"github.com/godilite/wellness-eval/pkg/cache"
	dbbuilder "github.com/godilite/wellness-eval/pkg/database"
	grpcsrv "github.com/godilite/wellness-eval/pkg/grpc/server"
)

// Version is stamped at build time.
var Version = "dev"

type App struct {
	logger          *zap.Logger
	dbPool          *sql.DB
	cache           *cache.Cache
	grpcServer      *grpcsrv.Server
	httpServer      *httpapi.Server
	telemetry       telemetry.Shutdown
	shutdownTimeout time.Duration
}

// LoadDimensions returns the embedded tier table, or the one at path when
// set. Weight warnings are logged, not fatal.
func LoadDimensions(path string, logger *zap.Logger) (*dimension.Table, error) {
	var (
		table *dimension.Table
		err   error
	)
	if path == "" {
		table, err = dimension.Default()
	} else {
		table, err = dimension.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}
	for _, w := range table.Warnings() {
		logger.Warn("dimension table", zap.String("warning", w))
	}
	return table, nil
}

// OpenStore connects to the catalogue database and applies the schema.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, *repository.CatalogRepository, error) {
	opts := []dbbuilder.Option{
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
		dbbuilder.WithLogger(logger),
	}
	if cfg.DBDriver == "sqlite3" && cfg.DBPath != ":memory:" {
		opts = append(opts, dbbuilder.WithInitStatements("PRAGMA journal_mode = WAL"))
	}

	dbPool, err := dbbuilder.New(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("database init failed: %w", err)
	}

	repo := repository.NewCatalogRepository(dbPool)
	if err := repo.Migrate(ctx); err != nil {
		_ = dbPool.Close()
		return nil, nil, fmt.Errorf("database migration failed: %w", err)
	}
	return dbPool, repo, nil
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	otelShutdown, err := telemetry.Init(ctx, telemetry.Options{
		Endpoint:       cfg.OTelEndpoint,
		ServiceName:    cfg.OTelServiceName,
		ServiceVersion: Version,
		Insecure:       cfg.AppEnv != "production",
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	a := &App{
		logger:          logger,
		telemetry:       otelShutdown,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	ok := false
	defer func() {
		if !ok {
			if a.grpcServer != nil {
				_ = a.grpcServer.Shutdown(context.Background())
			}
			a.closeResources(context.Background())
		}
	}()

	table, err := LoadDimensions(cfg.DimensionsFile, logger)
	if err != nil {
		return nil, fmt.Errorf("dimension table init failed: %w", err)
	}
	logger.Info("Dimension table loaded", zap.Int("tiers", len(table.Tiers())))

	var repo *repository.CatalogRepository
	a.dbPool, repo, err = OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	var cacher handler.Cacher
	if cfg.CacheEnabled() {
		a.cache, err = cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
		)
		if err != nil {
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacher = a.cache
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("Cache disabled, REDIS_ADDR not set")
	}

	evaluationService := service.NewEvaluationService(repo, table, logger,
		service.WithMaxEntities(cfg.CompareMaxEntities),
		service.WithOfferingLimit(cfg.OfferingDisplayLimit),
	)

	grpcHandlers := handler.NewGRPCHandlers(evaluationService, cacher, logger, cfg.CacheTTL)

	a.grpcServer, err = grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}
	a.grpcServer.RegisterDesc(&handler.ServiceDesc, grpcHandlers)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler: httpapi.NewHandler(evaluationService, logger),
		Logger:  logger,
	})
	a.httpServer, err = httpapi.NewServer(cfg.HTTPPort, router, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	ok = true
	return a, nil
}

// GRPCAddr and HTTPAddr are the bound listener addresses.
func (a *App) GRPCAddr() net.Addr { return a.grpcServer.Addr() }

func (a *App) HTTPAddr() net.Addr { return a.httpServer.Addr() }

// Start launches both servers and returns immediately.
func (a *App) Start() {
	a.grpcServer.Start()
	a.httpServer.Start()
}

// Run starts the application and blocks until ctx ends or a shutdown signal
// is received.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting", zap.String("version", Version))
	a.Start()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	err := a.Shutdown(shutdownCtx)
	if err == nil {
		a.logger.Info("graceful shutdown completed successfully")
	}
	_ = a.logger.Sync()
	return err
}

// Shutdown stops the servers and releases every resource.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.grpcServer != nil {
		if err := a.grpcServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
		}
	}
	errs = append(errs, a.closeResources(ctx)...)

	if ctx.Err() == context.DeadlineExceeded {
		a.logger.Warn("shutdown completed but deadline exceeded")
	}
	return errors.Join(errs...)
}

func (a *App) closeResources(ctx context.Context) []error {
	var errs []error
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
		a.cache = nil
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
		a.dbPool = nil
	}
	if a.telemetry != nil {
		if err := a.telemetry(ctx); err != nil {
			a.logger.Error("telemetry shutdown error", zap.Error(err))
			errs = append(errs, err)
		}
		a.telemetry = nil
	}
	return errs
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/setaside/internal/cache"
	"github.com/iwvelando/setaside/internal/config"
	"github.com/iwvelando/setaside/internal/documents"
	"github.com/iwvelando/setaside/internal/events"
	"github.com/iwvelando/setaside/internal/logging"
	"github.com/iwvelando/setaside/internal/server"
	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/iwvelando/setaside/internal/store"
	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 30 * time.Second

// components are the long-lived collaborators built from configuration.
type components struct {
	service   *setaside.Service
	documents documents.Fetcher
	closers   []func() error
}

func (c *components) close(logger *zap.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Warn("failed to release resource", zap.String("op", "main.close"), zap.Error(err))
		}
	}
}

func build(ctx context.Context, logger *zap.Logger, conf *config.Configuration) (*components, error) {
	c := &components{}

	st, err := store.Open(logger, conf.Database.Driver, conf.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c.closers = append(c.closers, st.Close)

	opts := []setaside.Option{}

	if conf.Redis.Address != "" {
		rc, err := cache.NewRedis(ctx, logger, cache.RedisConfig{
			Address:  conf.Redis.Address,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
			TTL:      conf.Redis.TTL,
			Prefix:   conf.Redis.Prefix,
		})
		if err != nil {
			c.close(logger)
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		c.closers = append(c.closers, rc.Close)
		opts = append(opts, setaside.WithCache(rc))
	} else {
		opts = append(opts, setaside.WithCache(cache.NewMemory(conf.Redis.TTL)))
	}

	if conf.AMQP.URL != "" {
		pub, err := events.NewAMQPPublisher(logger, conf.AMQP.URL, conf.AMQP.Exchange, conf.AMQP.Queue)
		if err != nil {
			c.close(logger)
			return nil, fmt.Errorf("connect publisher: %w", err)
		}
		c.closers = append(c.closers, pub.Close)
		opts = append(opts, setaside.WithPublisher(pub))
	}

	if conf.Documents.Bucket != "" {
		g, err := documents.NewGCS(ctx, logger, conf.Documents.Bucket, conf.Documents.CredentialsFile)
		if err != nil {
			c.close(logger)
			return nil, fmt.Errorf("create document fetcher: %w", err)
		}
		c.documents = g
	}

	c.service = setaside.NewService(logger, st, opts...)

	logger.Info("components ready",
		zap.String("op", "main.build"),
		zap.String("database", conf.Database.Driver),
		zap.Bool("redis", conf.Redis.Address != ""),
		zap.Bool("amqp", conf.AMQP.URL != ""),
		zap.Bool("documents", conf.Documents.Bucket != ""),
	)
	return c, nil
}

func loadConfiguration(path string) (*config.Configuration, error) {
	if path == constants.DefaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.LoadConfiguration("")
		}
	}
	return config.LoadConfiguration(path)
}

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	addressFlag := flag.String("address", "", "listen address override, e.g. :8080")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := loadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *addressFlag != "" {
		conf.Server.Address = *addressFlag
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	serverConfig, err := server.NewConfig(conf.Server)
	if err != nil {
		logger.Fatal("invalid server configuration", zap.String("op", "main"), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := build(ctx, logger, conf)
	if err != nil {
		logger.Fatal("failed to initialize", zap.String("op", "main"), zap.Error(err))
	}
	defer comps.close(logger)

	srv := &http.Server{
		Addr: serverConfig.Address,
		Handler: server.NewHandler(logger, serverConfig, server.Dependencies{
			Service:   comps.service,
			Documents: comps.documents,
		}, version),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", serverConfig.Address),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", zap.String("op", "main"), zap.Error(err))
			return
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received", zap.String("op", "main"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.String("op", "main"), zap.Error(err))
	}
	logger.Info("server stopped gracefully", zap.String("op", "main"))
}

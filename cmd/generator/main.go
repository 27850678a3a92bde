package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"blog_generator/internal/config"
	"blog_generator/internal/domain"
	"blog_generator/internal/publisher"
	"blog_generator/internal/render"
	"blog_generator/internal/service"
	"blog_generator/internal/source/openrouter"
	"blog_generator/internal/source/pexels"
	"blog_generator/internal/storage/filesystem"
	"blog_generator/internal/storage/objectstore"
	"blog_generator/internal/storage/postgres"
)

const previewLength = 300

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to config file")
	outDir := flag.String("out", "", "output directory (overrides output.dir)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <blog topic>\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "Example: %s \"Benefits of Outdoor Games\"\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	topic := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if topic == "" {
		flag.Usage()
		return 1
	}

	logger := setupLogger("info", "text")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	logger = setupLogger(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	contentSource := openrouter.New(openrouter.Config{
		BaseURL:        cfg.Completion.BaseURL,
		APIKey:         cfg.Completion.APIKey,
		Model:          cfg.Completion.Model,
		Temperature:    *cfg.Completion.Temperature,
		MaxTokens:      cfg.Completion.MaxTokens,
		SiteURL:        cfg.Site.URL,
		AppTitle:       cfg.Completion.AppTitle,
		Timeout:        cfg.Completion.Timeout,
		MaxAttempts:    cfg.Completion.Retry.MaxAttempts,
		InitialBackoff: cfg.Completion.Retry.InitialBackoff,
		MaxBackoff:     cfg.Completion.Retry.MaxBackoff,
	}, logger)

	imageSource := pexels.New(pexels.Config{
		BaseURL:        cfg.Images.BaseURL,
		APIKey:         cfg.Images.APIKey,
		PerPage:        cfg.Images.PerPage,
		Timeout:        cfg.Images.Timeout,
		MaxAttempts:    cfg.Images.Retry.MaxAttempts,
		InitialBackoff: cfg.Images.Retry.InitialBackoff,
		MaxBackoff:     cfg.Images.Retry.MaxBackoff,
	}, logger)

	renderer, err := render.New(render.Config{
		SiteURL:    cfg.Site.URL,
		SiteName:   cfg.Site.Name,
		PublicPath: cfg.Site.PublicPath,
	})
	if err != nil {
		logger.Error("failed to load templates", "error", err)
		return 1
	}

	var opts []service.Option

	if cfg.Database.Enabled {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return 1
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			return 1
		}
		logger.Info("connected to database")

		opts = append(opts, service.WithArchive(
			postgres.NewPostStore(db),
			postgres.NewTagStore(db),
			postgres.NewTransactionManager(db),
		))
	}

	if cfg.ObjectStore.Enabled {
		store, err := objectstore.NewMinioStore(ctx, objectstore.Config{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Bucket:    cfg.ObjectStore.Bucket,
			Prefix:    cfg.ObjectStore.Prefix,
			UseSSL:    cfg.ObjectStore.UseSSL,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to object store", "error", err)
			return 1
		}
		opts = append(opts, service.WithUploader(store))
	}

	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			return 1
		}
		defer rabbitMQ.Close()

		opts = append(opts, service.WithPublisher(rabbitMQ))
	}

	generator := service.NewGeneratorService(
		contentSource,
		imageSource,
		renderer,
		filesystem.NewWriter(cfg.Output.Dir),
		logger,
		opts...,
	)

	result, err := generator.Generate(ctx, topic)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) {
			logger.Error("raw completion text", "raw", parseErr.Raw)
		}
		logger.Error("failed to generate blog post", "topic", topic, "error", err)
		return 1
	}

	logger.Info("blog post generated",
		"path", result.Path,
		"post_id", result.PostID,
		"errors", result.Errors,
	)

	if html, err := os.ReadFile(result.Path); err == nil {
		fmt.Printf("Blog post written to %s\n\nPreview:\n%s...\n", result.Path, preview(string(html), previewLength))
	}

	return 0
}

func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

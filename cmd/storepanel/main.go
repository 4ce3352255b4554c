package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Skotchmaster/storepanel/internal/events"
	"github.com/Skotchmaster/storepanel/internal/httpserver"
	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/search"
	"github.com/Skotchmaster/storepanel/internal/service"
	"github.com/Skotchmaster/storepanel/pkg/config"
	pkgdb "github.com/Skotchmaster/storepanel/pkg/db"
	"github.com/Skotchmaster/storepanel/pkg/logging"
	"github.com/Skotchmaster/storepanel/pkg/telemetry"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.AuthSecret, "AUTH_SECRET")
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustOneOf(cfg.DatabaseDriver, "DB_DRIVER", pkgdb.DriverPostgres, pkgdb.DriverSQLite)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, version)
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}
	shutdownTracer, err := telemetry.InitTracerProvider(context.Background(), cfg.OTLPEndpoint, cfg.ServiceName, version)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if cfg.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			log.Fatalf("auto migrate: %v", err)
		}
	}

	var publisher events.Publisher = events.Discard{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		publisher = producer
	} else {
		logger.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var index service.ProductIndexer
	if cfg.ElasticURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		es, err := search.NewClient(ctx, cfg.ElasticURL, cfg.ElasticUser, cfg.ElasticPassword)
		cancel()
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = &search.ProductIndex{ES: es, Index: cfg.ElasticIndex}
	} else {
		logger.Info("search_disabled", "reason", "ES_URL is empty")
	}

	e := echo.New()
	e.HideBanner = true
	httpserver.Register(e, &httpserver.Deps{
		DB:       db,
		Services: service.New(db, publisher, index),
		Auth: &service.AuthService{
			Repo:     &repo.GormRepo{DB: db},
			Secret:   cfg.AuthSecret,
			TokenTTL: cfg.AuthTokenTTL,
			Events:   publisher,
		},
		Logger:  logger,
		Metrics: metricsHandler,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           otelhttp.NewHandler(e, cfg.ServiceName),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("producer_close_failed", "error", err)
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer_shutdown_failed", "error", err)
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logger.Error("meter_shutdown_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_failed", "error", err)
	}

	logger.Info("server_stopped")
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mailfold/mailroom/internal/config"
	"github.com/mailfold/mailroom/internal/infra/database"
	"github.com/mailfold/mailroom/internal/infra/gateway"
	"github.com/mailfold/mailroom/internal/infra/repository"
	"github.com/mailfold/mailroom/internal/present/rest"
	"github.com/mailfold/mailroom/internal/present/rest/middleware"
	"github.com/mailfold/mailroom/internal/service"
	"github.com/mailfold/mailroom/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if conf.Auth.TokenSecret == "" {
		slog.Error("auth.tokenSecret must be set")
		os.Exit(1)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)

	var mc *memcache.Client
	if conf.Server.MemcachedAddr != "" {
		mc = database.NewMemcached(conf.Server.MemcachedAddr)
	}

	if conf.Server.EnableTrace {
		shutdown, err := setupTracer(context.Background(), conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("trace shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	accounts := repository.NewAccountRepository(db)
	sites := repository.NewSiteRepository(db, mc)
	aliases := repository.NewAliasRepository(db)
	staged := repository.NewStagingRepository(db)
	slots := gateway.NewUploadSlotGateway(rdb, conf.Upload.BaseURL, conf.Upload.MaxSizeBytes)

	tokens := service.NewTokenService(conf.Auth.TokenSecret, conf.Auth.Issuer, conf.Auth.TokenTTL, accounts)
	signal := service.NewSignalService(rdb)

	geofenceUC := usecase.NewGeofenceUsecase(sites)
	aliasUC := usecase.NewAliasUsecase(aliases)
	stagingUC := usecase.NewStagingUsecase(staged, signal)
	uploadUC := usecase.NewUploadUsecase(slots)

	auth := middleware.NewAuthMiddleware(tokens)
	handler := rest.NewHandler(tokens, geofenceUC, aliasUC, stagingUC, uploadUC, signal)

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("mailroom"))
	}

	handler.RegisterRoutes(e, auth)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTracer(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName("mailroom"),
		)),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

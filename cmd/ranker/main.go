// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/AleutianRank/pkg/logging"
	"github.com/AleutianAI/AleutianRank/services/ranker"
	"github.com/AleutianAI/AleutianRank/services/ranker/observability"
	rankerbadger "github.com/AleutianAI/AleutianRank/services/ranker/storage/badger"
	"github.com/AleutianAI/AleutianRank/services/ranker/store"
)

// initTracer sets up OTLP tracing when OTEL_EXPORTER_OTLP_ENDPOINT is
// set. Returns a nil cleanup when tracing is disabled.
func initTracer(ctx context.Context) (func(context.Context), error) {
	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		return nil, nil
	}

	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("ranker-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	logger := logging.New(logging.Config{Service: "ranker", JSON: true})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cleanup, err := initTracer(ctx)
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	if cleanup != nil {
		defer cleanup(context.Background())
	}

	// DATABASE_URL is the BadgerDB directory. Empty means ephemeral
	// mode: state lives until process exit.
	var st store.Store
	if dbPath := os.Getenv("DATABASE_URL"); dbPath != "" {
		cfg := rankerbadger.DefaultConfig(dbPath)
		cfg.Logger = logger.Slog()
		bs, err := store.OpenBadger(cfg)
		if err != nil {
			log.Fatalf("FATAL: could not open the journal database at %s: %v", dbPath, err)
		}
		st = bs
		slog.Info("journal database opened", "path", dbPath)
	} else {
		slog.Info("DATABASE_URL not set. Running in ephemeral mode (state lost on exit).")
	}

	registry := ranker.NewRegistry(st, logger.Slog())
	if err := registry.Load(ctx); err != nil {
		log.Fatalf("FATAL: could not reload persisted lists: %v", err)
	}
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Error("failed to close registry", "error", err)
		}
	}()

	metrics := observability.InitMetrics()
	metrics.ListsResident.Set(float64(registry.Len()))
	hub := ranker.NewHub(logger.Slog())

	if err := ranker.RegisterValidators(); err != nil {
		log.Fatalf("FATAL: could not register validators: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		router.Use(otelgin.Middleware("ranker-service"))
	}

	staticDir := os.Getenv("STATIC_DIR")
	ranker.SetupRoutes(router, registry, hub, metrics, staticDir)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting the ranker server", "port", port, "static_dir", staticDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	slog.Info("ranker server stopped")
}

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
	"log"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/codemarcinu/agenty-sub000/services/agents"
	"github.com/codemarcinu/agenty-sub000/services/llm"
	"github.com/codemarcinu/agenty-sub000/services/orchestrator/observability"
	"github.com/codemarcinu/agenty-sub000/services/orchestrator/routes"
	"github.com/codemarcinu/agenty-sub000/services/validation"
	"github.com/codemarcinu/agenty-sub000/services/validation/rediscache"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "assistant-otel-collector:4317"
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
		resource.WithAttributes(semconv.ServiceNameKey.String("assistant-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// newLLMClient picks the chat backend from LLM_BACKEND_TYPE.
func newLLMClient() (llm.Client, error) {
	switch os.Getenv("LLM_BACKEND_TYPE") {
	case "openai":
		slog.Info("Using OpenAI LLM backend")
		return llm.NewOpenAIClient()
	case "ollama":
		slog.Info("Using Ollama LLM backend")
		return llm.NewOllamaClient()
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to ollama")
		return llm.NewOllamaClient()
	}
}

func main() {
	port := os.Getenv("ASSISTANT_PORT")
	if port == "" {
		port = "12310"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	llmClient, err := newLLMClient()
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	policies, err := validation.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to build validation policies: %v", err)
	}

	if policyFile := os.Getenv("VALIDATION_POLICY_FILE"); policyFile != "" {
		if err := validation.LoadPolicyFile(policyFile, policies); err != nil {
			log.Fatalf("Failed to load policy overrides: %v", err)
		}
		go func() {
			if err := validation.WatchPolicyFile(context.Background(), policyFile, policies, logger); err != nil {
				slog.Error("policy watcher stopped", "error", err)
			}
		}()
		slog.Info("Policy overrides active", "path", policyFile)
	}

	var backend validation.Backend
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		redisBackend, err := rediscache.NewFromAddr(context.Background(), redisAddr)
		if err != nil {
			// Redis is an accelerator only; run in-memory when unreachable.
			slog.Warn("Redis unavailable, running with in-memory cache only", "error", err)
		} else {
			defer redisBackend.Close()
			backend = redisBackend
			slog.Info("Remote validation cache enabled", "addr", redisAddr)
		}
	}

	cacheSize := 1000
	if raw := os.Getenv("VALIDATION_CACHE_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cacheSize = n
		} else {
			slog.Warn("Invalid VALIDATION_CACHE_SIZE, keeping default", "value", raw)
		}
	}
	cache := validation.NewCache(cacheSize, backend, logger)

	sweepInterval := time.Duration(0)
	if raw := os.Getenv("VALIDATION_SWEEP_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sweepInterval = d
		} else {
			slog.Warn("Invalid VALIDATION_SWEEP_INTERVAL, keeping default", "value", raw)
		}
	}
	sweeper := validation.NewSweeper(cache, sweepInterval, logger)
	sweeper.Start()
	defer sweeper.Stop()

	orchestrator := validation.NewOrchestrator(policies, validation.NewFactory(), cache, logger)
	agentRegistry := agents.NewRegistry(llmClient)
	metrics := observability.InitMetrics()

	router := gin.Default()
	router.Use(otelgin.Middleware("assistant-service"))
	routes.SetupRoutes(router, agentRegistry, orchestrator, cache, metrics)

	log.Println("Starting the assistant server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

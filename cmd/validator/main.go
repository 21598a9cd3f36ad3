// Copyright (C) 2026 OpenStax
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command validator starts the response validation API server.
//
// The validator scores free-text student responses for "garbage detection":
// it tokenizes each response, optionally corrects spelling and tags numeric
// literals, counts tokens against question/book vocabularies, and thresholds
// a weighted inner product to decide validity.
//
// Usage:
//
//	go run ./cmd/validator
//	go run ./cmd/validator -port 9090
//	DATA_DIR=/srv/validator/data go run ./cmd/validator
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/ping
//
//	# Score a response
//	curl 'http://localhost:8080/validate?response=cells+are+alive&uid=100@4'
//
//	# List stored feature weight sets
//	curl http://localhost:8080/datasets/feature_weights
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/openstax/response-validator/services/validator"
	"github.com/openstax/response-validator/services/validator/config"
	"github.com/openstax/response-validator/services/validator/score"
	badgerstore "github.com/openstax/response-validator/services/validator/storage/badger"
	"github.com/openstax/response-validator/services/validator/store"
	"github.com/openstax/response-validator/services/validator/text"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	watch := flag.Bool("watch", true, "Reload datasets when the CSV files change")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C trace context flows from incoming headers through every handler.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The corpus is the one input the service cannot run without.
	corpusFiles := make([]string, len(cfg.CorporaFiles))
	for i, f := range cfg.CorporaFiles {
		corpusFiles[i] = cfg.ResolvePath(f)
	}
	wordLists := make([]string, len(cfg.WordListFiles))
	for i, f := range cfg.WordListFiles {
		wordLists[i] = cfg.ResolvePath(f)
	}
	corpus, err := text.BuildCorpus(text.CorpusOptions{
		CorporaFiles:  corpusFiles,
		WordListFiles: wordLists,
	})
	if err != nil {
		slog.Error("Failed to build corpus", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("Corpus loaded", slog.Int("words", corpus.Len()))

	classifier := text.NewLiteralClassifier(cfg.Parser.LazyMathMode)
	speller := text.NewSpellCorrector(corpus, classifier, cfg.Spelling.MinWordLength)
	processor := text.NewProcessor(corpus, classifier, speller)

	datasets, err := store.NewDatasetStore(cfg.DataDir, slog.Default())
	if err != nil {
		slog.Error("Failed to load datasets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *watch {
		if err := datasets.Watch(ctx); err != nil {
			slog.Warn("Dataset watching disabled", slog.String("error", err.Error()))
		}
	}

	db, err := badgerstore.OpenDB(badgerstore.DefaultConfig(cfg.ResolvePath("weights")))
	if err != nil {
		slog.Error("Failed to open weight store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	weights := store.NewWeightStore(db, slog.Default())
	seed, err := score.NewWeightSet(cfg.DefaultFeatureWeights)
	if err != nil {
		slog.Error("Built-in feature weights invalid", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := weights.Seed(ctx, cfg.DefaultFeatureWeightsKey, seed); err != nil {
		slog.Error("Failed to seed weight store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	badWords := loadBadWords(cfg)
	svc := validator.NewService(cfg, processor, datasets, weights,
		validator.BuildBadWords(badWords), slog.Default())
	handlers := validator.NewHandlers(svc, cfg)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("response-validator"))
	if *debug {
		router.Use(gin.Logger())
	}

	validator.RegisterRoutes(router.Group("/"), handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down response validator")
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close weight store", slog.String("error", err.Error()))
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting response validator",
		slog.String("address", addr),
		slog.String("version", validator.Version),
		slog.String("data_dir", cfg.DataDir),
	)
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadBadWords reads the optional bad-words extension file, one word per
// line. A missing file is not an error.
func loadBadWords(cfg *config.Config) []string {
	if cfg.BadWordsFile == "" {
		return nil
	}
	raw, err := os.ReadFile(cfg.ResolvePath(cfg.BadWordsFile))
	if err != nil {
		slog.Warn("Bad-words file unreadable, using built-in list only",
			slog.String("file", cfg.BadWordsFile),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return strings.Fields(strings.ToLower(string(raw)))
}

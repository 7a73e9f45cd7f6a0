package main

import (
	"context"
	"fmt"

	"renovation-quoter/catalog"
	"renovation-quoter/config"
	"renovation-quoter/inference"
	"renovation-quoter/services"
	"renovation-quoter/storage"
	"renovation-quoter/utils"
)

// app holds the wired pipeline shared by every command.
type app struct {
	cfg       *config.Config
	logger    *utils.Logger
	catalog   *catalog.Catalog
	assembler *services.Assembler
}

func newApp(cfg *config.Config, logger *utils.Logger) (*app, error) {
	cat, err := catalog.Load(cfg.CatalogPath, logger)
	if err != nil {
		return nil, err
	}

	classifier, answerer, err := newBackends(cfg, logger)
	if err != nil {
		return nil, err
	}

	detector := services.NewDefaultDetector(classifier, cfg.Detector(), logger)
	resolver := services.NewDefaultRoomSizeResolver(answerer, cfg.InferenceTimeout(), logger)
	assembler := services.NewAssembler(detector, resolver, services.NewComposer(cat), cat, cfg.Pricing(), logger)

	return &app{cfg: cfg, logger: logger, catalog: cat, assembler: assembler}, nil
}

// newBackends builds the classifier and question answerer selected by cfg.
func newBackends(cfg *config.Config, logger *utils.Logger) (inference.Classifier, inference.QuestionAnswerer, error) {
	var (
		hf  *inference.HuggingFaceClient
		err error
	)
	if cfg.ClassifierBackend == config.BackendHuggingFace || cfg.QABackend == config.BackendHuggingFace {
		hf, err = inference.NewHuggingFaceClient(cfg.HuggingFace(), logger)
		if err != nil {
			return nil, nil, err
		}
	}

	var classifier inference.Classifier = inference.Unavailable{}
	if cfg.ClassifierBackend == config.BackendHuggingFace {
		classifier = hf
	}

	var answerer inference.QuestionAnswerer = inference.Unavailable{}
	switch cfg.QABackend {
	case config.BackendHuggingFace:
		answerer = hf
	case config.BackendLLM:
		llm, err := inference.NewLLMAnswerer(cfg.LLM())
		if err != nil {
			return nil, nil, err
		}
		answerer = llm
	}

	logger.Info("[main] Backends: classifier=%s, question answering=%s", cfg.ClassifierBackend, cfg.QABackend)
	return classifier, answerer, nil
}

// openSinks returns the configured quote sinks. The JSON file sink is
// included only when jsonPath is non-empty.
func openSinks(ctx context.Context, cfg *config.Config, jsonPath string, logger *utils.Logger) (storage.MultiWriter, error) {
	var sinks storage.MultiWriter

	if jsonPath != "" {
		jw, err := storage.NewJSONWriter(jsonPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, jw)
	}

	if cfg.PostgresEnabled {
		pw, err := storage.NewPostgresWriter(ctx, cfg.DSN())
		if err != nil {
			_ = sinks.Close()
			return nil, fmt.Errorf("%w (is PostgreSQL running? try: docker compose up -d)", err)
		}
		logger.Info("[main] Persisting quotes to PostgreSQL (%s@%s/%s)", cfg.PostgresUser, cfg.PostgresHost, cfg.PostgresDB)
		sinks = append(sinks, pw)
	}

	return sinks, nil
}

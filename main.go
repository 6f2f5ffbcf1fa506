package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/blobstore"
	"github.com/amantaras/call-center-performance-sub001/pkg/config"
	"github.com/amantaras/call-center-performance-sub001/pkg/formula"
	"github.com/amantaras/call-center-performance-sub001/pkg/llm"
	"github.com/amantaras/call-center-performance-sub001/pkg/logging"
	"github.com/amantaras/call-center-performance-sub001/pkg/repositories"
	"github.com/amantaras/call-center-performance-sub001/pkg/services"
	"github.com/amantaras/call-center-performance-sub001/pkg/templates"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run bootstraps the engine: storage, a seeded starter schema on first
// launch, and a smoke pass over the active schema. The engine is
// embedded by a host application; this binary initializes state and
// verifies the pieces work together.
func run() error {
	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting qa schema engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("data_dir", cfg.DataDir))

	store, err := blobstore.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}

	validator := services.NewSchemaValidator()
	evaluator := formula.NewEvaluator(time.Duration(cfg.Formula.TimeoutMs)*time.Millisecond, logger)
	schemaStore := services.NewSchemaStore(repositories.NewSchemaRepository(store), validator, logger)

	if cfg.AI.IsAvailable() {
		client, err := llm.NewFromConfig(&cfg.AI, logger)
		if err != nil {
			return fmt.Errorf("init AI client: %w", err)
		}
		logger.Info("AI-assisted discovery enabled", zap.String("model", client.GetModel()))
	} else {
		logger.Info("no AI model configured, discovery flows disabled")
	}

	if err := seedIfEmpty(schemaStore, logger); err != nil {
		return err
	}

	schemas, err := schemaStore.List()
	if err != nil {
		return err
	}
	active, err := schemaStore.GetActive()
	if err != nil {
		return err
	}

	// Smoke pass: map an empty row through the active schema. Mapping is
	// total, so this exercises defaults and every computed relationship.
	mapper := services.NewRowMapper(evaluator, logger)
	record := mapper.MapRow(map[string]any{}, active)
	computed := 0
	for _, rel := range active.ComputedRelationships() {
		if _, ok := record[rel.ID]; ok {
			computed++
		}
	}

	logger.Info("engine ready",
		zap.Int("schemas", len(schemas)),
		zap.String("active_schema", active.ID),
		zap.String("active_version", active.Version),
		zap.Int("fields", len(active.Fields)),
		zap.Int("computed_outputs", computed))
	return nil
}

// seedIfEmpty installs the debt-collection starter template into an
// empty store so a fresh deployment has a working schema immediately.
func seedIfEmpty(store services.SchemaStore, logger *zap.Logger) error {
	schemas, err := store.List()
	if err != nil {
		return err
	}
	if len(schemas) > 0 {
		return nil
	}

	catalog, err := templates.Load()
	if err != nil {
		return err
	}
	seed, err := catalog.Instantiate("debt-collection")
	if err != nil {
		return err
	}
	if err := store.Create(seed); err != nil {
		return fmt.Errorf("seed starter schema: %w", err)
	}

	logger.Info("seeded starter schema",
		zap.String("schema_id", seed.ID),
		zap.String("version", seed.Version))
	return nil
}

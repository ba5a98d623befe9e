package main

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"go.uber.org/zap"

	"github.com/ShayCichocki/skillflow/internal/api"
	"github.com/ShayCichocki/skillflow/internal/composer"
	"github.com/ShayCichocki/skillflow/internal/config"
	"github.com/ShayCichocki/skillflow/internal/flow"
	"github.com/ShayCichocki/skillflow/internal/intent"
	"github.com/ShayCichocki/skillflow/internal/logging"
	"github.com/ShayCichocki/skillflow/internal/metrics"
	"github.com/ShayCichocki/skillflow/internal/registry"
	"github.com/ShayCichocki/skillflow/internal/security"
	"github.com/ShayCichocki/skillflow/internal/state"
)

// env holds the collaborators shared by the commands.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *registry.Registry
	db       *state.DB
	metrics  *metrics.Collector
}

// loadEnv loads config and builds the logger and registry.
// quiet drops console logging so a full-screen program owns the terminal.
func loadEnv(quiet bool) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if !quiet || cfg.Log.File != "" {
		logger, err = logging.New(logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			File:   cfg.Log.File,
		})
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		registry: registry.Open(cfg.RegistryPath, registry.WithLogger(logger)),
		metrics:  metrics.NewCollector(logger),
	}, nil
}

// openState opens the run history database.
func (e *env) openState() error {
	if e.db != nil {
		return nil
	}
	db, err := state.Open(e.cfg.State.Path, e.cfg.State.Driver)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	e.db = db
	return nil
}

// Close flushes metrics and releases the database and logger.
func (e *env) Close() {
	if err := e.metrics.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		e.logger.Warn("failed to write metrics", zap.String("path", e.cfg.Metrics.Textfile), zap.Error(err))
	}
	if e.db != nil {
		e.db.Close()
	}
	_ = e.logger.Sync()
}

// gate builds the configured security gate.
func (e *env) gate() (security.Gate, error) {
	var gate security.Gate
	switch e.cfg.Security.Gate {
	case "llm":
		key, _ := config.APIKey(e.cfg)
		client, err := api.NewClient(api.ClientConfig{
			Model:         anthropic.Model(e.cfg.LLM.Model),
			APIKey:        key,
			UseAWSBedrock: e.cfg.LLM.UseBedrock,
			AWSRegion:     e.cfg.LLM.AWSRegion,
			AWSProfile:    e.cfg.LLM.AWSProfile,
		})
		if err != nil {
			return nil, fmt.Errorf("create API client: %w", err)
		}
		gate = security.NewLLMGate(client, e.logger)
	default:
		detector := security.NewDetector()
		if e.cfg.Security.RulesFile != "" {
			rules, err := security.LoadRules(e.cfg.Security.RulesFile)
			if err != nil {
				return nil, fmt.Errorf("load security rules: %w", err)
			}
			detector.Apply(rules)
		}
		gate = detector
	}

	gate = security.WithTimeout(gate, e.cfg.ScanTimeout)
	if e.cfg.CacheScans {
		if err := e.openState(); err != nil {
			return nil, err
		}
		gate = security.NewCachedGate(gate, e.db, e.logger)
	}
	return gate, nil
}

// flow wires the pipeline. Runs are recorded in the state database.
func (e *env) flow(reporter flow.Reporter) (*flow.Flow, error) {
	gate, err := e.gate()
	if err != nil {
		return nil, err
	}
	if err := e.openState(); err != nil {
		return nil, err
	}

	comp := composer.New(e.cfg.OutputDirectory,
		composer.WithAuthor(e.cfg.Author),
		composer.WithLogger(e.logger),
	)
	return flow.New(intent.NewParser(), e.registry, gate, comp,
		flow.WithSecurityLevel(e.cfg.SecurityLevel),
		flow.WithAutoRegister(e.cfg.AutoUpdateRegistry),
		flow.WithAuthor(e.cfg.Author),
		flow.WithReporter(reporter),
		flow.WithRecorder(e.db),
		flow.WithMetrics(e.metrics),
		flow.WithLogger(e.logger),
	), nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/agents/orchestrator"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/agents/specialist"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/artifact"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/datastore"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/llm"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/memory"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/prompt"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/registry"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/router"
	statex "github.com/tanpawarit/Financial-Swarm-Analyst/agent/state"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/telemetry"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/termination"
	"github.com/tanpawarit/Financial-Swarm-Analyst/agent/tool"
	configx "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/config"
	logx "github.com/tanpawarit/Financial-Swarm-Analyst/pkg/logger"
)

type AppConfig struct {
	TerminationPhrase string `split_words:"true" default:"TASK_DONE"`
	// RegistryFile overrides the embedded worker roster.
	RegistryFile string `split_words:"true"`
}

type app struct {
	cfg       AppConfig
	detector  termination.Detector
	store     datastore.Catalog
	artifacts *artifact.Store
	tools     *tool.Catalog
	registry  *registry.Registry
	metrics   *telemetry.Metrics
	metricsTo string

	llm          *llm.Config
	orchestrator *orchestrator.Orchestrator
}

// wireBase builds everything that does not need a model endpoint.
func wireBase(ctx context.Context) (*app, error) {
	appCfg, err := configx.New[AppConfig]("SWARM")
	if err != nil {
		return nil, err
	}
	dbCfg, err := configx.New[datastore.Config]("DB")
	if err != nil {
		return nil, err
	}
	artifactCfg, err := configx.New[artifact.Config]("ARTIFACT")
	if err != nil {
		return nil, err
	}
	metricsCfg, err := configx.New[telemetry.Config]("METRICS")
	if err != nil {
		return nil, err
	}

	store, err := datastore.Open(ctx, *dbCfg)
	if err != nil {
		return nil, fmt.Errorf("wire datastore: %w", err)
	}
	artifacts := artifact.NewStore(*artifactCfg)

	tools, err := tool.NewDefaultCatalog(logx.Component("tool"), tool.Deps{Store: store, Artifacts: artifacts})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("wire tool catalog: %w", err)
	}

	detector := termination.New(appCfg.TerminationPhrase)
	reg, err := loadRegistry(*appCfg, detector, tools)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &app{
		cfg:       *appCfg,
		detector:  detector,
		store:     store,
		artifacts: artifacts,
		tools:     tools,
		registry:  reg,
		metrics:   telemetry.New(),
		metricsTo: strings.TrimSpace(metricsCfg.Addr),
	}, nil
}

func loadRegistry(cfg AppConfig, detector termination.Detector, tools *tool.Catalog) (*registry.Registry, error) {
	prompts, err := prompt.Load()
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	opts := registry.Options{
		ToolExists: tools.Has,
		Prompts:    prompts,
		Vars:       map[string]string{"TERMINATION_PHRASE": detector.Phrase()},
	}
	if path := strings.TrimSpace(cfg.RegistryFile); path != "" {
		return registry.LoadFile(path, opts)
	}
	return registry.Default(opts)
}

func (a *app) loadLLM() (*llm.Config, error) {
	if a.llm != nil {
		return a.llm, nil
	}
	conf, err := configx.New[llm.Config]("OPENROUTER")
	if err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	a.llm = conf
	return conf, nil
}

// wireApp builds the full turn controller on top of wireBase.
func wireApp(ctx context.Context, observer router.Observer) (*app, error) {
	a, err := wireBase(ctx)
	if err != nil {
		return nil, err
	}

	routerCfg, err := configx.New[router.Config]("SWARM")
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	llmCfg, err := a.loadLLM()
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	workers, err := specialist.NewSet(ctx, a.registry, llmCfg.NewChatModel, a.tools)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("wire workers: %w", err), a.Close())
	}

	opts := []router.Option{
		router.WithLogger(log.Logger),
		router.WithMetrics(a.metrics),
	}
	if observer != nil {
		opts = append(opts, router.WithObserver(observer))
	}
	r, err := router.New(a.registry, workers, a.tools, a.detector, *routerCfg, opts...)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}

	o, err := orchestrator.New(r, memory.New(a.detector), statex.NewMemoryStore(), a.detector,
		orchestrator.WithLogger(log.Logger),
	)
	if err != nil {
		return nil, errors.Join(err, a.Close())
	}
	a.orchestrator = o
	return a, nil
}

// serveMetrics starts the /metrics endpoint when an address is configured.
func (a *app) serveMetrics(ctx context.Context) {
	if a.metricsTo == "" {
		return
	}
	go func() {
		if err := a.metrics.Serve(ctx, a.metricsTo, logx.Component("telemetry")); err != nil {
			log.Error().Err(err).Str("addr", a.metricsTo).Msg("metrics endpoint stopped")
		}
	}()
}

func (a *app) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

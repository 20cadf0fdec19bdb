package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/flowcortex/agentcore/agentconfig"
	"github.com/flowcortex/agentcore/agentlog"
	"github.com/flowcortex/agentcore/eventbus"
	"github.com/flowcortex/agentcore/planner"
	"github.com/flowcortex/agentcore/plan"
	"github.com/flowcortex/agentcore/scheduler"
	"github.com/flowcortex/agentcore/timeline"
	"github.com/flowcortex/agentcore/tracer"
)

// AppContext bundles the long-lived services wired together at startup:
// one planner, one event bus, one tracer, one timeline manager, and the
// scheduler that drives them.
type AppContext struct {
	Config   *agentconfig.Config
	Log      agentlog.Logger
	Bus      *eventbus.Bus
	Trace    *tracer.Tracer
	Timeline *timeline.Manager
	Planner  *planner.Planner
	Sched    *scheduler.Scheduler
}

// CommandContext returns the command's context (falling back to
// Background) for use by RunE handlers.
func (a *AppContext) CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// echoToolRunner is a minimal plan.ToolRunner used when no host-supplied
// runner is wired in: it immediately "succeeds" every invocation, which
// is enough to drive the scheduler's admission/retry/event machinery
// end-to-end from the CLI for inspection purposes.
type echoToolRunner struct{}

func (echoToolRunner) Invoke(ctx plan.ToolCallContext, toolName string, arguments map[string]any) (any, error) {
	return map[string]any{"tool": toolName, "echoedArguments": arguments}, nil
}

// loadApp resolves a Config (from flags.configPath, or the development
// preset when unset) and wires it into an AppContext.
func loadApp(flags *rootFlags) (*AppContext, error) {
	var cfg *agentconfig.Config
	if flags.configPath != "" {
		loaded, err := agentconfig.LoadWithEnvOverrides(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = agentconfig.Development()
	}

	if flags.verbose {
		cfg.Logger.Level = string(agentlog.LevelDebug)
	}

	return newAppContext(cfg), nil
}

// newAppContext wires every subsystem from a loaded Config: logger
// first, then the observability spine, then the planning/execution core.
func newAppContext(cfg *agentconfig.Config) *AppContext {
	var log agentlog.Logger = agentlog.NoopLogger{}
	if cfg.Logger.Level != "" && cfg.Logger.Level != "silent" {
		log = agentlog.New(agentlog.Level(cfg.Logger.Level), cfg.Logger.PrettyPrint, cfg.Logger.Redact)
	}

	bus := eventbus.New(eventbus.Config{
		BufferSize:     cfg.EventBus.BufferSize,
		ErrorThreshold: cfg.EventBus.ErrorThreshold,
		Log:            log,
	})

	tr := tracer.New(tracer.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		SamplingRate: cfg.Telemetry.Sampling.Rate,
		Log:          log,
	})

	tl := timeline.New(timeline.Config{
		MaxAge:            cfg.Timeline.MaxAge,
		StrictTransitions: cfg.Timeline.StrictTransitions,
		Log:               log,
	})

	registry := planner.NewRegistry(0)
	pl := planner.New(registry, planner.Callbacks{}, log)

	sched := scheduler.New(scheduler.Config{
		Scheduler:  cfg.Scheduler,
		Bus:        bus,
		Tracer:     tr,
		Timeline:   tl,
		Planner:    pl,
		ToolRunner: echoToolRunner{},
		Log:        log,
	})

	return &AppContext{
		Config:   cfg,
		Log:      log,
		Bus:      bus,
		Trace:    tr,
		Timeline: tl,
		Planner:  pl,
		Sched:    sched,
	}
}

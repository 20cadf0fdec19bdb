package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flowcortex/agentcore/plan"
	"github.com/flowcortex/agentcore/planner"
	"github.com/flowcortex/agentcore/scheduler"
)

type runOptions struct {
	agentID  string
	strategy string
	timeout  time.Duration
}

// newRunCmd builds the "run" subcommand: it plans a goal and immediately
// drives it through the scheduler to completion, printing the final
// execution snapshot and analytics. Since this module has no persisted
// job queue, plan and run are collapsed into one invocation rather than
// requiring a separate process to hand a plan ID back in.
func newRunCmd(root *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [goal text]",
		Short: "Plan a goal and execute it to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(root)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx := app.CommandContext(cmd)
			goalText := strings.Join(args, " ")

			p, err := app.Planner.CreatePlan(ctx, opts.agentID, plan.NewGoal(goalText), planner.PlanningContext{
				CorrelationID: correlationIDFromContext(ctx),
			}, planner.Options{StrategyName: opts.strategy})
			if err != nil {
				return fmt.Errorf("creating plan: %w", err)
			}

			h, err := app.Sched.StartExecution(ctx, p)
			if err != nil {
				return fmt.Errorf("starting execution: %w", err)
			}

			if err := waitForExecution(ctx, h, opts.timeout); err != nil {
				return err
			}

			exec := h.Execution()
			out, err := yaml.Marshal(map[string]any{
				"execution": exec,
				"progress":  h.Progress(),
				"analytics": h.Analytics(),
			})
			if err != nil {
				return fmt.Errorf("rendering execution: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))

			if exec.Status == plan.ExecutionFailed {
				return fmt.Errorf("execution %s finished with status %s", exec.ExecutionID, exec.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.agentID, "agent", "cli", "Agent ID the plan is scoped to")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Planning strategy: linear, tree, graph, or multi")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Give up waiting for the execution to finish after this long")

	return cmd
}

// waitForExecution polls a Handle until it reaches a terminal status or
// timeout elapses. The scheduler's own driver goroutine does all the real
// work; this just observes it the way a CLI caller would.
func waitForExecution(ctx context.Context, h *scheduler.Handle, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("run cancelled")
		case <-deadline.C:
			return fmt.Errorf("timed out after %s waiting for execution to finish", timeout)
		case <-ticker.C:
			if h.Status().Terminal() {
				return nil
			}
		}
	}
}

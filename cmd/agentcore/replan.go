package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flowcortex/agentcore/plan"
	"github.com/flowcortex/agentcore/planner"
)

type replanOptions struct {
	agentID string
	reason  string
	drain   bool
}

// newReplanCmd builds the "replan" subcommand: it plans a goal, starts
// executing it, then immediately triggers a mid-flight replan against
// that same execution, printing both the superseded execution's final
// state and the successor plan. This exercises Scheduler.InitiateReplan
// end to end without requiring a second process to hold the execution
// handle open.
func newReplanCmd(root *rootFlags) *cobra.Command {
	opts := &replanOptions{}

	cmd := &cobra.Command{
		Use:   "replan [goal text]",
		Short: "Start executing a goal, then trigger a replan against it",
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
			}, planner.Options{})
			if err != nil {
				return fmt.Errorf("creating plan: %w", err)
			}

			h, err := app.Sched.StartExecution(ctx, p)
			if err != nil {
				return fmt.Errorf("starting execution: %w", err)
			}

			// Give the first admission wave a moment to start before
			// interrupting it, so the replan observably acts on an
			// in-flight execution rather than one that never began.
			time.Sleep(10 * time.Millisecond)

			successor, replanCtx, err := app.Sched.InitiateReplan(ctx, opts.agentID, h.ExecutionID(), opts.reason, opts.drain)
			if err != nil {
				return fmt.Errorf("initiating replan: %w", err)
			}

			out, err := yaml.Marshal(map[string]any{
				"supersededExecution": h.Execution(),
				"replan":              replanCtx,
				"successorPlan":       successor,
			})
			if err != nil {
				return fmt.Errorf("rendering replan result: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.agentID, "agent", "cli", "Agent ID the plan is scoped to")
	cmd.Flags().StringVar(&opts.reason, "reason", "manual replan requested", "Reason recorded on the replan context")
	cmd.Flags().BoolVar(&opts.drain, "drain", false, "Pause the superseded execution instead of cancelling it")

	return cmd
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flowcortex/agentcore/plan"
	"github.com/flowcortex/agentcore/planner"
)

type planOptions struct {
	agentID   string
	strategy  string
	maxSteps  int
	beamWidth int
}

// newPlanCmd builds the "plan" subcommand: it creates a Plan from a goal
// string and prints the resulting step DAG as YAML.
func newPlanCmd(root *rootFlags) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan [goal text]",
		Short: "Create a plan for a goal and print its step DAG",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(root)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			goalText := strings.Join(args, " ")
			p, err := app.Planner.CreatePlan(app.CommandContext(cmd), opts.agentID, plan.NewGoal(goalText), planner.PlanningContext{
				CorrelationID: correlationIDFromContext(cmd.Context()),
			}, planner.Options{
				StrategyName: opts.strategy,
				MaxSteps:     opts.maxSteps,
				BeamWidth:    opts.beamWidth,
			})
			if err != nil {
				return fmt.Errorf("creating plan: %w", err)
			}

			out, err := yaml.Marshal(p)
			if err != nil {
				return fmt.Errorf("rendering plan: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.agentID, "agent", "cli", "Agent ID the plan is scoped to")
	cmd.Flags().StringVar(&opts.strategy, "strategy", "", "Planning strategy: linear, tree, graph, or multi (default: agent's configured default)")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", 0, "Maximum steps a strategy may produce (0 uses the strategy's default)")
	cmd.Flags().IntVar(&opts.beamWidth, "beam-width", 0, "Beam width for strategies that branch (0 uses the strategy's default)")

	return cmd
}

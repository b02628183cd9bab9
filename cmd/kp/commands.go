package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alfredjeanlab/kplan/internal/client"
	"github.com/alfredjeanlab/kplan/internal/graph"
	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:     "graph <project-id>",
	Short:   "Show a project's initiative dependency graph",
	GroupID: "deps",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := planClient.Graph(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("building graph: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), g)
		}
		printGraph(cmd.OutOrStdout(), g)
		return nil
	},
}

var cyclesCmd = &cobra.Command{
	Use:     "cycles <project-id>",
	Short:   "List blocking dependency cycles (deadlocks) in a project",
	GroupID: "deps",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := planClient.Graph(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("detecting cycles: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"project_id": g.ProjectID, "deadlocks": g.Deadlocks})
		}
		if len(g.Deadlocks) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no deadlocks")
			return nil
		}
		for _, c := range g.Deadlocks {
			fmt.Fprintln(cmd.OutOrStdout(), formatCycle(c))
		}
		return nil
	},
}

var depCmd = &cobra.Command{
	Use:     "dep",
	Short:   "Manage initiative dependencies",
	GroupID: "deps",
}

var depAddCmd = &cobra.Command{
	Use:   "add <from-initiative> <to-initiative>",
	Short: "Add a dependency (from blocks to, unless --type relates)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		depType, _ := cmd.Flags().GetString("type")
		dep, err := planClient.AddDependency(context.Background(), &client.AddDependencyRequest{
			FromInitiativeID: args[0],
			ToInitiativeID:   args[1],
			Type:             depType,
			CreatedBy:        actor,
		})
		if err != nil {
			return fmt.Errorf("adding dependency: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), dep)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s %s\n", dep.ID, dep.FromInitiativeID, dep.Type, dep.ToInitiativeID)
		return nil
	},
}

var depRemoveCmd = &cobra.Command{
	Use:   "remove <dependency-id>",
	Short: "Remove a dependency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := planClient.RemoveDependency(context.Background(), args[0], actor); err != nil {
			return fmt.Errorf("removing dependency: %w", err)
		}
		if !jsonOutput {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:     "explain <initiative-id>",
	Short:   "Explain what blocks an initiative",
	GroupID: "deps",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := planClient.ExplainBlocker(context.Background(), graph.ObjectInitiative, args[0])
		if err != nil {
			return fmt.Errorf("explaining blocker: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), e)
		}
		printExplanation(cmd.OutOrStdout(), e)
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:     "progress <project-id>",
	Short:   "Show progress rollup for a project",
	GroupID: "reports",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := planClient.ProjectProgress(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("computing progress: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		printProgress(cmd.OutOrStdout(), m)
		return nil
	},
}

var portfolioCmd = &cobra.Command{
	Use:     "portfolio <organization-id>",
	Short:   "Show progress across every project of an organization",
	GroupID: "reports",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := planClient.PortfolioMetrics(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("computing portfolio: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), m)
		}
		printPortfolio(cmd.OutOrStdout(), m)
		return nil
	},
}

var capacityCmd = &cobra.Command{
	Use:     "capacity",
	Short:   "Show and set weekly capacity",
	GroupID: "capacity",
}

var capacityShowCmd = &cobra.Command{
	Use:   "show [user-id]",
	Short: "Show a user's weekly load, or every configured ceiling",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if len(args) == 0 {
			c, err := planClient.ListCapacities(ctx)
			if err != nil {
				return fmt.Errorf("listing capacities: %w", err)
			}
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), c)
			}
			printCeilings(cmd.OutOrStdout(), c)
			return nil
		}
		project, _ := cmd.Flags().GetString("project")
		uc, err := planClient.UserCapacity(ctx, args[0], project)
		if err != nil {
			return fmt.Errorf("calculating capacity: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), uc)
		}
		printUserCapacity(cmd.OutOrStdout(), uc)
		return nil
	},
}

var capacitySetCmd = &cobra.Command{
	Use:   "set <user-id> <hours-per-week>",
	Short: "Override a user's weekly capacity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hours, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid hours %q: %w", args[1], err)
		}
		if hours <= 0 {
			return fmt.Errorf("hours must be positive, got %g", hours)
		}
		if err := planClient.SetCapacity(context.Background(), args[0], hours, actor); err != nil {
			return fmt.Errorf("setting capacity: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"user_id": args[0], "hours_per_week": hours})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %.1fh/week\n", args[0], hours)
		return nil
	},
}

var overloadsCmd = &cobra.Command{
	Use:     "overloads <project-id>",
	Short:   "Detect overloaded users in a project and suggest fixes",
	GroupID: "capacity",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := planClient.DetectOverloads(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("detecting overloads: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printOverloads(cmd.OutOrStdout(), res)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status <project-id>",
	Short:   "Show the combined health of a project",
	GroupID: "reports",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := planClient.HealthSnapshot(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("computing health: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snap)
		}
		printHealthSnapshot(cmd.OutOrStdout(), snap)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check the health of the kplan service",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := planClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("checking health: %w", err)
		}
		if jsonOutput {
			if err := printJSON(cmd.OutOrStdout(), map[string]string{"status": status}); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Health: %s\n", status)
		}
		if status != "ok" {
			return fmt.Errorf("unhealthy: %s", status)
		}
		return nil
	},
}

func init() {
	depAddCmd.Flags().String("type", string(model.DepBlocks), "dependency type (blocks or relates)")
	depCmd.AddCommand(depAddCmd)
	depCmd.AddCommand(depRemoveCmd)

	capacityShowCmd.Flags().String("project", "", "only count tasks in this project")
	capacityCmd.AddCommand(capacityShowCmd)
	capacityCmd.AddCommand(capacitySetCmd)
}

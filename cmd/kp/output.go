package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/alfredjeanlab/kplan/internal/capacity"
	"github.com/alfredjeanlab/kplan/internal/model"
	"github.com/alfredjeanlab/kplan/internal/ui"
)

// sustainedPct is the utilization at which a bucket is rendered red.
const sustainedPct = 120

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}

// titleWidth leaves room for the id, phase and status columns.
func titleWidth() int {
	return max(20, ui.Width()-40)
}

func printGraph(w io.Writer, g *model.GraphResponse) {
	width := titleWidth()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPHASE\tSTATUS\tTITLE")
	for _, n := range g.Nodes {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", n.ID, n.Phase, ui.RenderStatus(string(n.Status)), truncate(n.Title, width))
	}
	tw.Flush()

	if len(g.Edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Dependencies:")
		for _, e := range g.Edges {
			fmt.Fprintf(w, "  %s %s %s %s\n", e.Source, ui.RenderMuted("--"+e.Type+"->"), e.Target, ui.RenderMuted("("+e.ID+")"))
		}
	}
	printCycles(w, g.Deadlocks)
	if g.Stats != nil {
		fmt.Fprintf(w, "\n%d initiatives, %d blocking, %d relates, %d deadlocks\n",
			g.Stats.TotalInitiatives, g.Stats.BlockingEdges, g.Stats.RelatesEdges, g.Stats.Deadlocks)
	}
}

func printCycles(w io.Writer, cycles [][]string) {
	if len(cycles) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, ui.RenderStatus("deadlock")+":")
	for _, c := range cycles {
		fmt.Fprintf(w, "  %s\n", formatCycle(c))
	}
}

// formatCycle renders a cycle closed back on its first member.
func formatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return strings.Join(append(append([]string(nil), cycle...), cycle[0]), " -> ")
}

func printExplanation(w io.Writer, e *model.BlockerExplanation) {
	fmt.Fprintf(w, "%s %s: %s\n", e.ObjectType, e.ObjectID, e.Summary)
	switch e.Kind {
	case model.ExplanationCycle:
		fmt.Fprintf(w, "  cycle: %s\n", formatCycle(e.Cycle))
	case model.ExplanationChain:
		if len(e.RootCauses) > 0 {
			fmt.Fprintf(w, "  root causes: %s\n", strings.Join(e.RootCauses, ", "))
		}
		for _, chain := range e.Chains {
			fmt.Fprintf(w, "  %s\n", strings.Join(chain, " -> "))
		}
	}
	for _, c := range e.UpstreamDeadlocks {
		fmt.Fprintf(w, "  upstream deadlock: %s\n", formatCycle(c))
	}
}

func printProgress(w io.Writer, m *model.ProgressMetrics) {
	fmt.Fprintf(w, "Project %s  %s %.1f%%\n", m.ScopeID, ui.ProgressBar(m.Progress, 20), m.Progress)
	fmt.Fprintf(w, "  Initiatives: %d (not started %d, in progress %d, at risk %d, blocked %d, done %d)\n",
		m.TotalInitiatives, m.NotStartedCount, m.InProgressCount, m.AtRiskCount, m.BlockedCount, m.DoneCount)
	if len(m.Phases) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PHASE\tINITIATIVES\tPROGRESS")
	for _, p := range m.Phases {
		fmt.Fprintf(tw, "  %d\t%d\t%.1f%%\n", p.Phase, p.Initiatives, p.Progress)
	}
	tw.Flush()
}

func printPortfolio(w io.Writer, m *model.PortfolioMetrics) {
	fmt.Fprintf(w, "Organization %s  %s %.1f%%\n", m.OrganizationID, ui.ProgressBar(m.Progress, 20), m.Progress)
	fmt.Fprintf(w, "  Projects: %d  Initiatives: %d  At risk: %d  Blocked: %d  Done: %d\n",
		m.TotalProjects, m.TotalInitiatives, m.AtRiskCount, m.BlockedCount, m.DoneCount)
	if len(m.Projects) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PROJECT\tINITIATIVES\tBLOCKED\tPROGRESS")
	for _, p := range m.Projects {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%.1f%%\n", p.ScopeID, p.TotalInitiatives, p.BlockedCount, p.Progress)
	}
	tw.Flush()
}

func printUserCapacity(w io.Writer, uc *model.UserCapacity) {
	fmt.Fprintf(w, "%s  capacity %.1fh/week", uc.UserID, uc.CapacityHours)
	if uc.ProjectID != "" {
		fmt.Fprintf(w, "  project %s", uc.ProjectID)
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  WEEK\tTASKS\tHOURS\tUTILIZATION")
	for i, b := range uc.Buckets {
		marker := ""
		if i == uc.CurrentIndex {
			marker = " <"
		}
		fmt.Fprintf(tw, "  %s\t%d\t%.1f\t%s%s\n", b.Week, b.TaskCount, b.AssignedHours,
			ui.RenderUtilization(b.Utilization*100, sustainedPct), marker)
	}
	tw.Flush()
	if uc.LaterHours > 0 {
		fmt.Fprintf(w, "  later: %.1fh\n", uc.LaterHours)
	}
}

func printCeilings(w io.Writer, c *capacity.Ceilings) {
	fmt.Fprintf(w, "default: %.1fh/week\n", c.For(""))
	users := make([]string, 0, len(c.Users))
	for u := range c.Users {
		users = append(users, u)
	}
	sort.Strings(users)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, u := range users {
		fmt.Fprintf(tw, "  %s\t%.1fh/week\n", u, c.Users[u])
	}
	tw.Flush()
}

func printOverloads(w io.Writer, res *model.OverloadResult) {
	fmt.Fprintf(w, "Capacity %s  week %s  %d users analyzed\n",
		ui.RenderStatus(string(res.Status)), res.CurrentWeek, res.TotalUsersAnalyzed)
	if !res.HasOverloads {
		fmt.Fprintln(w, "  no overloaded users")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  USER\tASSIGNED\tCAPACITY\tUTILIZATION\t")
	for _, u := range res.OverloadedUsers {
		sustained := ""
		if u.Sustained {
			sustained = ui.RenderStatus("sustained")
		}
		fmt.Fprintf(tw, "  %s\t%.1f\t%.1f\t%s\t%s\n", u.UserID, u.AssignedHours, u.CapacityHours,
			ui.RenderUtilization(u.Utilization*100, sustainedPct), sustained)
	}
	tw.Flush()
	if len(res.Suggestions) > 0 {
		fmt.Fprintln(w, "Suggestions:")
		for _, s := range res.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s.Reason)
		}
	}
}

func printHealthSnapshot(w io.Writer, snap *model.HealthSnapshot) {
	fmt.Fprintf(w, "Project %s: %s\n", snap.ProjectID, ui.RenderStatus(string(snap.Status)))
	if snap.Progress != nil {
		fmt.Fprintln(w)
		printProgress(w, snap.Progress)
	}
	printCycles(w, snap.Deadlocks)
	if snap.Overloads != nil {
		fmt.Fprintln(w)
		printOverloads(w, snap.Overloads)
	}
}

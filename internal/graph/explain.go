package graph

import (
	"fmt"
	"strings"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// ObjectInitiative is the only object type blocker explanations support.
const ObjectInitiative = "initiative"

// ExplainBlocker explains why the initiative id cannot progress.
//
// When id sits on a deadlock the explanation is that cycle. Otherwise the
// inbound blocking edges are walked backward through blockers that are not
// done, and every blocker with no incomplete blockers of its own is reported
// as a root cause together with the shortest chain from it to id. Deadlocks
// met along the way are reported as upstream deadlocks.
func ExplainBlocker(g *Graph, id string) *model.BlockerExplanation {
	exp := &model.BlockerExplanation{
		ObjectType: ObjectInitiative,
		ObjectID:   id,
		Kind:       model.ExplanationNone,
	}

	cycles := DetectCycles(g)
	c := CycleContaining(cycles, id)
	if c == nil {
		c = CycleThrough(g, id)
	}
	if c != nil {
		exp.Kind = model.ExplanationCycle
		exp.Cycle = c
		exp.Summary = fmt.Sprintf("%s is deadlocked: %s", id, formatCycle(c))
		return exp
	}

	// Breadth-first walk against edge direction. towards[b] is the node b
	// blocks on the shortest route to id.
	towards := map[string]string{}
	visited := map[string]bool{id: true}
	queue := []string{id}
	var roots []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		blockers := g.activeBlockers(cur)
		if cur != id && len(blockers) == 0 {
			roots = append(roots, cur)
			continue
		}
		for _, b := range blockers {
			if visited[b] {
				continue
			}
			visited[b] = true
			towards[b] = cur
			queue = append(queue, b)
		}
	}

	for _, c := range cycles {
		for _, member := range c {
			if visited[member] {
				exp.UpstreamDeadlocks = append(exp.UpstreamDeadlocks, c)
				break
			}
		}
	}

	if len(roots) == 0 && len(exp.UpstreamDeadlocks) == 0 {
		exp.Summary = fmt.Sprintf("%s has no incomplete blockers", id)
		return exp
	}

	sortIDs(roots)
	exp.Kind = model.ExplanationChain
	exp.RootCauses = roots
	for _, r := range roots {
		chain := []string{r}
		for n := r; n != id; {
			n = towards[n]
			chain = append(chain, n)
		}
		exp.Chains = append(exp.Chains, chain)
	}

	switch {
	case len(roots) > 0 && len(exp.UpstreamDeadlocks) > 0:
		exp.Summary = fmt.Sprintf("%s is blocked by %s and by %d upstream deadlock(s)",
			id, strings.Join(roots, ", "), len(exp.UpstreamDeadlocks))
	case len(roots) > 0:
		exp.Summary = fmt.Sprintf("%s is blocked by %s", id, strings.Join(roots, ", "))
	default:
		exp.Summary = fmt.Sprintf("%s is blocked by %d upstream deadlock(s)", id, len(exp.UpstreamDeadlocks))
	}
	return exp
}

// activeBlockers returns the initiatives that block id and are not done.
func (g *Graph) activeBlockers(id string) []string {
	var out []string
	for _, b := range g.In[id] {
		if in := g.initiatives[b]; in != nil && in.Status != model.InitiativeDone {
			out = append(out, b)
		}
	}
	return out
}

func formatCycle(c []string) string {
	return strings.Join(append(append([]string{}, c...), c[0]), " -> ")
}

package graph

import (
	"sort"

	"github.com/alfredjeanlab/kplan/internal/model"
)

// Graph is an adjacency view over one project's initiatives.
// Out and In hold blocking edges only, each neighbor list sorted by id.
type Graph struct {
	Nodes []string
	Out   map[string][]string
	In    map[string][]string
	Edges []*model.Dependency

	initiatives map[string]*model.Initiative
}

// Build constructs a Graph in O(V+E). Edges whose endpoints are not among
// the given initiatives are dropped; duplicate blocking edges collapse.
func Build(initiatives []*model.Initiative, deps []*model.Dependency) *Graph {
	g := &Graph{
		Nodes:       make([]string, 0, len(initiatives)),
		Out:         make(map[string][]string, len(initiatives)),
		In:          make(map[string][]string, len(initiatives)),
		initiatives: make(map[string]*model.Initiative, len(initiatives)),
	}
	for _, in := range initiatives {
		if _, dup := g.initiatives[in.ID]; dup {
			continue
		}
		g.initiatives[in.ID] = in
		g.Nodes = append(g.Nodes, in.ID)
	}
	sortIDs(g.Nodes)

	type edgeKey struct{ from, to string }
	seen := make(map[edgeKey]bool)
	for _, d := range deps {
		if !g.Has(d.FromInitiativeID) || !g.Has(d.ToInitiativeID) {
			continue
		}
		g.Edges = append(g.Edges, d)
		if d.Type != model.DepBlocks {
			continue
		}
		k := edgeKey{d.FromInitiativeID, d.ToInitiativeID}
		if seen[k] {
			continue
		}
		seen[k] = true
		g.Out[k.from] = append(g.Out[k.from], k.to)
		g.In[k.to] = append(g.In[k.to], k.from)
	}
	for _, ids := range g.Out {
		sortIDs(ids)
	}
	for _, ids := range g.In {
		sortIDs(ids)
	}
	sort.SliceStable(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.FromInitiativeID != b.FromInitiativeID {
			return lessID(a.FromInitiativeID, b.FromInitiativeID)
		}
		if a.ToInitiativeID != b.ToInitiativeID {
			return lessID(a.ToInitiativeID, b.ToInitiativeID)
		}
		return a.Type < b.Type
	})
	return g
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.initiatives[id]
	return ok
}

// Initiative returns the initiative for id, or nil.
func (g *Graph) Initiative(id string) *model.Initiative {
	return g.initiatives[id]
}

// Initiatives returns the node initiatives in id order.
func (g *Graph) Initiatives() []*model.Initiative {
	out := make([]*model.Initiative, 0, len(g.Nodes))
	for _, id := range g.Nodes {
		out = append(out, g.initiatives[id])
	}
	return out
}

// Response renders the graph and its deadlocks for transport.
func (g *Graph) Response(projectID string, deadlocks [][]string) *model.GraphResponse {
	resp := &model.GraphResponse{
		ProjectID: projectID,
		Nodes:     g.Initiatives(),
		Edges:     make([]*model.GraphEdge, 0, len(g.Edges)),
		Deadlocks: deadlocks,
		Stats: &model.GraphStats{
			TotalInitiatives: len(g.Nodes),
			Deadlocks:        len(deadlocks),
		},
	}
	if resp.Deadlocks == nil {
		resp.Deadlocks = [][]string{}
	}
	for _, d := range g.Edges {
		resp.Edges = append(resp.Edges, &model.GraphEdge{
			ID:     d.ID,
			Source: d.FromInitiativeID,
			Target: d.ToInitiativeID,
			Type:   string(d.Type),
		})
		switch d.Type {
		case model.DepBlocks:
			resp.Stats.BlockingEdges++
		case model.DepRelates:
			resp.Stats.RelatesEdges++
		}
	}
	return resp
}

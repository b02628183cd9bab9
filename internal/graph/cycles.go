package graph

import (
	"slices"
	"sort"
	"strings"
)

const (
	white uint8 = iota // unvisited
	gray               // on the current DFS path
	black              // fully explored
)

type frame struct {
	id   string
	next int // index of the next outbound neighbor to visit
}

// DetectCycles returns the deadlocks of g: the cycles closed by back edges
// during a depth-first traversal of the blocking edges. It runs in O(V+E)
// using an explicit stack, so deep chains cannot exhaust the goroutine stack.
//
// Each cycle starts at its smallest id and lists the remaining members in
// edge order. A self-loop yields a one-node cycle. The result is sorted and
// free of duplicates, so identical graphs always produce identical output
// regardless of the order their edges were inserted. A graph without cycles
// yields an empty (non-nil) slice.
func DetectCycles(g *Graph) [][]string {
	color := make(map[string]uint8, len(g.Nodes))
	onStack := make(map[string]int) // node -> index in stack while gray
	seen := make(map[string]bool)
	cycles := [][]string{}

	for _, start := range g.Nodes {
		if color[start] != white {
			continue
		}
		color[start] = gray
		onStack[start] = 0
		stack := []frame{{id: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := g.Out[top.id]
			if top.next >= len(neighbors) {
				color[top.id] = black
				delete(onStack, top.id)
				stack = stack[:len(stack)-1]
				continue
			}
			n := neighbors[top.next]
			top.next++

			switch color[n] {
			case white:
				color[n] = gray
				onStack[n] = len(stack)
				stack = append(stack, frame{id: n})
			case gray:
				path := stack[onStack[n]:]
				cycle := make([]string, len(path))
				for i, f := range path {
					cycle[i] = f.id
				}
				cycle = normalizeCycle(cycle)
				key := strings.Join(cycle, "\x00")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return lessSeq(cycles[i], cycles[j]) })
	return cycles
}

// normalizeCycle rotates a cycle to start with its smallest id so the same
// cycle found from different entry points compares equal.
func normalizeCycle(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range cycle {
		if lessID(id, cycle[minIdx]) {
			minIdx = i
		}
	}
	out := make([]string, len(cycle))
	for i := range cycle {
		out[i] = cycle[(minIdx+i)%len(cycle)]
	}
	return out
}

// CycleContaining returns the first cycle that includes id, or nil.
func CycleContaining(cycles [][]string, id string) []string {
	for _, c := range cycles {
		for _, member := range c {
			if member == id {
				return c
			}
		}
	}
	return nil
}

// CycleThrough returns a shortest cycle of blocking edges that passes through
// id, normalized like DetectCycles output, or nil when id cannot reach
// itself. Unlike DetectCycles it also finds cycles whose closing edge is a
// cross edge of the traversal.
func CycleThrough(g *Graph, id string) []string {
	parent := map[string]string{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Out[cur] {
			if n == id {
				var path []string
				for v := cur; v != id; v = parent[v] {
					path = append(path, v)
				}
				path = append(path, id)
				slices.Reverse(path)
				return normalizeCycle(path)
			}
			if _, ok := parent[n]; ok {
				continue
			}
			parent[n] = cur
			queue = append(queue, n)
		}
	}
	return nil
}

// Package graph builds the per-project initiative dependency graph and
// analyzes it for deadlocks and blocker chains.
//
// A Graph is a request-scoped value: it is built from a snapshot of
// initiatives and dependencies, analyzed, and discarded. Only "blocks"
// edges take part in the analysis; "relates" edges are carried along as
// metadata for rendering.
package graph

package compiler

import (
	"slices"

	"github.com/roach88/grnbind/internal/ir"
)

// dependencyGraph maps a table to the tables its keys are drawn from.
type dependencyGraph map[string][]string

// buildKeyGraph links each table to its key type when that key type is
// another table of the schema.
func buildKeyGraph(specs []ir.TableSpec) (dependencyGraph, []string) {
	graph := make(dependencyGraph, len(specs))
	order := make([]string, 0, len(specs))
	for _, s := range specs {
		if _, seen := graph[s.Name]; !seen {
			graph[s.Name] = []string{}
			order = append(order, s.Name)
		}
	}
	for _, s := range specs {
		if _, ok := graph[s.KeyType]; ok {
			graph[s.Name] = append(graph[s.Name], s.KeyType)
		}
	}
	return graph, order
}

// KeyTypeCycles returns the key-type cycles of a schema. Each cycle is a
// path that starts and ends at the same table, e.g. [A B A]. A table
// keyed by itself yields [A A]. Tables cannot be keyed by each other, so
// any cycle makes the schema impossible to create.
func KeyTypeCycles(specs []ir.TableSpec) [][]string {
	graph, order := buildKeyGraph(specs)
	var cycles [][]string
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			cycles = append(cycles, cyclePath(scc, graph))
		}
	}
	return cycles
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph dependencyGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting roots in order so the output is deterministic.
func tarjanSCC(graph dependencyGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks the component from its first declared member until it
// returns to the start.
func cyclePath(scc []string, graph dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}
	start := scc[len(scc)-1]
	path := []string{start}
	visited := map[string]bool{start: true}
	for current := start; ; {
		next := ""
		for _, n := range graph[current] {
			if members[n] && (!visited[n] || n == start) {
				next = n
				break
			}
		}
		if next == "" {
			return path
		}
		path = append(path, next)
		if next == start {
			return path
		}
		visited[next] = true
		current = next
	}
}

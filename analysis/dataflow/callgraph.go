// Copyright (c) the Argus Tools authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataflow

import (
	"sort"

	"github.com/yourbasic/graph"
)

// A CallableGraph is the caller-to-callee dependency graph over callables.
// The external fixpoint scheduler uses its bottom-up order to minimize the
// number of rounds before models stabilize; the model algebra stays safe for
// any order.
type CallableGraph struct {
	index map[Callable]int
	nodes []Callable
	edges map[int]map[int]bool
}

// NewCallableGraph returns an empty graph.
func NewCallableGraph() *CallableGraph {
	return &CallableGraph{
		index: map[Callable]int{},
		edges: map[int]map[int]bool{},
	}
}

// AddCallable registers a node without edges.
func (g *CallableGraph) AddCallable(c Callable) {
	g.nodeID(c)
}

// AddCall registers a caller-to-callee edge, adding both nodes as needed.
func (g *CallableGraph) AddCall(caller, callee Callable) {
	from := g.nodeID(caller)
	to := g.nodeID(callee)
	if g.edges[from] == nil {
		g.edges[from] = map[int]bool{}
	}
	g.edges[from][to] = true
}

func (g *CallableGraph) nodeID(c Callable) int {
	if id, ok := g.index[c]; ok {
		return id
	}
	id := len(g.nodes)
	g.index[c] = id
	g.nodes = append(g.nodes, c)
	return id
}

// Callables returns all registered callables in name order.
func (g *CallableGraph) Callables() []Callable {
	out := make([]Callable, len(g.nodes))
	copy(out, g.nodes)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AnalysisOrder returns the strongly connected components of the graph in
// bottom-up order: every component appears after the components it calls
// into. Analyzing in this order lets a summary-based analysis see its
// callees' freshest models first. Within a component, callables are in name
// order; members of a cycle must be iterated to a fixpoint by the scheduler.
func (g *CallableGraph) AnalysisOrder() [][]Callable {
	n := len(g.nodes)
	if n == 0 {
		return nil
	}
	byg := graph.New(n)
	for from, tos := range g.edges {
		for to := range tos {
			if from != to {
				byg.Add(from, to)
			}
		}
	}
	components := graph.StrongComponents(byg)

	// Condense to the component DAG, then order components so that callees
	// come first (Kahn's algorithm on reversed edges).
	compOf := make([]int, n)
	for ci, comp := range components {
		for _, v := range comp {
			compOf[v] = ci
		}
	}
	succs := make([]map[int]bool, len(components))
	indeg := make([]int, len(components))
	for i := range succs {
		succs[i] = map[int]bool{}
	}
	for from, tos := range g.edges {
		for to := range tos {
			cf, ct := compOf[from], compOf[to]
			if cf != ct && !succs[cf][ct] {
				succs[cf][ct] = true
				indeg[cf]++ // reversed: a caller waits for its callees
			}
		}
	}
	var ready []int
	for ci := range components {
		if indeg[ci] == 0 {
			ready = append(ready, ci)
		}
	}
	sort.Ints(ready)

	var order [][]Callable
	for len(ready) > 0 {
		ci := ready[0]
		ready = ready[1:]
		comp := make([]Callable, 0, len(components[ci]))
		for _, v := range components[ci] {
			comp = append(comp, g.nodes[v])
		}
		sort.Slice(comp, func(i, j int) bool { return comp[i].Name < comp[j].Name })
		order = append(order, comp)

		for cj := range succs {
			if succs[cj][ci] {
				delete(succs[cj], ci)
				indeg[cj]--
				if indeg[cj] == 0 {
					ready = append(ready, cj)
					sort.Ints(ready)
				}
			}
		}
	}
	return order
}

// InCycle returns true when the callable belongs to a strongly connected
// component with more than one member, or calls itself.
func (g *CallableGraph) InCycle(c Callable) bool {
	id, ok := g.index[c]
	if !ok {
		return false
	}
	if g.edges[id][id] {
		return true
	}
	byg := graph.New(len(g.nodes))
	for from, tos := range g.edges {
		for to := range tos {
			if from != to {
				byg.Add(from, to)
			}
		}
	}
	for _, comp := range graph.StrongComponents(byg) {
		if len(comp) >= 2 {
			for _, v := range comp {
				if v == id {
					return true
				}
			}
		}
	}
	return false
}

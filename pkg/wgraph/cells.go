// Copyright go-klv Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package wgraph

import (
	"sort"

	"github.com/atlas-reps/go-klv/pkg/block"
)

// Decomposition partitions the vertices of a W-graph into cells (the strongly
// connected components) together with the induced acyclic graph on cells.
// Cells are numbered in a reverse topological order, so edges of the induced
// graph always point from a higher cell number to a lower one.
type Decomposition struct {
	// cell[x] is the cell number of vertex x.
	cell []uint
	// members[c] lists the vertices of cell c, in increasing order.
	members [][]block.Elt
	// induced[c] lists the cells reachable from c in one step, deduplicated.
	induced [][]uint
}

// tarjanState carries the bookkeeping of Tarjan's strongly connected
// components algorithm, run iteratively to stay clear of deep recursion on
// large blocks.
type tarjanState struct {
	graph    *WGraph
	index    []uint
	lowlink  []uint
	onStack  []bool
	stack    []block.Elt
	counter  uint
	cell     []uint
	members  [][]block.Elt
	numCells uint
}

const unvisited = ^uint(0)

// Decompose computes the cell decomposition of a W-graph.
func Decompose(g *WGraph) *Decomposition {
	n := uint(g.Size())
	//
	st := &tarjanState{
		graph:   g,
		index:   make([]uint, n),
		lowlink: make([]uint, n),
		onStack: make([]bool, n),
		cell:    make([]uint, n),
	}
	//
	for i := range st.index {
		st.index[i] = unvisited
	}
	//
	for v := block.Elt(0); v < g.Size(); v++ {
		if st.index[v] == unvisited {
			st.strongConnect(v)
		}
	}
	//
	return &Decomposition{
		cell:    st.cell,
		members: st.members,
		induced: inducedGraph(g, st.cell, st.numCells),
	}
}

// frame is one suspended vertex of the iterative depth-first search, together
// with the position of the next edge to explore.
type frame struct {
	v    block.Elt
	next int
}

func (st *tarjanState) strongConnect(root block.Elt) {
	frames := []frame{{root, 0}}
	st.visit(root)
	//
	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		edges := st.graph.Edges(f.v)
		//
		if f.next < len(edges) {
			w := edges[f.next].To
			f.next++
			//
			switch {
			case st.index[w] == unvisited:
				st.visit(w)
				frames = append(frames, frame{w, 0})
			case st.onStack[w]:
				st.lowlink[f.v] = min(st.lowlink[f.v], st.index[w])
			}
			//
			continue
		}
		// All edges of f.v explored.
		if st.lowlink[f.v] == st.index[f.v] {
			st.popComponent(f.v)
		}
		//
		frames = frames[:len(frames)-1]
		//
		if len(frames) > 0 {
			u := frames[len(frames)-1].v
			st.lowlink[u] = min(st.lowlink[u], st.lowlink[f.v])
		}
	}
}

func (st *tarjanState) visit(v block.Elt) {
	st.index[v] = st.counter
	st.lowlink[v] = st.counter
	st.counter++
	st.stack = append(st.stack, v)
	st.onStack[v] = true
}

// popComponent pops one strongly connected component off the stack and
// records it as a new cell.
func (st *tarjanState) popComponent(root block.Elt) {
	var cell []block.Elt
	//
	for {
		w := st.stack[len(st.stack)-1]
		st.stack = st.stack[:len(st.stack)-1]
		st.onStack[w] = false
		st.cell[w] = st.numCells
		cell = append(cell, w)
		//
		if w == root {
			break
		}
	}
	// The stack holds the component in discovery order, which inside a cycle
	// need not agree with element order.
	sort.Slice(cell, func(i, j int) bool { return cell[i] < cell[j] })
	//
	st.members = append(st.members, cell)
	st.numCells++
}

// inducedGraph collapses the vertex graph onto cells, dropping intra-cell
// edges and duplicates.
func inducedGraph(g *WGraph, cell []uint, numCells uint) [][]uint {
	induced := make([][]uint, numCells)
	seen := make(map[[2]uint]bool)
	//
	for v := block.Elt(0); v < g.Size(); v++ {
		for _, e := range g.Edges(v) {
			c, d := cell[v], cell[e.To]
			//
			if c == d || seen[[2]uint{c, d}] {
				continue
			}
			//
			seen[[2]uint{c, d}] = true
			induced[c] = append(induced[c], d)
		}
	}
	//
	return induced
}

// NumCells returns the number of cells.
func (p *Decomposition) NumCells() uint {
	return uint(len(p.members))
}

// CellOf returns the cell number of vertex x.
func (p *Decomposition) CellOf(x block.Elt) uint {
	return p.cell[x]
}

// Members returns the vertices of cell c in increasing order.
func (p *Decomposition) Members(c uint) []block.Elt {
	return p.members[c]
}

// InducedEdges returns the cells reachable from cell c in one step.
func (p *Decomposition) InducedEdges(c uint) []uint {
	return p.induced[c]
}

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

// Package wgraph derives the weighted graph of a filled KLV table and its
// decomposition into cells.  Vertices are block elements labelled by their
// descent sets; edges carry the non-zero mu coefficients at length difference
// one.  The builder is a cheap consumer of the finished table, not part of
// the recursion.
package wgraph

import (
	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/kl"
	"github.com/atlas-reps/go-klv/pkg/poly"
)

// Edge is one directed, weighted edge of the W-graph.
type Edge struct {
	To     block.Elt
	Weight poly.Coeff
}

// WGraph stores the graph, its edge weights, and the descent-set labels.
// Construction is left to FromContext; all fields are exposed read-only via
// accessors.
type WGraph struct {
	rank    uint
	edges   [][]Edge
	descent []block.RankFlags
}

// FromContext builds the W-graph of a filled table.  For every recorded mu
// pair (x,y) at length difference one, a directed edge u->v is added whenever
// the descent set of v is not contained in that of u; incomparable descent
// sets yield both directions.
func FromContext(ctx *kl.Context) *WGraph {
	var (
		n = ctx.Size()
		g = &WGraph{
			rank:    ctx.Rank(),
			edges:   make([][]Edge, n),
			descent: make([]block.RankFlags, n),
		}
	)
	//
	for x := block.Elt(0); x < n; x++ {
		g.descent[x] = ctx.DescentSet(x)
	}
	//
	for y := block.Elt(0); y < n; y++ {
		for _, m := range ctx.MuRow(y) {
			x := m.X
			//
			if ctx.Length(y)-ctx.Length(x) != 1 {
				continue
			}
			//
			if !g.descent[y].ContainedIn(g.descent[x]) {
				g.edges[x] = append(g.edges[x], Edge{y, m.Coeff})
			}
			//
			if !g.descent[x].ContainedIn(g.descent[y]) {
				g.edges[y] = append(g.edges[y], Edge{x, m.Coeff})
			}
		}
	}
	//
	return g
}

// Size returns the number of vertices.
func (p *WGraph) Size() block.Elt {
	return block.Elt(len(p.edges))
}

// Rank returns the number of simple generators labelling vertices.
func (p *WGraph) Rank() uint {
	return p.rank
}

// Edges returns the outgoing edges of vertex x.
func (p *WGraph) Edges(x block.Elt) []Edge {
	return p.edges[x]
}

// Descent returns the descent-set label of vertex x.
func (p *WGraph) Descent(x block.Elt) block.RankFlags {
	return p.descent[x]
}

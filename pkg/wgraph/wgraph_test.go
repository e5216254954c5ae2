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
	"testing"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/kl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fourContext fills the rank two block {e, s, t, st} with every status
// complex, whose W-graph is the diamond e -> {s, t} -> st.
func fourContext(t *testing.T) *kl.Context {
	t.Helper()
	//
	blk, err := block.NewTableBlock(2,
		[]uint{0, 1, 1, 2},
		[]block.DescentStatus{
			block.ComplexAscent, block.ComplexAscent,
			block.ComplexDescent, block.ComplexAscent,
			block.ComplexAscent, block.ComplexDescent,
			block.ComplexDescent, block.ComplexDescent,
		},
		[]block.Elt{
			1, 2,
			0, 3,
			3, 0,
			2, 1,
		}, nil)
	require.NoError(t, err)
	//
	ctx := kl.NewContext(blk)
	require.NoError(t, ctx.Fill())
	//
	return ctx
}

func Test_WGraph_01(t *testing.T) {
	g := FromContext(fourContext(t))
	//
	assert.Equal(t, block.Elt(4), g.Size())
	assert.Equal(t, uint(2), g.Rank())
	// descent labels
	assert.Equal(t, block.RankFlags(0), g.Descent(0))
	assert.Equal(t, block.RankFlags(0).Set(0), g.Descent(1))
	assert.Equal(t, block.RankFlags(0).Set(1), g.Descent(2))
	assert.Equal(t, block.RankFlags(0).Set(0).Set(1), g.Descent(3))
}

func Test_WGraph_02(t *testing.T) {
	g := FromContext(fourContext(t))
	// descent containment orients every edge of the diamond upward
	assert.Equal(t, []Edge{{1, 1}, {2, 1}}, g.Edges(0))
	assert.Equal(t, []Edge{{3, 1}}, g.Edges(1))
	assert.Equal(t, []Edge{{3, 1}}, g.Edges(2))
	assert.Empty(t, g.Edges(3))
}

func Test_Cells_01(t *testing.T) {
	var (
		g = FromContext(fourContext(t))
		d = Decompose(g)
	)
	// an acyclic graph decomposes into singletons
	assert.Equal(t, uint(4), d.NumCells())
	//
	for x := block.Elt(0); x < g.Size(); x++ {
		assert.Equal(t, []block.Elt{x}, d.Members(d.CellOf(x)))
	}
	// cells are numbered in reverse topological order, so every induced
	// edge points downward
	for c := uint(0); c < d.NumCells(); c++ {
		for _, target := range d.InducedEdges(c) {
			assert.Less(t, target, c)
		}
	}
}

func Test_Cells_02(t *testing.T) {
	// two mutually linked vertices collapse into one cell
	g := &WGraph{
		rank: 1,
		edges: [][]Edge{
			{{1, 1}},
			{{0, 1}, {2, 1}},
			nil,
		},
		descent: []block.RankFlags{0, 1, 1},
	}
	//
	d := Decompose(g)
	//
	require.Equal(t, uint(2), d.NumCells())
	assert.Equal(t, d.CellOf(0), d.CellOf(1))
	assert.NotEqual(t, d.CellOf(0), d.CellOf(2))
	assert.Equal(t, []block.Elt{0, 1}, d.Members(d.CellOf(0)))
	// the merged cell keeps its edge onto the sink cell
	assert.Equal(t, []uint{d.CellOf(2)}, d.InducedEdges(d.CellOf(0)))
}

func Test_Cells_03(t *testing.T) {
	// the cycle 0 -> 3 -> 1 -> 0 is discovered out of element order, but its
	// member list comes back sorted
	g := &WGraph{
		rank: 1,
		edges: [][]Edge{
			{{3, 1}},
			{{0, 1}},
			nil,
			{{1, 1}},
		},
		descent: []block.RankFlags{0, 1, 0, 1},
	}
	//
	d := Decompose(g)
	//
	require.Equal(t, uint(2), d.NumCells())
	assert.Equal(t, []block.Elt{0, 1, 3}, d.Members(d.CellOf(0)))
	assert.Equal(t, []block.Elt{2}, d.Members(d.CellOf(2)))
}

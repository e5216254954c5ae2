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
package klio

import (
	"bytes"
	"testing"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/kl"
	"github.com/atlas-reps/go-klv/pkg/poly"
	"github.com/atlas-reps/go-klv/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlock(t *testing.T) *block.TableBlock {
	t.Helper()
	//
	cayleys := make([]block.EltPair, 6)
	for i := range cayleys {
		cayleys[i] = block.EltPair{First: block.UndefinedElt, Second: block.UndefinedElt}
	}
	//
	cayleys[1] = block.EltPair{First: 1, Second: block.UndefinedElt}
	//
	blk, err := block.NewTableBlock(2,
		[]uint{0, 1, 2},
		[]block.DescentStatus{
			block.ComplexAscent, block.ImaginaryTypeI,
			block.ComplexDescent, block.ComplexAscent,
			block.RealNonparity, block.ComplexDescent,
		},
		[]block.Elt{
			1, 0,
			0, 2,
			2, 1,
		}, cayleys)
	require.NoError(t, err)
	//
	return blk
}

func Test_BlockStream_01(t *testing.T) {
	var (
		blk = testBlock(t)
		buf bytes.Buffer
	)
	//
	require.NoError(t, WriteBlock(&buf, blk))
	//
	got, err := ReadBlock(&buf)
	require.NoError(t, err)
	//
	assert.Equal(t, blk.Size(), got.Size())
	assert.Equal(t, blk.Rank(), got.Rank())
	//
	for x := block.Elt(0); x < blk.Size(); x++ {
		assert.Equal(t, blk.Length(x), got.Length(x))
		//
		for s := uint(0); s < blk.Rank(); s++ {
			assert.Equal(t, blk.DescentValue(s, x), got.DescentValue(s, x))
			assert.Equal(t, blk.Cross(s, x), got.Cross(s, x))
			assert.Equal(t, blk.Cayley(s, x), got.Cayley(s, x))
		}
	}
}

func Test_BlockStream_02(t *testing.T) {
	// wrong magic is rejected
	_, err := ReadBlock(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.Error(t, err)
}

func Test_BlockStream_03(t *testing.T) {
	// truncated streams are reported, not panicked
	var (
		blk = testBlock(t)
		buf bytes.Buffer
	)
	//
	require.NoError(t, WriteBlock(&buf, blk))
	//
	_, err := ReadBlock(bytes.NewReader(buf.Bytes()[:buf.Len()/2]))
	assert.Error(t, err)
}

func Test_BlockStream_04(t *testing.T) {
	// a boundary table disagreeing with the element lengths is rejected
	var (
		blk = testBlock(t)
		buf bytes.Buffer
	)
	//
	require.NoError(t, WriteBlock(&buf, blk))
	// first boundary entry sits after magic, size, rank and max length
	data := buf.Bytes()
	data[10]++
	//
	_, err := ReadBlock(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadStream)
}

func Test_MatrixStream_01(t *testing.T) {
	var (
		ctx = filledContext(t)
		m   Matrix
		buf bytes.Buffer
	)
	//
	for y := block.Elt(0); y < ctx.Size(); y++ {
		m.Rows = append(m.Rows, ctx.PrimitiveRow(y))
		m.Indices = append(m.Indices, ctx.Row(y))
	}
	//
	require.NoError(t, WriteMatrix(&buf, &m))
	//
	got, err := ReadMatrix(&buf)
	require.NoError(t, err)
	//
	assert.Equal(t, m.Rows, got.Rows)
	assert.Equal(t, m.Indices, got.Indices)
}

func Test_MatrixStream_02(t *testing.T) {
	var buf bytes.Buffer
	// mismatched row shapes are refused on the way out
	m := &Matrix{
		Rows:    [][]block.Elt{{0}},
		Indices: [][]uint32{{1, 2}},
	}
	//
	assert.Error(t, WriteMatrix(&buf, m))
}

func Test_PolyStream_01(t *testing.T) {
	var (
		ctx = filledContext(t)
		buf bytes.Buffer
	)
	//
	require.NoError(t, WritePolys(&buf, ctx.Store()))
	//
	st, err := ReadPolys(&buf)
	require.NoError(t, err)
	require.Equal(t, ctx.Store().Size(), st.Size())
	//
	for k := uint32(0); k < uint32(st.Size()); k++ {
		assert.True(t, st.Get(k).Equal(ctx.Store().Get(k)),
			"polynomial %d round-tripped to %s", k, st.Get(k))
	}
}

func Test_PolyStream_02(t *testing.T) {
	// entries past the seeded zero and one survive the round trip
	st := store.NewStore()
	//
	for _, p := range []poly.Poly{
		poly.NewPoly(1, 1),
		poly.Monomial(2, 5),
		poly.FromRun(3, []poly.Coeff{1, 0, 4}),
	} {
		_, err := st.Insert(p)
		require.NoError(t, err)
	}
	//
	var buf bytes.Buffer
	require.NoError(t, WritePolys(&buf, st))
	//
	got, err := ReadPolys(&buf)
	require.NoError(t, err)
	require.Equal(t, st.Size(), got.Size())
	//
	for k := store.KLIndex(0); k < store.KLIndex(st.Size()); k++ {
		assert.True(t, got.Get(k).Equal(st.Get(k)),
			"polynomial %d round-tripped to %s", k, got.Get(k))
	}
}

func Test_RoundTrip_01(t *testing.T) {
	// full pipeline: fill, persist both streams, reload, compare every
	// polynomial of the table
	var (
		ctx  = filledContext(t)
		m    Matrix
		mbuf bytes.Buffer
		pbuf bytes.Buffer
		bbuf bytes.Buffer
	)
	//
	for y := block.Elt(0); y < ctx.Size(); y++ {
		m.Rows = append(m.Rows, ctx.PrimitiveRow(y))
		m.Indices = append(m.Indices, ctx.Row(y))
	}
	//
	require.NoError(t, WriteBlock(&bbuf, testBlock(t)))
	require.NoError(t, WriteMatrix(&mbuf, &m))
	require.NoError(t, WritePolys(&pbuf, ctx.Store()))
	//
	blk, err := ReadBlock(&bbuf)
	require.NoError(t, err)
	//
	gm, err := ReadMatrix(&mbuf)
	require.NoError(t, err)
	//
	st, err := ReadPolys(&pbuf)
	require.NoError(t, err)
	// reconstruct P(x,y) for committed rows and compare against the live
	// context
	for y := block.Elt(0); y < blk.Size(); y++ {
		for i, x := range gm.Rows[y] {
			var (
				want = ctx.Poly(x, y)
				got  = st.Get(gm.Indices[y][i])
			)
			//
			assert.True(t, got.Equal(want), "P(%d,%d) reloaded as %s, expected %s", x, y, got, want)
		}
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func filledContext(t *testing.T) *kl.Context {
	t.Helper()
	//
	ctx := kl.NewContext(testBlock(t))
	require.NoError(t, ctx.Fill())
	// sanity check the fixture actually has content
	require.True(t, ctx.Poly(2, 2).Equal(poly.One()))
	//
	return ctx
}

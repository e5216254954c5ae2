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
package kl

import (
	"testing"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/poly"
	"github.com/atlas-reps/go-klv/pkg/store"
)

// pairBlock is the two-element block {e, w} joined by one complex generator.
func pairBlock(t *testing.T) *block.TableBlock {
	t.Helper()
	//
	blk, err := block.NewTableBlock(1,
		[]uint{0, 1},
		[]block.DescentStatus{block.ComplexAscent, block.ComplexDescent},
		[]block.Elt{1, 0}, nil)
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return blk
}

// chainBlock is the three-element block {e, s, sts} of rank two, mixing
// complex, imaginary type I and real nonparity statuses.
func chainBlock(t *testing.T) *block.TableBlock {
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
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return blk
}

// fourBlock is the rank two block {e, s, t, st} with every status complex.
func fourBlock(t *testing.T) *block.TableBlock {
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
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return blk
}

// sixBlock is the six-element rank two block {e, s, t, st, ts, sts} with every
// status complex and the cross actions acting by left multiplication.  The
// rows of st and ts carry a primitive element strictly below them, so filling
// it runs the two-term recursion and its mu-correction for real.
func sixBlock(t *testing.T) *block.TableBlock {
	t.Helper()
	//
	blk, err := block.NewTableBlock(2,
		[]uint{0, 1, 1, 2, 2, 3},
		[]block.DescentStatus{
			block.ComplexAscent, block.ComplexAscent,
			block.ComplexDescent, block.ComplexAscent,
			block.ComplexAscent, block.ComplexDescent,
			block.ComplexDescent, block.ComplexAscent,
			block.ComplexAscent, block.ComplexDescent,
			block.ComplexDescent, block.ComplexDescent,
		},
		[]block.Elt{
			1, 2,
			0, 4,
			3, 0,
			2, 5,
			5, 1,
			4, 3,
		}, nil)
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return blk
}

// compactBlock is a six-element rank two block whose middle element of each
// fibre has an imaginary-compact descent as its only descent, with inverse
// Cayley images pointing at the two length-zero elements.  The first
// generator never moves anything; the second joins the two fibres as a
// complex pair.
func compactBlock(t *testing.T) *block.TableBlock {
	t.Helper()
	//
	cayleys := make([]block.EltPair, 12)
	for i := range cayleys {
		cayleys[i] = block.EltPair{First: block.UndefinedElt, Second: block.UndefinedElt}
	}
	//
	cayleys[0] = block.EltPair{First: 2, Second: block.UndefinedElt}
	cayleys[2] = block.EltPair{First: 2, Second: block.UndefinedElt}
	cayleys[4] = block.EltPair{First: 0, Second: 1}
	cayleys[6] = block.EltPair{First: 5, Second: block.UndefinedElt}
	cayleys[8] = block.EltPair{First: 5, Second: block.UndefinedElt}
	cayleys[10] = block.EltPair{First: 3, Second: 4}
	//
	blk, err := block.NewTableBlock(2,
		[]uint{0, 0, 1, 1, 1, 2},
		[]block.DescentStatus{
			block.ImaginaryTypeII, block.ComplexAscent,
			block.ImaginaryTypeI, block.ComplexAscent,
			block.ImaginaryCompact, block.ComplexAscent,
			block.ImaginaryTypeII, block.ComplexDescent,
			block.ImaginaryTypeI, block.ComplexDescent,
			block.ImaginaryCompact, block.ComplexDescent,
		},
		[]block.Elt{
			0, 3,
			1, 4,
			2, 5,
			3, 0,
			4, 1,
			5, 2,
		}, cayleys)
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return blk
}

func Test_Fill_01(t *testing.T) {
	ctx := NewContext(pairBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	// both rows hold only the element itself
	check_Row(t, ctx, 0, []block.Elt{0})
	check_Row(t, ctx, 1, []block.Elt{1})
	// P(e,w) resolves to one through primitivization
	check_Poly(t, ctx, 0, 1, poly.One())
	check_Poly(t, ctx, 1, 1, poly.One())
	// only zero and one are ever stored
	if n := ctx.Store().Size(); n != 2 {
		t.Errorf("store holds %d polynomials, expected 2", n)
	}
	// mu(e,w) = 1
	check_Mu(t, ctx, 0, 1, 1)
}

func Test_Fill_02(t *testing.T) {
	ctx := NewContext(chainBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	for y := block.Elt(0); y < 3; y++ {
		check_Row(t, ctx, y, []block.Elt{y})
	}
	// every polynomial on or below the diagonal is one
	check_Poly(t, ctx, 0, 1, poly.One())
	check_Poly(t, ctx, 0, 2, poly.One())
	check_Poly(t, ctx, 1, 2, poly.One())
	//
	if n := ctx.Store().Size(); n != 2 {
		t.Errorf("store holds %d polynomials, expected 2", n)
	}
	// the mu chain e--s--sts
	check_Mu(t, ctx, 0, 1, 1)
	check_Mu(t, ctx, 1, 2, 1)
	check_Mu(t, ctx, 0, 2, 0)
}

func Test_Fill_03(t *testing.T) {
	ctx := NewContext(fourBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	// the descent sets of s and t rule each other out
	check_Poly(t, ctx, 1, 2, poly.Zero())
	check_Poly(t, ctx, 2, 1, poly.Zero())
	// everything along chains is one
	check_Poly(t, ctx, 0, 3, poly.One())
	check_Poly(t, ctx, 1, 3, poly.One())
	check_Poly(t, ctx, 2, 3, poly.One())
	// mu pairs at every covering
	check_Mu(t, ctx, 0, 1, 1)
	check_Mu(t, ctx, 0, 2, 1)
	check_Mu(t, ctx, 1, 3, 1)
	check_Mu(t, ctx, 2, 3, 1)
	check_Mu(t, ctx, 0, 3, 0)
}

func Test_Fill_04(t *testing.T) {
	// diagonal entries are always the one polynomial
	ctx := NewContext(fourBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	for y := block.Elt(0); y < ctx.Size(); y++ {
		check_Poly(t, ctx, y, y, poly.One())
		//
		if idx := ctx.PolyIndex(y, y); idx != store.One {
			t.Errorf("diagonal index of %d was %d", y, idx)
		}
	}
}

func Test_PrimMap_01(t *testing.T) {
	ctx := NewContext(fourBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	// every row of this block carries only its own element
	for y := block.Elt(0); y < ctx.Size(); y++ {
		bm := ctx.PrimMap(y)
		//
		if bm.Count() != 1 || !bm.Test(uint(y)) {
			t.Errorf("primitive map of %d was %v", y, bm)
		}
	}
}

func Test_Fill_05(t *testing.T) {
	// filling twice is a no-op
	ctx := NewContext(fourBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	size := ctx.Store().Size()
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	if ctx.Store().Size() != size {
		t.Errorf("second fill grew the store from %d to %d", size, ctx.Store().Size())
	}
	//
	if !ctx.IsFilled() {
		t.Errorf("context does not report itself filled")
	}
}

func Test_Fill_06(t *testing.T) {
	// degree bound: deg P(x,y) <= (l(y)-l(x)-1)/2
	ctx := NewContext(fourBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	for y := block.Elt(0); y < ctx.Size(); y++ {
		for x := block.Elt(0); x < y; x++ {
			var (
				p     = ctx.Poly(x, y)
				bound = int(ctx.Length(y)-ctx.Length(x)-1) / 2
			)
			//
			if p.Degree() > bound {
				t.Errorf("P(%d,%d) = %s exceeds degree bound %d", x, y, p, bound)
			}
		}
	}
}

func Test_Fill_07(t *testing.T) {
	// a single worker gives the same table as the default pool
	ctx := NewContext(fourBlock(t))
	ctx.SetThreads(1)
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	other := NewContext(fourBlock(t))
	other.SetThreads(4)
	//
	if err := other.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	for y := block.Elt(0); y < ctx.Size(); y++ {
		for x := block.Elt(0); x <= y; x++ {
			if !ctx.Poly(x, y).Equal(other.Poly(x, y)) {
				t.Errorf("thread counts disagree on P(%d,%d)", x, y)
			}
		}
	}
}

func Test_Fill_08(t *testing.T) {
	ctx := NewContext(sixBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	// s stays primitive in the row of st, and t in the row of ts
	check_Row(t, ctx, 3, []block.Elt{1, 3})
	check_Row(t, ctx, 4, []block.Elt{2, 4})
	check_Row(t, ctx, 5, []block.Elt{5})
	// the recursion first produces q+1 for these entries; the correction
	// indexed by the mu-table of the crossed row must cancel the q
	check_Poly(t, ctx, 1, 3, poly.One())
	check_Poly(t, ctx, 2, 4, poly.One())
	// non-primitive entries resolve through the cross action
	check_Poly(t, ctx, 0, 3, poly.One())
	check_Poly(t, ctx, 2, 3, poly.One())
	check_Poly(t, ctx, 1, 4, poly.One())
	// incomparable pairs vanish
	check_Poly(t, ctx, 1, 2, poly.Zero())
	check_Poly(t, ctx, 2, 1, poly.Zero())
	// the top row dominates everything
	for x := block.Elt(0); x < 5; x++ {
		check_Poly(t, ctx, x, 5, poly.One())
	}
	//
	if n := ctx.Store().Size(); n != 2 {
		t.Errorf("store holds %d polynomials, expected 2", n)
	}
	// mu pairs at every covering, and nowhere else
	check_Mu(t, ctx, 0, 1, 1)
	check_Mu(t, ctx, 0, 2, 1)
	check_Mu(t, ctx, 1, 3, 1)
	check_Mu(t, ctx, 2, 3, 1)
	check_Mu(t, ctx, 1, 4, 1)
	check_Mu(t, ctx, 2, 4, 1)
	check_Mu(t, ctx, 3, 5, 1)
	check_Mu(t, ctx, 4, 5, 1)
	check_Mu(t, ctx, 0, 3, 0)
}

func Test_Fill_09(t *testing.T) {
	ctx := NewContext(compactBlock(t))
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	// the imaginary-compact rows keep their type II partner primitive
	check_Row(t, ctx, 2, []block.Elt{0, 2})
	check_Row(t, ctx, 5, []block.Elt{3, 5})
	// the row of 2 has no direct recursion and resolves through the inverse
	// Cayley images {0, 1}
	check_Poly(t, ctx, 0, 2, poly.One())
	// the type I partner climbs to the diagonal instead
	check_Poly(t, ctx, 1, 2, poly.One())
	// upstairs the complex generator reduces, and the correction trims the
	// provisional q+1 back down
	check_Poly(t, ctx, 3, 5, poly.One())
	check_Poly(t, ctx, 2, 5, poly.One())
	check_Poly(t, ctx, 4, 5, poly.One())
	//
	if n := ctx.Store().Size(); n != 2 {
		t.Errorf("store holds %d polynomials, expected 2", n)
	}
	//
	check_Mu(t, ctx, 0, 2, 1)
	check_Mu(t, ctx, 0, 3, 1)
	check_Mu(t, ctx, 1, 4, 1)
	check_Mu(t, ctx, 3, 5, 1)
	check_Mu(t, ctx, 2, 5, 1)
}

func Test_Fill_10(t *testing.T) {
	// the degree bound holds on blocks whose rows need correcting
	for _, ctx := range []*Context{NewContext(sixBlock(t)), NewContext(compactBlock(t))} {
		if err := ctx.Fill(); err != nil {
			t.Fatal(err)
		}
		//
		for y := block.Elt(0); y < ctx.Size(); y++ {
			for x := block.Elt(0); x < y; x++ {
				var (
					p     = ctx.Poly(x, y)
					bound = int(ctx.Length(y)-ctx.Length(x)-1) / 2
				)
				//
				if p.Degree() > bound {
					t.Errorf("P(%d,%d) = %s exceeds degree bound %d", x, y, p, bound)
				}
			}
		}
	}
}

func Test_TwistedFill_01(t *testing.T) {
	blk, err := block.NewTableTwistedBlock(1,
		[]uint{0, 1},
		[]block.TwistedStatus{block.TwoComplexAscent, block.TwoComplexDescent},
		[]block.Elt{1, 0})
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	ctx := NewTwistedContext(blk)
	//
	if err := ctx.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	check_Poly(t, ctx, 0, 1, poly.One())
	check_Poly(t, ctx, 1, 1, poly.One())
}

func Test_TwistedConsistency_01(t *testing.T) {
	tblk, err := block.NewTableTwistedBlock(1,
		[]uint{0, 1},
		[]block.TwistedStatus{block.TwoComplexAscent, block.TwoComplexDescent},
		[]block.Elt{1, 0})
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	var (
		ord = NewContext(pairBlock(t))
		tw  = NewTwistedContext(tblk)
	)
	//
	if err := ord.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	if err := tw.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	identity := func(x block.Elt) block.Elt { return x }
	//
	if err := CheckTwistedConsistency(ord, tw, identity); err != nil {
		t.Error(err)
	}
}

func Test_TwistedConsistency_02(t *testing.T) {
	// an unfilled operand is rejected
	var (
		ord = NewContext(pairBlock(t))
		tw  *Context
	)
	//
	tblk, _ := block.NewTableTwistedBlock(1,
		[]uint{0, 1},
		[]block.TwistedStatus{block.TwoComplexAscent, block.TwoComplexDescent},
		[]block.Elt{1, 0})
	tw = NewTwistedContext(tblk)
	//
	if err := ord.Fill(); err != nil {
		t.Fatal(err)
	}
	//
	if err := CheckTwistedConsistency(ord, tw, func(x block.Elt) block.Elt { return x }); err == nil {
		t.Errorf("expected an error against an unfilled table")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Row(t *testing.T, ctx *Context, y block.Elt, expected []block.Elt) {
	t.Helper()
	//
	row := ctx.PrimitiveRow(y)
	//
	if len(row) != len(expected) {
		t.Errorf("row of %d was %v, expected %v", y, row, expected)
		return
	}
	//
	for i := range row {
		if row[i] != expected[i] {
			t.Errorf("row of %d was %v, expected %v", y, row, expected)
			return
		}
	}
	//
	if len(ctx.Row(y)) != len(row) {
		t.Errorf("index row of %d has %d entries against %d primitive elements",
			y, len(ctx.Row(y)), len(row))
	}
}

func check_Poly(t *testing.T, ctx *Context, x block.Elt, y block.Elt, expected poly.Poly) {
	t.Helper()
	//
	if p := ctx.Poly(x, y); !p.Equal(expected) {
		t.Errorf("P(%d,%d) = %s, expected %s", x, y, p, expected)
	}
}

func check_Mu(t *testing.T, ctx *Context, x block.Elt, y block.Elt, expected poly.Coeff) {
	t.Helper()
	//
	if mu := ctx.Mu(x, y); mu != expected {
		t.Errorf("mu(%d,%d) = %d, expected %d", x, y, mu, expected)
	}
}

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

// Package kl implements the recursive Kazhdan-Lusztig-Vogan fill algorithm:
// for every block element y, the polynomials P(x,y) against all primitive x,
// hash-consed into a shared store, together with the mu tables driving the
// recursion.  Both the ordinary (8-status) and twisted (4-status) engines are
// instantiations of the same Context over different descent schemes.
package kl

import (
	"errors"
	"runtime"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/poly"
	"github.com/atlas-reps/go-klv/pkg/store"
	"github.com/atlas-reps/go-klv/pkg/support"
)

// ErrInternal flags a violation of an invariant the recursion is
// mathematically guaranteed to maintain.  Such a failure indicates a bug in
// the block construction or in this package, never a data condition.
var ErrInternal = errors.New("internal consistency failure")

// MuPair records a block element together with the leading coefficient of its
// polynomial at the critical degree.
type MuPair struct {
	X     block.Elt
	Coeff poly.Coeff
}

// MuRow lists the non-zero mu coefficients recorded against one row.
type MuRow []MuPair

// rowSupport is the support functionality shared by both block flavours.
type rowSupport interface {
	Size() block.Elt
	Rank() uint
	Length(x block.Elt) uint
	Cross(s uint, x block.Elt) block.Elt
	DescentSet(x block.Elt) block.RankFlags
	LengthFloor(l uint) block.Elt
	Primitivize(x block.Elt, ds block.RankFlags) block.Elt
	PrimitiveRow(y block.Elt) []block.Elt
}

// scheme parameterises the engine over a descent-status enumeration.  The
// ordinary and twisted engines differ only in what this interface supplies.
type scheme interface {
	rowSupport
	// ReducingGenerator selects a direct-recursion descent of y whose
	// recursion image lies in a strictly lower length class, together with
	// that image.  The first matching generator wins, which keeps the fill
	// deterministic.
	ReducingGenerator(y block.Elt) (s uint, sy block.Elt, ok bool)
	// CompactImages returns the inverse images of y through an
	// imaginary-compact descent, when the direct recursion is unavailable.
	CompactImages(y block.Elt) ([]block.Elt, bool)
	// MuDegLow is the correction degree threshold applied when the crossed
	// mu partner drops in length.
	MuDegLow(diff uint) uint
	// MuDegHigh is the correction degree threshold applied in the remaining
	// correction passes.
	MuDegHigh(diff uint) uint
}

// Context owns everything one fill computes over: the derived block support,
// the polynomial store, the per-row index lists and the mu tables.  Multiple
// independent contexts (for example an ordinary and a twisted one) may
// coexist; there is no package-level state.
type Context struct {
	sch scheme
	st  *store.Store
	// primitive elements of each committed row
	prim [][]block.Elt
	// polynomial indices of each committed row, parallel to prim
	rows [][]store.KLIndex
	// odd-length-difference mu coefficients
	mu []MuRow
	// even-length-difference mu coefficients
	muBar []MuRow
	// worker pool width for each length class
	threads uint
	// set once every row has been committed
	filled bool
}

// NewContext builds an engine over an ordinary block.
func NewContext(blk block.Block) *Context {
	return newContext(&ordinaryScheme{support.NewSupport(blk)})
}

// NewTwistedContext builds an engine over a symmetry-fixed block.
func NewTwistedContext(blk block.TwistedBlock) *Context {
	return newContext(&twistedScheme{support.NewTwistedSupport(blk)})
}

func newContext(sch scheme) *Context {
	n := sch.Size()
	//
	return &Context{
		sch:     sch,
		st:      store.NewStore(),
		prim:    make([][]block.Elt, n),
		rows:    make([][]store.KLIndex, n),
		mu:      make([]MuRow, n),
		muBar:   make([]MuRow, n),
		threads: uint(runtime.NumCPU()),
	}
}

// SetThreads fixes the worker-pool width used within each length class.
func (p *Context) SetThreads(n uint) {
	p.threads = max(n, 1)
}

// Size returns the number of block elements.
func (p *Context) Size() block.Elt {
	return p.sch.Size()
}

// Rank returns the number of simple generators.
func (p *Context) Rank() uint {
	return p.sch.Rank()
}

// Length returns the length of element x.
func (p *Context) Length(x block.Elt) uint {
	return p.sch.Length(x)
}

// DescentSet returns the descent set of element x.
func (p *Context) DescentSet(x block.Elt) block.RankFlags {
	return p.sch.DescentSet(x)
}

// IsFilled reports whether Fill has completed.
func (p *Context) IsFilled() bool {
	return p.filled
}

// Store exposes the polynomial store backing this context.
func (p *Context) Store() *store.Store {
	return p.st
}

// PrimitiveRow returns the primitive elements of the committed row for y,
// ending with y itself.
func (p *Context) PrimitiveRow(y block.Elt) []block.Elt {
	return p.prim[y]
}

// Row returns the polynomial indices of the committed row for y, parallel to
// PrimitiveRow.
func (p *Context) Row(y block.Elt) []store.KLIndex {
	return p.rows[y]
}

// MuRow returns the odd-length-difference mu coefficients recorded for y.
func (p *Context) MuRow(y block.Elt) MuRow {
	return p.mu[y]
}

// MuBarRow returns the even-length-difference companion table for y.
func (p *Context) MuBarRow(y block.Elt) MuRow {
	return p.muBar[y]
}

// Mu returns the mu coefficient of the pair (x,y), or zero when none was
// recorded.
func (p *Context) Mu(x block.Elt, y block.Elt) poly.Coeff {
	for _, m := range p.mu[y] {
		if m.X == x {
			return m.Coeff
		}
	}
	//
	return 0
}

// PolyIndex returns the store index of P(x,y), primitivizing x as necessary.
// Non-primitive x with no surviving projection, or x above y, yield the Zero
// index.
func (p *Context) PolyIndex(x block.Elt, y block.Elt) store.KLIndex {
	x = p.sch.Primitivize(x, p.sch.DescentSet(y))
	//
	if x == block.UndefinedElt || x > y {
		return store.Zero
	}
	//
	var (
		prow = p.prim[y]
		i    = sort.Search(len(prow), func(i int) bool { return prow[i] >= x })
	)
	//
	if i >= len(prow) || prow[i] != x {
		return store.Zero
	}
	//
	return p.rows[y][i]
}

// Poly returns the polynomial P(x,y).  The returned value is a read-only view
// into the store.
func (p *Context) Poly(x block.Elt, y block.Elt) poly.Poly {
	return p.st.Get(p.PolyIndex(x, y))
}

// PrimMap returns the bitmap of primitive elements of the row for y whose
// polynomial is non-zero, which is what a sparse matrix writer wants to
// enumerate.
func (p *Context) PrimMap(y block.Elt) *bitset.BitSet {
	bm := bitset.New(uint(p.sch.Size()))
	//
	for i, x := range p.prim[y] {
		if p.rows[y][i] != store.Zero {
			bm.Set(uint(x))
		}
	}
	//
	return bm
}

// lookup is the recursion-time variant of Poly: it requires the target row to
// be committed already, since the fill only ever reads strictly smaller
// lengths (or the row being finalised).  A read of an uncommitted row is a
// logic error.
func (p *Context) lookup(x block.Elt, y block.Elt) poly.Poly {
	if p.rows[y] == nil {
		panic("dependency read of an unfilled row")
	}
	//
	return p.st.Get(p.PolyIndex(x, y))
}

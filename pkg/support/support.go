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

// Package support derives, once per block, the cached data the fill recursion
// consults constantly: per-element descent and good-ascent sets, per-generator
// downset bitmaps, the partition of elements by length, and the
// primitivization routines built from all of these.
package support

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/atlas-reps/go-klv/pkg/block"
)

// Support holds the derived per-block data for an ordinary (8-status) block.
// It is built once from an immutable Block and never mutated afterwards.
type Support struct {
	blk block.Block
	// generators which are descents for each element
	descent []block.RankFlags
	// ascents through which primitivization may step (everything except
	// imaginary type II, whose Cayley image is double-valued)
	goodAscent []block.RankFlags
	// downset[s] flags elements having generator s as a descent
	downset []*bitset.BitSet
	// primset[s] additionally admits elements with s imaginary type II,
	// since those survive the ascent-removal filter
	primset []*bitset.BitSet
	// lengthFloor[l] is the first element of length >= l
	lengthFloor []block.Elt
}

// NewSupport builds the support data by a single scan per generator.  The
// block must already have passed structural validation.
func NewSupport(blk block.Block) *Support {
	var (
		n    = blk.Size()
		rank = blk.Rank()
		p    = &Support{
			blk:         blk,
			descent:     make([]block.RankFlags, n),
			goodAscent:  make([]block.RankFlags, n),
			downset:     make([]*bitset.BitSet, rank),
			primset:     make([]*bitset.BitSet, rank),
			lengthFloor: lengthBoundaries(blk.Size(), blk.Length),
		}
	)
	//
	for s := uint(0); s < rank; s++ {
		p.downset[s] = bitset.New(uint(n))
		p.primset[s] = bitset.New(uint(n))
		//
		for x := block.Elt(0); x < n; x++ {
			v := blk.DescentValue(s, x)
			//
			if v.IsDescent() {
				p.downset[s].Set(uint(x))
				p.primset[s].Set(uint(x))
				p.descent[x] = p.descent[x].Set(s)
			} else {
				if v == block.ImaginaryTypeII {
					p.primset[s].Set(uint(x))
				}
				//
				if v.IsGoodAscent() {
					p.goodAscent[x] = p.goodAscent[x].Set(s)
				}
			}
		}
	}
	//
	return p
}

// Block returns the underlying block.
func (p *Support) Block() block.Block {
	return p.blk
}

// Size returns the number of block elements.
func (p *Support) Size() block.Elt {
	return p.blk.Size()
}

// Rank returns the number of simple generators.
func (p *Support) Rank() uint {
	return p.blk.Rank()
}

// Length returns the length of element x.
func (p *Support) Length(x block.Elt) uint {
	return p.blk.Length(x)
}

// Cross applies the cross action of generator s to x.
func (p *Support) Cross(s uint, x block.Elt) block.Elt {
	return p.blk.Cross(s, x)
}

// DescentSet returns the set of generators which are descents for x.
func (p *Support) DescentSet(x block.Elt) block.RankFlags {
	return p.descent[x]
}

// GoodAscentSet returns the ascents of x through which primitivization may
// step.
func (p *Support) GoodAscentSet(x block.Elt) block.RankFlags {
	return p.goodAscent[x]
}

// LengthFloor returns the first element of length at least l.  Arguments up
// to maxLength+1 are valid; the latter yields the block size.
func (p *Support) LengthFloor(l uint) block.Elt {
	return p.lengthFloor[l]
}

// Downset returns the bitmap of elements having generator s as a descent.
// The returned set is shared and must not be mutated.
func (p *Support) Downset(s uint) *bitset.BitSet {
	return p.downset[s]
}

// PrimitivizeMap filters the candidate bitmap down to elements primitive for
// the given descent set, by intersecting with the primitive set of every
// generator in it.
func (p *Support) PrimitivizeMap(bm *bitset.BitSet, ds block.RankFlags) {
	for s := uint(0); s < p.Rank(); s++ {
		if ds.Test(s) {
			bm.InPlaceIntersection(p.primset[s])
		}
	}
}

// Primitivize projects x to its primitivization with respect to the descent
// set ds, following good ascents until none remain in ds.  Complex ascents
// step through the cross action, imaginary type I ascents through the Cayley
// transform; hitting a real nonparity ascent means the polynomial against any
// such row is zero, reported as UndefinedElt.  Each step strictly increases
// length, which bounds the iteration by the block size.
func (p *Support) Primitivize(x block.Elt, ds block.RankFlags) block.Elt {
	for a := ds.And(p.goodAscent[x]); a.Any(); a = ds.And(p.goodAscent[x]) {
		s := a.FirstBit()
		//
		switch p.blk.DescentValue(s, x) {
		case block.ComplexAscent:
			x = p.blk.Cross(s, x)
		case block.ImaginaryTypeI:
			x = p.blk.Cayley(s, x).First
		default: // real nonparity
			return block.UndefinedElt
		}
	}
	//
	return x
}

// PrimitiveRow lists, in increasing order, the elements of length smaller
// than y which are primitive for the descent set of y, followed by y itself.
func (p *Support) PrimitiveRow(y block.Elt) []block.Elt {
	bm := bitset.New(uint(p.Size()))
	bm.FlipRange(0, uint(p.lengthFloor[p.Length(y)]))
	//
	p.PrimitivizeMap(bm, p.descent[y])
	//
	row := make([]block.Elt, 0, bm.Count()+1)
	//
	for x, ok := bm.NextSet(0); ok; x, ok = bm.NextSet(x + 1) {
		row = append(row, block.Elt(x))
	}
	//
	return append(row, y)
}

// lengthBoundaries builds the first-element-of-length table shared by both
// support flavours.  Not every length between 0 and the maximum need occur.
func lengthBoundaries(n block.Elt, length func(block.Elt) uint) []block.Elt {
	var (
		maxlen  = length(n - 1)
		floors  = make([]block.Elt, maxlen+2)
		currlen = uint(0)
	)
	//
	for x := block.Elt(1); x < n; x++ {
		for xlen := length(x); xlen > currlen; {
			currlen++
			floors[currlen] = x
		}
	}
	//
	floors[currlen+1] = n
	// flatten any trailing unreached slots
	for l := currlen + 2; l < uint(len(floors)); l++ {
		floors[l] = n
	}
	//
	return floors
}

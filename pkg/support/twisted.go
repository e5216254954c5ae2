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
package support

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/atlas-reps/go-klv/pkg/block"
)

// TwistedSupport is the symmetry-fixed counterpart of Support.  With only
// four descent statuses there are no double-valued ascents, so the
// good-ascent set is simply the ascent set and primitivization steps through
// the cross action alone.
type TwistedSupport struct {
	blk         block.TwistedBlock
	descent     []block.RankFlags
	ascent      []block.RankFlags
	downset     []*bitset.BitSet
	lengthFloor []block.Elt
}

// NewTwistedSupport builds the support data for a twisted block by a single
// scan per generator.
func NewTwistedSupport(blk block.TwistedBlock) *TwistedSupport {
	var (
		n    = blk.Size()
		rank = blk.Rank()
		p    = &TwistedSupport{
			blk:         blk,
			descent:     make([]block.RankFlags, n),
			ascent:      make([]block.RankFlags, n),
			downset:     make([]*bitset.BitSet, rank),
			lengthFloor: lengthBoundaries(blk.Size(), blk.Length),
		}
	)
	//
	for s := uint(0); s < rank; s++ {
		p.downset[s] = bitset.New(uint(n))
		//
		for x := block.Elt(0); x < n; x++ {
			if blk.StatusOf(s, x).IsDescent() {
				p.downset[s].Set(uint(x))
				p.descent[x] = p.descent[x].Set(s)
			} else {
				p.ascent[x] = p.ascent[x].Set(s)
			}
		}
	}
	//
	return p
}

// Block returns the underlying twisted block.
func (p *TwistedSupport) Block() block.TwistedBlock {
	return p.blk
}

// Size returns the number of block elements.
func (p *TwistedSupport) Size() block.Elt {
	return p.blk.Size()
}

// Rank returns the number of simple generators.
func (p *TwistedSupport) Rank() uint {
	return p.blk.Rank()
}

// Length returns the length of element x.
func (p *TwistedSupport) Length(x block.Elt) uint {
	return p.blk.Length(x)
}

// Cross applies the cross action of generator s to x.
func (p *TwistedSupport) Cross(s uint, x block.Elt) block.Elt {
	return p.blk.Cross(s, x)
}

// DescentSet returns the set of generators which are descents for x.
func (p *TwistedSupport) DescentSet(x block.Elt) block.RankFlags {
	return p.descent[x]
}

// GoodAscentSet returns the ascents of x.
func (p *TwistedSupport) GoodAscentSet(x block.Elt) block.RankFlags {
	return p.ascent[x]
}

// LengthFloor returns the first element of length at least l.
func (p *TwistedSupport) LengthFloor(l uint) block.Elt {
	return p.lengthFloor[l]
}

// Downset returns the bitmap of elements having generator s as a descent.
func (p *TwistedSupport) Downset(s uint) *bitset.BitSet {
	return p.downset[s]
}

// PrimitivizeMap filters the candidate bitmap down to elements primitive for
// the given descent set.
func (p *TwistedSupport) PrimitivizeMap(bm *bitset.BitSet, ds block.RankFlags) {
	for s := uint(0); s < p.Rank(); s++ {
		if ds.Test(s) {
			bm.InPlaceIntersection(p.downset[s])
		}
	}
}

// Primitivize follows ascents of ds until x is primitive for it.  Every step
// strictly increases length, bounding the iteration.
func (p *TwistedSupport) Primitivize(x block.Elt, ds block.RankFlags) block.Elt {
	for a := ds.And(p.ascent[x]); a.Any(); a = ds.And(p.ascent[x]) {
		x = p.blk.Cross(a.FirstBit(), x)
	}
	//
	return x
}

// PrimitiveRow lists, in increasing order, the elements of length smaller
// than y primitive for the descent set of y, followed by y itself.
func (p *TwistedSupport) PrimitiveRow(y block.Elt) []block.Elt {
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

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
package block

import (
	"errors"
	"fmt"
	"math"
)

// Elt identifies a block element by its position in the length-sorted
// enumeration of the block.  Comparisons and arithmetic on elements are by
// index only; the ordering agrees with non-decreasing length by construction.
type Elt = uint32

// UndefinedElt is the sentinel for a missing cross-action or Cayley-transform
// target (for example, the second Cayley image in a type I situation).
const UndefinedElt Elt = math.MaxUint32

// EltPair holds the (up to two) images of a Cayley transform.  Absent images
// hold UndefinedElt.
type EltPair struct {
	First  Elt
	Second Elt
}

// ErrMalformedBlock flags a block whose tables violate the structural
// preconditions of the fill recursion (non-monotone lengths, non-involutive
// cross actions, out-of-range targets).  The recursion's correctness depends
// on these preconditions, so construction fails outright rather than
// degrading.
var ErrMalformedBlock = errors.New("malformed block")

// Block is the external collaborator supplying the ordered parameter set the
// engine computes over.  Implementations must present elements 0..Size()-1 in
// non-decreasing length order and keep all tables immutable once handed over.
type Block interface {
	// Size returns the number of block elements.
	Size() Elt
	// Rank returns the number of simple generators.
	Rank() uint
	// Length returns the length of element x.
	Length(x Elt) uint
	// DescentValue classifies generator s against element x.
	DescentValue(s uint, x Elt) DescentStatus
	// Cross returns the cross action of generator s on x.
	Cross(s uint, x Elt) Elt
	// Cayley returns the Cayley transform image(s) of x through s, with
	// UndefinedElt filling absent images.
	Cayley(s uint, x Elt) EltPair
}

// TwistedBlock is the symmetry-fixed counterpart of Block: only elements
// fixed by an extra involution are retained, and the descent classification
// collapses to four cases.
type TwistedBlock interface {
	// Size returns the number of fixed elements.
	Size() Elt
	// Rank returns the number of folded simple generators.
	Rank() uint
	// Length returns the length of element x (inherited from the ambient
	// block).
	Length(x Elt) uint
	// StatusOf classifies generator s against element x.
	StatusOf(s uint, x Elt) TwistedStatus
	// Cross returns the cross action of generator s on x.
	Cross(s uint, x Elt) Elt
}

// TableBlock is a Block backed by explicit tables, as produced by the binary
// block description stream or assembled directly in tests.
type TableBlock struct {
	rank    uint
	lengths []uint
	// statuses[x*rank+s] classifies generator s against element x.
	statuses []DescentStatus
	// crosses[x*rank+s] is the cross action of s on x.
	crosses []Elt
	// cayleys[x*rank+s] are the Cayley images of x through s.
	cayleys []EltPair
}

// NewTableBlock validates the supplied tables and wraps them as a Block.  All
// slices are indexed by x*rank+s.  Violated preconditions yield an error
// wrapping ErrMalformedBlock; a nil cayleys slice is treated as everywhere
// undefined.
func NewTableBlock(rank uint, lengths []uint, statuses []DescentStatus,
	crosses []Elt, cayleys []EltPair) (*TableBlock, error) {
	var n = uint(len(lengths))
	//
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("%w: rank %d out of range", ErrMalformedBlock, rank)
	} else if n == 0 || n > uint(UndefinedElt) {
		return nil, fmt.Errorf("%w: block size %d out of range", ErrMalformedBlock, n)
	} else if uint(len(statuses)) != n*rank || uint(len(crosses)) != n*rank {
		return nil, fmt.Errorf("%w: table size disagrees with %d elements of rank %d",
			ErrMalformedBlock, n, rank)
	}
	//
	if cayleys == nil {
		cayleys = make([]EltPair, n*rank)
		for i := range cayleys {
			cayleys[i] = EltPair{UndefinedElt, UndefinedElt}
		}
	} else if uint(len(cayleys)) != n*rank {
		return nil, fmt.Errorf("%w: cayley table size disagrees with %d elements of rank %d",
			ErrMalformedBlock, n, rank)
	}
	//
	blk := &TableBlock{rank, lengths, statuses, crosses, cayleys}
	// Check structural preconditions
	if err := blk.validate(); err != nil {
		return nil, err
	}
	//
	return blk, nil
}

// Size implementation for the Block interface.
func (p *TableBlock) Size() Elt {
	return Elt(len(p.lengths))
}

// Rank implementation for the Block interface.
func (p *TableBlock) Rank() uint {
	return p.rank
}

// Length implementation for the Block interface.
func (p *TableBlock) Length(x Elt) uint {
	return p.lengths[x]
}

// DescentValue implementation for the Block interface.
func (p *TableBlock) DescentValue(s uint, x Elt) DescentStatus {
	return p.statuses[uint(x)*p.rank+s]
}

// Cross implementation for the Block interface.
func (p *TableBlock) Cross(s uint, x Elt) Elt {
	return p.crosses[uint(x)*p.rank+s]
}

// Cayley implementation for the Block interface.
func (p *TableBlock) Cayley(s uint, x Elt) EltPair {
	return p.cayleys[uint(x)*p.rank+s]
}

// validate checks the structural preconditions on which the fill recursion
// relies: lengths sorted, element 0 of length 0, cross actions involutive and
// in range, Cayley targets in range.
func (p *TableBlock) validate() error {
	var n = p.Size()
	//
	if p.lengths[0] != 0 {
		return fmt.Errorf("%w: first element has length %d", ErrMalformedBlock, p.lengths[0])
	}
	//
	for x := Elt(1); x < n; x++ {
		if p.lengths[x] < p.lengths[x-1] {
			return fmt.Errorf("%w: lengths decrease at element %d", ErrMalformedBlock, x)
		}
	}
	//
	for x := Elt(0); x < n; x++ {
		for s := uint(0); s < p.rank; s++ {
			sx := p.Cross(s, x)
			//
			if sx >= n {
				return fmt.Errorf("%w: cross(%d,%d) out of range", ErrMalformedBlock, s, x)
			} else if p.Cross(s, sx) != x {
				return fmt.Errorf("%w: cross(%d,-) not involutive at element %d",
					ErrMalformedBlock, s, x)
			}
			//
			pair := p.Cayley(s, x)
			if pair.First != UndefinedElt && pair.First >= n {
				return fmt.Errorf("%w: cayley(%d,%d) out of range", ErrMalformedBlock, s, x)
			} else if pair.Second != UndefinedElt && pair.Second >= n {
				return fmt.Errorf("%w: cayley(%d,%d) out of range", ErrMalformedBlock, s, x)
			} else if pair.First == UndefinedElt && pair.Second != UndefinedElt {
				return fmt.Errorf("%w: cayley(%d,%d) has second image only",
					ErrMalformedBlock, s, x)
			}
		}
	}
	//
	return nil
}

// TableTwistedBlock is a TwistedBlock backed by explicit tables.
type TableTwistedBlock struct {
	rank     uint
	lengths  []uint
	statuses []TwistedStatus
	crosses  []Elt
}

// NewTableTwistedBlock validates the supplied tables and wraps them as a
// TwistedBlock.  Slices are indexed by x*rank+s.
func NewTableTwistedBlock(rank uint, lengths []uint, statuses []TwistedStatus,
	crosses []Elt) (*TableTwistedBlock, error) {
	var n = uint(len(lengths))
	//
	if rank == 0 || rank > MaxRank {
		return nil, fmt.Errorf("%w: rank %d out of range", ErrMalformedBlock, rank)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrMalformedBlock)
	} else if uint(len(statuses)) != n*rank || uint(len(crosses)) != n*rank {
		return nil, fmt.Errorf("%w: table size disagrees with %d elements of rank %d",
			ErrMalformedBlock, n, rank)
	} else if lengths[0] != 0 {
		return nil, fmt.Errorf("%w: first element has length %d", ErrMalformedBlock, lengths[0])
	}
	//
	for x := uint(1); x < n; x++ {
		if lengths[x] < lengths[x-1] {
			return nil, fmt.Errorf("%w: lengths decrease at element %d", ErrMalformedBlock, x)
		}
	}
	//
	for x := Elt(0); x < Elt(n); x++ {
		for s := uint(0); s < rank; s++ {
			sx := crosses[uint(x)*rank+s]
			//
			if uint(sx) >= n {
				return nil, fmt.Errorf("%w: cross(%d,%d) out of range", ErrMalformedBlock, s, x)
			} else if crosses[uint(sx)*rank+s] != x {
				return nil, fmt.Errorf("%w: cross(%d,-) not involutive at element %d",
					ErrMalformedBlock, s, x)
			}
		}
	}
	//
	return &TableTwistedBlock{rank, lengths, statuses, crosses}, nil
}

// Size implementation for the TwistedBlock interface.
func (p *TableTwistedBlock) Size() Elt {
	return Elt(len(p.lengths))
}

// Rank implementation for the TwistedBlock interface.
func (p *TableTwistedBlock) Rank() uint {
	return p.rank
}

// Length implementation for the TwistedBlock interface.
func (p *TableTwistedBlock) Length(x Elt) uint {
	return p.lengths[x]
}

// StatusOf implementation for the TwistedBlock interface.
func (p *TableTwistedBlock) StatusOf(s uint, x Elt) TwistedStatus {
	return p.statuses[uint(x)*p.rank+s]
}

// Cross implementation for the TwistedBlock interface.
func (p *TableTwistedBlock) Cross(s uint, x Elt) Elt {
	return p.crosses[uint(x)*p.rank+s]
}

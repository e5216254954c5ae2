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
	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/support"
)

// ordinaryScheme drives the engine over the eight-status descent
// classification.  Direct recursion is available through complex descents
// (cross action, length drop one) and real type I descents (inverse Cayley
// image); when neither exists the imaginary-compact inversion takes over.
type ordinaryScheme struct {
	*support.Support
}

// ReducingGenerator implementation for the scheme interface.
func (p *ordinaryScheme) ReducingGenerator(y block.Elt) (uint, block.Elt, bool) {
	var (
		blk  = p.Block()
		ylen = p.Length(y)
	)
	//
	for s := uint(0); s < p.Rank(); s++ {
		if !blk.DescentValue(s, y).IsDirectRecursion() {
			continue
		}
		// complex descent: the cross image drops in length
		if sy := blk.Cross(s, y); p.Length(sy) < ylen {
			return s, sy, true
		}
		// real type I: the cross action fixes y, the Cayley image drops
		if pair := blk.Cayley(s, y); pair.First != block.UndefinedElt && p.Length(pair.First) < ylen {
			return s, pair.First, true
		}
	}
	//
	return 0, block.UndefinedElt, false
}

// CompactImages implementation for the scheme interface: the inverse Cayley
// images of y through its first imaginary-compact descent, when one exists.
func (p *ordinaryScheme) CompactImages(y block.Elt) ([]block.Elt, bool) {
	blk := p.Block()
	//
	for s := uint(0); s < p.Rank(); s++ {
		if blk.DescentValue(s, y) != block.ImaginaryCompact {
			continue
		}
		//
		pair := blk.Cayley(s, y)
		if pair.First == block.UndefinedElt {
			continue
		}
		//
		if pair.Second == block.UndefinedElt {
			return []block.Elt{pair.First}, true
		}
		//
		return []block.Elt{pair.First, pair.Second}, true
	}
	//
	return nil, false
}

// MuDegLow implementation for the scheme interface.
func (p *ordinaryScheme) MuDegLow(diff uint) uint {
	return (diff + 1) / 2
}

// MuDegHigh implementation for the scheme interface.
func (p *ordinaryScheme) MuDegHigh(diff uint) uint {
	return (diff + 2) / 2
}

// twistedScheme drives the engine over the four-status twisted
// classification.  Every descent is direct recursion there, but only
// generators whose cross image drops below the previous length class reduce
// the row; rows without one have no primitive elements at all.
type twistedScheme struct {
	*support.TwistedSupport
}

// ReducingGenerator implementation for the scheme interface.
func (p *twistedScheme) ReducingGenerator(y block.Elt) (uint, block.Elt, bool) {
	ylen := p.Length(y)
	//
	if ylen == 0 {
		return 0, block.UndefinedElt, false
	}
	// first element of the previous length class
	ymax := p.LengthFloor(ylen - 1)
	//
	for s := uint(0); s < p.Rank(); s++ {
		if !p.DescentSet(y).Test(s) {
			continue
		}
		//
		if sy := p.Cross(s, y); sy < ymax {
			return s, sy, true
		}
	}
	//
	return 0, block.UndefinedElt, false
}

// CompactImages implementation for the scheme interface.  The twisted
// classification has no imaginary-compact status.
func (p *twistedScheme) CompactImages(block.Elt) ([]block.Elt, bool) {
	return nil, false
}

// MuDegLow implementation for the scheme interface.
func (p *twistedScheme) MuDegLow(diff uint) uint {
	return (diff + 1) / 2
}

// MuDegHigh implementation for the scheme interface.
func (p *twistedScheme) MuDegHigh(diff uint) uint {
	return (diff + 2) / 2
}

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

import "fmt"

// DescentStatus classifies the relationship between a simple generator and a
// block element.  There are exactly eight possibilities: four ascents followed
// by four descents.  The numbering matters, both for the binary block
// description format and because the two "direct recursion" statuses
// (ComplexDescent and RealTypeI) drive the cheapest case of the fill
// recursion.
type DescentStatus uint8

// The eight descent statuses.  Values 0 through 3 are ascents, values 4
// through 7 are descents.
const (
	ComplexAscent DescentStatus = iota
	RealNonparity
	ImaginaryTypeI
	ImaginaryTypeII
	ImaginaryCompact
	ComplexDescent
	RealTypeII
	RealTypeI
)

// IsDescent reports whether this status marks the generator as a descent.  The
// generators passing this test comprise the tau invariant of the element.
func (v DescentStatus) IsDescent() bool {
	switch v {
	case ImaginaryCompact, ComplexDescent, RealTypeII, RealTypeI:
		return true
	case ComplexAscent, RealNonparity, ImaginaryTypeI, ImaginaryTypeII:
		return false
	}
	//
	panic(fmt.Sprintf("invalid descent status %d", v))
}

// IsDirectRecursion reports whether this status admits the simple two-term
// recursion formula for the KLV element.
func (v DescentStatus) IsDirectRecursion() bool {
	return v == ComplexDescent || v == RealTypeI
}

// IsGoodAscent reports whether this status is an ascent usable for
// primitivization.  Imaginary type II ascents are excluded, since following
// them does not determine the polynomial uniquely.
func (v DescentStatus) IsGoodAscent() bool {
	switch v {
	case ComplexAscent, RealNonparity, ImaginaryTypeI:
		return true
	default:
		return false
	}
}

func (v DescentStatus) String() string {
	switch v {
	case ComplexAscent:
		return "C+"
	case RealNonparity:
		return "rn"
	case ImaginaryTypeI:
		return "i1"
	case ImaginaryTypeII:
		return "i2"
	case ImaginaryCompact:
		return "ic"
	case ComplexDescent:
		return "C-"
	case RealTypeII:
		return "r2"
	case RealTypeI:
		return "r1"
	}
	//
	return fmt.Sprintf("DescentStatus(%d)", uint8(v))
}

// TwistedStatus classifies generators against elements of a symmetry-fixed
// sub-block.  The complex/real distinctions of the ordinary classification
// collapse under the extra involution, leaving four cases: two ascents
// followed by two descents.
type TwistedStatus uint8

// The four twisted statuses.
const (
	TwoComplexAscent TwistedStatus = iota
	TwoSemiImaginary
	TwoComplexDescent
	TwoSemiReal
)

// IsDescent reports whether this twisted status is a descent.
func (v TwistedStatus) IsDescent() bool {
	return v == TwoComplexDescent || v == TwoSemiReal
}

// IsDirectRecursion reports whether this twisted status admits the two-term
// recursion.  Every twisted descent does.
func (v TwistedStatus) IsDirectRecursion() bool {
	return v.IsDescent()
}

func (v TwistedStatus) String() string {
	switch v {
	case TwoComplexAscent:
		return "2C+"
	case TwoSemiImaginary:
		return "2si"
	case TwoComplexDescent:
		return "2C-"
	case TwoSemiReal:
		return "2sr"
	}
	//
	return fmt.Sprintf("TwistedStatus(%d)", uint8(v))
}

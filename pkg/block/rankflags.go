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
	"fmt"
	"math/bits"
	"strings"
)

// MaxRank bounds the number of simple generators a block may carry.  The
// binary block description format records descent sets as 32-bit masks, so
// this bound is part of the external contract, not just an implementation
// convenience.
const MaxRank = 32

// RankFlags is a set of simple generators, packed into a single word.  Unlike
// the block-sized bitmaps held by the support structures, these sets never
// exceed MaxRank bits, so a value type is the right representation.
type RankFlags uint32

// Test reports whether generator s is in the set.
func (f RankFlags) Test(s uint) bool {
	return f&(1<<s) != 0
}

// Set returns the set with generator s added.
func (f RankFlags) Set(s uint) RankFlags {
	return f | (1 << s)
}

// Any reports whether the set is non-empty.
func (f RankFlags) Any() bool {
	return f != 0
}

// And intersects two sets.
func (f RankFlags) And(other RankFlags) RankFlags {
	return f & other
}

// AndNot removes the elements of other from this set.
func (f RankFlags) AndNot(other RankFlags) RankFlags {
	return f &^ other
}

// Count returns the number of generators in the set.
func (f RankFlags) Count() uint {
	return uint(bits.OnesCount32(uint32(f)))
}

// FirstBit returns the smallest generator in the set, which must be
// non-empty.
func (f RankFlags) FirstBit() uint {
	if f == 0 {
		panic("first bit of empty generator set")
	}
	//
	return uint(bits.TrailingZeros32(uint32(f)))
}

// ContainedIn reports whether every generator of this set also lies in other.
func (f RankFlags) ContainedIn(other RankFlags) bool {
	return f&^other == 0
}

func (f RankFlags) String() string {
	var (
		builder strings.Builder
		first   = true
	)
	//
	builder.WriteString("{")
	//
	for s := uint(0); s < MaxRank; s++ {
		if f.Test(s) {
			if !first {
				builder.WriteString(",")
			}
			//
			first = false
			//
			builder.WriteString(fmt.Sprintf("%d", s))
		}
	}
	//
	builder.WriteString("}")
	//
	return builder.String()
}

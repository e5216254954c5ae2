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
	"fmt"

	"github.com/atlas-reps/go-klv/pkg/block"
)

// CheckTwistedConsistency validates a twisted table against the ordinary one
// it folds into.  For every pair (x,y) of the twisted block and every degree,
// the unsigned twisted coefficient must not exceed the ordinary coefficient
// of the embedded pair, and their difference must be even.  The embedding
// maps twisted elements to their ambient counterparts.
func CheckTwistedConsistency(ord *Context, tw *Context, embed func(block.Elt) block.Elt) error {
	if !ord.IsFilled() || !tw.IsFilled() {
		return fmt.Errorf("%w: consistency check against an unfilled table", ErrInternal)
	}
	//
	for y := block.Elt(0); y < tw.Size(); y++ {
		for x := block.Elt(0); x <= y; x++ {
			var (
				tp = tw.Poly(x, y)
				op = ord.Poly(embed(x), embed(y))
			)
			//
			deg := max(tp.Degree(), op.Degree())
			//
			for k := 0; k <= deg; k++ {
				var (
					tc = tp.Coeff(uint(k))
					oc = op.Coeff(uint(k))
				)
				//
				if tc < 0 {
					tc = -tc
				}
				//
				if tc > oc {
					return fmt.Errorf("twisted coefficient %d of P(%d,%d) at degree %d exceeds ordinary %d",
						tc, x, y, k, oc)
				} else if (oc-tc)%2 != 0 {
					return fmt.Errorf("twisted coefficient %d of P(%d,%d) at degree %d has odd defect against %d",
						tc, x, y, k, oc)
				}
			}
		}
	}
	//
	return nil
}

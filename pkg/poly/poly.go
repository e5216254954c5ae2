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
package poly

import (
	"fmt"
	"strings"
)

// Coeff is the coefficient type for KLV polynomials.  Ordinary polynomials
// only ever hold non-negative coefficients; the twisted variant requires a
// signed type.
type Coeff = int32

// Poly is a univariate polynomial in q, encoded as a run of coefficients
// starting at some valuation.  An uninitialised Poly is zero.  The run may
// carry leading zeros (views extracted from compressed storage clamp the
// valuation), but never trailing zeros in canonical form.
type Poly struct {
	val    uint
	coeffs []Coeff
}

// Zero returns the zero polynomial.
func Zero() Poly {
	return Poly{}
}

// One returns the constant polynomial 1.
func One() Poly {
	return Poly{0, []Coeff{1}}
}

// Monomial returns c·q^k.
func Monomial(c Coeff, k uint) Poly {
	if c == 0 {
		return Poly{}
	}
	//
	return Poly{k, []Coeff{c}}
}

// FromRun wraps an existing coefficient run starting at the given valuation,
// without copying.  The caller retains ownership of the slice but must not
// mutate it afterwards.
func FromRun(val uint, run []Coeff) Poly {
	return Poly{val, run}
}

// NewPoly builds a polynomial from coefficients of q^0, q^1, and so on.
func NewPoly(coeffs ...Coeff) Poly {
	return Poly{0, coeffs}.normalize()
}

// IsZero reports whether every coefficient vanishes.
func (p Poly) IsZero() bool {
	for _, c := range p.coeffs {
		if c != 0 {
			return false
		}
	}
	//
	return true
}

// Degree returns the degree, or -1 for the zero polynomial.
func (p Poly) Degree() int {
	for i := len(p.coeffs) - 1; i >= 0; i-- {
		if p.coeffs[i] != 0 {
			return int(p.val) + i
		}
	}
	//
	return -1
}

// Valuation returns the exponent of the lowest non-zero term, or -1 for the
// zero polynomial.
func (p Poly) Valuation() int {
	for i, c := range p.coeffs {
		if c != 0 {
			return int(p.val) + i
		}
	}
	//
	return -1
}

// Coeff returns the coefficient of q^k.
func (p Poly) Coeff(k uint) Coeff {
	if k < p.val || k >= p.val+uint(len(p.coeffs)) {
		return 0
	}
	//
	return p.coeffs[k-p.val]
}

// Run exposes the canonical (valuation, coefficient run) encoding, suitable
// for compressed storage.  The returned slice has no leading or trailing
// zeros; the zero polynomial yields an empty run.
func (p Poly) Run() (uint, []Coeff) {
	q := p.normalize()
	return q.val, q.coeffs
}

// AddScaledShift returns p + c·q^shift·other, leaving both operands intact.
// This single primitive covers every combination the fill recursion needs.
func (p Poly) AddScaledShift(other Poly, c Coeff, shift uint) Poly {
	if c == 0 || other.IsZero() {
		return p
	}
	// Determine coefficient window of the result
	var (
		lo = min(p.val, other.val+shift)
		hi = max(p.val+uint(len(p.coeffs)), other.val+uint(len(other.coeffs))+shift)
	)
	//
	if p.IsZero() {
		lo = other.val + shift
		hi = other.val + uint(len(other.coeffs)) + shift
	}
	//
	run := make([]Coeff, hi-lo)
	//
	for i, pc := range p.coeffs {
		run[p.val+uint(i)-lo] += pc
	}
	//
	for i, oc := range other.coeffs {
		run[other.val+uint(i)+shift-lo] += c * oc
	}
	//
	return Poly{lo, run}.normalize()
}

// Add returns p + other.
func (p Poly) Add(other Poly) Poly {
	return p.AddScaledShift(other, 1, 0)
}

// Equal compares two polynomials by value, ignoring encoding differences.
func (p Poly) Equal(other Poly) bool {
	var (
		pd = p.Degree()
		od = other.Degree()
	)
	//
	if pd != od {
		return false
	}
	//
	for k := 0; k <= pd; k++ {
		if p.Coeff(uint(k)) != other.Coeff(uint(k)) {
			return false
		}
	}
	//
	return true
}

// Hash computes an FNV-1a digest of the canonical encoding, for use by the
// hash-consing store.  Structurally equal polynomials always hash alike.
func (p Poly) Hash() uint64 {
	const (
		offset = 0xcbf29ce484222325
		prime  = 0x00000100000001b3
	)
	//
	var (
		hash     uint64 = offset
		val, run        = p.Run()
	)
	//
	hash = (hash ^ uint64(val)) * prime
	//
	for _, c := range run {
		hash = (hash ^ uint64(uint32(c))) * prime
	}
	//
	return hash
}

func (p Poly) String() string {
	if p.IsZero() {
		return "0"
	}
	//
	var (
		builder strings.Builder
		first   = true
	)
	//
	for k := p.Degree(); k >= 0; k-- {
		c := p.Coeff(uint(k))
		//
		if c == 0 {
			continue
		}
		//
		if !first {
			builder.WriteString("+")
		}
		//
		first = false
		//
		switch {
		case k == 0:
			builder.WriteString(fmt.Sprintf("%d", c))
		case c == 1 && k == 1:
			builder.WriteString("q")
		case c == 1:
			builder.WriteString(fmt.Sprintf("q^%d", k))
		case k == 1:
			builder.WriteString(fmt.Sprintf("%dq", c))
		default:
			builder.WriteString(fmt.Sprintf("%dq^%d", c, k))
		}
	}
	//
	return builder.String()
}

// normalize trims zeros off both ends of the run, folding leading zeros into
// the valuation.
func (p Poly) normalize() Poly {
	var (
		i = 0
		j = len(p.coeffs)
	)
	//
	for j > 0 && p.coeffs[j-1] == 0 {
		j--
	}
	//
	for i < j && p.coeffs[i] == 0 {
		i++
	}
	//
	if i == j {
		return Poly{}
	}
	//
	return Poly{p.val + uint(i), p.coeffs[i:j]}
}

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
package store

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/atlas-reps/go-klv/pkg/poly"
)

// KLIndex names a polynomial inside a Store.  Equal polynomials always
// receive the same index, so index comparison is polynomial equality.
type KLIndex = uint32

// Zero and One occupy fixed indices, seeded before any row is processed.
const (
	Zero KLIndex = 0
	One  KLIndex = 1
)

// SEG_BITS fixes the capacity of a coefficient segment at 1<<SEG_BITS
// entries.  Segments are append-only: growing the store adds segments but
// never moves coefficients already written, so views handed out earlier stay
// valid across growth.  That property is what permits lock-free reads during
// the concurrent row phase.
const SEG_BITS = 18

const segSize = 1 << SEG_BITS
const segMask = segSize - 1

// DEG_LIMIT is the hard degree bound of the packed degree/valuation byte
// (5 bits of degree).
const DEG_LIMIT = 32

// VAL_LIMIT is the soft valuation bound (3 bits).  Polynomials with a higher
// true valuation are stored from VAL_LIMIT-1 upward, spending a few zero
// coefficients instead of widening the index entry.
const VAL_LIMIT = 8

// INIT_BUCKETS determines the initial number of hash buckets.  Stores are
// geared towards millions of lookups, so this starts reasonably high.
const INIT_BUCKETS = 128

// LOADING is the percentage load factor above which rehashing occurs.
const LOADING = 75

// ErrStoreFull signals that the number of distinct polynomials has exhausted
// the 32-bit index space.  Reported distinctly from logic errors so that
// callers can react by widening the index type rather than retrying.
var ErrStoreFull = errors.New("polynomial store index space exhausted")

// ErrPolyTooLarge signals a polynomial whose degree exceeds the packed
// encoding.  Like ErrStoreFull this is a capacity condition, not a logic
// error.
var ErrPolyTooLarge = errors.New("polynomial degree exceeds storage encoding")

const noIndex = math.MaxUint32

// packedDV packs a degree (lower 5 bits) and stored valuation (upper 3 bits)
// into one byte.
type packedDV uint8

func packDV(deg, val uint) packedDV {
	return packedDV(deg&0x1F) | packedDV(val<<5)
}

func (b packedDV) degree() uint {
	return uint(b) & 0x1F
}

func (b packedDV) valuation() uint {
	return uint(b) >> 5
}

// entry locates one polynomial: a global coefficient offset plus the packed
// degree/valuation byte, which together determine the stored run.
type entry struct {
	off uint64
	dv  packedDV
}

// Store is a hash-consing arena for KLV polynomials.  Each distinct
// polynomial is stored once, in a degree/valuation-compressed layout, and
// named by a small stable KLIndex.  Reads are protected by the read side of
// an RWMutex and remain cheap during concurrent fill phases; inserts take the
// write lock.
type Store struct {
	// append-only fixed-capacity coefficient segments
	segs [][]poly.Coeff
	// global offset of the next free coefficient slot
	top uint64
	// one entry per stored polynomial
	index []entry
	// hash buckets mapping polynomial hashes to indices
	buckets [][]KLIndex
	// coefficients never written thanks to valuation packing
	savings uint64
	// slots skipped to keep each run inside a single segment
	padding uint64
	// mutex required to ensure thread safety
	mux sync.RWMutex
}

// NewStore constructs an empty store seeded with the Zero and One
// polynomials at their fixed indices.
func NewStore() *Store {
	p := &Store{
		buckets: make([][]KLIndex, INIT_BUCKETS),
	}
	// Seed fixed entries; neither can fail on an empty store.
	z, _ := p.Insert(poly.Zero())
	o, _ := p.Insert(poly.One())
	//
	if z != Zero || o != One {
		panic("store seeding out of order")
	}
	//
	return p
}

// Size returns the number of distinct polynomials stored.
func (p *Store) Size() uint {
	p.mux.RLock()
	n := uint(len(p.index))
	p.mux.RUnlock()
	//
	return n
}

// MemoryFootprint reports the coefficient bytes in use and the bytes
// reserved across all segments, for instrumentation and testing.
func (p *Store) MemoryFootprint() (used uint64, reserved uint64) {
	p.mux.RLock()
	defer p.mux.RUnlock()
	//
	const coeffBytes = 4
	//
	return p.top * coeffBytes, uint64(len(p.segs)) * segSize * coeffBytes
}

// Savings reports how many coefficients were elided by valuation packing,
// and how many slots were lost to segment padding.
func (p *Store) Savings() (elided uint64, padded uint64) {
	p.mux.RLock()
	defer p.mux.RUnlock()
	//
	return p.savings, p.padding
}

// Get returns a read-only view of the polynomial at the given index.  The
// view shares the underlying coefficient run and therefore must not be
// mutated; it remains valid for the lifetime of the store.
func (p *Store) Get(i KLIndex) poly.Poly {
	p.mux.RLock()
	pol := p.innerGet(i)
	p.mux.RUnlock()
	//
	return pol
}

// Insert hash-conses the given polynomial, returning the existing index if a
// structurally equal polynomial is already stored and allocating a fresh one
// otherwise.  The store grows monotonically; nothing is ever removed.
func (p *Store) Insert(pol poly.Poly) (KLIndex, error) {
	hash := pol.Hash()
	// Optimistic read-locked probe: the vast majority of inserts are hits.
	p.mux.RLock()
	idx := p.find(hash, pol)
	p.mux.RUnlock()
	//
	if idx != noIndex {
		return idx, nil
	}
	//
	p.mux.Lock()
	defer p.mux.Unlock()
	// Recheck in case of a racing insert between the two lock holds.
	if idx = p.find(hash, pol); idx != noIndex {
		return idx, nil
	}
	//
	if uint64(len(p.index)) >= uint64(noIndex) {
		return 0, ErrStoreFull
	}
	//
	idx, err := p.alloc(pol)
	if err != nil {
		return 0, err
	}
	//
	p.buckets[hash%uint64(len(p.buckets))] = append(p.buckets[hash%uint64(len(p.buckets))], idx)
	p.rehashIfOverloaded()
	//
	return idx, nil
}

// find probes the bucket for a structurally equal polynomial.  Caller must
// hold at least the read lock.
func (p *Store) find(hash uint64, pol poly.Poly) KLIndex {
	bucket := p.buckets[hash%uint64(len(p.buckets))]
	//
	for _, idx := range bucket {
		if p.innerGet(idx).Equal(pol) {
			return idx
		}
	}
	//
	return noIndex
}

// alloc appends a new polynomial, returning its index.  Caller must hold the
// write lock.
func (p *Store) alloc(pol poly.Poly) (KLIndex, error) {
	var (
		val, run = pol.Run()
		deg      uint
	)
	//
	if len(run) == 0 {
		// the zero polynomial is stored as a single zero coefficient
		val, run = 0, []poly.Coeff{0}
	}
	//
	deg = val + uint(len(run)) - 1
	//
	if deg >= DEG_LIMIT {
		return 0, fmt.Errorf("%w: degree %d", ErrPolyTooLarge, deg)
	}
	// Clamp valuation to its 3-bit encoding.
	storedVal := min(val, VAL_LIMIT-1)
	n := deg - storedVal + 1
	// Keep the whole run inside one segment.
	if rem := segSize - uint(p.top&segMask); rem < n {
		p.padding += uint64(rem)
		p.top += uint64(rem)
	}
	//
	for uint64(len(p.segs)) <= p.top>>SEG_BITS {
		p.segs = append(p.segs, make([]poly.Coeff, segSize))
	}
	//
	var (
		seg = p.segs[p.top>>SEG_BITS]
		off = uint(p.top & segMask)
	)
	//
	for k := storedVal; k <= deg; k++ {
		seg[off+k-storedVal] = pol.Coeff(k)
	}
	//
	idx := KLIndex(len(p.index))
	p.index = append(p.index, entry{p.top, packDV(deg, storedVal)})
	p.top += uint64(n)
	p.savings += uint64(storedVal)
	//
	return idx, nil
}

// innerGet is the lock-free view constructor used once a lock is held.
func (p *Store) innerGet(i KLIndex) poly.Poly {
	var (
		e   = p.index[i]
		val = e.dv.valuation()
		n   = e.dv.degree() - val + 1
		seg = p.segs[e.off>>SEG_BITS]
		off = uint(e.off & segMask)
	)
	//
	return poly.FromRun(val, seg[off:off+n])
}

func (p *Store) rehashIfOverloaded() {
	load := (100 * uint64(len(p.index))) / uint64(len(p.buckets))
	//
	if load > LOADING {
		p.rehash()
	}
}

func (p *Store) rehash() {
	var (
		oldBuckets = p.buckets
		n          = uint64(len(oldBuckets) * 3)
	)
	//
	p.buckets = make([][]KLIndex, n)
	//
	for _, bucket := range oldBuckets {
		for _, idx := range bucket {
			hash := p.innerGet(idx).Hash() % n
			p.buckets[hash] = append(p.buckets[hash], idx)
		}
	}
}

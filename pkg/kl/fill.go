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
	"sync"

	"github.com/bits-and-blooms/bitset"
	log "github.com/sirupsen/logrus"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/poly"
	"github.com/atlas-reps/go-klv/pkg/store"
	"github.com/atlas-reps/go-klv/pkg/util"
)

// rowResult carries a provisional row from a worker back to the committing
// goroutine.
type rowResult struct {
	y    block.Elt
	prow []block.Elt
	klv  []poly.Poly
}

// Fill computes every row of the table, one length class at a time.  Rows
// within a class are mutually independent and are computed by a fixed worker
// pool; commits (store inserts and mu-table appends) happen sequentially once
// the whole class has been collected, so no class is ever partially visible.
// A second call is a no-op.
func (p *Context) Fill() error {
	if p.filled {
		return nil
	}
	//
	var (
		stats  = util.NewPerfStats()
		n      = p.sch.Size()
		maxlen = p.sch.Length(n - 1)
	)
	//
	for l := uint(0); l <= maxlen; l++ {
		var (
			lo = p.sch.LengthFloor(l)
			hi = p.sch.LengthFloor(l + 1)
		)
		//
		if lo == hi {
			continue
		}
		// compute all rows of this class concurrently
		results := p.computeClass(lo, hi)
		// commit sequentially; the next class must not start before this
		// loop finishes.
		for _, r := range results {
			if err := p.commitRow(r.y, r.prow, r.klv); err != nil {
				return err
			}
			//
			p.fillMuRow(r.y)
		}
		//
		log.Debugf("committed length class %d (%d rows, %d polynomials stored)",
			l, hi-lo, p.st.Size())
	}
	//
	p.filled = true
	//
	elided, padded := p.st.Savings()
	used, reserved := p.st.MemoryFootprint()
	log.Debugf("store: %d polynomials, %d/%d bytes, %d coefficients elided, %d padded",
		p.st.Size(), used, reserved, elided, padded)
	stats.Log("kl fill")
	//
	return nil
}

// computeClass runs the provisional computation for rows [lo,hi) on the
// worker pool and returns the results ordered by element.  Workers only read
// rows of strictly smaller length, which are immutable by now, so no locking
// is needed beyond the store's own.
func (p *Context) computeClass(lo block.Elt, hi block.Elt) []rowResult {
	var (
		count   = uint(hi - lo)
		threads = min(p.threads, count)
		jobs    = make(chan block.Elt, count)
		out     = make(chan rowResult, count)
		results = make([]rowResult, count)
		wg      sync.WaitGroup
	)
	//
	for t := uint(0); t < threads; t++ {
		wg.Add(1)
		//
		go func() {
			defer wg.Done()
			//
			for y := range jobs {
				prow, klv := p.computeRow(y)
				out <- rowResult{y, prow, klv}
			}
		}()
	}
	//
	for y := lo; y < hi; y++ {
		jobs <- y
	}
	//
	close(jobs)
	wg.Wait()
	close(out)
	//
	for r := range out {
		results[r.y-lo] = r
	}
	//
	return results
}

// computeRow performs steps 1-4 for one row: generator selection, primitive
// row, base recursion and mu-correction.  The final entry (x=y) is always the
// One polynomial.
func (p *Context) computeRow(y block.Elt) ([]block.Elt, []poly.Poly) {
	var (
		prow = p.sch.PrimitiveRow(y)
		klv  = make([]poly.Poly, len(prow))
	)
	//
	if s, sy, ok := p.sch.ReducingGenerator(y); ok {
		p.recursionRow(klv, prow, sy, s)
		klv[len(klv)-1] = poly.One()
		p.muCorrection(klv, prow, sy, s)
	} else if images, ok := p.sch.CompactImages(y); ok {
		// no direct recursion available: resolve the row through the
		// inverse Cayley images of an imaginary-compact descent.
		for k := 0; k < len(prow)-1; k++ {
			for _, w := range images {
				klv[k] = klv[k].Add(p.lookup(prow[k], w))
			}
		}
		//
		klv[len(klv)-1] = poly.One()
	} else {
		klv[len(klv)-1] = poly.One()
	}
	//
	return prow, klv
}

// recursionRow applies the two-term recursion against the already-filled row
// of sy for every primitive x except the last.
func (p *Context) recursionRow(klv []poly.Poly, prow []block.Elt, sy block.Elt, s uint) {
	for k := 0; k < len(prow)-1; k++ {
		var (
			z     = prow[k]
			sz    = p.sch.Cross(s, z)
			pszsy = p.lookup(sz, sy)
			pzsy  = p.lookup(z, sy)
		)
		//
		if p.sch.Length(z) == p.sch.Length(sz)+1 {
			// type I: (q+1)P(sz,sy) + (q²-q)P(z,sy)
			r := poly.Zero().
				AddScaledShift(pszsy, 1, 0).
				AddScaledShift(pszsy, 1, 1).
				AddScaledShift(pzsy, 1, 2).
				AddScaledShift(pzsy, -1, 1)
			klv[k] = r
		} else {
			// type II: P(sz,sy) + q²P(z,sy)
			klv[k] = pszsy.AddScaledShift(pzsy, 1, 2)
		}
	}
}

// muCorrection subtracts the correction terms indexed by the mu tables of
// w = the recursion image of y.  Three passes: mu partners whose crossed
// image drops, mu partners whose crossed image rises by one, and the mu-bar
// terms together with the nested mu(y,z)·mu(z,w) double sum.  This is what
// turns the runaway provisional combinations into bounded-degree
// polynomials.
func (p *Context) muCorrection(klv []poly.Poly, prow []block.Elt, w block.Elt, s uint) {
	var (
		wlen  = p.sch.Length(w)
		psize = len(prow) - 1
	)
	// mu terms of w
	for _, m := range p.mu[w] {
		var (
			yy     = m.X
			mu     = m.Coeff
			syy    = p.sch.Cross(s, yy)
			yylen  = p.sch.Length(yy)
			syylen = p.sch.Length(syy)
			diff   = wlen - yylen
		)
		//
		if syylen < yylen {
			// first correction term: -mu·(q^deg + q^(deg+1))·P(x,yy)
			deg := p.sch.MuDegLow(diff)
			//
			for j := 0; j < psize; j++ {
				x := p.sch.Cross(s, prow[j])
				//
				if p.sch.Length(x) > yylen {
					break
				}
				//
				pxy := p.lookup(x, yy)
				if pxy.IsZero() {
					continue
				}
				//
				klv[j] = klv[j].AddScaledShift(pxy, -mu, deg).AddScaledShift(pxy, -mu, deg+1)
			}
		} else if syylen == yylen+1 {
			// first part of the second correction term: -mu·q^deg·P(x,s·yy)
			deg := p.sch.MuDegHigh(diff)
			//
			for j := 0; j < psize; j++ {
				x := p.sch.Cross(s, prow[j])
				//
				if p.sch.Length(x) > yylen {
					break
				}
				//
				pxsyy := p.lookup(x, syy)
				if pxsyy.IsZero() {
					continue
				}
				//
				klv[j] = klv[j].AddScaledShift(pxsyy, -mu, deg)
			}
		}
	}
	// mu-bar terms: second part of the second correction term
	for _, m := range p.muBar[w] {
		var (
			yy    = m.X
			mu    = m.Coeff
			syy   = p.sch.Cross(s, yy)
			yylen = p.sch.Length(yy)
		)
		//
		if p.sch.Length(syy) > yylen {
			continue
		}
		//
		deg := p.sch.MuDegHigh(wlen - yylen)
		//
		for j := 0; j < psize; j++ {
			x := p.sch.Cross(s, prow[j])
			//
			if p.sch.Length(x) > yylen {
				break
			}
			//
			pxy := p.lookup(x, yy)
			if pxy.IsZero() {
				continue
			}
			//
			klv[j] = klv[j].AddScaledShift(pxy, -mu, deg)
		}
	}
	// nested term: products mu(yy,z)·mu(z,w) scaled against P(x,yy).  The
	// mu tables are only keyed by row, so both factors are found by
	// traversal; sparse two-way indexing could avoid some of the repeated
	// polynomial walks here.
	for _, mzw := range p.mu[w] {
		z := mzw.X
		//
		if p.sch.Length(p.sch.Cross(s, z)) > p.sch.Length(z) {
			continue
		}
		//
		for _, myz := range p.mu[z] {
			yy := myz.X
			yylen := p.sch.Length(yy)
			//
			if p.sch.Length(p.sch.Cross(s, yy)) > yylen {
				continue
			}
			//
			var (
				muprod = myz.Coeff * mzw.Coeff
				deg    = p.sch.MuDegHigh(wlen - yylen)
			)
			//
			for k := 0; k < psize; k++ {
				x := p.sch.Cross(s, prow[k])
				//
				if p.sch.Length(x) > yylen {
					break
				}
				//
				pxy := p.lookup(x, yy)
				if pxy.IsZero() {
					continue
				}
				//
				klv[k] = klv[k].AddScaledShift(pxy, muprod, deg)
			}
		}
	}
}

// commitRow inserts every corrected polynomial into the store and records the
// resulting index list as the row for y, checking the row invariants on the
// way in.
func (p *Context) commitRow(y block.Elt, prow []block.Elt, klv []poly.Poly) error {
	if len(prow) != len(klv) || prow[len(prow)-1] != y {
		return fmt.Errorf("%w: row %d shape disagrees with its primitive row", ErrInternal, y)
	}
	//
	var (
		ylen = p.sch.Length(y)
		row  = make([]store.KLIndex, len(klv))
	)
	//
	for i, pol := range klv {
		// degree bound: deg P(x,y) <= (len(y)-len(x)-1)/2 for x below y
		if x := prow[i]; x != y {
			if bound := int(ylen-p.sch.Length(x)-1) / 2; pol.Degree() > bound {
				return fmt.Errorf("%w: P(%d,%d) has degree %d above bound %d",
					ErrInternal, x, y, pol.Degree(), bound)
			}
		}
		//
		idx, err := p.st.Insert(pol)
		if err != nil {
			return err
		}
		//
		row[i] = idx
	}
	//
	p.prim[y] = prow
	p.rows[y] = row
	//
	return nil
}

// fillMuRow scans the freshly committed row for y and records the mu and
// mu-bar coefficients.  Odd length differences feed the mu table, even ones
// the mu-bar table; a visited bitset keeps each x from being recorded twice
// within the row.
func (p *Context) fillMuRow(y block.Elt) {
	var (
		rank    = p.sch.Rank()
		prow    = p.prim[y]
		psize   = len(prow) - 1
		ylen    = p.sch.Length(y)
		visited = bitset.New(uint(p.sch.Size()))
	)
	//
	for i := 0; i < psize; i++ {
		var (
			x    = prow[i]
			xlen = p.sch.Length(x)
			d    = (ylen - xlen - 1) / 2
		)
		//
		if (ylen-xlen)%2 == 1 {
			// neighbours one step below x feed the mu-bar table; they need
			// not be primitive themselves.
			for s := uint(0); s < rank; s++ {
				z := p.sch.Cross(s, x)
				//
				if visited.Test(uint(z)) || xlen == 0 || p.sch.Length(z) != xlen-1 {
					continue
				}
				//
				pz := p.lookup(z, y)
				if pz.Degree() == int(d) {
					p.muBar[y] = append(p.muBar[y], MuPair{z, pz.Coeff(d)})
					visited.Set(uint(z))
				}
			}
			//
			pi := p.st.Get(p.rows[y][i])
			if pi.Degree() == int(d) {
				p.mu[y] = append(p.mu[y], MuPair{x, pi.Coeff(d)})
			}
		} else {
			if visited.Test(uint(x)) {
				continue
			}
			//
			pi := p.st.Get(p.rows[y][i])
			if pi.Degree() == int(d) {
				p.muBar[y] = append(p.muBar[y], MuPair{x, pi.Coeff(d)})
				visited.Set(uint(x))
			}
		}
	}
	// cross images of y at length difference one and two need recording as
	// well, and are generally not primitive.
	for s := uint(0); s < rank; s++ {
		var (
			x    = p.sch.Cross(s, y)
			diff = int(ylen) - int(p.sch.Length(x))
		)
		//
		if diff == 1 {
			// distinct generators may cross to the same image
			if c := p.lookup(x, y).Coeff(0); c != 0 && p.Mu(x, y) == 0 {
				p.mu[y] = append(p.mu[y], MuPair{x, c})
			}
		} else if diff == 2 && !visited.Test(uint(x)) {
			if c := p.lookup(x, y).Coeff(0); c != 0 {
				p.muBar[y] = append(p.muBar[y], MuPair{x, c})
				visited.Set(uint(x))
			}
		}
	}
}

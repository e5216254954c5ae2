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

package klio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/atlas-reps/go-klv/pkg/poly"
	"github.com/atlas-reps/go-klv/pkg/store"
)

// PolyMagic identifies a polynomial stream ("KLP0").
const PolyMagic uint32 = 0x4B4C5030

// WritePolys serialises the distinct polynomials of a store in index order.
// Each entry is a valuation byte, a degree-span byte and the coefficients of
// the stored run as uint32 words.  Reading the stream back and re-inserting
// in order reproduces the original indices.
func WritePolys(w io.Writer, st *store.Store) error {
	buf := bufio.NewWriter(w)
	//
	if err := binary.Write(buf, binary.LittleEndian, PolyMagic); err != nil {
		return err
	}
	//
	if err := binary.Write(buf, binary.LittleEndian, uint32(st.Size())); err != nil {
		return err
	}
	//
	for k := store.KLIndex(0); k < store.KLIndex(st.Size()); k++ {
		val, run := st.Get(k).Run()
		//
		if err := buf.WriteByte(byte(val)); err != nil {
			return err
		}
		//
		if err := buf.WriteByte(byte(len(run))); err != nil {
			return err
		}
		//
		for _, c := range run {
			if err := binary.Write(buf, binary.LittleEndian, uint32(c)); err != nil {
				return err
			}
		}
	}
	//
	return buf.Flush()
}

// ReadPolys reads a polynomial stream into a fresh store, preserving the
// index assignment of the writer.
func ReadPolys(r io.Reader) (*store.Store, error) {
	var (
		buf   = bufio.NewReader(r)
		magic uint32
		count uint32
	)
	//
	if err := binary.Read(buf, binary.LittleEndian, &magic); err != nil {
		return nil, err
	} else if magic != PolyMagic {
		return nil, fmt.Errorf("%w: unexpected magic %#08x in polynomial stream", ErrBadStream, magic)
	}
	//
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	//
	st := store.NewStore()
	//
	for k := uint32(0); k < count; k++ {
		val, err := buf.ReadByte()
		//
		if err != nil {
			return nil, fmt.Errorf("polynomial %d: %w", k, err)
		}
		//
		span, err := buf.ReadByte()
		//
		if err != nil {
			return nil, fmt.Errorf("polynomial %d: %w", k, err)
		}
		//
		run := make([]poly.Coeff, span)
		//
		for i := range run {
			var c uint32
			//
			if err := binary.Read(buf, binary.LittleEndian, &c); err != nil {
				return nil, fmt.Errorf("polynomial %d: %w", k, err)
			}
			//
			run[i] = poly.Coeff(c)
		}
		//
		got, err := st.Insert(poly.FromRun(uint(val), run))
		//
		if err != nil {
			return nil, fmt.Errorf("polynomial %d: %w", k, err)
		}
		// Zero and one are pre-seeded, so their entries must round trip onto
		// the reserved indices; any other mismatch means a corrupt stream.
		if got != store.KLIndex(k) {
			return nil, fmt.Errorf("%w: polynomial %d deduplicated to index %d", ErrBadStream, k, got)
		}
	}
	//
	return st, nil
}

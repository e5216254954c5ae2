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

// Package klio reads and writes the binary interchange formats for blocks,
// polynomial tables and KLV matrices.  All streams are little endian; errors
// are reported, never panicked, since files arrive from outside the process.
package klio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/atlas-reps/go-klv/pkg/block"
	"github.com/atlas-reps/go-klv/pkg/store"
)

// ErrBadStream flags a stream whose framing or contents are corrupt.  Framing
// failures wrap this sentinel so callers can distinguish corruption from
// plain I/O errors.
var ErrBadStream = errors.New("malformed stream")

// MatrixMagic identifies a matrix stream ("KLV0").
const MatrixMagic uint32 = 0x4B4C5630

// Matrix is the in-memory form of a matrix stream: for every block element y
// its primitive row and the polynomial indices found there.  Rows and indices
// line up positionally.
type Matrix struct {
	Rows    [][]block.Elt
	Indices [][]store.KLIndex
}

// WriteMatrix writes a matrix stream.  The layout is the magic word, the
// number of rows, then for each row its entry count followed by interleaved
// (element, index) pairs, and finally a trailer of delta-encoded row byte
// offsets, the offset count and a repeated magic word.  The trailer enables
// random access without parsing every row, and the repeated magic detects
// truncation.
func WriteMatrix(w io.Writer, m *Matrix) error {
	var (
		buf     = bufio.NewWriter(w)
		offsets = make([]uint32, len(m.Rows))
		pos     uint32
	)
	//
	if len(m.Rows) != len(m.Indices) {
		return fmt.Errorf("matrix has %d rows but %d index rows", len(m.Rows), len(m.Indices))
	}
	//
	if err := binary.Write(buf, binary.LittleEndian, MatrixMagic); err != nil {
		return err
	}
	//
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(m.Rows))); err != nil {
		return err
	}
	//
	for y, row := range m.Rows {
		offsets[y] = pos
		//
		if len(row) != len(m.Indices[y]) {
			return fmt.Errorf("row %d has %d entries but %d indices", y, len(row), len(m.Indices[y]))
		}
		//
		if err := binary.Write(buf, binary.LittleEndian, uint32(len(row))); err != nil {
			return err
		}
		//
		for i, x := range row {
			if err := binary.Write(buf, binary.LittleEndian, x); err != nil {
				return err
			}
			//
			if err := binary.Write(buf, binary.LittleEndian, m.Indices[y][i]); err != nil {
				return err
			}
		}
		// 4 bytes count plus 8 per entry.
		pos += 4 + 8*uint32(len(row))
	}
	// Trailer: first offset absolute, the rest as deltas.
	prev := uint32(0)
	//
	for _, off := range offsets {
		if err := binary.Write(buf, binary.LittleEndian, off-prev); err != nil {
			return err
		}
		//
		prev = off
	}
	//
	if err := binary.Write(buf, binary.LittleEndian, uint32(len(offsets))); err != nil {
		return err
	}
	//
	if err := binary.Write(buf, binary.LittleEndian, MatrixMagic); err != nil {
		return err
	}
	//
	return buf.Flush()
}

// ReadMatrix reads a matrix stream written by WriteMatrix.
func ReadMatrix(r io.Reader) (*Matrix, error) {
	var (
		buf   = bufio.NewReader(r)
		magic uint32
		nrows uint32
	)
	//
	if err := binary.Read(buf, binary.LittleEndian, &magic); err != nil {
		return nil, err
	} else if magic != MatrixMagic {
		return nil, fmt.Errorf("%w: unexpected magic %#08x in matrix stream", ErrBadStream, magic)
	}
	//
	if err := binary.Read(buf, binary.LittleEndian, &nrows); err != nil {
		return nil, err
	}
	//
	m := &Matrix{
		Rows:    make([][]block.Elt, nrows),
		Indices: make([][]store.KLIndex, nrows),
	}
	//
	for y := uint32(0); y < nrows; y++ {
		var count uint32
		//
		if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("row %d: %w", y, err)
		}
		//
		row := make([]block.Elt, count)
		idx := make([]store.KLIndex, count)
		//
		for i := uint32(0); i < count; i++ {
			if err := binary.Read(buf, binary.LittleEndian, &row[i]); err != nil {
				return nil, fmt.Errorf("row %d: %w", y, err)
			}
			//
			if err := binary.Read(buf, binary.LittleEndian, &idx[i]); err != nil {
				return nil, fmt.Errorf("row %d: %w", y, err)
			}
		}
		//
		m.Rows[y] = row
		m.Indices[y] = idx
	}
	// Skip the offset deltas; they only matter for random access readers.
	if _, err := io.CopyN(io.Discard, buf, int64(nrows)*4); err != nil {
		return nil, fmt.Errorf("%w: truncated offset trailer", ErrBadStream)
	}
	//
	var (
		count   uint32
		trailer uint32
	)
	//
	if err := binary.Read(buf, binary.LittleEndian, &count); err != nil {
		return nil, err
	} else if count != nrows {
		return nil, fmt.Errorf("%w: trailer lists %d rows, header %d", ErrBadStream, count, nrows)
	}
	//
	if err := binary.Read(buf, binary.LittleEndian, &trailer); err != nil {
		return nil, err
	} else if trailer != MatrixMagic {
		return nil, fmt.Errorf("%w: missing trailing magic", ErrBadStream)
	}
	//
	return m, nil
}

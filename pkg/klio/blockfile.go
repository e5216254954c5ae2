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

	"github.com/atlas-reps/go-klv/pkg/block"
)

// BlockMagic identifies a block-description stream ("KLB0").
const BlockMagic uint32 = 0x4B4C4230

// noImage marks an undefined cross or Cayley image on the wire.
const noImage uint32 = 0xFFFFFFFF

// WriteBlock serialises a block description.  The layout is the magic word,
// size as uint32, rank as uint8, max length as uint8, the length-class
// boundary table (for each length l from 1 to the maximum, the first element
// of length at least l, as uint32), then per element its length (uint8) and
// one descent status byte per generator, then per (element, generator) the
// cross image and the two Cayley images as uint32 words with 0xFFFFFFFF
// marking an undefined image.
func WriteBlock(w io.Writer, blk block.Block) error {
	var (
		buf    = bufio.NewWriter(w)
		n      = blk.Size()
		rank   = blk.Rank()
		maxlen = blk.Length(n - 1)
	)
	//
	if err := binary.Write(buf, binary.LittleEndian, BlockMagic); err != nil {
		return err
	}
	//
	if err := binary.Write(buf, binary.LittleEndian, uint32(n)); err != nil {
		return err
	}
	//
	if err := buf.WriteByte(byte(rank)); err != nil {
		return err
	}
	//
	if err := buf.WriteByte(byte(maxlen)); err != nil {
		return err
	}
	//
	for _, b := range lengthFloors(n, maxlen, blk.Length) {
		if err := binary.Write(buf, binary.LittleEndian, b); err != nil {
			return err
		}
	}
	//
	for x := block.Elt(0); x < n; x++ {
		if err := buf.WriteByte(byte(blk.Length(x))); err != nil {
			return err
		}
		//
		for s := uint(0); s < rank; s++ {
			if err := buf.WriteByte(byte(blk.DescentValue(s, x))); err != nil {
				return err
			}
		}
	}
	//
	for x := block.Elt(0); x < n; x++ {
		for s := uint(0); s < rank; s++ {
			images := [3]block.Elt{
				blk.Cross(s, x),
				blk.Cayley(s, x).First,
				blk.Cayley(s, x).Second,
			}
			//
			for _, img := range images {
				word := uint32(img)
				//
				if img == block.UndefinedElt {
					word = noImage
				}
				//
				if err := binary.Write(buf, binary.LittleEndian, word); err != nil {
					return err
				}
			}
		}
	}
	//
	return buf.Flush()
}

// ReadBlock reads a block-description stream into a table-backed block.  The
// result is validated before being returned.
func ReadBlock(r io.Reader) (*block.TableBlock, error) {
	var (
		buf   = bufio.NewReader(r)
		magic uint32
		size  uint32
	)
	//
	if err := binary.Read(buf, binary.LittleEndian, &magic); err != nil {
		return nil, err
	} else if magic != BlockMagic {
		return nil, fmt.Errorf("%w: unexpected magic %#08x in block stream", ErrBadStream, magic)
	}
	//
	if err := binary.Read(buf, binary.LittleEndian, &size); err != nil {
		return nil, err
	} else if size == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrBadStream)
	}
	//
	rank, err := buf.ReadByte()
	//
	if err != nil {
		return nil, err
	} else if uint(rank) > block.MaxRank {
		return nil, fmt.Errorf("%w: block rank %d exceeds limit %d", ErrBadStream, rank, block.MaxRank)
	}
	//
	maxlen, err := buf.ReadByte()
	//
	if err != nil {
		return nil, err
	}
	//
	floors := make([]uint32, maxlen)
	//
	for l := range floors {
		if err := binary.Read(buf, binary.LittleEndian, &floors[l]); err != nil {
			return nil, fmt.Errorf("boundary table: %w", err)
		}
	}
	//
	var (
		n        = uint(size)
		lengths  = make([]uint, n)
		descents = make([]block.DescentStatus, n*uint(rank))
		crosses  = make([]block.Elt, n*uint(rank))
		cayleys  = make([]block.EltPair, n*uint(rank))
	)
	//
	for x := uint(0); x < n; x++ {
		length, err := buf.ReadByte()
		//
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", x, err)
		}
		//
		lengths[x] = uint(length)
		//
		for s := uint(0); s < uint(rank); s++ {
			status, err := buf.ReadByte()
			//
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", x, err)
			}
			//
			if status > byte(block.RealTypeI) {
				return nil, fmt.Errorf("%w: element %d has invalid descent status %d", ErrBadStream, x, status)
			}
			//
			descents[x*uint(rank)+s] = block.DescentStatus(status)
		}
	}
	// The header's boundary table must agree with the lengths just read.
	if lengths[n-1] != uint(maxlen) {
		return nil, fmt.Errorf("%w: max length %d disagrees with final element length %d",
			ErrBadStream, maxlen, lengths[n-1])
	}
	//
	for l, b := range lengthFloors(block.Elt(n), uint(maxlen), func(x block.Elt) uint { return lengths[x] }) {
		if floors[l] != b {
			return nil, fmt.Errorf("%w: boundary table lists %d for length %d, expected %d",
				ErrBadStream, floors[l], l+1, b)
		}
	}
	//
	readElt := func() (block.Elt, error) {
		var word uint32
		//
		if err := binary.Read(buf, binary.LittleEndian, &word); err != nil {
			return 0, err
		}
		//
		if word == noImage {
			return block.UndefinedElt, nil
		}
		//
		return block.Elt(word), nil
	}
	//
	for x := uint(0); x < n; x++ {
		for s := uint(0); s < uint(rank); s++ {
			i := x*uint(rank) + s
			//
			if crosses[i], err = readElt(); err != nil {
				return nil, fmt.Errorf("element %d: %w", x, err)
			}
			//
			if cayleys[i].First, err = readElt(); err != nil {
				return nil, fmt.Errorf("element %d: %w", x, err)
			}
			//
			if cayleys[i].Second, err = readElt(); err != nil {
				return nil, fmt.Errorf("element %d: %w", x, err)
			}
		}
	}
	//
	return block.NewTableBlock(uint(rank), lengths, descents, crosses, cayleys)
}

// lengthFloors lists, for each length l from 1 to maxlen, the first element of
// length at least l.  The caller guarantees the final element has length
// maxlen, which bounds the scan.
func lengthFloors(n block.Elt, maxlen uint, length func(block.Elt) uint) []uint32 {
	floors := make([]uint32, 0, maxlen)
	//
	for l, x := uint(1), block.Elt(0); l <= maxlen; l++ {
		for length(x) < l {
			x++
		}
		//
		floors = append(floors, uint32(x))
	}
	//
	return floors
}

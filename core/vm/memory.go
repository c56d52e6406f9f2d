// Copyright 2015 by the Authors
// This file is part of the go-core library.
//
// The go-core library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-core library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-core library. If not, see <http://www.gnu.org/licenses/>.

package vm

import "sort"

// memRegion is one non-overlapping, byte-addressed span of symbolic
// memory.
type memRegion struct {
	offset, size uint64
	value        *SymbolicValue
}

func (r memRegion) end() uint64 { return r.offset + r.size }

// Memory is the symbolic analyzer's sparse byte-addressable memory. It
// never allocates storage for unwritten bytes: an untouched 32-byte range
// reads as the concrete zero Word and an untouched range of any other
// length as a ZERO[n] symbol, standing in for real EVM memory's
// zero-initialization without needing to materialize it.
type Memory struct {
	regions []memRegion // kept sorted and non-overlapping by offset
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory { return &Memory{} }

// Len reports the address one past the highest byte ever written, the
// "highest touched offset" quantity used for informational MSIZE results.
func (m *Memory) Len() uint64 {
	if len(m.regions) == 0 {
		return 0
	}
	return m.regions[len(m.regions)-1].end()
}

// Store writes val, covering exactly size bytes starting at offset. A
// 32-byte-aligned, 32-byte write is key-preserving: a later aligned
// 32-byte read at the same offset returns val directly.
// Any write that overlaps existing regions without exactly matching
// chops the overlapped regions into pre/overwritten/post SLICE
// sub-expressions.
func (m *Memory) Store(offset, size uint64, val *SymbolicValue) {
	if size == 0 {
		return
	}
	newRegion := memRegion{offset: offset, size: size, value: val}
	kept := m.regions[:0:0]
	for _, r := range m.regions {
		switch {
		case r.end() <= newRegion.offset || r.offset >= newRegion.end():
			// disjoint, keep untouched
			kept = append(kept, r)
		default:
			// overlaps: keep the pre- and post- slices that survive
			if r.offset < newRegion.offset {
				loLen := newRegion.offset - r.offset
				kept = append(kept, memRegion{
					offset: r.offset, size: loLen,
					value: Slice(r.value, 0, loLen),
				})
			}
			if r.end() > newRegion.end() {
				hiStart := newRegion.end() - r.offset
				kept = append(kept, memRegion{
					offset: newRegion.end(), size: r.end() - newRegion.end(),
					value: Slice(r.value, hiStart, r.size),
				})
			}
		}
	}
	kept = append(kept, newRegion)
	sort.Slice(kept, func(i, j int) bool { return kept[i].offset < kept[j].offset })
	m.regions = kept
}

// Load reconstructs the size bytes starting at offset by concatenating
// whatever regions overlap the range, in order, substituting zero for any
// untouched gap (concrete zero for a 32-byte gap, a ZERO[n] symbol
// otherwise).
func (m *Memory) Load(offset, size uint64) *SymbolicValue {
	if size == 0 {
		return ConcU64(0)
	}
	end := offset + size
	// Fast path: a single region matches the read exactly.
	for _, r := range m.regions {
		if r.offset == offset && r.size == size {
			return r.value
		}
	}
	var parts []*SymbolicValue
	cursor := offset
	for _, r := range m.regions {
		if r.end() <= cursor || r.offset >= end {
			continue
		}
		if r.offset > cursor {
			parts = append(parts, zeroSlice(r.offset-cursor))
		}
		lo := uint64(0)
		if cursor > r.offset {
			lo = cursor - r.offset
		}
		hi := r.size
		if r.end() > end {
			hi = end - r.offset
		}
		parts = append(parts, Slice(r.value, lo, hi))
		cursor = r.offset + hi
	}
	if cursor < end {
		parts = append(parts, zeroSlice(end-cursor))
	}
	if len(parts) == 0 {
		return zeroSlice(size)
	}
	return Concat(parts...)
}

func zeroSlice(n uint64) *SymbolicValue {
	if n == 32 {
		return ConcU64(0)
	}
	return Symf("ZERO[%d]", n)
}

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

// Package resolver recovers the function dispatcher of EVM runtime
// bytecode: the sequence of 4-byte selector comparisons a Solidity-style
// contract uses to route a call to its matching function body.
package resolver

import "github.com/coreforensic/evmforensic/core/vm"

// DispatchEntry is one recognized selector-comparison branch.
type DispatchEntry struct {
	Selector [4]byte
	EntryPC  uint64
}

// FindDispatcher scans instrs for the idiomatic Solidity dispatcher
// shape: a PUSH4 selector constant, an EQ, a PUSH of the branch target,
// and a JUMPI, in that order. Entries are returned
// in program order; found is false when none were recognized, the
// DispatcherNotFound case.
func FindDispatcher(instrs []vm.Instruction) (entries []DispatchEntry, found bool) {
	for i := 0; i+3 < len(instrs); i++ {
		push4 := instrs[i]
		if push4.Opcode != vm.PUSH4 || len(push4.Immediate) != 4 {
			continue
		}
		eq := instrs[i+1]
		if eq.Opcode != vm.EQ {
			continue
		}
		pushTarget := instrs[i+2]
		if !pushTarget.Opcode.IsPush() {
			continue
		}
		jumpi := instrs[i+3]
		if jumpi.Opcode != vm.JUMPI {
			continue
		}
		var sel [4]byte
		copy(sel[:], push4.Immediate)
		target := vm.WordFromBytes(pushTarget.Immediate).Uint64()
		entries = append(entries, DispatchEntry{Selector: sel, EntryPC: target})
	}
	return entries, len(entries) > 0
}

// FallbackEntryPC returns the PC execution reaches when no dispatcher
// comparison matches: the instruction immediately following the last
// recognized JUMPI, the fallthrough/default branch with no selector.
// Callers should only use this once FindDispatcher has reported
// found == true.
func FallbackEntryPC(instrs []vm.Instruction, entries []DispatchEntry) uint64 {
	var lastJumpiEnd uint64
	for i := 0; i+3 < len(instrs); i++ {
		if instrs[i].Opcode == vm.PUSH4 && instrs[i+1].Opcode == vm.EQ &&
			instrs[i+2].Opcode.IsPush() && instrs[i+3].Opcode == vm.JUMPI {
			end := instrs[i+3]
			if e := end.PC + 1; e > lastJumpiEnd {
				lastJumpiEnd = e
			}
		}
	}
	return lastJumpiEnd
}

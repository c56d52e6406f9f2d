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

// Successor is one outgoing transition of a BasicBlock.
type Successor struct {
	Target uint64
	Kind   string // "cond", "!cond", "unconditional", "fallthrough", or a terminal mnemonic
	Cond   *SymbolicValue
}

// BasicBlock is a maximal straight-line instruction run bounded by
// JUMPDESTs and control-flow instructions.
type BasicBlock struct {
	EntryPC      uint64
	Instructions []Instruction
	Successors   []Successor
}

// CFG is the directed graph of the BasicBlocks of the whole bytecode, with
// successors taken from the edges one function's exploration observed.
// Invariant: every non-terminal block ends in a
// control-flow instruction; every JUMPDEST begins a block.
type CFG struct {
	Blocks map[uint64]*BasicBlock
	Entry  uint64
}

// BuildCFG assembles a CFG from a Disassemble result and the Edges a Run
// call observed. Block boundaries are the entry PC, every JUMPDEST, and
// the instruction following any control-flow instruction; edges attach to
// whichever block contains their From PC.
func BuildCFG(code []byte, entry uint64, edges []Edge) *CFG {
	instrs := Disassemble(code)
	jumpdests := JumpdestSet(instrs)

	boundaries := map[uint64]bool{entry: true}
	for pc := range jumpdests {
		boundaries[pc] = true
	}
	for _, in := range instrs {
		if in.Opcode.IsTerminal() {
			boundaries[nextPC(in)] = true
		}
	}

	starts := make([]uint64, 0, len(boundaries))
	for pc := range boundaries {
		starts = append(starts, pc)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	byPC := make(map[uint64]Instruction, len(instrs))
	for _, in := range instrs {
		byPC[in.PC] = in
	}

	cfg := &CFG{Blocks: make(map[uint64]*BasicBlock), Entry: entry}
	for i, start := range starts {
		end := uint64(len(code))
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		block := &BasicBlock{EntryPC: start}
		for pc := start; pc < end; {
			in, ok := byPC[pc]
			if !ok {
				break
			}
			block.Instructions = append(block.Instructions, in)
			if in.Opcode.IsTerminal() {
				break
			}
			pc = nextPC(in)
		}
		cfg.Blocks[start] = block
	}

	blockFor := func(pc uint64) *BasicBlock {
		// find the block whose instruction range contains pc
		for _, b := range cfg.Blocks {
			for _, in := range b.Instructions {
				if in.PC == pc {
					return b
				}
			}
		}
		return nil
	}

	seen := make(map[uint64]map[Successor]bool)
	for _, e := range edges {
		b := blockFor(e.From)
		if b == nil {
			continue
		}
		succ := Successor{Target: e.To, Kind: e.Kind, Cond: e.Cond}
		if seen[b.EntryPC] == nil {
			seen[b.EntryPC] = make(map[Successor]bool)
		}
		key := succ
		key.Cond = nil // Cond holds a pointer; dedup on (Target,Kind) only
		if seen[b.EntryPC][key] {
			continue
		}
		seen[b.EntryPC][key] = true
		b.Successors = append(b.Successors, succ)
	}

	return cfg
}

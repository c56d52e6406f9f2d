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

import "fmt"

// Instruction is one decoded opcode at a fixed program counter. PC values across a Disassemble result are strictly
// increasing and equal the byte offset; a PUSHn's immediate bytes are
// absorbed into the owning Instruction and never decoded separately.
type Instruction struct {
	PC        uint64
	Opcode    OpCode
	Immediate []byte // non-nil only for PUSH1..PUSH32
	Truncated bool   // true if Immediate was zero-padded past the code end
}

// Mnemonic renders the instruction's textual form, e.g. "PUSH2 0x4000".
func (in Instruction) Mnemonic() string {
	if in.Immediate != nil {
		return fmt.Sprintf("%s 0x%x", in.Opcode, in.Immediate)
	}
	return in.Opcode.String()
}

// Disassemble decodes code into an ordered Instruction sequence. PUSHn
// consumes the n bytes following the opcode as its immediate; if fewer
// than n bytes remain before the end of code, the immediate is
// zero-padded and the instruction is marked Truncated.
// Unknown opcodes decode as a single-byte INVALID instruction; no
// control-flow is inferred here, only linear decoding.
func Disassemble(code []byte) []Instruction {
	var out []Instruction
	for pc := 0; pc < len(code); {
		op := OpCode(code[pc])
		in := Instruction{PC: uint64(pc), Opcode: op}
		if n := op.PushSize(); n > 0 {
			imm := make([]byte, n)
			avail := copy(imm, code[pc+1:])
			if avail < n {
				in.Truncated = true
			}
			in.Immediate = imm
			pc += 1 + n
		} else {
			pc++
		}
		out = append(out, in)
	}
	return out
}

// JumpdestSet returns the set of PCs in code that hold a JUMPDEST
// opcode reached by linear decoding, the static candidate-target universe
// the interpreter enumerates for a JUMP with a symbolic target.
func JumpdestSet(instructions []Instruction) map[uint64]bool {
	set := make(map[uint64]bool)
	for _, in := range instructions {
		if in.Opcode == JUMPDEST {
			set[in.PC] = true
		}
	}
	return set
}

// instructionIndex is a by-PC lookup over a Disassemble result, the
// "full instruction index" the interpreter contract
// requires alongside a starting VMState.
type instructionIndex struct {
	byPC map[uint64]Instruction
	code []byte
}

func newInstructionIndex(code []byte) *instructionIndex {
	instrs := Disassemble(code)
	idx := &instructionIndex{byPC: make(map[uint64]Instruction, len(instrs)), code: code}
	for _, in := range instrs {
		idx.byPC[in.PC] = in
	}
	return idx
}

func (idx *instructionIndex) at(pc uint64) (Instruction, bool) {
	in, ok := idx.byPC[pc]
	return in, ok
}

// nextPC returns the PC immediately following in, the fallthrough target
// for non-control-flow instructions.
func nextPC(in Instruction) uint64 {
	if in.Immediate != nil {
		return in.PC + 1 + uint64(len(in.Immediate))
	}
	return in.PC + 1
}

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

// SymValueKind discriminates the three SymbolicValue node shapes
//.
type SymValueKind int

const (
	KindConcrete SymValueKind = iota
	KindSymbol
	KindOp
)

// OpKind enumerates the operator node kinds a symbolic expression tree
// can carry. These mirror the EVM ALU/bit/comparison opcodes plus the
// derived operations the synthesizer looks for (SHA3, address
// derivation, mapping-slot recognition).
type OpKind int

const (
	OpAdd OpKind = iota
	OpSub
	OpMul
	OpDiv
	OpSDiv
	OpMod
	OpSMod
	OpAddMod
	OpMulMod
	OpExp
	OpSignExtend
	OpAnd
	OpOr
	OpXor
	OpNot
	OpByte
	OpShl
	OpShr
	OpSar
	OpLt
	OpGt
	OpSlt
	OpSgt
	OpEq
	OpIsZero
	OpSha3
	OpMapping // MAPPING(slot, key): recognized SHA3(concat(key, slot)) pattern
	OpConcat  // byte-level concatenation, used to rebuild overlapping memory reads
	OpSlice   // SLICE(value, lo, hi): a byte sub-range of a chopped memory write
)

var opKindNames = [...]string{
	"add", "sub", "mul", "div", "sdiv", "mod", "smod", "addmod", "mulmod",
	"exp", "signextend", "and", "or", "xor", "not", "byte", "shl", "shr",
	"sar", "lt", "gt", "slt", "sgt", "eq", "iszero", "sha3", "mapping", "concat", "slice",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "unknown"
}

// SymbolicValue is a finite expression tree standing for a set of
// concrete values reachable at a program point. The zero
// value is not meaningful; construct with Conc, Sym or MakeOp.
type SymbolicValue struct {
	Kind SymValueKind

	// Concrete is populated iff Kind == KindConcrete.
	Concrete Word

	// Tag is populated iff Kind == KindSymbol, e.g. "CALLER",
	// "CALLDATA[0x4..+32]", "STORAGE[<slot>]".
	Tag string

	// Op and Operands are populated iff Kind == KindOp.
	Op       OpKind
	Operands []*SymbolicValue
}

// Conc wraps a concrete Word as a leaf SymbolicValue.
func Conc(w Word) *SymbolicValue { return &SymbolicValue{Kind: KindConcrete, Concrete: w} }

// ConcU64 is a convenience wrapper around Conc(WordFromUint64(x)).
func ConcU64(x uint64) *SymbolicValue { return Conc(WordFromUint64(x)) }

// Sym wraps an opaque named source as a leaf SymbolicValue.
func Sym(tag string) *SymbolicValue { return &SymbolicValue{Kind: KindSymbol, Tag: tag} }

// Symf is Sym with fmt.Sprintf-style formatting.
func Symf(format string, args ...interface{}) *SymbolicValue {
	return Sym(fmt.Sprintf(format, args...))
}

// MakeOp builds an Op node and immediately constant-folds it when every
// operand is concrete.
func MakeOp(kind OpKind, operands ...*SymbolicValue) *SymbolicValue {
	if v, ok := tryFold(kind, operands); ok {
		return Conc(v)
	}
	return &SymbolicValue{Kind: KindOp, Op: kind, Operands: operands}
}

func tryFold(kind OpKind, operands []*SymbolicValue) (Word, bool) {
	for _, o := range operands {
		if o.Kind != KindConcrete {
			return Word{}, false
		}
	}
	vals := make([]Word, len(operands))
	for i, o := range operands {
		vals[i] = o.Concrete
	}
	switch kind {
	case OpAdd:
		return Add(vals[0], vals[1]), true
	case OpSub:
		return Sub(vals[0], vals[1]), true
	case OpMul:
		return Mul(vals[0], vals[1]), true
	case OpDiv:
		return Div(vals[0], vals[1]), true
	case OpSDiv:
		return SDiv(vals[0], vals[1]), true
	case OpMod:
		return Mod(vals[0], vals[1]), true
	case OpSMod:
		return SMod(vals[0], vals[1]), true
	case OpAddMod:
		return AddMod(vals[0], vals[1], vals[2]), true
	case OpMulMod:
		return MulMod(vals[0], vals[1], vals[2]), true
	case OpExp:
		return Exp(vals[0], vals[1]), true
	case OpSignExtend:
		return SignExtend(vals[0], vals[1]), true
	case OpAnd:
		return And(vals[0], vals[1]), true
	case OpOr:
		return Or(vals[0], vals[1]), true
	case OpXor:
		return Xor(vals[0], vals[1]), true
	case OpNot:
		return Not(vals[0]), true
	case OpByte:
		return Byte(vals[0], vals[1]), true
	case OpShl:
		return Shl(vals[0], vals[1]), true
	case OpShr:
		return Shr(vals[0], vals[1]), true
	case OpSar:
		return Sar(vals[0], vals[1]), true
	case OpLt:
		return Lt(vals[0], vals[1]), true
	case OpGt:
		return Gt(vals[0], vals[1]), true
	case OpSlt:
		return Slt(vals[0], vals[1]), true
	case OpSgt:
		return Sgt(vals[0], vals[1]), true
	case OpEq:
		return EqWord(vals[0], vals[1]), true
	case OpIsZero:
		return IsZeroWord(vals[0]), true
	default:
		// SHA3/MAPPING/CONCAT are never folded: a real keccak preimage
		// would require materializing memory contents symbolically,
		// which is out of scope for this analyzer.
		return Word{}, false
	}
}

// IsConcrete reports whether v folds to a known Word.
func (v *SymbolicValue) IsConcrete() bool { return v.Kind == KindConcrete }

// AsWord returns the concrete value and true, or the zero Word and false.
func (v *SymbolicValue) AsWord() (Word, bool) {
	if v.Kind == KindConcrete {
		return v.Concrete, true
	}
	return Word{}, false
}

// Equal is the structural equality used for dedup in storage keys and
// branch-condition memoization.
func (v *SymbolicValue) Equal(other *SymbolicValue) bool {
	if v == other {
		return true
	}
	if v == nil || other == nil {
		return false
	}
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindConcrete:
		return v.Concrete.Eq(other.Concrete)
	case KindSymbol:
		return v.Tag == other.Tag
	case KindOp:
		if v.Op != other.Op || len(v.Operands) != len(other.Operands) {
			return false
		}
		for i := range v.Operands {
			if !v.Operands[i].Equal(other.Operands[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// negated reports whether v and other are syntactically exact opposites
// of the ISZERO form produced at JUMPI forks (v == ISZERO(other) or vice
// versa), used by the interpreter's purely-syntactic contradiction check
//.
func (v *SymbolicValue) negated(other *SymbolicValue) bool {
	if v.Kind == KindOp && v.Op == OpIsZero && len(v.Operands) == 1 {
		if v.Operands[0].Equal(other) {
			return true
		}
	}
	if other.Kind == KindOp && other.Op == OpIsZero && len(other.Operands) == 1 {
		if other.Operands[0].Equal(v) {
			return true
		}
	}
	return false
}

// String renders a human-readable approximation of the expression,
// used by assembly/Yul emission and debug logging.
func (v *SymbolicValue) String() string {
	if v == nil {
		return "<nil>"
	}
	switch v.Kind {
	case KindConcrete:
		return v.Concrete.String()
	case KindSymbol:
		return v.Tag
	case KindOp:
		args := make([]string, len(v.Operands))
		for i, o := range v.Operands {
			args[i] = o.String()
		}
		return fmt.Sprintf("%s(%s)", v.Op, joinArgs(args))
	}
	return "?"
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// MappingSlot builds the MAPPING(slot, key) symbol for the idiomatic
// SHA3(concat(key, slot)) pattern.
func MappingSlot(slot, key *SymbolicValue) *SymbolicValue {
	return &SymbolicValue{Kind: KindOp, Op: OpMapping, Operands: []*SymbolicValue{slot, key}}
}

// AsMapping reports whether v is a recognized MAPPING(slot, key) node
// and returns its operands.
func (v *SymbolicValue) AsMapping() (slot, key *SymbolicValue, ok bool) {
	if v.Kind == KindOp && v.Op == OpMapping && len(v.Operands) == 2 {
		return v.Operands[0], v.Operands[1], true
	}
	return nil, nil, false
}

// Slice builds a SLICE(value, lo, hi) node standing for memory bytes
// [lo,hi) of a region that was chopped by a non-aligned write.
func Slice(value *SymbolicValue, lo, hi uint64) *SymbolicValue {
	return &SymbolicValue{Kind: KindOp, Op: OpSlice, Operands: []*SymbolicValue{value, ConcU64(lo), ConcU64(hi)}}
}

// Concat builds a CONCAT(parts...) node standing for the byte-wise
// concatenation of parts, left to right, used to reconstruct a memory
// read that spans more than one chopped region.
func Concat(parts ...*SymbolicValue) *SymbolicValue {
	if len(parts) == 1 {
		return parts[0]
	}
	return &SymbolicValue{Kind: KindOp, Op: OpConcat, Operands: parts}
}

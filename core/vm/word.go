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

import (
	"github.com/holiman/uint256"
)

// Word is a 256 bit unsigned integer with the arithmetic, bitwise,
// comparison and modular operations the EVM's ALU opcodes need. All
// arithmetic wraps modulo 2**256, exactly like the real machine; Word is
// a thin domain type over uint256.Int so the opcode bodies below read
// close to the underlying EVM instruction semantics.
type Word struct {
	v uint256.Int
}

// WordFromUint64 builds a Word from a small concrete value.
func WordFromUint64(x uint64) Word { return Word{v: *uint256.NewInt(x)} }

// WordFromBytes builds a Word from bytes, truncating/zero-extending to 32
// bytes the way CALLDATALOAD and PUSHn immediates do.
func WordFromBytes(b []byte) Word {
	var w Word
	w.v.SetBytes(b)
	return w
}

// Zero is the additive identity.
func Zero() Word { return Word{} }

// One is the multiplicative identity.
func One() Word { return WordFromUint64(1) }

// Bytes32 returns the big-endian 32 byte representation.
func (w Word) Bytes32() [32]byte { return w.v.Bytes32() }

// Bytes returns the big-endian representation with leading zero bytes
// stripped, the way big.Int.Bytes does.
func (w Word) Bytes() []byte { return w.v.Bytes() }

// Uint64 returns the low 64 bits, truncating silently (callers use this
// only for offsets/lengths already known to fit).
func (w Word) Uint64() uint64 { return w.v.Uint64() }

// Uint64WithOverflow is like Uint64 but reports whether any of the upper
// 192 bits were set.
func (w Word) Uint64WithOverflow() (uint64, bool) {
	return w.v.Uint64(), !w.v.IsUint64()
}

// IsZero reports whether w is the zero word.
func (w Word) IsZero() bool { return w.v.IsZero() }

// Eq reports structural equality of the two words' values.
func (w Word) Eq(x Word) bool { return w.v.Eq(&x.v) }

// Cmp returns -1, 0 or 1 comparing w to x as unsigned integers.
func (w Word) Cmp(x Word) int { return w.v.Cmp(&x.v) }

// String renders the word in hex, 0x-prefixed.
func (w Word) String() string { return w.v.Hex() }

func bin(f func(z, x, y *uint256.Int) *uint256.Int) func(x, y Word) Word {
	return func(x, y Word) Word {
		var z Word
		f(&z.v, &x.v, &y.v)
		return z
	}
}

// Add returns x+y mod 2**256.
func Add(x, y Word) Word { return bin((*uint256.Int).Add)(x, y) }

// Sub returns x-y mod 2**256.
func Sub(x, y Word) Word { return bin((*uint256.Int).Sub)(x, y) }

// Mul returns x*y mod 2**256.
func Mul(x, y Word) Word { return bin((*uint256.Int).Mul)(x, y) }

// Div returns the unsigned quotient x/y, or zero if y is zero (EVM rule).
func Div(x, y Word) Word { return bin((*uint256.Int).Div)(x, y) }

// SDiv is the signed (two's-complement) variant of Div.
func SDiv(x, y Word) Word { return bin((*uint256.Int).SDiv)(x, y) }

// Mod returns x mod y, or zero if y is zero.
func Mod(x, y Word) Word { return bin((*uint256.Int).Mod)(x, y) }

// SMod is the signed variant of Mod.
func SMod(x, y Word) Word { return bin((*uint256.Int).SMod)(x, y) }

// AddMod returns (x+y) mod m, with unbounded-precision intermediate
// addition as the Yellow Paper requires.
func AddMod(x, y, m Word) Word {
	var z Word
	z.v.AddMod(&x.v, &y.v, &m.v)
	return z
}

// MulMod returns (x*y) mod m, with unbounded-precision intermediate
// multiplication.
func MulMod(x, y, m Word) Word {
	var z Word
	z.v.MulMod(&x.v, &y.v, &m.v)
	return z
}

// Exp returns x**y mod 2**256; Exp(_, 0) == 1, including Exp(0,0) == 1.
func Exp(x, y Word) Word { return bin((*uint256.Int).Exp)(x, y) }

// SignExtend sign-extends x treating byte position b (0 = least
// significant byte) as the sign byte. SignExtend(31, x) == x for any x.
func SignExtend(b, x Word) Word {
	var z Word
	z.v.ExtendSign(&x.v, &b.v)
	return z
}

// And, Or, Xor are the bitwise operations.
func And(x, y Word) Word { return bin((*uint256.Int).And)(x, y) }
func Or(x, y Word) Word  { return bin((*uint256.Int).Or)(x, y) }
func Xor(x, y Word) Word { return bin((*uint256.Int).Xor)(x, y) }

// Not returns the bitwise complement of x.
func Not(x Word) Word {
	var z Word
	z.v.Not(&x.v)
	return z
}

// Byte returns the i-th byte of x counting from the most significant
// (i=0), or zero if i >= 32.
func Byte(i, x Word) Word {
	z := x
	z.v.Byte(&i.v)
	return z
}

// Shl returns x << n, dropping bits shifted past bit 255.
func Shl(n, x Word) Word {
	var z Word
	z.v.Lsh(&x.v, uint(shiftAmount(n)))
	return z
}

// Shr returns the logical right shift x >> n.
func Shr(n, x Word) Word {
	var z Word
	z.v.Rsh(&x.v, uint(shiftAmount(n)))
	return z
}

// Sar is the arithmetic (sign-preserving) right shift.
func Sar(n, x Word) Word {
	var z Word
	z.v.SRsh(&x.v, uint(shiftAmount(n)))
	return z
}

func shiftAmount(n Word) uint64 {
	v, overflow := n.Uint64WithOverflow()
	if overflow {
		return 256
	}
	return v
}

// Lt, Gt are unsigned comparisons returning the boolean as a Word (0/1).
func Lt(x, y Word) Word { return boolWord(x.v.Lt(&y.v)) }
func Gt(x, y Word) Word { return boolWord(x.v.Gt(&y.v)) }

// Slt, Sgt are signed comparisons.
func Slt(x, y Word) Word { return boolWord(x.v.Slt(&y.v)) }
func Sgt(x, y Word) Word { return boolWord(x.v.Sgt(&y.v)) }

// EqWord returns 1 if x == y else 0, as EVM's EQ opcode does (Word.Eq
// returns a plain bool for use outside opcode evaluation).
func EqWord(x, y Word) Word { return boolWord(x.v.Eq(&y.v)) }

// IsZeroWord is ISZERO's opcode-shaped sibling of Word.IsZero.
func IsZeroWord(x Word) Word { return boolWord(x.v.IsZero()) }

// Sign reports the two's-complement sign of x: -1, 0 or 1.
func Sign(x Word) int { return x.v.Sign() }

func boolWord(b bool) Word {
	if b {
		return One()
	}
	return Zero()
}

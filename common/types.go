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

// Package common holds the small, widely shared value types (hashes and
// addresses) used throughout the analyzer and its collaborators.
package common

import (
	"encoding/hex"
	"fmt"
	"regexp"
)

const (
	// HashLength is the expected length of the hash, in bytes.
	HashLength = 32
	// AddressLength is the expected length of an EVM address, in bytes.
	AddressLength = 20
)

// AddressRegex matches the canonical hex form of an address, as used by
// the CLI collaborator to tell on-chain targets from local bytecode files.
var AddressRegex = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Hash represents the 32 byte output of a keccak256 hash, a storage slot,
// a topic, or any other 256-bit value that isn't arithmetic.
type Hash [HashLength]byte

// BytesToHash returns Hash with value b.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash sets byte representation of s to hash.
// If s is larger than len(h), s will be cropped from the left.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

// SetBytes sets the hash to the value of b. If b is larger than len(h) it
// will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns the raw bytes of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex string form of h.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements the stringer interface and is used also by gl log.
func (h Hash) String() string { return h.Hex() }

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool { return h == Hash{} }

// Address represents the 20 byte address of an Ethereum account.
type Address [AddressLength]byte

// BytesToAddress returns Address with value b.
// If b is larger than len(a), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress returns Address with byte values of s.
// If s is larger than len(a), s will be cropped from the left.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// IsHexAddress verifies whether a string can represent a valid hex-encoded
// address or not.
func IsHexAddress(s string) bool {
	if has0xPrefix(s) {
		s = s[2:]
	}
	return len(s) == 2*AddressLength && isHex(s)
}

// SetBytes sets the address to the value of b. If b is larger than len(a)
// it will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// Bytes returns the raw bytes of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the 0x-prefixed hex string form of a, without EIP-55 mixed
// case checksumming (not needed for forensic analysis of bytecode).
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool { return a == Address{} }

// Big returns the address as a big-endian uint64, truncating to the low
// bytes the way solidity's `uint160(address)` cast does. Only the last 8
// bytes are meaningful for this purpose; callers needing the full value
// should use Bytes() directly.
func (a Address) Big() uint64 {
	var v uint64
	for _, b := range a[AddressLength-8:] {
		v = v<<8 | uint64(b)
	}
	return v
}

// MarshalText implements encoding.TextMarshaler.
func (h Hash) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Hash", input, h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(input []byte) error {
	return unmarshalFixedText("Address", input, a[:])
}

func unmarshalFixedText(typname string, input, out []byte) error {
	raw := input
	if has0xPrefix(string(input)) {
		raw = input[2:]
	} else {
		return fmt.Errorf("hex string without 0x prefix into Go value of type common.%s", typname)
	}
	if len(raw) != 2*len(out) {
		return fmt.Errorf("hex string has length %d, want %d for common.%s", len(raw), 2*len(out), typname)
	}
	decoded, err := hex.DecodeString(string(raw))
	if err != nil {
		return err
	}
	copy(out, decoded)
	return nil
}

// FromHex returns the bytes represented by the hexadecimal string s, which
// may or may not be 0x-prefixed and may or may not have odd length (odd
// length is zero-padded on the left).
func FromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

// CopyBytes returns an exact copy of the provided byte slice.
func CopyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// RightPadBytes zero-pads b on the right up to length l.
func RightPadBytes(b []byte, l int) []byte {
	if l <= len(b) {
		return b
	}
	out := make([]byte, l)
	copy(out, b)
	return out
}

// LeftPadBytes zero-pads b on the left up to length l.
func LeftPadBytes(b []byte, l int) []byte {
	if l <= len(b) {
		return b
	}
	out := make([]byte, l)
	copy(out[l-len(b):], b)
	return out
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isHex(str string) bool {
	if len(str)%2 != 0 {
		return false
	}
	for _, c := range []byte(str) {
		if !isHexCharacter(c) {
			return false
		}
	}
	return true
}

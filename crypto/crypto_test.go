// Copyright 2014 The go-core Authors
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

package crypto

import (
	"encoding/hex"
	"testing"
)

func TestKeccak256EmptyInput(t *testing.T) {
	// The well-known Keccak256("") digest.
	const want = "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	got := hex.EncodeToString(Keccak256())
	if got != want {
		t.Errorf("Keccak256() = %s, want %s", got, want)
	}
}

func TestKeccak256ConcatenatesAllInputs(t *testing.T) {
	joined := Keccak256([]byte("ab"), []byte("cd"))
	split := Keccak256([]byte("a"), []byte("b"), []byte("c"), []byte("d"))
	if hex.EncodeToString(joined) != hex.EncodeToString(split) {
		t.Error("Keccak256 should hash the concatenation of all its arguments")
	}
}

func TestKeccak256HashMatchesKeccak256(t *testing.T) {
	data := []byte("transfer(address,uint256)")
	h := Keccak256Hash(data)
	if hex.EncodeToString(h.Bytes()) != hex.EncodeToString(Keccak256(data)) {
		t.Error("Keccak256Hash should produce the same digest as Keccak256")
	}
}

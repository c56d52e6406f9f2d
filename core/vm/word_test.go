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

import "testing"

func TestWordAddWraps(t *testing.T) {
	max := Sub(Zero(), One())
	got := Add(max, One())
	if !got.IsZero() {
		t.Errorf("Add(maxUint256, 1) = %s, want 0", got)
	}
}

func TestWordDivByZero(t *testing.T) {
	if got := Div(WordFromUint64(5), Zero()); !got.IsZero() {
		t.Errorf("Div(5, 0) = %s, want 0", got)
	}
	if got := Mod(WordFromUint64(5), Zero()); !got.IsZero() {
		t.Errorf("Mod(5, 0) = %s, want 0", got)
	}
}

func TestWordExp(t *testing.T) {
	if got := Exp(Zero(), Zero()); !got.Eq(One()) {
		t.Errorf("Exp(0,0) = %s, want 1", got)
	}
	if got := Exp(WordFromUint64(2), WordFromUint64(10)); !got.Eq(WordFromUint64(1024)) {
		t.Errorf("Exp(2,10) = %s, want 1024", got)
	}
}

func TestSignExtend(t *testing.T) {
	x := WordFromUint64(0xff)
	got := SignExtend(Zero(), x)
	want := Sub(Zero(), One())
	if !got.Eq(want) {
		t.Errorf("SignExtend(0, 0xff) = %s, want -1 (%s)", got, want)
	}

	full := WordFromUint64(0x7f)
	if got := SignExtend(Zero(), full); !got.Eq(full) {
		t.Errorf("SignExtend(0, 0x7f) = %s, want 0x7f unchanged", got)
	}
}

func TestShifts(t *testing.T) {
	x := WordFromUint64(1)
	if got := Shl(WordFromUint64(255), x); got.Eq(Zero()) {
		t.Errorf("Shl(1, 255) should not be zero")
	}
	if got := Shl(WordFromUint64(256), x); !got.IsZero() {
		t.Errorf("Shl(1, 256) = %s, want 0 (shifted entirely out)", got)
	}
	if got := Shr(WordFromUint64(1), WordFromUint64(2)); !got.Eq(One()) {
		t.Errorf("Shr(2, 1) = %s, want 1", got)
	}
}

func TestComparisons(t *testing.T) {
	a, b := WordFromUint64(3), WordFromUint64(5)
	if !Lt(a, b).Eq(One()) {
		t.Error("Lt(3,5) should be 1")
	}
	if !Gt(b, a).Eq(One()) {
		t.Error("Gt(5,3) should be 1")
	}
	if !EqWord(a, a).Eq(One()) {
		t.Error("EqWord(3,3) should be 1")
	}
	if !IsZeroWord(Zero()).Eq(One()) {
		t.Error("IsZeroWord(0) should be 1")
	}
}

func TestBytes32RoundTrip(t *testing.T) {
	w := WordFromUint64(0xdeadbeef)
	b := w.Bytes32()
	got := WordFromBytes(b[:])
	if !got.Eq(w) {
		t.Errorf("Bytes32 round trip: got %s, want %s", got, w)
	}
}

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

func TestMakeOpFoldsConcreteOperands(t *testing.T) {
	v := MakeOp(OpAdd, ConcU64(2), ConcU64(3))
	if !v.IsConcrete() {
		t.Fatalf("MakeOp(Add, 2, 3) did not fold to concrete")
	}
	w, _ := v.AsWord()
	if !w.Eq(WordFromUint64(5)) {
		t.Errorf("got %s, want 5", w)
	}
}

func TestMakeOpKeepsSymbolicOperandsUnfolded(t *testing.T) {
	v := MakeOp(OpAdd, Sym("CALLER"), ConcU64(1))
	if v.IsConcrete() {
		t.Fatal("MakeOp with a symbolic operand should not fold")
	}
	if v.Kind != KindOp || v.Op != OpAdd {
		t.Errorf("got %+v, want an unfolded Add op node", v)
	}
}

func TestSymbolicValueEqual(t *testing.T) {
	a := MakeOp(OpAdd, Sym("X"), ConcU64(1))
	b := MakeOp(OpAdd, Sym("X"), ConcU64(1))
	c := MakeOp(OpAdd, Sym("Y"), ConcU64(1))
	if !a.Equal(b) {
		t.Error("structurally identical op trees should be Equal")
	}
	if a.Equal(c) {
		t.Error("op trees differing by a symbol tag should not be Equal")
	}
}

func TestSymbolicValueNegated(t *testing.T) {
	cond := Sym("CALLVALUE_EQ_ZERO")
	notCond := MakeOp(OpIsZero, cond)
	if !notCond.negated(cond) {
		t.Error("ISZERO(cond) should be the negation of cond")
	}
	if !cond.negated(notCond) {
		t.Error("negated should be symmetric: cond is also the negation of ISZERO(cond)")
	}
}

func TestMappingSlotRoundTrip(t *testing.T) {
	slot, key := ConcU64(3), Sym("CALLDATA[4..36]")
	m := MappingSlot(slot, key)
	gotSlot, gotKey, ok := m.AsMapping()
	if !ok {
		t.Fatal("AsMapping() on a MappingSlot result should report ok")
	}
	if !gotSlot.Equal(slot) || !gotKey.Equal(key) {
		t.Errorf("AsMapping() = (%s, %s), want (%s, %s)", gotSlot, gotKey, slot, key)
	}
}

func TestSliceAndConcat(t *testing.T) {
	v := Sym("X")
	s := Slice(v, 0, 16)
	if s.Kind != KindOp || s.Op != OpSlice {
		t.Errorf("Slice() = %+v, want a SLICE op node", s)
	}
	cat := Concat(s, Slice(v, 16, 32))
	if cat.Kind != KindOp || cat.Op != OpConcat {
		t.Errorf("Concat() = %+v, want a CONCAT op node", cat)
	}
	// Concat of a single part is just that part, not a wrapping node.
	if single := Concat(s); single != s {
		t.Error("Concat of one part should return that part unchanged")
	}
}

func TestSymbolicValueString(t *testing.T) {
	v := MakeOp(OpAdd, Sym("CALLER"), ConcU64(1))
	if got := v.String(); got != "add(CALLER, 0x1)" {
		t.Errorf("String() = %q, want %q", got, "add(CALLER, 0x1)")
	}
}

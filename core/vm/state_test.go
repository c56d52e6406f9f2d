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

func TestStackPushPop(t *testing.T) {
	st := newstack()
	st.push(ConcU64(1))
	st.push(ConcU64(2))
	v, err := st.pop()
	if err != nil || !v.Equal(ConcU64(2)) {
		t.Fatalf("pop() = %v, %v; want 2, nil", v, err)
	}
	if st.len() != 1 {
		t.Errorf("len() = %d, want 1", st.len())
	}
}

func TestStackUnderflow(t *testing.T) {
	st := newstack()
	if _, err := st.pop(); err != ErrStackUnderflow {
		t.Errorf("pop() on empty stack = %v, want ErrStackUnderflow", err)
	}
	if _, err := st.peek(0); err != ErrStackUnderflow {
		t.Errorf("peek(0) on empty stack = %v, want ErrStackUnderflow", err)
	}
}

func TestStackSwapAndDup(t *testing.T) {
	st := newstack()
	st.push(ConcU64(1))
	st.push(ConcU64(2))
	if err := st.swap(1); err != nil {
		t.Fatalf("swap(1) error: %v", err)
	}
	top, _ := st.peek(0)
	if !top.Equal(ConcU64(1)) {
		t.Errorf("after swap(1), top = %s, want 1", top)
	}
	if err := st.dup(1); err != nil {
		t.Fatalf("dup(1) error: %v", err)
	}
	if st.len() != 3 {
		t.Errorf("len() after dup = %d, want 3", st.len())
	}
}

func TestVMStateSStoreSLoad(t *testing.T) {
	st := NewVMState()
	slot := ConcU64(0)
	st.SStore(slot, ConcU64(42))
	got := st.SLoad(ConcU64(0))
	if !got.Equal(ConcU64(42)) {
		t.Errorf("SLoad after SStore = %s, want 42", got)
	}

	// Overwrite replaces, it does not append a second record.
	st.SStore(slot, ConcU64(43))
	if len(st.StorageSlots()) != 1 {
		t.Errorf("StorageSlots() len = %d, want 1 (overwrite, not append)", len(st.StorageSlots()))
	}
}

func TestVMStateSLoadUnwrittenSlot(t *testing.T) {
	st := NewVMState()
	got := st.SLoad(ConcU64(7))
	if got.Kind != KindSymbol {
		t.Errorf("SLoad of untouched slot = %s, want a STORAGE[...] symbol", got)
	}
}

func TestVMStateCloneIndependence(t *testing.T) {
	st := NewVMState()
	st.Stack.push(ConcU64(1))
	st.SStore(ConcU64(0), ConcU64(1))

	cp := st.Clone()
	cp.Stack.push(ConcU64(2))
	cp.SStore(ConcU64(0), ConcU64(99))

	if st.Stack.len() != 1 {
		t.Errorf("original stack mutated by clone's push: len = %d", st.Stack.len())
	}
	if got := st.SLoad(ConcU64(0)); !got.Equal(ConcU64(1)) {
		t.Errorf("original storage mutated by clone's SStore: got %s, want 1", got)
	}
}

func TestMarkJumpiVisitCap(t *testing.T) {
	st := NewVMState()
	for i := 0; i < 3; i++ {
		if st.markJumpi(10, true, 3) {
			t.Fatalf("markJumpi exceeded cap too early on visit %d", i)
		}
	}
	if !st.markJumpi(10, true, 3) {
		t.Error("markJumpi should report exceeded once the cap is reached")
	}
}

func TestNextCallRetIDSharedAcrossClones(t *testing.T) {
	st := NewVMState()
	a := st.nextCallRetID()
	cp := st.Clone()
	b := cp.nextCallRetID()
	if a == b {
		t.Errorf("nextCallRetID should hand out distinct ids, got %d twice", a)
	}
}

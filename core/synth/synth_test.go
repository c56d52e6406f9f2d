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

package synth

import (
	"testing"

	"github.com/coreforensic/evmforensic/core/vm"
)

func maskWord(nBytes int) vm.Word {
	b := make([]byte, nBytes)
	for i := range b {
		b[i] = 0xff
	}
	return vm.WordFromBytes(b)
}

func TestInferArgumentTypesAddressMask(t *testing.T) {
	arg := vm.MakeOp(vm.OpAnd, vm.Conc(maskWord(20)), vm.Sym("CALLDATA[0x4..+32]"))
	st := vm.NewVMState()
	st.PathConstraints = append(st.PathConstraints, arg)

	types := inferArgumentTypes(&vm.Result{Terminals: []*vm.VMState{st}})
	if len(types) != 1 || types[0] != "address" {
		t.Fatalf("got %v, want [address]", types)
	}
}

func TestInferArgumentTypesPlainUint256(t *testing.T) {
	st := vm.NewVMState()
	st.PathConstraints = append(st.PathConstraints, vm.Sym("CALLDATA[0x4..+32]"))

	types := inferArgumentTypes(&vm.Result{Terminals: []*vm.VMState{st}})
	if len(types) != 1 || types[0] != "uint256" {
		t.Fatalf("got %v, want [uint256]", types)
	}
}

func TestInferArgumentTypesOrdersByOffset(t *testing.T) {
	st := vm.NewVMState()
	st.PathConstraints = append(st.PathConstraints,
		vm.Sym("CALLDATA[0x24..+32]"),
		vm.Sym("CALLDATA[0x4..+32]"),
	)
	types := inferArgumentTypes(&vm.Result{Terminals: []*vm.VMState{st}})
	if len(types) != 2 {
		t.Fatalf("got %d types, want 2", len(types))
	}
}

func TestClassifyMutabilityPureFunction(t *testing.T) {
	st := vm.NewVMState()
	st.HaltReason = vm.HaltReturn
	st.ReturnData = vm.ConcU64(1)
	pure, view, payable := classifyMutability(&vm.Result{Terminals: []*vm.VMState{st}})
	if !pure || !view || payable {
		t.Errorf("got pure=%v view=%v payable=%v, want pure=true view=true payable=false", pure, view, payable)
	}
}

func TestClassifyMutabilityStorageWriteIsNotPureOrView(t *testing.T) {
	st := vm.NewVMState()
	st.SStore(vm.ConcU64(0), vm.ConcU64(1))
	st.HaltReason = vm.HaltStop
	pure, view, _ := classifyMutability(&vm.Result{Terminals: []*vm.VMState{st}})
	if pure || view {
		t.Errorf("got pure=%v view=%v, want both false after an SSTORE", pure, view)
	}
}

func TestClassifyMutabilityPayableRequiresNoCallvalueCheck(t *testing.T) {
	st := vm.NewVMState()
	st.SStore(vm.ConcU64(0), vm.ConcU64(1))
	// No CALLVALUE-vs-zero comparison anywhere in this state's path: a
	// storage-writing function with no observed guard is payable.
	_, _, payable := classifyMutability(&vm.Result{Terminals: []*vm.VMState{st}})
	if !payable {
		t.Error("a storage write with no callvalue check recorded should classify as payable")
	}

	guarded := vm.NewVMState()
	guarded.SStore(vm.ConcU64(0), vm.ConcU64(1))
	guarded.PathConstraints = append(guarded.PathConstraints,
		vm.MakeOp(vm.OpIsZero, vm.Sym("CALLVALUE")))
	_, _, guardedPayable := classifyMutability(&vm.Result{Terminals: []*vm.VMState{guarded}})
	if guardedPayable {
		t.Error("a storage write with an observed ISZERO(CALLVALUE) guard should not classify as payable")
	}
}

func TestCollectTerminalsDedupsReverts(t *testing.T) {
	a := vm.NewVMState()
	a.PC = 10
	a.HaltReason = vm.HaltRevert
	b := vm.NewVMState()
	b.PC = 10
	b.HaltReason = vm.HaltRevert

	reverts, _ := collectTerminals(&vm.Result{Terminals: []*vm.VMState{a, b}})
	if len(reverts) != 1 || reverts[0] != 10 {
		t.Fatalf("got %v, want a single revert at pc 10", reverts)
	}
}

func TestCollectSlotsRecognizesMapping(t *testing.T) {
	mapping := vm.MappingSlot(vm.ConcU64(3), vm.Sym("CALLDATA[0x4..+32]"))
	slots := collectSlots([]*vm.SymbolicValue{mapping})
	if len(slots) != 1 || !slots[0].IsMapping {
		t.Fatalf("got %+v, want a single mapping-recognized slot", slots)
	}
	if slots[0].KeyType != "uint256" {
		t.Errorf("KeyType = %q, want uint256 (key sourced from calldata)", slots[0].KeyType)
	}
}

func TestGasBoundsEmptyResult(t *testing.T) {
	min, max := gasBounds(&vm.Result{})
	if min != 0 || max != 0 {
		t.Errorf("gasBounds of an empty result = (%d,%d), want (0,0)", min, max)
	}
}

func TestSynthesizeSelectorFields(t *testing.T) {
	st := vm.NewVMState()
	st.HaltReason = vm.HaltStop
	sel := [4]byte{0xde, 0xad, 0xbe, 0xef}
	snap := Synthesize(0x40, sel, true, &vm.Result{Terminals: []*vm.VMState{st}})
	if snap.Selector != sel || !snap.HasSelector || snap.EntryPC != 0x40 {
		t.Errorf("got %+v, want selector %x at entry 0x40", snap, sel)
	}
}

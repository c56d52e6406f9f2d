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

// Package synth turns one function's set of explored terminal states into
// a FunctionSnapshot: argument types, mutability, storage facets, events,
// reverts and a gas bound.
package synth

import (
	"sort"
	"strconv"
	"strings"

	"github.com/coreforensic/evmforensic/core/vm"
)

// StorageSlot describes one slot touched by the function, exposing the
// mapping(slot, key) shape when the slot was recognized as one expose as mapping at slot s keyed by
// type-of-k").
type StorageSlot struct {
	Slot        string
	IsMapping   bool
	MappingSlot string
	KeyType     string
}

// EventFacet is one LOGn call site.
type EventFacet struct {
	PC            uint64
	Topic0        string // hex-encoded candidate selector, empty if not concrete
	IndexedCount  int
	AnonymousWarn bool
}

// FunctionSnapshot is the recovered ABI/behavior profile of one function.
type FunctionSnapshot struct {
	Selector        [4]byte
	HasSelector     bool
	EntryPC         uint64
	ArgumentTypes   []string
	IsPayable       bool
	IsView          bool
	IsPure          bool
	StorageReads    []StorageSlot
	StorageWrites   []StorageSlot
	EmittedEvents   []EventFacet
	PossibleReverts []uint64
	GasMin, GasMax  uint64
	Returns         []string
}

// Synthesize builds a FunctionSnapshot from the terminal states one call
// to vm.Run produced for a function rooted at entryPC.
func Synthesize(entryPC uint64, selector [4]byte, hasSelector bool, result *vm.Result) FunctionSnapshot {
	fn := FunctionSnapshot{Selector: selector, HasSelector: hasSelector, EntryPC: entryPC}

	fn.ArgumentTypes = inferArgumentTypes(result)
	fn.StorageReads = dedupSlots(collectSlots(allReadSlots(result)))
	fn.StorageWrites = dedupSlots(collectSlots(allWrittenSlots(result)))
	fn.EmittedEvents = collectEvents(result)
	fn.PossibleReverts, fn.Returns = collectTerminals(result)
	fn.IsPure, fn.IsView, fn.IsPayable = classifyMutability(result)
	fn.GasMin, fn.GasMax = gasBounds(result)

	return fn
}

// --- argument type inference ---

type argGuess struct {
	tag        string
	maskBytes  int // 0 means no AND mask seen
	signExtend int // -1 means no SIGNEXTEND seen, else the byte position
}

func inferArgumentTypes(result *vm.Result) []string {
	seen := map[string]argGuess{}
	order := []string{}
	for _, st := range result.Terminals {
		for _, root := range traceRoots(st) {
			walkForCalldata(root, nil, -1, func(g argGuess) {
				if _, ok := seen[g.tag]; !ok {
					order = append(order, g.tag)
				}
				seen[g.tag] = g
			})
		}
	}
	sort.Slice(order, func(i, j int) bool { return calldataOffset(order[i]) < calldataOffset(order[j]) })

	types := make([]string, 0, len(order))
	for _, tag := range order {
		g := seen[tag]
		types = append(types, argType(g))
	}
	return types
}

func argType(g argGuess) string {
	switch {
	case g.signExtend >= 0:
		return "int" + strconv.Itoa(g.signExtend*8+8)
	case g.maskBytes == 20:
		return "address"
	case g.maskBytes > 0:
		return "uint" + strconv.Itoa(g.maskBytes*8)
	default:
		return "uint256"
	}
}

// calldataOffset extracts the leading hex/decimal offset from a tag like
// "CALLDATA[0x4..+32]" for ordering; non-numeric offsets sort last.
func calldataOffset(tag string) int {
	inner := strings.TrimPrefix(tag, "CALLDATA[")
	idx := strings.Index(inner, "..")
	if idx < 0 {
		return 1 << 30
	}
	off := strings.TrimPrefix(inner[:idx], "0x")
	n, err := strconv.ParseInt(off, 16, 64)
	if err != nil {
		return 1 << 30
	}
	return int(n)
}

func walkForCalldata(v *vm.SymbolicValue, mask *vm.Word, signExtendByte int, emit func(argGuess)) {
	if v == nil {
		return
	}
	switch v.Kind {
	case vm.KindSymbol:
		if strings.HasPrefix(v.Tag, "CALLDATA[") {
			g := argGuess{tag: v.Tag, signExtend: signExtendByte}
			if mask != nil {
				if k, ok := maskByteWidth(*mask); ok {
					g.maskBytes = k
				}
			}
			emit(g)
		}
	case vm.KindOp:
		switch v.Op {
		case vm.OpAnd:
			if len(v.Operands) == 2 {
				if w, ok := v.Operands[0].AsWord(); ok {
					walkForCalldata(v.Operands[1], &w, signExtendByte, emit)
					return
				}
				if w, ok := v.Operands[1].AsWord(); ok {
					walkForCalldata(v.Operands[0], &w, signExtendByte, emit)
					return
				}
			}
		case vm.OpSignExtend:
			if len(v.Operands) == 2 {
				if b, ok := v.Operands[0].AsWord(); ok {
					walkForCalldata(v.Operands[1], mask, int(b.Uint64()), emit)
					return
				}
			}
		}
		for _, o := range v.Operands {
			walkForCalldata(o, mask, signExtendByte, emit)
		}
	}
}

func maskByteWidth(w vm.Word) (int, bool) {
	b := w.Bytes()
	if len(b) == 0 {
		return 0, false
	}
	for _, by := range b {
		if by != 0xff {
			return 0, false
		}
	}
	return len(b), true
}

// --- storage facets ---

func allWrittenSlots(result *vm.Result) []*vm.SymbolicValue {
	var out []*vm.SymbolicValue
	for _, st := range result.Terminals {
		out = append(out, st.StorageSlots()...)
	}
	return out
}

func allReadSlots(result *vm.Result) []*vm.SymbolicValue {
	var out []*vm.SymbolicValue
	for _, st := range result.Terminals {
		out = append(out, st.StorageReads...)
	}
	return out
}

func collectSlots(slots []*vm.SymbolicValue) []StorageSlot {
	out := make([]StorageSlot, 0, len(slots))
	for _, slot := range slots {
		facet := StorageSlot{Slot: slot.String()}
		if s, k, ok := slot.AsMapping(); ok {
			facet.IsMapping = true
			facet.MappingSlot = s.String()
			facet.KeyType = "bytes32"
			if k.Kind == vm.KindSymbol && strings.HasPrefix(k.Tag, "CALLDATA[") {
				facet.KeyType = "uint256"
			}
		}
		out = append(out, facet)
	}
	return out
}

func dedupSlots(slots []StorageSlot) []StorageSlot {
	seen := map[string]bool{}
	out := make([]StorageSlot, 0, len(slots))
	for _, s := range slots {
		if seen[s.Slot] {
			continue
		}
		seen[s.Slot] = true
		out = append(out, s)
	}
	return out
}

// --- events ---

func collectEvents(result *vm.Result) []EventFacet {
	seen := map[uint64]bool{}
	var out []EventFacet
	for _, st := range result.Terminals {
		for _, ev := range st.Events {
			if seen[ev.PC] {
				continue
			}
			seen[ev.PC] = true
			facet := EventFacet{PC: ev.PC, IndexedCount: len(ev.Topics)}
			if len(ev.Topics) == 0 {
				facet.AnonymousWarn = true
			} else if w, ok := ev.Topics[0].AsWord(); ok {
				facet.Topic0 = w.String()
				facet.IndexedCount--
			}
			out = append(out, facet)
		}
	}
	return out
}

// --- terminals: reverts and returns ---

func collectTerminals(result *vm.Result) ([]uint64, []string) {
	var reverts []uint64
	var returns []string
	seenRevert := map[uint64]bool{}
	for _, st := range result.Terminals {
		switch st.HaltReason {
		case vm.HaltRevert:
			if !seenRevert[st.PC] {
				seenRevert[st.PC] = true
				reverts = append(reverts, st.PC)
			}
		case vm.HaltReturn:
			returns = append(returns, describeReturn(st.ReturnData))
		}
	}
	return reverts, dedupStrings(returns)
}

func describeReturn(v *vm.SymbolicValue) string {
	if v == nil {
		return "bytes"
	}
	if v.Kind == vm.KindConcrete {
		return "bytes32"
	}
	return "bytes"
}

func dedupStrings(in []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// --- mutability ---

func classifyMutability(result *vm.Result) (pure, view, payable bool) {
	hasStorageWrite, hasLog, hasCallWithValue, hasCreate, hasSelfdestruct := false, false, false, false, false
	hasStorageRead, hasBalance, hasBlockCtx := false, false, false
	callvalueComparedToZero := false

	for _, st := range result.Terminals {
		if len(st.StorageSlots()) > 0 {
			hasStorageWrite = true
		}
		if len(st.StorageReads) > 0 {
			hasStorageRead = true
		}
		if len(st.Events) > 0 {
			hasLog = true
		}
		if st.HaltReason == vm.HaltSelfdestruct {
			hasSelfdestruct = true
		}
		for _, c := range st.CallsMade {
			switch c.Kind {
			case vm.CREATE, vm.CREATE2:
				hasCreate = true
			default:
				if c.Value != nil {
					if w, ok := c.Value.AsWord(); !ok || !w.IsZero() {
						hasCallWithValue = true
					}
				}
			}
		}
		for _, root := range traceRoots(st) {
			if referencesTag(root, "BALANCE(") {
				hasBalance = true
			}
			if referencesBlockContext(root) {
				hasBlockCtx = true
			}
			if referencesCallvalueCheck(root) {
				callvalueComparedToZero = true
			}
		}
	}

	pure = !hasStorageWrite && !hasStorageRead && !hasBalance && !hasCallWithValue &&
		!hasCreate && !hasBlockCtx && len(result.Terminals) > 0
	for _, st := range result.Terminals {
		if len(st.CallsMade) > 0 {
			pure = false
		}
	}
	view = !hasStorageWrite && !hasLog && !hasCallWithValue && !hasCreate && !hasSelfdestruct
	payable = !view && !callvalueComparedToZero
	return pure, view, payable
}

func traceRoots(st *vm.VMState) []*vm.SymbolicValue {
	var roots []*vm.SymbolicValue
	roots = append(roots, st.PathConstraints...)
	for _, ev := range st.Events {
		roots = append(roots, ev.Topics...)
		roots = append(roots, ev.Data)
	}
	if st.ReturnData != nil {
		roots = append(roots, st.ReturnData)
	}
	return roots
}

func referencesTag(v *vm.SymbolicValue, prefix string) bool {
	if v == nil {
		return false
	}
	if v.Kind == vm.KindSymbol && strings.HasPrefix(v.Tag, prefix) {
		return true
	}
	for _, o := range v.Operands {
		if referencesTag(o, prefix) {
			return true
		}
	}
	return false
}

var blockContextTags = []string{"TIMESTAMP", "NUMBER", "DIFFICULTY", "GASLIMIT", "CHAINID", "COINBASE", "BASEFEE", "BLOCKHASH("}

func referencesBlockContext(v *vm.SymbolicValue) bool {
	if v == nil {
		return false
	}
	if v.Kind == vm.KindSymbol {
		for _, tag := range blockContextTags {
			if v.Tag == tag || strings.HasPrefix(v.Tag, tag) {
				return true
			}
		}
	}
	for _, o := range v.Operands {
		if referencesBlockContext(o) {
			return true
		}
	}
	return false
}

// referencesCallvalueCheck reports whether v is (or contains) a
// comparison of CALLVALUE against zero, the payable-detection signal:
// a function is payable only if CALLVALUE is not compared to zero.
func referencesCallvalueCheck(v *vm.SymbolicValue) bool {
	if v == nil || v.Kind != vm.KindOp {
		return false
	}
	if v.Op == vm.OpIsZero && len(v.Operands) == 1 {
		if isCallvalue(v.Operands[0]) {
			return true
		}
	}
	if v.Op == vm.OpEq && len(v.Operands) == 2 {
		if isCallvalue(v.Operands[0]) || isCallvalue(v.Operands[1]) {
			return true
		}
	}
	for _, o := range v.Operands {
		if referencesCallvalueCheck(o) {
			return true
		}
	}
	return false
}

func isCallvalue(v *vm.SymbolicValue) bool {
	return v != nil && v.Kind == vm.KindSymbol && v.Tag == "CALLVALUE"
}

// --- gas bounds ---

func gasBounds(result *vm.Result) (min, max uint64) {
	if len(result.Terminals) == 0 {
		return 0, 0
	}
	min = ^uint64(0)
	for _, st := range result.Terminals {
		cost := uint64(len(st.PathConstraints)) * vm.GasClass(vm.JUMPI)
		if cost < min {
			min = cost
		}
		if cost > max {
			max = cost
		}
	}
	return min, max
}

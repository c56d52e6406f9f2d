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

// Stack is a LIFO of SymbolicValue. push does not enforce
// params.StackLimit; the stack grows without bound.
type Stack struct {
	data []*SymbolicValue
}

func newstack() *Stack { return &Stack{} }

func (st *Stack) push(v *SymbolicValue) { st.data = append(st.data, v) }

func (st *Stack) pop() (*SymbolicValue, error) {
	n := len(st.data)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	v := st.data[n-1]
	st.data = st.data[:n-1]
	return v, nil
}

func (st *Stack) peek(n int) (*SymbolicValue, error) {
	idx := len(st.data) - 1 - n
	if idx < 0 {
		return nil, ErrStackUnderflow
	}
	return st.data[idx], nil
}

// swap exchanges the top element with the element n positions below it
// (n=1 is SWAP1).
func (st *Stack) swap(n int) error {
	idx := len(st.data) - 1 - n
	if idx < 0 {
		return ErrStackUnderflow
	}
	top := len(st.data) - 1
	st.data[top], st.data[idx] = st.data[idx], st.data[top]
	return nil
}

// dup pushes a copy of the element n positions below the top (n=1 is DUP1).
func (st *Stack) dup(n int) error {
	idx := len(st.data) - n
	if idx < 0 {
		return ErrStackUnderflow
	}
	st.push(st.data[idx])
	return nil
}

func (st *Stack) len() int { return len(st.data) }

func (st *Stack) clone() *Stack {
	cp := make([]*SymbolicValue, len(st.data))
	copy(cp, st.data)
	return &Stack{data: cp}
}

// storageKV is one SSTORE record. Storage is kept as a slice rather than a
// Go map because SymbolicValue isn't comparable (it contains a slice
// field); lookups use SymbolicValue.Equal for structural identity.
type storageKV struct {
	slot, value *SymbolicValue
}

// Event is a LOGn record: the emitting PC, the indexed topics and the
// non-indexed data expression.
type Event struct {
	PC     uint64
	Topics []*SymbolicValue
	Data   *SymbolicValue
}

// Call is one CALL/CALLCODE/DELEGATECALL/STATICCALL/CREATE/CREATE2 record
// observed during interpretation, kept for the synthesizer's "external
// calls made" and mutability facets. Value is non-nil only for CALL,
// CALLCODE and CREATE/CREATE2, which carry an explicit wei amount.
type Call struct {
	PC     uint64
	Kind   OpCode
	Target *SymbolicValue
	Value  *SymbolicValue
	RetID  int
}

// jumpiVisit is the (pc, polarity) key the visited_jumpi loop breaker
// counts per branch.
type jumpiVisit struct {
	pc       uint64
	polarity bool
}

// HaltReason classifies why a VMState stopped advancing.
type HaltReason int

const (
	HaltNone HaltReason = iota
	HaltStop
	HaltReturn
	HaltRevert
	HaltSelfdestruct
	HaltInvalid
	HaltTruncatedSteps
	HaltTruncatedForks
	HaltInvariant
)

func (r HaltReason) String() string {
	switch r {
	case HaltStop:
		return "STOP"
	case HaltReturn:
		return "RETURN"
	case HaltRevert:
		return "REVERT"
	case HaltSelfdestruct:
		return "SELFDESTRUCT"
	case HaltInvalid:
		return "INVALID"
	case HaltTruncatedSteps:
		return "TRUNCATED(steps)"
	case HaltTruncatedForks:
		return "TRUNCATED(forks)"
	case HaltInvariant:
		return "INVARIANT"
	default:
		return "RUNNING"
	}
}

// VMState is one node of the symbolic interpreter's exploration tree
//. Every fork clones the state it branches from;
// states are never mutated once shared between branches.
type VMState struct {
	Stack      *Stack
	Memory     *Memory
	storage    []storageKV
	PC         uint64
	Halted     bool
	HaltReason HaltReason
	ReturnData *SymbolicValue
	Events     []Event
	CallsMade  []Call
	StorageReads []*SymbolicValue
	Depth      int

	// PathConstraints accumulates the AND of every JUMPI branch
	// condition taken to reach this state, used only for the syntactic
	// contradiction check at the next fork.
	PathConstraints []*SymbolicValue

	// visited counts, per (pc, polarity) key, how many times this
	// branch has taken that JUMPI edge.
	visited map[jumpiVisit]int

	nextCallID *int // shared counter across a function's whole exploration tree
}

// NewVMState builds the entry state for analysis starting at pc 0 with an
// empty stack, empty memory and empty storage.
func NewVMState() *VMState {
	counter := 0
	return &VMState{
		Stack:      newstack(),
		Memory:     NewMemory(),
		visited:    make(map[jumpiVisit]int),
		nextCallID: &counter,
	}
}

// Clone returns a deep-enough copy for independent forward exploration:
// the stack and visited-count map are copied, memory/storage/events are
// copied by value-slice (their *SymbolicValue leaves are immutable trees
// and safe to share).
func (s *VMState) Clone() *VMState {
	cp := &VMState{
		Stack:           s.Stack.clone(),
		Memory:          &Memory{regions: append([]memRegion(nil), s.Memory.regions...)},
		storage:         append([]storageKV(nil), s.storage...),
		PC:              s.PC,
		Halted:          s.Halted,
		HaltReason:      s.HaltReason,
		ReturnData:      s.ReturnData,
		Events:          append([]Event(nil), s.Events...),
		CallsMade:       append([]Call(nil), s.CallsMade...),
		StorageReads:    append([]*SymbolicValue(nil), s.StorageReads...),
		Depth:           s.Depth,
		PathConstraints: append([]*SymbolicValue(nil), s.PathConstraints...),
		visited:         make(map[jumpiVisit]int, len(s.visited)),
		nextCallID:      s.nextCallID,
	}
	for k, v := range s.visited {
		cp.visited[k] = v
	}
	return cp
}

// SLoad returns the last value written to slot, or Symbol(STORAGE[slot])
// if it was never written").
func (s *VMState) SLoad(slot *SymbolicValue) *SymbolicValue {
	s.StorageReads = append(s.StorageReads, slot)
	for i := len(s.storage) - 1; i >= 0; i-- {
		if s.storage[i].slot.Equal(slot) {
			return s.storage[i].value
		}
	}
	return Symf("STORAGE[%s]", slot.String())
}

// SStore records slot := value, replacing any prior record for the same
// slot (by structural equality) and appending otherwise. Distinct
// symbolic slots are never conflated even if they might alias in reality
//.
func (s *VMState) SStore(slot, value *SymbolicValue) {
	for i := range s.storage {
		if s.storage[i].slot.Equal(slot) {
			s.storage[i].value = value
			return
		}
	}
	s.storage = append(s.storage, storageKV{slot: slot, value: value})
}

// StorageSlots returns every slot this state (and its ancestors) wrote to,
// used by the synthesizer's storage_writes facet (storage_reads comes from
// StorageReads).
func (s *VMState) StorageSlots() []*SymbolicValue {
	out := make([]*SymbolicValue, len(s.storage))
	for i, kv := range s.storage {
		out[i] = kv.slot
	}
	return out
}

// markJumpi records one more visit to (pc, polarity) and reports whether
// the visited_jumpi cap (maxJumpiVisits) was already reached before this
// call, in which case the caller should prune rather than take the edge
// again.
func (s *VMState) markJumpi(pc uint64, polarity bool, maxVisits int) (exceeded bool) {
	key := jumpiVisit{pc: pc, polarity: polarity}
	if s.visited[key] >= maxVisits {
		return true
	}
	s.visited[key]++
	return false
}

// nextCallRetID hands out a fresh, monotonically increasing id for
// EXTCALL_RET(id, ...) symbols, shared across every branch of one
// function's exploration tree so ids never collide between siblings.
func (s *VMState) nextCallRetID() int {
	id := *s.nextCallID
	*s.nextCallID++
	return id
}

func (s *VMState) String() string {
	return fmt.Sprintf("VMState{pc=%d depth=%d stack=%d halted=%v(%s)}",
		s.PC, s.Depth, s.Stack.len(), s.Halted, s.HaltReason)
}

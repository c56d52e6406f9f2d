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

// Options bounds the resources one Run call may consume; these budgets
// stop exploration rather than charge gas.
type Options struct {
	StepBudget     int // total instructions executed across every branch
	ForkBudget     int // total states ever created (the worklist's leaves)
	MaxJumpiVisits int // visited_jumpi cap per (pc, polarity)
}

// DefaultOptions returns the default step, fork and jumpi-visit budgets.
func DefaultOptions() Options {
	return Options{StepBudget: 150000, ForkBudget: 1024, MaxJumpiVisits: 3}
}

// Edge is one observed control-flow transition, materialized only from
// transitions the interpreter actually took. JUMPI contributes a "cond"
// edge for a taken jump and a "!cond" edge for a taken fallthrough; a
// branch that is pruned or ruled out by a concrete condition contributes
// no edge. JUMP
// contributes one "unconditional" edge per resolved target; every other
// fallthrough into a JUMPDEST contributes a "fallthrough" edge; the five
// halting opcodes contribute a self-edge labeled with their own mnemonic.
type Edge struct {
	From uint64
	To   uint64
	Cond *SymbolicValue
	Kind string
}

// Result is everything one Run call produced.
type Result struct {
	Terminals []*VMState
	Edges     []Edge
	Warnings  []error
}

// Run explores every reachable terminal state starting from start, over
// the instructions decoded from code, within opts' budgets. The worklist is FIFO; a JUMPI fork enqueues its taken branch
// before its fallthrough branch, at the back of the worklist, so branches
// are explored in breadth-first order.
func Run(code []byte, start *VMState, opts Options) *Result {
	idx := newInstructionIndex(code)
	jumpdests := JumpdestSet(Disassemble(code))

	res := &Result{}
	worklist := []*VMState{start}
	steps := 0
	leaves := 1

	truncatedSteps, truncatedForks := false, false

	for len(worklist) > 0 {
		if steps >= opts.StepBudget {
			truncatedSteps = true
			break
		}
		st := worklist[0]
		worklist = worklist[1:]

		for {
			if st.Halted {
				res.Terminals = append(res.Terminals, st)
				break
			}
			if steps >= opts.StepBudget {
				st = haltState(st, HaltTruncatedSteps)
				res.Terminals = append(res.Terminals, st)
				truncatedSteps = true
				break
			}
			in, ok := idx.at(st.PC)
			if !ok {
				st = haltState(st, HaltInvalid)
				res.Terminals = append(res.Terminals, st)
				break
			}
			steps++

			outcome := step(st, in, idx, jumpdests, opts, &leaves, &res.Edges)
			if outcome.halted {
				res.Terminals = append(res.Terminals, st)
				break
			}
			if len(outcome.forks) > 0 {
				if leaves+len(outcome.forks) > opts.ForkBudget {
					truncatedForks = true
					for _, f := range outcome.forks {
						f = haltState(f, HaltTruncatedForks)
						res.Terminals = append(res.Terminals, f)
					}
					break
				}
				leaves += len(outcome.forks)
				worklist = append(worklist, outcome.forks...)
				break
			}
			// outcome carried neither halted nor forks: st was advanced
			// in place, keep stepping the same branch.
		}
	}

	if truncatedSteps {
		res.Warnings = append(res.Warnings, &TruncatedError{Reason: "step_budget"})
	}
	if truncatedForks {
		res.Warnings = append(res.Warnings, &TruncatedError{Reason: "fork_budget"})
	}
	return res
}

func haltState(st *VMState, reason HaltReason) *VMState {
	st.Halted = true
	st.HaltReason = reason
	return st
}

// stepOutcome tells Run what to do after one instruction: either st was
// mutated in place and should continue (the common case), st was halted,
// or st forked into zero or more successor states that replace it in the
// worklist.
type stepOutcome struct {
	halted bool
	forks  []*VMState
}

// step executes exactly one instruction against st, mutating it in place
// for straight-line opcodes or producing forks for JUMP/JUMPI.
func step(st *VMState, in Instruction, idx *instructionIndex, jumpdests map[uint64]bool, opts Options, leaves *int, edges *[]Edge) stepOutcome {
	op := in.Opcode

	if kind, ok := aluOps[op]; ok {
		pops, _, _ := Arity(op)
		if err := opGeneric(st, kind, pops); err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.PC = nextPC(in)
		return fallthroughOutcome(st, in, idx, jumpdests, edges)
	}

	switch op {
	case STOP:
		haltState(st, HaltStop)
		*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "STOP"})
		return stepOutcome{halted: true}

	case POP:
		if _, err := st.Stack.pop(); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case MLOAD:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.Stack.push(loadMemory(st, off, ConcU64(32)))

	case MSTORE:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		val, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		storeMemory(st, off, 32, val)

	case MSTORE8:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		val, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		storeMemory(st, off, 1, MakeOp(OpAnd, val, ConcU64(0xff)))

	case MSIZE:
		st.Stack.push(ConcU64(st.Memory.Len()))

	case SLOAD:
		slot, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.Stack.push(st.SLoad(slot))

	case SSTORE:
		slot, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		val, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.SStore(slot, val)

	case JUMPDEST:
		// no-op

	case PC:
		st.Stack.push(ConcU64(in.PC))

	case GAS:
		st.Stack.push(Sym("GAS"))

	case JUMP:
		return doJump(st, in, jumpdests, edges)

	case JUMPI:
		return doJumpi(st, in, jumpdests, opts, edges)

	case SHA3:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		length, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.Stack.push(hashMemory(st, off, length))

	case ADDRESS, ORIGIN, CALLER, CALLVALUE, CALLDATASIZE, CODESIZE, GASPRICE,
		RETURNDATASIZE, COINBASE, TIMESTAMP, NUMBER, DIFFICULTY, GASLIMIT,
		CHAINID, SELFBALANCE, BASEFEE:
		st.Stack.push(Sym(op.String()))

	case CALLDATALOAD:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.Stack.push(Symf("CALLDATA[%s..+32]", off))

	case CALLDATACOPY:
		if err := copyToMemory(st, "CALLDATA"); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case CODECOPY:
		if err := copyToMemory(st, "CODE"); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case RETURNDATACOPY:
		if err := copyToMemory(st, "RETURNDATA"); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case EXTCODECOPY:
		addr, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		if err := copyToMemory(st, fmt.Sprintf("EXTCODE(%s)", addr)); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case BALANCE, EXTCODESIZE, EXTCODEHASH:
		addr, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.Stack.push(Symf("%s(%s)", op, addr))

	case BLOCKHASH:
		n, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.Stack.push(Symf("BLOCKHASH(%s)", n))

	case LOG0, LOG0 + 1, LOG0 + 2, LOG0 + 3, LOG0 + 4:
		if err := doLog(st, in.PC, op); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case CALL, CALLCODE, DELEGATECALL, STATICCALL:
		if err := doCall(st, in.PC, op); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case CREATE, CREATE2:
		if err := doCreate(st, in.PC, op); err != nil {
			return haltInvariant(st, in.PC, err)
		}

	case RETURN:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		length, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.ReturnData = loadMemory(st, off, length)
		haltState(st, HaltReturn)
		*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "RETURN"})
		return stepOutcome{halted: true}

	case REVERT:
		off, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		length, err := st.Stack.pop()
		if err != nil {
			return haltInvariant(st, in.PC, err)
		}
		st.ReturnData = loadMemory(st, off, length)
		haltState(st, HaltRevert)
		*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "REVERT"})
		return stepOutcome{halted: true}

	case SELFDESTRUCT:
		if _, err := st.Stack.pop(); err != nil {
			return haltInvariant(st, in.PC, err)
		}
		haltState(st, HaltSelfdestruct)
		*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "SELFDESTRUCT"})
		return stepOutcome{halted: true}

	case INVALID:
		haltState(st, HaltInvalid)
		*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "INVALID"})
		return stepOutcome{halted: true}

	default:
		switch {
		case op.IsPush():
			st.Stack.push(Conc(WordFromBytes(in.Immediate)))
		case op.IsDup():
			if err := st.Stack.dup(op.DupPos()); err != nil {
				return haltInvariant(st, in.PC, err)
			}
		case op.IsSwap():
			if err := st.Stack.swap(op.SwapPos()); err != nil {
				return haltInvariant(st, in.PC, err)
			}
		default:
			haltState(st, HaltInvalid)
			*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "INVALID"})
			return stepOutcome{halted: true}
		}
	}

	st.PC = nextPC(in)
	return fallthroughOutcome(st, in, idx, jumpdests, edges)
}

// fallthroughOutcome records a "fallthrough" edge whenever straight-line
// execution crosses into a JUMPDEST, then reports the instruction continues
// in-place, unless PC has run off the end of the code, which halts the
// same way falling off the end of real EVM code does.
func fallthroughOutcome(st *VMState, in Instruction, idx *instructionIndex, jumpdests map[uint64]bool, edges *[]Edge) stepOutcome {
	if jumpdests[st.PC] {
		*edges = append(*edges, Edge{From: in.PC, To: st.PC, Kind: "fallthrough"})
	}
	if st.PC >= uint64(len(idx.code)) {
		haltState(st, HaltStop)
		return stepOutcome{halted: true}
	}
	return stepOutcome{}
}

func haltInvariant(st *VMState, pc uint64, err error) stepOutcome {
	haltState(st, HaltInvariant)
	st.ReturnData = Symf("%v", &InternalInvariantError{PC: pc, Err: err})
	return stepOutcome{halted: true}
}

// aluOps maps each purely-arithmetic/bitwise/comparison opcode to the
// OpKind MakeOp should build. Operand order matches MakeOp/tryFold
// exactly: each pop is appended to the operand list in pop order, which
// for every op in this table is also the order its Word-level semantic
// function expects (e.g. BYTE pops the index first, then the value, and
// Byte(i, x Word) takes the index first).
var aluOps = map[OpCode]OpKind{
	ADD: OpAdd, SUB: OpSub, MUL: OpMul, DIV: OpDiv, SDIV: OpSDiv, MOD: OpMod, SMOD: OpSMod,
	ADDMOD: OpAddMod, MULMOD: OpMulMod, EXP: OpExp, SIGNEXTEND: OpSignExtend,
	LT: OpLt, GT: OpGt, SLT: OpSlt, SGT: OpSgt, EQ: OpEq, ISZERO: OpIsZero,
	AND: OpAnd, OR: OpOr, XOR: OpXor, NOT: OpNot, BYTE: OpByte,
	SHL: OpShl, SHR: OpShr, SAR: OpSar,
}

func opGeneric(st *VMState, kind OpKind, n int) error {
	operands := make([]*SymbolicValue, n)
	for i := 0; i < n; i++ {
		v, err := st.Stack.pop()
		if err != nil {
			return err
		}
		operands[i] = v
	}
	st.Stack.push(MakeOp(kind, operands...))
	return nil
}

// loadMemory reads size bytes from off, falling back to an opaque symbol
// when either isn't concrete (a length-unknown memory read can't be
// represented precisely without materializing every possible length).
func loadMemory(st *VMState, off, size *SymbolicValue) *SymbolicValue {
	o, ook := off.AsWord()
	s, sok := size.AsWord()
	if !ook || !sok {
		return Symf("MEMORY[%s..+%s]", off, size)
	}
	return st.Memory.Load(o.Uint64(), s.Uint64())
}

func storeMemory(st *VMState, off *SymbolicValue, size uint64, val *SymbolicValue) {
	o, ok := off.AsWord()
	if !ok {
		// Non-concrete offset: the write target can't be placed in the
		// sparse map, so it's dropped. This under-approximates memory
		// contents but never fabricates a wrong address.
		return
	}
	st.Memory.Store(o.Uint64(), size, val)
}

// hashMemory builds SHA3(memslice), recognizing the idiomatic
// SHA3(concat(key, slot)) layout (two adjacent 32-byte MSTOREs followed
// by a 64-byte SHA3) and exposing it as MAPPING(slot, key) instead
//.
func hashMemory(st *VMState, off, length *SymbolicValue) *SymbolicValue {
	data := loadMemory(st, off, length)
	if l, ok := length.AsWord(); ok && l.Uint64() == 64 {
		if data.Kind == KindOp && data.Op == OpConcat && len(data.Operands) == 2 {
			return MappingSlot(data.Operands[1], data.Operands[0])
		}
	}
	return MakeOp(OpSha3, data)
}

// copyToMemory handles CALLDATACOPY/CODECOPY/RETURNDATACOPY/EXTCODECOPY's
// common (destOffset, offset, length) suffix: a fresh opaque symbol
// tagged with src is written to memory at destOffset when destOffset and
// length are both concrete; non-concrete addressing drops the write
// (see storeMemory).
func copyToMemory(st *VMState, src string) error {
	dest, err := st.Stack.pop()
	if err != nil {
		return err
	}
	off, err := st.Stack.pop()
	if err != nil {
		return err
	}
	length, err := st.Stack.pop()
	if err != nil {
		return err
	}
	l, lok := length.AsWord()
	if !lok {
		return nil
	}
	storeMemory(st, dest, l.Uint64(), Symf("%s[%s..+%s]", src, off, length))
	return nil
}

func doLog(st *VMState, pc uint64, op OpCode) error {
	off, err := st.Stack.pop()
	if err != nil {
		return err
	}
	length, err := st.Stack.pop()
	if err != nil {
		return err
	}
	n := op.LogTopics()
	topics := make([]*SymbolicValue, n)
	for i := 0; i < n; i++ {
		t, err := st.Stack.pop()
		if err != nil {
			return err
		}
		topics[i] = t
	}
	st.Events = append(st.Events, Event{PC: pc, Topics: topics, Data: loadMemory(st, off, length)})
	return nil
}

func doCall(st *VMState, pc uint64, op OpCode) error {
	pops, _, _ := Arity(op)
	vals := make([]*SymbolicValue, pops)
	for i := range vals {
		v, err := st.Stack.pop()
		if err != nil {
			return err
		}
		vals[i] = v
	}
	// vals layout: CALL/CALLCODE = [gas, addr, value, argsOff, argsLen, retOff, retLen]
	//              DELEGATECALL/STATICCALL = [gas, addr, argsOff, argsLen, retOff, retLen]
	addr := vals[1]
	retOff := vals[len(vals)-2]
	retLen := vals[len(vals)-1]
	var value *SymbolicValue
	if op == CALL || op == CALLCODE {
		value = vals[2]
	}

	id := st.nextCallRetID()
	st.CallsMade = append(st.CallsMade, Call{PC: pc, Kind: op, Target: addr, Value: value, RetID: id})
	storeMemory(st, retOff, concreteOrZero(retLen), Symf("EXTCALL_RET(%d, %s, %s)", id, retOff, retLen))
	st.Stack.push(ConcU64(1)) // assume success
	return nil
}

func concreteOrZero(v *SymbolicValue) uint64 {
	if w, ok := v.AsWord(); ok {
		return w.Uint64()
	}
	return 0
}

func doCreate(st *VMState, pc uint64, op OpCode) error {
	pops, _, _ := Arity(op)
	vals := make([]*SymbolicValue, pops)
	for i := range vals {
		v, err := st.Stack.pop()
		if err != nil {
			return err
		}
		vals[i] = v
	}
	// vals layout: CREATE = [value, offset, length]; CREATE2 = [value, offset, length, salt]
	id := st.nextCallRetID()
	addr := Symf("CREATE_ADDR(%d)", id)
	st.CallsMade = append(st.CallsMade, Call{PC: pc, Kind: op, Target: addr, Value: vals[0], RetID: id})
	st.Stack.push(addr)
	return nil
}

// doJump resolves a JUMP target. A concrete target jumps if it lands on a
// JUMPDEST, else halts HaltInvalid. A non-concrete target forks one child
// per statically-known JUMPDEST.
func doJump(st *VMState, in Instruction, jumpdests map[uint64]bool, edges *[]Edge) stepOutcome {
	target, err := st.Stack.pop()
	if err != nil {
		return haltInvariant(st, in.PC, err)
	}
	if w, ok := target.AsWord(); ok {
		t := w.Uint64()
		if !jumpdests[t] {
			haltState(st, HaltInvalid)
			*edges = append(*edges, Edge{From: in.PC, To: in.PC, Kind: "INVALID"})
			return stepOutcome{halted: true}
		}
		*edges = append(*edges, Edge{From: in.PC, To: t, Kind: "unconditional"})
		st.PC = t
		return stepOutcome{}
	}

	var forks []*VMState
	for t := range jumpdests {
		child := st.Clone()
		child.PC = t
		forks = append(forks, child)
		*edges = append(*edges, Edge{From: in.PC, To: t, Kind: "unconditional"})
	}
	if len(forks) == 0 {
		haltState(st, HaltInvalid)
		return stepOutcome{halted: true}
	}
	return stepOutcome{forks: forks}
}

// doJumpi resolves a JUMPI. Concrete conditions short-circuit to a single
// branch; symbolic conditions fork both, pruning a branch when it
// syntactically contradicts an already-accumulated path constraint or has
// exceeded the visited_jumpi cap for its polarity. The taken branch is also
// dropped when the target is not a concrete JUMPDEST. If both branches are
// dropped, the state halts with HaltInvariant.
func doJumpi(st *VMState, in Instruction, jumpdests map[uint64]bool, opts Options, edges *[]Edge) stepOutcome {
	target, err := st.Stack.pop()
	if err != nil {
		return haltInvariant(st, in.PC, err)
	}
	cond, err := st.Stack.pop()
	if err != nil {
		return haltInvariant(st, in.PC, err)
	}

	if w, ok := cond.AsWord(); ok {
		if !w.IsZero() {
			t, tok := target.AsWord()
			if !tok || !jumpdests[t.Uint64()] {
				haltState(st, HaltInvalid)
				return stepOutcome{halted: true}
			}
			*edges = append(*edges, Edge{From: in.PC, To: t.Uint64(), Cond: cond, Kind: "cond"})
			st.PC = t.Uint64()
		} else {
			*edges = append(*edges, Edge{From: in.PC, To: nextPC(in), Cond: cond, Kind: "!cond"})
			st.PC = nextPC(in)
		}
		return stepOutcome{}
	}

	t, tok := target.AsWord()
	var forks []*VMState

	if !contradicts(st.PathConstraints, cond) && tok && jumpdests[t.Uint64()] {
		taken := st.Clone()
		if !taken.markJumpi(in.PC, true, opts.MaxJumpiVisits) {
			taken.PC = t.Uint64()
			taken.PathConstraints = append(taken.PathConstraints, cond)
			forks = append(forks, taken)
			*edges = append(*edges, Edge{From: in.PC, To: t.Uint64(), Cond: cond, Kind: "cond"})
		}
	}

	notTaken := MakeOp(OpIsZero, cond)
	if !contradicts(st.PathConstraints, notTaken) {
		fall := st.Clone()
		if !fall.markJumpi(in.PC, false, opts.MaxJumpiVisits) {
			fall.PC = nextPC(in)
			fall.PathConstraints = append(fall.PathConstraints, notTaken)
			forks = append(forks, fall)
			*edges = append(*edges, Edge{From: in.PC, To: nextPC(in), Cond: cond, Kind: "!cond"})
		}
	}

	if len(forks) == 0 {
		haltState(st, HaltInvariant)
		return stepOutcome{halted: true}
	}
	return stepOutcome{forks: forks}
}

// contradicts reports whether next syntactically negates one of
// constraints, the only unsatisfiability check the interpreter performs
//.
func contradicts(constraints []*SymbolicValue, next *SymbolicValue) bool {
	for _, c := range constraints {
		if c.negated(next) {
			return true
		}
	}
	return false
}

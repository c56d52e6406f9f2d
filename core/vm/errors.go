// Copyright 2014 by the Authors
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
	"errors"
	"fmt"
)

// List execution errors. ErrInvalidBytecode is the only one of these that
// is fatal to a call to Analyze; ErrDispatcherNotFound,
// ErrCollaboratorUnavailable and TruncatedError are added to
// AnalysisResult.Warnings and analysis continues. A stack underflow halts
// only its branch: it is recorded in that state's ReturnData as an
// InternalInvariantError, not in Warnings.
var (
	// ErrInvalidBytecode means the input was empty, or not a well-formed
	// byte sequence when a hex form was expected.
	ErrInvalidBytecode = errors.New("invalid bytecode")

	// ErrDispatcherNotFound means no selector comparison chain was
	// recognized; the caller falls back to a single pseudo-function
	// rooted at PC 0.
	ErrDispatcherNotFound = errors.New("function dispatcher not found")

	// ErrCollaboratorUnavailable means a selector-resolution or RPC
	// backend could not be reached; resolution falls back to the raw
	// 4-byte selector.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrStackUnderflow is an InternalInvariant violation: the branch that
	// produced it is pruned, not the whole analysis. ErrStackOverflow is
	// not produced: Stack.push does not check params.StackLimit.
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackOverflow  = errors.New("stack limit reached")
)

// OpcodeUnknownError describes a byte at pc with no opcode entry. Nothing
// in this package returns it: Disassemble keeps such a byte as a one-byte
// instruction that renders as INVALID(0xXX), and a branch that reaches it
// halts with HaltInvalid.
type OpcodeUnknownError struct {
	PC     uint64
	Opcode byte
}

func (e *OpcodeUnknownError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02x at pc=%d", e.Opcode, e.PC)
}

// TruncatedError reports that the interpreter's step or fork budget (or a
// caller deadline) was exhausted before the worklist drained. It is
// attached to AnalysisResult.Warnings rather than returned as a call
// error: whatever the worklist had already resolved remains valid.
type TruncatedError struct {
	Reason string // "step_budget", "fork_budget", or "deadline"
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated: %s exhausted", e.Reason)
}

// InternalInvariantError records a violated invariant (e.g. a stack
// underflow reached in a supposedly-well-formed state). The branch that
// raised it is pruned; analysis of sibling branches continues.
type InternalInvariantError struct {
	PC  uint64
	Err error
}

func (e *InternalInvariantError) Error() string {
	return fmt.Sprintf("internal invariant violated at pc=%d: %v", e.PC, e.Err)
}

func (e *InternalInvariantError) Unwrap() error { return e.Err }

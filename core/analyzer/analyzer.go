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

// Package analyzer wires the disassembler, dispatcher resolver,
// interpreter and synthesizer into the single top-level entry point the
// CLI drives: Analyze takes raw bytecode and options in,
// and produces one FunctionSnapshot plus CFG per recovered function.
package analyzer

import (
	"context"
	"fmt"
	"time"

	"github.com/coreforensic/evmforensic/core/resolver"
	"github.com/coreforensic/evmforensic/core/synth"
	"github.com/coreforensic/evmforensic/core/vm"
	"github.com/coreforensic/evmforensic/selectors"
)

// Options configures one analysis run.
type Options struct {
	// DefaultMain, if true, skips dispatcher recovery and analyzes only
	// the selector 0x00000000 fallback path rooted at PC 0, the entry point execution reaches when
	// no selector comparison matches.
	DefaultMain bool

	// SkipResolving disables selector-to-signature lookups entirely;
	// FunctionSnapshots carry only the raw 4-byte selector.
	SkipResolving bool

	StepBudget int
	ForkBudget int

	// Deadline is a wall-clock limit checked before each dispatch entry's
	// exploration starts; an exploration already running is not
	// interrupted. Zero means no deadline.
	Deadline time.Duration

	Resolver selectors.Client
}

// DefaultOptions mirrors vm.DefaultOptions's budgets.
func DefaultOptions() Options {
	d := vm.DefaultOptions()
	return Options{
		StepBudget: d.StepBudget,
		ForkBudget: d.ForkBudget,
		Deadline:   30 * time.Second,
	}
}

// Function bundles the snapshot, CFG and any selector-signature
// candidates recovered for one dispatch entry.
type Function struct {
	Snapshot   synth.FunctionSnapshot
	CFG        *vm.CFG
	Signatures []string // best-first, empty if not resolved
}

// AnalysisResult is the top-level output of one Analyze call.
type AnalysisResult struct {
	Functions        []Function
	DispatcherFound  bool
	Warnings         []error
	Truncated        bool
}

// Analyze decompiles code into its recovered functions.
func Analyze(ctx context.Context, code []byte, opts Options) (*AnalysisResult, error) {
	if len(code) == 0 {
		return nil, vm.ErrInvalidBytecode
	}

	if opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Deadline)
		defer cancel()
	}

	instrs := vm.Disassemble(code)
	jumpdests := vm.JumpdestSet(instrs)

	vmOpts := vm.DefaultOptions()
	if opts.StepBudget > 0 {
		vmOpts.StepBudget = opts.StepBudget
	}
	if opts.ForkBudget > 0 {
		vmOpts.ForkBudget = opts.ForkBudget
	}

	result := &AnalysisResult{}

	var roots []resolver.DispatchEntry
	if !opts.DefaultMain {
		if entries, found := resolver.FindDispatcher(instrs); found {
			result.DispatcherFound = true
			roots = entries
			if fallback := resolver.FallbackEntryPC(instrs, entries); jumpdests[fallback] || fallback == 0 {
				roots = append(roots, resolver.DispatchEntry{EntryPC: fallback})
			}
		} else {
			result.Warnings = append(result.Warnings, vm.ErrDispatcherNotFound)
		}
	}
	if len(roots) == 0 {
		roots = []resolver.DispatchEntry{{EntryPC: 0}}
	}

	for _, entry := range roots {
		select {
		case <-ctx.Done():
			result.Truncated = true
			result.Warnings = append(result.Warnings, &vm.TruncatedError{Reason: "deadline"})
			return result, nil
		default:
		}

		start := vm.NewVMState()
		start.PC = entry.EntryPC
		r := vm.Run(code, start, vmOpts)
		result.Warnings = append(result.Warnings, r.Warnings...)
		for _, w := range r.Warnings {
			if _, ok := w.(*vm.TruncatedError); ok {
				result.Truncated = true
			}
		}

		hasSelector := entry.Selector != [4]byte{}
		snap := synth.Synthesize(entry.EntryPC, entry.Selector, hasSelector, r)
		fn := Function{
			Snapshot: snap,
			CFG:      vm.BuildCFG(code, entry.EntryPC, r.Edges),
		}

		if hasSelector && !opts.SkipResolving && opts.Resolver != nil {
			if sigs, err := opts.Resolver.Resolve(ctx, selectors.Function, selectorHex(entry.Selector)); err == nil {
				fn.Signatures = sigs
			} else {
				result.Warnings = append(result.Warnings, fmt.Errorf("%w: %v", vm.ErrCollaboratorUnavailable, err))
			}
		}

		result.Functions = append(result.Functions, fn)
	}

	return result, nil
}

func selectorHex(sel [4]byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, 8)
	for i, b := range sel {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

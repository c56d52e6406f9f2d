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

package analyzer

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coreforensic/evmforensic/core/vm"
	"github.com/coreforensic/evmforensic/selectors"
)

// dispatcherBytecode builds a one-selector Solidity dispatcher followed by
// a function body that just returns, and a fallback that reverts.
func dispatcherBytecode(sel [4]byte, target uint16) []byte {
	out := []byte{0x63, sel[0], sel[1], sel[2], sel[3], byte(vm.EQ)}
	out = append(out, 0x61, byte(target>>8), byte(target))
	out = append(out, byte(vm.JUMPI))
	out = append(out, byte(vm.PUSH1), 0x00, byte(vm.PUSH1), 0x00, byte(vm.REVERT)) // fallback
	for uint16(len(out)) < target {
		out = append(out, byte(vm.JUMPDEST))
	}
	out = append(out, byte(vm.JUMPDEST), byte(vm.STOP))
	return out
}

func TestAnalyzeEmptyBytecodeIsInvalid(t *testing.T) {
	_, err := Analyze(context.Background(), nil, DefaultOptions())
	require.ErrorIs(t, err, vm.ErrInvalidBytecode)
}

func TestAnalyzeSingleStopHasOneFallbackFunction(t *testing.T) {
	res, err := Analyze(context.Background(), []byte{byte(vm.STOP)}, DefaultOptions())
	require.NoError(t, err)
	require.False(t, res.DispatcherFound, "plain STOP bytecode has no dispatcher")
	require.Len(t, res.Functions, 1)
	require.False(t, res.Functions[0].Snapshot.HasSelector, "the sole fallback function should carry no selector")
}

func TestAnalyzeRecoversOneSelectorDispatcher(t *testing.T) {
	sel := [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	code := dispatcherBytecode(sel, 0x20)
	res, err := Analyze(context.Background(), code, DefaultOptions())
	require.NoError(t, err)
	require.True(t, res.DispatcherFound, "expected the dispatcher to be recovered")

	var found bool
	for _, fn := range res.Functions {
		if fn.Snapshot.HasSelector && fn.Snapshot.Selector == sel {
			found = true
		}
	}
	require.True(t, found, "no recovered function carried selector %x; got %+v", sel, res.Functions)
}

func TestAnalyzeDefaultMainSkipsDispatcherRecovery(t *testing.T) {
	sel := [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	code := dispatcherBytecode(sel, 0x20)
	opts := DefaultOptions()
	opts.DefaultMain = true
	res, err := Analyze(context.Background(), code, opts)
	require.NoError(t, err)
	require.False(t, res.DispatcherFound, "DefaultMain should skip dispatcher recovery entirely")
	require.Len(t, res.Functions, 1)
	require.EqualValues(t, 0, res.Functions[0].Snapshot.EntryPC)
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	code := dispatcherBytecode([4]byte{0xaa, 0xbb, 0xcc, 0xdd}, 0x20)
	a, err := Analyze(context.Background(), code, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze (1st): %v", err)
	}
	b, err := Analyze(context.Background(), code, DefaultOptions())
	if err != nil {
		t.Fatalf("Analyze (2nd): %v", err)
	}
	if !reflect.DeepEqual(a.Functions, b.Functions) {
		t.Errorf("two Analyze calls over identical bytecode produced different results:\n%+v\n%+v", a.Functions, b.Functions)
	}
}

func TestAnalyzeResolvesSignaturesWhenResolverProvided(t *testing.T) {
	sel := [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	code := dispatcherBytecode(sel, 0x20)
	opts := DefaultOptions()
	opts.Resolver = selectors.NewStaticClient(map[string][]string{
		selectors.StaticKey(selectors.Function, "a9059cbb"): {"transfer(address,uint256)"},
	})

	res, err := Analyze(context.Background(), code, opts)
	require.NoError(t, err)
	var sigs []string
	for _, fn := range res.Functions {
		if fn.Snapshot.HasSelector {
			sigs = fn.Signatures
		}
	}
	require.Equal(t, []string{"transfer(address,uint256)"}, sigs)
}

func TestAnalyzeSkipResolvingLeavesSignaturesEmpty(t *testing.T) {
	sel := [4]byte{0xa9, 0x05, 0x9c, 0xbb}
	code := dispatcherBytecode(sel, 0x20)
	opts := DefaultOptions()
	opts.SkipResolving = true
	opts.Resolver = selectors.NewStaticClient(map[string][]string{
		selectors.StaticKey(selectors.Function, "a9059cbb"): {"transfer(address,uint256)"},
	})

	res, err := Analyze(context.Background(), code, opts)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, fn := range res.Functions {
		if len(fn.Signatures) != 0 {
			t.Errorf("SkipResolving=true but got signatures %v", fn.Signatures)
		}
	}
}

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

package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coreforensic/evmforensic/core/synth"
)

// Solidity renders fns as a best-effort, one-way Solidity-like contract
// body. It never round-trips through an actual Solidity parser.
func Solidity(fns []synth.FunctionSnapshot) string {
	var b strings.Builder
	b.WriteString("contract Recovered {\n")
	for _, fn := range fns {
		writeSolidityFunction(&b, fn)
	}
	b.WriteString("}\n")
	return b.String()
}

func writeSolidityFunction(b *strings.Builder, fn synth.FunctionSnapshot) {
	name := "fallback"
	if fn.HasSelector {
		name = "selector_" + hex4(fn.Selector)
	}
	params := make([]string, len(fn.ArgumentTypes))
	for i, t := range fn.ArgumentTypes {
		params[i] = fmt.Sprintf("%s arg%d", t, i)
	}
	mutability := "nonpayable"
	switch {
	case fn.IsPure:
		mutability = "pure"
	case fn.IsView:
		mutability = "view"
	case fn.IsPayable:
		mutability = "payable"
	}
	retTypes := make([]string, len(fn.Returns))
	copy(retTypes, fn.Returns)

	fmt.Fprintf(b, "  function %s(%s) external %s", name, strings.Join(params, ", "), mutability)
	if len(retTypes) > 0 {
		fmt.Fprintf(b, " returns (%s)", strings.Join(retTypes, ", "))
	}
	b.WriteString(" {\n")
	for _, sw := range fn.StorageWrites {
		if sw.IsMapping {
			fmt.Fprintf(b, "    // mapping write: slot %s\n", sw.MappingSlot)
		} else {
			fmt.Fprintf(b, "    // storage write: slot %s\n", sw.Slot)
		}
	}
	for _, ev := range fn.EmittedEvents {
		if ev.Topic0 != "" {
			fmt.Fprintf(b, "    emit Event_%s(/* %d indexed */);\n", ev.Topic0, ev.IndexedCount)
		} else {
			b.WriteString("    // anonymous log with symbolic length\n")
		}
	}
	for _, pc := range fn.PossibleReverts {
		fmt.Fprintf(b, "    // revert possible at pc 0x%x\n", pc)
	}
	b.WriteString("  }\n")
}

func hex4(sel [4]byte) string {
	return strconv.FormatUint(uint64(selectorUint32(sel)), 16)
}

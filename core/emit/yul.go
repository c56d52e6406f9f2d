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

// Package emit lowers a set of FunctionSnapshots into Yul-like and
// Solidity-like best-effort source text. The Yul pass is
// the source of truth; the Solidity pass is syntactic sugar over it.
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coreforensic/evmforensic/core/synth"
)

// Yul renders fns as a single best-effort Yul "object", one function per
// FunctionSnapshot, named by its selector.
func Yul(fns []synth.FunctionSnapshot) string {
	var b strings.Builder
	b.WriteString("object \"Contract\" {\n  code {\n")
	for _, fn := range fns {
		writeYulFunction(&b, fn)
	}
	b.WriteString("  }\n}\n")
	return b.String()
}

func writeYulFunction(b *strings.Builder, fn synth.FunctionSnapshot) {
	name := functionName(fn)
	params := make([]string, len(fn.ArgumentTypes))
	for i, t := range fn.ArgumentTypes {
		params[i] = fmt.Sprintf("arg%d /* %s */", i, t)
	}
	rets := make([]string, len(fn.Returns))
	for i := range fn.Returns {
		rets[i] = fmt.Sprintf("ret%d", i)
	}
	fmt.Fprintf(b, "    function %s(%s)", name, strings.Join(params, ", "))
	if len(rets) > 0 {
		fmt.Fprintf(b, " -> %s", strings.Join(rets, ", "))
	}
	b.WriteString(" {\n")
	fmt.Fprintf(b, "      // entry_pc = 0x%x\n", fn.EntryPC)

	for _, sw := range fn.StorageWrites {
		if sw.IsMapping {
			fmt.Fprintf(b, "      sstore(mappingSlot(%s, key), value) // %s\n", sw.MappingSlot, sw.KeyType)
		} else {
			fmt.Fprintf(b, "      sstore(%s, value)\n", sw.Slot)
		}
	}
	for _, sr := range fn.StorageReads {
		fmt.Fprintf(b, "      let _ := sload(%s)\n", sr.Slot)
	}
	for _, ev := range fn.EmittedEvents {
		if ev.Topic0 != "" {
			fmt.Fprintf(b, "      log%d(offset, length, 0x%s)\n", ev.IndexedCount+1, ev.Topic0)
		} else {
			b.WriteString("      log0(offset, length) // anonymous\n")
		}
	}
	for _, pc := range fn.PossibleReverts {
		fmt.Fprintf(b, "      // possible revert at pc 0x%x\n", pc)
	}
	if len(rets) > 0 {
		fmt.Fprintf(b, "      %s := 0\n", strings.Join(rets, " := 0\n      "))
	}
	b.WriteString("    }\n")
}

func functionName(fn synth.FunctionSnapshot) string {
	if !fn.HasSelector {
		return "fallback"
	}
	return "selector_" + strconv.FormatUint(uint64(selectorUint32(fn.Selector)), 16)
}

func selectorUint32(sel [4]byte) uint32 {
	return uint32(sel[0])<<24 | uint32(sel[1])<<16 | uint32(sel[2])<<8 | uint32(sel[3])
}

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

import "github.com/coreforensic/evmforensic/common"

// precompileNames is the address -> name table the snapshot synthesizer
// consults to label a CALL target as a known precompile instead of an
// opaque external contract, over the standard 0x01..0x09 range. This
// analyzer never executes a precompile: it only needs to recognize one by
// address so a snapshot can record "calls ecrecover" rather than "calls
// CALL(0x0000...0001)".
var precompileNames = map[common.Address]string{
	precompileAddr(1): "ECRECOVER",
	precompileAddr(2): "SHA256",
	precompileAddr(3): "RIPEMD160",
	precompileAddr(4): "IDENTITY",
	precompileAddr(5): "MODEXP",
	precompileAddr(6): "BN256ADD",
	precompileAddr(7): "BN256SCALARMUL",
	precompileAddr(8): "BN256PAIRING",
	precompileAddr(9): "BLAKE2F",
}

func precompileAddr(n byte) common.Address {
	var a common.Address
	a[len(a)-1] = n
	return a
}

// PrecompileName reports the well-known name for addr, if any.
func PrecompileName(addr common.Address) (string, bool) {
	name, ok := precompileNames[addr]
	return name, ok
}

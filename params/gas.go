// Copyright 2015 The go-core Authors
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

// Package params holds reference gas and limit constants. No other package
// of this module imports it: the gas-class table in core/vm declares its
// own values. Values are the Yellow
// Paper's post-Istanbul schedule; this analyzer never charges gas for
// real, so only the relative weights matter.
package params

const (
	QuickStepGas   uint64 = 2
	FastestStepGas uint64 = 3
	FastStepGas    uint64 = 5
	MidStepGas     uint64 = 8
	SlowStepGas    uint64 = 10
	ExtStepGas     uint64 = 20

	ZeroGas uint64 = 0

	SstoreSetGas    uint64 = 20000
	SstoreResetGas  uint64 = 5000
	SstoreClearGas  uint64 = 5000
	SstoreNoopGas   uint64 = 800
	SstoreInitGas   uint64 = 20000
	SstoreCleanGas  uint64 = 5000
	SloadGas        uint64 = 800
	JumpdestGas     uint64 = 1
	CreateGas       uint64 = 32000
	Create2Gas      uint64 = 32000
	CallGas         uint64 = 700
	CallValueGas    uint64 = 9000
	CallStipend     uint64 = 2300
	CallNewAccount  uint64 = 25000
	SelfdestructGas uint64 = 5000
	LogGas          uint64 = 375
	LogTopicGas     uint64 = 375
	LogDataGas      uint64 = 8
	Sha3Gas         uint64 = 30
	Sha3WordGas     uint64 = 6
	CopyWordGas     uint64 = 3
	MemoryGas       uint64 = 3
	QuadCoeffDiv    uint64 = 512
	ExpGas          uint64 = 10
	ExpByteGas      uint64 = 50
	BalanceGas      uint64 = 700
	ExtcodeSizeGas  uint64 = 700
	ExtcodeCopyBase uint64 = 700
	ExtcodeHashGas  uint64 = 700

	// StackLimit is the maximum depth the EVM stack may reach. The symbolic
	// interpreter's stack does not check it.
	StackLimit = 1024

	// MaxCallDepth is the EVM's CALL/CREATE recursion limit. The symbolic
	// interpreter does not track call depth against it.
	MaxCallDepth = 1024
)

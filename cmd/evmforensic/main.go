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

// evmforensic disassembles, decompiles and summarizes EVM runtime
// bytecode.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"
)

const (
	exitOK             = 0
	exitInvalidArgs    = 1
	exitTruncated      = 2
	exitIOFailure      = 3
	exitNetworkFailure = 4
)

var (
	rpcURLFlag = cli.StringFlag{
		Name:  "rpc-url",
		Usage: "JSON-RPC endpoint to fetch on-chain bytecode from",
	}
	codeFileFlag = cli.StringFlag{
		Name:  "code-file",
		Usage: "file containing hex-encoded runtime bytecode",
	}
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "contract address to fetch bytecode for (requires --rpc-url)",
	}
	outputFlag = cli.StringFlag{
		Name:  "out",
		Usage: "output directory, defaults to the configured output_dir",
	}
	defaultMainFlag = cli.BoolFlag{
		Name:  "default-main",
		Usage: "treat the whole contract as one function rooted at pc 0, skipping dispatcher recovery",
	}
	includeSolFlag = cli.BoolFlag{
		Name:  "include-sol",
		Usage: "also emit a best-effort Solidity-like rendering",
	}
	skipResolvingFlag = cli.BoolFlag{
		Name:  "skip-resolving",
		Usage: "do not resolve selectors against a signature database",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the TOML config file",
		Value: "",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "evmforensic"
	app.Usage = "EVM bytecode forensic decompiler"
	app.Flags = []cli.Flag{configFlag, outputFlag}
	app.Commands = []cli.Command{
		disassembleCommand,
		decompileCommand,
		cfgCommand,
		snapshotCommand,
		dumpCommand,
		configCommand,
		cacheCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "evmforensic:", err)
		if ec, ok := err.(exitError); ok {
			os.Exit(ec.code)
		}
		os.Exit(exitInvalidArgs)
	}
}

// exitError lets a command's Action pick a precise exit code while still
// flowing through urfave/cli's usual error path.
type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string { return e.err.Error() }

func fail(code int, err error) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// Copyright 2016 by the Authors
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

// Package log is a thin wrapper around log15 giving every package in this
// module a Logger with the same call shape, the way the upstream node
// packages construct one per subsystem (`log.New("pkg", "vm")`).
package log

import (
	"io"
	"os"

	"github.com/inconshreveable/log15"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Logger is the interface every package in this module logs through.
type Logger = log15.Logger

// Root is the root logger; call New off of it (or off of another Logger)
// to attach context, the way log15 intends.
var Root = log15.Root()

func init() {
	Root.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, log15.StreamHandler(stderrWriter(), stderrFormat())))
}

// New returns a new contextual Logger, e.g. log.New("module", "interpreter").
func New(ctx ...interface{}) Logger { return Root.New(ctx...) }

// SetVerbosity adjusts the root logger's level. The CLI has no verbosity
// flag and does not call it.
func SetVerbosity(lvl log15.Lvl) {
	Root.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(stderrWriter(), stderrFormat())))
}

// stderrWriter wraps os.Stderr with colorable's ANSI-escape translation so
// TerminalFormat's colors render correctly on terminals (such as Windows
// consoles) that don't natively interpret ANSI escapes.
func stderrWriter() io.Writer {
	return colorable.NewColorableStderr()
}

func stderrFormat() log15.Format {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return log15.TerminalFormat()
	}
	return log15.LogfmtFormat()
}

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

package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/urfave/cli.v1"

	"github.com/coreforensic/evmforensic/cache"
	"github.com/coreforensic/evmforensic/common"
	"github.com/coreforensic/evmforensic/config"
	"github.com/coreforensic/evmforensic/core/analyzer"
	"github.com/coreforensic/evmforensic/core/emit"
	"github.com/coreforensic/evmforensic/core/synth"
	"github.com/coreforensic/evmforensic/core/vm"
	"github.com/coreforensic/evmforensic/rpc"
	"github.com/coreforensic/evmforensic/selectors"
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".evmforensic", "config.toml")
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.GlobalString(configFlag.Name)
	if path == "" {
		path = defaultConfigPath()
	}
	return config.Load(path)
}

// loadCode resolves the target bytecode from --code-file or, when the
// argument matches the address regex, --address plus --rpc-url.
func loadCode(c *cli.Context, cfg config.Config) ([]byte, error) {
	if path := c.String(codeFileFlag.Name); path != "" {
		raw, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, fail(exitIOFailure, err)
		}
		return common.FromHex(strings.TrimSpace(string(raw))), nil
	}

	addr := c.String(addressFlag.Name)
	if addr == "" && c.NArg() > 0 {
		addr = c.Args().First()
	}
	if addr == "" {
		return nil, fail(exitInvalidArgs, fmt.Errorf("no --code-file, --address, or bytecode argument given"))
	}
	if !common.AddressRegex.MatchString(addr) {
		return nil, fail(exitInvalidArgs, fmt.Errorf("%q is neither a code file path nor a valid address", addr))
	}

	url := c.String(rpcURLFlag.Name)
	if url == "" {
		url = cfg.RPCURL
	}
	if url == "" {
		return nil, fail(exitInvalidArgs, fmt.Errorf("--rpc-url is required to fetch code for an address"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	code, err := rpc.Dial(url).CodeAt(ctx, common.HexToAddress(addr), "latest")
	if err != nil {
		return nil, fail(exitNetworkFailure, err)
	}
	return code, nil
}

func analyzerOptions(c *cli.Context, cfg config.Config) analyzer.Options {
	opts := analyzer.DefaultOptions()
	opts.DefaultMain = c.Bool(defaultMainFlag.Name)
	opts.SkipResolving = c.Bool(skipResolvingFlag.Name) || cfg.SkipResolving

	if !opts.SkipResolving {
		dir := cfg.CacheDir
		var store cache.Store
		if dir != "" {
			if s, err := cache.Open(dir, 4096); err == nil {
				store = s
			}
		}
		if store == nil {
			store = cache.NewMemStore()
		}
		baseURL := cfg.SelectorBaseURL
		if baseURL == "" {
			baseURL = config.Default().SelectorBaseURL
		}
		opts.Resolver = selectors.NewHTTPClient(baseURL, store)
	}
	return opts
}

func outDir(c *cli.Context, cfg config.Config) string {
	if o := c.GlobalString(outputFlag.Name); o != "" {
		return o
	}
	if cfg.OutputDir != "" {
		return cfg.OutputDir
	}
	return "."
}

var disassembleCommand = cli.Command{
	Name:  "disassemble",
	Usage: "linearly disassemble bytecode into instructions",
	Flags: []cli.Flag{codeFileFlag, addressFlag, rpcURLFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(exitIOFailure, err)
		}
		code, err := loadCode(c, cfg)
		if err != nil {
			return err
		}
		if len(code) == 0 {
			return fail(exitInvalidArgs, vm.ErrInvalidBytecode)
		}
		for _, in := range vm.Disassemble(code) {
			line := fmt.Sprintf("%06x: %s", in.PC, in.Mnemonic())
			if in.Truncated || in.Opcode == vm.INVALID {
				color.Red(line)
				continue
			}
			fmt.Println(line)
		}
		return nil
	},
}

var cfgCommand = cli.Command{
	Name:  "cfg",
	Usage: "emit the control-flow graph in a DOT-like format",
	Flags: []cli.Flag{codeFileFlag, addressFlag, rpcURLFlag, defaultMainFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(exitIOFailure, err)
		}
		code, err := loadCode(c, cfg)
		if err != nil {
			return err
		}
		opts := analyzerOptions(c, cfg)
		opts.SkipResolving = true
		result, err := analyzer.Analyze(context.Background(), code, opts)
		if err != nil {
			return fail(exitInvalidArgs, err)
		}
		for _, fn := range result.Functions {
			writeCFG(os.Stdout, fn.CFG)
		}
		return exitForResult(result)
	},
}

// writeCFG renders g in a DOT-like format: nodes keyed by hex entry PC
// with instruction mnemonics joined by newlines, edges labeled
// "true"/"false" for JUMPI and unlabeled otherwise.
func writeCFG(w io.Writer, g *vm.CFG) {
	if g == nil {
		return
	}
	fmt.Fprintf(w, "digraph cfg_0x%x {\n", g.Entry)

	pcs := make([]uint64, 0, len(g.Blocks))
	for pc := range g.Blocks {
		pcs = append(pcs, pc)
	}
	sort.Slice(pcs, func(i, j int) bool { return pcs[i] < pcs[j] })

	for _, pc := range pcs {
		block := g.Blocks[pc]
		lines := make([]string, len(block.Instructions))
		for i, in := range block.Instructions {
			lines[i] = in.Mnemonic()
		}
		fmt.Fprintf(w, "  %x [label=%q];\n", pc, strings.Join(lines, "\n"))
		for _, succ := range block.Successors {
			label := ""
			switch succ.Kind {
			case "cond":
				label = " [label=\"true\"]"
			case "!cond":
				label = " [label=\"false\"]"
			}
			fmt.Fprintf(w, "  %x -> %x%s;\n", pc, succ.Target, label)
		}
	}
	fmt.Fprintln(w, "}")
}

var decompileCommand = cli.Command{
	Name:  "decompile",
	Usage: "recover functions and emit Yul (and optionally Solidity-like) source",
	Flags: []cli.Flag{codeFileFlag, addressFlag, rpcURLFlag, defaultMainFlag, includeSolFlag, skipResolvingFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(exitIOFailure, err)
		}
		code, err := loadCode(c, cfg)
		if err != nil {
			return err
		}
		opts := analyzerOptions(c, cfg)
		result, err := analyzer.Analyze(context.Background(), code, opts)
		if err != nil {
			return fail(exitInvalidArgs, err)
		}

		snaps := make([]synth.FunctionSnapshot, len(result.Functions))
		for i, fn := range result.Functions {
			snaps[i] = fn.Snapshot
		}
		yulSrc := emit.Yul(snaps)

		dir := outDir(c, cfg)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fail(exitIOFailure, err)
		}
		if err := ioutil.WriteFile(filepath.Join(dir, "decompiled.yul"), []byte(yulSrc), 0644); err != nil {
			return fail(exitIOFailure, err)
		}
		if c.Bool(includeSolFlag.Name) {
			solSrc := emit.Solidity(snaps)
			if err := ioutil.WriteFile(filepath.Join(dir, "decompiled.sol"), []byte(solSrc), 0644); err != nil {
				return fail(exitIOFailure, err)
			}
		}
		for _, w := range result.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
		return exitForResult(result)
	},
}

var snapshotCommand = cli.Command{
	Name:  "snapshot",
	Usage: "print the recovered ABI/snapshot table",
	Flags: []cli.Flag{codeFileFlag, addressFlag, rpcURLFlag, defaultMainFlag, skipResolvingFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(exitIOFailure, err)
		}
		code, err := loadCode(c, cfg)
		if err != nil {
			return err
		}
		opts := analyzerOptions(c, cfg)
		result, err := analyzer.Analyze(context.Background(), code, opts)
		if err != nil {
			return fail(exitInvalidArgs, err)
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader(snapshotColumns)
		for _, row := range snapshotRows(result) {
			table.Append(row)
		}
		table.Render()
		return exitForResult(result)
	},
}

// snapshotColumns is the Snapshot CSV column order.
var snapshotColumns = []string{
	"selector", "name", "signature", "is_payable", "is_view", "is_pure",
	"gas_min", "gas_max", "storage_reads", "storage_writes", "events", "errors",
}

func snapshotRows(result *analyzer.AnalysisResult) [][]string {
	rows := make([][]string, 0, len(result.Functions))
	for _, fn := range result.Functions {
		s := fn.Snapshot
		selHex := "fallback"
		if s.HasSelector {
			selHex = fmt.Sprintf("0x%02x%02x%02x%02x", s.Selector[0], s.Selector[1], s.Selector[2], s.Selector[3])
		}
		name, sig := "", ""
		if len(fn.Signatures) > 0 {
			sig = fn.Signatures[0]
			if idx := strings.IndexByte(sig, '('); idx >= 0 {
				name = sig[:idx]
			}
		}
		reads := make([]string, len(s.StorageReads))
		for i, sr := range s.StorageReads {
			reads[i] = sr.Slot
		}
		writes := make([]string, len(s.StorageWrites))
		for i, sw := range s.StorageWrites {
			writes[i] = sw.Slot
		}
		events := make([]string, len(s.EmittedEvents))
		for i, ev := range s.EmittedEvents {
			events[i] = ev.Topic0
		}
		reverts := make([]string, len(s.PossibleReverts))
		for i, pc := range s.PossibleReverts {
			reverts[i] = fmt.Sprintf("0x%x", pc)
		}
		rows = append(rows, []string{
			selHex, name, sig,
			strconv.FormatBool(s.IsPayable), strconv.FormatBool(s.IsView), strconv.FormatBool(s.IsPure),
			strconv.FormatUint(s.GasMin, 10), strconv.FormatUint(s.GasMax, 10),
			strings.Join(reads, ";"), strings.Join(writes, ";"),
			strings.Join(events, ";"), strings.Join(reverts, ";"),
		})
	}
	return rows
}

var dumpCommand = cli.Command{
	Name:  "dump",
	Usage: "list the storage slots the recovered functions write, as dump CSV rows; no storage is read from chain and the value column is left empty",
	Flags: []cli.Flag{codeFileFlag, addressFlag, rpcURLFlag, defaultMainFlag},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fail(exitIOFailure, err)
		}
		code, err := loadCode(c, cfg)
		if err != nil {
			return err
		}
		opts := analyzerOptions(c, cfg)
		opts.SkipResolving = true
		result, err := analyzer.Analyze(context.Background(), code, opts)
		if err != nil {
			return fail(exitInvalidArgs, err)
		}

		w := csv.NewWriter(os.Stdout)
		defer w.Flush()
		if err := w.Write([]string{"last_modified", "alias", "slot", "decoded_type", "value"}); err != nil {
			return fail(exitIOFailure, err)
		}

		now := time.Now().UTC().Format(time.RFC3339)
		seen := map[string]bool{}
		for _, fn := range result.Functions {
			for _, sw := range fn.Snapshot.StorageWrites {
				if seen[sw.Slot] {
					continue
				}
				seen[sw.Slot] = true
				decoded := "bytes32"
				if sw.IsMapping {
					decoded = "mapping(" + sw.KeyType + "=>bytes32)"
				}
				if err := w.Write([]string{now, sw.Slot, sw.Slot, decoded, ""}); err != nil {
					return fail(exitIOFailure, err)
				}
			}
		}
		return exitForResult(result)
	},
}

var configCommand = cli.Command{
	Name:  "config",
	Usage: "show or initialize the configuration file",
	Flags: []cli.Flag{
		cli.BoolFlag{Name: "init", Usage: "write out the default configuration if missing"},
	},
	Action: func(c *cli.Context) error {
		path := c.GlobalString(configFlag.Name)
		if path == "" {
			path = defaultConfigPath()
		}
		if c.Bool("init") {
			if err := config.Save(path, config.Default()); err != nil {
				return fail(exitIOFailure, err)
			}
		}
		cfg, err := config.Load(path)
		if err != nil {
			return fail(exitIOFailure, err)
		}
		fmt.Printf("rpc_url = %q\n", cfg.RPCURL)
		fmt.Printf("output_dir = %q\n", cfg.OutputDir)
		fmt.Printf("cache_dir = %q\n", cfg.CacheDir)
		fmt.Printf("selector_base_url = %q\n", cfg.SelectorBaseURL)
		fmt.Printf("skip_resolving = %v\n", cfg.SkipResolving)
		return nil
	},
}

var cacheCommand = cli.Command{
	Name:  "cache",
	Usage: "clear the selector-resolution cache",
	Subcommands: []cli.Command{
		{
			Name:  "clear",
			Usage: "remove the on-disk selector cache directory",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return fail(exitIOFailure, err)
				}
				if cfg.CacheDir == "" {
					return nil
				}
				if err := os.RemoveAll(cfg.CacheDir); err != nil {
					return fail(exitIOFailure, err)
				}
				return nil
			},
		},
	},
}

// exitForResult maps a completed analysis onto the CLI's exit codes:
// truncation is reported via exitTruncated even though the command itself
// otherwise succeeded.
func exitForResult(result *analyzer.AnalysisResult) error {
	if result.Truncated {
		return fail(exitTruncated, fmt.Errorf("analysis truncated past the configured budget"))
	}
	return nil
}

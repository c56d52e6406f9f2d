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

// Package config loads and persists the analyzer's user-level settings
// as TOML, the
// same format and library the rest of the corpus uses for node config.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/naoina/toml"
)

// tomlSettings keeps TOML keys identical to the Go struct tags instead of
// naoina/toml's default case-folding, matching how the rest of the corpus
// configures this library.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

// Config holds the persisted settings for a local evmforensic workspace.
type Config struct {
	RPCURL          string `toml:"rpc_url"`
	OutputDir       string `toml:"output_dir"`
	CacheDir        string `toml:"cache_dir"`
	SelectorBaseURL string `toml:"selector_base_url"`
	SkipResolving   bool   `toml:"skip_resolving"`
	StepBudget      int    `toml:"step_budget"`
	ForkBudget      int    `toml:"fork_budget"`
	DeadlineMS      int    `toml:"deadline_ms"`
}

// Default returns the out-of-the-box configuration used when no config
// file exists yet.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".evmforensic")
	return Config{
		RPCURL:          "",
		OutputDir:       filepath.Join(base, "out"),
		CacheDir:        filepath.Join(base, "cache"),
		SelectorBaseURL: "https://api.etherface.io/v1/signatures/hash",
		SkipResolving:   false,
		StepBudget:      150000,
		ForkBudget:      1024,
		DeadlineMS:      30000,
	}
}

// Load reads a TOML config file at path. If the file does not exist, the
// default configuration is returned rather than an error.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg)
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(path + ", " + err.Error())
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return tomlSettings.NewEncoder(f).Encode(&cfg)
}

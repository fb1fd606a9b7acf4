// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Command ethash-diag is a small diagnostics tool over the ethash package:
// it prints epoch cache/dataset sizing for a block number, and checks
// whether a given header-hash/nonce/mix-digest/difficulty tuple is a valid
// proof of work, without needing a running node.
package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/holiman/uint256"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/ethash-core/consensus/ethash"
)

// diagConfig holds the LRU sizing knobs tunable via an optional TOML config
// file, mirroring how geth-family nodes layer a config file under CLI
// flags rather than requiring every knob to be a flag.
type diagConfig struct {
	CachesInMem   int
	DatasetsInMem int
}

var defaultConfig = diagConfig{
	CachesInMem:   ethash.CacheCacheSizeLimit,
	DatasetsInMem: 1,
}

// tomlSettings is a toml.Config value carrying field-naming rules, used
// through its NewDecoder method rather than the bare package-level
// functions.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
}

func loadConfig(path string) (diagConfig, error) {
	cfg := defaultConfig
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

var epochCommand = &cli.Command{
	Name:      "epoch",
	Usage:     "print the verification cache size, dataset size and seed hash for a block's epoch",
	ArgsUsage: "<block number>",
	Action:    runEpoch,
}

var verifyCommand = &cli.Command{
	Name:  "verify",
	Usage: "check whether a header-hash/nonce/mix-digest/difficulty tuple satisfies the proof of work",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "block", Required: true, Usage: "block number, used to pick the epoch"},
		&cli.StringFlag{Name: "hash", Required: true, Usage: "32-byte header hash (without nonce), hex"},
		&cli.Uint64Flag{Name: "nonce", Required: true, Usage: "nonce to check"},
		&cli.StringFlag{Name: "mix", Usage: "32-byte claimed mix digest, hex (optional)"},
		&cli.StringFlag{Name: "difficulty", Required: true, Usage: "difficulty, decimal or 0x-prefixed hex"},
	},
	Action: runVerify,
}

func runEpoch(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected exactly one argument: <block number>", 1)
	}
	block, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid block number: %v", err), 1)
	}

	fmt.Printf("epoch:        %d\n", block/30000)
	fmt.Printf("cache size:   %d bytes\n", ethash.CacheSize(block))
	fmt.Printf("dataset size: %d bytes\n", ethash.DatasetSize(block))
	fmt.Printf("seed hash:    %s\n", hex.EncodeToString(ethash.SeedHash(block)))
	return nil
}

func runVerify(c *cli.Context) error {
	block := c.Uint64("block")

	hashBytes, err := hex.DecodeString(trim0x(c.String("hash")))
	if err != nil || len(hashBytes) != 32 {
		return cli.Exit("hash must be 32 bytes of hex", 1)
	}
	var headerHash [32]byte
	copy(headerHash[:], hashBytes)

	var mixDigest [32]byte
	if m := c.String("mix"); m != "" {
		mixBytes, err := hex.DecodeString(trim0x(m))
		if err != nil || len(mixBytes) != 32 {
			return cli.Exit("mix must be 32 bytes of hex", 1)
		}
		copy(mixDigest[:], mixBytes)
	}

	difficulty, err := parseUint256(c.String("difficulty"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid difficulty: %v", err), 1)
	}

	ok, err := ethash.VerifySolution(block, headerHash, c.Uint64("nonce"), mixDigest, difficulty)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if ok {
		fmt.Println("valid")
		return nil
	}
	fmt.Println("invalid")
	return cli.Exit("", 1)
}

func trim0x(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

func parseUint256(s string) (*uint256.Int, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return uint256.FromHex(s)
	}
	return uint256.FromDecimal(s)
}

var mineCommand = &cli.Command{
	Name:  "mine",
	Usage: "search for a nonce satisfying the given block/hash/difficulty and print it",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "block", Required: true},
		&cli.StringFlag{Name: "hash", Required: true, Usage: "32-byte header hash (without nonce), hex"},
		&cli.StringFlag{Name: "difficulty", Required: true, Usage: "difficulty, decimal or 0x-prefixed hex"},
	},
	Action: runMine,
}

func runMine(c *cli.Context) error {
	hashBytes, err := hex.DecodeString(trim0x(c.String("hash")))
	if err != nil || len(hashBytes) != 32 {
		return cli.Exit("hash must be 32 bytes of hex", 1)
	}
	var headerHash [32]byte
	copy(headerHash[:], hashBytes)

	difficulty, err := parseUint256(c.String("difficulty"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid difficulty: %v", err), 1)
	}

	engine := ethash.New(ethash.Config{
		CachesInMem:   resolvedConfig.CachesInMem,
		DatasetsInMem: resolvedConfig.DatasetsInMem,
		PowMode:       ethash.ModeNormal,
	})
	result, err := engine.Mine(&diagHeader{number: c.Uint64("block"), difficulty: difficulty, hash: headerHash}, difficulty, nil)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Printf("nonce:      %d\n", result.Nonce)
	fmt.Printf("mix digest: %s\n", hex.EncodeToString(result.MixDigest[:]))
	return nil
}

// diagHeader is the CLI's minimal Header implementation, built straight
// from the flags the user supplied rather than any on-disk block format.
type diagHeader struct {
	number     uint64
	difficulty *uint256.Int
	hash       [32]byte
}

func (h *diagHeader) NumberU64() uint64        { return h.number }
func (h *diagHeader) Nonce() uint64            { return 0 }
func (h *diagHeader) MixDigest() [32]byte      { return [32]byte{} }
func (h *diagHeader) Difficulty() *uint256.Int { return h.difficulty }
func (h *diagHeader) HashNoNonce() [32]byte    { return h.hash }

var resolvedConfig = defaultConfig

var app = cli.NewApp()

func init() {
	app.Name = "ethash-diag"
	app.Usage = "ethash epoch and proof-of-work diagnostics"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "TOML config file with CachesInMem/DatasetsInMem"},
	}
	app.Before = func(c *cli.Context) error {
		cfg, err := loadConfig(c.String("config"))
		if err != nil {
			return err
		}
		resolvedConfig = cfg
		return nil
	}
	app.Commands = []*cli.Command{epochCommand, verifyCommand, mineCommand}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

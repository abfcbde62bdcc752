// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/udao-org/udao-ledger/genesis"
)

// Config is the content of the --config file.
type Config struct {
	// Genesis of the ledger, the devnet one when absent.
	Genesis *genesis.Genesis `yaml:"genesis"`
	Node    NodeConfig       `yaml:"node"`
}

type NodeConfig struct {
	DataDir           string `yaml:"dataDir"`
	InMemory          bool   `yaml:"inMemory"`
	Cache             int    `yaml:"cache"`
	APIAddr           string `yaml:"apiAddr"`
	APICors           string `yaml:"apiCors"`
	APIBacktraceLimit uint64 `yaml:"apiBacktraceLimit"`
	APILogsLimit      uint64 `yaml:"apiLogsLimit"`
	EnableAPILogs     bool   `yaml:"enableApiLogs"`
	APISlowQueries    int    `yaml:"apiSlowQueriesThreshold"`
	APILog5xx         bool   `yaml:"apiLogAll5xxErrors"`
	EnableMetrics     bool   `yaml:"enableMetrics"`
	MetricsAddr       string `yaml:"metricsAddr"`
	Verbosity         int    `yaml:"verbosity"`
	JSONLogs          bool   `yaml:"jsonLogs"`
	NTPCheck          bool   `yaml:"ntpCheck"`
}

func defaultNodeConfig() NodeConfig {
	return NodeConfig{
		DataDir:           dataDirFlag.Value,
		Cache:             cacheFlag.Value,
		APIAddr:           apiAddrFlag.Value,
		APICors:           apiCorsFlag.Value,
		APIBacktraceLimit: apiBacktraceLimitFlag.Value,
		APILogsLimit:      apiLogsLimitFlag.Value,
		APISlowQueries:    apiSlowQueriesFlag.Value,
		MetricsAddr:       metricsAddrFlag.Value,
		Verbosity:         verbosityFlag.Value,
	}
}

// parseConfig decodes a config document over the defaults. Unknown keys are rejected.
func parseConfig(data []byte) (*Config, error) {
	cfg := &Config{Node: defaultNodeConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Genesis != nil {
		if err := cfg.Genesis.Validate(); err != nil {
			return nil, errors.Wrap(err, "genesis")
		}
	}
	return cfg, nil
}

// loadConfig reads the --config file, if any, then lets every flag given on the command
// line override it.
func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg := &Config{Node: defaultNodeConfig()}
	if path := ctx.GlobalString(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if cfg, err = parseConfig(data); err != nil {
			return nil, errors.WithMessage(err, path)
		}
	}
	cfg.Node.override(ctx)
	return cfg, nil
}

func (n *NodeConfig) override(ctx *cli.Context) {
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		n.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(inMemoryFlag.Name) {
		n.InMemory = ctx.GlobalBool(inMemoryFlag.Name)
	}
	if ctx.GlobalIsSet(cacheFlag.Name) {
		n.Cache = ctx.GlobalInt(cacheFlag.Name)
	}
	if ctx.GlobalIsSet(apiAddrFlag.Name) {
		n.APIAddr = ctx.GlobalString(apiAddrFlag.Name)
	}
	if ctx.GlobalIsSet(apiCorsFlag.Name) {
		n.APICors = ctx.GlobalString(apiCorsFlag.Name)
	}
	if ctx.GlobalIsSet(apiBacktraceLimitFlag.Name) {
		n.APIBacktraceLimit = ctx.GlobalUint64(apiBacktraceLimitFlag.Name)
	}
	if ctx.GlobalIsSet(apiLogsLimitFlag.Name) {
		n.APILogsLimit = ctx.GlobalUint64(apiLogsLimitFlag.Name)
	}
	if ctx.GlobalIsSet(enableAPILogsFlag.Name) {
		n.EnableAPILogs = ctx.GlobalBool(enableAPILogsFlag.Name)
	}
	if ctx.GlobalIsSet(apiSlowQueriesFlag.Name) {
		n.APISlowQueries = ctx.GlobalInt(apiSlowQueriesFlag.Name)
	}
	if ctx.GlobalIsSet(apiLog5xxFlag.Name) {
		n.APILog5xx = ctx.GlobalBool(apiLog5xxFlag.Name)
	}
	if ctx.GlobalIsSet(enableMetricsFlag.Name) {
		n.EnableMetrics = ctx.GlobalBool(enableMetricsFlag.Name)
	}
	if ctx.GlobalIsSet(metricsAddrFlag.Name) {
		n.MetricsAddr = ctx.GlobalString(metricsAddrFlag.Name)
	}
	if ctx.GlobalIsSet(verbosityFlag.Name) {
		n.Verbosity = ctx.GlobalInt(verbosityFlag.Name)
	}
	if ctx.GlobalIsSet(jsonLogsFlag.Name) {
		n.JSONLogs = ctx.GlobalBool(jsonLogsFlag.Name)
	}
	if ctx.GlobalIsSet(ntpCheckFlag.Name) {
		n.NTPCheck = ctx.GlobalBool(ntpCheckFlag.Name)
	}
}

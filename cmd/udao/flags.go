// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML file with the genesis and node settings",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the ledger databases",
	}
	inMemoryFlag = cli.BoolFlag{
		Name:  "in-memory",
		Usage: "keep every database in memory, nothing survives a restart",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 512,
		Usage: "megabytes of RAM allocated to the state database cache",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiBacktraceLimitFlag = cli.Uint64Flag{
		Name:  "api-backtrace-limit",
		Value: 1000,
		Usage: "limit the distance between 'pos' and the head for subscriptions",
	}
	apiLogsLimitFlag = cli.Uint64Flag{
		Name:  "api-logs-limit",
		Value: 1000,
		Usage: "limit the number of events returned by /events API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesFlag = cli.IntFlag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "all queries with duration (ms) above the threshold will be logged",
	}
	apiLog5xxFlag = cli.BoolFlag{
		Name:  "api-log-all-5xx-errors",
		Usage: "log all 5xx errors",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	ntpCheckFlag = cli.BoolFlag{
		Name:  "ntp-check",
		Usage: "warn on startup when the local clock drifts from pool.ntp.org",
	}

	// key and voucher commands
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "hex encoded private key, prompted for on the terminal when neither key flag is given",
	}
	keyFileFlag = cli.StringFlag{
		Name:  "key-file",
		Usage: "file holding the hex encoded private key",
	}
	outFlag = cli.StringFlag{
		Name:  "out",
		Usage: "write the generated key to this file instead of printing it",
	}
	redeemerFlag = cli.StringFlag{
		Name:  "redeemer",
		Usage: "address allowed to redeem the voucher",
	}
	roleIDFlag = cli.UintFlag{
		Name:  "role-id",
		Usage: "role the voucher approves (0 validator, 1 juror, 2 corporate, 3 super validator)",
	}
	contentIDFlag = cli.Uint64Flag{
		Name:  "content-id",
		Usage: "content the coaching is bought for",
	}
	priceFlag = cli.StringFlag{
		Name:  "price",
		Usage: "coaching price in base units of currency, decimal or 0x hex",
	}
	currencyFlag = cli.StringFlag{
		Name:  "currency",
		Value: "UDAO",
		Usage: "currency the price is denominated in",
	}
	refundableFlag = cli.BoolFlag{
		Name:  "refundable",
		Usage: "whether the buyer may be refunded",
	}
	validUntilFlag = cli.Uint64Flag{
		Name:  "valid-until",
		Usage: "unix time after which the voucher expires, now plus --ttl when unset",
	}
	ttlFlag = cli.DurationFlag{
		Name:  "ttl",
		Value: defaultVoucherTTL,
		Usage: "voucher lifetime used when --valid-until is unset",
	}
	nonceFlag = cli.Uint64Flag{
		Name:  "nonce",
		Usage: "voucher nonce, the current unix time in nanoseconds when unset",
	}
)

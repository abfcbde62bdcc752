// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/udao-org/udao-ledger/api"
	"github.com/udao-org/udao-ledger/genesis"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "udao",
		Usage:     "Node of the UDAO protocol ledger",
		Copyright: "2025 The UDAO Ledger developers",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			inMemoryFlag,
			cacheFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiBacktraceLimitFlag,
			apiLogsLimitFlag,
			enableAPILogsFlag,
			apiSlowQueriesFlag,
			apiLog5xxFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			verbosityFlag,
			jsonLogsFlag,
			ntpCheckFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "keygen",
				Usage:  "generate a new secp256k1 key",
				Flags:  []cli.Flag{outFlag},
				Action: keygenAction,
			},
			{
				Name:   "sign-role-voucher",
				Usage:  "sign a voucher approving a role application",
				Flags:  []cli.Flag{keyFlag, keyFileFlag, redeemerFlag, roleIDFlag, validUntilFlag, ttlFlag, nonceFlag},
				Action: signRoleVoucherAction,
			},
			{
				Name:   "sign-coaching-voucher",
				Usage:  "sign a voucher authorizing a coaching purchase",
				Flags:  []cli.Flag{keyFlag, keyFileFlag, redeemerFlag, contentIDFlag, priceFlag, currencyFlag, refundableFlag, validUntilFlag, ttlFlag, nonceFlag},
				Action: signCoachingVoucherAction,
			},
			{
				Name:   "reindex",
				Usage:  "rebuild the event index from the stored receipts",
				Action: reindexAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	initLogger(&cfg.Node)
	if cfg.Node.EnableMetrics {
		metrics.InitializePrometheusMetrics()
	}

	gene, isDevnet := cfg.Genesis, false
	if gene == nil {
		gene, isDevnet = genesis.NewDevnet(), true
	}

	mainDB, logDB, dataDir, err := openDatabases(&cfg.Node)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	l, err := ledger.New(mainDB, ledger.Options{LogDB: logDB})
	if err != nil {
		return errors.Wrap(err, "open ledger")
	}
	if _, err := gene.Apply(l); err != nil {
		return errors.Wrap(err, "apply genesis")
	}
	if cfg.Node.NTPCheck {
		go checkClockOffset()
	}

	var enableReqLogger atomic.Bool
	enableReqLogger.Store(cfg.Node.EnableAPILogs)
	handler, closeAPI := api.New(l, logDB, api.Options{
		AllowedOrigins:  cfg.Node.APICors,
		BacktraceLimit:  cfg.Node.APIBacktraceLimit,
		LogsLimit:       cfg.Node.APILogsLimit,
		EnableMetrics:   cfg.Node.EnableMetrics,
		EnableReqLogger: &enableReqLogger,
		SlowQueries:     time.Duration(cfg.Node.APISlowQueries) * time.Millisecond,
		Log5xxErrors:    cfg.Node.APILog5xx,
	})
	defer func() { logger.Info("closing subscriptions..."); closeAPI() }()

	apiListener, err := listen(cfg.Node.APIAddr, "API")
	if err != nil {
		return err
	}
	apiURL := "http://" + apiListener.Addr().String() + "/"

	g, gctx := errgroup.WithContext(exitSignal)
	var metricsURL string
	if cfg.Node.EnableMetrics {
		metricsListener, err := listen(cfg.Node.MetricsAddr, "metrics")
		if err != nil {
			apiListener.Close()
			return err
		}
		serve(gctx, g, "metrics", newMetricsServer(), metricsListener)
		metricsURL = "http://" + metricsListener.Addr().String() + "/metrics"
	}
	serve(gctx, g, "API", newAPIServer(handler), apiListener)

	printStartupMessage(gene, isDevnet, l, dataDir, apiURL, metricsURL)
	return g.Wait()
}

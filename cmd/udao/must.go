// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/udao-org/udao-ledger/genesis"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/logdb"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/metrics"
)

const maxClockOffset = 5 * time.Second

func initLogger(cfg *NodeConfig) {
	useColor := (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) && os.Getenv("TERM") != "dumb"
	log.Init(os.Stdout, log.Config{
		Verbosity: cfg.Verbosity,
		JSON:      cfg.JSONLogs,
		Color:     useColor,
	})
}

func makeDataDir(cfg *NodeConfig) (string, error) {
	if cfg.DataDir == "" {
		return "", errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	return cfg.DataDir, nil
}

func openMainDB(cfg *NodeConfig, dataDir string) (*lvldb.LevelDB, error) {
	cacheMB := normalizeCacheSize(cfg.Cache)
	logger.Debug("cache size(MB)", "size", cacheMB)

	dir := filepath.Join(dataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 500,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dir)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 128 {
		sizeMB = 128
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func openLogDB(dataDir string) (*logdb.LogDB, error) {
	dir := filepath.Join(dataDir, "logs.db")
	db, err := logdb.New(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open log database [%v]", dir)
	}
	return db, nil
}

// openDatabases opens the state store and the event index, in memory when asked to.
func openDatabases(cfg *NodeConfig) (*lvldb.LevelDB, *logdb.LogDB, string, error) {
	if cfg.InMemory {
		mainDB, err := lvldb.NewMem()
		if err != nil {
			return nil, nil, "", errors.Wrap(err, "open main database")
		}
		logDB, err := logdb.NewMem()
		if err != nil {
			mainDB.Close()
			return nil, nil, "", errors.Wrap(err, "open log database")
		}
		return mainDB, logDB, "Memory", nil
	}

	dataDir, err := makeDataDir(cfg)
	if err != nil {
		return nil, nil, "", err
	}
	mainDB, err := openMainDB(cfg, dataDir)
	if err != nil {
		return nil, nil, "", err
	}
	logDB, err := openLogDB(dataDir)
	if err != nil {
		mainDB.Close()
		return nil, nil, "", err
	}
	return mainDB, logDB, dataDir, nil
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > maxClockOffset {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// serve runs srv on listener in g until ctx is done, then shuts it down.
func serve(ctx context.Context, g *errgroup.Group, name string, srv *http.Server, listener net.Listener) {
	g.Go(func() error {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "%s server", name)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info(fmt.Sprintf("stopping %s server...", name))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func listen(addr, name string) (net.Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s addr [%v]", name, addr)
	}
	return listener, nil
}

const maxRequestBodySize = 200 * 1024

func newAPIServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           http.MaxBytesHandler(handler, maxRequestBodySize),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
}

func newMetricsServer() *http.Server {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	return &http.Server{
		Handler:           handlers.CompressHandler(router),
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
	}
}

func printStartupMessage(gene *genesis.Genesis, isDevnet bool, l *ledger.Ledger, dataDir, apiURL, metricsURL string) {
	fmt.Printf(`Starting %v
    Head         [ #%v @%v ]
    Foundation   [ %v ]
    Backend      [ %v ]
    Data dir     [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
`,
		"UDAO Ledger/"+fullVersion(),
		l.Head(), time.Unix(int64(l.Now()), 0),
		gene.Foundation,
		gene.Backend,
		dataDir,
		apiURL,
		func() string {
			if metricsURL == "" {
				return "Disabled"
			}
			return metricsURL
		}())

	if isDevnet {
		fmt.Println("    Dev accounts")
		for i, a := range genesis.DevAccounts() {
			fmt.Printf("      #%d %v 0x%x\n", i, a.Address, crypto.FromECDSA(a.PrivateKey))
		}
	}
}

func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.udao.ledger")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.udao.ledger")
		default:
			return filepath.Join(home, ".org.udao.ledger")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

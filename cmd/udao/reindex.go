// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/logdb"
)

const reindexBatch = 1024

func reindexAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	initLogger(&cfg.Node)
	if cfg.Node.InMemory {
		return errors.New("nothing to reindex in memory")
	}

	dataDir, err := makeDataDir(&cfg.Node)
	if err != nil {
		return err
	}
	mainDB, err := openMainDB(&cfg.Node, dataDir)
	if err != nil {
		return err
	}
	defer mainDB.Close()
	logDB, err := openLogDB(dataDir)
	if err != nil {
		return err
	}
	defer logDB.Close()

	l, err := ledger.New(mainDB, ledger.Options{})
	if err != nil {
		return errors.Wrap(err, "open ledger")
	}
	return reindex(exitSignal, l, logDB, os.Stdout)
}

// reindex drops every indexed event and writes the events of all stored receipts again,
// reporting progress to out.
func reindex(ctx context.Context, l *ledger.Ledger, logDB *logdb.LogDB, out io.Writer) error {
	head := l.Head()
	if err := logDB.Truncate(); err != nil {
		return errors.Wrap(err, "truncate log db")
	}
	if head == 0 {
		return nil
	}

	fmt.Fprintln(out, ">> Rebuilding log db <<")
	bar := pb.New64(int64(head)).SetMaxWidth(90)
	bar.Output = out
	bar.Start()
	defer func() { bar.NotPrint = true }()

	for from := uint64(1); from <= head; {
		receipts, err := l.Receipts(from, reindexBatch)
		if err != nil {
			return err
		}
		if len(receipts) == 0 {
			break
		}
		for _, r := range receipts {
			if err := logDB.Write(r); err != nil {
				return errors.Wrapf(err, "index receipt %d", r.Seq)
			}
			bar.Increment()
		}
		from = receipts[len(receipts)-1].Seq + 1

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	bar.Finish()
	return nil
}

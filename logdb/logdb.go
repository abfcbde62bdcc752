// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package logdb indexes the events of committed receipts in sqlite for filtering.
package logdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

const (
	insertEventQuery   = "INSERT OR REPLACE INTO event(seq, eventIndex, receiptID, time, caller, address, name, args) VALUES(?,?,?,?,?,?,?,?)"
	insertAccountQuery = "INSERT OR IGNORE INTO event_account(account, seq, eventIndex) VALUES(?,?,?)"
)

type LogDB struct {
	path          string
	db            *sql.DB
	stmts         *stmtCache
	driverVersion string
}

// New create or open log db at given path.
func New(path string) (logDB *LogDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if logDB == nil {
			db.Close()
		}
	}()
	// a single connection, otherwise every connection to :memory: is a new database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &LogDB{
		path:          path,
		db:            db,
		stmts:         newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem create a log db in ram.
func NewMem() (*LogDB, error) {
	return New(":memory:")
}

// Close close the log db.
func (db *LogDB) Close() error {
	db.stmts.Clear()
	return db.db.Close()
}

func (db *LogDB) Path() string {
	return db.path
}

// DriverVersion returns the sqlite library version.
func (db *LogDB) DriverVersion() string {
	return db.driverVersion
}

// Write indexes the events of a receipt. Reverted receipts carry no events.
func (db *LogDB) Write(r *tx.Receipt) error {
	if r.Reverted || len(r.Events) == 0 {
		return nil
	}
	insertEvent, err := db.stmts.Prepare(insertEventQuery)
	if err != nil {
		return err
	}
	insertAccount, err := db.stmts.Prepare(insertAccountQuery)
	if err != nil {
		return err
	}

	dbTx, err := db.db.Begin()
	if err != nil {
		return err
	}
	for i, ev := range r.Events {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			dbTx.Rollback()
			return err
		}
		if _, err := dbTx.Stmt(insertEvent).Exec(
			r.Seq, i, r.ID.Bytes(), r.Time, r.Caller.Bytes(), ev.Address.Bytes(), ev.Name, string(args),
		); err != nil {
			dbTx.Rollback()
			return errors.Wrap(err, "insert event")
		}
		for _, account := range accountsOf(r.Caller, ev) {
			if _, err := dbTx.Stmt(insertAccount).Exec(account.Bytes(), r.Seq, i); err != nil {
				dbTx.Rollback()
				return errors.Wrap(err, "insert event account")
			}
		}
	}
	if err := dbTx.Commit(); err != nil {
		return err
	}
	metricEventsWritten().Add(int64(len(r.Events)))
	return nil
}

// accountsOf lists the caller and every argument that is an address.
func accountsOf(caller udao.Address, ev *tx.Event) []udao.Address {
	accounts := []udao.Address{caller}
	for _, arg := range ev.Args {
		if len(arg) != 2+udao.AddressLength*2 || !strings.HasPrefix(arg, "0x") {
			continue
		}
		if addr, err := udao.ParseAddress(arg); err == nil && !addr.IsZero() {
			accounts = append(accounts, addr)
		}
	}
	return accounts
}

// LastSeq returns the sequence of the newest indexed receipt; ok is false when empty.
func (db *LogDB) LastSeq(ctx context.Context) (seq uint64, ok bool, err error) {
	var last sql.NullInt64
	if err := db.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM event").Scan(&last); err != nil {
		return 0, false, err
	}
	return uint64(last.Int64), last.Valid, nil
}

// Truncate removes every indexed event.
func (db *LogDB) Truncate() error {
	_, err := db.db.Exec("DELETE FROM event; DELETE FROM event_account;")
	return err
}

func (db *LogDB) FilterEvents(ctx context.Context, filter *EventFilter) ([]*Event, error) {
	const selectEvent = "SELECT seq, eventIndex, receiptID, time, caller, address, name, args FROM event"
	if filter == nil {
		return db.queryEvents(ctx, selectEvent+" ORDER BY seq ASC, eventIndex ASC")
	}
	metricsHandleEventsFilter(filter)

	var args []any
	stmt := selectEvent + " WHERE 1"
	if len(filter.Names) > 0 {
		stmt += " AND name IN (?" + strings.Repeat(",?", len(filter.Names)-1) + ")"
		for _, name := range filter.Names {
			args = append(args, name)
		}
	}
	if filter.Address != nil {
		args = append(args, filter.Address.Bytes())
		stmt += " AND address = ?"
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND EXISTS (SELECT 1 FROM event_account a WHERE a.account = ? AND a.seq = event.seq AND a.eventIndex = event.eventIndex)"
	}
	if filter.Range != nil {
		args = append(args, filter.Range.From)
		stmt += " AND time >= ?"
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND time <= ?"
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC, eventIndex DESC"
	} else {
		stmt += " ORDER BY seq ASC, eventIndex ASC"
	}
	if filter.Options != nil {
		stmt += " LIMIT ?, ?"
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *LogDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq       uint64
			index     uint32
			receiptID []byte
			time      uint64
			caller    []byte
			address   []byte
			name      string
			data      string
		)
		if err := rows.Scan(&seq, &index, &receiptID, &time, &caller, &address, &name, &data); err != nil {
			return nil, err
		}
		ev := &Event{
			Seq:       seq,
			Index:     index,
			ReceiptID: udao.BytesToBytes32(receiptID),
			Time:      time,
			Caller:    udao.BytesToAddress(caller),
			Address:   udao.BytesToAddress(address),
			Name:      name,
		}
		if err := json.Unmarshal([]byte(data), &ev.Args); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

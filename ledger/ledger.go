// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger executes calls against the builtin contracts one at a time, each
// either fully applied or fully reverted, and keeps their receipts.
package ledger

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/cache"
	"github.com/udao-org/udao-ledger/co"
	"github.com/udao-org/udao-ledger/kv"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/logdb"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

var logger = log.WithContext("pkg", "ledger")

const (
	stateBucket   = kv.Bucket("s")
	receiptBucket = kv.Bucket("r") // seq => receipt
	indexBucket   = kv.Bucket("i") // receipt id => seq
	nonceBucket   = kv.Bucket("n") // caller => accepted calls
	metaBucket    = kv.Bucket("m")

	defaultReceiptCacheSize = 1024
)

var headKey = []byte("head")

// Options of a ledger.
type Options struct {
	// Clock is the time source of block times, the wall clock if nil.
	Clock clock.Clock
	// LogDB receives the events of committed receipts when set.
	LogDB            *logdb.LogDB
	ReceiptCacheSize int
}

// Ledger owns the state. Calls are serialized: each one sees the effects of every
// call committed before it.
type Ledger struct {
	mu       sync.Mutex
	store    kv.Store
	state    *state.State
	clock    clock.Clock
	logDB    *logdb.LogDB
	receipts *cache.LRU[uint64, *tx.Receipt]
	head     uint64 // seq of the newest receipt
	signal   co.Signal
}

// New opens the ledger kept in store.
func New(store kv.Store, opts Options) (*Ledger, error) {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.ReceiptCacheSize <= 0 {
		opts.ReceiptCacheSize = defaultReceiptCacheSize
	}
	receipts, err := cache.NewLRU[uint64, *tx.Receipt](opts.ReceiptCacheSize)
	if err != nil {
		return nil, err
	}
	l := &Ledger{
		store:    store,
		state:    state.New(stateBucket.NewStore(store)),
		clock:    opts.Clock,
		logDB:    opts.LogDB,
		receipts: receipts,
	}
	head, err := metaBucket.NewStore(store).Get(headKey)
	switch {
	case err == nil:
		l.head = binary.BigEndian.Uint64(head)
	case !store.IsNotFound(err):
		return nil, errors.Wrap(err, "load head")
	}
	return l, nil
}

// Now returns the time the next call runs at.
func (l *Ledger) Now() uint64 {
	return udao.Timestamp(l.clock.Now())
}

// Head returns the sequence of the newest receipt, 0 if there is none.
func (l *Ledger) Head() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head
}

// Updated returns a channel closed by the next committed receipt.
func (l *Ledger) Updated() <-chan struct{} {
	return l.signal.Wait()
}

// Execute runs fn as one call of caller. A revert returned by fn rolls the state back
// and is recorded in a reverted receipt; any other error rolls back and records nothing.
func (l *Ledger) Execute(caller udao.Address, method string, fn builtin.Run) (*tx.Receipt, any, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], l.head+1)
	return l.execute(udao.Blake2b([]byte(method), seq[:]), caller, method, fn, nil)
}

// View runs fn against the current state. Any change fn makes is discarded.
func (l *Ledger) View(fn func(c *builtin.Contracts) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	checkpoint := l.state.NewCheckpoint()
	defer l.state.RevertTo(checkpoint)
	return fn(builtin.New(l.state, func(*tx.Event) {}, l.Now()))
}

// execute must be called with mu held. extra writes into the batch of the receipt.
func (l *Ledger) execute(
	id udao.Bytes32,
	caller udao.Address,
	method string,
	fn builtin.Run,
	extra func(kv.Batch) error,
) (*tx.Receipt, any, error) {
	startTime := time.Now()
	receipt := &tx.Receipt{
		Seq:    l.head + 1,
		ID:     id,
		Caller: caller,
		Method: method,
		Time:   l.Now(),
	}

	var events tx.Events
	checkpoint := l.state.NewCheckpoint()
	out, err := fn(builtin.New(l.state, func(ev *tx.Event) {
		events = append(events, ev)
	}, receipt.Time), caller)
	if err != nil {
		l.state.RevertTo(checkpoint)
		revert, ok := revertOf(err)
		if !ok {
			metricCallCount().AddWithLabel(1, map[string]string{"method": method, "status": "failed"})
			return nil, nil, errors.WithMessagef(err, "execute %s", method)
		}
		receipt.Reverted = true
		receipt.Kind = revert.Kind().String()
		receipt.Reason = revert.Error()
		out = nil
	} else {
		receipt.Events = events
	}

	if err := l.commit(receipt, extra); err != nil {
		l.state.RevertTo(checkpoint)
		return nil, nil, err
	}

	status := "ok"
	if receipt.Reverted {
		status = "reverted"
		logger.Debug("call reverted", "seq", receipt.Seq, "method", method, "caller", caller, "reason", receipt.Reason)
	} else {
		logger.Info("call committed", "seq", receipt.Seq, "method", method, "caller", caller, "events", len(receipt.Events))
	}
	metricCallCount().AddWithLabel(1, map[string]string{"method": method, "status": status})
	metricCallDuration().ObserveWithLabels(time.Since(startTime).Milliseconds(), map[string]string{"method": method})
	return receipt, out, nil
}

// commit writes the state changes, the receipt and its index in one batch.
func (l *Ledger) commit(receipt *tx.Receipt, extra func(kv.Batch) error) error {
	batch := l.store.NewBatch()
	commitState, err := l.state.Stage(stateBucket.NewBatch(batch))
	if err != nil {
		return err
	}
	data, err := receipt.Encode()
	if err != nil {
		return err
	}
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], receipt.Seq)
	if err := receiptBucket.NewBatch(batch).Put(seq[:], data); err != nil {
		return err
	}
	if err := indexBucket.NewBatch(batch).Put(receipt.ID.Bytes(), seq[:]); err != nil {
		return err
	}
	if err := metaBucket.NewBatch(batch).Put(headKey, seq[:]); err != nil {
		return err
	}
	if extra != nil {
		if err := extra(batch); err != nil {
			return err
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write batch")
	}
	commitState()

	l.head = receipt.Seq
	l.receipts.Add(receipt.Seq, receipt)
	metricReceiptSeq().Set(int64(receipt.Seq))

	if l.logDB != nil {
		// the index can be rebuilt from receipts, so a failure here does not fail the call
		if err := l.logDB.Write(receipt); err != nil {
			logger.Warn("failed to index events", "seq", receipt.Seq, "err", err)
		}
	}
	l.signal.Broadcast()
	return nil
}

// Receipt returns the receipt with the given sequence.
func (l *Ledger) Receipt(seq uint64) (*tx.Receipt, error) {
	return l.receipts.GetOrLoad(seq, func(seq uint64) (*tx.Receipt, error) {
		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		data, err := receiptBucket.NewStore(l.store).Get(key[:])
		if err != nil {
			if l.store.IsNotFound(err) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return tx.DecodeReceipt(data)
	})
}

// ReceiptByID returns the receipt of a call.
func (l *Ledger) ReceiptByID(id udao.Bytes32) (*tx.Receipt, error) {
	seq, err := indexBucket.NewStore(l.store).Get(id.Bytes())
	if err != nil {
		if l.store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l.Receipt(binary.BigEndian.Uint64(seq))
}

// Receipts returns up to limit receipts starting at seq from.
func (l *Ledger) Receipts(from uint64, limit int) ([]*tx.Receipt, error) {
	if from == 0 {
		from = 1
	}
	head := l.Head()
	var out []*tx.Receipt
	for seq := from; seq <= head && len(out) < limit; seq++ {
		r, err := l.Receipt(seq)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

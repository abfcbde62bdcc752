// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"context"
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/token"
	"github.com/udao-org/udao-ledger/genesis"
	"github.com/udao-org/udao-ledger/ledger"
	"github.com/udao-org/udao-ledger/logdb"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

func newLedger(t *testing.T, opts ledger.Options) (*ledger.Ledger, *clock.Mock) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	mock := clock.NewMock()
	mock.Set(time.Unix(1_700_000_000, 0))
	opts.Clock = mock
	l, err := ledger.New(db, opts)
	require.NoError(t, err)
	return l, mock
}

func balanceOf(t *testing.T, l *ledger.Ledger, account udao.Address) *big.Int {
	var balance *big.Int
	require.NoError(t, l.View(func(c *builtin.Contracts) (err error) {
		balance, err = c.Token.BalanceOf(account)
		return
	}))
	return balance
}

func issue(account udao.Address, amount *big.Int) builtin.Run {
	return func(c *builtin.Contracts, _ udao.Address) (any, error) {
		return nil, c.Token.Issue(account, amount)
	}
}

func TestExecute(t *testing.T) {
	l, mock := newLedger(t, ledger.Options{})
	alice := udao.BytesToAddress([]byte("alice"))
	bob := udao.BytesToAddress([]byte("bob"))

	receipt, _, err := l.Execute(udao.Address{}, "seed", issue(alice, udao.Tokens(10)))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Seq)
	assert.Equal(t, uint64(1_700_000_000), receipt.Time)
	assert.False(t, receipt.Reverted)
	require.Len(t, receipt.Events, 1)
	assert.Equal(t, "Transfer", receipt.Events[0].Name)
	assert.Equal(t, builtin.Token.Address, receipt.Events[0].Address)

	mock.Add(time.Hour)
	// the second transfer fails and takes the first one with it
	receipt, out, err := l.Execute(alice, "pay", func(c *builtin.Contracts, caller udao.Address) (any, error) {
		if err := c.Token.Transfer(caller, bob, udao.Tokens(4)); err != nil {
			return nil, err
		}
		return "unreachable", c.Token.Transfer(caller, bob, udao.Tokens(7))
	})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, uint64(2), receipt.Seq)
	assert.Equal(t, uint64(1_700_003_600), receipt.Time)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, "resource", receipt.Kind)
	assert.Equal(t, token.ErrInsufficientBalance.Error(), receipt.Reason)
	assert.Empty(t, receipt.Events)

	assert.Equal(t, udao.Tokens(10), balanceOf(t, l, alice))
	assert.Equal(t, 0, balanceOf(t, l, bob).Sign())

	_, _, err = l.Execute(alice, "broken", func(*builtin.Contracts, udao.Address) (any, error) {
		return nil, errors.New("disk on fire")
	})
	assert.Error(t, err)
	assert.Equal(t, uint64(2), l.Head(), "faults leave no receipt")

	got, err := l.Receipt(2)
	require.NoError(t, err)
	assert.Equal(t, receipt, got)
	got, err = l.ReceiptByID(receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, receipt.Seq, got.Seq)

	_, err = l.Receipt(3)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	_, err = l.ReceiptByID(udao.Bytes32{1})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))

	all, err := l.Receipts(0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	all, err = l.Receipts(2, 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestView(t *testing.T) {
	l, _ := newLedger(t, ledger.Options{})
	alice := udao.BytesToAddress([]byte("alice"))

	require.NoError(t, l.View(func(c *builtin.Contracts) error {
		return c.Token.Issue(alice, udao.Tokens(1))
	}))
	assert.Equal(t, 0, balanceOf(t, l, alice).Sign())
	assert.Equal(t, uint64(0), l.Head())
}

func signedCall(t *testing.T, acc genesis.DevAccount, method, args string, nonce uint64) *tx.Call {
	call := &tx.Call{Method: method, Args: json.RawMessage(args), Nonce: nonce}
	require.NoError(t, call.Sign(acc.PrivateKey))
	return call
}

func TestSubmit(t *testing.T) {
	l, _ := newLedger(t, ledger.Options{})
	_, err := genesis.NewDevnet().Apply(l)
	require.NoError(t, err)

	accs := genesis.DevAccounts()
	alice, bob := accs[3], accs[4]
	before := balanceOf(t, l, bob.Address)

	transfer := `{"to":"` + bob.Address.String() + `","amount":"1000"}`
	receipt, _, err := l.Submit(signedCall(t, alice, "Token.transfer", transfer, 0))
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)
	assert.Equal(t, alice.Address, receipt.Caller)
	assert.Equal(t, new(big.Int).Add(before, big.NewInt(1000)), balanceOf(t, l, bob.Address))

	nonce, err := l.Nonce(alice.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), nonce)

	_, _, err = l.Submit(signedCall(t, alice, "Token.transfer", transfer, 0))
	assert.True(t, errors.Is(err, ledger.ErrKnownCall))

	_, _, err = l.Submit(signedCall(t, alice, "Token.transfer", transfer, 5))
	assert.True(t, errors.Is(err, ledger.ErrBadNonce))
	assert.True(t, ledger.IsBadCall(err))

	_, _, err = l.Submit(signedCall(t, alice, "Token.burnEverything", "{}", 1))
	assert.True(t, errors.Is(err, ledger.ErrUnknownMethod))

	_, _, err = l.Submit(signedCall(t, alice, "Token.transfer", `{"to":"nope"}`, 1))
	assert.True(t, errors.Is(err, builtin.ErrInvalidArgs))
	assert.True(t, ledger.IsBadCall(err))

	unsigned := &tx.Call{Method: "Token.transfer", Args: json.RawMessage(transfer), Nonce: 1}
	_, _, err = l.Submit(unsigned)
	assert.True(t, errors.Is(err, ledger.ErrInvalidSignature))

	// rejected calls kept the nonce at 1, a reverted call consumes it
	huge := `{"to":"` + bob.Address.String() + `","amount":"0xffffffffffffffffffffffffffff"}`
	receipt, _, err = l.Submit(signedCall(t, alice, "Token.transfer", huge, 1))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	nonce, err = l.Nonce(alice.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), nonce)

	receipt, _, err = l.Submit(signedCall(t, alice, "Token.mint", transfer, 2))
	require.NoError(t, err)
	assert.True(t, receipt.Reverted)
	assert.Equal(t, "authorization", receipt.Kind)
}

func TestExecuteRunsAsCaller(t *testing.T) {
	l, _ := newLedger(t, ledger.Options{})
	alice := udao.BytesToAddress([]byte("alice"))
	bob := udao.BytesToAddress([]byte("bob"))
	_, _, err := l.Execute(udao.Address{}, "seed", issue(alice, udao.Tokens(5)))
	require.NoError(t, err)

	var seen udao.Address
	receipt, _, err := l.Execute(alice, "pay", func(c *builtin.Contracts, caller udao.Address) (any, error) {
		seen = caller
		return nil, c.Token.Transfer(caller, bob, udao.Tokens(2))
	})
	require.NoError(t, err)
	assert.False(t, receipt.Reverted)
	assert.Equal(t, alice, seen)
	assert.Equal(t, alice, receipt.Caller)
	assert.Equal(t, udao.Tokens(3), balanceOf(t, l, alice))
	assert.Equal(t, udao.Tokens(2), balanceOf(t, l, bob))
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger")
	alice := udao.BytesToAddress([]byte("alice"))

	db, err := lvldb.New(path, lvldb.Options{})
	require.NoError(t, err)
	l, err := ledger.New(db, ledger.Options{})
	require.NoError(t, err)
	first, _, err := l.Execute(udao.Address{}, "seed", issue(alice, udao.Tokens(3)))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = lvldb.New(path, lvldb.Options{})
	require.NoError(t, err)
	defer db.Close()
	l, err = ledger.New(db, ledger.Options{})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), l.Head())
	got, err := l.ReceiptByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, udao.Tokens(3), balanceOf(t, l, alice))
}

func TestEventsAndUpdates(t *testing.T) {
	ldb, err := logdb.NewMem()
	require.NoError(t, err)
	defer ldb.Close()
	l, _ := newLedger(t, ledger.Options{LogDB: ldb, ReceiptCacheSize: 2})
	alice := udao.BytesToAddress([]byte("alice"))

	updated := l.Updated()
	select {
	case <-updated:
		t.Fatal("signalled before any commit")
	default:
	}

	for range 3 {
		_, _, err := l.Execute(udao.Address{}, "seed", issue(alice, udao.Tokens(1)))
		require.NoError(t, err)
	}
	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("commit did not signal")
	}

	events, err := ldb.FilterEvents(context.Background(), &logdb.EventFilter{Account: &alice})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	seq, ok, err := ldb.LastSeq(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), seq)

	// evicted from the cache, loaded from the store
	r, err := l.Receipt(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Seq)
}

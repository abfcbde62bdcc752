// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/logdb"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	tokenAddr  = udao.BytesToAddress([]byte("Token"))
	stakerAddr = udao.BytesToAddress([]byte("Staker"))
	alice      = udao.BytesToAddress([]byte("alice"))
	bob        = udao.BytesToAddress([]byte("bob"))
)

func receipt(seq uint64, caller udao.Address, events ...*tx.Event) *tx.Receipt {
	return &tx.Receipt{
		Seq:    seq,
		ID:     udao.BytesToBytes32([]byte{byte(seq)}),
		Caller: caller,
		Method: "test",
		Time:   1000 + seq*10,
		Events: events,
	}
}

func newDB(t *testing.T) *logdb.LogDB {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Write(receipt(1, alice,
		&tx.Event{Address: tokenAddr, Name: "Transfer", Args: []string{alice.String(), stakerAddr.String(), "10"}},
		&tx.Event{Address: stakerAddr, Name: "GovernanceStake", Args: []string{alice.String(), "10", "300"}},
	)))
	require.NoError(t, db.Write(receipt(2, bob,
		&tx.Event{Address: tokenAddr, Name: "Transfer", Args: []string{bob.String(), alice.String(), "1"}},
	)))
	reverted := receipt(3, bob, &tx.Event{Address: tokenAddr, Name: "Transfer"})
	reverted.Reverted = true
	require.NoError(t, db.Write(reverted))
	return db
}

func TestFilterEvents(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, uint64(1), all[0].Seq)
	assert.Equal(t, uint32(1), all[1].Index)
	assert.Equal(t, []string{alice.String(), "10", "300"}, all[1].Args)
	assert.Equal(t, bob, all[2].Caller)
	assert.Equal(t, uint64(1020), all[2].Time)

	tests := []struct {
		name   string
		filter *logdb.EventFilter
		want   []uint64 // seqs
	}{
		{"by name", &logdb.EventFilter{Names: []string{"Transfer"}}, []uint64{1, 2}},
		{"any of names", &logdb.EventFilter{Names: []string{"Transfer", "GovernanceStake"}}, []uint64{1, 1, 2}},
		{"by address", &logdb.EventFilter{Address: &stakerAddr}, []uint64{1}},
		{"by account in args", &logdb.EventFilter{Account: &bob}, []uint64{2}},
		{"by account as caller or arg", &logdb.EventFilter{Account: &alice, Names: []string{"Transfer"}}, []uint64{1, 2}},
		{"time range", &logdb.EventFilter{Range: &logdb.Range{From: 1015, To: 2000}}, []uint64{2}},
		{"open range", &logdb.EventFilter{Range: &logdb.Range{From: 1010}}, []uint64{1, 1, 2}},
		{"desc with limit", &logdb.EventFilter{Order: logdb.DESC, Options: &logdb.Options{Limit: 2}}, []uint64{2, 1}},
		{"offset", &logdb.EventFilter{Options: &logdb.Options{Offset: 2, Limit: 10}}, []uint64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			seqs := make([]uint64, 0, len(events))
			for _, ev := range events {
				seqs = append(seqs, ev.Seq)
			}
			assert.Equal(t, tt.want, seqs)
		})
	}
}

func TestReindex(t *testing.T) {
	db := newDB(t)
	ctx := context.Background()

	last, ok, err := db.LastSeq(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), last)

	// rewriting a receipt does not duplicate its events
	require.NoError(t, db.Write(receipt(2, bob,
		&tx.Event{Address: tokenAddr, Name: "Transfer", Args: []string{bob.String(), alice.String(), "1"}},
	)))
	all, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, db.Truncate())
	_, ok, err = db.LastSeq(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

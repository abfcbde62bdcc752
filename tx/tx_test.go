// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/udao"
)

func TestCallSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	call := &Call{Method: "stakeForGovernance", Args: json.RawMessage(`{"amount":"10","lockDays":30}`), Nonce: 3}
	_, err = call.Origin()
	assert.Error(t, err, "unsigned call")

	require.NoError(t, call.Sign(key))
	origin, err := call.Origin()
	require.NoError(t, err)
	assert.Equal(t, udao.Address(crypto.PubkeyToAddress(key.PublicKey)), origin)

	tampered := *call
	tampered.Nonce = 4
	other, err := tampered.Origin()
	require.NoError(t, err)
	assert.NotEqual(t, origin, other, "changing the nonce changes the recovered signer")
	assert.NotEqual(t, call.ID(), tampered.ID())
}

func TestReceiptCodec(t *testing.T) {
	r := &Receipt{
		Seq:    7,
		Caller: udao.BytesToAddress([]byte("buyer")),
		Method: "buyCoaching",
		Time:   1700000000,
		Events: Events{
			{Address: udao.BytesToAddress([]byte("Treasury")), Name: "CoachingBought", Args: []string{"0", "1"}},
			{Address: udao.BytesToAddress([]byte("Token")), Name: "Transfer", Args: []string{"a", "b", "2"}},
		},
	}
	data, err := r.Encode()
	require.NoError(t, err)

	decoded, err := DecodeReceipt(data)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
	assert.Len(t, decoded.Events.Filter("Transfer"), 1)

	_, err = DecodeReceipt([]byte("garbage"))
	assert.Error(t, err)
}

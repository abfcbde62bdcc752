// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/json"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/udao"
)

// Receipt represents the result of one ledger call.
type Receipt struct {
	Seq      uint64       `json:"seq"`
	ID       udao.Bytes32 `json:"id"`
	Caller   udao.Address `json:"caller"`
	Method   string       `json:"method"`
	Time     uint64       `json:"time"`
	Reverted bool         `json:"reverted"`
	Kind     string       `json:"kind,omitempty"`
	Reason   string       `json:"reason,omitempty"`
	Events   Events       `json:"events"`
}

// Encode serializes the receipt for storage, snappy compressed.
func (r *Receipt) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "encode receipt")
	}
	return snappy.Encode(nil, data), nil
}

// DecodeReceipt parses a receipt produced by Encode.
func DecodeReceipt(data []byte) (*Receipt, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, "decompress receipt")
	}
	var r Receipt
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, errors.Wrap(err, "decode receipt")
	}
	return &r, nil
}

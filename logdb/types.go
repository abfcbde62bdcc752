// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/udao-org/udao-ledger/udao"
)

// Event is a stored tx.Event with the receipt it belongs to.
type Event struct {
	Seq       uint64
	Index     uint32
	ReceiptID udao.Bytes32
	Time      uint64
	Caller    udao.Address
	Address   udao.Address
	Name      string
	Args      []string
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range of event times, both ends included. A To before From leaves the range open.
type Range struct {
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// EventFilter selects events. Every set field narrows the result; Names matches any
// of the listed names.
type EventFilter struct {
	Names   []string
	Address *udao.Address
	Account *udao.Address
	Range   *Range
	Order   Order
	Options *Options
}

// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"math"

	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/logdb"
	"github.com/udao-org/udao-ledger/udao"
)

type Range struct {
	From *uint64 `json:"from"`
	To   *uint64 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

// EventFilter selects events by name, emitting contract, involved account and time.
type EventFilter struct {
	Names   []string      `json:"names"`
	Address *udao.Address `json:"address"`
	Account *udao.Address `json:"account"`
	Range   *Range        `json:"range"`
	Order   logdb.Order   `json:"order"`
	Options *Options      `json:"options"`
}

// FilteredEvent is an event with the receipt it was emitted in.
type FilteredEvent struct {
	Contract string       `json:"contract,omitempty"`
	Address  udao.Address `json:"address"`
	Name     string       `json:"name"`
	Args     []string     `json:"args"`
	Meta     EventMeta    `json:"meta"`
}

type EventMeta struct {
	Seq       uint64       `json:"seq"`
	Index     uint32       `json:"index"`
	ReceiptID udao.Bytes32 `json:"receiptId"`
	Time      uint64       `json:"time"`
	Caller    udao.Address `json:"caller"`
}

func convertFilter(ef *EventFilter) *logdb.EventFilter {
	f := &logdb.EventFilter{
		Names:   ef.Names,
		Address: ef.Address,
		Account: ef.Account,
		Order:   ef.Order,
	}
	if ef.Range != nil {
		f.Range = &logdb.Range{To: math.MaxInt64}
		if ef.Range.From != nil {
			f.Range.From = *ef.Range.From
		}
		if ef.Range.To != nil {
			f.Range.To = *ef.Range.To
		}
	}
	if ef.Options != nil {
		f.Options = &logdb.Options{Offset: ef.Options.Offset, Limit: ef.Options.Limit}
	}
	return f
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: e.Address,
		Name:    e.Name,
		Args:    e.Args,
		Meta: EventMeta{
			Seq:       e.Seq,
			Index:     e.Index,
			ReceiptID: e.ReceiptID,
			Time:      e.Time,
			Caller:    e.Caller,
		},
	}
	if c, ok := builtin.ByAddress(e.Address); ok {
		fe.Contract = c.Name
	}
	return fe
}

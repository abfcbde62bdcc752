// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

type EventMessage struct {
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

func convertEvent(r *tx.Receipt, index int, ev *tx.Event) *EventMessage {
	msg := &EventMessage{
		Address: ev.Address,
		Name:    ev.Name,
		Args:    ev.Args,
		Meta: EventMeta{
			Seq:       r.Seq,
			Index:     uint32(index),
			ReceiptID: r.ID,
			Time:      r.Time,
			Caller:    r.Caller,
		},
	}
	if c, ok := builtin.ByAddress(ev.Address); ok {
		msg.Contract = c.Name
	}
	return msg
}

// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/udao-org/udao-ledger/udao"
)

// Event is a named record emitted by a builtin contract. Args are rendered as text
// (decimal amounts, 0x-hex addresses) so indexers never lose precision.
type Event struct {
	Address udao.Address `json:"address"`
	Name    string       `json:"name"`
	Args    []string     `json:"args"`
}

// Events is a list of events.
type Events []*Event

// Filter returns the events with the given name.
func (es Events) Filter(name string) Events {
	var out Events
	for _, e := range es {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

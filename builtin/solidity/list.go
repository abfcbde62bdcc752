// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/udao-org/udao-ledger/udao"
)

// List is an append-only dynamic array, laid out as a length slot followed by an
// indexed mapping, like a Solidity storage array.
type List[V any] struct {
	length *Uint64
	items  *Mapping[Uint64Key, V]
}

func NewList[V any](context *Context, pos udao.Bytes32) *List[V] {
	return &List[V]{
		length: NewUint64(context, pos),
		items:  NewMapping[Uint64Key, V](context, udao.Blake2b(pos.Bytes(), []byte("items"))),
	}
}

func (l *List[V]) Len() (uint64, error) {
	return l.length.Get()
}

func (l *List[V]) Get(i uint64) (V, error) {
	return l.items.Get(Uint64Key(i))
}

func (l *List[V]) Set(i uint64, v V) error {
	return l.items.Set(Uint64Key(i), v)
}

// Push appends v and returns its index.
func (l *List[V]) Push(v V) (uint64, error) {
	i, err := l.length.Next()
	if err != nil {
		return 0, err
	}
	return i, l.items.Set(Uint64Key(i), v)
}

// All returns every element in order.
func (l *List[V]) All() ([]V, error) {
	n, err := l.Len()
	if err != nil {
		return nil, err
	}
	out := make([]V, 0, n)
	for i := range n {
		v, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

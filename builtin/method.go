// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"bytes"
	"encoding/json"
	"math/big"
	"slices"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/udao"
)

// ErrInvalidArgs is returned when call arguments do not decode.
var ErrInvalidArgs = errors.New("invalid method arguments")

// Run executes a bound method on behalf of caller.
type Run func(c *Contracts, caller udao.Address) (any, error)

// Method is an entry point of the ledger, named "<Contract>.<method>".
type Method struct {
	Name string
	bind func(args json.RawMessage) (Run, error)
}

// Bind decodes args, returning the method ready to run. Unknown fields are rejected.
func (m *Method) Bind(args json.RawMessage) (Run, error) {
	return m.bind(args)
}

var methods = make(map[string]*Method)

// LookupMethod returns the method of the given name.
func LookupMethod(name string) (*Method, bool) {
	m, ok := methods[name]
	return m, ok
}

// MethodNames returns the sorted names of all methods.
func MethodNames() []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func define[A any](name string, run func(c *Contracts, caller udao.Address, args *A) (any, error)) {
	if _, dup := methods[name]; dup {
		panic("method defined twice: " + name)
	}
	methods[name] = &Method{
		Name: name,
		bind: func(raw json.RawMessage) (Run, error) {
			args := new(A)
			if len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
				dec := json.NewDecoder(bytes.NewReader(raw))
				dec.DisallowUnknownFields()
				if err := dec.Decode(args); err != nil {
					return nil, errors.WithMessagef(ErrInvalidArgs, "%s: %v", name, err)
				}
			}
			return func(c *Contracts, caller udao.Address) (any, error) {
				return run(c, caller, args)
			}, nil
		},
	}
}

// none is the argument of methods without arguments.
type none struct{}

// amount converts a decoded amount, absent amounts are zero.
func amount(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

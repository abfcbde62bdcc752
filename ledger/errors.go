// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin"
	"github.com/udao-org/udao-ledger/builtin/reverts"
)

var (
	ErrUnknownMethod    = errors.New("unknown method")
	ErrInvalidSignature = errors.New("invalid call signature")
	ErrBadNonce         = errors.New("bad nonce")
	ErrKnownCall        = errors.New("call already executed")
	ErrNotFound         = errors.New("not found")
)

// IsBadCall returns true if err rejects a call before it runs: the call gets no
// receipt and consumes no nonce.
func IsBadCall(err error) bool {
	for _, target := range []error{ErrUnknownMethod, ErrInvalidSignature, ErrBadNonce, ErrKnownCall, builtin.ErrInvalidArgs} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// revertOf returns the revert err is, or wraps.
func revertOf(err error) (reverts.Revert, bool) {
	var r reverts.Revert
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

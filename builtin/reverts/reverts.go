// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts separates contract failures, which roll the call back and are
// reported to the caller, from infrastructure faults.
package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies a revert by its cause.
type Kind uint8

const (
	// Authorization the caller lacks a role or flag (banned, not KYCed).
	Authorization Kind = iota + 1
	// Precondition the target entity is in the wrong state.
	Precondition
	// Voucher the submitted voucher is expired, forged, misdirected or consumed.
	Voucher
	// Resource insufficient balance, allowance or withdrawable amount.
	Resource
)

func (k Kind) String() string {
	switch k {
	case Authorization:
		return "authorization"
	case Precondition:
		return "precondition"
	case Voucher:
		return "voucher"
	case Resource:
		return "resource"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Revert is implemented by every contract failure.
type Revert interface {
	error
	Kind() Kind
}

type ErrRevert struct {
	kind    Kind
	message string
}

// New creates a precondition revert.
func New(message string) *ErrRevert {
	return &ErrRevert{kind: Precondition, message: message}
}

// NewWithKind creates a revert of the given kind.
func NewWithKind(kind Kind, message string) *ErrRevert {
	return &ErrRevert{kind: kind, message: message}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

// IsRevertErr reports whether err is, or wraps, a contract failure.
func IsRevertErr(err any) bool {
	_, ok := KindOf(err)
	return ok
}

// KindOf returns the kind of the revert wrapped in err.
func KindOf(err any) (Kind, bool) {
	e, ok := err.(error)
	if !ok || e == nil {
		return 0, false
	}
	var r Revert
	if errors.As(e, &r) {
		return r.Kind(), true
	}
	return 0, false
}

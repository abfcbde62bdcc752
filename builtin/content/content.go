// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package content is the registry of course content items: ownership, the
// validated flag set by validation rounds, and the coaching switch.
package content

import (
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/udao"
)

var (
	logger = log.WithContext("pkg", "content")

	slotItems = udao.BytesToBytes32([]byte("contents"))

	ErrNotExist      = reverts.New("Content does not exist!")
	ErrAlreadyExists = reverts.New("Content already exists")
	ErrNotOwner      = reverts.NewWithKind(reverts.Authorization, "You are not the owner of this content")
	ErrOwnerNotKYCed = reverts.NewWithKind(reverts.Authorization, "Owner is not KYCed")
	ErrOwnerBanned   = reverts.NewWithKind(reverts.Authorization, "Owner is banned")
)

// Item is the stored record of a content token.
type Item struct {
	Owner           udao.Address
	Validated       bool
	CoachingEnabled bool
}

// Registry binder of the content registry.
type Registry struct {
	sctx  *solidity.Context
	auth  roles.Authorizer
	items *solidity.Mapping[solidity.Uint64Key, *Item]
}

func New(sctx *solidity.Context, auth roles.Authorizer) *Registry {
	return &Registry{
		sctx:  sctx,
		auth:  auth,
		items: solidity.NewMapping[solidity.Uint64Key, *Item](sctx, slotItems),
	}
}

// Get returns the content item, nil when it does not exist.
func (r *Registry) Get(id uint64) (*Item, error) {
	item, err := r.items.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get content")
	}
	if item.Owner.IsZero() {
		return nil, nil
	}
	return item, nil
}

func (r *Registry) Exists(id uint64) (bool, error) {
	item, err := r.Get(id)
	return item != nil, err
}

func (r *Registry) OwnerOf(id uint64) (udao.Address, error) {
	item, err := r.mustGet(id)
	if err != nil {
		return udao.Address{}, err
	}
	return item.Owner, nil
}

func (r *Registry) IsValidated(id uint64) (bool, error) {
	item, err := r.mustGet(id)
	if err != nil {
		return false, err
	}
	return item.Validated, nil
}

func (r *Registry) IsCoachingEnabled(id uint64) (bool, error) {
	item, err := r.mustGet(id)
	if err != nil {
		return false, err
	}
	return item.CoachingEnabled, nil
}

// Mint registers a new content owned by owner. Caller must be backend; the owner must be
// KYCed and not banned.
func (r *Registry) Mint(caller, owner udao.Address, id uint64, coachingEnabled bool) error {
	if err := r.auth.Authorize(caller,
		roles.AnyRole(roles.Backend),
		roles.Account(owner, roles.KYCed(ErrOwnerNotKYCed), roles.NotBanned(ErrOwnerBanned)),
	); err != nil {
		return err
	}
	return r.Register(owner, id, coachingEnabled)
}

// SetCoachingEnabled toggles coaching sales of the content. Caller must be the owner.
func (r *Registry) SetCoachingEnabled(caller udao.Address, id uint64, enabled bool) error {
	item, err := r.mustGet(id)
	if err != nil {
		return err
	}
	if item.Owner != caller {
		return ErrNotOwner
	}
	item.CoachingEnabled = enabled
	return r.put(id, item)
}

//
// Native - no authorization, reached from other contracts and genesis
//

// Register stores a new content item.
func (r *Registry) Register(owner udao.Address, id uint64, coachingEnabled bool) error {
	exists, err := r.Exists(id)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}
	if err := r.put(id, &Item{Owner: owner, CoachingEnabled: coachingEnabled}); err != nil {
		return err
	}
	logger.Debug("content minted", "id", id, "owner", owner)
	r.sctx.Emit("ContentMinted", id, owner)
	return nil
}

// SetValidated records the outcome of a validation round.
func (r *Registry) SetValidated(id uint64, validated bool) error {
	item, err := r.mustGet(id)
	if err != nil {
		return err
	}
	item.Validated = validated
	if err := r.put(id, item); err != nil {
		return err
	}
	r.sctx.Emit("ContentValidated", id, validated)
	return nil
}

func (r *Registry) mustGet(id uint64) (*Item, error) {
	item, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrNotExist
	}
	return item, nil
}

func (r *Registry) put(id uint64, item *Item) error {
	if err := r.items.Set(solidity.Uint64Key(id), item); err != nil {
		return errors.Wrap(err, "failed to set content")
	}
	return nil
}

// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package voucher defines the off-chain signed authorizations redeemed on the ledger.
//
// A voucher is valid iff it is well formed, now <= ValidUntil, and its signer passes the
// caller supplied check. Verification is pure: whether a voucher was already consumed is
// tracked by the redeeming contract, keyed by Claims.ID.
package voucher

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/udao"
)

const (
	roleDomain     = "udao/role-voucher/v1"
	coachingDomain = "udao/coaching-voucher/v1"
)

var (
	ErrMalformed          = reverts.NewWithKind(reverts.Voucher, "Voucher is malformed")
	ErrExpired            = reverts.NewWithKind(reverts.Voucher, "Voucher has expired")
	ErrUnauthorizedSigner = reverts.NewWithKind(reverts.Voucher, "Signature invalid or unauthorized")
	ErrRedeemed           = reverts.NewWithKind(reverts.Voucher, "Voucher already redeemed")
	ErrWrongRedeemer      = reverts.NewWithKind(reverts.Voucher, "You are not the redeemer")
)

// Voucher is implemented by every voucher payload.
type Voucher interface {
	SigningHash() udao.Bytes32
	GetRedeemer() udao.Address
	GetValidUntil() uint64
	GetSignature() []byte
}

// RoleVoucher approves a role application of Redeemer.
type RoleVoucher struct {
	Redeemer   udao.Address
	RoleID     uint8
	ValidUntil uint64
	Nonce      uint64 // distinguishes vouchers with otherwise equal fields
	Signature  []byte
}

func (v *RoleVoucher) SigningHash() udao.Bytes32 {
	return signingHash(roleDomain, v.Redeemer, v.RoleID, v.ValidUntil, v.Nonce)
}

func (v *RoleVoucher) GetRedeemer() udao.Address { return v.Redeemer }
func (v *RoleVoucher) GetValidUntil() uint64     { return v.ValidUntil }
func (v *RoleVoucher) GetSignature() []byte      { return v.Signature }

// CoachingVoucher authorizes Redeemer to buy a coaching session of a content at Price,
// denominated in Currency.
type CoachingVoucher struct {
	ContentID  uint64
	Price      *big.Int
	Currency   string
	Refundable bool
	Redeemer   udao.Address
	ValidUntil uint64
	Nonce      uint64
	Signature  []byte
}

// SigningHash returns the zero hash for a voucher without a price, which never verifies.
func (v *CoachingVoucher) SigningHash() udao.Bytes32 {
	if v.Price == nil {
		return udao.Bytes32{}
	}
	return signingHash(coachingDomain, v.ContentID, v.Price, v.Currency, v.Refundable, v.Redeemer, v.ValidUntil, v.Nonce)
}

func (v *CoachingVoucher) GetRedeemer() udao.Address { return v.Redeemer }
func (v *CoachingVoucher) GetValidUntil() uint64     { return v.ValidUntil }
func (v *CoachingVoucher) GetSignature() []byte      { return v.Signature }

func signingHash(fields ...any) udao.Bytes32 {
	data, err := rlp.EncodeToBytes(fields)
	if err != nil {
		// only negative prices fail to encode, they never verify
		return udao.Bytes32{}
	}
	return udao.Keccak256(data)
}

// Sign signs the voucher with key and stores the signature into it.
func Sign(v Voucher, key *ecdsa.PrivateKey) error {
	hash := v.SigningHash()
	if hash.IsZero() {
		return ErrMalformed
	}
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return err
	}
	switch v := v.(type) {
	case *RoleVoucher:
		v.Signature = sig
	case *CoachingVoucher:
		v.Signature = sig
	}
	return nil
}

// Claims is what a verified voucher establishes.
type Claims struct {
	ID         udao.Bytes32
	Signer     udao.Address
	Redeemer   udao.Address
	ValidUntil uint64
}

// SignerCheck reports whether signer may issue the voucher being verified.
type SignerCheck func(signer udao.Address) (bool, error)

// Verify checks the voucher at time now. It never consults consumption state.
func Verify(v Voucher, now uint64, check SignerCheck) (*Claims, error) {
	hash := v.SigningHash()
	sig := v.GetSignature()
	if hash.IsZero() || v.GetRedeemer().IsZero() || len(sig) != crypto.SignatureLength {
		return nil, ErrMalformed
	}
	pub, err := crypto.SigToPub(hash.Bytes(), sig)
	if err != nil {
		return nil, ErrMalformed
	}
	if now > v.GetValidUntil() {
		return nil, ErrExpired
	}
	signer := udao.Address(crypto.PubkeyToAddress(*pub))
	ok, err := check(signer)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorizedSigner
	}
	return &Claims{
		ID:         hash,
		Signer:     signer,
		Redeemer:   v.GetRedeemer(),
		ValidUntil: v.GetValidUntil(),
	}, nil
}

// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package treasury holds the coaching escrow: purchases lock the price until the buyer
// or, past the deadline, the coach finalizes, the coach refunds, or the foundation settles.
package treasury

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/builtin/token"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

const (
	// Window is the initial coaching period.
	Window = 30 * udao.Day
	// DelayWindow is the period before the deadline in which it may be delayed.
	DelayWindow = 3 * udao.Day
	// DelayIncrement is added to the deadline by each delay.
	DelayIncrement = 7 * udao.Day

	maxFee = 10000 // basis points
)

var (
	logger = log.WithContext("pkg", "treasury")

	slotCoachings       = udao.BytesToBytes32([]byte("coachings"))
	slotCoachingCounter = udao.BytesToBytes32([]byte("coaching-counter"))
	slotStudents        = udao.BytesToBytes32([]byte("students"))
	slotContentCoaching = udao.BytesToBytes32([]byte("content-coachings"))
	slotInstructors     = udao.BytesToBytes32([]byte("instructor-balances"))
	slotFoundation      = udao.BytesToBytes32([]byte("foundation-balance"))
	slotRedeemed        = udao.BytesToBytes32([]byte("redeemed-vouchers"))

	defaultCoachingFee = big.NewInt(470) // 4.7%
)

// ContentReader is the part of the content registry purchases consult.
type ContentReader interface {
	Exists(id uint64) (bool, error)
	OwnerOf(id uint64) (udao.Address, error)
	IsValidated(id uint64) (bool, error)
	IsCoachingEnabled(id uint64) (bool, error)
}

// PriceOracle converts voucher prices into UDAO.
type PriceOracle interface {
	GetQuote(amountIn *big.Int, currency string) (*big.Int, error)
}

// Treasury binder of the coaching escrow.
type Treasury struct {
	sctx      *solidity.Context
	auth      roles.Authorizer
	token     *token.Token
	contents  ContentReader
	oracle    PriceOracle
	blockTime uint64

	coachings   *solidity.Mapping[solidity.Uint64Key, *Coaching]
	counter     *solidity.Uint64
	instructors *solidity.Mapping[udao.Address, *big.Int]
	foundation  *solidity.Uint256
	redeemed    *solidity.Mapping[udao.Bytes32, bool]
	fee         *solidity.ConfigVariable
}

func New(
	sctx *solidity.Context,
	auth roles.Authorizer,
	udaoToken *token.Token,
	contents ContentReader,
	oracle PriceOracle,
	blockTime uint64,
) *Treasury {
	return &Treasury{
		sctx:      sctx,
		auth:      auth,
		token:     udaoToken,
		contents:  contents,
		oracle:    oracle,
		blockTime: blockTime,

		coachings:   solidity.NewMapping[solidity.Uint64Key, *Coaching](sctx, slotCoachings),
		counter:     solidity.NewUint64(sctx, slotCoachingCounter),
		instructors: solidity.NewMapping[udao.Address, *big.Int](sctx, slotInstructors),
		foundation:  solidity.NewUint256(sctx, slotFoundation),
		redeemed:    solidity.NewMapping[udao.Bytes32, bool](sctx, slotRedeemed),
		fee:         solidity.NewConfigVariable(sctx, "coaching-fee", defaultCoachingFee),
	}
}

func (t *Treasury) students(contentID uint64) *solidity.List[udao.Address] {
	return solidity.NewList[udao.Address](t.sctx, udao.Blake2b(slotStudents.Bytes(), solidity.Uint64Key(contentID).Bytes()))
}

func (t *Treasury) contentCoachings(contentID uint64) *solidity.List[uint64] {
	return solidity.NewList[uint64](t.sctx, udao.Blake2b(slotContentCoaching.Bytes(), solidity.Uint64Key(contentID).Bytes()))
}

//
// Getters - no state change
//

func (t *Treasury) Address() udao.Address {
	return t.sctx.Address()
}

// Coaching returns the purchase with the given id, nil if there is none.
func (t *Treasury) Coaching(id uint64) (*Coaching, error) {
	c, err := t.coachings.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get coaching")
	}
	if c.Status == 0 {
		return nil, nil
	}
	return c, nil
}

// StudentsOf lists the buyers of coaching for the content, in purchase order.
func (t *Treasury) StudentsOf(contentID uint64) ([]udao.Address, error) {
	students, err := t.students(contentID).All()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get students")
	}
	return students, nil
}

// CoachingsOf lists the purchase ids of the content.
func (t *Treasury) CoachingsOf(contentID uint64) ([]uint64, error) {
	ids, err := t.contentCoachings(contentID).All()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get content coachings")
	}
	return ids, nil
}

// InstructorBalance returns the finalized earnings the instructor can withdraw.
func (t *Treasury) InstructorBalance(instructor udao.Address) (*big.Int, error) {
	b, err := t.instructors.Get(instructor)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get instructor balance")
	}
	return b, nil
}

// FoundationBalance returns the collected fees.
func (t *Treasury) FoundationBalance() (*big.Int, error) {
	return t.foundation.Get()
}

// CoachingFee returns the platform fee in basis points.
func (t *Treasury) CoachingFee() (*big.Int, error) {
	return t.fee.Get()
}

// CoachingCount returns the number of purchases ever made.
func (t *Treasury) CoachingCount() (uint64, error) {
	return t.counter.Get()
}

// VerifyCoachingVoucher checks a coaching voucher is well formed, unexpired and signed
// by the backend or the owner of the content. It does not check whether the voucher
// was redeemed.
func (t *Treasury) VerifyCoachingVoucher(v *voucher.CoachingVoucher) (*voucher.Claims, error) {
	return voucher.Verify(v, t.blockTime, func(signer udao.Address) (bool, error) {
		isBackend, err := t.auth.HasRole(roles.Backend, signer)
		if err != nil || isBackend {
			return isBackend, err
		}
		exists, err := t.contents.Exists(v.ContentID)
		if err != nil || !exists {
			return false, err
		}
		owner, err := t.contents.OwnerOf(v.ContentID)
		return owner == signer, err
	})
}

func (t *Treasury) IsRedeemed(id udao.Bytes32) (bool, error) {
	return t.redeemed.Get(id)
}

//
// Setters - state change
//

// SetCoachingFee changes the platform fee. Caller must be foundation.
func (t *Treasury) SetCoachingFee(caller udao.Address, bps *big.Int) error {
	if err := t.auth.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	if bps.Sign() < 0 || bps.Cmp(big.NewInt(maxFee)) > 0 {
		return ErrInvalidFee
	}
	if err := t.fee.Set(bps); err != nil {
		return err
	}
	logger.Info("coaching fee changed", "bps", bps)
	t.sctx.Emit("SetCoachingFee", bps)
	return nil
}

// WithdrawInstructor pays out the caller's instructor balance.
func (t *Treasury) WithdrawInstructor(caller udao.Address) (*big.Int, error) {
	amount, err := t.InstructorBalance(caller)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, ErrNoBalance
	}
	if err := t.instructors.Set(caller, new(big.Int)); err != nil {
		return nil, errors.Wrap(err, "failed to set instructor balance")
	}
	if err := t.token.Move(t.Address(), caller, amount); err != nil {
		return nil, err
	}
	t.sctx.Emit("InstructorWithdrawn", caller, amount)
	return amount, nil
}

// WithdrawFoundation pays the collected fees to the caller. Caller must be foundation.
func (t *Treasury) WithdrawFoundation(caller udao.Address) (*big.Int, error) {
	if err := t.auth.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return nil, err
	}
	amount, err := t.foundation.Get()
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, ErrNoBalance
	}
	if err := t.foundation.Set(new(big.Int)); err != nil {
		return nil, err
	}
	if err := t.token.Move(t.Address(), caller, amount); err != nil {
		return nil, err
	}
	t.sctx.Emit("FoundationWithdrawn", caller, amount)
	return amount, nil
}

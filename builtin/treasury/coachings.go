// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package treasury

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

var (
	ErrContentNotExist     = reverts.New("Content does not exist!")
	ErrNotValidated        = reverts.New("Content is not validated yet")
	ErrCoachingDisabled    = reverts.New("Coaching is not enabled for this content")
	ErrBuyerBanned         = reverts.NewWithKind(reverts.Authorization, "You are banned")
	ErrInstructorBanned    = reverts.New("Instructor is banned")
	ErrInstructorNotKYCed  = reverts.New("Instructor is not KYCed")
	ErrBuyerNotKYCed       = reverts.NewWithKind(reverts.Authorization, "You are not KYCed")
	ErrDeadlineNotMet      = reverts.New("Deadline is not met yet")
	ErrNotLearnerNorCoach  = reverts.NewWithKind(reverts.Authorization, "You are not learner neither coach")
	ErrNeitherCoachLearner = reverts.NewWithKind(reverts.Authorization, "You are neither coach nor learner")
	ErrNotDelayWindow      = reverts.New("Only can be delayed in last 3 days")
	ErrNotCoach            = reverts.NewWithKind(reverts.Authorization, "Your are not the coach")
	ErrCoachingNotExist    = reverts.New("Coaching id doesn't exist")
	ErrNotActive           = reverts.New("Coaching is not active")
	ErrNotRefundable       = reverts.New("Coaching is not refundable")
	ErrInvalidFee          = reverts.New("Fee can't exceed 100%")
	ErrNoBalance           = reverts.NewWithKind(reverts.Resource, "You don't have any balance")
)

// BuyCoaching redeems a coaching voucher signed by the backend or by the content owner,
// escrowing the quoted price in the treasury.
func (t *Treasury) BuyCoaching(caller udao.Address, v *voucher.CoachingVoucher) (uint64, error) {
	claims, err := t.VerifyCoachingVoucher(v)
	if err != nil {
		return 0, err
	}
	redeemed, err := t.redeemed.Get(claims.ID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get voucher state")
	}
	if redeemed {
		return 0, voucher.ErrRedeemed
	}
	if claims.Redeemer != caller {
		return 0, voucher.ErrWrongRedeemer
	}

	coach, err := t.checkPurchase(caller, v.ContentID)
	if err != nil {
		return 0, err
	}
	price, err := t.oracle.GetQuote(v.Price, v.Currency)
	if err != nil {
		return 0, err
	}
	// the treasury is the spender of the buyer's allowance
	if err := t.token.TransferFrom(t.Address(), caller, t.Address(), price); err != nil {
		return 0, err
	}

	id, err := t.counter.Next()
	if err != nil {
		return 0, errors.Wrap(err, "failed to allocate coaching id")
	}
	c := &Coaching{
		ContentID:  v.ContentID,
		Buyer:      caller,
		Coach:      coach,
		Price:      price,
		Refundable: v.Refundable,
		BoughtAt:   t.blockTime,
		Deadline:   t.blockTime + Window,
		Status:     StatusActive,
	}
	if err := t.put(id, c); err != nil {
		return 0, err
	}
	if _, err := t.students(v.ContentID).Push(caller); err != nil {
		return 0, errors.Wrap(err, "failed to index student")
	}
	if _, err := t.contentCoachings(v.ContentID).Push(id); err != nil {
		return 0, errors.Wrap(err, "failed to index coaching")
	}
	if err := t.redeemed.Set(claims.ID, true); err != nil {
		return 0, errors.Wrap(err, "failed to redeem voucher")
	}

	logger.Debug("coaching bought", "id", id, "content", v.ContentID, "buyer", caller, "price", price)
	t.sctx.Emit("CoachingBought", id, v.ContentID, caller, price)
	return id, nil
}

// checkPurchase returns the instructor of the content once the buyer may purchase coaching.
func (t *Treasury) checkPurchase(buyer udao.Address, contentID uint64) (udao.Address, error) {
	exists, err := t.contents.Exists(contentID)
	if err != nil {
		return udao.Address{}, err
	}
	if !exists {
		return udao.Address{}, ErrContentNotExist
	}
	validated, err := t.contents.IsValidated(contentID)
	if err != nil {
		return udao.Address{}, err
	}
	if !validated {
		return udao.Address{}, ErrNotValidated
	}
	enabled, err := t.contents.IsCoachingEnabled(contentID)
	if err != nil {
		return udao.Address{}, err
	}
	if !enabled {
		return udao.Address{}, ErrCoachingDisabled
	}
	coach, err := t.contents.OwnerOf(contentID)
	if err != nil {
		return udao.Address{}, err
	}
	if err := t.auth.Authorize(buyer,
		roles.NotBanned(ErrBuyerBanned),
		roles.Account(coach, roles.NotBanned(ErrInstructorBanned), roles.KYCed(ErrInstructorNotKYCed)),
		roles.KYCed(ErrBuyerNotKYCed),
	); err != nil {
		return udao.Address{}, err
	}
	return coach, nil
}

// FinalizeCoaching releases the escrow to the coach, minus the platform fee. The buyer
// may finalize at any time, the coach only once the deadline is met.
func (t *Treasury) FinalizeCoaching(caller udao.Address, id uint64) error {
	c, err := t.mustGet(id)
	if err != nil {
		return err
	}
	if !c.IsParty(caller) {
		return ErrNotLearnerNorCoach
	}
	if c.Status != StatusActive {
		return ErrNotActive
	}
	if caller != c.Buyer && t.blockTime < c.Deadline {
		return ErrDeadlineNotMet
	}
	share, fee, err := t.settle(id, c)
	if err != nil {
		return err
	}

	logger.Debug("coaching finalized", "id", id, "coach", c.Coach, "share", share, "fee", fee)
	t.sctx.Emit("CoachingFinalized", id, c.Coach, share, fee)
	return nil
}

// DelayDeadline pushes the deadline back by DelayIncrement. Only allowed within the last
// DelayWindow before the deadline, and may be repeated.
func (t *Treasury) DelayDeadline(caller udao.Address, id uint64) (uint64, error) {
	c, err := t.mustGet(id)
	if err != nil {
		return 0, err
	}
	if !c.IsParty(caller) {
		return 0, ErrNeitherCoachLearner
	}
	if c.Status != StatusActive {
		return 0, ErrNotActive
	}
	if t.blockTime+DelayWindow < c.Deadline {
		return 0, ErrNotDelayWindow
	}
	c.Deadline += DelayIncrement
	if err := t.put(id, c); err != nil {
		return 0, err
	}

	logger.Debug("coaching deadline delayed", "id", id, "deadline", c.Deadline)
	t.sctx.Emit("DeadlineDelayed", id, c.Deadline)
	return c.Deadline, nil
}

// Refund returns the escrowed price to the buyer. Caller must be the coach and the
// coaching must be refundable.
func (t *Treasury) Refund(caller udao.Address, id uint64) error {
	c, err := t.mustGet(id)
	if err != nil {
		return err
	}
	if caller != c.Coach {
		return ErrNotCoach
	}
	return t.refund(id, c)
}

// ForcedPayment settles a coaching in favor of the coach regardless of the deadline.
// Caller must be foundation.
func (t *Treasury) ForcedPayment(caller udao.Address, id uint64) error {
	if err := t.auth.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	c, err := t.mustGet(id)
	if err != nil {
		return err
	}
	if c.Status != StatusActive {
		return ErrNotActive
	}
	share, fee, err := t.settle(id, c)
	if err != nil {
		return err
	}

	logger.Info("coaching payment forced", "id", id, "coach", c.Coach, "share", share, "fee", fee)
	t.sctx.Emit("ForcedPayment", id, c.Coach)
	return nil
}

// ForcedRefundAdmin refunds a refundable coaching on behalf of the coach. Caller must be
// foundation.
func (t *Treasury) ForcedRefundAdmin(caller udao.Address, id uint64) error {
	if err := t.auth.Authorize(caller, roles.AnyRole(roles.Foundation)); err != nil {
		return err
	}
	c, err := t.mustGet(id)
	if err != nil {
		return err
	}
	if err := t.refund(id, c); err != nil {
		return err
	}
	logger.Info("coaching refund forced", "id", id, "buyer", c.Buyer)
	return nil
}

func (t *Treasury) refund(id uint64, c *Coaching) error {
	if c.Status != StatusActive {
		return ErrNotActive
	}
	if !c.Refundable {
		return ErrNotRefundable
	}
	c.Status = StatusRefunded
	if err := t.put(id, c); err != nil {
		return err
	}
	if err := t.token.Move(t.Address(), c.Buyer, c.Price); err != nil {
		return err
	}

	logger.Debug("coaching refunded", "id", id, "buyer", c.Buyer, "price", c.Price)
	t.sctx.Emit("Refund", id, c.Buyer, c.Price)
	return nil
}

// settle credits the coach with the price minus the fee, and the fee to the foundation.
func (t *Treasury) settle(id uint64, c *Coaching) (share, fee *big.Int, err error) {
	bps, err := t.fee.Get()
	if err != nil {
		return nil, nil, err
	}
	fee = new(big.Int).Mul(c.Price, bps)
	fee.Quo(fee, big.NewInt(maxFee))
	share = new(big.Int).Sub(c.Price, fee)

	balance, err := t.InstructorBalance(c.Coach)
	if err != nil {
		return nil, nil, err
	}
	if err := t.instructors.Set(c.Coach, new(big.Int).Add(balance, share)); err != nil {
		return nil, nil, errors.Wrap(err, "failed to set instructor balance")
	}
	if err := t.foundation.Add(fee); err != nil {
		return nil, nil, err
	}
	c.Status = StatusFinalized
	if err := t.put(id, c); err != nil {
		return nil, nil, err
	}
	return share, fee, nil
}

func (t *Treasury) mustGet(id uint64) (*Coaching, error) {
	c, err := t.Coaching(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrCoachingNotExist
	}
	return c, nil
}

func (t *Treasury) put(id uint64, c *Coaching) error {
	if err := t.coachings.Set(solidity.Uint64Key(id), c); err != nil {
		return errors.Wrap(err, "failed to set coaching")
	}
	return nil
}

// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package treasury

import (
	"crypto/ecdsa"
	"math/big"
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/builtin/content"
	"github.com/udao-org/udao-ledger/builtin/oracle"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/builtin/token"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

const start = uint64(1_700_000_000)

var (
	treasuryAddr = udao.BytesToAddress([]byte("Treasury"))
	foundation   = udao.BytesToAddress([]byte("foundation"))
	buyer        = udao.BytesToAddress([]byte("buyer"))
	stranger     = udao.BytesToAddress([]byte("stranger"))
)

type testEnv struct {
	state    *state.State
	roles    *roles.Roles
	token    *token.Token
	contents *content.Registry
	oracle   *oracle.Oracle
	now      uint64
	events   tx.Events
	vouchers uint64

	backendKey    *ecdsa.PrivateKey
	instructorKey *ecdsa.PrivateKey
	instructor    udao.Address
}

func newKey(t *testing.T) (*ecdsa.PrivateKey, udao.Address) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key, udao.Address(crypto.PubkeyToAddress(key.PublicKey))
}

// newTestEnv sets up a validated, coaching enabled content 0 of a KYCed instructor and a
// funded KYCed buyer.
func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	env := &testEnv{state: state.New(db), now: start}
	var backend udao.Address
	env.backendKey, backend = newKey(t)
	env.instructorKey, env.instructor = newKey(t)

	env.roles = roles.New(env.context("Roles"))
	env.token = token.New(env.context("Token"), "UDAO", env.roles)
	env.contents = content.New(env.context("Content"), env.roles)
	env.oracle = oracle.New(env.context("Oracle"), env.roles)

	require.NoError(t, env.roles.Grant(roles.Backend, backend))
	require.NoError(t, env.roles.Grant(roles.Foundation, foundation))
	for _, addr := range []udao.Address{env.instructor, buyer} {
		require.NoError(t, env.roles.SetKYCStatus(addr, true))
	}
	require.NoError(t, env.contents.Register(env.instructor, 0, true))
	require.NoError(t, env.contents.SetValidated(0, true))
	require.NoError(t, env.token.Issue(buyer, udao.Tokens(100)))
	require.NoError(t, env.token.Approve(buyer, treasuryAddr, udao.Tokens(100)))
	env.events = nil
	return env
}

func (e *testEnv) context(name string) *solidity.Context {
	return solidity.NewContext(udao.BytesToAddress([]byte(name)), e.state, func(ev *tx.Event) {
		e.events = append(e.events, ev)
	})
}

func (e *testEnv) treasury() *Treasury {
	return New(e.context("Treasury"), e.roles, e.token, e.contents, e.oracle, e.now)
}

func (e *testEnv) voucher(t *testing.T, key *ecdsa.PrivateKey, contentID uint64, price *big.Int, refundable bool) *voucher.CoachingVoucher {
	v := &voucher.CoachingVoucher{
		ContentID:  contentID,
		Price:      price,
		Currency:   oracle.Native,
		Refundable: refundable,
		Redeemer:   buyer,
		ValidUntil: e.now + udao.Day,
		Nonce:      e.vouchers,
	}
	e.vouchers++
	require.NoError(t, voucher.Sign(v, key))
	return v
}

// buy purchases coaching of content 0 for 2 tokens.
func (e *testEnv) buy(t *testing.T, refundable bool) uint64 {
	id, err := e.treasury().BuyCoaching(buyer, e.voucher(t, e.backendKey, 0, udao.Tokens(2), refundable))
	require.NoError(t, err)
	return id
}

func (e *testEnv) balance(t *testing.T, addr udao.Address) string {
	b, err := e.token.BalanceOf(addr)
	require.NoError(t, err)
	return b.String()
}

func TestBuyCoaching(t *testing.T) {
	env := newTestEnv(t)
	v := env.voucher(t, env.backendKey, 0, udao.Tokens(2), false)

	_, err := env.treasury().BuyCoaching(stranger, v)
	assert.Equal(t, voucher.ErrWrongRedeemer, err)

	id, err := env.treasury().BuyCoaching(buyer, v)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, udao.Tokens(98).String(), env.balance(t, buyer))
	assert.Equal(t, udao.Tokens(2).String(), env.balance(t, treasuryAddr))
	assert.Equal(t,
		[]string{"0", "0", buyer.String(), udao.Tokens(2).String()},
		env.events.Filter("CoachingBought")[0].Args,
	)

	_, err = env.treasury().BuyCoaching(buyer, v)
	assert.Equal(t, voucher.ErrRedeemed, err)

	c, err := env.treasury().Coaching(id)
	require.NoError(t, err)
	assert.Equal(t, env.instructor, c.Coach)
	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, start+Window, c.Deadline)

	// a second voucher for the same content lists the buyer again
	_, err = env.treasury().BuyCoaching(buyer, env.voucher(t, env.instructorKey, 0, udao.Tokens(3), false))
	require.NoError(t, err)
	students, err := env.treasury().StudentsOf(0)
	require.NoError(t, err)
	assert.Equal(t, []udao.Address{buyer, buyer}, students)
	ids, err := env.treasury().CoachingsOf(0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, ids)

	missing, err := env.treasury().Coaching(7)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBuyWithoutPrice(t *testing.T) {
	env := newTestEnv(t)
	v := env.voucher(t, env.backendKey, 0, udao.Tokens(2), false)
	v.Price = nil

	_, err := env.treasury().BuyCoaching(buyer, v)
	assert.Equal(t, voucher.ErrMalformed, err)
	assert.Equal(t, udao.Tokens(100).String(), env.balance(t, buyer))
}

func TestRepeatPurchase(t *testing.T) {
	env := newTestEnv(t)
	first := env.voucher(t, env.backendKey, 0, udao.Tokens(2), true)
	second := env.voucher(t, env.backendKey, 0, udao.Tokens(2), true)
	require.NotEqual(t, first.SigningHash(), second.SigningHash())

	// equal terms in distinct vouchers buy two sessions
	a, err := env.treasury().BuyCoaching(buyer, first)
	require.NoError(t, err)
	b, err := env.treasury().BuyCoaching(buyer, second)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, udao.Tokens(96).String(), env.balance(t, buyer))

	// a copy signed again with the same nonce is the same voucher
	copied := *second
	copied.Signature = nil
	require.NoError(t, voucher.Sign(&copied, env.instructorKey))
	_, err = env.treasury().BuyCoaching(buyer, &copied)
	assert.Equal(t, voucher.ErrRedeemed, err)
}

func TestVoucherSigner(t *testing.T) {
	env := newTestEnv(t)
	otherKey, other := newKey(t)
	require.NoError(t, env.roles.SetKYCStatus(other, true))
	require.NoError(t, env.contents.Register(other, 1, true))
	require.NoError(t, env.contents.SetValidated(1, true))

	// the instructor of content 0 can not sign for content 1
	_, err := env.treasury().BuyCoaching(buyer, env.voucher(t, env.instructorKey, 1, udao.Tokens(1), false))
	assert.Equal(t, voucher.ErrUnauthorizedSigner, err)
	// nor for a content that does not exist
	_, err = env.treasury().BuyCoaching(buyer, env.voucher(t, env.instructorKey, 9, udao.Tokens(1), false))
	assert.Equal(t, voucher.ErrUnauthorizedSigner, err)

	_, err = env.treasury().BuyCoaching(buyer, env.voucher(t, otherKey, 1, udao.Tokens(1), false))
	assert.NoError(t, err)
}

func TestBuyChecks(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, env *testEnv)
		content uint64
		want    error
	}{
		{"content does not exist", func(*testing.T, *testEnv) {}, 9, ErrContentNotExist},
		{"content not validated", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.contents.Register(env.instructor, 1, true))
		}, 1, ErrNotValidated},
		{"coaching disabled", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.contents.Register(env.instructor, 1, false))
			require.NoError(t, env.contents.SetValidated(1, true))
		}, 1, ErrCoachingDisabled},
		{"buyer banned", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.roles.SetBanStatus(buyer, true))
			require.NoError(t, env.roles.SetBanStatus(env.instructor, true))
		}, 0, ErrBuyerBanned},
		{"instructor banned", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.roles.SetBanStatus(env.instructor, true))
			require.NoError(t, env.roles.SetKYCStatus(env.instructor, false))
		}, 0, ErrInstructorBanned},
		{"instructor not KYCed", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.roles.SetKYCStatus(env.instructor, false))
			require.NoError(t, env.roles.SetKYCStatus(buyer, false))
		}, 0, ErrInstructorNotKYCed},
		{"buyer not KYCed", func(t *testing.T, env *testEnv) {
			require.NoError(t, env.roles.SetKYCStatus(buyer, false))
		}, 0, ErrBuyerNotKYCed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(t, env)
			_, err := env.treasury().BuyCoaching(buyer, env.voucher(t, env.backendKey, tt.content, udao.Tokens(1), false))
			assert.Equal(t, tt.want, err)
			assert.Equal(t, udao.Tokens(100).String(), env.balance(t, buyer))
		})
	}
}

func TestQuotedPrice(t *testing.T) {
	env := newTestEnv(t)
	v := env.voucher(t, env.backendKey, 0, udao.Tokens(1), false)
	v.Currency = "USD"
	require.NoError(t, voucher.Sign(v, env.backendKey))

	_, err := env.treasury().BuyCoaching(buyer, v)
	assert.Equal(t, oracle.ErrUnknownCurrency, err)

	require.NoError(t, env.oracle.Put("USD", big.NewInt(5), big.NewInt(2)))
	id, err := env.treasury().BuyCoaching(buyer, v)
	require.NoError(t, err)
	c, err := env.treasury().Coaching(id)
	require.NoError(t, err)
	assert.Equal(t, udao.Fraction(5, 2).String(), c.Price.String())
	assert.Equal(t, udao.Fraction(195, 2).String(), env.balance(t, buyer))
}

func TestFinalizeCoaching(t *testing.T) {
	env := newTestEnv(t)
	id := env.buy(t, false)

	assert.Equal(t, ErrCoachingNotExist, env.treasury().FinalizeCoaching(buyer, 5))
	assert.Equal(t, ErrNotLearnerNorCoach, env.treasury().FinalizeCoaching(stranger, id))
	assert.Equal(t, ErrDeadlineNotMet, env.treasury().FinalizeCoaching(env.instructor, id))

	require.NoError(t, env.treasury().FinalizeCoaching(buyer, id))
	assert.Equal(t, ErrNotActive, env.treasury().FinalizeCoaching(buyer, id))

	earned, err := env.treasury().InstructorBalance(env.instructor)
	require.NoError(t, err)
	assert.Equal(t, udao.Fraction(1906, 1000).String(), earned.String())
	fees, err := env.treasury().FoundationBalance()
	require.NoError(t, err)
	assert.Equal(t, udao.Fraction(94, 1000).String(), fees.String())
	assert.Equal(t,
		[]string{"0", env.instructor.String(), earned.String(), fees.String()},
		env.events.Filter("CoachingFinalized")[0].Args,
	)

	_, err = env.treasury().WithdrawInstructor(stranger)
	assert.Equal(t, ErrNoBalance, err)
	paid, err := env.treasury().WithdrawInstructor(env.instructor)
	require.NoError(t, err)
	assert.Equal(t, earned.String(), paid.String())
	assert.Equal(t, earned.String(), env.balance(t, env.instructor))

	var missing *roles.MissingRoleError
	_, err = env.treasury().WithdrawFoundation(buyer)
	assert.ErrorAs(t, err, &missing)
	_, err = env.treasury().WithdrawFoundation(foundation)
	require.NoError(t, err)
	assert.Equal(t, fees.String(), env.balance(t, foundation))
	assert.Equal(t, "0", env.balance(t, treasuryAddr))
}

func TestCoachFinalizesAfterDeadline(t *testing.T) {
	env := newTestEnv(t)
	id := env.buy(t, false)

	env.now = start + Window - 1
	assert.Equal(t, ErrDeadlineNotMet, env.treasury().FinalizeCoaching(env.instructor, id))
	env.now = start + Window
	assert.NoError(t, env.treasury().FinalizeCoaching(env.instructor, id))
}

func TestDelayDeadline(t *testing.T) {
	env := newTestEnv(t)
	id := env.buy(t, false)

	_, err := env.treasury().DelayDeadline(stranger, id)
	assert.Equal(t, ErrNeitherCoachLearner, err)
	_, err = env.treasury().DelayDeadline(buyer, id)
	assert.Equal(t, ErrNotDelayWindow, err)

	env.now = start + udao.Days(27)
	deadline, err := env.treasury().DelayDeadline(buyer, id)
	require.NoError(t, err)
	assert.Equal(t, start+udao.Days(37), deadline)
	assert.Equal(t, []string{"0", strconv.FormatUint(deadline, 10)}, env.events.Filter("DeadlineDelayed")[0].Args)

	_, err = env.treasury().DelayDeadline(env.instructor, id)
	assert.Equal(t, ErrNotDelayWindow, err)

	env.now = start + udao.Days(34)
	deadline, err = env.treasury().DelayDeadline(env.instructor, id)
	require.NoError(t, err)
	assert.Equal(t, start+udao.Days(44), deadline)

	env.now = start + udao.Days(37)
	assert.Equal(t, ErrDeadlineNotMet, env.treasury().FinalizeCoaching(env.instructor, id))
}

func TestRefund(t *testing.T) {
	env := newTestEnv(t)
	fixed := env.buy(t, false)
	assert.Equal(t, ErrNotRefundable, env.treasury().Refund(env.instructor, fixed))

	refundable, err := env.treasury().BuyCoaching(buyer, env.voucher(t, env.instructorKey, 0, udao.Tokens(2), true))
	require.NoError(t, err)
	assert.Equal(t, ErrNotCoach, env.treasury().Refund(buyer, refundable))

	require.NoError(t, env.treasury().Refund(env.instructor, refundable))
	assert.Equal(t, udao.Tokens(98).String(), env.balance(t, buyer))
	assert.Equal(t,
		[]string{"1", buyer.String(), udao.Tokens(2).String()},
		env.events.Filter("Refund")[0].Args,
	)
	assert.Equal(t, ErrNotActive, env.treasury().Refund(env.instructor, refundable))
	assert.Equal(t, ErrNotActive, env.treasury().FinalizeCoaching(buyer, refundable))
}

func TestForcedSettlement(t *testing.T) {
	env := newTestEnv(t)
	paid := env.buy(t, true)
	refunded := env.buy(t, true)

	var missing *roles.MissingRoleError
	assert.ErrorAs(t, env.treasury().ForcedPayment(buyer, paid), &missing)
	assert.ErrorAs(t, env.treasury().ForcedRefundAdmin(env.instructor, refunded), &missing)

	require.NoError(t, env.treasury().ForcedPayment(foundation, paid))
	assert.Equal(t, []string{"0", env.instructor.String()}, env.events.Filter("ForcedPayment")[0].Args)
	require.NoError(t, env.treasury().ForcedRefundAdmin(foundation, refunded))
	assert.Equal(t, ErrNotActive, env.treasury().ForcedRefundAdmin(foundation, paid))

	assert.Equal(t, udao.Tokens(98).String(), env.balance(t, buyer))
	c, err := env.treasury().Coaching(refunded)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, c.Status)
}

func TestSetCoachingFee(t *testing.T) {
	env := newTestEnv(t)

	fee, err := env.treasury().CoachingFee()
	require.NoError(t, err)
	assert.Equal(t, "470", fee.String())

	var missing *roles.MissingRoleError
	assert.ErrorAs(t, env.treasury().SetCoachingFee(buyer, big.NewInt(100)), &missing)
	assert.Equal(t, ErrInvalidFee, env.treasury().SetCoachingFee(foundation, big.NewInt(10001)))
	require.NoError(t, env.treasury().SetCoachingFee(foundation, big.NewInt(1000)))

	id := env.buy(t, false)
	require.NoError(t, env.treasury().FinalizeCoaching(buyer, id))
	earned, err := env.treasury().InstructorBalance(env.instructor)
	require.NoError(t, err)
	assert.Equal(t, udao.Fraction(18, 10).String(), earned.String())
}

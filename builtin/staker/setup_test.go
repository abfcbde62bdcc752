// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/builtin/token"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

const genesisTime = uint64(1_700_000_000)

var (
	stakerAddr   = udao.BytesToAddress([]byte("Staker"))
	treasuryAddr = udao.BytesToAddress([]byte("Treasury"))
	foundation   = udao.BytesToAddress([]byte("foundation"))
	governor     = udao.BytesToAddress([]byte("governor"))
)

// testEnv holds the contracts around the staker. The staker is bound per call at the
// env's current time, like the ledger binds it per call.
type testEnv struct {
	state  *state.State
	roles  *roles.Roles
	token  *token.Token
	vp     *token.Token
	now    uint64
	events tx.Events
	nonce  uint64

	backendKey *ecdsa.PrivateKey
	backend    udao.Address
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	env := &testEnv{
		state:      state.New(db),
		now:        genesisTime,
		backendKey: key,
		backend:    udao.Address(crypto.PubkeyToAddress(key.PublicKey)),
	}
	env.roles = roles.New(env.context("Roles"))
	env.token = token.New(env.context("Token"), "UDAO", env.roles)
	env.vp = token.New(env.context("UDAOVp"), "UDAO-vp", env.roles)

	require.NoError(t, env.roles.Grant(roles.Backend, env.backend))
	require.NoError(t, env.roles.Grant(roles.Foundation, foundation))
	require.NoError(t, env.roles.Grant(roles.Governance, governor))
	require.NoError(t, env.token.Issue(treasuryAddr, udao.Tokens(1000)))
	env.events = nil
	return env
}

func (e *testEnv) context(name string) *solidity.Context {
	return solidity.NewContext(udao.BytesToAddress([]byte(name)), e.state, func(ev *tx.Event) {
		e.events = append(e.events, ev)
	})
}

func (e *testEnv) staker() *Staker {
	return New(e.context("Staker"), e.roles, e.token, e.vp, treasuryAddr, e.now)
}

// member funds, KYCs and approves the staker for an account.
func (e *testEnv) member(t *testing.T, name string) udao.Address {
	addr := udao.BytesToAddress([]byte(name))
	require.NoError(t, e.roles.SetKYCStatus(addr, true))
	require.NoError(t, e.token.Issue(addr, udao.Tokens(10000)))
	require.NoError(t, e.token.Approve(addr, stakerAddr, udao.Tokens(999999)))
	return addr
}

func (e *testEnv) roleVoucher(t *testing.T, addr udao.Address, roleID uint8) *voucher.RoleVoucher {
	v := &voucher.RoleVoucher{Redeemer: addr, RoleID: roleID, ValidUntil: e.now + udao.Day, Nonce: e.nonce}
	e.nonce++
	require.NoError(t, voucher.Sign(v, e.backendKey))
	return v
}

func (e *testEnv) lastEvent(name string) *tx.Event {
	found := e.events.Filter(name)
	if len(found) == 0 {
		return nil
	}
	return found[len(found)-1]
}

func (e *testEnv) balance(t *testing.T, addr udao.Address) *big.Int {
	b, err := e.token.BalanceOf(addr)
	require.NoError(t, err)
	return b
}

type TestFunc func(t *testing.T)

type TestSequence struct {
	env *testEnv

	funcs []TestFunc
	mu    sync.Mutex
}

func NewSequence(env *testEnv) *TestSequence {
	return &TestSequence{funcs: make([]TestFunc, 0), env: env}
}

func (st *TestSequence) AddFunc(f TestFunc) *TestSequence {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.funcs = append(st.funcs, f)
	return st
}

func (st *TestSequence) StakeForGovernance(addr udao.Address, tokens int64, lockDays uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		vp, err := st.env.staker().StakeForGovernance(addr, udao.Tokens(tokens), lockDays)
		if err != nil {
			t.Fatalf("failed to stake for governance %s: %v", addr, err)
		}
		t.Logf("staked %d tokens for %s, minted %s vp", tokens, addr, vp)
	})
}

func (st *TestSequence) ApplyForValidator(addr udao.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker().ApplyForValidator(addr); err != nil {
			t.Fatalf("failed to apply for validator %s: %v", addr, err)
		}
		t.Logf("%s applied for validator", addr)
	})
}

func (st *TestSequence) ApplyForJuror(addr udao.Address) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker().ApplyForJuror(addr); err != nil {
			t.Fatalf("failed to apply for juror %s: %v", addr, err)
		}
		t.Logf("%s applied for juror", addr)
	})
}

func (st *TestSequence) GetApproved(addr udao.Address, roleID uint8) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		if err := st.env.staker().GetApproved(addr, st.env.roleVoucher(t, addr, roleID)); err != nil {
			t.Fatalf("failed to approve role %d for %s: %v", roleID, addr, err)
		}
		t.Logf("%s approved for role %d", addr, roleID)
	})
}

func (st *TestSequence) Advance(seconds uint64) *TestSequence {
	return st.AddFunc(func(t *testing.T) {
		st.env.now += seconds
		t.Logf("time advanced to %d", st.env.now)
	})
}

func (st *TestSequence) Run(t *testing.T) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, f := range st.funcs {
		f(t)
	}

	t.Logf("All test functions executed successfully")
}

// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udao-org/udao-ledger/builtin/content"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/lvldb"
	"github.com/udao-org/udao-ledger/state"
	"github.com/udao-org/udao-ledger/tx"
	"github.com/udao-org/udao-ledger/udao"
)

const start = uint64(1_700_000_000)

var (
	backend    = udao.BytesToAddress([]byte("backend"))
	instructor = udao.BytesToAddress([]byte("instructor"))
)

type testEnv struct {
	state    *state.State
	roles    *roles.Roles
	contents *content.Registry
	now      uint64
	events   tx.Events
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	env := &testEnv{state: state.New(db), now: start}
	env.roles = roles.New(env.context("Roles"))
	env.contents = content.New(env.context("Content"), env.roles)

	require.NoError(t, env.roles.Grant(roles.Backend, backend))
	require.NoError(t, env.roles.SetKYCStatus(instructor, true))
	require.NoError(t, env.roles.Grant(roles.Validator, instructor))
	require.NoError(t, env.contents.Register(instructor, 0, true))
	env.events = nil
	return env
}

func (e *testEnv) context(name string) *solidity.Context {
	return solidity.NewContext(udao.BytesToAddress([]byte(name)), e.state, func(ev *tx.Event) {
		e.events = append(e.events, ev)
	})
}

func (e *testEnv) validation() *Validation {
	return New(e.context("Validation"), e.roles, e.contents, e.now)
}

func (e *testEnv) validators(t *testing.T, n int) []udao.Address {
	out := make([]udao.Address, n)
	for i := range out {
		out[i] = udao.BytesToAddress([]byte(fmt.Sprintf("validator-%d", i)))
		require.NoError(t, e.roles.Grant(roles.Validator, out[i]))
		require.NoError(t, e.roles.SetKYCStatus(out[i], true))
	}
	return out
}

func TestQuorum(t *testing.T) {
	tests := []struct {
		name     string
		required uint64
		yes, no  int
		want     bool
	}{
		{"four of five at 50", 50, 4, 1, true},
		{"tie at exactly the threshold", 50, 2, 2, true},
		{"below threshold", 50, 2, 3, false},
		{"unanimity required", 100, 4, 1, false},
		{"no votes never pass", 0, 0, 0, false},
		{"zero threshold", 0, 0, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Round{RequiredScore: tt.required}
			for range tt.yes {
				r.Assignments = append(r.Assignments, &Assignment{Voted: true, Verdict: true})
			}
			for range tt.no {
				r.Assignments = append(r.Assignments, &Assignment{Voted: true})
			}
			r.Assignments = append(r.Assignments, &Assignment{})
			assert.Equal(t, tt.want, r.Passes())
		})
	}
}

func TestFullRound(t *testing.T) {
	env := newTestEnv(t)
	validators := env.validators(t, 6)

	var missing *roles.MissingRoleError
	_, err := env.validation().CreateValidation(instructor, 0, 50)
	assert.ErrorAs(t, err, &missing)
	_, err = env.validation().CreateValidation(backend, 9, 50)
	assert.Equal(t, ErrContentNotExist, err)
	_, err = env.validation().CreateValidation(backend, 0, 101)
	assert.Equal(t, ErrInvalidScore, err)

	id, err := env.validation().CreateValidation(backend, 0, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), id)
	assert.Equal(t, []string{"0", "0"}, env.events.Filter("ValidationCreated")[0].Args)

	assert.Equal(t, ErrOwnContent, env.validation().AssignValidation(instructor, id))
	for _, val := range validators[:PoolSize] {
		require.NoError(t, env.validation().AssignValidation(val, id))
	}
	assert.Equal(t, ErrAlreadyAssigned, env.validation().AssignValidation(validators[0], id))
	assert.Equal(t, ErrPoolFull, env.validation().AssignValidation(validators[5], id))
	assert.Len(t, env.events.Filter("ValidationAssigned"), PoolSize)

	assert.Equal(t, ErrNotAssigned, env.validation().SendValidation(validators[5], id, true))
	for i, val := range validators[:PoolSize] {
		// not ready until every assigned validator voted
		_, err := env.validation().FinalizeValidation(instructor, id)
		assert.Equal(t, ErrNotReady, err)
		require.NoError(t, env.validation().SendValidation(val, id, i != 4))
	}
	assert.Equal(t, ErrAlreadyVoted, env.validation().SendValidation(validators[0], id, false))
	assert.Equal(t,
		[]string{"0", "0", validators[4].String(), "false"},
		env.events.Filter("ValidationResultSent")[4].Args,
	)

	_, err = env.validation().FinalizeValidation(validators[0], id)
	assert.Equal(t, ErrNotContentOwner, err)

	result, err := env.validation().FinalizeValidation(instructor, id)
	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, []string{"0", "0", "true"}, env.events.Filter("ValidationEnded")[0].Args)

	validated, err := env.contents.IsValidated(0)
	require.NoError(t, err)
	assert.True(t, validated)

	score, err := env.validation().ValidatorScore(validators[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1), score)
	score, err = env.validation().ValidatorScore(validators[4])
	require.NoError(t, err)
	assert.Equal(t, uint64(0), score)

	_, err = env.validation().FinalizeValidation(instructor, id)
	assert.Equal(t, ErrRoundEnded, err)
	assert.Equal(t, ErrRoundEnded, env.validation().AssignValidation(validators[5], id))
}

func TestRoundsOfContent(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.contents.Register(instructor, 1, false))

	a, err := env.validation().CreateValidation(backend, 0, 50)
	require.NoError(t, err)
	b, err := env.validation().CreateValidation(backend, 1, 50)
	require.NoError(t, err)
	c, err := env.validation().CreateValidation(backend, 0, 80)
	require.NoError(t, err)

	ids, err := env.validation().RoundsOf(0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{a, c}, ids)

	r, err := env.validation().Round(c)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Index)
	assert.Equal(t, start+Duration, r.Deadline)
	assert.Equal(t, StatusOpen, r.Status)

	r, err = env.validation().Round(b)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), r.Index)

	r, err = env.validation().Round(99)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, ErrRoundNotExist, env.validation().AssignValidation(env.validators(t, 1)[0], 99))

	count, err := env.validation().RoundCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestFinalizeAfterDeadline(t *testing.T) {
	env := newTestEnv(t)
	validators := env.validators(t, 2)

	id, err := env.validation().CreateValidation(backend, 0, 60)
	require.NoError(t, err)
	require.NoError(t, env.validation().AssignValidation(validators[0], id))
	require.NoError(t, env.validation().AssignValidation(validators[1], id))
	require.NoError(t, env.validation().SendValidation(validators[0], id, false))

	_, err = env.validation().FinalizeValidation(instructor, id)
	assert.Equal(t, ErrNotReady, err)

	env.now += Duration
	assert.Equal(t, ErrDeadlinePassed, env.validation().AssignValidation(validators[1], id))

	result, err := env.validation().FinalizeValidation(instructor, id)
	require.NoError(t, err)
	assert.False(t, result)
	validated, err := env.contents.IsValidated(0)
	require.NoError(t, err)
	assert.False(t, validated)
}

func TestFinalizePartialPool(t *testing.T) {
	env := newTestEnv(t)
	validators := env.validators(t, 3)

	id, err := env.validation().CreateValidation(backend, 0, 50)
	require.NoError(t, err)
	_, err = env.validation().FinalizeValidation(instructor, id)
	assert.Equal(t, ErrNotReady, err, "a round without validators never finalizes early")

	for _, val := range validators {
		require.NoError(t, env.validation().AssignValidation(val, id))
	}
	for _, val := range validators {
		require.NoError(t, env.validation().SendValidation(val, id, true))
	}

	// every assigned validator voted, so the round is ready before the deadline
	result, err := env.validation().FinalizeValidation(instructor, id)
	require.NoError(t, err)
	assert.True(t, result)
	validated, err := env.contents.IsValidated(0)
	require.NoError(t, err)
	assert.True(t, validated)
}

func TestAssignRequiresKYC(t *testing.T) {
	env := newTestEnv(t)
	validators := env.validators(t, 1)
	id, err := env.validation().CreateValidation(backend, 0, 50)
	require.NoError(t, err)

	require.NoError(t, env.roles.SetKYCStatus(validators[0], false))
	assert.Equal(t, ErrNotKYCed, env.validation().AssignValidation(validators[0], id))

	var missing *roles.MissingRoleError
	assert.ErrorAs(t, env.validation().AssignValidation(backend, id), &missing)
}

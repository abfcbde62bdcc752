// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package validation runs the content validation rounds: the backend opens a round,
// validators self-assign into a bounded pool and vote, and the content owner finalizes
// the round, which flips the validated flag of the content.
package validation

import (
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/builtin/reverts"
	"github.com/udao-org/udao-ledger/builtin/roles"
	"github.com/udao-org/udao-ledger/builtin/solidity"
	"github.com/udao-org/udao-ledger/log"
	"github.com/udao-org/udao-ledger/udao"
)

const (
	// PoolSize is the number of validators a round accepts.
	PoolSize = 5
	// Duration of a round before it may be finalized with a partial pool.
	Duration = 30 * udao.Day
)

var (
	logger = log.WithContext("pkg", "validation")

	slotRounds        = udao.BytesToBytes32([]byte("rounds"))
	slotRoundCounter  = udao.BytesToBytes32([]byte("round-counter"))
	slotContentRounds = udao.BytesToBytes32([]byte("content-rounds"))
	slotScores        = udao.BytesToBytes32([]byte("scores"))

	ErrContentNotExist = reverts.New("Content does not exist!")
	ErrInvalidScore    = reverts.New("Required score must be between 0 and 100")
	ErrRoundNotExist   = reverts.New("Validation does not exist")
	ErrRoundEnded      = reverts.New("Validation is already finalized")
	ErrDeadlinePassed  = reverts.New("Validation deadline has passed")
	ErrOwnContent      = reverts.New("You can't validate your own content")
	ErrAlreadyAssigned = reverts.New("You are already assigned to this validation")
	ErrPoolFull        = reverts.New("Validation pool is full")
	ErrNotAssigned     = reverts.NewWithKind(reverts.Authorization, "You are not assigned to this validation")
	ErrAlreadyVoted    = reverts.New("You already sent your validation")
	ErrNotContentOwner = reverts.NewWithKind(reverts.Authorization, "Only content owner can finalize the validation")
	ErrNotReady        = reverts.New("Not all validators sent their validation")
	ErrNotKYCed        = reverts.NewWithKind(reverts.Authorization, "You are not KYCed")
	ErrBanned          = reverts.NewWithKind(reverts.Authorization, "You were banned")
)

// ContentRegistry is the part of the content registry rounds depend on.
type ContentRegistry interface {
	Exists(id uint64) (bool, error)
	OwnerOf(id uint64) (udao.Address, error)
	SetValidated(id uint64, validated bool) error
}

// Validation binder of the validation engine.
type Validation struct {
	sctx      *solidity.Context
	auth      roles.Authorizer
	contents  ContentRegistry
	blockTime uint64

	rounds  *solidity.Mapping[solidity.Uint64Key, *Round]
	counter *solidity.Uint64
	scores  *solidity.Mapping[udao.Address, uint64]
}

func New(sctx *solidity.Context, auth roles.Authorizer, contents ContentRegistry, blockTime uint64) *Validation {
	return &Validation{
		sctx:      sctx,
		auth:      auth,
		contents:  contents,
		blockTime: blockTime,
		rounds:    solidity.NewMapping[solidity.Uint64Key, *Round](sctx, slotRounds),
		counter:   solidity.NewUint64(sctx, slotRoundCounter),
		scores:    solidity.NewMapping[udao.Address, uint64](sctx, slotScores),
	}
}

func (v *Validation) contentRounds(contentID uint64) *solidity.List[uint64] {
	return solidity.NewList[uint64](v.sctx, udao.Blake2b(slotContentRounds.Bytes(), solidity.Uint64Key(contentID).Bytes()))
}

//
// Getters - no state change
//

// Round returns the round with the given id, nil if there is none.
func (v *Validation) Round(id uint64) (*Round, error) {
	r, err := v.rounds.Get(solidity.Uint64Key(id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validation round")
	}
	if r.Status == 0 {
		return nil, nil
	}
	return r, nil
}

// RoundsOf returns the ids of the content's rounds, oldest first.
func (v *Validation) RoundsOf(contentID uint64) ([]uint64, error) {
	ids, err := v.contentRounds(contentID).All()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get content rounds")
	}
	return ids, nil
}

// ValidatorScore returns the number of finalized rounds the validator voted with the result.
func (v *Validation) ValidatorScore(validator udao.Address) (uint64, error) {
	score, err := v.scores.Get(validator)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get validator score")
	}
	return score, nil
}

// RoundCount returns the number of rounds ever created.
func (v *Validation) RoundCount() (uint64, error) {
	return v.counter.Get()
}

//
// Setters - state change
//

// CreateValidation opens a round for the content. Caller must be backend.
func (v *Validation) CreateValidation(caller udao.Address, contentID uint64, requiredScore uint64) (uint64, error) {
	if err := v.auth.Authorize(caller, roles.AnyRole(roles.Backend)); err != nil {
		return 0, err
	}
	exists, err := v.contents.Exists(contentID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrContentNotExist
	}
	if requiredScore > 100 {
		return 0, ErrInvalidScore
	}

	id, err := v.counter.Next()
	if err != nil {
		return 0, errors.Wrap(err, "failed to allocate round id")
	}
	index, err := v.contentRounds(contentID).Push(id)
	if err != nil {
		return 0, errors.Wrap(err, "failed to index round")
	}
	r := &Round{
		ContentID:     contentID,
		Index:         index,
		RequiredScore: requiredScore,
		CreatedAt:     v.blockTime,
		Deadline:      v.blockTime + Duration,
		Status:        StatusOpen,
	}
	if err := v.put(id, r); err != nil {
		return 0, err
	}

	logger.Debug("validation created", "id", id, "content", contentID, "requiredScore", requiredScore)
	v.sctx.Emit("ValidationCreated", contentID, id)
	return id, nil
}

// AssignValidation takes a seat in the round's pool. Caller must be a KYCed validator
// that is not the owner of the content.
func (v *Validation) AssignValidation(caller udao.Address, id uint64) error {
	if err := v.auth.Authorize(caller,
		roles.AnyRole(roles.Validator),
		roles.KYCed(ErrNotKYCed),
		roles.NotBanned(ErrBanned),
	); err != nil {
		return err
	}
	r, err := v.openRound(id)
	if err != nil {
		return err
	}
	if v.blockTime >= r.Deadline {
		return ErrDeadlinePassed
	}
	owner, err := v.contents.OwnerOf(r.ContentID)
	if err != nil {
		return err
	}
	if owner == caller {
		return ErrOwnContent
	}
	if r.assignment(caller) != nil {
		return ErrAlreadyAssigned
	}
	if len(r.Assignments) >= PoolSize {
		return ErrPoolFull
	}
	r.Assignments = append(r.Assignments, &Assignment{Validator: caller})
	if err := v.put(id, r); err != nil {
		return err
	}

	logger.Debug("validation assigned", "id", id, "validator", caller)
	v.sctx.Emit("ValidationAssigned", r.ContentID, id, caller)
	return nil
}

// SendValidation records the verdict of an assigned validator.
func (v *Validation) SendValidation(caller udao.Address, id uint64, verdict bool) error {
	if err := v.auth.Authorize(caller, roles.NotBanned(ErrBanned)); err != nil {
		return err
	}
	r, err := v.openRound(id)
	if err != nil {
		return err
	}
	a := r.assignment(caller)
	if a == nil {
		return ErrNotAssigned
	}
	if a.Voted {
		return ErrAlreadyVoted
	}
	a.Voted = true
	a.Verdict = verdict
	if err := v.put(id, r); err != nil {
		return err
	}

	logger.Debug("validation sent", "id", id, "validator", caller, "verdict", verdict)
	v.sctx.Emit("ValidationResultSent", r.ContentID, id, caller, verdict)
	return nil
}

// FinalizeValidation ends the round and propagates the result to the content. Caller must
// be the content owner. The round is ready once every assigned validator has voted, or,
// past the deadline, once at least one vote was cast.
func (v *Validation) FinalizeValidation(caller udao.Address, id uint64) (bool, error) {
	r, err := v.openRound(id)
	if err != nil {
		return false, err
	}
	owner, err := v.contents.OwnerOf(r.ContentID)
	if err != nil {
		return false, err
	}
	if owner != caller {
		return false, ErrNotContentOwner
	}
	_, cast := r.Tally()
	full := len(r.Assignments) > 0 && cast == uint64(len(r.Assignments))
	expired := v.blockTime >= r.Deadline && cast > 0
	if !full && !expired {
		return false, ErrNotReady
	}

	r.Status = StatusEnded
	r.Result = r.Passes()
	for _, a := range r.Assignments {
		if !a.Voted || a.Verdict != r.Result {
			continue
		}
		score, err := v.ValidatorScore(a.Validator)
		if err != nil {
			return false, err
		}
		if err := v.scores.Set(a.Validator, score+1); err != nil {
			return false, errors.Wrap(err, "failed to set validator score")
		}
	}
	if err := v.put(id, r); err != nil {
		return false, err
	}
	if err := v.contents.SetValidated(r.ContentID, r.Result); err != nil {
		return false, err
	}

	logger.Debug("validation ended", "id", id, "content", r.ContentID, "result", r.Result)
	v.sctx.Emit("ValidationEnded", r.ContentID, id, r.Result)
	return r.Result, nil
}

func (v *Validation) openRound(id uint64) (*Round, error) {
	r, err := v.Round(id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRoundNotExist
	}
	if r.Status != StatusOpen {
		return nil, ErrRoundEnded
	}
	return r, nil
}

func (v *Validation) put(id uint64, r *Round) error {
	if err := v.rounds.Set(solidity.Uint64Key(id), r); err != nil {
		return errors.Wrap(err, "failed to set validation round")
	}
	return nil
}

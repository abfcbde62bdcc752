// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"crypto/ecdsa"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/udao"
)

const callDomain = "udao/call/v1"

// Call is a signed request to invoke one ledger method. The signer is the caller;
// Nonce must equal the number of calls previously accepted from that signer.
type Call struct {
	Method    string          `json:"method"`
	Args      json.RawMessage `json:"args"`
	Nonce     uint64          `json:"nonce"`
	Signature hexutil.Bytes   `json:"signature,omitempty"`
}

// SigningHash returns the hash the caller signs.
func (c *Call) SigningHash() udao.Bytes32 {
	data, _ := rlp.EncodeToBytes([]any{callDomain, c.Method, []byte(c.Args), c.Nonce})
	return udao.Keccak256(data)
}

// ID identifies a signed call.
func (c *Call) ID() udao.Bytes32 {
	return udao.Blake2b(c.SigningHash().Bytes(), c.Signature)
}

// Sign fills the signature with key.
func (c *Call) Sign(key *ecdsa.PrivateKey) error {
	sig, err := crypto.Sign(c.SigningHash().Bytes(), key)
	if err != nil {
		return errors.Wrap(err, "sign call")
	}
	c.Signature = sig
	return nil
}

// Origin recovers the signer of the call.
func (c *Call) Origin() (udao.Address, error) {
	if len(c.Signature) != crypto.SignatureLength {
		return udao.Address{}, errors.New("invalid signature length")
	}
	pub, err := crypto.SigToPub(c.SigningHash().Bytes(), c.Signature)
	if err != nil {
		return udao.Address{}, errors.Wrap(err, "recover signer")
	}
	return udao.Address(crypto.PubkeyToAddress(*pub)), nil
}

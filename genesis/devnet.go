// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/udao-org/udao-ledger/udao"
)

// DevAccount account for development.
type DevAccount struct {
	Address    udao.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns the pre-funded accounts of the dev genesis. The first one is
// the foundation, the second the backend.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{udao.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet returns a genesis for local development: every dev account is KYCed and
// funded, and the third one owns a validated content 0 with coaching enabled.
func NewDevnet() *Genesis {
	accs := DevAccounts()
	gen := &Genesis{
		Foundation: []udao.Address{accs[0].Address},
		Backend:    []udao.Address{accs[1].Address},
		Contents: []Content{
			{ID: 0, Owner: accs[2].Address, Coaching: true, Validated: true},
		},
		Rates: []Rate{
			{Currency: "USD", Numerator: NewAmount(udao.Tokens(2)), Denominator: NewAmount(udao.Tokens(1))},
		},
	}
	for _, acc := range accs {
		gen.KYC = append(gen.KYC, acc.Address)
		gen.Balances = append(gen.Balances, Balance{acc.Address, NewAmount(udao.Tokens(1_000_000))})
	}
	return gen
}

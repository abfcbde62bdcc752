// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package voucher

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/udao-org/udao-ledger/udao"
)

type roleVoucherJSON struct {
	Redeemer   udao.Address  `json:"redeemer"`
	RoleID     uint8         `json:"roleId"`
	ValidUntil uint64        `json:"validUntil"`
	Nonce      uint64        `json:"nonce"`
	Signature  hexutil.Bytes `json:"signature"`
}

// MarshalJSON implements json.Marshaler.
func (v *RoleVoucher) MarshalJSON() ([]byte, error) {
	return json.Marshal(&roleVoucherJSON{
		Redeemer:   v.Redeemer,
		RoleID:     v.RoleID,
		ValidUntil: v.ValidUntil,
		Nonce:      v.Nonce,
		Signature:  v.Signature,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *RoleVoucher) UnmarshalJSON(data []byte) error {
	var obj roleVoucherJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*v = RoleVoucher{
		Redeemer:   obj.Redeemer,
		RoleID:     obj.RoleID,
		ValidUntil: obj.ValidUntil,
		Nonce:      obj.Nonce,
		Signature:  obj.Signature,
	}
	return nil
}

// the price is a decimal string, or 0x-prefixed hex
type coachingVoucherJSON struct {
	ContentID  uint64        `json:"contentId"`
	Price      *uint256.Int  `json:"price"`
	Currency   string        `json:"currency"`
	Refundable bool          `json:"refundable"`
	Redeemer   udao.Address  `json:"redeemer"`
	ValidUntil uint64        `json:"validUntil"`
	Nonce      uint64        `json:"nonce"`
	Signature  hexutil.Bytes `json:"signature"`
}

// MarshalJSON implements json.Marshaler.
func (v *CoachingVoucher) MarshalJSON() ([]byte, error) {
	obj := coachingVoucherJSON{
		ContentID:  v.ContentID,
		Currency:   v.Currency,
		Refundable: v.Refundable,
		Redeemer:   v.Redeemer,
		ValidUntil: v.ValidUntil,
		Nonce:      v.Nonce,
		Signature:  v.Signature,
	}
	if v.Price != nil {
		price, overflow := uint256.FromBig(v.Price)
		if overflow || v.Price.Sign() < 0 {
			return nil, errors.New("voucher price out of range")
		}
		obj.Price = price
	}
	return json.Marshal(&obj)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *CoachingVoucher) UnmarshalJSON(data []byte) error {
	var obj coachingVoucherJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Price == nil {
		return errors.New("voucher price missing")
	}
	*v = CoachingVoucher{
		ContentID:  obj.ContentID,
		Price:      obj.Price.ToBig(),
		Currency:   obj.Currency,
		Refundable: obj.Refundable,
		Redeemer:   obj.Redeemer,
		ValidUntil: obj.ValidUntil,
		Nonce:      obj.Nonce,
		Signature:  obj.Signature,
	}
	return nil
}

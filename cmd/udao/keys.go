// Copyright (c) 2025 The UDAO Ledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-tty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/udao-org/udao-ledger/udao"
	"github.com/udao-org/udao-ledger/voucher"
)

const defaultVoucherTTL = 24 * time.Hour

func keygenAction(ctx *cli.Context) error {
	key, err := crypto.GenerateKey()
	if err != nil {
		return errors.Wrap(err, "generate key")
	}
	addr := udao.Address(crypto.PubkeyToAddress(key.PublicKey))

	if out := ctx.String(outFlag.Name); out != "" {
		if err := crypto.SaveECDSA(out, key); err != nil {
			return errors.Wrap(err, "save key")
		}
		fmt.Println("Address:", addr)
		return nil
	}
	return printJSON(os.Stdout, map[string]string{
		"address":    addr.String(),
		"privateKey": hexutil.Encode(crypto.FromECDSA(key)),
	})
}

func readPasswordFromNewTTY(prompt string) (string, error) {
	t, err := tty.Open()
	if err != nil {
		return "", err
	}
	defer t.Close()
	fmt.Fprint(t.Output(), prompt)
	pass, err := t.ReadPasswordNoEcho()
	if err != nil {
		return "", err
	}
	return pass, err
}

func parseKey(str string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(str), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "parse key")
	}
	return key, nil
}

// loadSigningKey takes the key from --key or --key-file, prompting on the terminal
// when neither is given.
func loadSigningKey(ctx *cli.Context) (*ecdsa.PrivateKey, error) {
	if str := ctx.String(keyFlag.Name); str != "" {
		return parseKey(str)
	}
	if path := ctx.String(keyFileFlag.Name); path != "" {
		key, err := crypto.LoadECDSA(path)
		if err != nil {
			return nil, errors.Wrap(err, "load key")
		}
		return key, nil
	}
	str, err := readPasswordFromNewTTY("Enter private key: ")
	if err != nil {
		return nil, errors.Wrap(err, "read key")
	}
	return parseKey(str)
}

func validUntil(ctx *cli.Context, now time.Time) uint64 {
	if ctx.IsSet(validUntilFlag.Name) {
		return ctx.Uint64(validUntilFlag.Name)
	}
	return uint64(now.Add(ctx.Duration(ttlFlag.Name)).Unix())
}

func nonce(ctx *cli.Context, now time.Time) uint64 {
	if ctx.IsSet(nonceFlag.Name) {
		return ctx.Uint64(nonceFlag.Name)
	}
	return uint64(now.UnixNano())
}

func redeemer(ctx *cli.Context) (udao.Address, error) {
	str := ctx.String(redeemerFlag.Name)
	if str == "" {
		return udao.Address{}, errors.Errorf("-%s is required", redeemerFlag.Name)
	}
	addr, err := udao.ParseAddress(str)
	if err != nil {
		return udao.Address{}, errors.WithMessage(err, redeemerFlag.Name)
	}
	return addr, nil
}

func signRoleVoucherAction(ctx *cli.Context) error {
	addr, err := redeemer(ctx)
	if err != nil {
		return err
	}
	roleID := ctx.Uint(roleIDFlag.Name)
	if roleID > math.MaxUint8 {
		return errors.Errorf("-%s out of range", roleIDFlag.Name)
	}
	key, err := loadSigningKey(ctx)
	if err != nil {
		return err
	}
	v := &voucher.RoleVoucher{
		Redeemer:   addr,
		RoleID:     uint8(roleID),
		ValidUntil: validUntil(ctx, time.Now()),
		Nonce:      nonce(ctx, time.Now()),
	}
	if err := voucher.Sign(v, key); err != nil {
		return errors.Wrap(err, "sign voucher")
	}
	return printJSON(os.Stdout, v)
}

func signCoachingVoucherAction(ctx *cli.Context) error {
	addr, err := redeemer(ctx)
	if err != nil {
		return err
	}
	price, ok := ethmath.ParseBig256(ctx.String(priceFlag.Name))
	if !ok || price.Sign() <= 0 {
		return errors.Errorf("-%s must be a positive integer", priceFlag.Name)
	}
	key, err := loadSigningKey(ctx)
	if err != nil {
		return err
	}
	v := &voucher.CoachingVoucher{
		ContentID:  ctx.Uint64(contentIDFlag.Name),
		Price:      price,
		Currency:   ctx.String(currencyFlag.Name),
		Refundable: ctx.Bool(refundableFlag.Name),
		Redeemer:   addr,
		ValidUntil: validUntil(ctx, time.Now()),
		Nonce:      nonce(ctx, time.Now()),
	}
	if err := voucher.Sign(v, key); err != nil {
		return errors.Wrap(err, "sign voucher")
	}
	return printJSON(os.Stdout, v)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

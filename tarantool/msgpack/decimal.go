/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package msgpack

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// ExtDecimal is Tarantool's MP_EXT id for the DECIMAL extension type.
const ExtDecimal = 1

const (
	nibbleSignPlusA  = 0xa
	nibbleSignPlusC  = 0xc
	nibbleSignMinusB = 0xb
	nibbleSignMinusD = 0xd
)

var (
	ErrDecimalEmpty  = errors.New("msgpack: empty decimal payload")
	ErrDecimalNibble = errors.New("msgpack: invalid decimal BCD nibble")
)

// Decimal is the Go-facing value for Tarantool's DECIMAL extension: an
// arbitrary-precision fixed-point number, wire-encoded as a leading scale
// byte followed by packed-BCD digits with a trailing sign nibble.
type Decimal struct {
	decimal.Decimal
}

// NewDecimal wraps a shopspring/decimal value.
func NewDecimal(d decimal.Decimal) Decimal {
	return Decimal{d}
}

func init() {
	msgpack.RegisterExt(ExtDecimal, (*Decimal)(nil))
}

// MarshalBinary implements encoding.BinaryMarshaler, producing the
// packed-BCD wire form consumed by msgpack.RegisterExt.
func (d Decimal) MarshalBinary() ([]byte, error) {
	coeff := d.Decimal.Coefficient()
	neg := coeff.Sign() < 0
	digits := new(big.Int).Abs(coeff).String()
	if digits == "0" {
		digits = "0"
	}
	scale := -d.Decimal.Exponent()

	nibbles := make([]byte, 0, len(digits)+1)
	for _, r := range digits {
		nibbles = append(nibbles, byte(r-'0'))
	}
	if neg {
		nibbles = append(nibbles, nibbleSignMinusD)
	} else {
		nibbles = append(nibbles, nibbleSignPlusC)
	}
	if len(nibbles)%2 != 0 {
		nibbles = append([]byte{0}, nibbles...)
	}

	out := make([]byte, 1+len(nibbles)/2)
	out[0] = byte(int8(scale))
	for i := 0; i < len(nibbles); i += 2 {
		out[1+i/2] = nibbles[i]<<4 | nibbles[i+1]
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (d *Decimal) UnmarshalBinary(b []byte) error {
	if len(b) < 2 {
		return ErrDecimalEmpty
	}
	scale := int32(int8(b[0]))

	var sb strings.Builder
	neg := false
	body := b[1:]
	for i, by := range body {
		hi, lo := by>>4, by&0x0f
		last := i == len(body)-1
		if !last {
			sb.WriteByte('0' + hi)
			sb.WriteByte('0' + lo)
			continue
		}
		// final byte: high nibble is the last digit (if present), low
		// nibble is the sign.
		if hi <= 9 {
			sb.WriteByte('0' + hi)
		}
		switch lo {
		case nibbleSignPlusA, nibbleSignPlusC:
			neg = false
		case nibbleSignMinusB, nibbleSignMinusD:
			neg = true
		default:
			return ErrDecimalNibble
		}
	}

	digits := sb.String()
	if digits == "" {
		digits = "0"
	}
	coeff, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return ErrDecimalNibble
	}
	if neg {
		coeff.Neg(coeff)
	}
	d.Decimal = decimal.NewFromBigInt(coeff, -scale)
	return nil
}

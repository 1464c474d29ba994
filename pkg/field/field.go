// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

// Package field wraps the prime-field element type AirScript constraints are
// evaluated over. The field itself (BLS12-377's scalar field) together with
// its degree-two extension are treated as an external collaborator per the
// specification: this package only provides the thin surface the compiler
// needs (construction, arithmetic, equality) and does not attempt to be a
// general-purpose field-arithmetic library.
package field

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Felt is a single element of the base field.
type Felt = fr.Element

// Zero returns the additive identity.
func Zero() Felt {
	var e Felt
	return e
}

// One returns the multiplicative identity.
func One() Felt {
	var e Felt
	return e.SetOne()
}

// NewFelt constructs a field element from a uint64.
func NewFelt(v uint64) Felt {
	var e Felt
	return e.SetUint64(v)
}

// Add returns x+y.
func Add(x, y Felt) Felt {
	var r Felt
	r.Add(&x, &y)
	return r
}

// Sub returns x-y.
func Sub(x, y Felt) Felt {
	var r Felt
	r.Sub(&x, &y)
	return r
}

// Mul returns x*y.
func Mul(x, y Felt) Felt {
	var r Felt
	r.Mul(&x, &y)
	return r
}

// Neg returns -x.
func Neg(x Felt) Felt {
	var r Felt
	r.Neg(&x)
	return r
}

// Exp returns x^n for a small constant exponent, as used by the MIR Exp op.
func Exp(x Felt, n uint64) Felt {
	var (
		r   Felt = One()
		base      = x
	)

	for n > 0 {
		if n&1 == 1 {
			r = Mul(r, base)
		}

		base = Mul(base, base)
		n >>= 1
	}

	return r
}

// IsZero reports whether x is the additive identity.
func IsZero(x Felt) bool {
	return x.IsZero()
}

// Equal reports whether x and y denote the same field element.
func Equal(x, y Felt) bool {
	return x.Equal(&y)
}

// BigInt constructs a field element from an arbitrary-precision integer,
// reducing modulo the field characteristic.
func BigInt(v *big.Int) Felt {
	var e Felt
	return e.SetBigInt(v)
}

// Ext2 is an element of the quadratic extension F_p^2 = F_p[x]/(x^2 - nonResidue),
// used for out-of-domain evaluation points in the circuit builder. AirScript
// itself never materializes extension-field constraints; this type exists
// purely to carry the verifier's randomly sampled evaluation point through
// the circuit layout (spec.md §4.6).
type Ext2 struct {
	A0, A1 Felt
}

// NewExt2 builds an extension element from its two base-field coordinates.
func NewExt2(a0, a1 Felt) Ext2 {
	return Ext2{A0: a0, A1: a1}
}

// nonResidue is a fixed quadratic non-residue used to define the extension;
// any value for which x^2 - nonResidue is irreducible over the base field
// would do. This mirrors how STARK verifiers commonly pick the extension
// parameter once, as a protocol constant.
var nonResidue = NewFelt(7)

// Add returns x+y in the extension field.
func (x Ext2) Add(y Ext2) Ext2 {
	return Ext2{Add(x.A0, y.A0), Add(x.A1, y.A1)}
}

// Sub returns x-y in the extension field.
func (x Ext2) Sub(y Ext2) Ext2 {
	return Ext2{Sub(x.A0, y.A0), Sub(x.A1, y.A1)}
}

// Mul returns x*y in the extension field.
func (x Ext2) Mul(y Ext2) Ext2 {
	// (a0 + a1*u)(b0 + b1*u) = (a0*b0 + nonResidue*a1*b1) + (a0*b1 + a1*b0)*u
	a0b0 := Mul(x.A0, y.A0)
	a1b1 := Mul(x.A1, y.A1)
	a0b1 := Mul(x.A0, y.A1)
	a1b0 := Mul(x.A1, y.A0)

	return Ext2{
		A0: Add(a0b0, Mul(nonResidue, a1b1)),
		A1: Add(a0b1, a1b0),
	}
}

// Pow raises x to the power n within the extension field, using the same
// square-and-multiply strategy as Exp.
func (x Ext2) Pow(n uint64) Ext2 {
	r := Ext2{One(), Zero()}
	base := x

	for n > 0 {
		if n&1 == 1 {
			r = r.Mul(base)
		}

		base = base.Mul(base)
		n >>= 1
	}

	return r
}

// String renders x in the form used by debug printers throughout the
// compiler (lisp dumps, diagnostics).
func (x Ext2) String() string {
	return fmt.Sprintf("(%s + %s*u)", x.A0.String(), x.A1.String())
}

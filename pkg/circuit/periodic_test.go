// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"

	"github.com/airscript-lang/airscript/pkg/field"
)

// evalPoly evaluates coeffs (ascending degree order) at x using plain
// field arithmetic, independent of the circuit builder, as an oracle
// for interpolate's correctness.
func evalPoly(coeffs []field.Felt, x field.Felt) field.Felt {
	acc := field.Zero()

	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = field.Add(coeffs[i], field.Mul(acc, x))
	}

	return acc
}

func TestInterpolateRoundTrips(t *testing.T) {
	cycle := []uint64{3, 1, 4, 1}

	coeffs := interpolate(cycle)
	if len(coeffs) != len(cycle) {
		t.Fatalf("interpolate returned %d coefficients, want %d", len(coeffs), len(cycle))
	}

	domain := fft.NewDomain(uint64(len(cycle)))

	point := field.One()
	for i, want := range cycle {
		if got := evalPoly(coeffs, point); !field.Equal(got, field.NewFelt(want)) {
			t.Errorf("interpolated poly at root %d = %v, want %d", i, got, want)
		}

		point = field.Mul(point, domain.Generator)
	}
}

func TestInterpolateConstantColumn(t *testing.T) {
	coeffs := interpolate([]uint64{7, 7})

	domain := fft.NewDomain(2)
	point := field.One()

	for i := 0; i < 2; i++ {
		if got := evalPoly(coeffs, point); !field.Equal(got, field.NewFelt(7)) {
			t.Errorf("constant column evaluated to %v at root %d, want 7", got, i)
		}

		point = field.Mul(point, domain.Generator)
	}
}

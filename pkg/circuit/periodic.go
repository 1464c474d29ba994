// Copyright AirScript Contributors
// SPDX-License-Identifier: Apache-2.0

package circuit

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/fft"

	"github.com/airscript-lang/airscript/pkg/field"
)

// interpolate returns the coefficients, in ascending degree order, of
// the unique polynomial of degree < len(cycle) that evaluates to
// cycle[i] at the i'th root of unity of a domain of size len(cycle).
// This is the inverse-FFT step spec.md §4.6 names for periodic-column
// evaluation; the DIF+BitReverse pairing is the same idiom
// go-corset's/gnark's setup code uses whenever it needs a canonical
// (ascending, not bit-reversed) coefficient vector out of gnark-crypto's
// in-place inverse transform.
func interpolate(cycle []uint64) []field.Felt {
	domain := fft.NewDomain(uint64(len(cycle)))

	coeffs := make([]field.Felt, len(cycle))
	for i, v := range cycle {
		coeffs[i] = field.NewFelt(v)
	}

	domain.FFTInverse(coeffs, fft.DIF)
	fft.BitReverse(coeffs)

	return coeffs
}

// This package provides native helpers for the Goldilocks field
// p = 2^64 - 2^32 + 1 on top of gnark-crypto's implementation: the
// two-adic subgroup structure used by the FRI evaluation domains, and the
// bit-reversal utilities the folding convention relies on.
package goldilocks

import (
	"math/bits"

	"github.com/consensys/gnark-crypto/field/goldilocks"
)

// The multiplicative group generator of the field.
var MULTIPLICATIVE_GROUP_GENERATOR goldilocks.Element = goldilocks.NewElement(7)

// The two adicity of the field.
var TWO_ADICITY uint64 = 32

// The power of two generator of the field.
var POWER_OF_TWO_GENERATOR goldilocks.Element = goldilocks.NewElement(1753635133440165772)

// FromUint64 returns v reduced into the field.
func FromUint64(v uint64) goldilocks.Element {
	var e goldilocks.Element
	e.SetUint64(v)
	return e
}

// Computes the n'th primitive root of unity for the Goldilocks field.
func PrimitiveRootOfUnity(nLog uint64) goldilocks.Element {
	if nLog > TWO_ADICITY {
		panic("nLog is greater than TWO_ADICITY")
	}
	res := goldilocks.NewElement(POWER_OF_TWO_GENERATOR.Uint64())
	for i := 0; i < int(TWO_ADICITY-nLog); i++ {
		res.Square(&res)
	}
	return res
}

func TwoAdicSubgroup(nLog uint64) []goldilocks.Element {
	if nLog > TWO_ADICITY {
		panic("nLog is greater than TWO_ADICITY")
	}

	var res []goldilocks.Element
	rootOfUnity := PrimitiveRootOfUnity(nLog)
	res = append(res, goldilocks.NewElement(1))

	for i := 0; i < (1<<nLog)-1; i++ {
		lastElement := res[len(res)-1]
		res = append(res, *lastElement.Mul(&lastElement, &rootOfUnity))
	}

	return res
}

// Log2Strict returns log2(n). It panics if n is not a power of two.
func Log2Strict(n uint64) uint64 {
	if n == 0 || n&(n-1) != 0 {
		panic("n is not a power of two")
	}
	return uint64(bits.TrailingZeros64(n))
}

// ReverseBits returns x with its low nBits bits reversed.
func ReverseBits(x uint64, nBits uint64) uint64 {
	return bits.Reverse64(x) >> (64 - nBits)
}

// ReverseIndexBits returns vec permuted into bit-reversed index order.
// The length of vec must be a power of two.
func ReverseIndexBits(vec []goldilocks.Element) []goldilocks.Element {
	n := uint64(len(vec))
	nLog := Log2Strict(n)
	res := make([]goldilocks.Element, n)
	for i := uint64(0); i < n; i++ {
		res[ReverseBits(i, nLog)] = vec[i]
	}
	return res
}

package fri

import (
	"math/big"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	gl "github.com/Champii/Plonky3/goldilocks"
	"github.com/Champii/Plonky3/types"
)

// TwoAdicFold folds evaluation vectors over the two-adic coset
// g * <w> of the Goldilocks field, where g is the multiplicative group
// generator and w a root of unity of the domain's order.
//
// Vectors are held in bit-reversed evaluation order, so the coset pair
// (f(x), f(-x)) sits at adjacent indices differing in the low bit: row r of
// the committed table holds the pair for x = g * w^rev(r). The folded value
// is the degree-one interpolation of the pair at beta,
//
//	folded[r] = (f(x) + f(-x))/2 + beta * (f(x) - f(-x))/(2x),
//
// an evaluation of the half-degree polynomial at x^2; the output vector is
// again in bit-reversed order over the squared domain.
type TwoAdicFold struct{}

func (TwoAdicFold) ExtraQueryIndexBits() uint64 {
	return 0
}

func (TwoAdicFold) FoldMatrix(beta goldilocks.Element, m *types.Matrix) []goldilocks.Element {
	height := uint64(m.Height())
	logHeight := gl.Log2Strict(height)

	w := gl.PrimitiveRootOfUnity(logHeight + 1)
	var wInv, shiftInv, twoInv goldilocks.Element
	wInv.Inverse(&w)
	shiftInv.Inverse(&gl.MULTIPLICATIVE_GROUP_GENERATOR)
	two := goldilocks.NewElement(2)
	twoInv.Inverse(&two)

	exp := new(big.Int)
	folded := make([]goldilocks.Element, height)
	for r := uint64(0); r < height; r++ {
		row := m.Row(int(r))
		e0, e1 := row[0], row[1]

		// 1/x for x = g * w^rev(r).
		var xInv goldilocks.Element
		xInv.Exp(wInv, exp.SetUint64(gl.ReverseBits(r, logHeight)))
		xInv.Mul(&xInv, &shiftInv)

		var sum, diff goldilocks.Element
		sum.Add(&e0, &e1)
		diff.Sub(&e0, &e1)
		diff.Mul(&diff, &xInv)
		diff.Mul(&diff, &beta)
		sum.Add(&sum, &diff)
		sum.Mul(&sum, &twoInv)
		folded[r] = sum
	}
	return folded
}

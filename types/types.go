package types

import (
	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Commitment is the opaque digest a vector commitment scheme binds a
// committed matrix to. It serializes as a hex string.
type Commitment = hexutil.Bytes

// OpeningProof is the opaque blob a commitment scheme returns alongside an
// opened row. The prover records it verbatim in the emitted proof.
type OpeningProof []hexutil.Bytes

// Matrix is a row-major matrix of field elements. The FRI commit phase
// always commits two-column matrices: row i holds the coset pair of
// evaluations at indices 2i and 2i+1 of the folded vector.
type Matrix struct {
	Values []goldilocks.Element
	Width  int
}

func NewMatrix(values []goldilocks.Element, width int) *Matrix {
	if width <= 0 || len(values)%width != 0 {
		panic("matrix values must fill complete rows")
	}
	return &Matrix{Values: values, Width: width}
}

func (m *Matrix) Height() int {
	return len(m.Values) / m.Width
}

// Row returns a read-only view of row i.
func (m *Matrix) Row(i int) []goldilocks.Element {
	return m.Values[i*m.Width : (i+1)*m.Width]
}

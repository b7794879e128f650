// Package merkle implements the vector commitment scheme the FRI prover
// commits its per-round tables with: each matrix row is hashed into a leaf
// with BLAKE2b-256 and the leaves are Merkle-ized; the root is the
// commitment and the authentication path is the opening proof.
package merkle

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/blake2b"

	"github.com/Champii/Plonky3/types"
)

var (
	ErrEmptyMatrix     = errors.New("merkle: cannot commit an empty matrix")
	ErrForeignHandle   = errors.New("merkle: prover data was not produced by this scheme")
	ErrRowOutOfRange   = errors.New("merkle: row index out of range")
	ErrMalformedProof  = errors.New("merkle: malformed opening proof")
	ErrOpeningMismatch = errors.New("merkle: opening does not match commitment")
)

type Mmcs struct{}

// proverData retains the committed matrix and every tree layer, leaves
// first. It is read-only after Commit.
type proverData struct {
	matrix *types.Matrix
	layers [][][32]byte
}

// Commit builds the Merkle tree over the matrix rows and returns the root
// as the commitment together with the retained handle.
func (Mmcs) Commit(m *types.Matrix) (types.Commitment, any, error) {
	height := m.Height()
	if height == 0 {
		return nil, nil, ErrEmptyMatrix
	}

	leaves := make([][32]byte, height)
	for i := 0; i < height; i++ {
		leaves[i] = hashRow(m.Row(i))
	}

	layers := [][][32]byte{leaves}
	for len(layers[len(layers)-1]) > 1 {
		prev := layers[len(layers)-1]
		next := make([][32]byte, (len(prev)+1)/2)
		for i := range next {
			left := prev[2*i]
			right := left // odd layer: duplicate the lone node
			if 2*i+1 < len(prev) {
				right = prev[2*i+1]
			}
			next[i] = hashNodes(left, right)
		}
		layers = append(layers, next)
	}

	root := layers[len(layers)-1][0]
	return types.Commitment(append([]byte(nil), root[:]...)), &proverData{matrix: m, layers: layers}, nil
}

// Matrices returns the matrices committed under the handle.
func (Mmcs) Matrices(data any) []*types.Matrix {
	pd, ok := data.(*proverData)
	if !ok {
		return nil
	}
	return []*types.Matrix{pd.matrix}
}

// Open returns row index of the committed matrix together with its
// authentication path. Safe for concurrent use: it only reads the handle.
func (Mmcs) Open(index uint64, data any) ([][]goldilocks.Element, types.OpeningProof, error) {
	pd, ok := data.(*proverData)
	if !ok {
		return nil, nil, ErrForeignHandle
	}
	if index >= uint64(pd.matrix.Height()) {
		return nil, nil, fmt.Errorf("%w: row %d of %d", ErrRowOutOfRange, index, pd.matrix.Height())
	}

	var path types.OpeningProof
	i := index
	for _, layer := range pd.layers[:len(pd.layers)-1] {
		sibling := i ^ 1
		if sibling >= uint64(len(layer)) {
			sibling = i
		}
		node := layer[sibling]
		path = append(path, hexutil.Bytes(append([]byte(nil), node[:]...)))
		i >>= 1
	}

	return [][]goldilocks.Element{pd.matrix.Row(int(index))}, path, nil
}

// VerifyOpening checks an opened row against a commitment. The prover does
// not call this; it serves the tests and the demo tooling.
func VerifyOpening(commitment types.Commitment, index uint64, row []goldilocks.Element, proof types.OpeningProof) error {
	node := hashRow(row)
	i := index
	for _, sibling := range proof {
		if len(sibling) != 32 {
			return ErrMalformedProof
		}
		var s [32]byte
		copy(s[:], sibling)
		if i&1 == 1 {
			node = hashNodes(s, node)
		} else {
			node = hashNodes(node, s)
		}
		i >>= 1
	}
	if !bytes.Equal(node[:], commitment) {
		return ErrOpeningMismatch
	}
	return nil
}

func hashRow(row []goldilocks.Element) [32]byte {
	buf := make([]byte, 0, goldilocks.Bytes*len(row))
	for i := range row {
		b := row[i].Bytes()
		buf = append(buf, b[:]...)
	}
	return blake2b.Sum256(buf)
}

func hashNodes(left, right [32]byte) [32]byte {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return blake2b.Sum256(buf[:])
}

// Package fri implements the prover side of the FRI low-degree test: the
// commit phase that iteratively folds evaluation vectors under
// transcript-derived challenges, the proof-of-work grind, and the query
// phase that opens every round's commitment at transcript-sampled indices.
//
// The commitment scheme, the Fiat-Shamir transcript, and the folding rule
// are capability interfaces injected by the caller; the prover never
// inspects their internals.
package fri

import (
	"errors"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/Champii/Plonky3/types"
)

// ProverData is the opaque per-round state a commitment scheme retains so
// that committed rows can be opened later. It is created at commit time,
// read during the query phase, and never mutated in between.
type ProverData = any

// Mmcs is the vector commitment scheme the commit phase binds each folded
// vector with ("mixed matrix commitment scheme").
type Mmcs interface {
	// Commit binds a two-column matrix and returns its commitment together
	// with the retained prover-side handle.
	Commit(m *types.Matrix) (types.Commitment, ProverData, error)

	// Matrices returns read-only views of the matrices previously committed
	// under the handle.
	Matrices(data ProverData) []*types.Matrix

	// Open opens row index of every matrix retained under the handle,
	// returning the opened rows and an opaque opening proof. It must be safe
	// for concurrent use on the same handle.
	Open(index uint64, data ProverData) ([][]goldilocks.Element, types.OpeningProof, error)
}

// Challenger is the Fiat-Shamir transcript. It is a strict sequential
// accumulator: the prover holds exclusive access for the whole commit phase,
// the grind, and the index sampling.
type Challenger interface {
	// Observe absorbs a commitment (or any transcript-bound bytes).
	Observe(data []byte)

	// SampleElement draws one field element of challenge randomness.
	SampleElement() goldilocks.Element

	// SampleBits draws an unsigned integer of the given bit width.
	SampleBits(nBits uint64) uint64

	// Grind searches for a proof-of-work witness whose transcript-bound
	// response has nBits leading zero bits, updating the transcript state so
	// that subsequent sampling is bound to the witness.
	Grind(nBits uint64) goldilocks.Element
}

// FoldStrategy supplies the protocol-variant pieces the prover stays
// agnostic to: the folding rule applied to each committed table, and the
// extra width of the query index domain.
type FoldStrategy interface {
	// FoldMatrix combines each row of the two-column table under the
	// challenge beta, producing a vector of half the table's element count.
	FoldMatrix(beta goldilocks.Element, m *types.Matrix) []goldilocks.Element

	// ExtraQueryIndexBits widens the sampled query indices beyond
	// log2(max oracle height) for variants querying a larger domain.
	ExtraQueryIndexBits() uint64
}

// InputOpener proves the value a query index claims in the original
// oracle(s), a concern owned entirely by the caller. The returned blob is
// recorded verbatim in the query proof.
type InputOpener func(index uint64) ([]byte, error)

// Config holds the protocol parameters and the commitment scheme handle.
// It must not change for the duration of a proof.
type Config struct {
	// RateBits is the log2 of the blowup factor, the ratio between the
	// evaluation-domain size and the claimed degree bound.
	RateBits uint64

	// ProofOfWorkBits is the grind difficulty in leading zero bits.
	ProofOfWorkBits uint64

	// NumQueries is the number of query proofs to produce.
	NumQueries uint64

	// FinalPolyBits is the log2 of the final polynomial length threshold:
	// folding stops once the working vector fits it (and the blowup).
	FinalPolyBits uint64

	// Mmcs commits the per-round tables.
	Mmcs Mmcs

	// PhaseHook, when non-nil, is invoked at each phase boundary with the
	// phase name; the returned func is called when the phase finishes.
	PhaseHook func(phase string) func()
}

func (c *Config) Blowup() uint64 {
	return 1 << c.RateBits
}

func (c *Config) FinalPolyLen() uint64 {
	return 1 << c.FinalPolyBits
}

func (c *Config) beginPhase(name string) func() {
	if c.PhaseHook == nil {
		return func() {}
	}
	return c.PhaseHook(name)
}

// Precondition violations, detected before any transcript interaction.
var (
	ErrNoInputs           = errors.New("fri: at least one input oracle is required")
	ErrInputsUnsorted     = errors.New("fri: input oracles must be sorted by decreasing length")
	ErrInputNotPowerOfTwo = errors.New("fri: input oracle lengths must be powers of two")
)

// Invariant violations: a collaborator returned data of unexpected shape.
// These are contract mismatches, never retried.
var (
	ErrNoRetainedMatrix  = errors.New("fri: commitment scheme retained no matrix for the round")
	ErrCommittedRowShape = errors.New("fri: committed rows must hold exactly two values")
	ErrOpenedRowCount    = errors.New("fri: opening returned an unexpected number of rows")
	ErrOpenedRowShape    = errors.New("fri: opened row must hold exactly two values")
)

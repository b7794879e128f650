package fri_test

import (
	"fmt"
	"testing"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/stretchr/testify/require"

	"github.com/Champii/Plonky3/challenger"
	"github.com/Champii/Plonky3/fri"
	gl "github.com/Champii/Plonky3/goldilocks"
	"github.com/Champii/Plonky3/merkle"
	"github.com/Champii/Plonky3/types"
)

// stubMmcs retains committed matrices without any real binding. The
// overrides let tests hand malformed shapes back to the prover.
type stubMmcs struct {
	committed []*types.Matrix

	openedWidth   int // if > 0, opened rows get this many values
	retainedWidth int // if > 0, Matrices reports this width
	retainNothing bool
}

func (s *stubMmcs) Commit(m *types.Matrix) (types.Commitment, fri.ProverData, error) {
	s.committed = append(s.committed, m)
	return []byte(fmt.Sprintf("commit-%d-%d", len(s.committed), m.Height())), m, nil
}

func (s *stubMmcs) Matrices(data fri.ProverData) []*types.Matrix {
	if s.retainNothing {
		return nil
	}
	m := data.(*types.Matrix)
	if s.retainedWidth > 0 {
		values := make([]goldilocks.Element, s.retainedWidth*m.Height())
		return []*types.Matrix{types.NewMatrix(values, s.retainedWidth)}
	}
	return []*types.Matrix{m}
}

func (s *stubMmcs) Open(index uint64, data fri.ProverData) ([][]goldilocks.Element, types.OpeningProof, error) {
	if s.openedWidth > 0 {
		return [][]goldilocks.Element{make([]goldilocks.Element, s.openedWidth)}, nil, nil
	}
	m := data.(*types.Matrix)
	return [][]goldilocks.Element{m.Row(int(index))}, nil, nil
}

// halvingFold keeps the first value of each coset pair: a trivial
// length-halving rule for exercising the engine alone.
type halvingFold struct{}

func (halvingFold) ExtraQueryIndexBits() uint64 { return 0 }

func (halvingFold) FoldMatrix(_ goldilocks.Element, m *types.Matrix) []goldilocks.Element {
	out := make([]goldilocks.Element, m.Height())
	for i := range out {
		out[i] = m.Row(i)[0]
	}
	return out
}

// panicChallenger fails the test if the prover touches the transcript.
type panicChallenger struct{}

func (panicChallenger) Observe([]byte) { panic("transcript touched") }
func (panicChallenger) SampleElement() goldilocks.Element {
	panic("transcript touched")
}
func (panicChallenger) SampleBits(uint64) uint64        { panic("transcript touched") }
func (panicChallenger) Grind(uint64) goldilocks.Element { panic("transcript touched") }

func sequence(n uint64, offset uint64) []goldilocks.Element {
	out := make([]goldilocks.Element, n)
	for i := range out {
		out[i] = gl.FromUint64(offset + uint64(i))
	}
	return out
}

func openNothing(uint64) ([]byte, error) { return nil, nil }

func stubConfig(mmcs fri.Mmcs) *fri.Config {
	return &fri.Config{
		RateBits:        1,
		ProofOfWorkBits: 2,
		NumQueries:      3,
		FinalPolyBits:   1,
		Mmcs:            mmcs,
	}
}

func TestPreconditionsCheckedBeforeTranscript(t *testing.T) {
	config := stubConfig(&stubMmcs{})

	_, err := fri.Prove(halvingFold{}, config, nil, panicChallenger{}, openNothing)
	require.ErrorIs(t, err, fri.ErrNoInputs)

	unsorted := [][]goldilocks.Element{sequence(4, 1), sequence(8, 1)}
	_, err = fri.Prove(halvingFold{}, config, unsorted, panicChallenger{}, openNothing)
	require.ErrorIs(t, err, fri.ErrInputsUnsorted)

	notPow2 := [][]goldilocks.Element{sequence(6, 1)}
	_, err = fri.Prove(halvingFold{}, config, notPow2, panicChallenger{}, openNothing)
	require.ErrorIs(t, err, fri.ErrInputNotPowerOfTwo)
}

func TestRoundCountDeterminedByShapeAlone(t *testing.T) {
	// R depends on the largest oracle length, the blowup, and the final
	// polynomial threshold, never on transcript randomness.
	const logHeight = 8
	expectedRounds := logHeight - 2 // max(blowup, final poly len) = 4

	for _, seed := range []string{"a", "b", "c"} {
		config := &fri.Config{
			RateBits:        1,
			ProofOfWorkBits: 2,
			NumQueries:      3,
			FinalPolyBits:   2,
			Mmcs:            &stubMmcs{},
		}
		proof, err := fri.Prove(
			halvingFold{},
			config,
			[][]goldilocks.Element{sequence(1<<logHeight, 1)},
			challenger.NewDuplex([]byte(seed)),
			openNothing,
		)
		require.NoError(t, err)
		require.Len(t, proof.CommitPhaseCommits, expectedRounds)
		require.LessOrEqual(t, uint64(len(proof.FinalPoly)), max(config.Blowup(), config.FinalPolyLen()))
	}
}

func TestRoundTripScenario(t *testing.T) {
	// Single oracle of length 8, blowup 2, final polynomial threshold 2:
	// exactly two commit rounds and a length-2 final polynomial.
	mmcs := &stubMmcs{}
	config := stubConfig(mmcs)

	proof, err := fri.Prove(
		halvingFold{},
		config,
		[][]goldilocks.Element{sequence(8, 1)},
		challenger.NewDuplex([]byte("round-trip")),
		openNothing,
	)
	require.NoError(t, err)
	require.Len(t, proof.CommitPhaseCommits, 2)
	require.Len(t, proof.FinalPoly, 2)
	require.Len(t, mmcs.committed, 2)
}

func TestQueryCountAndOpeningsPerQuery(t *testing.T) {
	config := stubConfig(&stubMmcs{})
	config.NumQueries = 5

	proof, err := fri.Prove(
		halvingFold{},
		config,
		[][]goldilocks.Element{sequence(8, 1)},
		challenger.NewDuplex([]byte("query-count")),
		openNothing,
	)
	require.NoError(t, err)
	require.Len(t, proof.QueryProofs, 5)
	for _, qp := range proof.QueryProofs {
		require.Len(t, qp.CommitPhaseOpenings, len(proof.CommitPhaseCommits))
	}
}

func TestMixingAddsCaughtUpOracle(t *testing.T) {
	// With a second oracle of length 4, round 1 must commit the folded
	// first oracle plus the second oracle element-wise, not the folded
	// value alone.
	mmcs := &stubMmcs{}
	first := sequence(8, 1)
	second := sequence(4, 100)

	_, err := fri.Prove(
		halvingFold{},
		stubConfig(mmcs),
		[][]goldilocks.Element{first, second},
		challenger.NewDuplex([]byte("mixing")),
		openNothing,
	)
	require.NoError(t, err)
	require.Len(t, mmcs.committed, 2)

	// halvingFold keeps the even-index entries of the first oracle.
	expected := make([]goldilocks.Element, 4)
	for i := range expected {
		expected[i].Add(&first[2*i], &second[i])
	}
	require.Equal(t, expected, mmcs.committed[1].Values)
}

func TestMalformedOpenedRowAborts(t *testing.T) {
	config := stubConfig(&stubMmcs{openedWidth: 3})

	_, err := fri.Prove(
		halvingFold{},
		config,
		[][]goldilocks.Element{sequence(8, 1)},
		challenger.NewDuplex([]byte("bad-row")),
		openNothing,
	)
	require.ErrorIs(t, err, fri.ErrOpenedRowShape)
}

func TestMalformedCommittedWidthAborts(t *testing.T) {
	config := stubConfig(&stubMmcs{retainedWidth: 3})

	_, err := fri.Prove(
		halvingFold{},
		config,
		[][]goldilocks.Element{sequence(8, 1)},
		challenger.NewDuplex([]byte("bad-width")),
		openNothing,
	)
	require.ErrorIs(t, err, fri.ErrCommittedRowShape)
}

func TestNoRetainedMatrixAborts(t *testing.T) {
	config := stubConfig(&stubMmcs{retainNothing: true})

	_, err := fri.Prove(
		halvingFold{},
		config,
		[][]goldilocks.Element{sequence(8, 1)},
		challenger.NewDuplex([]byte("no-retained")),
		openNothing,
	)
	require.ErrorIs(t, err, fri.ErrNoRetainedMatrix)
}

func TestDeterministicFromTranscriptState(t *testing.T) {
	// Identical transcript seeds must yield bit-identical proofs:
	// commitments, challenges, sampled indices, and the pow witness.
	run := func() *fri.Proof {
		config := &fri.Config{
			RateBits:        1,
			ProofOfWorkBits: 4,
			NumQueries:      8,
			FinalPolyBits:   1,
			Mmcs:            merkle.Mmcs{},
		}
		proof, err := fri.Prove(
			fri.TwoAdicFold{},
			config,
			[][]goldilocks.Element{sequence(64, 7), sequence(16, 3)},
			challenger.NewDuplex([]byte("determinism")),
			openNothing,
		)
		require.NoError(t, err)
		return proof
	}

	require.Equal(t, run(), run())
}

func TestFullStackProofShape(t *testing.T) {
	// End to end with the real commitment scheme, fold rule, and
	// transcript: check the per-round opening paths shrink with the
	// halving tables.
	const logHeight = 6
	config := &fri.Config{
		RateBits:        1,
		ProofOfWorkBits: 4,
		NumQueries:      4,
		FinalPolyBits:   1,
		Mmcs:            merkle.Mmcs{},
	}

	proof, err := fri.Prove(
		fri.TwoAdicFold{},
		config,
		[][]goldilocks.Element{sequence(1<<logHeight, 11)},
		challenger.NewDuplex([]byte("full-stack")),
		openNothing,
	)
	require.NoError(t, err)

	rounds := len(proof.CommitPhaseCommits)
	require.Equal(t, logHeight-1, rounds)
	for _, qp := range proof.QueryProofs {
		require.Len(t, qp.CommitPhaseOpenings, rounds)
		for i, step := range qp.CommitPhaseOpenings {
			// Round i commits a table of height 2^(logHeight-1-i), so the
			// Merkle path has logHeight-1-i nodes.
			require.Len(t, step.OpeningProof, logHeight-1-i)
		}
	}
	require.LessOrEqual(t, uint64(len(proof.FinalPoly)), max(config.Blowup(), config.FinalPolyLen()))
}

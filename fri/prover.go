package fri

import (
	"fmt"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/sync/errgroup"

	gl "github.com/Champii/Plonky3/goldilocks"
	"github.com/Champii/Plonky3/types"
)

// Prove runs the commit phase over the input oracles, grinds the
// proof-of-work witness, answers the sampled queries, and assembles the
// proof artifact.
//
// The oracles must be sorted by decreasing length, each length a power of
// two; this is checked before the transcript is touched. The prover holds
// exclusive access to the challenger throughout: round i+1's challenge
// depends on round i's commitment, and query indices are drawn in a fixed
// transcript-determined order. There is no partial result: Prove returns a
// complete proof or an error.
func Prove(
	g FoldStrategy,
	config *Config,
	inputs [][]goldilocks.Element,
	challenger Challenger,
	openInput InputOpener,
) (*Proof, error) {
	if err := validateInputs(inputs); err != nil {
		return nil, err
	}

	logMaxHeight := gl.Log2Strict(uint64(len(inputs[0])))

	endPhase := config.beginPhase("commit phase")
	commitPhaseResult, err := commitPhase(g, config, inputs, challenger)
	endPhase()
	if err != nil {
		return nil, err
	}

	endPhase = config.beginPhase("proof of work")
	powWitness := challenger.Grind(config.ProofOfWorkBits)
	endPhase()

	endPhase = config.beginPhase("query phase")
	defer endPhase()

	// Index sampling and input openings consume transcript randomness and
	// must stay sequential; only the commit-phase openings below are
	// independent per query.
	extraBits := g.ExtraQueryIndexBits()
	indices := make([]uint64, config.NumQueries)
	inputProofs := make([]hexutil.Bytes, config.NumQueries)
	for i := range indices {
		indices[i] = challenger.SampleBits(logMaxHeight + extraBits)
	}
	for i, index := range indices {
		proof, err := openInput(index)
		if err != nil {
			return nil, fmt.Errorf("fri: input opening for query %d: %w", i, err)
		}
		inputProofs[i] = proof
	}

	// Each query only reads the immutable retained commitment state, so
	// answer them in parallel.
	openings := make([][]CommitPhaseStep, config.NumQueries)
	var group errgroup.Group
	for i := range indices {
		i := i
		group.Go(func() error {
			steps, err := answerQuery(config, commitPhaseResult.data, indices[i]>>extraBits)
			if err != nil {
				return err
			}
			openings[i] = steps
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	queryProofs := make([]QueryProof, config.NumQueries)
	for i := range queryProofs {
		queryProofs[i] = QueryProof{
			InputProof:          inputProofs[i],
			CommitPhaseOpenings: openings[i],
		}
	}

	return &Proof{
		CommitPhaseCommits: commitPhaseResult.commits,
		QueryProofs:        queryProofs,
		FinalPoly:          commitPhaseResult.finalPoly,
		PowWitness:         powWitness,
	}, nil
}

func validateInputs(inputs [][]goldilocks.Element) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	for i, oracle := range inputs {
		n := uint64(len(oracle))
		if n == 0 || n&(n-1) != 0 {
			return fmt.Errorf("%w: oracle %d has length %d", ErrInputNotPowerOfTwo, i, n)
		}
		if i > 0 && len(inputs[i-1]) < len(oracle) {
			return fmt.Errorf("%w: oracle %d is longer than oracle %d", ErrInputsUnsorted, i, i-1)
		}
	}
	return nil
}

// commitPhaseResult is retained prover-side until the last query has been
// answered; it is read-only after the commit phase.
type commitPhaseResult struct {
	commits   []types.Commitment
	data      []ProverData
	finalPoly []goldilocks.Element
}

func commitPhase(
	g FoldStrategy,
	config *Config,
	inputs [][]goldilocks.Element,
	challenger Challenger,
) (*commitPhaseResult, error) {
	folded := inputs[0]
	pending := inputs[1:]

	var commits []types.Commitment
	var data []ProverData

	// Keep folding until the final polynomial is small enough and every
	// pending oracle has been mixed in.
	for uint64(len(folded)) > max(config.Blowup(), config.FinalPolyLen()) || len(pending) > 0 {
		// Consecutive entries differing only in the low index bit form one
		// coset pair, one row of the committed table.
		leaves := types.NewMatrix(folded, 2)

		commit, proverData, err := config.Mmcs.Commit(leaves)
		if err != nil {
			return nil, fmt.Errorf("fri: commit round %d: %w", len(commits), err)
		}

		// The commitment binds the table before any dependent randomness.
		challenger.Observe(commit)
		beta := challenger.SampleElement()

		// Ownership of the folded vector moved to the commitment scheme, so
		// read the committed table back through the handle.
		matrices := config.Mmcs.Matrices(proverData)
		if len(matrices) == 0 {
			return nil, fmt.Errorf("%w: round %d", ErrNoRetainedMatrix, len(commits))
		}
		table := matrices[len(matrices)-1]
		if table.Width != 2 {
			return nil, fmt.Errorf("%w: round %d has width %d", ErrCommittedRowShape, len(commits), table.Width)
		}
		folded = g.FoldMatrix(beta, table)

		commits = append(commits, commit)
		data = append(data, proverData)

		// Mix in the next pending oracle once its length catches up with the
		// shrinking working vector.
		if len(pending) > 0 && len(pending[0]) == len(folded) {
			next := pending[0]
			for i := range folded {
				folded[i].Add(&folded[i], &next[i])
			}
			pending = pending[1:]
		}
	}

	return &commitPhaseResult{
		commits:   commits,
		data:      data,
		finalPoly: folded,
	}, nil
}

// answerQuery reconstructs the opening path for one query index through
// every round's commitment, largest round first.
func answerQuery(config *Config, data []ProverData, index uint64) ([]CommitPhaseStep, error) {
	steps := make([]CommitPhaseStep, len(data))
	for i, roundData := range data {
		indexI := index >> uint64(i)
		siblingIndex := indexI ^ 1
		rowIndex := indexI >> 1

		rows, openingProof, err := config.Mmcs.Open(rowIndex, roundData)
		if err != nil {
			return nil, fmt.Errorf("fri: open row %d of round %d: %w", rowIndex, i, err)
		}
		if len(rows) != 1 {
			return nil, fmt.Errorf("%w: got %d rows at round %d", ErrOpenedRowCount, len(rows), i)
		}
		row := rows[0]
		if len(row) != 2 {
			return nil, fmt.Errorf("%w: got %d values at round %d", ErrOpenedRowShape, len(row), i)
		}

		steps[i] = CommitPhaseStep{
			SiblingValue: row[siblingIndex%2],
			OpeningProof: openingProof,
		}
	}
	return steps, nil
}

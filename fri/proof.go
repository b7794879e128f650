package fri

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/Champii/Plonky3/types"
)

// Proof is the emitted FRI artifact: one commitment per fold round, one
// query proof per sampled query, the final polynomial in the clear, and the
// proof-of-work witness.
type Proof struct {
	CommitPhaseCommits []types.Commitment   `json:"commit_phase_commits"`
	QueryProofs        []QueryProof         `json:"query_proofs"`
	FinalPoly          []goldilocks.Element `json:"final_poly"`
	PowWitness         goldilocks.Element   `json:"pow_witness"`
}

// QueryProof answers one sampled query: the opaque opening into the
// original oracle(s) plus one opening step per commit-phase round, ordered
// from the largest round to the smallest.
type QueryProof struct {
	InputProof          hexutil.Bytes     `json:"input_proof"`
	CommitPhaseOpenings []CommitPhaseStep `json:"commit_phase_openings"`
}

// CommitPhaseStep opens one round's table at the queried position: the
// sibling of the queried value within its coset pair, and the commitment
// scheme's opening proof for the row.
type CommitPhaseStep struct {
	SiblingValue goldilocks.Element `json:"sibling_value"`
	OpeningProof types.OpeningProof `json:"opening_proof"`
}

// Export writes the JSON encoding of the proof to file.
func (p *Proof) Export(file string) error {
	proofFile, err := os.Create(file)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer proofFile.Close()

	jsonString, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	if _, err := proofFile.Write(jsonString); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Champii/Plonky3/challenger"
	"github.com/Champii/Plonky3/fri"
	"github.com/Champii/Plonky3/merkle"
	"github.com/Champii/Plonky3/types"
)

var (
	fLogHeight     uint64
	fNumOracles    uint64
	fRateBits      uint64
	fNumQueries    uint64
	fPowBits       uint64
	fFinalPolyBits uint64
	fSeed          string
	fOut           string
)

// proveCmd represents the proof command
var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "generates a FRI proof for deterministic sample oracles and writes it to a json file",
	RunE:  prove,
}

// inputOpening is the demo input-opening blob: the queried rows of the
// committed input oracles with their Merkle paths.
type inputOpening struct {
	Commitment types.Commitment     `json:"commitment"`
	Row        uint64               `json:"row"`
	Values     []goldilocks.Element `json:"values"`
	Path       types.OpeningProof   `json:"path"`
}

func prove(cmd *cobra.Command, args []string) error {
	if fNumOracles == 0 || fNumOracles > fLogHeight {
		return fmt.Errorf("num-oracles must be between 1 and log-height (%d)", fLogHeight)
	}

	mmcs := merkle.Mmcs{}
	config := &fri.Config{
		RateBits:        fRateBits,
		ProofOfWorkBits: fPowBits,
		NumQueries:      fNumQueries,
		FinalPolyBits:   fFinalPolyBits,
		Mmcs:            mmcs,
		PhaseHook:       logPhase,
	}

	// Sample oracles deterministically from the seed so runs are
	// reproducible; oracle j has half the length of oracle j-1.
	oracleRng := challenger.NewDuplex([]byte(fSeed + "/oracles"))
	inputs := make([][]goldilocks.Element, fNumOracles)
	for j := range inputs {
		n := uint64(1) << (fLogHeight - uint64(j))
		oracle := make([]goldilocks.Element, n)
		for i := range oracle {
			oracle[i] = oracleRng.SampleElement()
		}
		inputs[j] = oracle
	}

	// Commit the original oracles so query indices can be answered against
	// them; the transcript observes the commitments before proving.
	transcript := challenger.NewDuplex([]byte(fSeed))
	inputCommits := make([]types.Commitment, fNumOracles)
	inputData := make([]fri.ProverData, fNumOracles)
	for j, oracle := range inputs {
		commit, data, err := mmcs.Commit(types.NewMatrix(append([]goldilocks.Element(nil), oracle...), 2))
		if err != nil {
			return fmt.Errorf("failed to commit input oracle %d: %w", j, err)
		}
		transcript.Observe(commit)
		inputCommits[j] = commit
		inputData[j] = data
	}

	openInput := func(index uint64) ([]byte, error) {
		openings := make([]inputOpening, fNumOracles)
		for j := range openings {
			logHeightJ := fLogHeight - uint64(j)
			row := (index >> (fLogHeight - logHeightJ)) >> 1
			rows, path, err := mmcs.Open(row, inputData[j])
			if err != nil {
				return nil, err
			}
			openings[j] = inputOpening{
				Commitment: inputCommits[j],
				Row:        row,
				Values:     rows[0],
				Path:       path,
			}
		}
		return json.Marshal(openings)
	}

	start := time.Now()
	proof, err := fri.Prove(fri.TwoAdicFold{}, config, inputs, transcript, openInput)
	if err != nil {
		return fmt.Errorf("failed to create proof: %w", err)
	}
	log.Info().
		Int("rounds", len(proof.CommitPhaseCommits)).
		Int("queries", len(proof.QueryProofs)).
		Int("finalPolyLen", len(proof.FinalPoly)).
		Dur("elapsed", time.Since(start)).
		Msg("Successfully created proof")

	if err := proof.Export(fOut); err != nil {
		return fmt.Errorf("failed to export proof: %w", err)
	}
	log.Info().Str("file", fOut).Msg("Successfully saved proof")
	return nil
}

func logPhase(phase string) func() {
	start := time.Now()
	log.Debug().Str("phase", phase).Msg("phase started")
	return func() {
		log.Info().Str("phase", phase).Dur("elapsed", time.Since(start)).Msg("phase finished")
	}
}

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().Uint64Var(&fLogHeight, "log-height", 10, "log2 of the largest oracle length")
	proveCmd.Flags().Uint64Var(&fNumOracles, "num-oracles", 1, "number of oracles, each half the length of the previous")
	proveCmd.Flags().Uint64Var(&fRateBits, "rate-bits", 1, "log2 of the blowup factor")
	proveCmd.Flags().Uint64Var(&fNumQueries, "queries", 40, "number of query proofs")
	proveCmd.Flags().Uint64Var(&fPowBits, "pow-bits", 8, "proof-of-work difficulty in leading zero bits")
	proveCmd.Flags().Uint64Var(&fFinalPolyBits, "final-poly-bits", 0, "log2 of the final polynomial length threshold")
	proveCmd.Flags().StringVar(&fSeed, "seed", "plonky3-fri-demo", "transcript seed")
	proveCmd.Flags().StringVar(&fOut, "out", "fri_proof.json", "output file for the proof")
}

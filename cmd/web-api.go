package cmd

import (
	"fmt"
	"math/big"
	"net/http"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Champii/Plonky3/challenger"
	"github.com/Champii/Plonky3/fri"
	"github.com/Champii/Plonky3/merkle"
)

// webApiCmd represents the proof server command
var webApiCmd = &cobra.Command{
	Use:   "web-api",
	Short: "runs a web server for FRI proof generation, returning the proof as json",
	Run:   runApi,
}

type ProofRequest struct {
	ID              string     `json:"id"`
	Seed            string     `json:"seed"`
	Oracles         [][]string `json:"oracles"`
	RateBits        uint64     `json:"rateBits"`
	NumQueries      uint64     `json:"numQueries"`
	ProofOfWorkBits uint64     `json:"proofOfWorkBits"`
	FinalPolyBits   uint64     `json:"finalPolyBits"`
}

func healthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "ok",
		"message": "Health check passed",
	}

	c.JSON(http.StatusOK, response)
}

func generateProof(c *gin.Context) {
	var proofReq ProofRequest

	if err := c.ShouldBindJSON(&proofReq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(proofReq.Oracles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one oracle is required"})
		return
	}

	inputs := make([][]goldilocks.Element, len(proofReq.Oracles))
	for j, oracle := range proofReq.Oracles {
		parsed, err := parseElements(oracle)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("oracle %d: %v", j, err)})
			return
		}
		inputs[j] = parsed
	}

	config := &fri.Config{
		RateBits:        proofReq.RateBits,
		ProofOfWorkBits: proofReq.ProofOfWorkBits,
		NumQueries:      proofReq.NumQueries,
		FinalPolyBits:   proofReq.FinalPolyBits,
		Mmcs:            merkle.Mmcs{},
		PhaseHook:       logPhase,
	}

	transcript := challenger.NewDuplex([]byte(proofReq.Seed))
	openInput := func(index uint64) ([]byte, error) { return nil, nil }

	proof, err := fri.Prove(fri.TwoAdicFold{}, config, inputs, transcript, openInput)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("failed to generate proof: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     proofReq.ID,
		"rounds": len(proof.CommitPhaseCommits),
		"proof":  proof,
	})
}

func parseElements(values []string) ([]goldilocks.Element, error) {
	out := make([]goldilocks.Element, len(values))
	for i, s := range values {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid field element %q", s)
		}
		out[i].SetBigInt(v)
	}
	return out, nil
}

func runApi(cmd *cobra.Command, args []string) {
	router := gin.Default()
	router.GET("/health", healthCheck)
	router.POST("/proof", generateProof)
	log.Info().Msg("Serving FRI prover API on 0.0.0.0:8010")
	router.Run("0.0.0.0:8010")
}

func init() {
	rootCmd.AddCommand(webApiCmd)
}

// Package challenger implements the Fiat-Shamir transcript consumed by the
// FRI prover: a duplex construction chaining BLAKE2b-256. Observations are
// buffered and absorbed into the hash state on the next sample; sampling
// squeezes the state, re-hashing it whenever the output runs dry. Any
// observation discards buffered output so every later sample depends on it.
package challenger

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/field/goldilocks"
	"golang.org/x/crypto/blake2b"
)

type Duplex struct {
	state  [32]byte
	input  []byte
	output []byte
}

// NewDuplex returns a transcript seeded with the given domain-separation
// bytes. An empty seed yields the all-zero initial state.
func NewDuplex(seed []byte) *Duplex {
	d := &Duplex{}
	if len(seed) > 0 {
		d.Observe(seed)
	}
	return d
}

// Clone returns an independent copy of the transcript state.
func (d *Duplex) Clone() *Duplex {
	c := &Duplex{state: d.state}
	c.input = append([]byte(nil), d.input...)
	c.output = append([]byte(nil), d.output...)
	return c
}

// Observe absorbs raw bytes, typically a round commitment.
func (d *Duplex) Observe(data []byte) {
	d.output = nil
	d.input = append(d.input, data...)
}

// ObserveElement absorbs the canonical big-endian encoding of e.
func (d *Duplex) ObserveElement(e goldilocks.Element) {
	b := e.Bytes()
	d.Observe(b[:])
}

func (d *Duplex) ObserveElements(es []goldilocks.Element) {
	for i := range es {
		d.ObserveElement(es[i])
	}
}

// SampleElement draws eight bytes and reduces them into the field.
func (d *Duplex) SampleElement() goldilocks.Element {
	var e goldilocks.Element
	e.SetUint64(binary.LittleEndian.Uint64(d.sampleBytes(8)))
	return e
}

// SampleBits draws an unsigned integer of the given bit width.
func (d *Duplex) SampleBits(nBits uint64) uint64 {
	v := binary.LittleEndian.Uint64(d.sampleBytes(8))
	if nBits >= 64 {
		return v
	}
	return v & ((uint64(1) << nBits) - 1)
}

// Grind searches for a witness element whose transcript-bound response has
// difficultyBits leading zero bits. The winning evolution (observe witness,
// sample response) is committed to the transcript so that subsequent
// sampling is bound to the witness. A verifier replays the same two steps
// and checks the response is zero.
func (d *Duplex) Grind(difficultyBits uint64) goldilocks.Element {
	for i := uint64(0); ; i++ {
		var witness goldilocks.Element
		witness.SetUint64(i)

		fork := d.Clone()
		fork.ObserveElement(witness)
		if fork.SampleBits(difficultyBits) == 0 {
			*d = *fork
			return witness
		}
	}
}

func (d *Duplex) duplexing() {
	h := blake2b.Sum256(append(append([]byte(nil), d.state[:]...), d.input...))
	d.state = h
	d.input = nil
	d.output = append([]byte(nil), d.state[:]...)
}

func (d *Duplex) sampleBytes(n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		if len(d.output) == 0 || len(d.input) != 0 {
			d.duplexing()
		}
		take := min(n-len(out), len(d.output))
		out = append(out, d.output[:take]...)
		d.output = d.output[take:]
	}
	return out
}

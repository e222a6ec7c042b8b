// Package stage implements the three evolving transcript payloads —
// Stage1 (powers of tau), Stage2 (alpha/rho coefficients), Stage3 (beta/
// gamma coefficients) — each with a constructor, a transform applied by
// the contributing participant, and a verify_transform the coordinator
// runs before accepting the result. Grounded on spec.md §4.6 and
// original_source/src/protocol/mod.rs's equivalent contents types.
package stage

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/spair"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

// Stage1 holds the powers-of-tau accumulated across participants so far:
// v1[i] = g1^(tau_1*...*tau_k)^i, and likewise in G2.
type Stage1 struct {
	V1 []curve.G1
	V2 []curve.G2
}

// NewStage1 initializes a Stage1 payload to all-generator entries, one per
// power of tau from 0 to cs.D() inclusive.
func NewStage1(cs qap.ConstraintSystem) *Stage1 {
	d := cs.D()
	v1 := make([]curve.G1, d+1)
	v2 := make([]curve.G2, d+1)
	g1 := curve.G1Generator()
	g2 := curve.G2Generator()
	for i := range v1 {
		v1[i] = g1
		v2[i] = g2
	}
	return &Stage1{V1: v1, V2: v2}
}

// Transform applies the participant's tau contribution: v1[i] *= tau^i,
// v2[i] *= tau^i, for every i. Parallelized by contiguous ranges, each
// range maintaining its own running power of tau starting at tau^lo.
func (s *Stage1) Transform(priv *keys.PrivateKey, workers int) error {
	n := len(s.V1)

	return parallel.Chunks(n, workers, func(lo, hi int) error {
		acc := powFr(priv.Tau, lo)
		for i := lo; i < hi; i++ {
			s.V1[i] = curve.MulG1(&s.V1[i], &acc)
			s.V2[i] = curve.MulG2(&s.V2[i], &acc)
			acc.Mul(&acc, &priv.Tau)
		}
		return nil
	})
}

// VerifyTransform1 reports whether cur is a valid application of pubkey's
// claimed tau to prev, per spec.md §4.6's Stage1 verify_transform.
func VerifyTransform1(prev, cur *Stage1, pubkey *keys.PublicKey, workers int) (bool, error) {
	if len(prev.V1) != len(cur.V1) || len(prev.V2) != len(cur.V2) || len(cur.V1) != len(cur.V2) {
		return false, nil
	}
	if len(cur.V1) < 2 {
		return false, errors.New("stage1: vectors too short")
	}

	g1 := curve.G1Generator()
	g2 := curve.G2Generator()
	if !cur.V1[0].Equal(&g1) || !cur.V2[0].Equal(&g2) {
		return false, nil
	}
	if !prev.V1[0].Equal(&g1) || !prev.V2[0].Equal(&g2) {
		return false, nil
	}
	if curve.IsZeroG1(&cur.V1[1]) || curve.IsZeroG2(&cur.V2[1]) {
		return false, nil
	}
	if curve.IsZeroG1(&prev.V1[1]) || curve.IsZeroG2(&prev.V2[1]) {
		return false, nil
	}

	tauStep, err := spair.NewG1(prev.V1[1], cur.V1[1])
	if err != nil {
		return false, nil
	}
	ok, err := spair.SamePower(tauStep, pubkey.TauG2())
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	witnessG2, err := spair.NewG2(cur.V2[0], cur.V2[1])
	if err != nil {
		return false, nil
	}
	ok, err = spair.CheckSeqG1(cur.V1, witnessG2, workers)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	witnessG1, err := spair.NewG1(cur.V1[0], cur.V1[1])
	if err != nil {
		return false, nil
	}
	ok, err = spair.CheckSeqG2(cur.V2, witnessG1, workers)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Encode writes the stage1 payload in the ceremony's wire format.
func (s *Stage1) Encode(w *wire.Writer) {
	w.Uint64(uint64(len(s.V1)))
	for _, p := range s.V1 {
		w.G1(p)
	}
	for _, p := range s.V2 {
		w.G2(p)
	}
}

// DecodeStage1 reads a Stage1 payload from r.
func DecodeStage1(r *wire.Reader) (*Stage1, error) {
	n := r.Uint64()
	if r.Err() != nil {
		return nil, r.Err()
	}
	v1 := make([]curve.G1, n)
	for i := range v1 {
		v1[i] = r.G1()
	}
	v2 := make([]curve.G2, n)
	for i := range v2 {
		v2[i] = r.G2()
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return &Stage1{V1: v1, V2: v2}, nil
}

// Hash returns a 256-bit digest of the stage's canonical encoding, used to
// fold stage contents into the transcript's rolling interim-hash chain.
func (s *Stage1) Hash() digest.Digest256 {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	s.Encode(w)
	return digest.Sum256(buf.Bytes())
}

func powFr(base curve.Fr, exp int) curve.Fr {
	result := curve.Fr{}
	result.SetOne()
	b := base
	for exp > 0 {
		if exp&1 == 1 {
			result.Mul(&result, &b)
		}
		b.Mul(&b, &b)
		exp >>= 1
	}
	return result
}

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

// Stage2 holds the alpha/rho-weighted QAP evaluation vectors accumulated
// across participants, plus the four verification-key elements derived
// alongside them.
type Stage2 struct {
	VkA curve.G2
	VkB curve.G1
	VkC curve.G2
	VkZ curve.G2

	PkA      []curve.G1
	PkAPrime []curve.G1
	PkB      []curve.G2
	PkBTemp  []curve.G1
	PkBPrime []curve.G1
	PkC      []curve.G1
	PkCPrime []curve.G1
}

// NewStage2 evaluates the constraint system at the final Stage1 powers of
// tau and seeds the Stage2 accumulators from that evaluation.
func NewStage2(cs qap.ConstraintSystem, final *Stage1, workers int) (*Stage2, error) {
	eval, err := qap.Evaluate(final.V1, final.V2, cs, workers)
	if err != nil {
		return nil, errors.Wrap(err, "stage2: evaluating constraint system")
	}

	pkA := append([]curve.G1(nil), eval.At...)
	pkAPrime := append([]curve.G1(nil), eval.At...)
	pkB := append([]curve.G2(nil), eval.Bt2...)
	pkBTemp := append([]curve.G1(nil), eval.Bt1...)
	pkBPrime := append([]curve.G1(nil), eval.Bt1...)
	pkC := append([]curve.G1(nil), eval.Ct...)
	pkCPrime := append([]curve.G1(nil), eval.Ct...)

	if len(pkB) == 0 {
		return nil, errors.New("stage2: empty verification vector")
	}

	return &Stage2{
		VkA:      curve.G2Generator(),
		VkB:      curve.G1Generator(),
		VkC:      curve.G2Generator(),
		VkZ:      pkB[len(pkB)-1],
		PkA:      pkA,
		PkAPrime: pkAPrime,
		PkB:      pkB,
		PkBTemp:  pkBTemp,
		PkBPrime: pkBPrime,
		PkC:      pkC,
		PkCPrime: pkCPrime,
	}, nil
}

// Transform applies the participant's alpha/rho contribution to every
// verification-key element and proving-key vector.
func (s *Stage2) Transform(priv *keys.PrivateKey, workers int) error {
	s.VkA = curve.MulG2(&s.VkA, &priv.AlphaA)
	s.VkB = curve.MulG1(&s.VkB, &priv.AlphaB)
	s.VkC = curve.MulG2(&s.VkC, &priv.AlphaC)

	var rhoARhoB curve.Fr
	rhoARhoB.Mul(&priv.RhoA, &priv.RhoB)
	s.VkZ = curve.MulG2(&s.VkZ, &rhoARhoB)

	var rhoAAlphaA, rhoBAlphaB, alphaCRhoARhoB curve.Fr
	rhoAAlphaA.Mul(&priv.RhoA, &priv.AlphaA)
	rhoBAlphaB.Mul(&priv.RhoB, &priv.AlphaB)
	alphaCRhoARhoB.Mul(&priv.AlphaC, &rhoARhoB)

	if err := parallel.MulAllG1(s.PkA, priv.RhoA, workers); err != nil {
		return err
	}
	if err := parallel.MulAllG1(s.PkAPrime, rhoAAlphaA, workers); err != nil {
		return err
	}
	if err := parallel.MulAllG2(s.PkB, priv.RhoB, workers); err != nil {
		return err
	}
	if err := parallel.MulAllG1(s.PkBTemp, priv.RhoB, workers); err != nil {
		return err
	}
	if err := parallel.MulAllG1(s.PkBPrime, rhoBAlphaB, workers); err != nil {
		return err
	}
	if err := parallel.MulAllG1(s.PkC, rhoARhoB, workers); err != nil {
		return err
	}
	if err := parallel.MulAllG1(s.PkCPrime, alphaCRhoARhoB, workers); err != nil {
		return err
	}
	return nil
}

// VerifyTransform2 reports whether cur is a valid application of pubkey's
// claimed alpha/rho coefficients to prev, per spec.md §4.6's Stage2
// verify_transform: none of the eight vk elements across prev/cur are
// zero, every pk-vector retains its length, the four vk elements step by
// the matching derived s-pair, and the seven pk-vectors each check against
// the matching derived s-pair via a batched random-linear-combination
// check.
func VerifyTransform2(prev, cur *Stage2, pubkey *keys.PublicKey, workers int) (bool, error) {
	vks := []curve.G2{prev.VkA, cur.VkA, prev.VkC, cur.VkC, prev.VkZ, cur.VkZ}
	for _, p := range vks {
		if curve.IsZeroG2(&p) {
			return false, nil
		}
	}
	vksG1 := []curve.G1{prev.VkB, cur.VkB}
	for _, p := range vksG1 {
		if curve.IsZeroG1(&p) {
			return false, nil
		}
	}

	if len(prev.PkA) != len(cur.PkA) || len(prev.PkAPrime) != len(cur.PkAPrime) ||
		len(prev.PkB) != len(cur.PkB) || len(prev.PkBTemp) != len(cur.PkBTemp) ||
		len(prev.PkBPrime) != len(cur.PkBPrime) || len(prev.PkC) != len(cur.PkC) ||
		len(prev.PkCPrime) != len(cur.PkCPrime) {
		return false, nil
	}

	vkAPair, err := spair.NewG2(prev.VkA, cur.VkA)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(pubkey.AlphaAG1(), vkAPair); err != nil || !ok {
		return ok, err
	}

	vkBPair, err := spair.NewG1(prev.VkB, cur.VkB)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(vkBPair, pubkey.AlphaBG2()); err != nil || !ok {
		return ok, err
	}

	vkCPair, err := spair.NewG2(prev.VkC, cur.VkC)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(pubkey.AlphaCG1(), vkCPair); err != nil || !ok {
		return ok, err
	}

	vkZPair, err := spair.NewG2(prev.VkZ, cur.VkZ)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(pubkey.RhoARhoBG1(), vkZPair); err != nil || !ok {
		return ok, err
	}

	checks := []struct {
		run func() (bool, error)
	}{
		{func() (bool, error) { return spair.CheckVecG1(prev.PkA, cur.PkA, pubkey.RhoAG2(), workers) }},
		{func() (bool, error) {
			return spair.CheckVecG1(prev.PkAPrime, cur.PkAPrime, pubkey.AlphaARhoAG2(), workers)
		}},
		{func() (bool, error) { return spair.CheckVecG2(prev.PkB, cur.PkB, pubkey.RhoBG1(), workers) }},
		{func() (bool, error) {
			return spair.CheckVecG1(prev.PkBTemp, cur.PkBTemp, pubkey.RhoBG2(), workers)
		}},
		{func() (bool, error) {
			return spair.CheckVecG1(prev.PkBPrime, cur.PkBPrime, pubkey.AlphaBRhoBG2(), workers)
		}},
		{func() (bool, error) { return spair.CheckVecG1(prev.PkC, cur.PkC, pubkey.RhoARhoBG2(), workers) }},
		{func() (bool, error) {
			return spair.CheckVecG1(prev.PkCPrime, cur.PkCPrime, pubkey.AlphaCRhoARhoBG2(), workers)
		}},
	}
	for _, c := range checks {
		ok, err := c.run()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Encode writes the stage2 payload in the ceremony's wire format.
func (s *Stage2) Encode(w *wire.Writer) {
	w.G2(s.VkA)
	w.G1(s.VkB)
	w.G2(s.VkC)
	w.G2(s.VkZ)
	encodeG1Vec(w, s.PkA)
	encodeG1Vec(w, s.PkAPrime)
	encodeG2Vec(w, s.PkB)
	encodeG1Vec(w, s.PkBTemp)
	encodeG1Vec(w, s.PkBPrime)
	encodeG1Vec(w, s.PkC)
	encodeG1Vec(w, s.PkCPrime)
}

// DecodeStage2 reads a Stage2 payload from r.
func DecodeStage2(r *wire.Reader) (*Stage2, error) {
	s := &Stage2{
		VkA: r.G2(),
		VkB: r.G1(),
		VkC: r.G2(),
		VkZ: r.G2(),
	}
	s.PkA = decodeG1Vec(r)
	s.PkAPrime = decodeG1Vec(r)
	s.PkB = decodeG2Vec(r)
	s.PkBTemp = decodeG1Vec(r)
	s.PkBPrime = decodeG1Vec(r)
	s.PkC = decodeG1Vec(r)
	s.PkCPrime = decodeG1Vec(r)
	if r.Err() != nil {
		return nil, r.Err()
	}
	return s, nil
}

// Hash returns a 256-bit digest of the stage's canonical encoding.
func (s *Stage2) Hash() digest.Digest256 {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	s.Encode(w)
	return digest.Sum256(buf.Bytes())
}

func encodeG1Vec(w *wire.Writer, v []curve.G1) {
	w.Uint64(uint64(len(v)))
	for _, p := range v {
		w.G1(p)
	}
}

func encodeG2Vec(w *wire.Writer, v []curve.G2) {
	w.Uint64(uint64(len(v)))
	for _, p := range v {
		w.G2(p)
	}
}

func decodeG1Vec(r *wire.Reader) []curve.G1 {
	n := r.Uint64()
	if r.Err() != nil {
		return nil
	}
	v := make([]curve.G1, n)
	for i := range v {
		v[i] = r.G1()
	}
	return v
}

func decodeG2Vec(r *wire.Reader) []curve.G2 {
	n := r.Uint64()
	if r.Err() != nil {
		return nil
	}
	v := make([]curve.G2, n)
	for i := range v {
		v[i] = r.G2()
	}
	return v
}

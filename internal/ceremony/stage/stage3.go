package stage

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/spair"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

// Stage3 holds the beta/gamma verification elements and the pk_K vector
// derived from the final Stage2 proving-key vectors.
type Stage3 struct {
	VkGamma      curve.G2
	VkBetaGamma1 curve.G1
	VkBetaGamma2 curve.G2
	PkK          []curve.G1
}

// NewStage3 seeds the Stage3 accumulators from final, the last Stage2 value
// the coordinator accepted. The last row of pk_A, pk_B_temp and pk_C is the
// Z-extension row; pk_K[i] = pk_A[i] + pk_B_temp[i] + pk_C[i] for the n rows
// before it, and the three Z-extension rows are carried through unchanged
// as pk_K[n], pk_K[n+1] and pk_K[n+2].
func NewStage3(final *Stage2) (*Stage3, error) {
	m := len(final.PkA)
	if m == 0 || m != len(final.PkBTemp) || m != len(final.PkC) {
		return nil, errors.New("stage3: mismatched proving-key vector lengths")
	}
	n := m - 1

	pkK := make([]curve.G1, n+3)
	for i := 0; i < n; i++ {
		pkK[i].Add(&final.PkA[i], &final.PkBTemp[i])
		pkK[i].Add(&pkK[i], &final.PkC[i])
	}
	pkK[n] = final.PkA[n]
	pkK[n+1] = final.PkBTemp[n]
	pkK[n+2] = final.PkC[n]

	return &Stage3{
		VkGamma:      curve.G2Generator(),
		VkBetaGamma1: curve.G1Generator(),
		VkBetaGamma2: curve.G2Generator(),
		PkK:          pkK,
	}, nil
}

// Transform applies the participant's gamma/beta contribution: vk_gamma *=
// gamma, vk_beta_gamma_1 *= beta*gamma, vk_beta_gamma_2 *= beta*gamma, pk_K
// *= beta, elementwise. vk_beta_gamma_1 and vk_beta_gamma_2 carry the same
// beta*gamma factor, one in each group, so their lockstep can be checked
// with a cross-group same-power proof without exposing beta or gamma
// individually.
func (s *Stage3) Transform(priv *keys.PrivateKey, workers int) error {
	s.VkGamma = curve.MulG2(&s.VkGamma, &priv.Gamma)

	var betaGamma curve.Fr
	betaGamma.Mul(&priv.Beta, &priv.Gamma)
	s.VkBetaGamma1 = curve.MulG1(&s.VkBetaGamma1, &betaGamma)
	s.VkBetaGamma2 = curve.MulG2(&s.VkBetaGamma2, &betaGamma)

	return parallel.MulAllG1(s.PkK, priv.Beta, workers)
}

// VerifyTransform3 reports whether cur is a valid application of pubkey's
// claimed beta/gamma to prev: none of the three verification elements in
// prev or cur are zero, pk_K retains its length, vk_gamma steps by the
// direct gamma witness, vk_beta_gamma_1 steps by the derived beta*gamma
// witness, vk_beta_gamma_2 is locked to the same step as vk_beta_gamma_1
// via a cross-group same-power check, and pk_K checks against the derived
// beta witness.
func VerifyTransform3(prev, cur *Stage3, pubkey *keys.PublicKey, workers int) (bool, error) {
	vksG2 := []curve.G2{prev.VkGamma, cur.VkGamma, prev.VkBetaGamma2, cur.VkBetaGamma2}
	for _, p := range vksG2 {
		if curve.IsZeroG2(&p) {
			return false, nil
		}
	}
	vksG1 := []curve.G1{prev.VkBetaGamma1, cur.VkBetaGamma1}
	for _, p := range vksG1 {
		if curve.IsZeroG1(&p) {
			return false, nil
		}
	}
	if len(prev.PkK) != len(cur.PkK) {
		return false, nil
	}

	gammaPair, err := spair.NewG2(prev.VkGamma, cur.VkGamma)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(pubkey.GammaG1(), gammaPair); err != nil || !ok {
		return ok, err
	}

	bg1Pair, err := spair.NewG1(prev.VkBetaGamma1, cur.VkBetaGamma1)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(bg1Pair, pubkey.BetaGammaG2()); err != nil || !ok {
		return ok, err
	}

	bg2Pair, err := spair.NewG2(prev.VkBetaGamma2, cur.VkBetaGamma2)
	if err != nil {
		return false, nil
	}
	if ok, err := spair.SamePower(bg1Pair, bg2Pair); err != nil || !ok {
		return ok, err
	}

	return spair.CheckVecG1(prev.PkK, cur.PkK, pubkey.BetaG2(), workers)
}

// Encode writes the stage3 payload in the ceremony's wire format.
func (s *Stage3) Encode(w *wire.Writer) {
	w.G2(s.VkGamma)
	w.G1(s.VkBetaGamma1)
	w.G2(s.VkBetaGamma2)
	encodeG1Vec(w, s.PkK)
}

// DecodeStage3 reads a Stage3 payload from r.
func DecodeStage3(r *wire.Reader) (*Stage3, error) {
	s := &Stage3{
		VkGamma:      r.G2(),
		VkBetaGamma1: r.G1(),
		VkBetaGamma2: r.G2(),
	}
	s.PkK = decodeG1Vec(r)
	if r.Err() != nil {
		return nil, r.Err()
	}
	return s, nil
}

// Hash returns a 256-bit digest of the stage's canonical encoding.
func (s *Stage3) Hash() digest.Digest256 {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	s.Encode(w)
	return digest.Sum256(buf.Bytes())
}

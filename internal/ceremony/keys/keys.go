// Package keys implements the ceremony's toxic-waste PrivateKey and the
// structured PublicKey every participant derives from it and proves
// well-formed. Field layout, accessor set, and validity checks are
// grounded exactly on original_source/src/protocol/secrets.rs's
// PublicKeyInner/PrivateKey.
package keys

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/nizk"
	"github.com/hamzazf/ceremony/internal/ceremony/spair"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

// PrivateKey holds the eight toxic-waste scalars a participant samples for
// one ceremony round.
type PrivateKey struct {
	Tau    curve.Fr
	RhoA   curve.Fr
	RhoB   curve.Fr
	AlphaA curve.Fr
	AlphaB curve.Fr
	AlphaC curve.Fr
	Beta   curve.Fr
	Gamma  curve.Fr
}

// NewPrivateKey samples a fresh, uniformly random private key.
func NewPrivateKey() (*PrivateKey, error) {
	scalars := make([]curve.Fr, 8)
	for i := range scalars {
		f, err := curve.RandomNonzeroFr()
		if err != nil {
			return nil, errors.Wrap(err, "keys: sampling private key")
		}
		scalars[i] = f
	}
	return &PrivateKey{
		Tau:    scalars[0],
		RhoA:   scalars[1],
		RhoB:   scalars[2],
		AlphaA: scalars[3],
		AlphaB: scalars[4],
		AlphaC: scalars[5],
		Beta:   scalars[6],
		Gamma:  scalars[7],
	}, nil
}

// Zeroize overwrites every scalar limb in place. Callers should call this
// as soon as a private key's transform has been applied and committed; Go
// offers no destructor hook, so the caller is responsible for the timing,
// mirroring the explicit lifecycle methods the teacher gives secret-bearing
// wallet structs.
func (k *PrivateKey) Zeroize() {
	zero := curve.Fr{}
	k.Tau = zero
	k.RhoA = zero
	k.RhoB = zero
	k.AlphaA = zero
	k.AlphaB = zero
	k.AlphaC = zero
	k.Beta = zero
	k.Gamma = zero
}

// Encode serializes every toxic-waste scalar in field order. Only the
// air-gapped compute role persists a private key to disc between runs; the
// networked participant never writes one to disk.
func (k *PrivateKey) Encode(w *wire.Writer) {
	w.Fr(k.Tau)
	w.Fr(k.RhoA)
	w.Fr(k.RhoB)
	w.Fr(k.AlphaA)
	w.Fr(k.AlphaB)
	w.Fr(k.AlphaC)
	w.Fr(k.Beta)
	w.Fr(k.Gamma)
}

// DecodePrivateKey reads back a private key written by Encode.
func DecodePrivateKey(r *wire.Reader) (*PrivateKey, error) {
	k := &PrivateKey{
		Tau:    r.Fr(),
		RhoA:   r.Fr(),
		RhoB:   r.Fr(),
		AlphaA: r.Fr(),
		AlphaB: r.Fr(),
		AlphaC: r.Fr(),
		Beta:   r.Fr(),
		Gamma:  r.Fr(),
	}
	if r.Err() != nil {
		return nil, errors.Wrap(r.Err(), "keys: decoding private key")
	}
	return k, nil
}

// PublicKey is the fixed layout of nine G2 elements plus six s-pairs (one
// in G2, five in G1) that exposes every multiplicative relationship a
// participant must prove, per secrets.rs's PublicKeyInner.
type PublicKey struct {
	f1               curve.G2
	f1RhoA           curve.G2
	f1RhoAAlphaA     curve.G2
	f1RhoARhoB       curve.G2
	f1RhoARhoBAlphaC curve.G2
	f1RhoARhoBAlphaB curve.G2
	f2               curve.G2
	f2Beta           curve.G2
	f2BetaGamma      curve.G2
	f3Tau            spair.G2
	f4AlphaA         spair.G1
	f5AlphaC         spair.G1
	f6RhoB           spair.G1
	f7RhoARhoB       spair.G1
	f8Gamma          spair.G1
}

// NewPublicKey derives the public key for priv, asserting its own
// well-formedness invariants before returning it (mirrors pubkey()'s
// trailing assert!(tmp.is_valid()) in secrets.rs).
func NewPublicKey(priv *PrivateKey) (*PublicKey, error) {
	f1, err := curve.RandomNonzeroFr()
	if err != nil {
		return nil, err
	}
	f1Point := curve.BaseMulG2(&f1)

	f1RhoA := curve.MulG2(&f1Point, &priv.RhoA)
	f1RhoAAlphaA := curve.MulG2(&f1RhoA, &priv.AlphaA)
	f1RhoARhoB := curve.MulG2(&f1RhoA, &priv.RhoB)
	f1RhoARhoBAlphaC := curve.MulG2(&f1RhoARhoB, &priv.AlphaC)
	f1RhoARhoBAlphaB := curve.MulG2(&f1RhoARhoB, &priv.AlphaB)

	f2, err := curve.RandomNonzeroFr()
	if err != nil {
		return nil, err
	}
	f2Point := curve.BaseMulG2(&f2)
	f2Beta := curve.MulG2(&f2Point, &priv.Beta)
	f2BetaGamma := curve.MulG2(&f2Beta, &priv.Gamma)

	f3Tau, err := spair.RandomG2(priv.Tau)
	if err != nil {
		return nil, err
	}
	f4AlphaA, err := spair.RandomG1(priv.AlphaA)
	if err != nil {
		return nil, err
	}
	f5AlphaC, err := spair.RandomG1(priv.AlphaC)
	if err != nil {
		return nil, err
	}
	f6RhoB, err := spair.RandomG1(priv.RhoB)
	if err != nil {
		return nil, err
	}
	var rhoARhoB curve.Fr
	rhoARhoB.Mul(&priv.RhoA, &priv.RhoB)
	f7RhoARhoB, err := spair.RandomG1(rhoARhoB)
	if err != nil {
		return nil, err
	}
	f8Gamma, err := spair.RandomG1(priv.Gamma)
	if err != nil {
		return nil, err
	}

	pk := &PublicKey{
		f1:               f1Point,
		f1RhoA:           f1RhoA,
		f1RhoAAlphaA:     f1RhoAAlphaA,
		f1RhoARhoB:       f1RhoARhoB,
		f1RhoARhoBAlphaC: f1RhoARhoBAlphaC,
		f1RhoARhoBAlphaB: f1RhoARhoBAlphaB,
		f2:               f2Point,
		f2Beta:           f2Beta,
		f2BetaGamma:      f2BetaGamma,
		f3Tau:            f3Tau,
		f4AlphaA:         f4AlphaA,
		f5AlphaC:         f5AlphaC,
		f6RhoB:           f6RhoB,
		f7RhoARhoB:       f7RhoARhoB,
		f8Gamma:          f8Gamma,
	}

	ok, err := pk.IsValid()
	if err != nil {
		return nil, errors.Wrap(err, "keys: derived public key failed validation")
	}
	if !ok {
		return nil, errors.New("keys: derived public key is not well-formed")
	}
	return pk, nil
}

// IsValid checks the nine nonzero-element invariants and the five
// same-power relationships that make the public key internally
// consistent, per PublicKey::is_valid in secrets.rs.
func (pk *PublicKey) IsValid() (bool, error) {
	nonzero := []curve.G2{
		pk.f1, pk.f1RhoA, pk.f1RhoAAlphaA, pk.f1RhoARhoB,
		pk.f1RhoARhoBAlphaC, pk.f1RhoARhoBAlphaB,
		pk.f2, pk.f2Beta, pk.f2BetaGamma,
	}
	for _, p := range nonzero {
		if curve.IsZeroG2(&p) {
			return false, nil
		}
	}

	checks := []struct {
		a spair.G1
		b spair.G2
	}{
		{pk.f4AlphaA, mustG2(pk.f1RhoA, pk.f1RhoAAlphaA)},
		{pk.f5AlphaC, mustG2(pk.f1RhoARhoB, pk.f1RhoARhoBAlphaC)},
		{pk.f6RhoB, mustG2(pk.f1RhoA, pk.f1RhoARhoB)},
		{pk.f7RhoARhoB, mustG2(pk.f1, pk.f1RhoARhoB)},
		{pk.f8Gamma, mustG2(pk.f2Beta, pk.f2BetaGamma)},
	}
	for _, c := range checks {
		ok, err := spair.SamePower(c.a, c.b)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// mustG2 builds a G2 s-pair from two already-validated-nonzero points; it
// is used internally where the caller has already checked nonzero-ness via
// IsValid's first pass, matching secrets.rs's liberal internal .unwrap()s
// on Spair::new for accessor methods.
func mustG2(f, fs curve.G2) spair.G2 {
	p, err := spair.NewG2(f, fs)
	if err != nil {
		return spair.G2{F: f, Fs: fs}
	}
	return p
}

// TauG2 is the (f, f*tau) s-pair.
func (pk *PublicKey) TauG2() spair.G2 { return pk.f3Tau }

// AlphaAG1 is the (f, f*alpha_A) s-pair.
func (pk *PublicKey) AlphaAG1() spair.G1 { return pk.f4AlphaA }

// AlphaCG1 is the (f, f*alpha_C) s-pair.
func (pk *PublicKey) AlphaCG1() spair.G1 { return pk.f5AlphaC }

// RhoBG1 is the (f, f*rho_B) s-pair.
func (pk *PublicKey) RhoBG1() spair.G1 { return pk.f6RhoB }

// RhoARhoBG1 is the (f, f*rho_A*rho_B) s-pair.
func (pk *PublicKey) RhoARhoBG1() spair.G1 { return pk.f7RhoARhoB }

// GammaG1 is the (f, f*gamma) s-pair.
func (pk *PublicKey) GammaG1() spair.G1 { return pk.f8Gamma }

// AlphaBG2 is derived as (f1_rho_a_rho_b, f1_rho_a_rho_b_alpha_b).
func (pk *PublicKey) AlphaBG2() spair.G2 {
	return mustG2(pk.f1RhoARhoB, pk.f1RhoARhoBAlphaB)
}

// RhoAG2 is derived as (f1, f1_rho_a).
func (pk *PublicKey) RhoAG2() spair.G2 {
	return mustG2(pk.f1, pk.f1RhoA)
}

// RhoBG2 is derived as (f1_rho_a, f1_rho_a_rho_b).
func (pk *PublicKey) RhoBG2() spair.G2 {
	return mustG2(pk.f1RhoA, pk.f1RhoARhoB)
}

// AlphaARhoAG2 is derived as (f1, f1_rho_a_alpha_a).
func (pk *PublicKey) AlphaARhoAG2() spair.G2 {
	return mustG2(pk.f1, pk.f1RhoAAlphaA)
}

// AlphaBRhoBG2 is derived as (f1_rho_a, f1_rho_a_rho_b_alpha_b).
func (pk *PublicKey) AlphaBRhoBG2() spair.G2 {
	return mustG2(pk.f1RhoA, pk.f1RhoARhoBAlphaB)
}

// RhoARhoBG2 is derived as (f1, f1_rho_a_rho_b).
func (pk *PublicKey) RhoARhoBG2() spair.G2 {
	return mustG2(pk.f1, pk.f1RhoARhoB)
}

// AlphaCRhoARhoBG2 is derived as (f1, f1_rho_a_rho_b_alpha_c).
func (pk *PublicKey) AlphaCRhoARhoBG2() spair.G2 {
	return mustG2(pk.f1, pk.f1RhoARhoBAlphaC)
}

// BetaG2 is derived as (f2, f2_beta).
func (pk *PublicKey) BetaG2() spair.G2 {
	return mustG2(pk.f2, pk.f2Beta)
}

// BetaGammaG2 is derived as (f2, f2_beta_gamma).
func (pk *PublicKey) BetaGammaG2() spair.G2 {
	return mustG2(pk.f2, pk.f2BetaGamma)
}

// encode writes the canonical byte layout used both for hashing (Hash) and
// for wire transmission, matching PublicKeyInner's field order exactly.
func (pk *PublicKey) encode(w *wire.Writer) {
	w.G2(pk.f1)
	w.G2(pk.f1RhoA)
	w.G2(pk.f1RhoAAlphaA)
	w.G2(pk.f1RhoARhoB)
	w.G2(pk.f1RhoARhoBAlphaC)
	w.G2(pk.f1RhoARhoBAlphaB)
	w.G2(pk.f2)
	w.G2(pk.f2Beta)
	w.G2(pk.f2BetaGamma)
	w.G2(pk.f3Tau.F)
	w.G2(pk.f3Tau.Fs)
	w.G1(pk.f4AlphaA.F)
	w.G1(pk.f4AlphaA.Fs)
	w.G1(pk.f5AlphaC.F)
	w.G1(pk.f5AlphaC.Fs)
	w.G1(pk.f6RhoB.F)
	w.G1(pk.f6RhoB.Fs)
	w.G1(pk.f7RhoARhoB.F)
	w.G1(pk.f7RhoARhoB.Fs)
	w.G1(pk.f8Gamma.F)
	w.G1(pk.f8Gamma.Fs)
}

// Encode writes the public key to w in the ceremony's deterministic wire
// format.
func (pk *PublicKey) Encode(w *wire.Writer) { pk.encode(w) }

// Decode reads a public key from r and validates its well-formedness
// invariants before returning it, so malformed or inconsistent bundles are
// rejected at decode time (mirrors Decodable for PublicKey in secrets.rs).
func DecodePublicKey(r *wire.Reader) (*PublicKey, error) {
	pk := &PublicKey{
		f1:               r.G2(),
		f1RhoA:           r.G2(),
		f1RhoAAlphaA:     r.G2(),
		f1RhoARhoB:       r.G2(),
		f1RhoARhoBAlphaC: r.G2(),
		f1RhoARhoBAlphaB: r.G2(),
		f2:               r.G2(),
		f2Beta:           r.G2(),
		f2BetaGamma:      r.G2(),
	}
	tauF := r.G2()
	tauFs := r.G2()
	alphaAF := r.G1()
	alphaAFs := r.G1()
	alphaCF := r.G1()
	alphaCFs := r.G1()
	rhoBF := r.G1()
	rhoBFs := r.G1()
	rhoARhoBF := r.G1()
	rhoARhoBFs := r.G1()
	gammaF := r.G1()
	gammaFs := r.G1()
	if r.Err() != nil {
		return nil, r.Err()
	}

	var err error
	if pk.f3Tau, err = spair.NewG2(tauF, tauFs); err != nil {
		return nil, errors.Wrap(err, "keys: decode f3_tau")
	}
	if pk.f4AlphaA, err = spair.NewG1(alphaAF, alphaAFs); err != nil {
		return nil, errors.Wrap(err, "keys: decode f4_alpha_a")
	}
	if pk.f5AlphaC, err = spair.NewG1(alphaCF, alphaCFs); err != nil {
		return nil, errors.Wrap(err, "keys: decode f5_alpha_c")
	}
	if pk.f6RhoB, err = spair.NewG1(rhoBF, rhoBFs); err != nil {
		return nil, errors.Wrap(err, "keys: decode f6_rho_b")
	}
	if pk.f7RhoARhoB, err = spair.NewG1(rhoARhoBF, rhoARhoBFs); err != nil {
		return nil, errors.Wrap(err, "keys: decode f7_rho_a_rho_b")
	}
	if pk.f8Gamma, err = spair.NewG1(gammaF, gammaFs); err != nil {
		return nil, errors.Wrap(err, "keys: decode f8_gamma")
	}

	ok, err := pk.IsValid()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("keys: decoded public key is not well-formed")
	}
	return pk, nil
}

// Hash returns the 256-bit commitment to this public key's canonical
// encoding.
func (pk *PublicKey) Hash() digest.Digest256 {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	pk.encode(w)
	return digest.Sum256(buf.Bytes())
}

// PublicKeyNizks bundles the eight proofs of knowledge, one per secret, in
// the fixed order tau, alpha_A, alpha_B, alpha_C, rho_A, rho_B, beta,
// gamma, per secrets.rs's PublicKeyNizks.
type PublicKeyNizks struct {
	Tau    nizk.G2
	AlphaA nizk.G1
	AlphaB nizk.G2
	AlphaC nizk.G1
	RhoA   nizk.G2
	RhoB   nizk.G1
	Beta   nizk.G2
	Gamma  nizk.G1
}

// NewPublicKeyNizks proves knowledge of every secret in priv against the
// corresponding s-pair exposed by pk, domain-separated by ctx (the hash of
// all participants' initial commitments, H_commit).
func NewPublicKeyNizks(pk *PublicKey, priv *PrivateKey, ctx digest.Digest512) (*PublicKeyNizks, error) {
	tau := pk.TauG2()
	tauProof, err := nizk.NewG2(tau.F, tau.Fs, priv.Tau, ctx)
	if err != nil {
		return nil, err
	}
	alphaA := pk.AlphaAG1()
	alphaAProof, err := nizk.NewG1(alphaA.F, alphaA.Fs, priv.AlphaA, ctx)
	if err != nil {
		return nil, err
	}
	alphaB := pk.AlphaBG2()
	alphaBProof, err := nizk.NewG2(alphaB.F, alphaB.Fs, priv.AlphaB, ctx)
	if err != nil {
		return nil, err
	}
	alphaC := pk.AlphaCG1()
	alphaCProof, err := nizk.NewG1(alphaC.F, alphaC.Fs, priv.AlphaC, ctx)
	if err != nil {
		return nil, err
	}
	rhoA := pk.RhoAG2()
	rhoAProof, err := nizk.NewG2(rhoA.F, rhoA.Fs, priv.RhoA, ctx)
	if err != nil {
		return nil, err
	}
	rhoB := pk.RhoBG1()
	rhoBProof, err := nizk.NewG1(rhoB.F, rhoB.Fs, priv.RhoB, ctx)
	if err != nil {
		return nil, err
	}
	beta := pk.BetaG2()
	betaProof, err := nizk.NewG2(beta.F, beta.Fs, priv.Beta, ctx)
	if err != nil {
		return nil, err
	}
	gamma := pk.GammaG1()
	gammaProof, err := nizk.NewG1(gamma.F, gamma.Fs, priv.Gamma, ctx)
	if err != nil {
		return nil, err
	}

	return &PublicKeyNizks{
		Tau: tauProof, AlphaA: alphaAProof, AlphaB: alphaBProof, AlphaC: alphaCProof,
		RhoA: rhoAProof, RhoB: rhoBProof, Beta: betaProof, Gamma: gammaProof,
	}, nil
}

// IsValid checks all eight NIZKs against pk's exposed s-pairs, domain
// separated by ctx (H_commit).
func (n *PublicKeyNizks) IsValid(pk *PublicKey, ctx digest.Digest512) bool {
	tau := pk.TauG2()
	if !n.Tau.Verify(tau.F, tau.Fs, ctx) {
		return false
	}
	alphaA := pk.AlphaAG1()
	if !n.AlphaA.Verify(alphaA.F, alphaA.Fs, ctx) {
		return false
	}
	alphaB := pk.AlphaBG2()
	if !n.AlphaB.Verify(alphaB.F, alphaB.Fs, ctx) {
		return false
	}
	alphaC := pk.AlphaCG1()
	if !n.AlphaC.Verify(alphaC.F, alphaC.Fs, ctx) {
		return false
	}
	rhoA := pk.RhoAG2()
	if !n.RhoA.Verify(rhoA.F, rhoA.Fs, ctx) {
		return false
	}
	rhoB := pk.RhoBG1()
	if !n.RhoB.Verify(rhoB.F, rhoB.Fs, ctx) {
		return false
	}
	beta := pk.BetaG2()
	if !n.Beta.Verify(beta.F, beta.Fs, ctx) {
		return false
	}
	gamma := pk.GammaG1()
	if !n.Gamma.Verify(gamma.F, gamma.Fs, ctx) {
		return false
	}
	return true
}

// Encode writes the eight NIZKs in the fixed order tau, alpha_A, alpha_B,
// alpha_C, rho_A, rho_B, beta, gamma.
func (n *PublicKeyNizks) Encode(w *wire.Writer) {
	writeNizkG2(w, n.Tau)
	writeNizkG1(w, n.AlphaA)
	writeNizkG2(w, n.AlphaB)
	writeNizkG1(w, n.AlphaC)
	writeNizkG2(w, n.RhoA)
	writeNizkG1(w, n.RhoB)
	writeNizkG2(w, n.Beta)
	writeNizkG1(w, n.Gamma)
}

// DecodePublicKeyNizks reads the eight NIZKs written by Encode.
func DecodePublicKeyNizks(r *wire.Reader) *PublicKeyNizks {
	return &PublicKeyNizks{
		Tau:    readNizkG2(r),
		AlphaA: readNizkG1(r),
		AlphaB: readNizkG2(r),
		AlphaC: readNizkG1(r),
		RhoA:   readNizkG2(r),
		RhoB:   readNizkG1(r),
		Beta:   readNizkG2(r),
		Gamma:  readNizkG1(r),
	}
}

func writeNizkG1(w *wire.Writer, p nizk.G1) {
	w.G1(p.R)
	w.Fr(p.U)
}

func writeNizkG2(w *wire.Writer, p nizk.G2) {
	w.G2(p.R)
	w.Fr(p.U)
}

func readNizkG1(r *wire.Reader) nizk.G1 {
	return nizk.G1{R: r.G1(), U: r.Fr()}
}

func readNizkG2(r *wire.Reader) nizk.G2 {
	return nizk.G2{R: r.G2(), U: r.Fr()}
}

// PublicKeyBundle is a participant's pubkey together with its NIZKs, the
// unit the coordinator validates and records in the transcript.
type PublicKeyBundle struct {
	PublicKey *PublicKey
	Nizks     *PublicKeyNizks
}

// IsValid reports whether the bundle's NIZKs verify against ctx. Pubkey
// well-formedness was already established at decode time by
// DecodePublicKey.
func (b *PublicKeyBundle) IsValid(ctx digest.Digest512) bool {
	return b.Nizks.IsValid(b.PublicKey, ctx)
}

// Encode writes the public key followed by its NIZKs.
func (b *PublicKeyBundle) Encode(w *wire.Writer) {
	b.PublicKey.Encode(w)
	b.Nizks.Encode(w)
}

// DecodePublicKeyBundle reads a public key and its NIZKs as written by
// PublicKeyBundle.Encode.
func DecodePublicKeyBundle(r *wire.Reader) (*PublicKeyBundle, error) {
	pk, err := DecodePublicKey(r)
	if err != nil {
		return nil, err
	}
	nizks := DecodePublicKeyNizks(r)
	if r.Err() != nil {
		return nil, r.Err()
	}
	return &PublicKeyBundle{PublicKey: pk, Nizks: nizks}, nil
}

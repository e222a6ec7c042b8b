package stage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
)

func dummyCS(t *testing.T) qap.ConstraintSystem {
	t.Helper()
	const d = 8
	omega := qap.RootOfUnity(d)
	cs, err := qap.NewDummyConstraintSystem(d, 5, 2, omega)
	require.NoError(t, err)
	return cs
}

func TestStage1TransformVerify(t *testing.T) {
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	prev := NewStage1(cs)

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub, err := keys.NewPublicKey(priv)
	require.NoError(t, err)

	cur := &Stage1{V1: append([]curve.G1(nil), prev.V1...), V2: append([]curve.G2(nil), prev.V2...)}
	require.NoError(t, cur.Transform(priv, workers))

	ok, err := VerifyTransform1(prev, cur, pub, workers)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStage1RejectsWrongContribution(t *testing.T) {
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	prev := NewStage1(cs)

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub, err := keys.NewPublicKey(priv)
	require.NoError(t, err)

	other, err := keys.NewPrivateKey()
	require.NoError(t, err)

	cur := &Stage1{V1: append([]curve.G1(nil), prev.V1...), V2: append([]curve.G2(nil), prev.V2...)}
	require.NoError(t, cur.Transform(other, workers))

	ok, err := VerifyTransform1(prev, cur, pub, workers)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStage2TransformVerify(t *testing.T) {
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	stage1 := NewStage1(cs)
	priv1, err := keys.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, stage1.Transform(priv1, workers))

	prev, err := NewStage2(cs, stage1, workers)
	require.NoError(t, err)

	priv2, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub2, err := keys.NewPublicKey(priv2)
	require.NoError(t, err)

	cur := cloneStage2(prev)
	require.NoError(t, cur.Transform(priv2, workers))

	ok, err := VerifyTransform2(prev, cur, pub2, workers)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStage3TransformVerify(t *testing.T) {
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	stage1 := NewStage1(cs)
	priv1, err := keys.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, stage1.Transform(priv1, workers))

	stage2, err := NewStage2(cs, stage1, workers)
	require.NoError(t, err)
	priv2, err := keys.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, stage2.Transform(priv2, workers))

	prev, err := NewStage3(stage2)
	require.NoError(t, err)

	priv3, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub3, err := keys.NewPublicKey(priv3)
	require.NoError(t, err)

	cur := cloneStage3(prev)
	require.NoError(t, cur.Transform(priv3, workers))

	ok, err := VerifyTransform3(prev, cur, pub3, workers)
	require.NoError(t, err)
	require.True(t, ok)
}

func cloneStage2(s *Stage2) *Stage2 {
	return &Stage2{
		VkA:      s.VkA,
		VkB:      s.VkB,
		VkC:      s.VkC,
		VkZ:      s.VkZ,
		PkA:      append([]curve.G1(nil), s.PkA...),
		PkAPrime: append([]curve.G1(nil), s.PkAPrime...),
		PkB:      append([]curve.G2(nil), s.PkB...),
		PkBTemp:  append([]curve.G1(nil), s.PkBTemp...),
		PkBPrime: append([]curve.G1(nil), s.PkBPrime...),
		PkC:      append([]curve.G1(nil), s.PkC...),
		PkCPrime: append([]curve.G1(nil), s.PkCPrime...),
	}
}

func cloneStage3(s *Stage3) *Stage3 {
	return &Stage3{
		VkGamma:      s.VkGamma,
		VkBetaGamma1: s.VkBetaGamma1,
		VkBetaGamma2: s.VkBetaGamma2,
		PkK:          append([]curve.G1(nil), s.PkK...),
	}
}

// TestKeypairMatchesIndependentProductDerivation checks the headline
// soundness invariant directly: running several participants through
// Stage1/2/3 in sequence must produce the same verification-key elements
// as seeding fresh stages and transforming them once with a single
// "virtual" private key whose every scalar is the product of the real
// participants' corresponding scalars. The two paths share no code beyond
// Transform itself, so a transform that folds in the wrong factor (e.g.
// gamma instead of beta*gamma) shows up here even though every individual
// VerifyTransform call along the sequential path still passes.
func TestKeypairMatchesIndependentProductDerivation(t *testing.T) {
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	privs := make([]*keys.PrivateKey, 3)
	for i := range privs {
		p, err := keys.NewPrivateKey()
		require.NoError(t, err)
		privs[i] = p
	}

	// Sequential path: each participant transforms the shared accumulator
	// in turn, exactly as the coordinator drives the real ceremony.
	seqStage1 := NewStage1(cs)
	for _, p := range privs {
		require.NoError(t, seqStage1.Transform(p, workers))
	}
	seqStage2, err := NewStage2(cs, seqStage1, workers)
	require.NoError(t, err)
	for _, p := range privs {
		require.NoError(t, seqStage2.Transform(p, workers))
	}
	seqStage3, err := NewStage3(seqStage2)
	require.NoError(t, err)
	for _, p := range privs {
		require.NoError(t, seqStage3.Transform(p, workers))
	}

	// Independent path: a single virtual participant whose every scalar is
	// the product of the three real participants' same-named scalar.
	combined := &keys.PrivateKey{
		Tau:    productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.Tau }),
		RhoA:   productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.RhoA }),
		RhoB:   productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.RhoB }),
		AlphaA: productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.AlphaA }),
		AlphaB: productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.AlphaB }),
		AlphaC: productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.AlphaC }),
		Beta:   productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.Beta }),
		Gamma:  productFr(privs, func(p *keys.PrivateKey) curve.Fr { return p.Gamma }),
	}

	indepStage1 := NewStage1(cs)
	require.NoError(t, indepStage1.Transform(combined, workers))
	indepStage2, err := NewStage2(cs, indepStage1, workers)
	require.NoError(t, err)
	require.NoError(t, indepStage2.Transform(combined, workers))
	indepStage3, err := NewStage3(indepStage2)
	require.NoError(t, err)
	require.NoError(t, indepStage3.Transform(combined, workers))

	seqKP := Assemble(seqStage2, seqStage3)
	indepKP := Assemble(indepStage2, indepStage3)

	require.True(t, seqKP.VerificationKey.VkA.Equal(&indepKP.VerificationKey.VkA))
	require.True(t, seqKP.VerificationKey.VkB.Equal(&indepKP.VerificationKey.VkB))
	require.True(t, seqKP.VerificationKey.VkC.Equal(&indepKP.VerificationKey.VkC))
	require.True(t, seqKP.VerificationKey.VkZ.Equal(&indepKP.VerificationKey.VkZ))
	require.True(t, seqKP.VerificationKey.VkGamma.Equal(&indepKP.VerificationKey.VkGamma))
	require.True(t, seqKP.VerificationKey.VkBetaGamma1.Equal(&indepKP.VerificationKey.VkBetaGamma1))
	require.True(t, seqKP.VerificationKey.VkBetaGamma2.Equal(&indepKP.VerificationKey.VkBetaGamma2))

	require.Equal(t, len(seqKP.ProvingKey.PkK), len(indepKP.ProvingKey.PkK))
	for i := range seqKP.ProvingKey.PkK {
		require.True(t, seqKP.ProvingKey.PkK[i].Equal(&indepKP.ProvingKey.PkK[i]))
	}
}

func productFr(privs []*keys.PrivateKey, field func(*keys.PrivateKey) curve.Fr) curve.Fr {
	acc := curve.Fr{}
	acc.SetOne()
	for _, p := range privs {
		f := field(p)
		acc.Mul(&acc, &f)
	}
	return acc
}

func TestAssembleCopiesFinalVectors(t *testing.T) {
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	stage1 := NewStage1(cs)
	priv1, err := keys.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, stage1.Transform(priv1, workers))

	stage2, err := NewStage2(cs, stage1, workers)
	require.NoError(t, err)
	priv2, err := keys.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, stage2.Transform(priv2, workers))

	stage3, err := NewStage3(stage2)
	require.NoError(t, err)
	priv3, err := keys.NewPrivateKey()
	require.NoError(t, err)
	require.NoError(t, stage3.Transform(priv3, workers))

	kp := Assemble(stage2, stage3)
	require.Equal(t, stage2.PkA, kp.ProvingKey.PkA)
	require.Equal(t, stage3.PkK, kp.ProvingKey.PkK)
	require.Equal(t, stage2.VkA, kp.VerificationKey.VkA)
	require.Equal(t, stage3.VkGamma, kp.VerificationKey.VkGamma)
}

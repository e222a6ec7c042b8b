package coordinator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremonyconfig"
)

func dummyCS(t *testing.T) qap.ConstraintSystem {
	t.Helper()
	const d = 8
	cs, err := qap.NewDummyConstraintSystem(d, 5, 2, qap.RootOfUnity(d))
	require.NoError(t, err)
	return cs
}

func testConfig(numPlayers int) *ceremonyconfig.Config {
	cfg := ceremonyconfig.DefaultConfig()
	cfg.NumPlayers = numPlayers
	cfg.Workers = parallel.DefaultWorkers()
	return cfg
}

type testPlayer struct {
	id   string
	priv *keys.PrivateKey
	pub  *keys.PublicKey
}

func newTestPlayer(t *testing.T, id string) *testPlayer {
	t.Helper()
	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub, err := keys.NewPublicKey(priv)
	require.NoError(t, err)
	return &testPlayer{id: id, priv: priv, pub: pub}
}

func findPlayer(players []*testPlayer, id string) *testPlayer {
	for _, p := range players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func cloneStage1(s *stage.Stage1) *stage.Stage1 {
	return &stage.Stage1{
		V1: append([]curve.G1(nil), s.V1...),
		V2: append([]curve.G2(nil), s.V2...),
	}
}

func cloneStage2(s *stage.Stage2) *stage.Stage2 {
	return &stage.Stage2{
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

func cloneStage3(s *stage.Stage3) *stage.Stage3 {
	return &stage.Stage3{
		VkGamma:      s.VkGamma,
		VkBetaGamma1: s.VkBetaGamma1,
		VkBetaGamma2: s.VkBetaGamma2,
		PkK:          append([]curve.G1(nil), s.PkK...),
	}
}

func TestCeremonyHappyPathReachesDone(t *testing.T) {
	cs := dummyCS(t)
	cfg := testConfig(2)
	var transcriptBuf bytes.Buffer
	co, err := New(cfg, cs, &transcriptBuf)
	require.NoError(t, err)

	players := []*testPlayer{newTestPlayer(t, "p0"), newTestPlayer(t, "p1")}
	for _, p := range players {
		require.NoError(t, co.RegisterCommitment(p.id, p.pub.Hash()))
	}
	require.Equal(t, RoundPubkey, co.Round())

	ctx, ok := co.Context()
	require.True(t, ok)

	for range players {
		cur, ok := co.CurrentTurn()
		require.True(t, ok)
		p := findPlayer(players, cur.ID)
		require.NotNil(t, p)

		nizks, err := keys.NewPublicKeyNizks(p.pub, p.priv, ctx)
		require.NoError(t, err)
		bundle := &keys.PublicKeyBundle{PublicKey: p.pub, Nizks: nizks}

		candidate := cloneStage1(co.stage1)
		require.NoError(t, candidate.Transform(p.priv, cfg.Workers))
		require.NoError(t, co.SubmitPubkeyRound(bundle, candidate))
	}
	require.Equal(t, RoundStage2, co.Round())

	for range players {
		cur, ok := co.CurrentTurn()
		require.True(t, ok)
		p := findPlayer(players, cur.ID)
		require.NotNil(t, p)

		candidate := cloneStage2(co.stage2)
		require.NoError(t, candidate.Transform(p.priv, cfg.Workers))
		require.NoError(t, co.SubmitStage2(candidate))
	}
	require.Equal(t, RoundStage3, co.Round())

	for range players {
		cur, ok := co.CurrentTurn()
		require.True(t, ok)
		p := findPlayer(players, cur.ID)
		require.NotNil(t, p)

		candidate := cloneStage3(co.stage3)
		require.NoError(t, candidate.Transform(p.priv, cfg.Workers))
		require.NoError(t, co.SubmitStage3(candidate))
	}
	require.Equal(t, RoundDone, co.Round())

	assembled, ok := co.AssembledKeypair()
	require.True(t, ok)
	require.NotNil(t, assembled.ProvingKey)
	require.NotNil(t, assembled.VerificationKey)
}

func TestRegisterCommitmentRejectedOutsideCollecting(t *testing.T) {
	cs := dummyCS(t)
	cfg := testConfig(1)
	var buf bytes.Buffer
	co, err := New(cfg, cs, &buf)
	require.NoError(t, err)

	p := newTestPlayer(t, "only")
	require.NoError(t, co.RegisterCommitment(p.id, p.pub.Hash()))
	require.Equal(t, RoundPubkey, co.Round())

	err = co.RegisterCommitment("late", digest.Sum256([]byte("late")))
	require.Error(t, err)
}

func TestSubstitutedPublicKeyIsRejectedWithRecord(t *testing.T) {
	cs := dummyCS(t)
	cfg := testConfig(2)
	var buf bytes.Buffer
	co, err := New(cfg, cs, &buf)
	require.NoError(t, err)

	committed := newTestPlayer(t, "swapped")
	substitute := newTestPlayer(t, "unused")
	honest := newTestPlayer(t, "honest")
	require.NoError(t, co.RegisterCommitment(committed.id, committed.pub.Hash()))
	require.NoError(t, co.RegisterCommitment(honest.id, honest.pub.Hash()))

	ctx, _ := co.Context()

	cur, ok := co.CurrentTurn()
	require.True(t, ok)
	require.Equal(t, "swapped", cur.ID)

	// The participant reveals a different, independently well-formed public
	// key with its own valid NIZKs and a stage1 transform that verifies
	// against it — everything checks out except that it does not match the
	// commitment submitted during the collecting round.
	nizks, err := keys.NewPublicKeyNizks(substitute.pub, substitute.priv, ctx)
	require.NoError(t, err)
	bundle := &keys.PublicKeyBundle{PublicKey: substitute.pub, Nizks: nizks}

	candidate := cloneStage1(co.stage1)
	require.NoError(t, candidate.Transform(substitute.priv, cfg.Workers))

	require.NoError(t, co.SubmitPubkeyRound(bundle, candidate))
	require.True(t, cur.Rejected)
	require.NotEmpty(t, cur.RejectReason)

	cur, ok = co.CurrentTurn()
	require.True(t, ok)
	require.Equal(t, "honest", cur.ID)
}

func TestBadStage1ContributionIsSkippedWithRecord(t *testing.T) {
	cs := dummyCS(t)
	cfg := testConfig(2)
	var buf bytes.Buffer
	co, err := New(cfg, cs, &buf)
	require.NoError(t, err)

	honest := newTestPlayer(t, "honest")
	cheater := newTestPlayer(t, "cheater")
	require.NoError(t, co.RegisterCommitment(cheater.id, cheater.pub.Hash()))
	require.NoError(t, co.RegisterCommitment(honest.id, honest.pub.Hash()))

	ctx, _ := co.Context()

	cur, ok := co.CurrentTurn()
	require.True(t, ok)
	require.Equal(t, "cheater", cur.ID)

	nizks, err := keys.NewPublicKeyNizks(cheater.pub, cheater.priv, ctx)
	require.NoError(t, err)
	bundle := &keys.PublicKeyBundle{PublicKey: cheater.pub, Nizks: nizks}

	wrongKey, err := keys.NewPrivateKey()
	require.NoError(t, err)
	candidate := cloneStage1(co.stage1)
	require.NoError(t, candidate.Transform(wrongKey, cfg.Workers))

	require.NoError(t, co.SubmitPubkeyRound(bundle, candidate))
	require.True(t, cur.Rejected)
	require.NotEmpty(t, cur.RejectReason)

	cur, ok = co.CurrentTurn()
	require.True(t, ok)
	require.Equal(t, "honest", cur.ID)

	nizks, err = keys.NewPublicKeyNizks(honest.pub, honest.priv, ctx)
	require.NoError(t, err)
	bundle = &keys.PublicKeyBundle{PublicKey: honest.pub, Nizks: nizks}
	candidate = cloneStage1(co.stage1)
	require.NoError(t, candidate.Transform(honest.priv, cfg.Workers))
	require.NoError(t, co.SubmitPubkeyRound(bundle, candidate))
	require.False(t, cur.Rejected)

	require.Equal(t, RoundStage2, co.Round())
}

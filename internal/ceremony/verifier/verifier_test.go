package verifier

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/coordinator"
	"github.com/hamzazf/ceremony/internal/ceremony/curve"
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

// runCeremony drives a fresh coordinator through a full happy-path ceremony
// with len(ids) honest players and returns the resulting transcript bytes
// alongside the coordinator's own assembled keypair, so a test can check the
// verifier's independently-replayed keypair against it.
func runCeremony(t *testing.T, cs qap.ConstraintSystem, ids []string) ([]byte, *qap.AssembledKeypair) {
	t.Helper()
	cfg := testConfig(len(ids))
	var buf bytes.Buffer
	co, err := coordinator.New(cfg, cs, &buf)
	require.NoError(t, err)

	players := make([]*testPlayer, len(ids))
	for i, id := range ids {
		players[i] = newTestPlayer(t, id)
		require.NoError(t, co.RegisterCommitment(players[i].id, players[i].pub.Hash()))
	}

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

		candidate := cloneStage1(co.CurrentStage1())
		require.NoError(t, candidate.Transform(p.priv, cfg.Workers))
		require.NoError(t, co.SubmitPubkeyRound(bundle, candidate))
	}
	require.Equal(t, coordinator.RoundStage2, co.Round())

	for range players {
		cur, ok := co.CurrentTurn()
		require.True(t, ok)
		p := findPlayer(players, cur.ID)
		require.NotNil(t, p)

		candidate := cloneStage2(co.CurrentStage2())
		require.NoError(t, candidate.Transform(p.priv, cfg.Workers))
		require.NoError(t, co.SubmitStage2(candidate))
	}
	require.Equal(t, coordinator.RoundStage3, co.Round())

	for range players {
		cur, ok := co.CurrentTurn()
		require.True(t, ok)
		p := findPlayer(players, cur.ID)
		require.NotNil(t, p)

		candidate := cloneStage3(co.CurrentStage3())
		require.NoError(t, candidate.Transform(p.priv, cfg.Workers))
		require.NoError(t, co.SubmitStage3(candidate))
	}
	require.Equal(t, coordinator.RoundDone, co.Round())

	assembled, ok := co.AssembledKeypair()
	require.True(t, ok)
	return buf.Bytes(), assembled
}

func TestVerifyReplaysHappyPathCeremony(t *testing.T) {
	cs := dummyCS(t)
	transcriptBytes, assembled := runCeremony(t, cs, []string{"p0", "p1", "p2"})

	report, err := Verify(bytes.NewReader(transcriptBytes), cs, parallel.DefaultWorkers())
	require.NoError(t, err)
	require.Equal(t, 3, report.NumPlayers)
	require.True(t, SameOutput(assembled, report.Keypair))
}

func TestVerifyRejectsTamperedTranscript(t *testing.T) {
	cs := dummyCS(t)
	transcriptBytes, _ := runCeremony(t, cs, []string{"p0", "p1"})

	tampered := append([]byte(nil), transcriptBytes...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err := Verify(bytes.NewReader(tampered), cs, parallel.DefaultWorkers())
	require.Error(t, err)
}

// Package verifier independently replays a finished ceremony's transcript,
// recomputing every transform and checking every NIZK with its own
// arithmetic rather than trusting the coordinator's bookkeeping. Grounded on
// original_source/src/verifier.rs's main(): read num_players, replay
// commitments, then each stage's accept loop, then reassemble the keypair.
// The original panics on the first failure; this package instead reports
// which participant and stage failed, matching the coordinator's preference
// for an explanatory error over a bare crash.
package verifier

import (
	"fmt"
	"io"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/transcript"
	"github.com/hamzazf/ceremony/internal/ceremonyerr"
)

// Report summarizes a successful replay: the number of players covered and
// the keypair reconstructed independently of the coordinator's own output.
type Report struct {
	NumPlayers int
	Keypair    *qap.AssembledKeypair
}

// Verify replays the transcript read from r against cs, checking every
// commitment, NIZK, and transform exactly as the coordinator should have,
// and returns the reassembled keypair on success. Any discrepancy returns a
// ceremonyerr identifying the round and participant at fault.
func Verify(r io.Reader, cs qap.ConstraintSystem, workers int) (*Report, error) {
	if workers < 1 {
		workers = 1
	}

	tr, err := transcript.NewReader(r)
	if err != nil {
		return nil, ceremonyerr.Wrap(ceremonyerr.BadWire, err, "verifier: reading transcript header")
	}
	n := tr.NumPlayers
	if n <= 0 {
		return nil, ceremonyerr.New(ceremonyerr.Fatal, "verifier: transcript declares zero players")
	}

	commitments := make([]digest.Digest256, n)
	for i := 0; i < n; i++ {
		c, err := tr.ReadCommitment()
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.BadWire, err, fmt.Sprintf("verifier: reading commitment %d", i))
		}
		commitments[i] = c
	}
	hCommit := transcript.ComputeHCommit(commitments)

	// The pubkey round always writes exactly n entries, one per commitment,
	// accepted or not: a rejected turn never gets a later turn, so only the
	// accepted subset carries forward to seed stage2's entry count below.
	s1 := stage.NewStage1(cs)
	var pubkeys []*keys.PublicKey
	for i := 0; i < n; i++ {
		bundle, next, accepted, err := tr.ReadPubkeyRound()
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.BadWire, err, fmt.Sprintf("verifier: reading pubkey round for player %d", i))
		}
		if !accepted {
			continue
		}
		if bundle.PublicKey.Hash() != commitments[i] {
			return nil, ceremonyerr.New(ceremonyerr.BadCommitment, fmt.Sprintf("verifier: player %d's revealed public key does not match its commitment", i))
		}
		if !bundle.IsValid(hCommit) {
			return nil, ceremonyerr.New(ceremonyerr.BadNizk, fmt.Sprintf("verifier: player %d's NIZKs do not verify against the ceremony context", i))
		}
		ok, err := stage.VerifyTransform1(s1, next, bundle.PublicKey, workers)
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, fmt.Sprintf("verifier: verifying player %d's stage1 transform", i))
		}
		if !ok {
			return nil, ceremonyerr.New(ceremonyerr.BadTransform, fmt.Sprintf("verifier: player %d's stage1 transform failed to verify", i))
		}
		s1 = next
		pubkeys = append(pubkeys, bundle.PublicKey)
	}

	// stage2 and stage3 only give a turn to participants who survived the
	// round before them, so their entry counts shrink to match.
	s2, err := stage.NewStage2(cs, s1, workers)
	if err != nil {
		return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, "verifier: deriving stage2 from final stage1")
	}
	var survivingAfterStage2 []*keys.PublicKey
	for i, pk := range pubkeys {
		next, accepted, err := tr.ReadStage2Round()
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.BadWire, err, fmt.Sprintf("verifier: reading stage2 round for player %d", i))
		}
		if !accepted {
			continue
		}
		ok, err := stage.VerifyTransform2(s2, next, pk, workers)
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, fmt.Sprintf("verifier: verifying player %d's stage2 transform", i))
		}
		if !ok {
			return nil, ceremonyerr.New(ceremonyerr.BadTransform, fmt.Sprintf("verifier: player %d's stage2 transform failed to verify", i))
		}
		s2 = next
		survivingAfterStage2 = append(survivingAfterStage2, pk)
	}

	s3, err := stage.NewStage3(s2)
	if err != nil {
		return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, "verifier: deriving stage3 from final stage2")
	}
	for i, pk := range survivingAfterStage2 {
		next, accepted, err := tr.ReadStage3Round()
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.BadWire, err, fmt.Sprintf("verifier: reading stage3 round for player %d", i))
		}
		if !accepted {
			continue
		}
		ok, err := stage.VerifyTransform3(s3, next, pk, workers)
		if err != nil {
			return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, fmt.Sprintf("verifier: verifying player %d's stage3 transform", i))
		}
		if !ok {
			return nil, ceremonyerr.New(ceremonyerr.BadTransform, fmt.Sprintf("verifier: player %d's stage3 transform failed to verify", i))
		}
		s3 = next
	}

	return &Report{NumPlayers: n, Keypair: stage.Assemble(s2, s3)}, nil
}

// SameOutput reports whether a replayed keypair matches the one the
// coordinator published, so a verifier can catch a coordinator that swapped
// its output after the fact.
func SameOutput(a, b *qap.AssembledKeypair) bool {
	if a == nil || b == nil {
		return a == b
	}
	return g2Eq(a.VerificationKey.VkA, b.VerificationKey.VkA) &&
		g1Eq(a.VerificationKey.VkB, b.VerificationKey.VkB) &&
		g2Eq(a.VerificationKey.VkC, b.VerificationKey.VkC) &&
		g2Eq(a.VerificationKey.VkZ, b.VerificationKey.VkZ) &&
		g2Eq(a.VerificationKey.VkGamma, b.VerificationKey.VkGamma) &&
		g1Eq(a.VerificationKey.VkBetaGamma1, b.VerificationKey.VkBetaGamma1) &&
		g2Eq(a.VerificationKey.VkBetaGamma2, b.VerificationKey.VkBetaGamma2) &&
		g1VecEq(a.ProvingKey.PkA, b.ProvingKey.PkA) &&
		g1VecEq(a.ProvingKey.PkAPrime, b.ProvingKey.PkAPrime) &&
		g2VecEq(a.ProvingKey.PkB, b.ProvingKey.PkB) &&
		g1VecEq(a.ProvingKey.PkBTemp, b.ProvingKey.PkBTemp) &&
		g1VecEq(a.ProvingKey.PkBPrime, b.ProvingKey.PkBPrime) &&
		g1VecEq(a.ProvingKey.PkC, b.ProvingKey.PkC) &&
		g1VecEq(a.ProvingKey.PkCPrime, b.ProvingKey.PkCPrime) &&
		g1VecEq(a.ProvingKey.PkK, b.ProvingKey.PkK)
}

func g1Eq(a, b curve.G1) bool { return a.Equal(&b) }
func g2Eq(a, b curve.G2) bool { return a.Equal(&b) }

func g1VecEq(a, b []curve.G1) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !g1Eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

func g2VecEq(a, b []curve.G2) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !g2Eq(a[i], b[i]) {
			return false
		}
	}
	return true
}

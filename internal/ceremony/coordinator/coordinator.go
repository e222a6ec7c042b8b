// Package coordinator implements the ceremony's round-based state machine:
// Collecting, the sequential pubkey-and-stage1 round, the stage2 round, the
// stage3 round, and Done. Grounded on original_source/src/coordinator.rs's
// ConnectionHandler.run, but departs deliberately from its
// panic-and-abort-on-bad-transform behavior: a participant whose commitment
// or transform fails verification is dropped and recorded while the
// ceremony continues with the prior stage value, per the skip-with-record
// resolution recorded for this repo's open questions.
package coordinator

import (
	"io"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/transcript"
	"github.com/hamzazf/ceremony/internal/ceremonyconfig"
	"github.com/hamzazf/ceremony/internal/ceremonyerr"
)

// Round names the ceremony's current phase.
type Round int

const (
	RoundCollecting Round = iota
	RoundPubkey
	RoundStage2
	RoundStage3
	RoundDone
)

func (r Round) String() string {
	switch r {
	case RoundCollecting:
		return "collecting"
	case RoundPubkey:
		return "pubkey"
	case RoundStage2:
		return "stage2"
	case RoundStage3:
		return "stage3"
	case RoundDone:
		return "done"
	default:
		return "unknown"
	}
}

// Participant tracks one registered player's progress through the
// ceremony.
type Participant struct {
	ID           string
	Commitment   digest.Digest256
	PublicKey    *keys.PublicKey
	Nizks        *keys.PublicKeyNizks
	Rejected     bool
	RejectReason string
}

// Coordinator drives one ceremony instance end to end, verifying every
// contribution and appending accepted rounds to its transcript.
type Coordinator struct {
	cfg     *ceremonyconfig.Config
	cs      qap.ConstraintSystem
	workers int
	tw      *transcript.Writer

	round        Round
	participants []*Participant
	commitments  []digest.Digest256
	ctx          digest.Digest512

	stage1    *stage.Stage1
	stage2    *stage.Stage2
	stage3    *stage.Stage3
	assembled *qap.AssembledKeypair

	turn int
}

// New starts a fresh ceremony that will write its transcript to w.
func New(cfg *ceremonyconfig.Config, cs qap.ConstraintSystem, w io.Writer) (*Coordinator, error) {
	tw, err := transcript.NewWriter(w, cfg.NumPlayers)
	if err != nil {
		return nil, ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: starting transcript")
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{cfg: cfg, cs: cs, workers: workers, tw: tw, round: RoundCollecting}, nil
}

// Round reports the ceremony's current phase.
func (c *Coordinator) Round() Round { return c.round }

// Participants returns the registered participant list in submission order.
func (c *Coordinator) Participants() []*Participant { return c.participants }

// Context returns H_commit once the collecting round has closed.
func (c *Coordinator) Context() (digest.Digest512, bool) {
	if c.round == RoundCollecting {
		return digest.Digest512{}, false
	}
	return c.ctx, true
}

// AssembledKeypair returns the ceremony's final proving/verification key
// once the ceremony has reached RoundDone.
func (c *Coordinator) AssembledKeypair() (*qap.AssembledKeypair, bool) {
	return c.assembled, c.assembled != nil
}

// CurrentStage1 returns the stage1 value the next pubkey-round participant
// must transform: what the coordinator sends them over the wire.
func (c *Coordinator) CurrentStage1() *stage.Stage1 { return c.stage1 }

// CurrentStage2 returns the stage2 value the next stage2-round participant
// must transform.
func (c *Coordinator) CurrentStage2() *stage.Stage2 { return c.stage2 }

// CurrentStage3 returns the stage3 value the next stage3-round participant
// must transform.
func (c *Coordinator) CurrentStage3() *stage.Stage3 { return c.stage3 }

// RegisterCommitment records a participant's initial public-key commitment.
// Once cfg.NumPlayers commitments have been registered, the collecting
// round closes, H_commit is derived, and the ceremony advances into the
// sequential pubkey-and-stage1 round.
func (c *Coordinator) RegisterCommitment(id string, commitment digest.Digest256) error {
	if c.round != RoundCollecting {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: commitments are only accepted during the collecting round")
	}
	if len(c.participants) >= c.cfg.NumPlayers {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: ceremony is already full")
	}
	if err := c.tw.WriteCommitment(commitment); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording commitment")
	}
	c.participants = append(c.participants, &Participant{ID: id, Commitment: commitment})
	c.commitments = append(c.commitments, commitment)

	if len(c.participants) == c.cfg.NumPlayers {
		c.ctx = transcript.ComputeHCommit(c.commitments)
		c.stage1 = stage.NewStage1(c.cs)
		c.round = RoundPubkey
		c.turn = 0
	}
	return nil
}

// CurrentTurn returns the participant whose contribution is awaited next in
// the current round, skipping over participants already dropped from a
// prior round, or false once the round has processed everyone.
func (c *Coordinator) CurrentTurn() (*Participant, bool) {
	for c.turn < len(c.participants) {
		p := c.participants[c.turn]
		if p.Rejected && c.round != RoundPubkey {
			c.turn++
			continue
		}
		return p, true
	}
	return nil, false
}

// SubmitPubkeyRound processes the current participant's revealed public key,
// its NIZKs, and its stage1 contribution. A participant whose public key
// doesn't match its commitment, whose NIZKs don't verify, or whose stage1
// transform doesn't verify is dropped and recorded; the ceremony continues
// with the stage1 value that was already accepted.
func (c *Coordinator) SubmitPubkeyRound(bundle *keys.PublicKeyBundle, candidate *stage.Stage1) error {
	if c.round != RoundPubkey {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: not in the pubkey round")
	}
	p, ok := c.CurrentTurn()
	if !ok {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: pubkey round already complete")
	}

	if bundle.PublicKey.Hash() != p.Commitment {
		p.Rejected = true
		p.RejectReason = "revealed public key does not match its commitment"
		if err := c.tw.WritePubkeyRound(nil, nil, false); err != nil {
			return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording pubkey round rejection")
		}
		return c.advanceTurn()
	}

	if !bundle.IsValid(c.ctx) {
		p.Rejected = true
		p.RejectReason = "nizk verification failed"
		if err := c.tw.WritePubkeyRound(nil, nil, false); err != nil {
			return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording pubkey round rejection")
		}
		return c.advanceTurn()
	}

	ok, err := stage.VerifyTransform1(c.stage1, candidate, bundle.PublicKey, c.workers)
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "coordinator: stage1 verification error")
	}
	if !ok {
		p.Rejected = true
		p.RejectReason = "stage1 transform verification failed"
		if err := c.tw.WritePubkeyRound(nil, nil, false); err != nil {
			return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording pubkey round rejection")
		}
		return c.advanceTurn()
	}

	p.PublicKey = bundle.PublicKey
	p.Nizks = bundle.Nizks
	c.stage1 = candidate
	if err := c.tw.WritePubkeyRound(bundle, candidate, true); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording pubkey round")
	}
	return c.advanceTurn()
}

// SubmitStage2 processes the current participant's stage2 contribution,
// verified against the public key they revealed during the pubkey round.
func (c *Coordinator) SubmitStage2(candidate *stage.Stage2) error {
	if c.round != RoundStage2 {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: not in the stage2 round")
	}
	p, ok := c.CurrentTurn()
	if !ok {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: stage2 round already complete")
	}

	ok, err := stage.VerifyTransform2(c.stage2, candidate, p.PublicKey, c.workers)
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "coordinator: stage2 verification error")
	}
	if !ok {
		p.Rejected = true
		p.RejectReason = "stage2 transform verification failed"
		if err := c.tw.WriteStage2Round(nil, false); err != nil {
			return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording stage2 round rejection")
		}
		return c.advanceTurn()
	}

	c.stage2 = candidate
	if err := c.tw.WriteStage2Round(candidate, true); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording stage2 round")
	}
	return c.advanceTurn()
}

// SubmitStage3 processes the current participant's stage3 contribution,
// verified against the public key they revealed during the pubkey round.
func (c *Coordinator) SubmitStage3(candidate *stage.Stage3) error {
	if c.round != RoundStage3 {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: not in the stage3 round")
	}
	p, ok := c.CurrentTurn()
	if !ok {
		return ceremonyerr.New(ceremonyerr.Fatal, "coordinator: stage3 round already complete")
	}

	ok, err := stage.VerifyTransform3(c.stage3, candidate, p.PublicKey, c.workers)
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "coordinator: stage3 verification error")
	}
	if !ok {
		p.Rejected = true
		p.RejectReason = "stage3 transform verification failed"
		if err := c.tw.WriteStage3Round(nil, false); err != nil {
			return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording stage3 round rejection")
		}
		return c.advanceTurn()
	}

	c.stage3 = candidate
	if err := c.tw.WriteStage3Round(candidate, true); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "coordinator: recording stage3 round")
	}
	return c.advanceTurn()
}

// advanceTurn moves to the next participant in the current round, or rolls
// the ceremony over into the next round once everyone has had a turn.
func (c *Coordinator) advanceTurn() error {
	c.turn++
	for {
		if _, ok := c.CurrentTurn(); ok {
			return nil
		}

		switch c.round {
		case RoundPubkey:
			s2, err := stage.NewStage2(c.cs, c.stage1, c.workers)
			if err != nil {
				return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "coordinator: deriving stage2 from final stage1")
			}
			c.stage2 = s2
			c.round = RoundStage2
		case RoundStage2:
			s3, err := stage.NewStage3(c.stage2)
			if err != nil {
				return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "coordinator: deriving stage3 from final stage2")
			}
			c.stage3 = s3
			c.round = RoundStage3
		case RoundStage3:
			c.assembled = stage.Assemble(c.stage2, c.stage3)
			c.round = RoundDone
			return nil
		default:
			return nil
		}
		c.turn = 0
	}
}

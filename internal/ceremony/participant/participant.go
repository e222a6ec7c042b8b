// Package participant mirrors the coordinator's per-stage receive/
// transform/commit/send loop from a single player's side of the
// connection. Shape inferred from original_source/src/coordinator.rs's
// read/write pairing with each connected player (the original has no
// standalone player.rs in the retrieved sources, so the participant's
// protocol is reconstructed from what the coordinator expects to send and
// receive at each round).
package participant

import (
	"bytes"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
	"github.com/hamzazf/ceremony/internal/ceremonyerr"
)

// Participant holds one player's private key for the lifetime of a
// ceremony round, transforming whichever stage payload the coordinator
// sends it and proving knowledge of its secrets against the shared
// context once that context is known.
type Participant struct {
	priv    *keys.PrivateKey
	pub     *keys.PublicKey
	workers int
}

// New samples a fresh private/public key pair for one ceremony round.
func New(workers int) (*Participant, error) {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, "participant: sampling private key")
	}
	pub, err := keys.NewPublicKey(priv)
	if err != nil {
		return nil, ceremonyerr.Wrap(ceremonyerr.Fatal, err, "participant: deriving public key")
	}
	if workers < 1 {
		workers = 1
	}
	return &Participant{priv: priv, pub: pub, workers: workers}, nil
}

// PublicKey returns this participant's derived public key.
func (p *Participant) PublicKey() *keys.PublicKey { return p.pub }

// Commitment is the value submitted during the collecting round: a
// commitment to the public key alone, since the NIZKs bound to it cannot
// be constructed until every participant's commitment — and so the shared
// context they're domain-separated by — is known.
func (p *Participant) Commitment() digest.Digest256 { return p.pub.Hash() }

// Zeroize overwrites this participant's private key once the ceremony has
// accepted its final contribution and there is nothing left to transform.
func (p *Participant) Zeroize() { p.priv.Zeroize() }

// Run drives this participant's full exchange with the coordinator over
// conn: submit the commitment, wait for the ceremony's shared context,
// then answer whichever stage requests arrive until the coordinator
// signals completion or rejection.
func (p *Participant) Run(conn *transport.Conn) error {
	commitment := p.Commitment()
	if err := conn.Send(transport.MsgCommitment, commitment[:]); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: sending commitment")
	}

	msgType, payload, err := conn.Recv()
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Timeout, err, "participant: waiting for ceremony context")
	}
	if msgType != transport.MsgContext || len(payload) != len(digest.Digest512{}) {
		return ceremonyerr.New(ceremonyerr.Fatal, "participant: expected ceremony context from coordinator")
	}
	var ctx digest.Digest512
	copy(ctx[:], payload)

	for {
		msgType, payload, err := conn.Recv()
		if err != nil {
			return ceremonyerr.Wrap(ceremonyerr.Timeout, err, "participant: waiting for coordinator")
		}
		switch msgType {
		case transport.MsgStage1:
			if err := p.respondStage1(conn, ctx, payload); err != nil {
				return err
			}
		case transport.MsgStage2:
			if err := p.respondStage2(conn, payload); err != nil {
				return err
			}
		case transport.MsgStage3:
			if err := p.respondStage3(conn, payload); err != nil {
				return err
			}
		case transport.MsgAck:
			return nil
		case transport.MsgReject:
			return ceremonyerr.New(ceremonyerr.BadTransform, "participant: coordinator rejected our contribution")
		default:
			return ceremonyerr.New(ceremonyerr.Fatal, "participant: unexpected message from coordinator")
		}
	}
}

func (p *Participant) respondStage1(conn *transport.Conn, ctx digest.Digest512, payload []byte) error {
	current, err := stage.DecodeStage1(wire.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: decoding stage1 request")
	}
	candidate := &stage.Stage1{
		V1: append([]curve.G1(nil), current.V1...),
		V2: append([]curve.G2(nil), current.V2...),
	}
	if err := candidate.Transform(p.priv, p.workers); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "participant: applying stage1 transform")
	}

	nizks, err := keys.NewPublicKeyNizks(p.pub, p.priv, ctx)
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "participant: proving knowledge of secrets")
	}
	bundle := &keys.PublicKeyBundle{PublicKey: p.pub, Nizks: nizks}

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	bundle.Encode(w)
	candidate.Encode(w)
	if w.Err() != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, w.Err(), "participant: encoding stage1 response")
	}
	if err := conn.Send(transport.MsgPubkeyRound, buf.Bytes()); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: sending stage1 response")
	}
	return nil
}

func (p *Participant) respondStage2(conn *transport.Conn, payload []byte) error {
	current, err := stage.DecodeStage2(wire.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: decoding stage2 request")
	}
	candidate := cloneStage2(current)
	if err := candidate.Transform(p.priv, p.workers); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "participant: applying stage2 transform")
	}

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	candidate.Encode(w)
	if w.Err() != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, w.Err(), "participant: encoding stage2 response")
	}
	if err := conn.Send(transport.MsgStage2, buf.Bytes()); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: sending stage2 response")
	}
	return nil
}

func (p *Participant) respondStage3(conn *transport.Conn, payload []byte) error {
	current, err := stage.DecodeStage3(wire.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: decoding stage3 request")
	}
	candidate := cloneStage3(current)
	if err := candidate.Transform(p.priv, p.workers); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.Fatal, err, "participant: applying stage3 transform")
	}

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	candidate.Encode(w)
	if w.Err() != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, w.Err(), "participant: encoding stage3 response")
	}
	if err := conn.Send(transport.MsgStage3, buf.Bytes()); err != nil {
		return ceremonyerr.Wrap(ceremonyerr.BadWire, err, "participant: sending stage3 response")
	}
	return nil
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

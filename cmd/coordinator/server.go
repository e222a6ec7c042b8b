// server.go wires the coordinator state machine to the network: one
// persistent transport.Conn per participant, sequential turn-driving
// across the pubkey/stage2/stage3 rounds, and metrics/audit logging at
// every acceptance or rejection. Direct structural adaptation of
// teacher's cmd/auctiond/main.go's handler registration plus
// p2p.Node.StartServer driving loop, generalized from the auction's
// HTTP+JSON request handlers to the ceremony's push-driven TCP protocol.
package main

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/hamzazf/ceremony/internal/ceremony/coordinator"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
	"github.com/hamzazf/ceremony/internal/ceremonyhealth"
	"github.com/hamzazf/ceremony/internal/ceremonylog"
	"github.com/hamzazf/ceremony/internal/ceremonymetrics"
	"github.com/hamzazf/ceremony/internal/ceremonyratelimit"
)

// daemon holds every piece of ambient infrastructure the coordinator
// binary needs alongside the round state machine itself.
type daemon struct {
	co      *coordinator.Coordinator
	log     *ceremonylog.Logger
	metrics *ceremonymetrics.Collector
	health  *ceremonyhealth.Checker
	limiter *ceremonyratelimit.Limiter

	workers int

	mu      sync.Mutex
	conns   map[string]*transport.Conn
	nextID  int
	done    chan struct{}
	closeOn sync.Once
}

func newDaemon(co *coordinator.Coordinator, log *ceremonylog.Logger, metrics *ceremonymetrics.Collector, health *ceremonyhealth.Checker, workers int) *daemon {
	return &daemon{
		co:      co,
		log:     log,
		metrics: metrics,
		health:  health,
		limiter: ceremonyratelimit.New(8, 1, time.Second),
		workers: workers,
		conns:   make(map[string]*transport.Conn),
		done:    make(chan struct{}),
	}
}

// Wait blocks until the ceremony has reached RoundDone.
func (d *daemon) Wait() { <-d.done }

func (d *daemon) finish() {
	d.closeOn.Do(func() { close(d.done) })
}

// register wires every message handler this daemon understands onto
// server.
func (d *daemon) register(server *transport.Server) {
	server.RegisterHandler(transport.MsgCommitment, d.handleCommitment)
	server.RegisterHandler(transport.MsgPubkeyRound, d.handlePubkeyRound)
	server.RegisterHandler(transport.MsgStage2, d.handleStage2)
	server.RegisterHandler(transport.MsgStage3, d.handleStage3)
}

func (d *daemon) handleCommitment(conn *transport.Conn, payload []byte) error {
	var commitment [32]byte
	if len(payload) != len(commitment) {
		return conn.Send(transport.MsgReject, nil)
	}
	copy(commitment[:], payload)

	d.mu.Lock()
	id := fmt.Sprintf("p%d", d.nextID)
	d.nextID++
	d.conns[id] = conn
	d.mu.Unlock()

	if !d.limiter.Allow(id) {
		d.log.Warn("rejecting commitment from %s: rate limited", id)
		return conn.Send(transport.MsgReject, nil)
	}

	if err := d.co.RegisterCommitment(id, commitment); err != nil {
		d.log.Error("commitment from %s rejected: %v", id, err)
		return conn.Send(transport.MsgReject, nil)
	}
	d.metrics.RecordCommitment()
	d.metrics.SetParticipantCount(len(d.co.Participants()))
	d.log.Info("registered commitment from %s", id)

	if d.co.Round() != coordinator.RoundPubkey {
		return nil
	}

	ctx, ok := d.co.Context()
	if !ok {
		return nil
	}
	d.log.Info("collecting round closed, starting pubkey round")
	d.metrics.SetActiveRound(int(d.co.Round()))

	d.mu.Lock()
	conns := make(map[string]*transport.Conn, len(d.conns))
	for k, v := range d.conns {
		conns[k] = v
	}
	d.mu.Unlock()
	for pid, c := range conns {
		if err := c.Send(transport.MsgContext, ctx[:]); err != nil {
			d.log.Warn("sending ceremony context to %s failed: %v", pid, err)
		}
	}

	return d.sendStage1(d.co.CurrentStage1())
}

func (d *daemon) connFor(p *coordinator.Participant) (*transport.Conn, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.conns[p.ID]
	return c, ok
}

func (d *daemon) sendStage1(s1 *stage.Stage1) error {
	p, ok := d.co.CurrentTurn()
	if !ok {
		return nil
	}
	c, ok := d.connFor(p)
	if !ok {
		d.log.Warn("no connection for %s, skipping stage1 turn", p.ID)
		return nil
	}
	var buf bytes.Buffer
	s1.Encode(wire.NewWriter(&buf))
	return c.Send(transport.MsgStage1, buf.Bytes())
}

func (d *daemon) sendStage2(s2 *stage.Stage2) error {
	p, ok := d.co.CurrentTurn()
	if !ok {
		return nil
	}
	c, ok := d.connFor(p)
	if !ok {
		d.log.Warn("no connection for %s, skipping stage2 turn", p.ID)
		return nil
	}
	var buf bytes.Buffer
	s2.Encode(wire.NewWriter(&buf))
	return c.Send(transport.MsgStage2, buf.Bytes())
}

func (d *daemon) sendStage3(s3 *stage.Stage3) error {
	p, ok := d.co.CurrentTurn()
	if !ok {
		return nil
	}
	c, ok := d.connFor(p)
	if !ok {
		d.log.Warn("no connection for %s, skipping stage3 turn", p.ID)
		return nil
	}
	var buf bytes.Buffer
	s3.Encode(wire.NewWriter(&buf))
	return c.Send(transport.MsgStage3, buf.Bytes())
}

func (d *daemon) handlePubkeyRound(conn *transport.Conn, payload []byte) error {
	start := time.Now()
	r := wire.NewReader(bytes.NewReader(payload))
	bundle, err := keys.DecodePublicKeyBundle(r)
	if err != nil {
		return conn.Send(transport.MsgReject, nil)
	}
	candidate, err := stage.DecodeStage1(r)
	if err != nil {
		return conn.Send(transport.MsgReject, nil)
	}

	p, ok := d.co.CurrentTurn()
	if !ok {
		return conn.Send(transport.MsgReject, nil)
	}

	if err := d.co.SubmitPubkeyRound(bundle, candidate); err != nil {
		d.log.Error("pubkey round bookkeeping error: %v", err)
		return conn.Send(transport.MsgReject, nil)
	}
	d.metrics.ObserveRoundDuration("pubkey", time.Since(start))

	if p.Rejected {
		d.metrics.RecordRejected("pubkey", p.RejectReason)
		d.log.Audit("round.rejected", map[string]interface{}{"participant": p.ID, "round": "pubkey", "reason": p.RejectReason})
		if err := conn.Send(transport.MsgReject, nil); err != nil {
			return err
		}
	} else {
		d.metrics.RecordAccepted("pubkey")
		d.log.Audit("round.accepted", map[string]interface{}{"participant": p.ID, "round": "pubkey"})
	}

	return d.advance()
}

func (d *daemon) handleStage2(conn *transport.Conn, payload []byte) error {
	start := time.Now()
	candidate, err := stage.DecodeStage2(wire.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return conn.Send(transport.MsgReject, nil)
	}
	p, ok := d.co.CurrentTurn()
	if !ok {
		return conn.Send(transport.MsgReject, nil)
	}
	if err := d.co.SubmitStage2(candidate); err != nil {
		d.log.Error("stage2 bookkeeping error: %v", err)
		return conn.Send(transport.MsgReject, nil)
	}
	d.metrics.ObserveRoundDuration("stage2", time.Since(start))

	if p.Rejected {
		d.metrics.RecordRejected("stage2", p.RejectReason)
		d.log.Audit("round.rejected", map[string]interface{}{"participant": p.ID, "round": "stage2", "reason": p.RejectReason})
		if err := conn.Send(transport.MsgReject, nil); err != nil {
			return err
		}
	} else {
		d.metrics.RecordAccepted("stage2")
		d.log.Audit("round.accepted", map[string]interface{}{"participant": p.ID, "round": "stage2"})
	}
	return d.advance()
}

func (d *daemon) handleStage3(conn *transport.Conn, payload []byte) error {
	start := time.Now()
	candidate, err := stage.DecodeStage3(wire.NewReader(bytes.NewReader(payload)))
	if err != nil {
		return conn.Send(transport.MsgReject, nil)
	}
	p, ok := d.co.CurrentTurn()
	if !ok {
		return conn.Send(transport.MsgReject, nil)
	}
	if err := d.co.SubmitStage3(candidate); err != nil {
		d.log.Error("stage3 bookkeeping error: %v", err)
		return conn.Send(transport.MsgReject, nil)
	}
	d.metrics.ObserveRoundDuration("stage3", time.Since(start))

	if p.Rejected {
		d.metrics.RecordRejected("stage3", p.RejectReason)
		d.log.Audit("round.rejected", map[string]interface{}{"participant": p.ID, "round": "stage3", "reason": p.RejectReason})
		if err := conn.Send(transport.MsgReject, nil); err != nil {
			return err
		}
	} else {
		d.metrics.RecordAccepted("stage3")
		d.log.Audit("round.accepted", map[string]interface{}{"participant": p.ID, "round": "stage3"})
		if err := conn.Send(transport.MsgAck, nil); err != nil {
			return err
		}
	}
	return d.advance()
}

// advance sends the next participant's turn request for whichever round
// the ceremony is now in, or marks the ceremony done.
func (d *daemon) advance() error {
	d.metrics.SetActiveRound(int(d.co.Round()))
	switch d.co.Round() {
	case coordinator.RoundPubkey:
		return d.sendStage1(d.co.CurrentStage1())
	case coordinator.RoundStage2:
		return d.sendStage2(d.co.CurrentStage2())
	case coordinator.RoundStage3:
		return d.sendStage3(d.co.CurrentStage3())
	case coordinator.RoundDone:
		d.log.Info("ceremony complete: %d participants processed", len(d.co.Participants()))
		d.finish()
		return nil
	default:
		return nil
	}
}

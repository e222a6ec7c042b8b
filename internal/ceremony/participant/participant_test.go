package participant_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/participant"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

func dummyCS(t *testing.T) qap.ConstraintSystem {
	t.Helper()
	const d = 8
	cs, err := qap.NewDummyConstraintSystem(d, 5, 2, qap.RootOfUnity(d))
	require.NoError(t, err)
	return cs
}

// TestParticipantRunsStage1RoundTrip drives a Participant against a minimal
// single-participant coordinator stand-in built directly on transport, and
// confirms the coordinator side independently verifies the participant's
// NIZKs and stage1 transform.
func TestParticipantRunsStage1RoundTrip(t *testing.T) {
	addr := "localhost:19300"
	cs := dummyCS(t)
	workers := parallel.DefaultWorkers()

	initial := stage.NewStage1(cs)
	var initialBuf bytes.Buffer
	initial.Encode(wire.NewWriter(&initialBuf))

	server := transport.NewServer(addr)
	verified := make(chan error, 1)

	server.RegisterHandler(transport.MsgCommitment, func(conn *transport.Conn, payload []byte) error {
		ctx := digest.Sum512(payload)
		if err := conn.Send(transport.MsgContext, ctx[:]); err != nil {
			return err
		}
		return conn.Send(transport.MsgStage1, initialBuf.Bytes())
	})
	server.RegisterHandler(transport.MsgPubkeyRound, func(conn *transport.Conn, payload []byte) error {
		r := wire.NewReader(bytes.NewReader(payload))
		bundle, err := keys.DecodePublicKeyBundle(r)
		if err != nil {
			verified <- err
			return conn.Send(transport.MsgReject, nil)
		}
		candidate, err := stage.DecodeStage1(r)
		if err != nil {
			verified <- err
			return conn.Send(transport.MsgReject, nil)
		}

		pkHash := bundle.PublicKey.Hash()
		ctx := digest.Sum512(pkHash[:])
		if !bundle.IsValid(ctx) {
			verified <- errors.New("nizks failed to verify")
			return conn.Send(transport.MsgReject, nil)
		}
		ok, err := stage.VerifyTransform1(initial, candidate, bundle.PublicKey, workers)
		if err != nil {
			verified <- err
			return conn.Send(transport.MsgReject, nil)
		}
		if !ok {
			verified <- errors.New("stage1 transform failed to verify")
			return conn.Send(transport.MsgReject, nil)
		}
		verified <- nil
		return conn.Send(transport.MsgAck, nil)
	})

	ready := make(chan struct{})
	require.NoError(t, server.Start(ready))
	<-ready

	conn, err := transport.Dial(addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	p, err := participant.New(workers)
	require.NoError(t, err)

	require.NoError(t, p.Run(conn))

	select {
	case err := <-verified:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator side never finished verifying the contribution")
	}
}

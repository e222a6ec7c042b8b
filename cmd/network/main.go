// Package main is the online half of the air-gapped ceremony variant: it
// dials the coordinator and relays every round the socket carries to and
// from the offline compute half via internal/ceremony/airgap's hash-chained
// disc files, never itself holding the private key that makes a
// contribution. Structural descendant of teacher's cmd/auctiond/main.go's
// registration loop, reduced to a relay with no cryptographic material of
// its own.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/hamzazf/ceremony/internal/ceremony/airgap"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/transport"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
	"github.com/hamzazf/ceremony/internal/ceremonyerr"
	"github.com/hamzazf/ceremony/internal/ceremonylog"
)

func main() {
	coordinatorAddr := flag.String("coordinator", "127.0.0.1:9000", "address of the ceremony coordinator")
	requestPath := flag.String("request", "discB", "disc path this process writes for the compute half to pick up")
	resultPath := flag.String("result", "discC", "disc path the compute half writes its answer to")
	timeoutSeconds := flag.Int("timeout", 30, "seconds to wait when dialing the coordinator")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error, fatal")
	flag.Parse()

	logger, err := ceremonylog.New(*logLevel, "", "")
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	relay := &relay{
		discs:   airgap.NewNetworkRole(),
		request: *requestPath,
		result:  *resultPath,
		logger:  logger,
	}

	commitment, err := relay.roundTrip(transport.MsgCommitment, nil)
	if err != nil {
		logger.Fatal("obtaining commitment from offline compute half: %v", err)
		return
	}
	if len(commitment) != 32 {
		logger.Fatal("offline compute half returned a malformed commitment")
		return
	}

	dialTimeout := time.Duration(*timeoutSeconds) * time.Second
	logger.Info("dialing coordinator at %s", *coordinatorAddr)
	conn, err := transport.DialWithBackoff(context.Background(), *coordinatorAddr, dialTimeout, 5)
	if err != nil {
		logger.Fatal("dialing coordinator: %v", err)
		return
	}
	defer conn.Close()

	if err := conn.Send(transport.MsgCommitment, commitment); err != nil {
		logger.Fatal("sending commitment: %v", err)
		return
	}

	msgType, payload, err := conn.Recv()
	if err != nil {
		logger.Fatal("waiting for ceremony context: %v", err)
		return
	}
	if msgType != transport.MsgContext || len(payload) != len(digest.Digest512{}) {
		logger.Fatal("expected ceremony context from coordinator")
		return
	}
	var ctx digest.Digest512
	copy(ctx[:], payload)
	logger.Info("received ceremony context, relaying rounds to %s / %s", *requestPath, *resultPath)

	for {
		msgType, payload, err := conn.Recv()
		if err != nil {
			logger.Fatal("waiting for coordinator: %v", err)
			return
		}
		switch msgType {
		case transport.MsgStage1:
			reply, err := relay.roundTripStage1(ctx, payload)
			if err != nil {
				logger.Fatal("relaying stage1 round: %v", err)
				return
			}
			if err := conn.Send(transport.MsgPubkeyRound, reply); err != nil {
				logger.Fatal("sending stage1 response: %v", err)
				return
			}
		case transport.MsgStage2:
			reply, err := relay.roundTrip(transport.MsgStage2, payload)
			if err != nil {
				logger.Fatal("relaying stage2 round: %v", err)
				return
			}
			if err := conn.Send(transport.MsgStage2, reply); err != nil {
				logger.Fatal("sending stage2 response: %v", err)
				return
			}
		case transport.MsgStage3:
			reply, err := relay.roundTrip(transport.MsgStage3, payload)
			if err != nil {
				logger.Fatal("relaying stage3 round: %v", err)
				return
			}
			if err := conn.Send(transport.MsgStage3, reply); err != nil {
				logger.Fatal("sending stage3 response: %v", err)
				return
			}
		case transport.MsgAck:
			fmt.Println("OK: contribution accepted")
			logger.Info("contribution accepted")
			return
		case transport.MsgReject:
			fmt.Println("FAIL: coordinator rejected our contribution")
			logger.Error("coordinator rejected our contribution")
			return
		default:
			logger.Fatal("unexpected message from coordinator")
			return
		}
	}
}

// relay hands every round off to the offline compute half through a pair
// of disc files, never holding the private key itself.
type relay struct {
	discs   *airgap.NetworkRole
	request string
	result  string
	logger  *ceremonylog.Logger
}

// roundTrip writes a request disc tagging msgType with body, waits for the
// operator to carry it to and from the offline machine, and returns the
// decoded response body once the result disc appears.
func (r *relay) roundTrip(msgType transport.MessageType, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.Byte(byte(msgType))
	w.Bytes(body)
	if w.Err() != nil {
		return nil, w.Err()
	}

	if err := r.discs.WriteRequest(r.request, buf.Bytes()); err != nil {
		return nil, err
	}
	r.logger.Info("wrote request disc %s, waiting for result disc %s", r.request, r.result)

	return r.waitForResult()
}

// roundTripStage1 additionally carries the shared ceremony context the
// pubkey round's NIZKs must be bound to.
func (r *relay) roundTripStage1(ctx digest.Digest512, body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.Byte(byte(transport.MsgStage1))
	w.Digest512(ctx)
	w.Bytes(body)
	if w.Err() != nil {
		return nil, w.Err()
	}

	if err := r.discs.WriteRequest(r.request, buf.Bytes()); err != nil {
		return nil, err
	}
	r.logger.Info("wrote request disc %s, waiting for result disc %s", r.request, r.result)

	return r.waitForResult()
}

// waitForResult polls the result disc path until it appears with the
// expected chain continuation, simulating the physical hand-off an
// operator performs between the two machines.
func (r *relay) waitForResult() ([]byte, error) {
	const pollInterval = 500 * time.Millisecond
	const maxWait = 10 * time.Minute
	deadline := time.Now().Add(maxWait)
	for {
		payload, err := r.discs.ReadResult(r.result)
		if err == nil {
			reader := wire.NewReader(bytes.NewReader(payload))
			reader.Byte() // echoed message type, already known by the caller
			body := reader.Bytes()
			if reader.Err() != nil {
				return nil, reader.Err()
			}
			return body, nil
		}
		if time.Now().After(deadline) {
			return nil, ceremonyerr.New(ceremonyerr.Timeout, "network: timed out waiting for result disc")
		}
		time.Sleep(pollInterval)
	}
}

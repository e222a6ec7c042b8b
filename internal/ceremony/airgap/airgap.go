// Package airgap implements the optional air-gapped variant of the
// ceremony: a participant splits into an offline compute half and an online
// network half, exchanging numbered disc files instead of talking directly
// over a socket. Each disc's header carries the hash of the disc before it,
// so a network role can detect a disc that was skipped, duplicated, or
// swapped during the physical hand-off. Generalized from the teacher's
// internal/zerocash/ledger.go file round-trip (SaveToFile/LoadLedgerFromFile)
// from a single JSON ledger to a hash-chained binary disc sequence.
package airgap

import (
	"bytes"
	"os"

	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

// DiscNames is the canonical six-disc sequence for a full participant round:
// the incoming commitment context, the three stage transforms, the outgoing
// commitment, and the final accepted public-key bundle.
var DiscNames = [6]string{"discA", "discB", "discC", "discD", "discE", "discF"}

// Hash computes a disc's content hash, covering its index, the previous
// disc's hash, and its payload.
func Hash(index uint32, prevHash digest.Digest256, payload []byte) digest.Digest256 {
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	w.Uint32(index)
	w.Digest256(prevHash)
	w.Bytes(payload)
	return digest.Sum256(buf.Bytes())
}

// WriteDisc writes one numbered disc file, overwriting path if it exists.
func WriteDisc(path string, index uint32, prevHash digest.Digest256, payload []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "airgap: creating disc file")
	}
	defer f.Close()

	w := wire.NewWriter(f)
	w.Uint32(index)
	w.Digest256(prevHash)
	w.Bytes(payload)
	if w.Err() != nil {
		return errors.Wrap(w.Err(), "airgap: writing disc")
	}
	return nil
}

// ReadDisc reads and decodes a disc file.
func ReadDisc(path string) (index uint32, prevHash digest.Digest256, payload []byte, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return 0, digest.Digest256{}, nil, errors.Wrap(openErr, "airgap: opening disc file")
	}
	defer f.Close()

	r := wire.NewReader(f)
	index = r.Uint32()
	prevHash = r.Digest256()
	payload = r.Bytes()
	if r.Err() != nil {
		return 0, digest.Digest256{}, nil, errors.Wrap(r.Err(), "airgap: reading disc")
	}
	return index, prevHash, payload, nil
}

// ComputeRole is the offline half of the exchange: it never touches a
// network socket, only disc files. ComputeRole reads a request disc
// written by a NetworkRole, runs transform on its payload with no network
// access required, and writes a result disc that continues the same hash
// chain, ready to be physically carried back.
func ComputeRole(requestPath, resultPath string, transform func(payload []byte) ([]byte, error)) error {
	index, prevHash, payload, err := ReadDisc(requestPath)
	if err != nil {
		return err
	}
	out, err := transform(payload)
	if err != nil {
		return errors.Wrap(err, "airgap: transform failed")
	}
	requestHash := Hash(index, prevHash, payload)
	return WriteDisc(resultPath, index+1, requestHash, out)
}

// NetworkRole is the online half of the exchange. It writes the request
// discs compute picks up and reads back the result discs compute produces,
// verifying each result continues the chain from the request that produced
// it.
type NetworkRole struct {
	index    uint32
	lastHash digest.Digest256
}

// NewNetworkRole starts a fresh disc sequence.
func NewNetworkRole() *NetworkRole { return &NetworkRole{} }

// WriteRequest writes the next request disc in sequence.
func (n *NetworkRole) WriteRequest(path string, payload []byte) error {
	if err := WriteDisc(path, n.index, n.lastHash, payload); err != nil {
		return err
	}
	n.lastHash = Hash(n.index, n.lastHash, payload)
	n.index++
	return nil
}

// ErrBrokenChain is returned when a result disc doesn't continue the chain
// this NetworkRole most recently wrote a request for.
var ErrBrokenChain = errors.New("airgap: result disc does not continue the expected chain")

// ReadResult reads back a result disc produced by the compute role for the
// request this NetworkRole most recently wrote.
func (n *NetworkRole) ReadResult(path string) ([]byte, error) {
	index, prevHash, payload, err := ReadDisc(path)
	if err != nil {
		return nil, err
	}
	if index != n.index || prevHash != n.lastHash {
		return nil, ErrBrokenChain
	}
	n.lastHash = Hash(index, prevHash, payload)
	n.index++
	return payload, nil
}

// Package transcript implements the ceremony's append-only record: every
// participant's initial commitment, then their accepted public key and
// stage contributions, each entry chained to the previous one by a rolling
// 256-bit hash so a verifier can detect any reordering or truncation during
// replay. Grounded on original_source/src/coordinator.rs's transcript file
// writes (encode_into(..., &mut transcript, ...) after every accepted
// round), reimplemented over the wire package instead of bincode.
package transcript

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

// ComputeHCommit derives the 512-bit domain-separation tag every
// participant's NIZKs are bound to, from the full set of initial
// commitments in submission order. Changing the player set or their order
// changes every subsequent NIZK's challenge, so a coordinator cannot
// silently swap a late joiner's commitment in after the fact.
func ComputeHCommit(commitments []digest.Digest256) digest.Digest512 {
	var buf bytes.Buffer
	for _, c := range commitments {
		buf.Write(c[:])
	}
	return digest.Sum512(buf.Bytes())
}

// Writer appends ceremony rounds to an underlying io.Writer, maintaining
// the rolling interim hash that chains every entry to the ones before it.
type Writer struct {
	w       io.Writer
	interim digest.Digest256
}

// NewWriter starts a fresh transcript for a ceremony of numPlayers
// participants, writing the player count as the transcript's header and
// seeding the hash chain from it.
func NewWriter(w io.Writer, numPlayers int) (*Writer, error) {
	var header bytes.Buffer
	hw := wire.NewWriter(&header)
	hw.Uint64(uint64(numPlayers))
	if hw.Err() != nil {
		return nil, errors.Wrap(hw.Err(), "transcript: encoding header")
	}
	if _, err := w.Write(header.Bytes()); err != nil {
		return nil, errors.Wrap(err, "transcript: writing header")
	}
	return &Writer{w: w, interim: digest.Sum256(header.Bytes())}, nil
}

// Interim returns the current rolling hash, the value folded into the next
// entry's hash.
func (w *Writer) Interim() digest.Digest256 { return w.interim }

// WriteCommitment appends a participant's initial commitment to the
// transcript and folds it into the rolling hash.
func (w *Writer) WriteCommitment(c digest.Digest256) error {
	return w.writeEntry(func(ew *wire.Writer) {
		ew.Digest256(c)
	})
}

// WritePubkeyRound appends one participant's turn in the pubkey round: a
// leading accepted flag, then — only if accepted — their public-key bundle
// and the Stage1 value produced by their transform. A rejected turn still
// writes an entry (the flag alone) so the transcript itself records the
// skip rather than leaving a gap a verifier could confuse with truncation.
func (w *Writer) WritePubkeyRound(bundle *keys.PublicKeyBundle, after *stage.Stage1, accepted bool) error {
	return w.writeEntry(func(ew *wire.Writer) {
		ew.Bool(accepted)
		if accepted {
			bundle.Encode(ew)
			after.Encode(ew)
		}
	})
}

// WriteStage2Round appends one participant's turn in the stage2 round,
// following the same accepted-flag convention as WritePubkeyRound.
func (w *Writer) WriteStage2Round(after *stage.Stage2, accepted bool) error {
	return w.writeEntry(func(ew *wire.Writer) {
		ew.Bool(accepted)
		if accepted {
			after.Encode(ew)
		}
	})
}

// WriteStage3Round appends one participant's turn in the stage3 round,
// following the same accepted-flag convention as WritePubkeyRound.
func (w *Writer) WriteStage3Round(after *stage.Stage3, accepted bool) error {
	return w.writeEntry(func(ew *wire.Writer) {
		ew.Bool(accepted)
		if accepted {
			after.Encode(ew)
		}
	})
}

// writeEntry encodes an entry's payload to a buffer so it can both be
// written out and folded into the rolling hash, then writes the payload
// followed by the new interim hash.
func (w *Writer) writeEntry(encode func(ew *wire.Writer)) error {
	var buf bytes.Buffer
	ew := wire.NewWriter(&buf)
	encode(ew)
	if ew.Err() != nil {
		return errors.Wrap(ew.Err(), "transcript: encoding entry")
	}

	next := digest.Sum256(append(append([]byte(nil), w.interim[:]...), buf.Bytes()...))

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "transcript: writing entry")
	}

	var hashBuf bytes.Buffer
	hw := wire.NewWriter(&hashBuf)
	hw.Digest256(next)
	if _, err := w.w.Write(hashBuf.Bytes()); err != nil {
		return errors.Wrap(err, "transcript: writing entry hash")
	}

	w.interim = next
	return nil
}

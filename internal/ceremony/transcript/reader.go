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

// ErrHashMismatch is returned when a replayed entry's recomputed rolling
// hash doesn't match the hash stored alongside it, meaning the transcript
// was truncated, reordered, or tampered with.
var ErrHashMismatch = errors.New("transcript: entry hash mismatch")

// Reader replays a transcript written by Writer, recomputing the rolling
// hash chain as it goes and failing closed the moment a stored hash
// doesn't match.
type Reader struct {
	r          io.Reader
	NumPlayers int
	interim    digest.Digest256
}

// NewReader reads a transcript's header and prepares to replay its
// entries.
func NewReader(r io.Reader) (*Reader, error) {
	var header bytes.Buffer
	tee := io.TeeReader(r, &header)
	hr := wire.NewReader(tee)
	n := hr.Uint64()
	if hr.Err() != nil {
		return nil, errors.Wrap(hr.Err(), "transcript: reading header")
	}
	return &Reader{r: r, NumPlayers: int(n), interim: digest.Sum256(header.Bytes())}, nil
}

// Interim returns the current rolling hash.
func (r *Reader) Interim() digest.Digest256 { return r.interim }

// ReadCommitment reads and verifies the next commitment entry.
func (r *Reader) ReadCommitment() (digest.Digest256, error) {
	var c digest.Digest256
	err := r.readEntry(func(dr *wire.Reader) {
		c = dr.Digest256()
	})
	return c, err
}

// ReadPubkeyRound reads one participant's turn in the pubkey round. accepted
// reports whether that participant's contribution was accepted; bundle and
// after are only populated when it was.
func (r *Reader) ReadPubkeyRound() (bundle *keys.PublicKeyBundle, after *stage.Stage1, accepted bool, err error) {
	err = r.readEntry(func(dr *wire.Reader) {
		accepted = dr.Bool()
		if !accepted {
			return
		}
		b, bErr := keys.DecodePublicKeyBundle(dr)
		if bErr != nil {
			dr.Fail(bErr)
			return
		}
		s1, s1Err := stage.DecodeStage1(dr)
		if s1Err != nil {
			dr.Fail(s1Err)
			return
		}
		bundle = b
		after = s1
	})
	return bundle, after, accepted, err
}

// ReadStage2Round reads one participant's turn in the stage2 round.
func (r *Reader) ReadStage2Round() (after *stage.Stage2, accepted bool, err error) {
	err = r.readEntry(func(dr *wire.Reader) {
		accepted = dr.Bool()
		if !accepted {
			return
		}
		s2, s2Err := stage.DecodeStage2(dr)
		if s2Err != nil {
			dr.Fail(s2Err)
			return
		}
		after = s2
	})
	return after, accepted, err
}

// ReadStage3Round reads one participant's turn in the stage3 round.
func (r *Reader) ReadStage3Round() (after *stage.Stage3, accepted bool, err error) {
	err = r.readEntry(func(dr *wire.Reader) {
		accepted = dr.Bool()
		if !accepted {
			return
		}
		s3, s3Err := stage.DecodeStage3(dr)
		if s3Err != nil {
			dr.Fail(s3Err)
			return
		}
		after = s3
	})
	return after, accepted, err
}

// readEntry decodes one entry's payload while teeing the raw bytes
// consumed into a buffer, then reads the trailing stored hash directly
// (untee'd) and checks it against the hash recomputed over interim and the
// buffered payload bytes.
func (r *Reader) readEntry(decode func(dr *wire.Reader)) error {
	var buf bytes.Buffer
	tee := io.TeeReader(r.r, &buf)
	dr := wire.NewReader(tee)
	decode(dr)
	if dr.Err() != nil {
		return errors.Wrap(dr.Err(), "transcript: decoding entry")
	}

	next := digest.Sum256(append(append([]byte(nil), r.interim[:]...), buf.Bytes()...))

	hr := wire.NewReader(r.r)
	got := hr.Digest256()
	if hr.Err() != nil {
		return errors.Wrap(hr.Err(), "transcript: reading entry hash")
	}
	if got != next {
		return ErrHashMismatch
	}

	r.interim = next
	return nil
}

// Package digest provides the two hash widths the ceremony uses to bind
// canonical serialized values to fixed-size identifiers: a 256-bit digest
// for human-facing public-key commitments and transcript chaining, and a
// 512-bit digest for NIZK challenges and the H_commit domain tag.
package digest

import (
	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
)

// Digest256 is a 256-bit blake2s digest.
type Digest256 [32]byte

// Digest512 is a 512-bit blake2b digest.
type Digest512 [64]byte

// base58check version byte for Digest256's human-facing string form.
const digest256Version = 0x00

// Sum256 hashes b with blake2s-256.
func Sum256(b []byte) Digest256 {
	return Digest256(blake2s.Sum256(b))
}

// Sum512 hashes b with blake2b-512.
func Sum512(b []byte) Digest512 {
	return Digest512(blake2b.Sum512(b))
}

// InterpretFr reduces the 512-bit digest into the bn254 scalar field,
// matching gnark-crypto's wide-input reduction semantics.
func (d Digest512) InterpretFr() curve.Fr {
	var f curve.Fr
	f.SetBytes(d[:])
	return f
}

// String renders the digest as a base58check string: typo-resistant and
// safe to read aloud or copy between participants.
func (d Digest256) String() string {
	return base58.CheckEncode(d[:], digest256Version)
}

// ParseDigest256 parses a base58check string produced by String. It
// returns false if the checksum fails or the payload is not 32 bytes.
func ParseDigest256(s string) (Digest256, bool) {
	var out Digest256
	payload, version, err := base58.CheckDecode(s)
	if err != nil || version != digest256Version || len(payload) != len(out) {
		return out, false
	}
	copy(out[:], payload)
	return out, true
}

// Equal reports whether two digests are byte-identical.
func (d Digest256) Equal(other Digest256) bool { return d == other }

// Equal reports whether two digests are byte-identical.
func (d Digest512) Equal(other Digest512) bool { return d == other }

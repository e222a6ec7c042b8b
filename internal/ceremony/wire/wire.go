// Package wire implements the deterministic little-endian binary encoding
// every ceremony message and transcript entry is serialized with. No
// reflection-based codec (encoding/gob, encoding/json) ever touches wire
// bytes: the interim-hash chain and transcript replay depend on byte-exact,
// hand-controlled serialization the way gnark-crypto group elements are
// marshaled, not on a generic encoder's field ordering.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/digest"
)

// Writer accumulates an encoding error across a sequence of writes so call
// sites don't have to check after every field.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Uint64 writes n as 8 little-endian bytes.
func (w *Writer) Uint64(n uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], n)
	w.write(buf[:])
}

// Uint32 writes n as 4 little-endian bytes.
func (w *Writer) Uint32(n uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], n)
	w.write(buf[:])
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.write([]byte{b})
}

// Bool writes a single byte, 1 for true and 0 for false.
func (w *Writer) Bool(b bool) {
	if b {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}

// Bytes writes a length-prefixed byte slice.
func (w *Writer) Bytes(b []byte) {
	w.Uint64(uint64(len(b)))
	w.write(b)
}

// Fr writes a scalar in its canonical 32-byte big-endian form (the form
// gnark-crypto's fr.Element.Bytes returns).
func (w *Writer) Fr(f curve.Fr) {
	b := f.Bytes()
	w.write(b[:])
}

// G1 writes a G1 point in gnark-crypto's canonical compressed form.
func (w *Writer) G1(p curve.G1) {
	b := p.Bytes()
	w.write(b[:])
}

// G2 writes a G2 point in gnark-crypto's canonical compressed form.
func (w *Writer) G2(p curve.G2) {
	b := p.Bytes()
	w.write(b[:])
}

// Digest256 writes a 256-bit digest verbatim.
func (w *Writer) Digest256(d digest.Digest256) {
	w.write(d[:])
}

// Digest512 writes a 512-bit digest verbatim.
func (w *Writer) Digest512(d digest.Digest512) {
	w.write(d[:])
}

// Reader mirrors Writer: it accumulates the first decode error across a
// sequence of reads.
type Reader struct {
	r   io.Reader
	err error
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader { return &Reader{r: r} }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Fail records err as the reader's first error if none is set yet. Lets a
// decode callback built on top of Reader (one that validates a decoded
// value beyond what SetBytes already checks) report failure through the
// same accumulated-error mechanism as the primitive reads.
func (r *Reader) Fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *Reader) read(buf []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, buf)
}

// Uint64 reads 8 little-endian bytes.
func (r *Reader) Uint64() uint64 {
	var buf [8]byte
	r.read(buf[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// Uint32 reads 4 little-endian bytes.
func (r *Reader) Uint32() uint32 {
	var buf [4]byte
	r.read(buf[:])
	return binary.LittleEndian.Uint32(buf[:])
}

// Byte reads a single byte.
func (r *Reader) Byte() byte {
	var buf [1]byte
	r.read(buf[:])
	return buf[0]
}

// Bool reads a single byte and reports whether it was nonzero.
func (r *Reader) Bool() bool {
	return r.Byte() != 0
}

// maxBytesLen bounds length-prefixed reads against a corrupt or hostile
// length field; no ceremony message needs a field anywhere near this size.
const maxBytesLen = 1 << 28

// Bytes reads a length-prefixed byte slice.
func (r *Reader) Bytes() []byte {
	n := r.Uint64()
	if r.err != nil {
		return nil
	}
	if n > maxBytesLen {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	buf := make([]byte, n)
	r.read(buf)
	return buf
}

// Fr reads a canonical 32-byte scalar. SetBytesCanonical rejects values
// that are not below the field modulus.
func (r *Reader) Fr() curve.Fr {
	var buf [32]byte
	r.read(buf[:])
	var f curve.Fr
	if r.err == nil {
		r.err = f.SetBytesCanonical(buf[:])
	}
	return f
}

// G1 reads a canonical compressed G1 point, rejecting non-canonical
// encodings and points off-curve or outside the prime-order subgroup.
func (r *Reader) G1() curve.G1 {
	var buf [32]byte
	r.read(buf[:])
	var p curve.G1
	if r.err == nil {
		_, r.err = p.SetBytes(buf[:])
	}
	return p
}

// G2 reads a canonical compressed G2 point, rejecting non-canonical
// encodings and points off-curve or outside the prime-order subgroup.
func (r *Reader) G2() curve.G2 {
	var buf [64]byte
	r.read(buf[:])
	var p curve.G2
	if r.err == nil {
		_, r.err = p.SetBytes(buf[:])
	}
	return p
}

// Digest256 reads a 256-bit digest verbatim.
func (r *Reader) Digest256() digest.Digest256 {
	var d digest.Digest256
	r.read(d[:])
	return d
}

// Digest512 reads a 512-bit digest verbatim.
func (r *Reader) Digest512() digest.Digest512 {
	var d digest.Digest512
	r.read(d[:])
	return d
}

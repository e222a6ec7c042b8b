package qap

import (
	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

// VerificationKey is the final verification key assembled from the
// ceremony's accumulated verification-key elements, per spec.md §4.6's
// Stage2/Stage3 vk_* fields.
type VerificationKey struct {
	VkA    curve.G2
	VkB    curve.G1
	VkC    curve.G2
	VkZ    curve.G2
	VkGamma curve.G2
	VkBetaGamma1 curve.G1
	VkBetaGamma2 curve.G2
}

// ProvingKey is the final proving key assembled from the ceremony's
// accumulated proving-key vectors.
type ProvingKey struct {
	PkA     []curve.G1
	PkAPrime []curve.G1
	PkB     []curve.G2
	PkBTemp []curve.G1
	PkBPrime []curve.G1
	PkC     []curve.G1
	PkCPrime []curve.G1
	PkK     []curve.G1
}

// AssembledKeypair is the ceremony's final output: the proving and
// verification key pair for the circuit the ConstraintSystem encodes.
type AssembledKeypair struct {
	ProvingKey      *ProvingKey
	VerificationKey *VerificationKey
}

// Encode writes the assembled keypair in the ceremony's wire format, so a
// coordinator can persist its output and a later process can load it back
// without re-running the ceremony.
func (k *AssembledKeypair) Encode(w *wire.Writer) {
	vk := k.VerificationKey
	w.G2(vk.VkA)
	w.G1(vk.VkB)
	w.G2(vk.VkC)
	w.G2(vk.VkZ)
	w.G2(vk.VkGamma)
	w.G1(vk.VkBetaGamma1)
	w.G2(vk.VkBetaGamma2)

	pk := k.ProvingKey
	encodeG1Vec(w, pk.PkA)
	encodeG1Vec(w, pk.PkAPrime)
	encodeG2Vec(w, pk.PkB)
	encodeG1Vec(w, pk.PkBTemp)
	encodeG1Vec(w, pk.PkBPrime)
	encodeG1Vec(w, pk.PkC)
	encodeG1Vec(w, pk.PkCPrime)
	encodeG1Vec(w, pk.PkK)
}

// DecodeKeypair reads an AssembledKeypair from r.
func DecodeKeypair(r *wire.Reader) (*AssembledKeypair, error) {
	vk := &VerificationKey{
		VkA:          r.G2(),
		VkB:          r.G1(),
		VkC:          r.G2(),
		VkZ:          r.G2(),
		VkGamma:      r.G2(),
		VkBetaGamma1: r.G1(),
		VkBetaGamma2: r.G2(),
	}
	pk := &ProvingKey{
		PkA:      decodeG1Vec(r),
		PkAPrime: decodeG1Vec(r),
		PkB:      decodeG2Vec(r),
		PkBTemp:  decodeG1Vec(r),
		PkBPrime: decodeG1Vec(r),
		PkC:      decodeG1Vec(r),
		PkCPrime: decodeG1Vec(r),
		PkK:      decodeG1Vec(r),
	}
	if r.Err() != nil {
		return nil, r.Err()
	}
	return &AssembledKeypair{ProvingKey: pk, VerificationKey: vk}, nil
}

func encodeG1Vec(w *wire.Writer, v []curve.G1) {
	w.Uint64(uint64(len(v)))
	for _, p := range v {
		w.G1(p)
	}
}

func encodeG2Vec(w *wire.Writer, v []curve.G2) {
	w.Uint64(uint64(len(v)))
	for _, p := range v {
		w.G2(p)
	}
}

func decodeG1Vec(r *wire.Reader) []curve.G1 {
	n := r.Uint64()
	if r.Err() != nil {
		return nil
	}
	v := make([]curve.G1, n)
	for i := range v {
		v[i] = r.G1()
	}
	return v
}

func decodeG2Vec(r *wire.Reader) []curve.G2 {
	n := r.Uint64()
	if r.Err() != nil {
		return nil
	}
	v := make([]curve.G2, n)
	for i := range v {
		v[i] = r.G2()
	}
	return v
}

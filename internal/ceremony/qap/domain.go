package qap

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
)

// RootOfUnity returns a primitive d-th root of unity in Fr for a domain of
// size d (rounded up to the next power of two by the underlying fft
// package if d is not already one). Used to build a ConstraintSystem's
// Omega() without hand-rolling root-of-unity search; the ceremony itself
// only ever consumes the root, never builds a domain transform with it.
func RootOfUnity(d int) curve.Fr {
	domain := fft.NewDomain(uint64(d))
	return domain.Generator
}

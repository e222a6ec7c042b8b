// Package curve centralizes the bn254 types and derived operations the
// ceremony protocol needs on top of gnark-crypto: affine scalar
// multiplication directly from an Fr, generator lookup, and uniform
// sampling of nonzero scalars. No field or pairing arithmetic is
// reimplemented here.
package curve

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Fr is the bn254 scalar field element type.
type Fr = fr.Element

// G1 is an affine point on the bn254 G1 curve.
type G1 = bn254.G1Affine

// G2 is an affine point on the bn254 G2 curve (over Fp2).
type G2 = bn254.G2Affine

// GT is an element of the bn254 pairing target group.
type GT = bn254.GT

var g1Gen, g2Gen = func() (G1, G2) {
	_, _, g1, g2 := bn254.Generators()
	return g1, g2
}()

// G1Generator returns the fixed generator of G1.
func G1Generator() G1 { return g1Gen }

// G2Generator returns the fixed generator of G2.
func G2Generator() G2 { return g2Gen }

// MulG1 computes s*p for an affine G1 point p and scalar s.
func MulG1(p *G1, s *Fr) G1 {
	var out G1
	var exp big.Int
	out.ScalarMultiplication(p, s.BigInt(&exp))
	return out
}

// MulG2 computes s*p for an affine G2 point p and scalar s.
func MulG2(p *G2, s *Fr) G2 {
	var out G2
	var exp big.Int
	out.ScalarMultiplication(p, s.BigInt(&exp))
	return out
}

// BaseMulG1 computes s*G1 for the fixed G1 generator.
func BaseMulG1(s *Fr) G1 {
	return MulG1(&g1Gen, s)
}

// BaseMulG2 computes s*G2 for the fixed G2 generator.
func BaseMulG2(s *Fr) G2 {
	return MulG2(&g2Gen, s)
}

// RandomNonzeroFr samples a uniformly random nonzero scalar.
func RandomNonzeroFr() (Fr, error) {
	var f Fr
	for {
		if _, err := f.SetRandom(); err != nil {
			return f, err
		}
		if !f.IsZero() {
			return f, nil
		}
	}
}

// Pair computes the bn254 optimal ate pairing e(a, b).
func Pair(a G1, b G2) (GT, error) {
	return bn254.Pair([]G1{a}, []G2{b})
}

// EqualGT reports whether two GT elements are equal by comparing their
// canonical marshaled form.
func EqualGT(a, b GT) bool {
	ab := a.Marshal()
	bb := b.Marshal()
	return string(ab) == string(bb)
}

// IsZeroG1 reports whether p is the point at infinity.
func IsZeroG1(p *G1) bool { return p.IsInfinity() }

// IsZeroG2 reports whether p is the point at infinity.
func IsZeroG2(p *G2) bool { return p.IsInfinity() }

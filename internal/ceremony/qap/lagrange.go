package qap

import (
	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
)

// LagrangeCoeffsG1 interpolates v (length d, a power of two) at the d-th
// roots of unity generated by omega: inverse FFT, reverse, then scale by
// d^-1. Mirrors protocol/qap.rs's lagrange_coeffs.
func LagrangeCoeffsG1(v []curve.G1, omega curve.Fr, workers int) ([]curve.G1, error) {
	var omegaInv curve.Fr
	omegaInv.Inverse(&omega)

	out := fftG1(v, omegaInv, 0)
	reverseG1(out)

	var dInv curve.Fr
	dInv.SetUint64(uint64(len(v)))
	dInv.Inverse(&dInv)

	if err := parallel.MulAllG1(out, dInv, workers); err != nil {
		return nil, err
	}
	return out, nil
}

// LagrangeCoeffsG2 is LagrangeCoeffsG1's mirror over G2.
func LagrangeCoeffsG2(v []curve.G2, omega curve.Fr, workers int) ([]curve.G2, error) {
	var omegaInv curve.Fr
	omegaInv.Inverse(&omega)

	out := fftG2(v, omegaInv, 0)
	reverseG2(out)

	var dInv curve.Fr
	dInv.SetUint64(uint64(len(v)))
	dInv.Inverse(&dInv)

	if err := parallel.MulAllG2(out, dInv, workers); err != nil {
		return nil, err
	}
	return out, nil
}

func reverseG1(v []curve.G1) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

func reverseG2(v []curve.G2) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}

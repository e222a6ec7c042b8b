package qap

import (
	"golang.org/x/sync/errgroup"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
)

// fftDepthLimit bounds how many recursive splits spawn their own
// goroutines; below this the recursion continues sequentially, matching
// the original's thread-count-gated channel fan-out in
// protocol/qap.rs's fft().
const fftDepthLimit = 3

// fftG1 transforms v (length a power of two) under the primitive root
// omega, producing out[i] = sum over j of v[j]*omega^((i+1)*j), splitting
// the even/odd halves across goroutines down to fftDepthLimit levels of
// recursion.
func fftG1(v []curve.G1, omega curve.Fr, depth int) []curve.G1 {
	n := len(v)
	if n == 1 {
		return []curve.G1{v[0]}
	}
	if n == 2 {
		var sum curve.G1
		sum.Add(&v[0], &v[1])
		scaled := curve.MulG1(&v[1], &omega)
		var a curve.G1
		a.Add(&v[0], &scaled)
		return []curve.G1{a, sum}
	}

	half := n / 2
	evens := make([]curve.G1, half)
	odds := make([]curve.G1, half)
	for i := 0; i < half; i++ {
		evens[i] = v[2*i]
		odds[i] = v[2*i+1]
	}

	var omegaSq curve.Fr
	omegaSq.Mul(&omega, &omega)

	var evenOut, oddOut []curve.G1
	if depth < fftDepthLimit {
		var g errgroup.Group
		g.Go(func() error {
			evenOut = fftG1(evens, omegaSq, depth+1)
			return nil
		})
		g.Go(func() error {
			oddOut = fftG1(odds, omegaSq, depth+1)
			return nil
		})
		_ = g.Wait()
	} else {
		evenOut = fftG1(evens, omegaSq, depth+1)
		oddOut = fftG1(odds, omegaSq, depth+1)
	}

	out := make([]curve.G1, n)
	acc := omega
	for i := 0; i < half; i++ {
		term := curve.MulG1(&oddOut[i], &acc)
		out[i].Add(&evenOut[i], &term)
		out[i+half].Sub(&evenOut[i], &term)
		acc.Mul(&acc, &omega)
	}
	return out
}

// fftG2 is fftG1's mirror over G2.
func fftG2(v []curve.G2, omega curve.Fr, depth int) []curve.G2 {
	n := len(v)
	if n == 1 {
		return []curve.G2{v[0]}
	}
	if n == 2 {
		var sum curve.G2
		sum.Add(&v[0], &v[1])
		scaled := curve.MulG2(&v[1], &omega)
		var a curve.G2
		a.Add(&v[0], &scaled)
		return []curve.G2{a, sum}
	}

	half := n / 2
	evens := make([]curve.G2, half)
	odds := make([]curve.G2, half)
	for i := 0; i < half; i++ {
		evens[i] = v[2*i]
		odds[i] = v[2*i+1]
	}

	var omegaSq curve.Fr
	omegaSq.Mul(&omega, &omega)

	var evenOut, oddOut []curve.G2
	if depth < fftDepthLimit {
		var g errgroup.Group
		g.Go(func() error {
			evenOut = fftG2(evens, omegaSq, depth+1)
			return nil
		})
		g.Go(func() error {
			oddOut = fftG2(odds, omegaSq, depth+1)
			return nil
		})
		_ = g.Wait()
	} else {
		evenOut = fftG2(evens, omegaSq, depth+1)
		oddOut = fftG2(odds, omegaSq, depth+1)
	}

	out := make([]curve.G2, n)
	acc := omega
	for i := 0; i < half; i++ {
		term := curve.MulG2(&oddOut[i], &acc)
		out[i].Add(&evenOut[i], &term)
		out[i+half].Sub(&evenOut[i], &term)
		acc.Mul(&acc, &omega)
	}
	return out
}

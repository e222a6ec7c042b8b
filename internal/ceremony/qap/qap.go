// Package qap implements the QAP evaluator collaborator: turning a
// powers-of-tau vector into evaluations of a constraint system's A, B, C
// polynomials at tau, via an inverse FFT over the evaluation domain
// followed by the constraint system's own linear combination. Grounded on
// original_source/src/protocol/qap.rs (evaluate, lagrange_coeffs, fft).
//
// Circuit design itself — building a ConstraintSystem from an R1CS file —
// is out of scope; ConstraintSystem is a collaborator interface, per
// spec.md's explicit non-goal on circuit design.
package qap

import (
	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
)

// ConstraintSystem is the external collaborator the QAP evaluator asks to
// turn Lagrange-basis evaluations into A/B/C polynomial evaluations. It has
// no keypair-assembly method: stage.Assemble copies the final Stage2 and
// Stage3 values into the proving/verification keypair.
type ConstraintSystem interface {
	// D returns the evaluation domain size, a power of two at least the
	// circuit's wire count.
	D() int
	// N returns the number of QAP variables, including the constant wire.
	N() int
	// NumInputs returns the number of public input variables.
	NumInputs() int
	// Omega returns a primitive D()-th root of unity in Fr.
	Omega() curve.Fr
	// Eval turns the Lagrange-basis evaluations lc1 (G1) and lc2 (G2),
	// each of length D(), into the A, B, C polynomial evaluations at tau:
	// at, ct in G1^N, bt1 in G1^N, bt2 in G2^N.
	Eval(lc1 []curve.G1, lc2 []curve.G2) (at, bt1 []curve.G1, bt2 []curve.G2, ct []curve.G1, err error)
}

// Evaluation is the result of reducing powers-of-tau vectors through a
// ConstraintSystem, per spec.md's §4.7 qap_evaluate.
type Evaluation struct {
	At  []curve.G1
	Bt1 []curve.G1
	Bt2 []curve.G2
	Ct  []curve.G1
}

// Evaluate implements qap_evaluate(v1, v2, cs): Lagrange-interpolates the
// first D() powers of v1/v2 at tau, asks cs to evaluate A/B/C at those
// points, then appends the Z(tau) = v[d] - generator extension row to
// every output vector.
func Evaluate(v1 []curve.G1, v2 []curve.G2, cs ConstraintSystem, workers int) (*Evaluation, error) {
	d := cs.D()
	if len(v1) != d+1 || len(v2) != d+1 {
		return nil, errors.Errorf("qap: expected powers-of-tau vectors of length %d, got %d/%d", d+1, len(v1), len(v2))
	}

	omega := cs.Omega()

	lc1, err := LagrangeCoeffsG1(v1[:d], omega, workers)
	if err != nil {
		return nil, errors.Wrap(err, "qap: lagrange coeffs in G1")
	}
	lc2, err := LagrangeCoeffsG2(v2[:d], omega, workers)
	if err != nil {
		return nil, errors.Wrap(err, "qap: lagrange coeffs in G2")
	}

	at, bt1, bt2, ct, err := cs.Eval(lc1, lc2)
	if err != nil {
		return nil, errors.Wrap(err, "qap: constraint system evaluation")
	}

	zG1 := curve.G1Generator()
	var zAt curve.G1
	zAt.Neg(&zG1)
	zAt.Add(&zAt, &v1[d])

	zG2 := curve.G2Generator()
	var zBt2 curve.G2
	zBt2.Neg(&zG2)
	zBt2.Add(&zBt2, &v2[d])

	at = append(at, zAt)
	bt1 = append(bt1, zAt)
	bt2 = append(bt2, zBt2)
	ct = append(ct, zAt)

	return &Evaluation{At: at, Bt1: bt1, Bt2: bt2, Ct: ct}, nil
}

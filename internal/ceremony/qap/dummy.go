package qap

import (
	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
)

// DummyConstraintSystem is a small in-memory ConstraintSystem used for
// self-test and the end-to-end ceremony scenarios, standing in for a real
// circuit loaded from an R1CS file. Mirrors CS::dummy() in the original
// implementation and the teacher's habit of keeping a runnable
// self-contained demo path (cmd/auctiond/main.go's in-main scenario)
// instead of requiring external circuit input for every test.
type DummyConstraintSystem struct {
	d         int
	n         int
	numInputs int
	omega     curve.Fr
}

// NewDummyConstraintSystem builds a dummy constraint system with domain
// size d (must be a power of two) and n variables including the constant
// wire. omega must be a primitive d-th root of unity in Fr.
func NewDummyConstraintSystem(d, n, numInputs int, omega curve.Fr) (*DummyConstraintSystem, error) {
	if d <= 0 || d&(d-1) != 0 {
		return nil, errors.Errorf("qap: domain size %d is not a power of two", d)
	}
	if n <= 0 || numInputs < 0 || numInputs > n {
		return nil, errors.New("qap: invalid variable/input counts")
	}
	return &DummyConstraintSystem{d: d, n: n, numInputs: numInputs, omega: omega}, nil
}

func (cs *DummyConstraintSystem) D() int         { return cs.d }
func (cs *DummyConstraintSystem) N() int         { return cs.n }
func (cs *DummyConstraintSystem) NumInputs() int { return cs.numInputs }
func (cs *DummyConstraintSystem) Omega() curve.Fr { return cs.omega }

// Eval builds a trivial but well-defined A/B/C evaluation: for each
// variable i in [0, n), at[i] and bt2[i] take the i-th Lagrange
// coefficient, bt1[i] the (i+1)-th and ct[i] the (i+2)-th (indices wrap
// around the domain of size d), so the resulting vectors exercise every downstream
// consumer of Evaluate without requiring a real circuit description.
func (cs *DummyConstraintSystem) Eval(lc1 []curve.G1, lc2 []curve.G2) (at, bt1 []curve.G1, bt2 []curve.G2, ct []curve.G1, err error) {
	if len(lc1) != cs.d || len(lc2) != cs.d {
		return nil, nil, nil, nil, errors.Errorf("qap: expected %d lagrange coefficients, got %d/%d", cs.d, len(lc1), len(lc2))
	}

	at = make([]curve.G1, cs.n)
	bt1 = make([]curve.G1, cs.n)
	bt2 = make([]curve.G2, cs.n)
	ct = make([]curve.G1, cs.n)

	for i := 0; i < cs.n; i++ {
		at[i] = lc1[i%cs.d]
		bt1[i] = lc1[(i+1)%cs.d]
		bt2[i] = lc2[i%cs.d]
		ct[i] = lc1[(i+2)%cs.d]
	}
	return at, bt1, bt2, ct, nil
}

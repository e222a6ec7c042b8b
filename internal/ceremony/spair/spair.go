// Package spair implements the s-pair commitment primitive: a pair (f, f*s)
// for a secret scalar s, together with the same-power pairing check and its
// batched, randomized extension over vectors. Grounded on
// original_source/src/protocol/spair.rs's Spair<G>/same_power/checkvec.
package spair

import (
	"github.com/pkg/errors"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
)

// G1 is an s-pair of G1 points.
type G1 struct {
	F  curve.G1
	Fs curve.G1
}

// G2 is an s-pair of G2 points.
type G2 struct {
	F  curve.G2
	Fs curve.G2
}

// ErrZero is returned when either component of an s-pair would be the
// identity element, which cannot witness a nonzero secret.
var ErrZero = errors.New("spair: zero component")

// NewG1 builds a G1 s-pair, rejecting the identity element in either slot.
func NewG1(f, fs curve.G1) (G1, error) {
	if curve.IsZeroG1(&f) || curve.IsZeroG1(&fs) {
		return G1{}, ErrZero
	}
	return G1{F: f, Fs: fs}, nil
}

// NewG2 builds a G2 s-pair, rejecting the identity element in either slot.
func NewG2(f, fs curve.G2) (G2, error) {
	if curve.IsZeroG2(&f) || curve.IsZeroG2(&fs) {
		return G2{}, ErrZero
	}
	return G2{F: f, Fs: fs}, nil
}

// RandomG1 samples a random nonzero f and returns the s-pair (f, f*s).
func RandomG1(s curve.Fr) (G1, error) {
	f, err := curve.RandomNonzeroFr()
	if err != nil {
		return G1{}, err
	}
	fPoint := curve.BaseMulG1(&f)
	fs := curve.MulG1(&fPoint, &s)
	return NewG1(fPoint, fs)
}

// RandomG2 samples a random nonzero f and returns the s-pair (f, f*s).
func RandomG2(s curve.Fr) (G2, error) {
	f, err := curve.RandomNonzeroFr()
	if err != nil {
		return G2{}, err
	}
	fPoint := curve.BaseMulG2(&f)
	fs := curve.MulG2(&fPoint, &s)
	return NewG2(fPoint, fs)
}

// SamePower reports whether a and b commit to the same secret exponent:
// e(a.F, b.Fs) == e(a.Fs, b.F).
func SamePower(a G1, b G2) (bool, error) {
	left, err := curve.Pair(a.F, b.Fs)
	if err != nil {
		return false, errors.Wrap(err, "spair: pairing a.F,b.Fs")
	}
	right, err := curve.Pair(a.Fs, b.F)
	if err != nil {
		return false, errors.Wrap(err, "spair: pairing a.Fs,b.F")
	}
	return curve.EqualGT(left, right), nil
}

// CheckVecG1 checks that every (v1[i], v2[i]) pair in the G1 vectors shares
// the secret exponent witnessed by the G2 s-pair witness, using a random
// linear combination per chunk so a single pairing check suffices for the
// whole chunk instead of one pairing per element. Mirrors
// spair.rs's checkvec.
func CheckVecG1(v1, v2 []curve.G1, witness G2, workers int) (bool, error) {
	if len(v1) != len(v2) {
		return false, errors.New("spair: mismatched vector lengths")
	}
	if len(v1) == 0 {
		return true, nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(v1) {
		workers = len(v1)
	}
	results := make([]bool, workers)

	err := parallel.IndexedChunks(len(v1), workers, func(idx, lo, hi int) error {
		var p, q curve.G1
		for i := lo; i < hi; i++ {
			alpha, err := curve.RandomNonzeroFr()
			if err != nil {
				return err
			}
			pa := curve.MulG1(&v1[i], &alpha)
			qa := curve.MulG1(&v2[i], &alpha)
			p.Add(&p, &pa)
			q.Add(&q, &qa)
		}

		if curve.IsZeroG1(&p) || curve.IsZeroG1(&q) {
			results[idx] = false
			return nil
		}

		pair, err := NewG1(p, q)
		if err != nil {
			results[idx] = false
			return nil
		}

		ok, err := SamePower(pair, witness)
		if err != nil {
			return err
		}
		results[idx] = ok
		return nil
	})
	if err != nil {
		return false, err
	}

	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CheckSeqG1 checks that consecutive elements of v are related by the
// secret exponent witnessed by witness: v[i+1] == v[i]*s for every i.
// Equivalent to CheckVecG1(v[:n-1], v[1:], witness).
func CheckSeqG1(v []curve.G1, witness G2, workers int) (bool, error) {
	if len(v) < 2 {
		return true, nil
	}
	return CheckVecG1(v[:len(v)-1], v[1:], witness, workers)
}

// CheckVecG2 is CheckVecG1's mirror for G2 vectors witnessed by a G1 s-pair.
func CheckVecG2(v1, v2 []curve.G2, witness G1, workers int) (bool, error) {
	if len(v1) != len(v2) {
		return false, errors.New("spair: mismatched vector lengths")
	}
	if len(v1) == 0 {
		return true, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(v1) {
		workers = len(v1)
	}

	results := make([]bool, workers)

	err := parallel.IndexedChunks(len(v1), workers, func(idx, lo, hi int) error {
		var p, q curve.G2
		for i := lo; i < hi; i++ {
			alpha, err := curve.RandomNonzeroFr()
			if err != nil {
				return err
			}
			pa := curve.MulG2(&v1[i], &alpha)
			qa := curve.MulG2(&v2[i], &alpha)
			p.Add(&p, &pa)
			q.Add(&q, &qa)
		}

		if curve.IsZeroG2(&p) || curve.IsZeroG2(&q) {
			results[idx] = false
			return nil
		}

		pair, err := NewG2(p, q)
		if err != nil {
			results[idx] = false
			return nil
		}

		ok, err := SamePower(witness, pair)
		if err != nil {
			return err
		}
		results[idx] = ok
		return nil
	})
	if err != nil {
		return false, err
	}

	for _, ok := range results {
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// CheckSeqG2 is CheckSeqG1's mirror for G2 vectors.
func CheckSeqG2(v []curve.G2, witness G1, workers int) (bool, error) {
	if len(v) < 2 {
		return true, nil
	}
	return CheckVecG2(v[:len(v)-1], v[1:], witness, workers)
}

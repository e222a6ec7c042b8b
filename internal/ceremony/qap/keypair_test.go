package qap_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/curve"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

func randomKeypair(t *testing.T) *qap.AssembledKeypair {
	t.Helper()
	s, err := curve.RandomNonzeroFr()
	require.NoError(t, err)
	g1 := curve.BaseMulG1(&s)
	g2 := curve.BaseMulG2(&s)

	return &qap.AssembledKeypair{
		VerificationKey: &qap.VerificationKey{
			VkA: g2, VkB: g1, VkC: g2, VkZ: g2,
			VkGamma: g2, VkBetaGamma1: g1, VkBetaGamma2: g2,
		},
		ProvingKey: &qap.ProvingKey{
			PkA:      []curve.G1{g1, g1},
			PkAPrime: []curve.G1{g1},
			PkB:      []curve.G2{g2, g2},
			PkBTemp:  []curve.G1{g1},
			PkBPrime: []curve.G1{g1, g1, g1},
			PkC:      []curve.G1{g1},
			PkCPrime: []curve.G1{g1},
			PkK:      []curve.G1{g1, g1},
		},
	}
}

func TestKeypairEncodeDecodeRoundTrip(t *testing.T) {
	kp := randomKeypair(t)

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	kp.Encode(w)
	require.NoError(t, w.Err())

	got, err := qap.DecodeKeypair(wire.NewReader(&buf))
	require.NoError(t, err)

	require.True(t, got.VerificationKey.VkA.Equal(&kp.VerificationKey.VkA))
	require.True(t, got.VerificationKey.VkB.Equal(&kp.VerificationKey.VkB))
	require.Equal(t, len(kp.ProvingKey.PkA), len(got.ProvingKey.PkA))
	require.Equal(t, len(kp.ProvingKey.PkBPrime), len(got.ProvingKey.PkBPrime))
	for i := range kp.ProvingKey.PkA {
		require.True(t, got.ProvingKey.PkA[i].Equal(&kp.ProvingKey.PkA[i]))
	}
}

func TestDecodeKeypairRejectsTruncatedInput(t *testing.T) {
	kp := randomKeypair(t)
	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	kp.Encode(w)
	require.NoError(t, w.Err())

	truncated := buf.Bytes()[:buf.Len()-4]
	_, err := qap.DecodeKeypair(wire.NewReader(bytes.NewReader(truncated)))
	require.Error(t, err)
}

package keys

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/wire"
)

func TestPrivateKeyEncodeDecodeRoundTrip(t *testing.T) {
	priv, err := NewPrivateKey()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	priv.Encode(w)
	require.NoError(t, w.Err())

	got, err := DecodePrivateKey(wire.NewReader(&buf))
	require.NoError(t, err)
	require.Equal(t, priv.Tau, got.Tau)
	require.Equal(t, priv.RhoA, got.RhoA)
	require.Equal(t, priv.RhoB, got.RhoB)
	require.Equal(t, priv.AlphaA, got.AlphaA)
	require.Equal(t, priv.AlphaB, got.AlphaB)
	require.Equal(t, priv.AlphaC, got.AlphaC)
	require.Equal(t, priv.Beta, got.Beta)
	require.Equal(t, priv.Gamma, got.Gamma)
}

func TestDecodePrivateKeyRejectsTruncatedInput(t *testing.T) {
	priv, err := NewPrivateKey()
	require.NoError(t, err)

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	priv.Encode(w)
	require.NoError(t, w.Err())

	truncated := buf.Bytes()[:buf.Len()-4]
	_, err = DecodePrivateKey(wire.NewReader(bytes.NewReader(truncated)))
	require.Error(t, err)
}

func TestDerivedPublicKeyRoundTripsThroughCommitment(t *testing.T) {
	priv, err := NewPrivateKey()
	require.NoError(t, err)
	pub, err := NewPublicKey(priv)
	require.NoError(t, err)

	ok, err := pub.IsValid()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, digest.Digest256{}, pub.Hash())
}

package transcript

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
	"github.com/hamzazf/ceremony/internal/ceremony/keys"
	"github.com/hamzazf/ceremony/internal/ceremony/parallel"
	"github.com/hamzazf/ceremony/internal/ceremony/qap"
	"github.com/hamzazf/ceremony/internal/ceremony/stage"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)

	commitment := digest.Sum256([]byte("participant-1"))
	require.NoError(t, w.WriteCommitment(commitment))

	ctx := ComputeHCommit([]digest.Digest256{commitment})

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)
	pub, err := keys.NewPublicKey(priv)
	require.NoError(t, err)
	nizks, err := keys.NewPublicKeyNizks(pub, priv, ctx)
	require.NoError(t, err)
	bundle := &keys.PublicKeyBundle{PublicKey: pub, Nizks: nizks}

	const d = 8
	omega := qap.RootOfUnity(d)
	cs, err := qap.NewDummyConstraintSystem(d, 5, 2, omega)
	require.NoError(t, err)
	workers := parallel.DefaultWorkers()

	s1 := stage.NewStage1(cs)
	require.NoError(t, s1.Transform(priv, workers))
	require.NoError(t, w.WritePubkeyRound(bundle, s1, true))

	s2, err := stage.NewStage2(cs, s1, workers)
	require.NoError(t, err)
	require.NoError(t, s2.Transform(priv, workers))
	require.NoError(t, w.WriteStage2Round(s2, true))

	s3, err := stage.NewStage3(s2)
	require.NoError(t, err)
	require.NoError(t, s3.Transform(priv, workers))
	require.NoError(t, w.WriteStage3Round(s3, true))

	r, err := NewReader(&buf)
	require.NoError(t, err)
	require.Equal(t, 1, r.NumPlayers)

	gotCommitment, err := r.ReadCommitment()
	require.NoError(t, err)
	require.Equal(t, commitment, gotCommitment)

	gotBundle, gotS1, accepted, err := r.ReadPubkeyRound()
	require.NoError(t, err)
	require.True(t, accepted)
	require.True(t, gotBundle.IsValid(ctx))
	require.Equal(t, s1.V1, gotS1.V1)
	require.Equal(t, s1.V2, gotS1.V2)

	gotS2, accepted, err := r.ReadStage2Round()
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, s2.VkA, gotS2.VkA)
	require.Equal(t, s2.PkA, gotS2.PkA)

	gotS3, accepted, err := r.ReadStage3Round()
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, s3.PkK, gotS3.PkK)
}

func TestWriterReaderRoundTripRejectedEntry(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)

	require.NoError(t, w.WritePubkeyRound(nil, nil, false))

	r, err := NewReader(&buf)
	require.NoError(t, err)

	bundle, s1, accepted, err := r.ReadPubkeyRound()
	require.NoError(t, err)
	require.False(t, accepted)
	require.Nil(t, bundle)
	require.Nil(t, s1)
}

func TestReaderRejectsTamperedEntry(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, 1)
	require.NoError(t, err)

	commitment := digest.Sum256([]byte("participant-1"))
	require.NoError(t, w.WriteCommitment(commitment))

	tampered := buf.Bytes()
	tampered[len(tampered)-1] ^= 0xFF

	r, err := NewReader(bytes.NewReader(tampered))
	require.NoError(t, err)

	_, err = r.ReadCommitment()
	require.ErrorIs(t, err, ErrHashMismatch)
}

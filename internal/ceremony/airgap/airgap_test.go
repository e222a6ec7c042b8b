package airgap

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hamzazf/ceremony/internal/ceremony/digest"
)

func TestWriteReadDiscRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DiscNames[0])
	prevHash := digest.Sum256([]byte("genesis"))
	payload := []byte("commitment-bytes")

	require.NoError(t, WriteDisc(path, 0, prevHash, payload))

	index, gotPrevHash, gotPayload, err := ReadDisc(path)
	require.NoError(t, err)
	require.Equal(t, uint32(0), index)
	require.Equal(t, prevHash, gotPrevHash)
	require.Equal(t, payload, gotPayload)
}

func TestComputeAndNetworkRoleChainTogether(t *testing.T) {
	dir := t.TempDir()
	requestPath := filepath.Join(dir, DiscNames[0])
	resultPath := filepath.Join(dir, DiscNames[1])

	net := NewNetworkRole()
	require.NoError(t, net.WriteRequest(requestPath, []byte("stage-one-payload")))

	transform := func(payload []byte) ([]byte, error) {
		return bytes.ToUpper(payload), nil
	}
	require.NoError(t, ComputeRole(requestPath, resultPath, transform))

	out, err := net.ReadResult(resultPath)
	require.NoError(t, err)
	require.Equal(t, []byte("STAGE-ONE-PAYLOAD"), out)
}

func TestMultiRoundChainAdvances(t *testing.T) {
	dir := t.TempDir()
	net := NewNetworkRole()
	transform := func(payload []byte) ([]byte, error) { return append(payload, '!'), nil }

	payload := []byte("a")
	for i := 0; i < 3; i++ {
		reqPath := filepath.Join(dir, DiscNames[2*i])
		resPath := filepath.Join(dir, DiscNames[2*i+1])
		require.NoError(t, net.WriteRequest(reqPath, payload))
		require.NoError(t, ComputeRole(reqPath, resPath, transform))
		out, err := net.ReadResult(resPath)
		require.NoError(t, err)
		payload = out
	}
	require.Equal(t, []byte("a!!!"), payload)
}

func TestReadResultRejectsSwappedDisc(t *testing.T) {
	dir := t.TempDir()
	net := NewNetworkRole()
	require.NoError(t, net.WriteRequest(filepath.Join(dir, "discA"), []byte("one")))

	// A disc produced for an unrelated request (wrong prevHash) must be
	// rejected rather than silently accepted.
	foreignPath := filepath.Join(dir, "discX")
	require.NoError(t, WriteDisc(foreignPath, 0, digest.Sum256([]byte("unrelated")), []byte("two")))

	_, err := net.ReadResult(foreignPath)
	require.ErrorIs(t, err, ErrBrokenChain)
}

func TestComputeRoleNeverWritesWithoutValidRequest(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadDisc(filepath.Join(dir, "does-not-exist"))
	require.Error(t, err)

	err = ComputeRole(filepath.Join(dir, "does-not-exist"), filepath.Join(dir, "result"), func(p []byte) ([]byte, error) {
		t.Fatal("transform should not run when the request disc is missing")
		return nil, nil
	})
	require.Error(t, err)
}

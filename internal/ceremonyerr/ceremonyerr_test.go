package ceremonyerr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(BadTransform, cause, "stage2 check failed")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid stage transform")
	require.Contains(t, err.Error(), "boom")
}

func TestIsMatchesKind(t *testing.T) {
	err := New(BadNizk, "proof did not verify")
	require.True(t, Is(err, BadNizk))
	require.False(t, Is(err, BadWire))
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.Nil(t, Wrap(Fatal, nil, "unused"))
}

func TestIsUnwrapsThroughStandardWrap(t *testing.T) {
	inner := New(Timeout, "no response")
	outer := errors.Wrap(inner, "round 3")
	require.True(t, Is(outer, Timeout))
}

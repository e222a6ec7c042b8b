package ceremonylog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "ceremony.log")

	l, err := New("debug", logPath, "")
	require.NoError(t, err)
	defer l.Close()

	l.Info("round %s accepted for %s", "pubkey", "p0")

	contents, err := os.ReadFile(logPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "round pubkey accepted for p0")
}

func TestNewWithoutFilesDoesNotPanic(t *testing.T) {
	l, err := New("info", "", "")
	require.NoError(t, err)
	require.False(t, l.hasAudit)

	l.Debug("ignored at info level")
	l.Warn("heads up")
	l.Audit("round.rejected", map[string]interface{}{"player": "p1"})
	require.NoError(t, l.Close())
}

func TestAuditWritesToAuditFileOnly(t *testing.T) {
	dir := t.TempDir()
	auditPath := filepath.Join(dir, "audit.log")

	l, err := New("info", "", auditPath)
	require.NoError(t, err)
	defer l.Close()
	require.True(t, l.hasAudit)

	l.Audit("round.rejected", map[string]interface{}{"player": "p1", "round": "stage2"})

	contents, err := os.ReadFile(auditPath)
	require.NoError(t, err)
	require.Contains(t, string(contents), "round.rejected")
	require.Contains(t, string(contents), "p1")
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
	require.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	require.Equal(t, zerolog.FatalLevel, parseLevel("fatal"))
}

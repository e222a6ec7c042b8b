package ceremonymetrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectorExposesRecordedMetrics(t *testing.T) {
	c := New()
	c.RecordCommitment()
	c.RecordAccepted("pubkey")
	c.RecordRejected("stage2", "stage2 transform verification failed")
	c.ObserveRoundDuration("pubkey", 5*time.Millisecond)
	c.SetActiveRound(2)
	c.SetParticipantCount(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "ceremony_commitments_total 1")
	require.Contains(t, body, `ceremony_round_accepted_total{round="pubkey"} 1`)
	require.Contains(t, body, `ceremony_round_rejected_total{reason="stage2 transform verification failed",round="stage2"} 1`)
	require.Contains(t, body, "ceremony_active_round 2")
	require.Contains(t, body, "ceremony_participant_count 3")
}

package ceremonyhealth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckAggregatesHealthyComponents(t *testing.T) {
	hc := NewChecker("test")
	hc.Register("transcript", func() error { return nil })
	hc.Register("transport", func() error { return nil })

	report := hc.Check()
	require.Equal(t, Healthy, report.OverallStatus)
	require.Len(t, report.Components, 2)
}

func TestCheckMarksUnhealthyOnError(t *testing.T) {
	hc := NewChecker("test")
	hc.Register("transcript", func() error { return nil })
	hc.Register("transport", func() error { return errors.New("listener closed") })

	report := hc.Check()
	require.Equal(t, Unhealthy, report.OverallStatus)

	var transport ComponentHealth
	for _, c := range report.Components {
		if c.Name == "transport" {
			transport = c
		}
	}
	require.Equal(t, Unhealthy, transport.Status)
	require.Equal(t, "listener closed", transport.Message)
}

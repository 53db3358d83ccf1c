package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNowIsIST(t *testing.T) {
	now := Now()
	require.Equal(t, "Asia/Kolkata", now.Location().String())

	// IST is UTC+5:30 year round, no daylight saving
	_, offset := now.Zone()
	require.Equal(t, int((5*time.Hour+30*time.Minute)/time.Second), offset)
}

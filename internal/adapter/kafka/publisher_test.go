package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodwatch-lk/flood-data-api/internal/domain"
)

func TestSerializeAlert(t *testing.T) {
	level := 4.7
	rec := domain.StationRecord{
		StationName: "Nagalagam Street",
		RiverName:   "Kelani Ganga",
		BasinName:   "Kelani Ganga (RB 01)",
		WaterLevel:  &level,
		AlertStatus: domain.StatusMinor,
		Timestamp:   "2026-08-28 06:45:00",
	}

	msg, err := serializeAlert(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte("nstreet"), msg.Key)
	assert.Contains(t, string(msg.Value), `"alert_status":"MINOR"`)
	assert.Contains(t, string(msg.Value), `"water_level":4.7`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "alert_status", msg.Headers[0].Key)
	assert.Equal(t, []byte("MINOR"), msg.Headers[0].Value)
	assert.Equal(t, "observed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2026-08-28 06:45:00"), msg.Headers[1].Value)
}

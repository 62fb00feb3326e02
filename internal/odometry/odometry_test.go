package odometry

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawMessage_Position(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		x, y    float64
		wantErr error
	}{
		{
			name:    "full message",
			payload: `{"header":{"frame_id":"odom"},"pose":{"pose":{"position":{"x":1.5,"y":-2.25,"z":0}}}}`,
			x:       1.5,
			y:       -2.25,
		},
		{
			name:    "zero position is still a position",
			payload: `{"pose":{"pose":{"position":{}}}}`,
		},
		{name: "no pose", payload: `{"header":{}}`, wantErr: ErrNoPosition},
		{name: "no inner pose", payload: `{"pose":{"covariance":[]}}`, wantErr: ErrNoPosition},
		{name: "no position", payload: `{"pose":{"pose":{"orientation":{"w":1}}}}`, wantErr: ErrNoPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, err := RawMessage(tt.payload).Position()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.x, x)
			assert.Equal(t, tt.y, y)
		})
	}
}

func TestRawMessage_PositionMalformed(t *testing.T) {
	_, _, err := RawMessage(`{"pose":`).Position()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode payload")
}

func TestOdometry_RoundTripThroughRawMessage(t *testing.T) {
	var o Odometry
	o.Pose.Pose.Position = Vector3{X: 3, Y: 4, Z: 5}

	payload, err := json.Marshal(o)
	require.NoError(t, err)

	x, y, err := RawMessage(payload).Position()
	require.NoError(t, err)
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func TestMockSource_FollowsCircle(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	src := newMockSourceAt(func() time.Time { return now })

	for _, dt := range []time.Duration{0, time.Second, 3 * time.Second, 10 * time.Second} {
		now = start.Add(dt)
		o, err := src.Next()
		require.NoError(t, err)

		x, y, err := o.Position()
		require.NoError(t, err)
		assert.InDelta(t, mockRadius, math.Hypot(x, y), 1e-9, "dt=%v", dt)
		assert.Equal(t, "odom", o.Header.FrameID)
		assert.Equal(t, now, o.Header.Stamp)
	}
}

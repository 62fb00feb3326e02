// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package odometry

import (
	"math"
	"time"
)

const (
	mockRadius  = 2.0 // meters
	mockOmega   = 0.5 // rad/s around the circle
	mockFrameID = "odom"
	mockChildID = "base_link"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a mock odometry source that drives the robot
// around a circle of radius 2m centered on the origin.
func NewMockSource() Source {
	return newMockSourceAt(time.Now)
}

func newMockSourceAt(now func() time.Time) *mockSource {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (Odometry, error) {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()
	theta := mockOmega * elapsed

	// heading is tangent to the circle
	yaw := theta + math.Pi/2

	var o Odometry
	o.Header = Header{Stamp: t, FrameID: mockFrameID}
	o.ChildFrameID = mockChildID
	o.Pose.Pose.Position = Vector3{X: mockRadius * math.Cos(theta), Y: mockRadius * math.Sin(theta)}
	o.Pose.Pose.Orientation = Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
	o.Twist.Twist.Linear = Vector3{X: mockRadius * mockOmega}
	o.Twist.Twist.Angular = Vector3{Z: mockOmega}
	return o, nil
}

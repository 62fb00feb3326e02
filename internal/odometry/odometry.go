package odometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoPosition is returned when a payload carries no pose.pose.position.
var ErrNoPosition = errors.New("odometry: message has no pose.pose.position")

// Vector3 is a 3D vector (position, linear or angular velocity).
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is an orientation in quaternion form.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Header carries the stamp and frame of a message.
type Header struct {
	Stamp   time.Time `json:"stamp"`
	FrameID string    `json:"frame_id"`
}

// Pose is a position plus orientation.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// PoseWithCovariance wraps a Pose with its row-major 6x6 covariance.
type PoseWithCovariance struct {
	Pose       Pose        `json:"pose"`
	Covariance [36]float64 `json:"covariance"`
}

// Twist is linear + angular velocity.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// TwistWithCovariance wraps a Twist with its row-major 6x6 covariance.
type TwistWithCovariance struct {
	Twist      Twist       `json:"twist"`
	Covariance [36]float64 `json:"covariance"`
}

// Odometry is the pose + velocity message published on the odometry topic.
// The JSON layout follows nav_msgs/Odometry.
type Odometry struct {
	Header       Header              `json:"header"`
	ChildFrameID string              `json:"child_frame_id"`
	Pose         PoseWithCovariance  `json:"pose"`
	Twist        TwistWithCovariance `json:"twist"`
}

// Position returns the planar position of the message.
func (o Odometry) Position() (x, y float64, err error) {
	return o.Pose.Pose.Position.X, o.Pose.Pose.Position.Y, nil
}

// Message is anything the sampler can pull a planar position from.
type Message interface {
	Position() (x, y float64, err error)
}

// RawMessage is an undecoded JSON payload as received from the broker.
// Decoding is deferred to Position so throttled messages are never parsed.
type RawMessage []byte

// positionOnly decodes just the nested position, so a payload missing
// any level of pose.pose.position can be told apart from a zero position.
type positionOnly struct {
	Pose *struct {
		Pose *struct {
			Position *Vector3 `json:"position"`
		} `json:"pose"`
	} `json:"pose"`
}

// Position decodes the payload and extracts pose.pose.position.
func (m RawMessage) Position() (x, y float64, err error) {
	var p positionOnly
	if err := json.Unmarshal(m, &p); err != nil {
		return 0, 0, fmt.Errorf("odometry: decode payload: %w", err)
	}
	if p.Pose == nil || p.Pose.Pose == nil || p.Pose.Pose.Position == nil {
		return 0, 0, ErrNoPosition
	}
	return p.Pose.Pose.Position.X, p.Pose.Pose.Position.Y, nil
}

// Source is anything that can provide odometry over time.
type Source interface {
	Next() (Odometry, error)
}

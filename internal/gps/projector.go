package gps

import (
	"math"
	"time"

	"github.com/relabs-tech/odom_plotter/internal/odometry"
)

const (
	earthRadiusM = 6371008.8
	knotToMPS    = 1852.0 / 3600.0
)

// Projector maps fixes onto a local east/north plane in meters, using an
// equirectangular projection around the first valid fix it sees.
// Good enough for the few hundred meters a ground robot covers.
type Projector struct {
	FrameID string

	haveOrigin bool
	lat0, lon0 float64 // radians
	cosLat0    float64
}

// Project returns the fix as odometry and false for void fixes.
func (p *Projector) Project(f Fix, stamp time.Time) (odometry.Odometry, bool) {
	if !f.Valid() {
		return odometry.Odometry{}, false
	}

	lat := f.Latitude * math.Pi / 180
	lon := f.Longitude * math.Pi / 180
	if !p.haveOrigin {
		p.lat0, p.lon0 = lat, lon
		p.cosLat0 = math.Cos(lat)
		p.haveOrigin = true
	}

	// course is clockwise from north, yaw counter-clockwise from east
	yaw := math.Pi/2 - f.CourseDeg*math.Pi/180

	var o odometry.Odometry
	o.Header = odometry.Header{Stamp: stamp, FrameID: p.FrameID}
	o.ChildFrameID = "gps"
	o.Pose.Pose.Position = odometry.Vector3{
		X: earthRadiusM * (lon - p.lon0) * p.cosLat0,
		Y: earthRadiusM * (lat - p.lat0),
	}
	o.Pose.Pose.Orientation = odometry.Quaternion{Z: math.Sin(yaw / 2), W: math.Cos(yaw / 2)}
	o.Twist.Twist.Linear = odometry.Vector3{X: f.SpeedKnots * knotToMPS}
	return o, true
}

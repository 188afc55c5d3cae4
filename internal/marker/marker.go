package marker

import "github.com/golang/geo/r2"

// Marker is a single detected fiducial: its dictionary id plus four corner
// points in image pixel coordinates, clockwise from top-left.
type Marker struct {
	ID      int
	Corners [4]r2.Point
}

// Detection is the set of markers found in one frame, in detector order.
// No markers is a valid detection, not an error.
type Detection struct {
	Markers []Marker
}

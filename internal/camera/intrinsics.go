package camera

import (
	"math"

	"github.com/pkg/errors"
)

// Intrinsics holds the pinhole parameters used to relate marker corners in
// image pixels to 3D rays. Built once per run, immutable afterwards.
type Intrinsics struct {
	Width  int
	Height int
	Fx     float64
	Fy     float64
	Ppx    float64
	Ppy    float64
}

// New builds intrinsics from a literal focal length applied to both axes.
// The value is used as-is in pixel units even when the caller supplies a
// physical millimeter focal length; no sensor conversion is performed.
// This mirrors the historical tool and is a known accuracy caveat.
func New(width, height int, focalX, focalY float64) Intrinsics {
	return Intrinsics{
		Width:  width,
		Height: height,
		Fx:     focalX,
		Fy:     focalY,
		Ppx:    float64(width) / 2.0,
		Ppy:    float64(height) / 2.0,
	}
}

// NewFromHorizontalFOV derives the pixel focal length from the horizontal
// field of view via f_px = width / (2 * tan(fov/2)), applied to both axes.
// The sensor width is accepted for symmetry with calibration data but does
// not enter the pixel formula.
func NewFromHorizontalFOV(fovHRadians, sensorWidthMM float64, width, height int) Intrinsics {
	f := float64(width) / (2.0 * math.Tan(fovHRadians/2.0))
	return New(width, height, f, f)
}

// WithPrincipalPoint returns a copy with the principal point moved away
// from the default image center.
func (in Intrinsics) WithPrincipalPoint(ppx, ppy float64) Intrinsics {
	in.Ppx = ppx
	in.Ppy = ppy
	return in
}

// CheckValid reports whether the intrinsics describe a usable camera.
func (in Intrinsics) CheckValid() error {
	if in.Width <= 0 || in.Height <= 0 {
		return errors.Errorf("invalid image size (%d, %d)", in.Width, in.Height)
	}
	if in.Fx <= 0 {
		return errors.Errorf("invalid focal length fx = %v", in.Fx)
	}
	if in.Fy <= 0 {
		return errors.Errorf("invalid focal length fy = %v", in.Fy)
	}
	return nil
}

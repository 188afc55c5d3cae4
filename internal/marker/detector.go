package marker

import (
	"github.com/golang/geo/r2"
	"gocv.io/x/gocv"

	"fiducialtrack/internal/frame"
)

// Detector finds fiducial markers in an RGB frame. Implementations return
// an empty detection when nothing is found, never an error.
type Detector interface {
	Detect(img *frame.RGB) Detection
}

// ArucoDetector detects markers with OpenCV's ArUco module against a
// preloaded dictionary.
type ArucoDetector struct {
	detector gocv.ArucoDetector
}

func NewArucoDetector(dict gocv.ArucoDictionary) *ArucoDetector {
	params := gocv.NewArucoDetectorParameters()
	return &ArucoDetector{detector: gocv.NewArucoDetectorWithParams(dict, params)}
}

func (d *ArucoDetector) Detect(img *frame.RGB) Detection {
	mat, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix)
	if err != nil {
		return Detection{Markers: []Marker{}}
	}
	defer mat.Close()

	corners, ids, _ := d.detector.DetectMarkers(mat)

	det := Detection{Markers: make([]Marker, 0, len(ids))}
	for i, id := range ids {
		if i >= len(corners) || len(corners[i]) != 4 {
			continue
		}
		m := Marker{ID: id}
		for j, p := range corners[i] {
			m.Corners[j] = r2.Point{X: float64(p.X), Y: float64(p.Y)}
		}
		det.Markers = append(det.Markers, m)
	}
	return det
}

func (d *ArucoDetector) Close() error {
	return d.detector.Close()
}

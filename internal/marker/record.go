package marker

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"fiducialtrack/internal/camera"
)

// The record structs mirror the line format consumed downstream; field
// names and order are a compatibility contract.
type poseRecord struct {
	Translation [3]float64 `json:"translation"`
	Rotation    [9]float64 `json:"rotation"`
	Error       float64    `json:"error"`
}

type markerRecord struct {
	MarkerID int           `json:"marker_id"`
	Corners  [8]float64    `json:"corners"`
	Poses    [2]poseRecord `json:"poses"`
}

type frameRecord struct {
	FrameID    uint64         `json:"frame_id"`
	Detections []markerRecord `json:"detections"`
}

// Serialize renders one frame's detections and their candidate poses as a
// single self-delimited JSON line, without the trailing newline. Markers
// keep detector order; each carries exactly two poses.
func Serialize(frameID uint64, det Detection, markerSize float64, intr camera.Intrinsics, solver Solver) (string, error) {
	rec := frameRecord{
		FrameID:    frameID,
		Detections: make([]markerRecord, 0, len(det.Markers)),
	}
	for _, m := range det.Markers {
		p1, p2 := solver.Solve(m.Corners, markerSize, intr)

		mr := markerRecord{MarkerID: m.ID}
		for i, c := range m.Corners {
			mr.Corners[2*i] = c.X
			mr.Corners[2*i+1] = c.Y
		}
		mr.Poses[0] = newPoseRecord(p1)
		mr.Poses[1] = newPoseRecord(p2)
		rec.Detections = append(rec.Detections, mr)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(err, "marshal frame record")
	}
	return string(out), nil
}

func newPoseRecord(p PoseCandidate) poseRecord {
	return poseRecord{
		Translation: [3]float64{finite(p.Translation.X), finite(p.Translation.Y), finite(p.Translation.Z)},
		Rotation: [9]float64{
			finite(p.Rotation[0]), finite(p.Rotation[1]), finite(p.Rotation[2]),
			finite(p.Rotation[3]), finite(p.Rotation[4]), finite(p.Rotation[5]),
			finite(p.Rotation[6]), finite(p.Rotation[7]), finite(p.Rotation[8]),
		},
		Error: finite(p.Err),
	}
}

// JSON has no NaN or infinity; clamp anything non-finite so a degenerate
// pose still serializes.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.MaxFloat64
	}
	return v
}

package pipeline

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/golang/geo/r2"
	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"fiducialtrack/internal/camera"
	"fiducialtrack/internal/frame"
	"fiducialtrack/internal/marker"
)

type stubSource struct {
	mat    *gocv.Mat
	total  int
	served int
}

func (s *stubSource) ReadFrame(index int) *frame.Frame {
	if s.served >= s.total {
		return nil
	}
	s.served++
	f, err := frame.New(index, s.mat)
	if err != nil {
		return nil
	}
	return f
}

type stubConverter struct{}

func (stubConverter) Convert(f *frame.Frame) (*frame.RGB, error) {
	return &frame.RGB{
		Width:  f.Width(),
		Height: f.Height(),
		Pix:    make([]byte, f.Width()*f.Height()*3),
	}, nil
}

// scriptedDetector returns whatever the script says for each successive
// call, defaulting to no markers.
type scriptedDetector struct {
	script map[int]marker.Detection
	calls  int
}

func (d *scriptedDetector) Detect(*frame.RGB) marker.Detection {
	det, ok := d.script[d.calls]
	d.calls++
	if !ok {
		return marker.Detection{}
	}
	return det
}

type stubSolver struct{}

func (stubSolver) Solve([4]r2.Point, float64, camera.Intrinsics) (marker.PoseCandidate, marker.PoseCandidate) {
	id := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	return marker.PoseCandidate{Rotation: id}, marker.PoseCandidate{Rotation: id, Err: 1}
}

func runPipeline(t *testing.T, totalFrames int, start, end uint64, script map[int]marker.Detection) (*Pipeline, *stubSource, []string) {
	t.Helper()
	mat := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })

	source := &stubSource{mat: &mat, total: totalFrames}
	var out bytes.Buffer
	p := New(
		source,
		frame.NewWindow(start, end),
		stubConverter{},
		&scriptedDetector{script: script},
		stubSolver{},
		camera.New(8, 8, 800, 800),
		50,
		&out,
		zap.NewNop(),
	)
	if err := p.Run(); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	var lines []string
	if s := strings.TrimSuffix(out.String(), "\n"); s != "" {
		lines = strings.Split(s, "\n")
	}
	return p, source, lines
}

func frameIDs(t *testing.T, lines []string) []uint64 {
	t.Helper()
	ids := make([]uint64, 0, len(lines))
	for _, line := range lines {
		var rec struct {
			FrameID uint64 `json:"frame_id"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("line is not valid JSON: %s (%v)", line, err)
		}
		ids = append(ids, rec.FrameID)
	}
	return ids
}

func TestBoundedWindowLineCount(t *testing.T) {
	_, _, lines := runPipeline(t, 10, 3, 6, nil)
	ids := frameIDs(t, lines)
	want := []uint64{3, 4, 5}
	if len(ids) != len(want) {
		t.Fatalf("emitted %d lines, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("frame_id[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestUnboundedWindow(t *testing.T) {
	_, _, lines := runPipeline(t, 10, 4, 0, nil)
	if len(lines) != 6 {
		t.Fatalf("emitted %d lines, want 6", len(lines))
	}
	ids := frameIDs(t, lines)
	if ids[0] != 4 || ids[len(ids)-1] != 9 {
		t.Errorf("frame_ids span %d..%d, want 4..9", ids[0], ids[len(ids)-1])
	}
}

func TestShortVideoTruncatesWindow(t *testing.T) {
	_, _, lines := runPipeline(t, 5, 2, 100, nil)
	if len(lines) != 3 {
		t.Errorf("emitted %d lines, want total-start = 3", len(lines))
	}
}

func TestStartBeyondStream(t *testing.T) {
	_, _, lines := runPipeline(t, 5, 50, 0, nil)
	if len(lines) != 0 {
		t.Errorf("emitted %d lines, want 0", len(lines))
	}
}

func TestWindowCloseStopsDecoding(t *testing.T) {
	p, source, lines := runPipeline(t, 100, 0, 3, nil)
	if len(lines) != 3 {
		t.Fatalf("emitted %d lines, want 3", len(lines))
	}
	// Frames 0-2 are processed; frame 3 flips the window to Done. Nothing
	// past that may be pulled from the decoder.
	if source.served != 4 {
		t.Errorf("decoded %d frames, want 4", source.served)
	}
	if p.FramesEmitted() != 3 {
		t.Errorf("FramesEmitted() = %d, want 3", p.FramesEmitted())
	}
}

func TestEmptyDetectionRecord(t *testing.T) {
	_, _, lines := runPipeline(t, 8, 7, 8, nil)
	if len(lines) != 1 {
		t.Fatalf("emitted %d lines, want 1", len(lines))
	}
	want := `{"frame_id":7,"detections":[]}`
	if lines[0] != want {
		t.Errorf("line = %s, want %s", lines[0], want)
	}
}

func TestDetectionsCarryTwoPoses(t *testing.T) {
	script := map[int]marker.Detection{
		0: {Markers: []marker.Marker{
			{ID: 11, Corners: [4]r2.Point{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 2, Y: 2}, {X: 1, Y: 2}}},
			{ID: 7, Corners: [4]r2.Point{{X: 4, Y: 4}, {X: 5, Y: 4}, {X: 5, Y: 5}, {X: 4, Y: 5}}},
		}},
	}
	_, _, lines := runPipeline(t, 1, 0, 0, script)
	if len(lines) != 1 {
		t.Fatalf("emitted %d lines, want 1", len(lines))
	}

	var rec struct {
		Detections []struct {
			MarkerID int `json:"marker_id"`
			Poses    []struct {
				Error float64 `json:"error"`
			} `json:"poses"`
		} `json:"detections"`
	}
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if len(rec.Detections) != 2 {
		t.Fatalf("detections length = %d, want 2", len(rec.Detections))
	}
	if rec.Detections[0].MarkerID != 11 || rec.Detections[1].MarkerID != 7 {
		t.Error("detections must keep detector order")
	}
	for i, d := range rec.Detections {
		if len(d.Poses) != 2 {
			t.Errorf("detections[%d] has %d poses, want exactly 2", i, len(d.Poses))
		}
	}
}

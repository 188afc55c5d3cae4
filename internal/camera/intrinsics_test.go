package camera

import (
	"math"
	"testing"
)

func TestFOVFocalLength(t *testing.T) {
	// fov = 2*atan(0.5) means the half-width subtends tan = 0.5, so
	// f_px = width / (2 * 0.5) = width.
	fov := 2.0 * math.Atan(0.5)
	in := NewFromHorizontalFOV(fov, 36.0, 1000, 800)

	if math.Abs(in.Fx-1000.0) > 1e-9 {
		t.Errorf("Fx = %v, want 1000", in.Fx)
	}
	if math.Abs(in.Fy-1000.0) > 1e-9 {
		t.Errorf("Fy = %v, want 1000", in.Fy)
	}
}

func TestLiteralFocalLength(t *testing.T) {
	in := New(1920, 1080, 1.0, 1.0)
	if in.Fx != 1.0 || in.Fy != 1.0 {
		t.Errorf("focal lengths = (%v, %v), want the literal 1.0", in.Fx, in.Fy)
	}
	if in.Ppx != 960.0 || in.Ppy != 540.0 {
		t.Errorf("principal point = (%v, %v), want image center (960, 540)", in.Ppx, in.Ppy)
	}
}

func TestWithPrincipalPoint(t *testing.T) {
	in := New(640, 480, 800, 800).WithPrincipalPoint(300, 250)
	if in.Ppx != 300 || in.Ppy != 250 {
		t.Errorf("principal point = (%v, %v), want (300, 250)", in.Ppx, in.Ppy)
	}
}

func TestCheckValid(t *testing.T) {
	if err := New(640, 480, 800, 800).CheckValid(); err != nil {
		t.Errorf("valid intrinsics rejected: %v", err)
	}
	if err := New(640, 480, 0, 800).CheckValid(); err == nil {
		t.Error("zero fx accepted")
	}
	if err := New(640, 480, 800, -1).CheckValid(); err == nil {
		t.Error("negative fy accepted")
	}
	if err := New(0, 480, 800, 800).CheckValid(); err == nil {
		t.Error("zero width accepted")
	}
}

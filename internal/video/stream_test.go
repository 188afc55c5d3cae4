package video

import "testing"

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/clip.mp4", 0); err == nil {
		t.Error("opening a missing file must fail")
	}
}

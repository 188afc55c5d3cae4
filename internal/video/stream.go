package video

import (
	"runtime"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"fiducialtrack/internal/frame"
)

// OpenCV recommends no more than 16 decode workers for a single stream.
const maxDecodeThreads = 16

// Stream is a lazy, single-pass read of the best video stream in a file.
// Frames come back in presentation order, one at a time.
type Stream struct {
	capture *gocv.VideoCapture
	mat     gocv.Mat
	path    string
}

// Open opens the video file for decoding. The thread count is a
// performance hint only; zero picks the host parallelism, capped at 16.
func Open(path string, threads int) (*Stream, error) {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > maxDecodeThreads {
		threads = maxDecodeThreads
	}
	gocv.SetNumThreads(threads)

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open video file %s", path)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, errors.Errorf("no decodable video stream in %s", path)
	}

	return &Stream{capture: capture, mat: gocv.NewMat(), path: path}, nil
}

func (s *Stream) Width() int {
	return int(s.capture.Get(gocv.VideoCaptureFrameWidth))
}

func (s *Stream) Height() int {
	return int(s.capture.Get(gocv.VideoCaptureFrameHeight))
}

func (s *Stream) Fps() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

// ReadFrame decodes the next frame. A nil frame means the stream is
// exhausted or the remaining packets cannot be decoded. The returned frame
// aliases the stream's decode buffer and is only valid until the next call.
func (s *Stream) ReadFrame(index int) *frame.Frame {
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return nil
	}

	f, err := frame.New(index, &s.mat)
	if err != nil {
		return nil
	}
	return f
}

func (s *Stream) Close() {
	s.mat.Close()
	s.capture.Close()
}

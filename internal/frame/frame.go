package frame

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Frame pairs a decoded video frame with its zero-based index in the
// stream. The mat may alias a decode buffer owned by the stream, so a
// Frame is only valid until the next frame is read.
type Frame struct {
	index int
	mat   *gocv.Mat
}

func New(index int, mat *gocv.Mat) (*Frame, error) {
	if mat.Empty() {
		return nil, errors.New("frame is empty")
	}

	return &Frame{index: index, mat: mat}, nil
}

func (f *Frame) Mat() *gocv.Mat {
	return f.mat
}

func (f *Frame) Index() int {
	return f.index
}

func (f *Frame) Height() int {
	return f.mat.Rows()
}

func (f *Frame) Width() int {
	return f.mat.Cols()
}

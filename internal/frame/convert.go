package frame

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// RGB is a packed 24-bit RGB pixel buffer, row-major, 8 bits per channel.
type RGB struct {
	Width  int
	Height int
	Pix    []byte
}

// Converter turns decoded frames into packed RGB buffers of the same
// dimensions. The conversion mat is reused for the whole run.
type Converter struct {
	rgb gocv.Mat
}

func NewConverter() *Converter {
	return &Converter{rgb: gocv.NewMat()}
}

// Convert produces a fresh RGB buffer for one frame. A buffer whose size
// does not match width*height*3 indicates a decoder defect and is returned
// as an error; callers must treat it as fatal.
func (c *Converter) Convert(f *Frame) (*RGB, error) {
	gocv.CvtColor(*f.Mat(), &c.rgb, gocv.ColorBGRToRGB)

	w, h := c.rgb.Cols(), c.rgb.Rows()
	pix := c.rgb.ToBytes()
	if len(pix) != w*h*3 {
		return nil, errors.Errorf("rgb buffer is %d bytes, want %d for %dx%d frame", len(pix), w*h*3, w, h)
	}

	return &RGB{Width: w, Height: h, Pix: pix}, nil
}

func (c *Converter) Close() {
	c.rgb.Close()
}

package pipeline

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fiducialtrack/internal/camera"
	"fiducialtrack/internal/frame"
	"fiducialtrack/internal/marker"
)

// FrameSource yields decoded frames in presentation order, one at a time.
// A nil frame means the source is exhausted.
type FrameSource interface {
	ReadFrame(index int) *frame.Frame
}

// Converter turns a decoded frame into a packed RGB image.
type Converter interface {
	Convert(f *frame.Frame) (*frame.RGB, error)
}

// Pipeline runs the decode, convert, detect, solve, serialize loop for one
// video and streams a record per in-window frame to out.
type Pipeline struct {
	source     FrameSource
	window     *frame.Window
	converter  Converter
	detector   marker.Detector
	solver     marker.Solver
	intrinsics camera.Intrinsics
	markerSize float64
	out        io.Writer
	log        *zap.Logger

	framesDecoded uint64
	framesEmitted uint64
}

func New(
	source FrameSource,
	window *frame.Window,
	converter Converter,
	detector marker.Detector,
	solver marker.Solver,
	intrinsics camera.Intrinsics,
	markerSize float64,
	out io.Writer,
	log *zap.Logger,
) *Pipeline {
	return &Pipeline{
		source:     source,
		window:     window,
		converter:  converter,
		detector:   detector,
		solver:     solver,
		intrinsics: intrinsics,
		markerSize: markerSize,
		out:        out,
		log:        log,
	}
}

// Run drains the source until it is exhausted or the window closes,
// whichever comes first. Each record is written and flushed before the
// next frame is pulled; on a fatal error, lines already written stand.
func (p *Pipeline) Run() error {
	for !p.window.Done() {
		f := p.source.ReadFrame(int(p.window.Index()))
		if f == nil {
			break
		}
		p.framesDecoded++

		idx, ok := p.window.Admit()
		if !ok {
			continue
		}

		rgb, err := p.converter.Convert(f)
		if err != nil {
			return errors.Wrapf(err, "frame %d", idx)
		}

		det := p.detector.Detect(rgb)
		line, err := marker.Serialize(idx, det, p.markerSize, p.intrinsics, p.solver)
		if err != nil {
			return errors.Wrapf(err, "frame %d", idx)
		}
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return errors.Wrapf(err, "write record for frame %d", idx)
		}
		p.framesEmitted++

		p.log.Debug("frame processed",
			zap.Uint64("frame_id", idx),
			zap.Int("markers", len(det.Markers)),
		)
	}

	p.log.Info("pipeline finished",
		zap.Uint64("frames_decoded", p.framesDecoded),
		zap.Uint64("frames_emitted", p.framesEmitted),
	)
	return nil
}

// FramesDecoded is the number of frames pulled from the source.
func (p *Pipeline) FramesDecoded() uint64 {
	return p.framesDecoded
}

// FramesEmitted is the number of records written.
func (p *Pipeline) FramesEmitted() uint64 {
	return p.framesEmitted
}

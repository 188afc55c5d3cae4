package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"fiducialtrack/internal/camera"
	"fiducialtrack/internal/config"
	"fiducialtrack/internal/frame"
	"fiducialtrack/internal/marker"
	"fiducialtrack/internal/pipeline"
	"fiducialtrack/internal/video"
	"fiducialtrack/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:      "fiducialtrack",
		Usage:     "detect fiducial markers in a video and stream one JSON pose record per frame",
		ArgsUsage: "filename fiducial_dictionary marker_size_mm",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print debug diagnostics on stderr",
			},
			&cli.BoolFlag{
				Name:  "print-supported-dictionaries",
				Usage: "print one supported dictionary name per line and exit",
			},
			&cli.Uint64Flag{
				Name:  "start-frame",
				Usage: "first frame (inclusive) to process",
			},
			&cli.Uint64Flag{
				Name:  "end-frame",
				Usage: "frame (exclusive) at which to stop; 0 means until the end",
			},
			&cli.Float64Flag{
				Name:  "focal-length-mm",
				Value: 1.0,
				Usage: "horizontal focal length of the camera in mm",
			},
			&cli.Float64Flag{
				Name:  "sensor-size-mm",
				Usage: "width of the camera sensor in mm",
			},
			&cli.Float64Flag{
				Name:  "fov-h-radians",
				Usage: "horizontal field of view of the camera in radians",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Bool("print-supported-dictionaries") {
		for _, name := range marker.DictionaryNames() {
			fmt.Println(name)
		}
		return nil
	}

	if c.NArg() < 3 {
		return errors.New("not enough arguments; usage: fiducialtrack filename fiducial_dictionary marker_size_mm")
	}
	path := c.Args().Get(0)
	dictName := c.Args().Get(1)
	markerSize, err := strconv.ParseFloat(c.Args().Get(2), 64)
	if err != nil {
		return errors.Wrap(err, "marker_size_mm must be a number")
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	level := cfg.LogLevel
	if c.Bool("verbose") {
		level = "debug"
	}
	log, err := logger.New(level)
	if err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer log.Sync() //nolint:errcheck

	runID, err := uuid.NewV4()
	if err != nil {
		return errors.Wrap(err, "generate run id")
	}
	log = log.With(zap.String("run_id", runID.String()))

	dict, err := marker.LoadDictionary(dictName)
	if err != nil {
		return err
	}
	detector := marker.NewArucoDetector(dict)
	defer detector.Close() //nolint:errcheck

	stream, err := video.Open(path, cfg.DecodeThreads)
	if err != nil {
		return err
	}
	defer stream.Close()

	var intrinsics camera.Intrinsics
	if c.IsSet("fov-h-radians") && c.IsSet("sensor-size-mm") {
		intrinsics = camera.NewFromHorizontalFOV(
			c.Float64("fov-h-radians"), c.Float64("sensor-size-mm"),
			stream.Width(), stream.Height(),
		)
	} else {
		f := c.Float64("focal-length-mm")
		intrinsics = camera.New(stream.Width(), stream.Height(), f, f)
	}
	if err := intrinsics.CheckValid(); err != nil {
		return errors.Wrap(err, "camera intrinsics")
	}

	log.Debug("video opened",
		zap.String("path", path),
		zap.Int("width", stream.Width()),
		zap.Int("height", stream.Height()),
		zap.Float64("fps", stream.Fps()),
		zap.String("dictionary", dictName),
		zap.Float64("marker_size_mm", markerSize),
		zap.Float64("fx", intrinsics.Fx),
		zap.Float64("fy", intrinsics.Fy),
	)

	converter := frame.NewConverter()
	defer converter.Close()

	window := frame.NewWindow(c.Uint64("start-frame"), c.Uint64("end-frame"))
	p := pipeline.New(stream, window, converter, detector, marker.IPPESolver{}, intrinsics, markerSize, os.Stdout, log)

	start := time.Now()
	if err := p.Run(); err != nil {
		return err
	}
	log.Info("run complete",
		zap.Uint64("frames_decoded", p.FramesDecoded()),
		zap.Uint64("frames_emitted", p.FramesEmitted()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

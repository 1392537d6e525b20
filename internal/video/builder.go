package video

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/hbomb79/Sectrans/internal/ffmpeg"
	"github.com/hbomb79/Sectrans/pkg/logger"
)

var log = logger.Get("VideoBuilder")

type durationProber interface {
	Probe(ctx context.Context, path string) (float64, error)
}

// Builder assembles a Record for a single recording on disk.
type Builder struct {
	prober durationProber
	log    logger.Logger
}

func NewBuilder(prober durationProber) *Builder {
	return &Builder{prober: prober, log: log}
}

// WithLogger replaces the diagnostics sink of this builder.
func (builder *Builder) WithLogger(log logger.Logger) *Builder {
	builder.log = log
	return builder
}

// Build stats, parses and probes the file at the path provided, which must
// live inside the camera directory named. A stat or parse failure yields a
// nil record and a *FileAccessError or *ParseError; the file should be
// skipped.
//
// A failed probe does not drop the record. The duration degrades to zero
// and ProbeFailed is set, so the file is still reported to the registry.
func (builder *Builder) Build(ctx context.Context, filePath string, cameraDirName string) (*Record, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, &FileAccessError{Path: filePath, Op: "resolve", Err: err}
	}

	info, err := statFile(absPath)
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(absPath)
	fields, err := Parse(fileName, cameraDirName)
	if err != nil {
		return nil, err
	}

	record := &Record{
		FileName:      fileName,
		Channel:       fields.Channel,
		Date:          fields.Date(),
		Time:          fields.Clock(),
		SizeKb:        float64(info.Size()) / 1024,
		DirectoryPath: filepath.Dir(absPath),
	}

	duration, err := builder.prober.Probe(ctx, absPath)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		var probeErr *ffmpeg.ProbeError
		if errors.As(err, &probeErr) && probeErr.Type == ffmpeg.ToolFailure {
			builder.log.Emit(logger.ERROR, "ffprobe could not be run for %s, duration recorded as 0: %v\n", absPath, err)
		} else {
			builder.log.Emit(logger.WARNING, "Unreadable media %s, duration recorded as 0: %v\n", absPath, err)
		}

		record.ProbeFailed = true
		return record, nil
	}

	record.Duration = int(duration)
	return record, nil
}

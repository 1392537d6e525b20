package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/hbomb79/Sectrans/pkg/sync"
)

var log = logger.Get("FFprobe")

// Prober resolves the duration of media files, memoizing each result
// against the canonical path of the file. A single Prober is shared by
// every ingest worker of a run.
type Prober struct {
	reader DurationReader
	cache  sync.TypedSyncMap[string, float64]
	log    logger.Logger
}

// NewProber constructs a Prober backed by the ffprobe binary described
// by the config provided.
func NewProber(config Config) *Prober {
	return NewProberWithReader(NewFfprobeReader(config), log)
}

// NewProberWithReader constructs a Prober which delegates uncached
// lookups to the reader provided.
func NewProberWithReader(reader DurationReader, log logger.Logger) *Prober {
	return &Prober{reader: reader, log: log}
}

// Probe returns the duration, in seconds, of the media file at the path
// provided. The path is resolved to its canonical absolute form first so
// that different routes to the same file share a cache entry; a cache hit
// never invokes ffprobe.
//
// Failures are returned as a *ProbeError, except for context cancellation
// which is returned as-is.
func (prober *Prober) Probe(ctx context.Context, path string) (float64, error) {
	resolved, err := CanonicalPath(path)
	if err != nil {
		return 0, &ProbeError{Path: path, Type: CorruptMedia, Err: err}
	}

	if duration, ok := prober.cache.Load(resolved); ok {
		prober.log.Emit(logger.VERBOSE, "Duration cache hit for %s\n", resolved)
		return duration, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	raw, err := prober.reader.ReadDuration(ctx, resolved)
	if err != nil {
		var probeErr *ProbeError
		if errors.As(err, &probeErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}

		return 0, &ProbeError{Path: resolved, Type: CorruptMedia, Err: err}
	}

	duration, err := parseDuration(raw)
	if err != nil {
		return 0, &ProbeError{Path: resolved, Type: CorruptMedia, Err: err}
	}

	// Two workers racing on the same file both probe; the first stored value wins.
	duration, _ = prober.cache.LoadOrStore(resolved, duration)
	return duration, nil
}

// CachedEntries returns the number of distinct files probed so far.
func (prober *Prober) CachedEntries() int { return prober.cache.Len() }

// CanonicalPath returns the absolute, symlink-free form of the path provided.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}

	return resolved, nil
}

func parseDuration(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "N/A" {
		return 0, errors.New("ffprobe reported no duration for container")
	}

	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %q is not a number: %w", raw, err)
	}
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration < 0 {
		return 0, fmt.Errorf("ffprobe duration %q is out of range", raw)
	}

	return duration, nil
}

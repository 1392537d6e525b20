package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/floostack/transcoder/ffmpeg"
)

// Config contains the options used to locate the ffprobe binary
// on the host.
type Config struct {
	FfprobeBinaryPath string `json:"ffprobe_binary_path" env:"FFPROBE_BINARY_PATH" env-default:"/usr/bin/ffprobe" validate:"required"`
}

// DurationReader reads the raw container duration (as reported by
// ffprobe, e.g. "125.700000") for the media file at the path provided.
type DurationReader interface {
	ReadDuration(ctx context.Context, path string) (string, error)
}

type ffprobeReader struct {
	binPath string
	lookErr error
}

// NewFfprobeReader returns a DurationReader which spawns one ffprobe
// process per call. The binary is resolved once, here; if it cannot be
// found every call fails with a ToolFailure.
func NewFfprobeReader(config Config) DurationReader {
	binPath, err := exec.LookPath(config.FfprobeBinaryPath)
	if err != nil {
		return &ffprobeReader{binPath: config.FfprobeBinaryPath, lookErr: err}
	}

	return &ffprobeReader{binPath: binPath}
}

// ReadDuration runs ffprobe against the file at the path provided. The
// context is only consulted before ffprobe is spawned: the transcoder does
// not accept a context, so a probe already running is never interrupted.
func (reader *ffprobeReader) ReadDuration(ctx context.Context, path string) (string, error) {
	if reader.lookErr != nil {
		return "", &ProbeError{Path: path, Type: ToolFailure, Err: reader.lookErr}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	transcoder := ffmpeg.New(&ffmpeg.Config{FfprobeBinPath: reader.binPath}).Input(path)
	metadata, err := transcoder.GetMetadata()
	if err != nil {
		return "", classifyProbeFailure(path, err)
	}

	format := metadata.GetFormat()
	if format == nil {
		return "", &ProbeError{Path: path, Type: CorruptMedia, Err: errors.New("ffprobe reported no container format")}
	}

	return format.GetDuration(), nil
}

var toolFailureMarkers = []string{
	"executable file not found",
	"ffprobe binary not found",
	"permission denied",
	"exec format error",
}

// classifyProbeFailure decides whether ffprobe failed because the binary
// itself could not run, or because it ran and rejected the file.
func classifyProbeFailure(path string, err error) *ProbeError {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return &ProbeError{Path: path, Type: ToolFailure, Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range toolFailureMarkers {
		if strings.Contains(msg, marker) && !strings.Contains(msg, "exit status") {
			return &ProbeError{Path: path, Type: ToolFailure, Err: err}
		}
	}

	return &ProbeError{Path: path, Type: CorruptMedia, Err: extractProbeMessage(err)}
}

var probeMessageMatcher = regexp.MustCompile(`(?s)message: ({.*})`)

// extractProbeMessage tries to pick the JSON error object ffprobe prints
// (due to -show_error) out of the very long error returned by the
// transcoder, falling back to the original error.
func extractProbeMessage(err error) error {
	groups := probeMessageMatcher.FindStringSubmatch(err.Error())
	if len(groups) < 2 {
		return err
	}

	var out struct {
		Error struct {
			Code   int    `json:"code"`
			String string `json:"string"`
		} `json:"error"`
	}
	if jsonErr := json.Unmarshal([]byte(strings.TrimSpace(groups[1])), &out); jsonErr != nil || out.Error.String == "" {
		return err
	}

	return fmt.Errorf("ffprobe: %s (code %d)", out.Error.String, out.Error.Code)
}

package ffmpeg

import "fmt"

type (
	ProbeErrorType int

	// ProbeError is returned for any failure to obtain a duration
	// from ffprobe. The Type distinguishes media that ffprobe rejected
	// from an ffprobe that could not be run at all.
	ProbeError struct {
		Path string
		Type ProbeErrorType
		Err  error
	}
)

const (
	CorruptMedia ProbeErrorType = iota
	ToolFailure
)

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe of %s failed (%s): %v", e.Path, e.Type, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

func (t ProbeErrorType) String() string {
	switch t {
	case CorruptMedia:
		return fmt.Sprintf("CORRUPT_MEDIA[%d]", t)
	case ToolFailure:
		return fmt.Sprintf("TOOL_FAILURE[%d]", t)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", t)
	}
}

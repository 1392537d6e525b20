package video

import "fmt"

type (
	ParseErrorType int

	// ParseError is returned by Parse when a file or camera directory name
	// does not follow the recorder naming convention.
	ParseError struct {
		Type  ParseErrorType
		Input string
		Err   error
	}

	// FileAccessError wraps a failure to stat or list a path on disk.
	FileAccessError struct {
		Path string
		Op   string
		Err  error
	}
)

const (
	BadChannel ParseErrorType = iota
	BadDate
	BadTime
)

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %q (%s): %v", e.Input, e.Type, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (t ParseErrorType) String() string {
	switch t {
	case BadChannel:
		return fmt.Sprintf("BAD_CHANNEL[%d]", t)
	case BadDate:
		return fmt.Sprintf("BAD_DATE[%d]", t)
	case BadTime:
		return fmt.Sprintf("BAD_TIME[%d]", t)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", t)
	}
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error { return e.Err }

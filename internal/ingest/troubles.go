package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/hbomb79/Sectrans/internal/video"
)

type (
	TroubleType int

	// Trouble is attached to an item which could not be turned into a
	// record. The item is skipped; the rest of the walk is unaffected.
	Trouble struct {
		error
		tType TroubleType
	}
)

const (
	MetadataFailure TroubleType = iota
	AccessFailure
	Cancelled
	GenericFailure
)

func newTrouble(err error) Trouble {
	var parseErr *video.ParseError
	var accessErr *video.FileAccessError
	switch {
	case errors.As(err, &parseErr):
		return Trouble{error: err, tType: MetadataFailure}
	case errors.As(err, &accessErr):
		return Trouble{error: err, tType: AccessFailure}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Trouble{error: err, tType: Cancelled}
	}

	return Trouble{error: err, tType: GenericFailure}
}

func (t *Trouble) Type() TroubleType { return t.tType }

func (t *Trouble) Unwrap() error { return t.error }

func (t TroubleType) String() string {
	switch t {
	case MetadataFailure:
		return fmt.Sprintf("METADATA_FAILURE[%d]", t)
	case AccessFailure:
		return fmt.Sprintf("ACCESS_FAILURE[%d]", t)
	case Cancelled:
		return fmt.Sprintf("CANCELLED[%d]", t)
	case GenericFailure:
		return fmt.Sprintf("GENERIC_FAILURE[%d]", t)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", t)
	}
}

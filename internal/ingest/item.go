package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hbomb79/Sectrans/internal/video"
	"github.com/hbomb79/Sectrans/pkg/logger"
)

type (
	IngestItemState int

	// IngestItem is a single recording discovered inside a car directory.
	IngestItem struct {
		ID        uuid.UUID
		Path      string
		CameraDir string
		State     IngestItemState
		Trouble   *Trouble
		Record    *video.Record
	}
)

const (
	Idle IngestItemState = iota
	Ingesting
	Troubled
	Complete
)

func newItem(path string, cameraDir string) *IngestItem {
	return &IngestItem{ID: uuid.New(), Path: path, CameraDir: cameraDir, State: Idle}
}

// ingest builds the record for this item. Any failure is returned so the
// caller can raise it as a Trouble on the item.
func (item *IngestItem) ingest(ctx context.Context, builder recordBuilder, log logger.Logger) error {
	log.Emit(logger.VERBOSE, "Beginning ingestion of item %s\n", item)
	record, err := builder.Build(ctx, item.Path, item.CameraDir)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("builder returned no error, but nil record received for %s", item.Path)
	}

	item.Record = record
	return nil
}

func (item *IngestItem) String() string {
	return fmt.Sprintf("IngestItem{ID=%s path=%s state=%s}", item.ID, item.Path, item.State)
}

func (s IngestItemState) String() string {
	switch s {
	case Idle:
		return fmt.Sprintf("IDLE[%d]", s)
	case Ingesting:
		return fmt.Sprintf("INGESTING[%d]", s)
	case Troubled:
		return fmt.Sprintf("TROUBLED[%d]", s)
	case Complete:
		return fmt.Sprintf("COMPLETE[%d]", s)
	default:
		return fmt.Sprintf("UNKNOWN[%d]", s)
	}
}

package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/hbomb79/Sectrans/internal/video"
	"github.com/hbomb79/Sectrans/pkg/logger"
	"github.com/hbomb79/Sectrans/pkg/worker"
)

var log = logger.Get("IngestServ")

type (
	recordBuilder interface {
		Build(ctx context.Context, filePath string, cameraDirName string) (*video.Record, error)
	}

	// ingestService is responsible for walking a single car directory and
	// turning every recording inside it into a video.Record. The
	// recordings are:
	// - Discovered by listing the camera/date/file levels of the tree
	// - Claimed one at a time by a bounded pool of workers
	// - Built (stat, name parsing, ffprobe) by the record builder
	// Items which fail are TROUBLED and skipped; the walk always continues.
	ingestService struct {
		*sync.Mutex
		walkLock sync.Mutex

		builder recordBuilder
		config  Config
		log     logger.Logger

		items    []*IngestItem
		nextIdle int
		records  []video.Record
	}
)

// New creates a new ingest service, using the provided config and record
// builder for subsequent calls to 'Walk'.
func New(config Config, builder recordBuilder) *ingestService {
	return &ingestService{
		Mutex:   &sync.Mutex{},
		builder: builder,
		config:  config,
		log:     log,
		items:   make([]*IngestItem, 0),
	}
}

// WithLogger replaces the diagnostics sink used by this service.
func (service *ingestService) WithLogger(log logger.Logger) *ingestService {
	service.log = log
	return service
}

// Walk discovers every recording beneath carRoot and builds a record for
// each using a pool of IngestionParallelism workers. Records are returned
// in completion order, which is not stable between runs.
//
// Recordings which cannot be built are skipped and logged, as are camera
// or date directories which cannot be listed. If carRoot itself cannot be
// listed, an empty slice and the error are returned.
//
// If the context is cancelled, workers stop claiming new recordings, those
// in flight are allowed to finish, and the records completed so far are
// returned alongside the context error.
func (service *ingestService) Walk(ctx context.Context, carRoot string) ([]video.Record, error) {
	service.walkLock.Lock()
	defer service.walkLock.Unlock()

	service.reset()

	discovery, err := Discover(carRoot, service.config)
	if err != nil {
		service.log.Emit(logger.ERROR, "Failed to list car directory %s: %v\n", carRoot, err)
		return []video.Record{}, err
	}
	for _, dirErr := range discovery.Errors {
		service.log.Emit(logger.WARNING, "Skipping unreadable directory: %v\n", dirErr)
	}

	service.Lock()
	service.items = discovery.Items
	service.Unlock()

	service.log.Emit(logger.INFO, "Discovered %d recordings in %s\n", len(discovery.Items), carRoot)
	if len(discovery.Items) == 0 {
		return []video.Record{}, nil
	}

	pool := service.newWorkerPool(len(discovery.Items))
	if err := pool.Start(ctx); err != nil {
		return []video.Record{}, err
	}
	if err := pool.Wait(); err != nil {
		return []video.Record{}, err
	}

	service.Lock()
	records := make([]video.Record, len(service.records))
	copy(records, service.records)
	service.Unlock()

	if err := ctx.Err(); err != nil {
		service.log.Emit(logger.STOP, "Walk of %s cancelled after %d records\n", carRoot, len(records))
		return records, err
	}

	return records, nil
}

// newWorkerPool creates a pool no wider than the number of items to process.
func (service *ingestService) newWorkerPool(itemCount int) *worker.WorkerPool {
	width := service.config.parallelism()
	if itemCount < width {
		width = itemCount
	}

	pool := worker.NewWorkerPool()
	for i := 0; i < width; i++ {
		label := fmt.Sprintf("ingest-worker-%d", i)
		pool.PushWorker(worker.NewWorker(label, service.PerformItemIngest).WithLogger(service.log))
	}

	return pool
}

// PerformItemIngest is the worker function for the ingest service, which
// is called by the services WorkerPool.
// This function will claim the first IDLE item it finds and attempt to
// ingest it. If the ingestion fails then a Trouble will be set on the item
// and it's state set to TROUBLED.
func (service *ingestService) PerformItemIngest(ctx context.Context, w worker.Worker) (bool, error) {
	item := service.claimIdleItem()
	if item == nil {
		return false, nil
	}

	err := item.ingest(ctx, service.builder, service.log)

	service.Lock()
	defer service.Unlock()
	if err != nil {
		trouble := newTrouble(err)
		item.Trouble = &trouble
		item.State = Troubled
		service.log.Emit(logger.WARNING, "Skipping %s (%s): %v\n", item.Path, trouble.Type(), err)
		return true, nil
	}

	item.State = Complete
	service.records = append(service.records, *item.Record)
	return true, nil
}

// Items returns the items discovered by the most recent walk.
func (service *ingestService) Items() []*IngestItem {
	service.Lock()
	defer service.Unlock()

	out := make([]*IngestItem, len(service.items))
	copy(out, service.items)
	return out
}

// claimIdleItem will try and find an IDLE item in the ingest service,
// and set it's state to 'INGESTING' to prevent another
// worker from claiming it once the mutex lock is released.
//
// Note: This function takes ownership of the mutex, and releases it when returning
func (service *ingestService) claimIdleItem() *IngestItem {
	service.Lock()
	defer service.Unlock()

	for ; service.nextIdle < len(service.items); service.nextIdle++ {
		if item := service.items[service.nextIdle]; item.State == Idle {
			item.State = Ingesting
			service.nextIdle++
			return item
		}
	}

	return nil
}

func (service *ingestService) reset() {
	service.Lock()
	defer service.Unlock()

	service.items = make([]*IngestItem, 0)
	service.nextIdle = 0
	service.records = make([]video.Record, 0)
}

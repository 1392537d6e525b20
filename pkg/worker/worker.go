package worker

import (
	"context"
	"sync/atomic"

	"github.com/hbomb79/Sectrans/pkg/logger"
)

var workerLogger = logger.Get("Worker")

type WorkerStatus int32

const (
	Idle WorkerStatus = iota
	Working
	Finished
)

// WorkerTask is executed repeatedly by a worker. The boolean result reports
// whether the task found work to do; once it reports false the worker
// considers the queue drained and exits. A returned error is logged and
// does not stop the worker.
type WorkerTask func(context.Context, Worker) (bool, error)

type Worker interface {
	Start(context.Context)
	Status() WorkerStatus
	Label() string
}

type taskWorker struct {
	label         string
	task          WorkerTask
	currentStatus atomic.Int32
	log           logger.Logger
}

func NewWorker(label string, task WorkerTask) *taskWorker {
	return &taskWorker{label: label, task: task, log: workerLogger}
}

// WithLogger replaces the sink used for worker lifecycle messages.
func (worker *taskWorker) WithLogger(log logger.Logger) *taskWorker {
	worker.log = log
	return worker
}

// Start runs the worker task until it reports there is no more work, or
// until the context is cancelled. Cancellation is only observed between
// task executions, so an in-flight task is always allowed to finish.
func (worker *taskWorker) Start(ctx context.Context) {
	worker.log.Emit(logger.DEBUG, "Starting worker %s\n", worker.label)
	worker.currentStatus.Store(int32(Working))
	defer func() {
		worker.currentStatus.Store(int32(Finished))
		worker.log.Emit(logger.DEBUG, "Worker %s has stopped\n", worker.label)
	}()

	for {
		if ctx.Err() != nil {
			worker.log.Emit(logger.STOP, "Worker %s stopping: %v\n", worker.label, ctx.Err())
			return
		}

		workDone, err := worker.task(ctx, worker)
		if err != nil {
			worker.log.Emit(logger.ERROR, "Worker %s has reported an error(%T): %v\n", worker.label, err, err.Error())
		}

		if !workDone {
			return
		}
	}
}

// Status returns the current status of this worker
func (worker *taskWorker) Status() WorkerStatus {
	return WorkerStatus(worker.currentStatus.Load())
}

// Label returns the label for this worker
func (worker *taskWorker) Label() string {
	return worker.label
}

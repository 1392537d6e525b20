package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/hbomb79/Sectrans/internal/ffmpeg"
	"github.com/hbomb79/Sectrans/internal/http/registry"
	"github.com/hbomb79/Sectrans/internal/ingest"
	"github.com/hbomb79/Sectrans/internal/video"
	"github.com/hbomb79/Sectrans/pkg/logger"
)

var log = logger.Get("Core")

type (
	Registry interface {
		ListCars(ctx context.Context, companyID json.Number) ([]registry.Car, error)
		RegisterVideos(ctx context.Context, payload registry.UploadPayload) error
	}

	Walker interface {
		Walk(ctx context.Context, carRoot string) ([]video.Record, error)
		Items() []*ingest.IngestItem
	}

	// Options alter the behaviour of a single run.
	Options struct {
		// DryRun prints each payload to Output instead of uploading it.
		DryRun bool
		Output io.Writer

		// Cars restricts the run to the local car directories named. When
		// empty, every car directory is indexed.
		Cars []string
	}

	// CarReport describes the outcome of indexing a single car.
	CarReport struct {
		Name     string
		RemoteID json.Number
		Records  int
		Skipped  int
		Degraded int
		Err      error
	}

	// Report summarises a run.
	Report struct {
		RunID         uuid.UUID
		CarsMatched   int
		CarsUnmatched int
		Ambiguous     bool
		Cars          []CarReport

		RecordsSent     int
		RecordsSkipped  int
		RecordsDegraded int
		WalksFailed     int
		UploadsFailed   int
	}
)

// indexerImpl is responsible for a single pass over the source directory:
// fetching the registry's cars, matching them to the local car
// directories, then walking and uploading each car in turn.
type indexerImpl struct {
	config   SectransConfig
	registry Registry
	walker   Walker
	options  Options
	log      logger.Logger
}

// New constructs an indexer using the collaborators provided.
func New(config SectransConfig, reg Registry, walker Walker) *indexerImpl {
	return &indexerImpl{
		config:   config,
		registry: reg,
		walker:   walker,
		options:  Options{Output: os.Stdout},
		log:      log,
	}
}

// NewFromConfig constructs an indexer backed by ffprobe and the registry
// HTTP API, as described by the config provided.
func NewFromConfig(config SectransConfig) *indexerImpl {
	log.Emit(logger.DEBUG, "Bootstrapping indexer using config: %#v\n", config)

	prober := ffmpeg.NewProber(config.Probe)
	builder := video.NewBuilder(prober)
	walker := ingest.New(config.Ingest, builder)
	client := registry.NewClient(config.API, config.APIToken)

	return New(config, client, walker)
}

// WithOptions replaces the options used for subsequent runs.
func (indexer *indexerImpl) WithOptions(options Options) *indexerImpl {
	if options.Output == nil {
		options.Output = os.Stdout
	}

	indexer.options = options
	return indexer
}

// WithLogger replaces the diagnostics sink used by this indexer.
func (indexer *indexerImpl) WithLogger(log logger.Logger) *indexerImpl {
	indexer.log = log
	return indexer
}

// Run performs a single indexing pass.
//
// A failure to fetch the registry's cars, or to list the source directory,
// aborts the run and is returned. Failures confined to a single car (the
// walk or the upload) are logged and recorded in the report, and the run
// continues with the next car.
//
// If the context is cancelled, the car currently being walked is not
// uploaded and the report so far is returned alongside the context error.
func (indexer *indexerImpl) Run(ctx context.Context) (Report, error) {
	report := Report{RunID: uuid.New(), Cars: make([]CarReport, 0)}
	runLog := &prefixedLogger{prefix: fmt.Sprintf("[%s] ", report.RunID), Logger: indexer.log}
	runLog.Emit(logger.NEW, "Starting run over %s\n", indexer.config.App.SourceVideoPath)

	cars, err := indexer.registry.ListCars(ctx, indexer.config.App.CompanyID)
	if err != nil {
		runLog.Emit(logger.FATAL, "Failed to fetch car list for company %s: %v\n", indexer.config.App.CompanyID, err)
		return report, fmt.Errorf("failed to fetch car list: %w", err)
	}
	runLog.Emit(logger.INFO, "Registry lists %d cars\n", len(cars))

	localNames, err := listLocalCars(indexer.config.App.SourceVideoPath)
	if err != nil {
		runLog.Emit(logger.FATAL, "Failed to list source directory: %v\n", err)
		return report, err
	}
	localNames = indexer.filterCars(localNames, runLog)

	tasks, err := registry.Match(localNames, cars, runLog)
	if err != nil {
		var ambiguous *registry.AmbiguousNameError
		if !errors.As(err, &ambiguous) {
			return report, err
		}
		report.Ambiguous = true
	}
	report.CarsMatched = len(tasks)
	report.CarsUnmatched = len(localNames) - len(tasks)

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			runLog.Emit(logger.STOP, "Run cancelled before car %s\n", task.LocalName)
			return report, err
		}

		carReport := indexer.indexCar(ctx, task, runLog)
		report.add(carReport)

		if err := ctx.Err(); err != nil {
			runLog.Emit(logger.STOP, "Run cancelled during car %s\n", task.LocalName)
			return report, err
		}
	}

	runLog.Emit(logger.SUCCESS, "Run complete: %s\n", report)
	return report, nil
}

// indexCar walks a single car directory and uploads (or prints) the
// resulting payload.
func (indexer *indexerImpl) indexCar(ctx context.Context, task registry.CarTask, runLog logger.Logger) CarReport {
	carReport := CarReport{Name: task.LocalName, RemoteID: task.RemoteID}
	carRoot := filepath.Join(indexer.config.App.SourceVideoPath, task.LocalName)

	runLog.Emit(logger.INFO, "Indexing car %s (registry ID %s)\n", task.LocalName, task.RemoteID)
	records, err := indexer.walker.Walk(ctx, carRoot)
	for _, item := range indexer.walker.Items() {
		if item.State == ingest.Troubled {
			carReport.Skipped++
		}
	}
	for _, record := range records {
		if record.ProbeFailed {
			carReport.Degraded++
		}
	}

	if err != nil {
		if ctx.Err() == nil {
			runLog.Emit(logger.ERROR, "Failed to walk car %s: %v\n", task.LocalName, err)
		}
		carReport.Err = &walkError{err}
		return carReport
	}

	payload := registry.FormatPayload(task.RemoteID, indexer.config.App.CompanyID, indexer.config.App.ServerID, records)
	if indexer.options.DryRun {
		if err := printPayload(indexer.options.Output, payload); err != nil {
			carReport.Err = &uploadError{err}
			return carReport
		}

		carReport.Records = len(records)
		return carReport
	}

	if err := indexer.registry.RegisterVideos(ctx, payload); err != nil {
		runLog.Emit(logger.ERROR, "Failed to upload %d records for car %s: %v\n", len(records), task.LocalName, err)
		carReport.Err = &uploadError{err}
		return carReport
	}

	carReport.Records = len(records)
	return carReport
}

// filterCars applies the Cars option to the local car names.
func (indexer *indexerImpl) filterCars(localNames []string, runLog logger.Logger) []string {
	if len(indexer.options.Cars) == 0 {
		return localNames
	}

	local := make(map[string]bool, len(localNames))
	for _, name := range localNames {
		local[name] = true
	}

	filtered := make([]string, 0, len(indexer.options.Cars))
	for _, name := range indexer.options.Cars {
		if !local[name] {
			runLog.Emit(logger.WARNING, "Requested car %s has no directory in the source path\n", name)
			continue
		}
		filtered = append(filtered, name)
	}

	return filtered
}

// listLocalCars returns the names of the car directories inside the source
// directory, in name order.
func listLocalCars(sourcePath string) ([]string, error) {
	entries, err := os.ReadDir(sourcePath)
	if err != nil {
		return nil, &video.FileAccessError{Path: sourcePath, Op: "list", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
			continue
		}

		if info, err := os.Stat(filepath.Join(sourcePath, entry.Name())); err == nil && info.IsDir() {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

func printPayload(out io.Writer, payload registry.UploadPayload) error {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("payload could not be marshalled: %w", err)
	}

	_, err = fmt.Fprintln(out, string(encoded))
	return err
}

func (report *Report) add(car CarReport) {
	report.Cars = append(report.Cars, car)
	report.RecordsSkipped += car.Skipped
	report.RecordsDegraded += car.Degraded
	report.RecordsSent += car.Records

	if car.Err != nil {
		var walkErr *walkError
		if errors.As(car.Err, &walkErr) {
			report.WalksFailed++
		} else {
			report.UploadsFailed++
		}
	}
}

func (report Report) String() string {
	return fmt.Sprintf("cars matched=%d unmatched=%d, records sent=%d skipped=%d degraded=%d, walks failed=%d, uploads failed=%d",
		report.CarsMatched, report.CarsUnmatched, report.RecordsSent, report.RecordsSkipped, report.RecordsDegraded, report.WalksFailed, report.UploadsFailed)
}

// Failed reports whether any car in the run could not be indexed.
func (report Report) Failed() bool {
	return report.WalksFailed > 0 || report.UploadsFailed > 0
}

type (
	walkError   struct{ error }
	uploadError struct{ error }
)

func (err *walkError) Error() string   { return fmt.Sprintf("walk failed: %s", err.error) }
func (err *walkError) Unwrap() error   { return err.error }
func (err *uploadError) Error() string { return fmt.Sprintf("upload failed: %s", err.error) }
func (err *uploadError) Unwrap() error { return err.error }

// prefixedLogger tags every message with a fixed prefix, such as the run ID.
type prefixedLogger struct {
	logger.Logger
	prefix string
}

func (l *prefixedLogger) Emit(status logger.LogStatus, message string, interpolations ...interface{}) {
	l.Logger.Emit(status, l.prefix+message, interpolations...)
}

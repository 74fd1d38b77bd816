// Package pipeline wires the transform stages and catalog registration into
// one batch job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/athena"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/catalog"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/config"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/reader"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/s3path"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/storage"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/transform"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/writer"
)

const stageBufferSize = 256

// Job runs the complete transform-and-publish pipeline: read raw events,
// validate and derive, materialize the partitioned dataset, then register
// everything with the catalog.
type Job struct {
	cfg      *config.Config
	store    storage.ObjectStore
	executor athena.QueryExecutor
	log      *zap.Logger
}

// NewJob creates a new pipeline job
func NewJob(cfg *config.Config, store storage.ObjectStore, executor athena.QueryExecutor, log *zap.Logger) *Job {
	return &Job{
		cfg:      cfg,
		store:    store,
		executor: executor,
		log:      log,
	}
}

// Run executes the job. It either completes fully or returns a single error
// identifying the failed stage.
func (j *Job) Run(ctx context.Context) error {
	inputBucket, inputPrefix, err := s3path.Parse(j.cfg.Job.InputPath)
	if err != nil {
		return fmt.Errorf("invalid input path: %w", err)
	}
	outputBucket, outputPrefix, err := s3path.Parse(j.cfg.Job.OutputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}
	resultsLocation, err := s3path.ResultsLocation(j.cfg.Job.OutputPath)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	j.log.Info("Starting ETL job",
		zap.String("job_name", j.cfg.Job.Name),
		zap.String("input_path", j.cfg.Job.InputPath),
		zap.String("output_path", j.cfg.Job.OutputPath),
		zap.String("owner_id", catalog.SanitizeOwnerID(j.cfg.Job.OwnerID)))

	eventReader := reader.New(j.store, inputBucket, inputPrefix, j.log)
	validator := transform.NewValidator(j.log)
	deriver := transform.NewDeriver(transform.DeriverConfig{
		Workers:          j.cfg.Job.DeriveWorkers,
		StrictTimestamps: j.cfg.Job.StrictTimestamps,
	}, j.log)
	partitionWriter := writer.New(j.store, writer.Config{
		Bucket:  outputBucket,
		Prefix:  outputPrefix,
		TempDir: j.cfg.Job.TempDir,
	}, j.log)

	if err := j.runTransform(ctx, eventReader, validator, deriver, partitionWriter); err != nil {
		return err
	}

	driver := athena.NewDriver(j.executor, athena.DriverConfig{
		ResultsLocation: resultsLocation,
		Workgroup:       j.cfg.Athena.Workgroup,
		PollInterval:    time.Duration(j.cfg.Athena.PollIntervalSec) * time.Second,
	}, j.log)
	registrar := catalog.NewRegistrar(driver, j.cfg.Job.OwnerID, j.cfg.Job.InputPath, j.cfg.Job.OutputPath, j.log)

	if err := registrar.Register(ctx); err != nil {
		return fmt.Errorf("catalog registration failed: %w", err)
	}

	j.log.Info("ETL job completed",
		zap.Int64("records_read", eventReader.Records()),
		zap.Int64("malformed_lines", eventReader.Malformed()),
		zap.Int64("dropped_missing_fields", validator.Dropped()),
		zap.Int64("dropped_bad_timestamps", deriver.Dropped()),
		zap.Int64("rows_written", partitionWriter.Rows()),
		zap.Int("partitions", partitionWriter.Partitions()))

	return nil
}

// runTransform runs the channel-connected stages and joins them. The first
// stage error cancels the rest.
func (j *Job) runTransform(ctx context.Context, eventReader *reader.Reader, validator *transform.Validator, deriver *transform.Deriver, partitionWriter *writer.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rawChan := make(chan *domain.RawEvent, stageBufferSize)
	validChan := make(chan *domain.RawEvent, stageBufferSize)
	cleanChan := make(chan *domain.CleanedEvent, stageBufferSize)

	var wg sync.WaitGroup
	var readErr, deriveErr, writeErr error

	wg.Add(4)

	go func() {
		defer wg.Done()
		if readErr = eventReader.Start(ctx, rawChan); readErr != nil {
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		validator.Start(ctx, rawChan, validChan)
	}()

	go func() {
		defer wg.Done()
		if deriveErr = deriver.Start(ctx, validChan, cleanChan); deriveErr != nil {
			cancel()
		}
	}()

	go func() {
		defer wg.Done()
		if writeErr = partitionWriter.Start(ctx, cleanChan); writeErr != nil {
			cancel()
		}
	}()

	wg.Wait()

	// A failing stage cancels the others, which then report context.Canceled;
	// surface the originating error, not the cancellation fallout.
	stages := []struct {
		name string
		err  error
	}{
		{"read", readErr},
		{"derive", deriveErr},
		{"write", writeErr},
	}
	for _, stage := range stages {
		if stage.err != nil && !errors.Is(stage.err, context.Canceled) {
			return fmt.Errorf("%s stage failed: %w", stage.name, stage.err)
		}
	}
	for _, stage := range stages {
		if stage.err != nil {
			return fmt.Errorf("%s stage failed: %w", stage.name, stage.err)
		}
	}
	return nil
}

// Package writer materializes the cleaned dataset as a Parquet layout
// hierarchically partitioned by (year, month, day, hour) under the output
// location.
package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	parquetwriter "github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/storage"
)

// Config configures the partitioned writer
type Config struct {
	Bucket string
	Prefix string
	// TempDir is where partition files are staged before upload. Empty means
	// the OS temp dir.
	TempDir string
}

// Writer buffers cleaned events per partition key and flushes one Parquet
// file per partition once input is exhausted. Each run writes uniquely named
// objects, so partitions of prior runs are never overwritten.
type Writer struct {
	store   storage.ObjectStore
	config  Config
	log     *zap.Logger
	buffers map[domain.PartitionKey][]*domain.CleanedEvent
	rows    int64
}

// New creates a new partitioned writer
func New(store storage.ObjectStore, config Config, log *zap.Logger) *Writer {
	return &Writer{
		store:   store,
		config:  config,
		log:     log,
		buffers: make(map[domain.PartitionKey][]*domain.CleanedEvent),
	}
}

// Start consumes cleaned events until in closes, then writes every buffered
// partition. Any write or upload failure is fatal.
func (w *Writer) Start(ctx context.Context, in <-chan *domain.CleanedEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-in:
			if !ok {
				return w.flush(ctx)
			}
			key := event.PartitionKey()
			w.buffers[key] = append(w.buffers[key], event)
			w.rows++
		}
	}
}

// Rows returns the number of rows buffered and written.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Partitions returns the number of distinct partition keys encountered.
func (w *Writer) Partitions() int {
	return len(w.buffers)
}

func (w *Writer) flush(ctx context.Context) error {
	keys := make([]domain.PartitionKey, 0, len(w.buffers))
	for key := range w.buffers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Path() < keys[j].Path() })

	for _, key := range keys {
		if err := w.writePartition(ctx, key, w.buffers[key]); err != nil {
			return err
		}
	}

	w.log.Info("Parquet write completed",
		zap.Int64("rows", w.rows),
		zap.Int("partitions", len(keys)))

	return nil
}

func (w *Writer) writePartition(ctx context.Context, key domain.PartitionKey, events []*domain.CleanedEvent) error {
	fileName := fmt.Sprintf("part-%s.parquet", uuid.NewString())
	localPath := filepath.Join(w.tempDir(), fileName)
	defer os.Remove(localPath)

	if err := writeParquetFile(localPath, events); err != nil {
		return fmt.Errorf("failed to write partition %s: %w", key, err)
	}

	objectKey := w.objectKey(key, fileName)
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open staged partition file %s: %w", localPath, err)
	}
	defer file.Close()

	_, err = w.store.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(w.config.Bucket),
		Key:    aws.String(objectKey),
		Body:   file,
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", w.config.Bucket, objectKey, err)
	}

	w.log.Info("Wrote partition",
		zap.String("partition", key.Path()),
		zap.String("key", objectKey),
		zap.Int("rows", len(events)))

	return nil
}

func writeParquetFile(path string, events []*domain.CleanedEvent) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	pw, err := parquetwriter.NewParquetWriter(fw, new(parquetEvent), 2)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, event := range events {
		if err := pw.Write(toParquetEvent(event)); err != nil {
			fw.Close()
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return fw.Close()
}

func (w *Writer) objectKey(key domain.PartitionKey, fileName string) string {
	prefix := w.config.Prefix
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return prefix + key.Path() + "/" + fileName
}

func (w *Writer) tempDir() string {
	if w.config.TempDir != "" {
		return w.config.TempDir
	}
	return os.TempDir()
}

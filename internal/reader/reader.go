// Package reader streams raw events out of newline-delimited JSON objects
// stored under an S3 prefix.
package reader

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/storage"
)

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 1024 * 1024

// Reader recursively enumerates objects under a prefix and decodes each line
// into a RawEvent.
type Reader struct {
	store     storage.ObjectStore
	bucket    string
	prefix    string
	log       *zap.Logger
	records   atomic.Int64
	malformed atomic.Int64
}

// New creates a new reader over s3://bucket/prefix
func New(store storage.ObjectStore, bucket, prefix string, log *zap.Logger) *Reader {
	return &Reader{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		log:    log,
	}
}

// Start lists all data objects under the prefix and streams their records to
// out, closing it when done. Undecodable lines are dropped and counted;
// list or get failures are fatal and abort the job.
func (r *Reader) Start(ctx context.Context, out chan<- *domain.RawEvent) error {
	defer close(out)

	var continuationToken *string
	for {
		page, err := r.store.ListObjects(ctx, &awss3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(r.prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return fmt.Errorf("failed to list objects under s3://%s/%s: %w", r.bucket, r.prefix, err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if !isDataObject(key, aws.ToInt64(object.Size)) {
				continue
			}
			if err := r.readObject(ctx, key, out); err != nil {
				return err
			}
		}

		if !aws.ToBool(page.IsTruncated) {
			break
		}
		continuationToken = page.NextContinuationToken
	}

	r.log.Info("Finished reading raw events",
		zap.Int64("records", r.records.Load()),
		zap.Int64("malformed_lines", r.malformed.Load()))

	return nil
}

// Records returns the number of records successfully decoded.
func (r *Reader) Records() int64 {
	return r.records.Load()
}

// Malformed returns the number of undecodable lines dropped.
func (r *Reader) Malformed() int64 {
	return r.malformed.Load()
}

func (r *Reader) readObject(ctx context.Context, key string, out chan<- *domain.RawEvent) error {
	r.log.Info("Reading object", zap.String("key", key))

	object, err := r.store.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get s3://%s/%s: %w", r.bucket, key, err)
	}
	defer object.Body.Close()

	var body io.Reader = object.Body
	if strings.HasSuffix(key, ".gz") {
		gz, err := gzip.NewReader(object.Body)
		if err != nil {
			return fmt.Errorf("failed to open gzip stream s3://%s/%s: %w", r.bucket, key, err)
		}
		defer gz.Close()
		body = gz
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var event domain.RawEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			r.malformed.Add(1)
			continue
		}
		r.records.Add(1)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- &event:
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read s3://%s/%s: %w", r.bucket, key, err)
	}
	return nil
}

// isDataObject filters the listing. Everything under the prefix is event
// data except directory markers, zero-byte objects, and bookkeeping files
// like _SUCCESS or .crc sidecars; upstream names its files freely (.json,
// .jsonl, .ndjson, gzipped or not), so there is no extension whitelist.
func isDataObject(key string, size int64) bool {
	if size == 0 || strings.HasSuffix(key, "/") {
		return false
	}
	base := key
	if i := strings.LastIndexByte(key, '/'); i >= 0 {
		base = key[i+1:]
	}
	return !strings.HasPrefix(base, "_") && !strings.HasPrefix(base, ".")
}

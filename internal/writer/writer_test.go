package writer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/domain"
)

// MockObjectStore is a mock implementation of storage.ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) ListObjects(ctx context.Context, input *awss3.ListObjectsV2Input) (*awss3.ListObjectsV2Output, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awss3.ListObjectsV2Output), args.Error(1)
}

func (m *MockObjectStore) GetObject(ctx context.Context, input *awss3.GetObjectInput) (*awss3.GetObjectOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awss3.GetObjectOutput), args.Error(1)
}

func (m *MockObjectStore) PutObject(ctx context.Context, input *awss3.PutObjectInput) (*awss3.PutObjectOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*awss3.PutObjectOutput), args.Error(1)
}

func cleanedEvent(ts time.Time, eventType string) *domain.CleanedEvent {
	return &domain.CleanedEvent{
		EventTS:   ts,
		EventDate: ts.UTC().Format("2006-01-02"),
		UserID:    "u_1",
		SessionID: "s_1",
		EventType: eventType,
	}
}

func runWriter(t *testing.T, w *Writer, events []*domain.CleanedEvent) error {
	t.Helper()

	in := make(chan *domain.CleanedEvent, len(events))
	for _, e := range events {
		in <- e
	}
	close(in)

	return w.Start(context.Background(), in)
}

func TestWriter_OneFilePerPartition(t *testing.T) {
	store := new(MockObjectStore)

	var uploadedKeys []string
	store.On("PutObject", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			input := args.Get(1).(*awss3.PutObjectInput)
			assert.Equal(t, "lake-bucket", aws.ToString(input.Bucket))
			// Uploaded body is a finalized parquet file, footer magic included.
			body, err := io.ReadAll(input.Body)
			assert.NoError(t, err)
			assert.Greater(t, len(body), 8)
			assert.Equal(t, "PAR1", string(body[len(body)-4:]))
			uploadedKeys = append(uploadedKeys, aws.ToString(input.Key))
		}).
		Return(&awss3.PutObjectOutput{}, nil)

	w := New(store, Config{Bucket: "lake-bucket", Prefix: "transformed", TempDir: t.TempDir()}, zap.NewNop())

	price := decimal.RequireFromString("19.99")
	revenue := decimal.RequireFromString("39.98")
	quantity := int32(2)
	purchase := cleanedEvent(time.Date(2024, 3, 5, 14, 22, 0, 0, time.UTC), "purchase")
	purchase.Quantity = &quantity
	purchase.Price = &price
	purchase.Revenue = &revenue

	events := []*domain.CleanedEvent{
		cleanedEvent(time.Date(2024, 3, 5, 14, 20, 0, 0, time.UTC), "page_view"),
		purchase,
		cleanedEvent(time.Date(2024, 3, 5, 15, 1, 0, 0, time.UTC), "page_view"),
	}

	err := runWriter(t, w, events)
	assert.NoError(t, err)

	assert.Len(t, uploadedKeys, 2)
	assert.Equal(t, int64(3), w.Rows())
	assert.Equal(t, 2, w.Partitions())

	// Flush order is deterministic: partitions sorted by path.
	assert.True(t, strings.HasPrefix(uploadedKeys[0], "transformed/year=2024/month=03/day=05/hour=14/part-"))
	assert.True(t, strings.HasPrefix(uploadedKeys[1], "transformed/year=2024/month=03/day=05/hour=15/part-"))
	for _, key := range uploadedKeys {
		assert.True(t, strings.HasSuffix(key, ".parquet"))
	}
}

func TestWriter_UniqueObjectNamesAcrossRuns(t *testing.T) {
	store := new(MockObjectStore)

	var uploadedKeys []string
	store.On("PutObject", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploadedKeys = append(uploadedKeys, aws.ToString(args.Get(1).(*awss3.PutObjectInput).Key))
		}).
		Return(&awss3.PutObjectOutput{}, nil)

	events := []*domain.CleanedEvent{
		cleanedEvent(time.Date(2024, 3, 5, 14, 20, 0, 0, time.UTC), "page_view"),
	}

	for i := 0; i < 2; i++ {
		w := New(store, Config{Bucket: "lake-bucket", Prefix: "transformed", TempDir: t.TempDir()}, zap.NewNop())
		assert.NoError(t, runWriter(t, w, events))
	}

	// Same partition, two runs, two distinct objects: prior runs are never
	// overwritten.
	assert.Len(t, uploadedKeys, 2)
	assert.NotEqual(t, uploadedKeys[0], uploadedKeys[1])
}

func TestWriter_UploadFailureIsFatal(t *testing.T) {
	store := new(MockObjectStore)
	store.On("PutObject", mock.Anything, mock.Anything).
		Return(nil, errors.New("permission denied"))

	w := New(store, Config{Bucket: "lake-bucket", Prefix: "transformed", TempDir: t.TempDir()}, zap.NewNop())

	err := runWriter(t, w, []*domain.CleanedEvent{
		cleanedEvent(time.Date(2024, 3, 5, 14, 20, 0, 0, time.UTC), "page_view"),
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload")
}

func TestWriter_EmptyInputWritesNothing(t *testing.T) {
	store := new(MockObjectStore)

	w := New(store, Config{Bucket: "lake-bucket", Prefix: "transformed", TempDir: t.TempDir()}, zap.NewNop())

	err := runWriter(t, w, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), w.Rows())
	store.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

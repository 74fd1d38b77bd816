package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// recordingRunner records every statement handed to it and can be told to
// fail at a given step.
type recordingRunner struct {
	queries   []string
	databases []string
	failAt    int // 1-based statement index, 0 means never fail
	failErr   error
}

func (r *recordingRunner) Run(_ context.Context, query, database string) (string, error) {
	r.queries = append(r.queries, query)
	r.databases = append(r.databases, database)
	if r.failAt != 0 && len(r.queries) == r.failAt {
		return "exec-fail", r.failErr
	}
	return "exec-ok", nil
}

func TestRegistrar_Register_OrderedStatements(t *testing.T) {
	runner := &recordingRunner{}
	registrar := NewRegistrar(runner, "jane-doe", "s3://raw-bucket/events", "s3://lake-bucket/transformed", zap.NewNop())

	err := registrar.Register(context.Background())
	assert.NoError(t, err)
	assert.Len(t, runner.queries, 6)

	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS capstone_jane_doe_staging_db", runner.queries[0])
	assert.True(t, strings.HasPrefix(runner.queries[1], "CREATE EXTERNAL TABLE IF NOT EXISTS capstone_jane_doe_staging_db.events_raw"))
	assert.Equal(t, "MSCK REPAIR TABLE capstone_jane_doe_staging_db.events_raw", runner.queries[2])
	assert.Equal(t, "CREATE DATABASE IF NOT EXISTS capstone_jane_doe_db", runner.queries[3])
	assert.True(t, strings.HasPrefix(runner.queries[4], "CREATE EXTERNAL TABLE IF NOT EXISTS capstone_jane_doe_db.events_parquet"))
	assert.Equal(t, "MSCK REPAIR TABLE capstone_jane_doe_db.events_parquet", runner.queries[5])

	// Database context: none for CREATE DATABASE, the owning database otherwise.
	assert.Equal(t, []string{
		"",
		"capstone_jane_doe_staging_db",
		"capstone_jane_doe_staging_db",
		"",
		"capstone_jane_doe_db",
		"capstone_jane_doe_db",
	}, runner.databases)

	// Table locations carry trailing slashes.
	assert.Contains(t, runner.queries[1], "LOCATION 's3://raw-bucket/events/'")
	assert.Contains(t, runner.queries[4], "LOCATION 's3://lake-bucket/transformed/'")
}

func TestRegistrar_Register_StopsOnFailure(t *testing.T) {
	runner := &recordingRunner{failAt: 3, failErr: errors.New("query execution exec-fail finished with state FAILED: SYNTAX_ERROR")}
	registrar := NewRegistrar(runner, "jane-doe", "s3://raw-bucket/events", "s3://lake-bucket/transformed", zap.NewNop())

	err := registrar.Register(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "repair staging partitions")
	assert.Contains(t, err.Error(), "SYNTAX_ERROR")
	// Nothing after the failing statement was submitted.
	assert.Len(t, runner.queries, 3)
}

func TestRegistrar_Register_Idempotent(t *testing.T) {
	runner := &recordingRunner{}
	registrar := NewRegistrar(runner, "jane-doe", "s3://raw-bucket/events", "s3://lake-bucket/transformed", zap.NewNop())

	assert.NoError(t, registrar.Register(context.Background()))
	assert.NoError(t, registrar.Register(context.Background()))

	// Second pass issues the identical statement sequence; every create
	// statement carries IF NOT EXISTS so re-registration cannot fail.
	assert.Len(t, runner.queries, 12)
	assert.Equal(t, runner.queries[:6], runner.queries[6:])
	for _, q := range runner.queries {
		if strings.HasPrefix(q, "CREATE") {
			assert.Contains(t, q, "IF NOT EXISTS")
		}
	}
}

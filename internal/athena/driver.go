package athena

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"go.uber.org/zap"
)

// QueryExecutor defines the interface for the async query engine: submit a
// statement, then poll its execution state by id.
type QueryExecutor interface {
	StartQueryExecution(ctx context.Context, input *awsathena.StartQueryExecutionInput) (*awsathena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, input *awsathena.GetQueryExecutionInput) (*awsathena.GetQueryExecutionOutput, error)
}

// QueryExecutionError is returned when a query execution reaches a terminal
// state other than SUCCEEDED.
type QueryExecutionError struct {
	ExecutionID string
	State       types.QueryExecutionState
	Reason      string
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution %s finished with state %s: %s", e.ExecutionID, e.State, e.Reason)
}

// DriverConfig configures the query execution driver
type DriverConfig struct {
	ResultsLocation string
	Workgroup       string
	PollInterval    time.Duration
}

// Driver runs statements against Athena synchronously: it submits the
// statement, then blocks polling until the execution reaches a terminal state.
type Driver struct {
	client QueryExecutor
	config DriverConfig
	log    *zap.Logger
}

// NewDriver creates a new query execution driver
func NewDriver(client QueryExecutor, config DriverConfig, log *zap.Logger) *Driver {
	return &Driver{
		client: client,
		config: config,
		log:    log,
	}
}

// Run submits the statement and blocks until it reaches a terminal state.
// database may be empty for statements with no database context (CREATE
// DATABASE). On SUCCEEDED it returns the execution id; on FAILED or CANCELLED
// it returns a *QueryExecutionError carrying the state and engine reason.
func (d *Driver) Run(ctx context.Context, query, database string) (string, error) {
	input := &awsathena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		WorkGroup:   aws.String(d.config.Workgroup),
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(d.config.ResultsLocation),
		},
	}
	if database != "" {
		input.QueryExecutionContext = &types.QueryExecutionContext{
			Database: aws.String(database),
		}
	}

	out, err := d.client.StartQueryExecution(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to submit query: %w", err)
	}

	executionID := aws.ToString(out.QueryExecutionId)
	d.log.Info("Query submitted",
		zap.String("execution_id", executionID),
		zap.String("database", database))

	for {
		status, err := d.client.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
			QueryExecutionId: aws.String(executionID),
		})
		if err != nil {
			return executionID, fmt.Errorf("failed to get query execution %s: %w", executionID, err)
		}

		state := status.QueryExecution.Status.State
		switch state {
		case types.QueryExecutionStateSucceeded:
			d.log.Info("Query execution succeeded",
				zap.String("execution_id", executionID))
			return executionID, nil

		case types.QueryExecutionStateFailed, types.QueryExecutionStateCancelled:
			reason := aws.ToString(status.QueryExecution.Status.StateChangeReason)
			d.log.Error("Query execution reached failure state",
				zap.String("execution_id", executionID),
				zap.String("state", string(state)),
				zap.String("reason", reason))
			return executionID, &QueryExecutionError{
				ExecutionID: executionID,
				State:       state,
				Reason:      reason,
			}
		}

		select {
		case <-ctx.Done():
			return executionID, ctx.Err()
		case <-time.After(d.config.PollInterval):
		}
	}
}

package athena

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"go.uber.org/zap"

	envConfig "github.com/sanyakatiyar/event-data-pipeline-aws/internal/config"
)

// Client represents an Athena client
type Client struct {
	client *awsathena.Client
	log    *zap.Logger
}

// NewClient creates a new Athena client
func NewClient(ctx context.Context, awsConfig envConfig.AWS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(awsConfig.Region),
	}

	var clientOpts []func(*awsathena.Options)

	if awsConfig.Endpoint != "" {
		log.Info("Configuring Athena for local development",
			zap.String("endpoint", awsConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *awsathena.Options) {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	athenaClient := awsathena.NewFromConfig(cfg, clientOpts...)

	log.Info("Athena client created", zap.String("region", awsConfig.Region))

	return &Client{
		client: athenaClient,
		log:    log,
	}, nil
}

// StartQueryExecution submits a query to Athena
func (c *Client) StartQueryExecution(ctx context.Context, input *awsathena.StartQueryExecutionInput) (*awsathena.StartQueryExecutionOutput, error) {
	return c.client.StartQueryExecution(ctx, input)
}

// GetQueryExecution fetches the state of a query execution
func (c *Client) GetQueryExecution(ctx context.Context, input *awsathena.GetQueryExecutionInput) (*awsathena.GetQueryExecutionOutput, error) {
	return c.client.GetQueryExecution(ctx, input)
}

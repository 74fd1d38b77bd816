package s3

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	envConfig "github.com/sanyakatiyar/event-data-pipeline-aws/internal/config"
)

// Client represents an S3 client
type Client struct {
	client *awss3.Client
	log    *zap.Logger
}

// NewClient creates a new S3 client
func NewClient(ctx context.Context, awsConfig envConfig.AWS, log *zap.Logger) (*Client, error) {
	configOpts := []func(*config.LoadOptions) error{
		config.WithRegion(awsConfig.Region),
	}

	var clientOpts []func(*awss3.Options)

	// Configure for local development with LocalStack/MinIO
	if awsConfig.Endpoint != "" {
		log.Info("Configuring S3 for local development",
			zap.String("endpoint", awsConfig.Endpoint))
		configOpts = append(configOpts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("dummy", "dummy", "")))

		clientOpts = append(clientOpts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(awsConfig.Endpoint)
			o.UsePathStyle = true
		})
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := awss3.NewFromConfig(cfg, clientOpts...)

	log.Info("S3 client created", zap.String("region", awsConfig.Region))

	return &Client{
		client: s3Client,
		log:    log,
	}, nil
}

// ListObjects lists objects under a prefix
func (c *Client) ListObjects(ctx context.Context, input *awss3.ListObjectsV2Input) (*awss3.ListObjectsV2Output, error) {
	return c.client.ListObjectsV2(ctx, input)
}

// GetObject fetches an object
func (c *Client) GetObject(ctx context.Context, input *awss3.GetObjectInput) (*awss3.GetObjectOutput, error) {
	return c.client.GetObject(ctx, input)
}

// PutObject uploads an object
func (c *Client) PutObject(ctx context.Context, input *awss3.PutObjectInput) (*awss3.PutObjectOutput, error) {
	return c.client.PutObject(ctx, input)
}

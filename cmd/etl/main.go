package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/athena"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/config"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/logger"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/pipeline"
	"github.com/sanyakatiyar/event-data-pipeline-aws/internal/storage/s3"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, cfg.Job.Name)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting ETL job",
		zap.String("environment", cfg.Service.Environment))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize S3 client
	s3Client, err := s3.NewClient(ctx, cfg.AWS, log)
	if err != nil {
		log.Fatal("Failed to create S3 client", zap.Error(err))
	}

	// Initialize Athena client
	athenaClient, err := athena.NewClient(ctx, cfg.AWS, log)
	if err != nil {
		log.Fatal("Failed to create Athena client", zap.Error(err))
	}

	job := pipeline.NewJob(cfg, s3Client, athenaClient, log)

	if err := job.Run(ctx); err != nil {
		log.Fatal("ETL job failed", zap.Error(err))
	}

	log.Info("ETL job finished successfully")
}

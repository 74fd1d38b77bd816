package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Service holds service-level settings
type Service struct {
	Environment string `envconfig:"SERVICE_ENVIRONMENT" default:"development"`
}

// Job holds the required job parameters. All four identity parameters must be
// present at startup; a missing value is a configuration error, not a runtime one.
type Job struct {
	Name             string `envconfig:"ETL_JOB_NAME" required:"true"`
	InputPath        string `envconfig:"ETL_INPUT_PATH" required:"true"`
	OutputPath       string `envconfig:"ETL_OUTPUT_PATH" required:"true"`
	OwnerID          string `envconfig:"ETL_OWNER_ID" required:"true"`
	DeriveWorkers    int    `envconfig:"ETL_DERIVE_WORKERS" default:"4"`
	StrictTimestamps bool   `envconfig:"ETL_STRICT_TIMESTAMPS" default:"false"`
	TempDir          string `envconfig:"ETL_TEMP_DIR" default:""`
}

// AWS holds shared AWS client settings
type AWS struct {
	Region   string `envconfig:"AWS_REGION" default:"us-west-2"`
	Endpoint string `envconfig:"AWS_ENDPOINT"`
}

// Athena holds query engine settings
type Athena struct {
	Workgroup       string `envconfig:"ATHENA_WORKGROUP" default:"primary"`
	PollIntervalSec int    `envconfig:"ATHENA_POLL_INTERVAL_SEC" default:"3"`
}

type Config struct {
	Service Service
	Job     Job
	AWS     AWS
	Athena  Athena
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Locations are stored without a trailing slash; components that need one
	// (table locations, key prefixes) append it themselves.
	cfg.Job.InputPath = strings.TrimRight(cfg.Job.InputPath, "/")
	cfg.Job.OutputPath = strings.TrimRight(cfg.Job.OutputPath, "/")

	if cfg.Job.DeriveWorkers < 1 {
		return nil, fmt.Errorf("ETL_DERIVE_WORKERS must be at least 1, got %d", cfg.Job.DeriveWorkers)
	}
	if cfg.Athena.PollIntervalSec < 1 {
		return nil, fmt.Errorf("ATHENA_POLL_INTERVAL_SEC must be at least 1, got %d", cfg.Athena.PollIntervalSec)
	}

	return &cfg, nil
}

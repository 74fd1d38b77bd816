package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// StatementRunner executes one statement against the query engine and blocks
// until it reaches a terminal state. Implemented by the athena driver.
type StatementRunner interface {
	Run(ctx context.Context, query, database string) (string, error)
}

// Registrar registers the staging and analytics datasets with the catalog:
// databases, external tables, and the partitions already present in storage.
type Registrar struct {
	runner    StatementRunner
	staging   TableDef
	analytics TableDef
	log       *zap.Logger
}

// NewRegistrar creates a registrar for one owner's staging and analytics
// tables. inputLocation and outputLocation are the s3:// locations the tables
// point at; both are given trailing slashes as table locations.
func NewRegistrar(runner StatementRunner, ownerID, inputLocation, outputLocation string, log *zap.Logger) *Registrar {
	return &Registrar{
		runner:    runner,
		staging:   StagingTable(ownerID, ensureTrailingSlash(inputLocation)),
		analytics: AnalyticsTable(ownerID, ensureTrailingSlash(outputLocation)),
		log:       log,
	}
}

// Register issues the six registration statements in strict order, each
// blocking until the previous completed. Later statements reference objects
// created by earlier ones, so the first failure aborts the sequence; no
// statement after a failure is submitted.
func (r *Registrar) Register(ctx context.Context) error {
	steps := []struct {
		name     string
		query    string
		database string
	}{
		{"create staging database", CreateDatabaseSQL(r.staging.Database), ""},
		{"create staging table", r.staging.CreateSQL(), r.staging.Database},
		{"repair staging partitions", r.staging.RepairSQL(), r.staging.Database},
		{"create analytics database", CreateDatabaseSQL(r.analytics.Database), ""},
		{"create analytics table", r.analytics.CreateSQL(), r.analytics.Database},
		{"repair analytics partitions", r.analytics.RepairSQL(), r.analytics.Database},
	}

	for _, step := range steps {
		r.log.Info("Running catalog statement",
			zap.String("step", step.name),
			zap.String("database", step.database))

		executionID, err := r.runner.Run(ctx, step.query, step.database)
		if err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}

		r.log.Info("Catalog statement completed",
			zap.String("step", step.name),
			zap.String("execution_id", executionID))
	}

	r.log.Info("Catalog registration complete",
		zap.String("staging_table", r.staging.QualifiedName()),
		zap.String("analytics_table", r.analytics.QualifiedName()))

	return nil
}

func ensureTrailingSlash(location string) string {
	if len(location) == 0 || location[len(location)-1] == '/' {
		return location
	}
	return location + "/"
}

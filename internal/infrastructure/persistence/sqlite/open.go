package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/content-validation/internal/application/port"
	"github.com/garyjia/content-validation/migrations"
	"github.com/garyjia/content-validation/pkg/database"
)

// Open connects to the recordings database and applies pending migrations.
// Failures are reported as *port.ResourceError.
func Open(ctx context.Context, cfg database.Config, logger *zap.Logger) (*database.DB, error) {
	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, &port.ResourceError{Resource: cfg.Path, Op: "open", Err: err}
	}

	if _, err := database.NewMigrator(db, logger).Run(ctx, migrations.FS); err != nil {
		_ = db.Close()
		return nil, &port.ResourceError{Resource: cfg.Path, Op: "migrate", Err: err}
	}
	return db, nil
}

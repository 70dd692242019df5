// Package migration creates the documents schema on first start. There is no
// version table; the documents table itself is the sentinel.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id            TEXT   PRIMARY KEY,
  brand         TEXT   NOT NULL,
  title         TEXT   NOT NULL,
  description   TEXT   NOT NULL DEFAULT '',
  content_type  TEXT   NOT NULL DEFAULT '',
  size          BIGINT NOT NULL CHECK (size >= 0),
  filename      TEXT   NOT NULL UNIQUE,
  original_name TEXT   NOT NULL DEFAULT '',
  path          TEXT   NOT NULL,
  tags          JSONB  NOT NULL DEFAULT '[]'::jsonb
);`,
	},
	{
		Name: "create_index_documents_brand",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_brand ON documents (brand);`,
	},
	{
		Name: "create_index_documents_tags",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags);`,
	},
}

// EnsureMigrated checks whether the documents table exists and applies the
// schema steps when it does not.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *zap.Logger) error {
	start := time.Now()

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.documents') IS NOT NULL").Scan(&exists); err != nil {
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}
	if exists {
		log.Info("schema already present, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.Error("migration step failed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		log.Info("migration step applied",
			zap.String("step", step.Name),
			zap.Duration("took", time.Since(stepStart)),
		)
	}

	log.Info("schema created", zap.Duration("took", time.Since(start)))
	return nil
}

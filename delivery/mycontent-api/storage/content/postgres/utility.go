package postgres

import (
	"fmt"
	"regexp"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
)

// collection names end up in SQL verbatim
var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

const returning = `RETURNING id, data, created_at`

func validateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: invalid collection name %q", content.ErrInvalidKey, name)
	}
	return nil
}

func getDDL(tableName string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + tableName + ` (
	id TEXT PRIMARY KEY,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
)`,
		`CREATE INDEX IF NOT EXISTS ` + tableName + `_created_at_idx ON ` + tableName + ` (created_at DESC)`,
	}
}

func insertQuery(tableName string) string {
	return `INSERT INTO ` + tableName + ` (id, data) VALUES ($1, $2) ` + returning
}

func selectQuery(tableName string) string {
	return `SELECT id, data, created_at FROM ` + tableName + ` WHERE id = $1`
}

func listQuery(tableName string) string {
	return `SELECT id, data, created_at FROM ` + tableName + ` ORDER BY created_at DESC, id DESC`
}

// jsonb concatenation merges the patch keys, last write wins
func updateQuery(tableName string) string {
	return `UPDATE ` + tableName + ` SET data = data || $2::jsonb WHERE id = $1 ` + returning
}

func deleteQuery(tableName string) string {
	return `DELETE FROM ` + tableName + ` WHERE id = $1 ` + returning
}

func countQuery(tableName string) string {
	return `SELECT count(*) FROM ` + tableName
}

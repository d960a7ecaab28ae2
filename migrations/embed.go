// Package migrations embeds the goose SQL migrations for each backend.
package migrations

import "embed"

// FS holds one directory of migrations per dialect
//
//go:embed clickhouse/*.sql sqlite/*.sql
var FS embed.FS

// Directories inside FS
const (
	ClickHouseDir = "clickhouse"
	SQLiteDir     = "sqlite"
)

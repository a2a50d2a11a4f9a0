package export

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates the tables and indexes of a snapshot database.
func CreateSchema(db *sql.DB) error {
	if err := createCoreTables(db); err != nil {
		return fmt.Errorf("create core tables: %w", err)
	}
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := createMetaTable(db); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// createCoreTables creates the insights and metrics tables. position keeps
// the server order, which is the order the dashboard shows.
func createCoreTables(db *sql.DB) error {
	insightsSQL := `
		CREATE TABLE IF NOT EXISTS insights (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			insight_type TEXT,
			severity TEXT,
			severity_level TEXT NOT NULL,
			title TEXT,
			detected_at TEXT,
			data TEXT,
			llm_explanation TEXT,
			resolved TEXT
		)
	`
	if _, err := db.Exec(insightsSQL); err != nil {
		return fmt.Errorf("create insights table: %w", err)
	}

	metricsSQL := `
		CREATE TABLE IF NOT EXISTS metrics (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			metric_name TEXT,
			metric_type TEXT,
			value REAL,
			date TEXT,
			metadata TEXT,
			computed_at TEXT
		)
	`
	if _, err := db.Exec(metricsSQL); err != nil {
		return fmt.Errorf("create metrics table: %w", err)
	}
	return nil
}

func createIndexes(db *sql.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_insights_severity ON insights(severity_level)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_type ON insights(insight_type)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_name ON metrics(metric_name)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_type ON metrics(metric_type)`,
	}
	for _, stmt := range indexes {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// createMetaTable creates the export metadata table.
func createMetaTable(db *sql.DB) error {
	metaSQL := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT
		)
	`
	if _, err := db.Exec(metaSQL); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}
	return nil
}

// InsertMetaValue inserts or updates a metadata key-value pair.
func InsertMetaValue(db *sql.DB, key, value string) error {
	_, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`, key, value)
	return err
}

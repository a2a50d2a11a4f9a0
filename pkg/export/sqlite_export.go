package export

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/prodintel/pkg/debug"
	"github.com/vanderheijden86/prodintel/pkg/snapshot"
	"github.com/vanderheijden86/prodintel/pkg/version"
)

// SchemaVersion is stored in the meta table of every export.
const SchemaVersion = "1"

// ExportSQLite writes snap to a new SQLite database at path. An existing
// file at path is replaced. All records are written, not only the ones the
// dashboard shows.
func ExportSQLite(path string, snap snapshot.Snapshot) error {
	defer debug.LogEnterExit("export.ExportSQLite")()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := CreateSchema(db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := insertInsights(db, snap); err != nil {
		return fmt.Errorf("insert insights: %w", err)
	}
	if err := insertMetrics(db, snap); err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}
	if err := writeMeta(db, snap); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return nil
}

func insertInsights(db *sql.DB, snap snapshot.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO insights (position, id, insight_type, severity, severity_level,
			title, detected_at, data, llm_explanation, resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, in := range snap.Insights {
		data, err := jsonText(in.Data)
		if err != nil {
			return fmt.Errorf("insight %s data: %w", in.ID, err)
		}
		if _, err := stmt.Exec(i, string(in.ID), in.InsightType, in.Severity, in.Level().String(),
			in.Title, in.DetectedAt, data, in.LLMExplanation, in.Resolved); err != nil {
			return fmt.Errorf("insight %s: %w", in.ID, err)
		}
	}
	return tx.Commit()
}

func insertMetrics(db *sql.DB, snap snapshot.Snapshot) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO metrics (position, id, metric_name, metric_type, value, date, metadata, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, m := range snap.Metrics {
		meta, err := jsonText(m.Metadata)
		if err != nil {
			return fmt.Errorf("metric %s metadata: %w", m.ID, err)
		}
		if _, err := stmt.Exec(i, string(m.ID), m.MetricName, m.MetricType, m.Value,
			m.Date, meta, m.ComputedAt); err != nil {
			return fmt.Errorf("metric %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func writeMeta(db *sql.DB, snap snapshot.Snapshot) error {
	values := map[string]string{
		"schema_version": SchemaVersion,
		"pi_version":     version.Version,
		"base_url":       snap.BaseURL,
		"fetched_at":     snap.FetchedAt.UTC().Format(time.RFC3339),
		"insight_count":  fmt.Sprint(len(snap.Insights)),
		"metric_count":   fmt.Sprint(len(snap.Metrics)),
		"failed":         strings.Join(snap.Failed, ","),
	}
	for k, v := range values {
		if err := InsertMetaValue(db, k, v); err != nil {
			return fmt.Errorf("meta %s: %w", k, err)
		}
	}
	return nil
}

// jsonText stores free-form maps as JSON text; nil maps become NULL.
func jsonText(v map[string]any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

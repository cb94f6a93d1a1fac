package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"statseries/internal/model"
	"statseries/internal/store"
)

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertDataset replaces everything stored for the dataset in one transaction and
// returns the id of the new ingest batch. Duplicate observations are kept as fetched.
func (s *Store) UpsertDataset(ctx context.Context, dataset model.Dataset) (batchID string, err error) {
	code := normalizeCode(dataset.Code)
	if code == "" {
		return "", errors.New("sqlite: dataset code is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"dataset_observations", "dataset_dimensions", "ingest_batches"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE dataset_code = ?", code); err != nil {
			return "", err
		}
	}

	batchID = uuid.NewString()
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ingest_batches (batch_id, dataset_code, observation_count, ingested_at)
		VALUES (?, ?, ?, ?)
	`, batchID, code, len(dataset.Observations), s.now().UTC().Format(time.RFC3339Nano)); err != nil {
		return "", err
	}

	if err = insertDimensions(ctx, tx, code, dataset.Dimensions); err != nil {
		return "", err
	}
	if err = insertObservations(ctx, tx, code, dataset.Observations); err != nil {
		return "", err
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return batchID, nil
}

func insertDimensions(ctx context.Context, tx *sql.Tx, code string, dimensions []model.Dimension) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_dimensions (
			dataset_code, ordinal, dim_index, dim_type, type_code, type_label
		) VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, dim := range dimensions {
		var typeCode, typeLabel any
		if dim.ClassificationType != nil {
			typeCode = dim.ClassificationType.Code
			typeLabel = dim.ClassificationType.Label
		}
		if _, err := stmt.ExecContext(ctx, code, i, dim.Index, string(dim.Type), typeCode, typeLabel); err != nil {
			return err
		}
	}
	return nil
}

func insertObservations(ctx context.Context, tx *sql.Tx, code string, observations []model.Observation) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_observations (
			dataset_code, ordinal, source_dataset_code, value, value_status,
			period_year, period_quarter, period_month, periodicity, iso_period,
			unit_code, unit_symbol, unit_name, classifications
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, observation := range observations {
		classifications, err := json.Marshal(observation.Classifications)
		if err != nil {
			return fmt.Errorf("sqlite: encode classifications: %w", err)
		}

		var year, quarter, month, periodicity, isoPeriod any
		if tp := observation.TimePeriod; tp != nil {
			year = tp.Year
			quarter = nullableInt(tp.Quarter)
			month = nullableInt(tp.Month)
			periodicity = string(tp.Periodicity)
			isoPeriod = tp.ISOPeriod
		}
		var unitCode, unitSymbol, unitName any
		if unit := observation.Unit; unit != nil {
			unitCode = nullableString(unit.Code)
			unitSymbol = nullableString(unit.Symbol)
			unitName = nullableString(unit.Name)
		}

		_, err = stmt.ExecContext(
			ctx,
			code,
			i,
			observation.DatasetCode,
			nullableString(observation.Value),
			nullableString(observation.ValueStatus),
			year,
			quarter,
			month,
			periodicity,
			isoPeriod,
			unitCode,
			unitSymbol,
			unitName,
			string(classifications),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadDataset returns the dataset in the order it was stored.
func (s *Store) LoadDataset(ctx context.Context, datasetCode string) (model.Dataset, error) {
	code := normalizeCode(datasetCode)
	var batchID string
	err := s.db.QueryRowContext(ctx, `SELECT batch_id FROM ingest_batches WHERE dataset_code = ?`, code).Scan(&batchID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Dataset{}, store.ErrNotFound
	}
	if err != nil {
		return model.Dataset{}, err
	}

	dimensions, err := s.loadDimensions(ctx, code)
	if err != nil {
		return model.Dataset{}, err
	}
	observations, err := s.loadObservations(ctx, code)
	if err != nil {
		return model.Dataset{}, err
	}
	return model.Dataset{Code: code, Dimensions: dimensions, Observations: observations}, nil
}

func (s *Store) loadDimensions(ctx context.Context, code string) ([]model.Dimension, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dim_index, dim_type, type_code, type_label
		FROM dataset_dimensions
		WHERE dataset_code = ?
		ORDER BY ordinal
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dimensions := make([]model.Dimension, 0)
	for rows.Next() {
		var dim model.Dimension
		var dimType string
		var typeCode, typeLabel sql.NullString
		if err := rows.Scan(&dim.Index, &dimType, &typeCode, &typeLabel); err != nil {
			return nil, err
		}
		dim.Type = model.DimensionType(dimType)
		if typeCode.Valid {
			dim.ClassificationType = &model.ClassificationType{Code: typeCode.String, Label: typeLabel.String}
		}
		dimensions = append(dimensions, dim)
	}
	return dimensions, rows.Err()
}

func (s *Store) loadObservations(ctx context.Context, code string) ([]model.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_dataset_code, value, value_status,
			period_year, period_quarter, period_month, periodicity, iso_period,
			unit_code, unit_symbol, unit_name, classifications
		FROM dataset_observations
		WHERE dataset_code = ?
		ORDER BY ordinal
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := make([]model.Observation, 0)
	for rows.Next() {
		var observation model.Observation
		var value, valueStatus, periodicity, isoPeriod sql.NullString
		var year, quarter, month sql.NullInt64
		var unitCode, unitSymbol, unitName sql.NullString
		var classifications string
		if err := rows.Scan(
			&observation.DatasetCode, &value, &valueStatus,
			&year, &quarter, &month, &periodicity, &isoPeriod,
			&unitCode, &unitSymbol, &unitName, &classifications,
		); err != nil {
			return nil, err
		}

		observation.Value = stringPtr(value)
		observation.ValueStatus = stringPtr(valueStatus)
		if year.Valid {
			observation.TimePeriod = &model.TimePeriod{
				Year:        int(year.Int64),
				Quarter:     intPtr(quarter),
				Month:       intPtr(month),
				Periodicity: model.Periodicity(periodicity.String),
				ISOPeriod:   isoPeriod.String,
			}
		}
		if unitCode.Valid || unitSymbol.Valid || unitName.Valid {
			observation.Unit = &model.Unit{
				Code:   stringPtr(unitCode),
				Symbol: stringPtr(unitSymbol),
				Name:   stringPtr(unitName),
			}
		}
		if err := json.Unmarshal([]byte(classifications), &observation.Classifications); err != nil {
			return nil, fmt.Errorf("sqlite: decode classifications: %w", err)
		}
		observations = append(observations, observation)
	}
	return observations, rows.Err()
}

func (s *Store) ListDatasets(ctx context.Context) ([]store.DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dataset_code, batch_id, observation_count, ingested_at
		FROM ingest_batches
		ORDER BY dataset_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := make([]store.DatasetInfo, 0)
	for rows.Next() {
		var info store.DatasetInfo
		var ingestedAt string
		if err := rows.Scan(&info.Code, &info.BatchID, &info.ObservationCount, &ingestedAt); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ingestedAt); err == nil {
			info.IngestedAt = parsed
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) migrate() error {
	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS ingest_batches (
			batch_id TEXT NOT NULL PRIMARY KEY,
			dataset_code TEXT NOT NULL UNIQUE,
			observation_count INTEGER NOT NULL,
			ingested_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS dataset_dimensions (
			dataset_code TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			dim_index INTEGER NOT NULL,
			dim_type TEXT NOT NULL,
			type_code TEXT,
			type_label TEXT,
			PRIMARY KEY (dataset_code, ordinal)
		);`,
		`CREATE TABLE IF NOT EXISTS dataset_observations (
			dataset_code TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			source_dataset_code TEXT NOT NULL,
			value TEXT,
			value_status TEXT,
			period_year INTEGER,
			period_quarter INTEGER,
			period_month INTEGER,
			periodicity TEXT,
			iso_period TEXT,
			unit_code TEXT,
			unit_symbol TEXT,
			unit_name TEXT,
			classifications TEXT NOT NULL,
			PRIMARY KEY (dataset_code, ordinal)
		);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	text := value.String
	return &text
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	number := int(value.Int64)
	return &number
}

var _ store.Store = (*Store)(nil)

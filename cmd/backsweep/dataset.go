package main

import (
	"crypto/sha256"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/vectra-quant/backsweep/internal/repro"
	"github.com/vectra-quant/backsweep/internal/types"
)

// loadCandles reads a CSV or Parquet candle file through DuckDB and returns
// the core dataset plus its manifest reference. The manifest checksum is the
// SHA-256 of the file contents, so re-running against a changed file yields
// different reproducibility hashes.
func loadCandles(path string, timeRange types.TimeRange) (*types.CoreDataset, repro.ManifestRef, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, repro.ManifestRef{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	var reader string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		reader = "read_csv_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		return nil, repro.ManifestRef{}, fmt.Errorf("unsupported data file extension: %s", path)
	}

	// CREATE VIEW has no placeholder support in squirrel or DuckDB.
	if _, err := db.Exec(fmt.Sprintf(`CREATE VIEW candles AS SELECT * FROM %s('%s')`, reader, path)); err != nil {
		return nil, repro.ManifestRef{}, fmt.Errorf("failed to create candle view: %w", err)
	}

	query := `SELECT time, open, high, low, close, volume FROM candles`

	args := make([]any, 0, 2)
	conditions := make([]string, 0, 2)

	if !timeRange.Start.IsZero() {
		args = append(args, timeRange.Start)
		conditions = append(conditions, fmt.Sprintf("time >= $%d", len(args)))
	}

	if !timeRange.End.IsZero() {
		args = append(args, timeRange.End)
		conditions = append(conditions, fmt.Sprintf("time <= $%d", len(args)))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY time ASC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, repro.ManifestRef{}, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []types.Candle

	for rows.Next() {
		var candle types.Candle

		if err := rows.Scan(&candle.Time, &candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume); err != nil {
			return nil, repro.ManifestRef{}, fmt.Errorf("failed to scan candle: %w", err)
		}

		candle.Time = candle.Time.UTC()
		candles = append(candles, candle)
	}

	if err := rows.Err(); err != nil {
		return nil, repro.ManifestRef{}, fmt.Errorf("error iterating candles: %w", err)
	}

	core, err := types.NewCoreDataset(candles)
	if err != nil {
		return nil, repro.ManifestRef{}, err
	}

	checksum, err := checksumFile(path)
	if err != nil {
		return nil, repro.ManifestRef{}, err
	}

	manifest := repro.ManifestRef{
		ID:       strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Checksum: checksum,
	}

	return core, manifest, nil
}

func checksumFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read data file: %w", err)
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:]), nil
}

// writeCandlesCSV writes candles in the column layout loadCandles expects.
func writeCandlesCSV(path string, candles []types.Candle) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create data file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)

	if err := w.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, candle := range candles {
		record := []string{
			candle.Time.UTC().Format(time.RFC3339),
			formatFloat(candle.Open),
			formatFloat(candle.High),
			formatFloat(candle.Low),
			formatFloat(candle.Close),
			formatFloat(candle.Volume),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write candle: %w", err)
		}
	}

	w.Flush()

	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

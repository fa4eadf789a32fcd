// Package store persists experiment results to DuckDB for ad-hoc analysis
// and Parquet export.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/vectra-quant/backsweep/internal/logger"
	"github.com/vectra-quant/backsweep/internal/types"
	"github.com/vectra-quant/backsweep/pkg/errors"
	"go.uber.org/zap"
)

// metricColumns maps rank metric names onto simulation table columns. Metric
// names never reach SQL directly.
var metricColumns = map[string]string{
	"total_pnl":        "total_pnl",
	"expectancy":       "expectancy",
	"win_rate":         "win_rate",
	"profit_factor":    "profit_factor",
	"max_drawdown":     "max_drawdown",
	"number_of_trades": "number_of_trades",
}

// ResultStore records finished simulations and their executions.
type ResultStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultStore opens an in-memory DuckDB database. Pass a file path via
// dsn to persist across processes; empty means in-memory.
func NewResultStore(dsn string, log *logger.Logger) (*ResultStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to open database", err)
	}

	return &ResultStore{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the simulations and executions tables.
func (s *ResultStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS simulations (
			simulation_id TEXT PRIMARY KEY,
			experiment_id TEXT,
			strategy TEXT,
			instrument TEXT,
			parameters TEXT,
			status TEXT,
			error TEXT,
			execution_time_ms DOUBLE,
			number_of_trades INTEGER,
			win_rate DOUBLE,
			total_pnl DOUBLE,
			expectancy DOUBLE,
			profit_factor DOUBLE,
			max_drawdown DOUBLE,
			reproducibility_hash TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to create simulations table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS executions (
			simulation_id TEXT,
			entry_index INTEGER,
			exit_index INTEGER,
			entry_time TIMESTAMP,
			exit_time TIMESTAMP,
			entry_price DOUBLE,
			exit_price DOUBLE,
			quantity DOUBLE,
			fee DOUBLE,
			exit_reason TEXT,
			pnl DOUBLE
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreInitFailed, "failed to create executions table", err)
	}

	return nil
}

// RecordSimulation persists one terminal simulation plus its executions in a
// single transaction.
func (s *ResultStore) RecordSimulation(experimentID string, simulation *types.Simulation, trades []types.TradeExecution) error {
	if !simulation.Status.IsTerminal() {
		return errors.Newf(errors.ErrCodeStoreWriteFailed, "simulation %s is not terminal", simulation.ID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to begin transaction", err)
	}

	var numberOfTrades int

	var winRate, totalPnL, expectancy, profitFactor, maxDD float64

	if simulation.Results != nil {
		numberOfTrades = simulation.Results.NumberOfTrades
		winRate = simulation.Results.WinRate
		totalPnL = simulation.Results.TotalPnL
		expectancy = simulation.Results.Expectancy
		profitFactor = simulation.Results.ProfitFactor
		maxDD = simulation.Results.MaxDrawdown
	}

	insertSim := s.sq.
		Insert("simulations").
		Columns(
			"simulation_id", "experiment_id", "strategy", "instrument",
			"parameters", "status", "error", "execution_time_ms",
			"number_of_trades", "win_rate", "total_pnl", "expectancy",
			"profit_factor", "max_drawdown", "reproducibility_hash",
		).
		Values(
			simulation.ID, experimentID, simulation.Strategy, simulation.Instrument,
			simulation.Parameters.CanonicalString(), string(simulation.Status),
			simulation.Error, float64(simulation.ExecutionTime.Milliseconds()),
			numberOfTrades, winRate, totalPnL, expectancy,
			profitFactor, maxDD, simulation.ReproducibilityHash,
		).
		RunWith(tx)

	if _, err := insertSim.Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert simulation", err)
	}

	for _, trade := range trades {
		insertTrade := s.sq.
			Insert("executions").
			Columns(
				"simulation_id", "entry_index", "exit_index", "entry_time",
				"exit_time", "entry_price", "exit_price", "quantity",
				"fee", "exit_reason", "pnl",
			).
			Values(
				simulation.ID, trade.EntryIndex, trade.ExitIndex, trade.EntryTime,
				trade.ExitTime, trade.EntryPrice, trade.ExitPrice, trade.Quantity,
				trade.Fee, string(trade.ExitReason), trade.PnL,
			).
			RunWith(tx)

		if _, err := insertTrade.Exec(); err != nil {
			tx.Rollback()

			return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to insert execution", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to commit transaction", err)
	}

	return nil
}

// SimulationRecord is the stored view of one simulation.
type SimulationRecord struct {
	SimulationID        string
	ExperimentID        string
	Strategy            string
	Instrument          string
	Parameters          string
	Status              string
	MetricValue         float64
	ReproducibilityHash string
}

// TopByMetric returns the best completed simulations of an experiment by the
// given metric, descending, simulation id as tie-break.
func (s *ResultStore) TopByMetric(experimentID, metric string, limit int) ([]SimulationRecord, error) {
	column, ok := metricColumns[metric]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeInvalidMetric, "unknown rank metric %q", metric)
	}

	if limit <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "limit must be positive, got %d", limit)
	}

	selectQuery := s.sq.
		Select(
			"simulation_id", "experiment_id", "strategy", "instrument",
			"parameters", "status", column, "reproducibility_hash",
		).
		From("simulations").
		Where(squirrel.Eq{"experiment_id": experimentID, "status": string(types.SimulationStatusCompleted)}).
		OrderBy(column+" DESC", "simulation_id ASC").
		Limit(uint64(limit)).
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to query simulations", err)
	}
	defer rows.Close()

	var records []SimulationRecord

	for rows.Next() {
		var record SimulationRecord

		err := rows.Scan(
			&record.SimulationID,
			&record.ExperimentID,
			&record.Strategy,
			&record.Instrument,
			&record.Parameters,
			&record.Status,
			&record.MetricValue,
			&record.ReproducibilityHash,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan simulation", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "error iterating simulations", err)
	}

	return records, nil
}

// ExecutionsFor returns the stored executions of one simulation in entry
// order.
func (s *ResultStore) ExecutionsFor(simulationID string) ([]types.TradeExecution, error) {
	selectQuery := s.sq.
		Select(
			"entry_index", "exit_index", "entry_time", "exit_time",
			"entry_price", "exit_price", "quantity", "fee", "exit_reason", "pnl",
		).
		From("executions").
		Where(squirrel.Eq{"simulation_id": simulationID}).
		OrderBy("entry_index ASC").
		RunWith(s.db)

	rows, err := selectQuery.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to query executions", err)
	}
	defer rows.Close()

	var trades []types.TradeExecution

	for rows.Next() {
		var (
			trade  types.TradeExecution
			reason string
		)

		err := rows.Scan(
			&trade.EntryIndex,
			&trade.ExitIndex,
			&trade.EntryTime,
			&trade.ExitTime,
			&trade.EntryPrice,
			&trade.ExitPrice,
			&trade.Quantity,
			&trade.Fee,
			&reason,
			&trade.PnL,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "failed to scan execution", err)
		}

		trade.ExitReason = types.ExitReason(reason)
		trades = append(trades, trade)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreQueryFailed, "error iterating executions", err)
	}

	return trades, nil
}

// Write exports both tables to Parquet files under path.
func (s *ResultStore) Write(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to create directory", err)
	}

	// COPY has no placeholder support, so paths are interpolated directly.
	simulationsPath := filepath.Join(path, "simulations.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY simulations TO '%s' (FORMAT PARQUET)`, simulationsPath)); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to export simulations", err)
	}

	executionsPath := filepath.Join(path, "executions.parquet")
	if _, err := s.db.Exec(fmt.Sprintf(`COPY executions TO '%s' (FORMAT PARQUET)`, executionsPath)); err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to export executions", err)
	}

	s.logger.Info("exported experiment results",
		zap.String("simulations", simulationsPath),
		zap.String("executions", executionsPath),
	)

	return nil
}

// Cleanup drops and recreates both tables.
func (s *ResultStore) Cleanup() error {
	_, err := s.db.Exec(`
		DROP TABLE IF EXISTS executions;
		DROP TABLE IF EXISTS simulations;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to drop tables", err)
	}

	return s.Initialize()
}

// Close releases the database handle.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

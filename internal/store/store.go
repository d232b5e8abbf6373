// Package store persists portfolio snapshots and trade records to DuckDB.
// Both tables are append-only: rows are never updated or deleted, so the
// database is a faithful audit trail of everything the engine decided. On
// restart the latest snapshot seeds the ledger.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// Store wraps a DuckDB database holding the snapshots and trades tables.
type Store struct {
	db  *sql.DB
	log *logger.Logger
	sq  squirrel.StatementBuilderType
}

// NewStore opens (or creates) the configured database and initializes the
// schema. An empty path opens an in-memory database, which is what backtests
// without persistence use.
func NewStore(cfg config.StoreConfig, log *logger.Logger) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "failed to connect to database", err)
	}

	s := &Store{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := s.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			timestamp TIMESTAMP,
			portfolio_value DOUBLE,
			cash DOUBLE,
			position_value DOUBLE,
			total_pnl DOUBLE,
			total_pnl_pct DOUBLE,
			daily_pnl DOUBLE,
			position_count INTEGER,
			win_rate DOUBLE,
			mode TEXT,
			holdings TEXT,
			halted BOOLEAN
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create snapshots table", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			timestamp TIMESTAMP,
			type TEXT,
			code TEXT,
			quantity DOUBLE,
			price DOUBLE,
			amount DOUBLE,
			pnl DOUBLE,
			fee DOUBLE,
			reason TEXT,
			portfolio_value DOUBLE,
			order_id TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create trades table", err)
	}

	return nil
}

// WriteSnapshot appends one portfolio snapshot. Holdings are stored as a
// JSON column; they are read back only for ledger seeding, never queried.
func (s *Store) WriteSnapshot(snap types.PortfolioSnapshot) error {
	holdings, err := json.Marshal(snap.Holdings)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to encode holdings", err)
	}

	_, err = s.sq.
		Insert("snapshots").
		Columns(
			"timestamp", "portfolio_value", "cash", "position_value", "total_pnl",
			"total_pnl_pct", "daily_pnl", "position_count", "win_rate", "mode",
			"holdings", "halted",
		).
		Values(
			snap.Timestamp, snap.PortfolioValue, snap.Cash, snap.PositionValue, snap.TotalPnL,
			snap.TotalPnLPct, snap.DailyPnL, snap.PositionCount, snap.WinRate, string(snap.Mode),
			string(holdings), snap.Halted,
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to insert snapshot", err)
	}

	return nil
}

// WriteTrade appends one trade record to the audit trail.
func (s *Store) WriteTrade(record types.TradeRecord) error {
	_, err := s.sq.
		Insert("trades").
		Columns(
			"timestamp", "type", "code", "quantity", "price", "amount",
			"pnl", "fee", "reason", "portfolio_value", "order_id",
		).
		Values(
			record.Timestamp, string(record.Type), record.Code, record.Quantity, record.Price,
			record.Amount, record.PnL, record.Fee, record.Reason, record.PortfolioValue,
			record.OrderID,
		).
		RunWith(s.db).
		Exec()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to insert trade", err)
	}

	return nil
}

// LatestSnapshot returns the most recent snapshot, or None when the store
// is empty. Used to seed the ledger after a restart.
func (s *Store) LatestSnapshot() (optional.Option[types.PortfolioSnapshot], error) {
	row := s.sq.
		Select(
			"timestamp", "portfolio_value", "cash", "position_value", "total_pnl",
			"total_pnl_pct", "daily_pnl", "position_count", "win_rate", "mode",
			"holdings", "halted",
		).
		From("snapshots").
		OrderBy("timestamp DESC").
		Limit(1).
		RunWith(s.db).
		QueryRow()

	var (
		snap     types.PortfolioSnapshot
		mode     string
		holdings string
	)

	err := row.Scan(
		&snap.Timestamp, &snap.PortfolioValue, &snap.Cash, &snap.PositionValue, &snap.TotalPnL,
		&snap.TotalPnLPct, &snap.DailyPnL, &snap.PositionCount, &snap.WinRate, &mode,
		&holdings, &snap.Halted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return optional.None[types.PortfolioSnapshot](), nil
		}

		return optional.None[types.PortfolioSnapshot](), errors.Wrap(errors.ErrCodeQueryFailed,
			"failed to read latest snapshot", err)
	}

	snap.Mode = types.Mode(mode)

	if err := json.Unmarshal([]byte(holdings), &snap.Holdings); err != nil {
		return optional.None[types.PortfolioSnapshot](), errors.Wrap(errors.ErrCodeQueryFailed,
			"failed to decode holdings", err)
	}

	return optional.Some(snap), nil
}

// Trades returns up to limit trade records, newest first. A non-positive
// limit returns everything.
func (s *Store) Trades(limit int) ([]types.TradeRecord, error) {
	query := s.sq.
		Select(
			"timestamp", "type", "code", "quantity", "price", "amount",
			"pnl", "fee", "reason", "portfolio_value", "order_id",
		).
		From("trades").
		OrderBy("timestamp DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	rows, err := query.RunWith(s.db).Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var records []types.TradeRecord

	for rows.Next() {
		var (
			record types.TradeRecord
			side   string
		)

		err := rows.Scan(
			&record.Timestamp, &side, &record.Code, &record.Quantity, &record.Price,
			&record.Amount, &record.PnL, &record.Fee, &record.Reason, &record.PortfolioValue,
			&record.OrderID,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		record.Type = types.Side(side)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate trades", err)
	}

	return records, nil
}

// ExportParquet copies both tables into parquet files under dir.
func (s *Store) ExportParquet(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "failed to create results directory", err)
	}

	for _, table := range []string{"snapshots", "trades"} {
		path := filepath.Join(dir, table+".parquet")

		_, err := s.db.Exec(fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, path))
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStoreFailed, err, "failed to export %s", table)
		}

		s.log.Info("Exported table", zap.String("table", table), zap.String("path", path))
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

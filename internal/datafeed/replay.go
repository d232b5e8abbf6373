package datafeed

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// ReplayFeed streams historical bars from a parquet or CSV file through an
// in-memory DuckDB instance. Bars come out ordered by timestamp then symbol,
// which makes every replay of the same file produce the same sequence.
type ReplayFeed struct {
	db        *sql.DB
	log       *logger.Logger
	watchlist []string
}

// NewReplayFeed loads the file at dataPath into an in-memory table. The
// format is chosen by extension; anything that is not parquet is read with
// DuckDB's CSV auto-detection. Only bars for watchlist symbols are loaded.
func NewReplayFeed(dataPath string, watchlist []string, log *logger.Logger) (*ReplayFeed, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFeedCorrupted, "failed to open replay database", err)
	}

	reader := "read_csv_auto"
	if filepath.Ext(dataPath) == ".parquet" {
		reader = "read_parquet"
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE bars AS
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM %s('%s')
	`, reader, dataPath))
	if err != nil {
		db.Close()

		return nil, errors.Wrapf(errors.ErrCodeFeedCorrupted, err, "failed to load bars from %s", dataPath)
	}

	feed := &ReplayFeed{db: db, log: log, watchlist: watchlist}

	count, err := feed.Count()
	if err != nil {
		db.Close()

		return nil, err
	}

	log.Info("Replay feed loaded",
		zap.String("path", dataPath),
		zap.Int("bars", count),
	)

	return feed, nil
}

// Count returns the number of bars the feed will yield. The backtest
// command uses it to size its progress bar.
func (f *ReplayFeed) Count() (int, error) {
	query, params := f.selectQuery("COUNT(*)")

	var count int
	if err := f.db.QueryRow(query, params...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Bars streams the loaded bars in (timestamp, symbol) order.
func (f *ReplayFeed) Bars(ctx context.Context) iter.Seq2[types.PriceBar, error] {
	return func(yield func(types.PriceBar, error) bool) {
		query, params := f.selectQuery("symbol, timestamp, open, high, low, close, volume")
		query += " ORDER BY timestamp ASC, symbol ASC"

		rows, err := f.db.QueryContext(ctx, query, params...)
		if err != nil {
			yield(types.PriceBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query bars", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				return
			}

			var bar types.PriceBar

			err := rows.Scan(&bar.Symbol, &bar.Timestamp, &bar.Open, &bar.High,
				&bar.Low, &bar.Close, &bar.Volume)
			if err != nil {
				yield(types.PriceBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err))

				return
			}

			if !yield(bar, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.PriceBar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err))
		}
	}
}

// Close closes the in-memory database.
func (f *ReplayFeed) Close() error {
	return f.db.Close()
}

func (f *ReplayFeed) selectQuery(columns string) (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM bars", columns)

	if len(f.watchlist) == 0 {
		return query, nil
	}

	placeholders := make([]string, len(f.watchlist))
	params := make([]any, len(f.watchlist))

	for i, symbol := range f.watchlist {
		placeholders[i] = "?"
		params[i] = symbol
	}

	query += fmt.Sprintf(" WHERE symbol IN (%s)", strings.Join(placeholders, ", "))

	return query, params
}

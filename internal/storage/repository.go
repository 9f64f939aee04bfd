package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"salestats/internal/core"

	_ "modernc.org/sqlite"
)

const monthClause = `strftime('%m', dateOfSale) = ?`

const selectColumns = `SELECT id, COALESCE(title, ''), COALESCE(price, 0), COALESCE(description, ''),
	COALESCE(category, ''), COALESCE(image, ''), COALESCE(sold, 0), COALESCE(dateOfSale, '')
	FROM transactions`

// likeEscaper makes LIKE patterns match the search text literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type SQLiteRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteRepository opens (creating if needed) the database file at dbPath and
// ensures the transactions table exists.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	repo := &SQLiteRepository{
		db:   db,
		path: dbPath,
	}

	if err := repo.EnsureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("SQLite repository ready", "path", dbPath)
	return repo, nil
}

// EnsureSchema creates the transactions table if it does not exist.
func (r *SQLiteRepository) EnsureSchema() error {
	if err := RunMigrations(r.path); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertIfAbsent implements ports.TransactionWriter. A row with the same id is
// left untouched and reported as not inserted.
func (r *SQLiteRepository) InsertIfAbsent(ctx context.Context, t core.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transactions (id, title, price, description, category, image, sold, dateOfSale)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Price, t.Description, t.Category, t.Image, t.Sold, t.DateOfSale)
	if err != nil {
		return false, fmt.Errorf("insert transaction %d: %w", t.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected for transaction %d: %w", t.ID, err)
	}
	return n > 0, nil
}

// ListTransactions implements ports.TransactionReader
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.ListFilter) ([]core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	query := selectColumns + ` WHERE ` + monthClause
	args := []any{f.Month.Numeric()}

	if f.HasSearch() {
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		query += ` AND (title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\' OR CAST(price AS TEXT) LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern, pattern)
	}

	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, f.PerPage, f.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions (month=%s): %w", f.Month, err)
	}
	defer rows.Close()

	out := []core.Transaction{}
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.Title, &t.Price, &t.Description, &t.Category, &t.Image, &t.Sold, &t.DateOfSale); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

// MonthStatistics implements ports.TransactionReader
func (r *SQLiteRepository) MonthStatistics(ctx context.Context, m core.Month) (core.Statistics, error) {
	var s core.Statistics
	if err := m.Validate(); err != nil {
		return s, fmt.Errorf("month statistics: %w", err)
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(price), 0), COUNT(*), COUNT(CASE WHEN sold = 0 THEN 1 END)
		FROM transactions WHERE `+monthClause,
		m.Numeric()).Scan(&s.TotalSaleAmount, &s.TotalSoldItems, &s.TotalNotSoldItems)
	if err != nil {
		return core.Statistics{}, fmt.Errorf("query statistics (month=%s): %w", m, err)
	}

	return s, nil
}

// MonthPrices implements ports.TransactionReader. Missing prices read as 0 so
// every row of the month is represented.
func (r *SQLiteRepository) MonthPrices(ctx context.Context, m core.Month) ([]float64, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("month prices: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(price, 0) FROM transactions WHERE `+monthClause, m.Numeric())
	if err != nil {
		return nil, fmt.Errorf("query prices (month=%s): %w", m, err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}

	return prices, nil
}

// CategoryCounts implements ports.TransactionReader
func (r *SQLiteRepository) CategoryCounts(ctx context.Context, m core.Month) ([]core.CategoryCount, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("category counts: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(category, ''), COUNT(*) FROM transactions
		WHERE `+monthClause+`
		GROUP BY category ORDER BY category`, m.Numeric())
	if err != nil {
		return nil, fmt.Errorf("query category counts (month=%s): %w", m, err)
	}
	defer rows.Close()

	var counts []core.CategoryCount
	for rows.Next() {
		var c core.CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}

	return counts, nil
}

// Count returns the total number of stored transactions.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

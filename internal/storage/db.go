// =============================================================================
// Sales Loader - Store
// =============================================================================
//
// This module owns the connection to the target database.
//
// LIFECYCLE:
//   1. EnsureDatabase creates the database on engines that support it
//   2. Open connects to the database
//   3. Setup drops and recreates the target table and its indexes
//   4. OpenWriter pins one connection for the whole load
//   5. Writer.WriteBatch inserts one batch in one transaction
//   6. Count reads the table size back for verification
//
// =============================================================================

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/types"
)

// columnCount is the number of bind parameters per row.
var columnCount = len(types.Fields)

// DB is an open target database.
type DB struct {
	db      *sql.DB
	dialect Dialect
	table   string
	log     *slog.Logger
}

// =============================================================================
// CONNECTING
// =============================================================================

// EnsureDatabase creates cfg.Name if the dialect supports CREATE DATABASE and
// no explicit DSN was given. It connects at server level and disconnects
// before returning.
func EnsureDatabase(ctx context.Context, cfg config.DatabaseConfig) error {
	d, err := Lookup(cfg.Driver)
	if err != nil {
		return err
	}
	if cfg.DSN != "" || cfg.Name == "" {
		return nil
	}
	stmt := d.CreateDatabase(cfg.Name)
	if stmt == "" {
		return nil
	}
	if err := ValidateIdentifier("database", cfg.Name); err != nil {
		return err
	}

	dsn, err := d.DSN(cfg, false)
	if err != nil {
		return err
	}
	server, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s server connection: %w", d.Name(), err)
	}
	defer server.Close()

	if _, err := server.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create database %s: %w", cfg.Name, err)
	}
	return nil
}

// Open connects to the target database and checks it with a ping.
//
// PARAMETERS:
//   - ctx: Bounds the ping.
//   - cfg: Driver, connection settings and target table.
//   - logger: nil means slog.Default().
//
// RETURNS:
//   - The store.
//   - ErrUnknownDriver, ErrInvalidIdentifier or the driver's connect error.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d, err := Lookup(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if err := ValidateIdentifier("table", cfg.Table); err != nil {
		return nil, err
	}

	dsn, err := d.DSN(cfg, true)
	if err != nil {
		return nil, err
	}
	raw, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", d.Name(), err)
	}
	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", d.Name(), err)
	}

	return &DB{db: raw, dialect: d, table: cfg.Table, log: logger}, nil
}

// Close releases the connection pool.
func (s *DB) Close() error {
	return s.db.Close()
}

// =============================================================================
// SCHEMA
// =============================================================================

// Setup prepares the target table. With recreate, an existing table is
// dropped first so every run starts from an empty table. Without recreate
// the table is only created when missing.
func (s *DB) Setup(ctx context.Context, recreate bool) error {
	if recreate {
		s.log.Info("recreating table", "table", s.table)
		if _, err := s.db.ExecContext(ctx, s.dialect.DropTable(s.table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", s.table, err)
		}
	} else {
		exists, err := s.tableExists(ctx)
		if err != nil {
			return err
		}
		if exists {
			s.log.Info("keeping existing table", "table", s.table)
			return nil
		}
	}

	for _, stmt := range s.dialect.CreateTable(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table %s: %w", s.table, err)
		}
	}
	return nil
}

// tableExists probes the table with a query that returns no rows.
func (s *DB) tableExists(ctx context.Context) (bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT 1 FROM "+s.dialect.Quote(s.table)+" WHERE 1 = 0")
	if err != nil {
		// Engines disagree on the error for a missing table; any failure
		// here means the table has to be created.
		return false, nil
	}
	defer rows.Close()
	return true, rows.Err()
}

// Count returns the number of rows in the target table.
func (s *DB) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.dialect.Quote(s.table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", s.table, err)
	}
	return n, nil
}

// =============================================================================
// WRITER
// =============================================================================

// Writer inserts batches over one pinned connection.
type Writer struct {
	conn        *sql.Conn
	dialect     Dialect
	table       string
	rowsPerStmt int
	fullStmt    string
}

// OpenWriter pins one connection from the pool for a load. The writer must
// be closed to return the connection.
func (s *DB) OpenWriter(ctx context.Context) (*Writer, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	rowsPerStmt := max(s.dialect.MaxParams()/columnCount, 1)
	if limit := s.dialect.MaxRows(); limit > 0 {
		rowsPerStmt = min(rowsPerStmt, limit)
	}

	return &Writer{
		conn:        conn,
		dialect:     s.dialect,
		table:       s.table,
		rowsPerStmt: rowsPerStmt,
		fullStmt:    insertSQL(s.dialect, s.table, rowsPerStmt),
	}, nil
}

// WriteBatch inserts rows in one transaction and commits it. A batch larger
// than the engine's bind parameter limit is split into several INSERT
// statements inside the same transaction.
//
// PARAMETERS:
//   - rows: Each row has one value per canonical column, in column order.
//
// RETURNS:
//   - nil once the transaction is committed. On error the transaction is
//     rolled back; earlier batches stay committed.
func (w *Writer) WriteBatch(ctx context.Context, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for start := 0; start < len(rows); start += w.rowsPerStmt {
		chunk := rows[start:min(start+w.rowsPerStmt, len(rows))]

		stmt := w.fullStmt
		if len(chunk) != w.rowsPerStmt {
			stmt = insertSQL(w.dialect, w.table, len(chunk))
		}

		args := make([]any, 0, len(chunk)*columnCount)
		for i, row := range chunk {
			if len(row) != columnCount {
				_ = tx.Rollback()
				return fmt.Errorf("row %d has %d values, want %d", start+i, len(row), columnCount)
			}
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert rows %d-%d: %w", start, start+len(chunk)-1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Close returns the pinned connection to the pool.
func (w *Writer) Close() error {
	return w.conn.Close()
}

// insertSQL builds a multi-row INSERT for n rows.
func insertSQL(d Dialect, table string, n int) string {
	var b strings.Builder

	b.WriteString("INSERT INTO ")
	b.WriteString(d.Quote(table))
	b.WriteString(" (")
	for i, col := range types.Columns() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Quote(col))
	}
	b.WriteString(") VALUES ")

	param := 1
	for r := 0; r < n; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := 0; c < columnCount; c++ {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(param))
			param++
		}
		b.WriteByte(')')
	}
	return b.String()
}

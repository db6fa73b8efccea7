// Package sqlite registers the SQLite storage backend (modernc.org/sqlite,
// no cgo). The database is a single file named by database.dsn.
package sqlite

import (
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/storage"
)

func init() {
	storage.Register(Dialect{})
}

// Dialect implements storage.Dialect for SQLite.
//
// SQLite has no DATETIME or DECIMAL storage class. Timestamps are stored as
// "YYYY-MM-DD HH:MM:SS" text and prices as decimal text, which keeps them
// exact and sortable.
type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }
func (Dialect) DriverName() string { return "sqlite" }

func (Dialect) DSN(cfg config.DatabaseConfig, _ bool) (string, error) {
	if cfg.DSN == "" {
		return "", fmt.Errorf("sqlite: database.dsn must name the database file")
	}
	return cfg.DSN, nil
}

func (Dialect) CreateDatabase(string) string { return "" }

func (d Dialect) CreateTable(table string) []string {
	return []string{
		`CREATE TABLE ` + d.Quote(table) + ` (
  invoice       VARCHAR(32),
  stock_code    VARCHAR(64),
  description   TEXT,
  quantity      INTEGER,
  invoice_date  TEXT,
  unit_price    TEXT,
  customer_id   INTEGER NULL,
  country       VARCHAR(64)
)`,
		"CREATE INDEX " + d.Quote("idx_"+table+"_invoice_date") + " ON " + d.Quote(table) + " (invoice_date)",
		"CREATE INDEX " + d.Quote("idx_"+table+"_invoice") + " ON " + d.Quote(table) + " (invoice)",
	}
}

func (d Dialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func (Dialect) Quote(ident string) string { return `"` + ident + `"` }

func (Dialect) Placeholder(int) string { return "?" }

// MaxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32 and later.
func (Dialect) MaxParams() int { return 32766 }

func (Dialect) MaxRows() int { return 0 }

// Package postgres registers the PostgreSQL storage backend, using pgx
// through its database/sql adapter.
//
// PostgreSQL has no CREATE DATABASE IF NOT EXISTS, so the target database
// must already exist.
package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/storage"
)

func init() {
	storage.Register(Dialect{})
}

// Dialect implements storage.Dialect for PostgreSQL.
type Dialect struct{}

func (Dialect) Name() string { return "postgres" }
func (Dialect) DriverName() string { return "pgx" }

// DSN builds a postgres:// URL.
func (Dialect) DSN(cfg config.DatabaseConfig, withDatabase bool) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres: host is required")
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if withDatabase {
		u.Path = "/" + cfg.Name
	}
	return u.String(), nil
}

func (Dialect) CreateDatabase(string) string { return "" }

func (d Dialect) CreateTable(table string) []string {
	return []string{
		`CREATE TABLE ` + d.Quote(table) + ` (
  invoice       VARCHAR(32),
  stock_code    VARCHAR(64),
  description   TEXT,
  quantity      INTEGER,
  invoice_date  TIMESTAMP,
  unit_price    NUMERIC(10,2),
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

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) MaxParams() int { return 65535 }

func (Dialect) MaxRows() int { return 0 }

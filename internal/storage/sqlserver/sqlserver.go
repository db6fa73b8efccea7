// Package sqlserver registers the Microsoft SQL Server storage backend.
package sqlserver

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/storage"
)

func init() {
	storage.Register(Dialect{})
}

// Dialect implements storage.Dialect for SQL Server.
type Dialect struct{}

func (Dialect) Name() string { return "sqlserver" }
func (Dialect) DriverName() string { return "sqlserver" }

// DSN builds a sqlserver:// URL.
func (Dialect) DSN(cfg config.DatabaseConfig, withDatabase bool) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	u := url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	if withDatabase && cfg.Name != "" {
		q := url.Values{}
		q.Set("database", cfg.Name)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (d Dialect) CreateDatabase(name string) string {
	return "IF DB_ID(N'" + name + "') IS NULL CREATE DATABASE " + d.Quote(name)
}

func (d Dialect) CreateTable(table string) []string {
	return []string{
		`CREATE TABLE ` + d.Quote(table) + ` (
  invoice       NVARCHAR(32),
  stock_code    NVARCHAR(64),
  description   NVARCHAR(MAX),
  quantity      INT,
  invoice_date  DATETIME2(0),
  unit_price    DECIMAL(10,2),
  customer_id   INT NULL,
  country       NVARCHAR(64)
)`,
		"CREATE INDEX " + d.Quote("idx_"+table+"_invoice_date") + " ON " + d.Quote(table) + " (invoice_date)",
		"CREATE INDEX " + d.Quote("idx_"+table+"_invoice") + " ON " + d.Quote(table) + " (invoice)",
	}
}

func (d Dialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func (Dialect) Quote(ident string) string { return "[" + ident + "]" }

func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// MaxParams stays under the 2100 parameter limit of an RPC call.
func (Dialect) MaxParams() int { return 2000 }

// MaxRows is the row limit of a table value constructor.
func (Dialect) MaxRows() int { return 1000 }

// Package mysql registers the MySQL / MariaDB storage backend. It is the
// default target and reproduces the historical schema exactly.
package mysql

import (
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/ginjaninja78/salesloader/internal/config"
	"github.com/ginjaninja78/salesloader/internal/storage"
)

func init() {
	storage.Register(Dialect{})
}

// Dialect implements storage.Dialect for MySQL.
type Dialect struct{}

func (Dialect) Name() string { return "mysql" }
func (Dialect) DriverName() string { return "mysql" }

// DSN builds a go-sql-driver DSN. Column values are sent as text, so no
// parseTime is needed.
func (Dialect) DSN(cfg config.DatabaseConfig, withDatabase bool) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	if withDatabase {
		c.DBName = cfg.Name
	}
	if err := c.Apply(mysql.Charset("utf8mb4", "utf8mb4_unicode_ci")); err != nil {
		return "", fmt.Errorf("failed to configure mysql charset: %w", err)
	}
	return c.FormatDSN(), nil
}

func (d Dialect) CreateDatabase(name string) string {
	return "CREATE DATABASE IF NOT EXISTS " + d.Quote(name) + " CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
}

func (d Dialect) CreateTable(table string) []string {
	return []string{`CREATE TABLE ` + d.Quote(table) + ` (
  invoice       VARCHAR(32),
  stock_code    VARCHAR(64),
  description   TEXT,
  quantity      INT,
  invoice_date  DATETIME,
  unit_price    DECIMAL(10,2),
  customer_id   INT NULL,
  country       VARCHAR(64),
  INDEX idx_invoice_date (invoice_date),
  INDEX idx_invoice (invoice)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`}
}

func (d Dialect) DropTable(table string) string {
	return "DROP TABLE IF EXISTS " + d.Quote(table)
}

func (Dialect) Quote(ident string) string { return "`" + ident + "`" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) MaxParams() int { return 65535 }

func (Dialect) MaxRows() int { return 0 }

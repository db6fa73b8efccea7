// =============================================================================
// Sales Loader - Storage Dialects
// =============================================================================
//
// This module defines what a storage backend must provide and keeps the
// registry of backends. Backends live in subpackages and register themselves
// from init():
//
//   import _ "github.com/ginjaninja78/salesloader/internal/storage/all"
//
// A dialect is pure SQL text and DSN construction. Connection handling,
// transactions and batching live in db.go and are shared by every backend.
//
// =============================================================================

package storage

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/ginjaninja78/salesloader/internal/config"
)

// ErrUnknownDriver is returned when no backend is registered under a name.
var ErrUnknownDriver = errors.New("unknown storage driver")

// ErrInvalidIdentifier is returned for table or database names that are not
// plain identifiers.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// =============================================================================
// DIALECT INTERFACE
// =============================================================================

// Dialect describes one SQL engine.
type Dialect interface {
	// Name is the registry key, e.g. "mysql".
	Name() string

	// DriverName is the database/sql driver name passed to sql.Open.
	DriverName() string

	// DSN builds the connection string. withDatabase=false connects to the
	// server only, for CREATE DATABASE. cfg.DSN, when set, wins.
	DSN(cfg config.DatabaseConfig, withDatabase bool) (string, error)

	// CreateDatabase returns the statement that creates the database if it
	// does not exist, or "" when the engine has no such statement.
	CreateDatabase(name string) string

	// CreateTable returns the CREATE TABLE statement followed by any
	// separate index statements.
	CreateTable(table string) []string

	// DropTable returns a DROP TABLE IF EXISTS statement.
	DropTable(table string) string

	// Quote quotes an identifier that has passed ValidateIdentifier.
	Quote(ident string) string

	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string

	// MaxParams is the bind parameter limit of a single statement.
	MaxParams() int

	// MaxRows caps the rows of one multi-row INSERT. 0 means no cap.
	MaxRows() int
}

// =============================================================================
// REGISTRY
// =============================================================================

var (
	mu       sync.RWMutex
	dialects = map[string]Dialect{}
)

// Register makes a dialect available under d.Name().
//
// Panics:
//   - If d is nil or its name is empty.
//   - If the name is already registered.
func Register(d Dialect) {
	mu.Lock()
	defer mu.Unlock()

	if d == nil || d.Name() == "" {
		panic("storage: Register called with nil or unnamed dialect")
	}
	if _, exists := dialects[d.Name()]; exists {
		panic(fmt.Sprintf("storage: dialect already registered for driver=%q", d.Name()))
	}
	dialects[d.Name()] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	mu.RLock()
	d := dialects[name]
	mu.RUnlock()

	if d == nil {
		return nil, fmt.Errorf("%w %q (available: %v)", ErrUnknownDriver, name, Drivers())
	}
	return d, nil
}

// Drivers lists the registered dialect names, sorted.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// ValidateIdentifier accepts only plain identifiers, since table and
// database names are spliced into DDL.
func ValidateIdentifier(kind, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("%w: %s %q", ErrInvalidIdentifier, kind, name)
	}
	return nil
}

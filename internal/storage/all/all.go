// Package all registers every storage backend.
package all

import (
	_ "github.com/ginjaninja78/salesloader/internal/storage/mysql"
	_ "github.com/ginjaninja78/salesloader/internal/storage/postgres"
	_ "github.com/ginjaninja78/salesloader/internal/storage/sqlite"
	_ "github.com/ginjaninja78/salesloader/internal/storage/sqlserver"
)

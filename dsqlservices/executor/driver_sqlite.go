package executor

import (
	"database/sql"
	"fmt"

	"github.com/lunagic/dsql-go/dsql"
	_ "github.com/mattn/go-sqlite3"
)

func NewDriverSQLite(path string) Driver {
	return &driverSQLite{
		Path: path,
	}
}

type driverSQLite struct {
	Path string
}

func (driver *driverSQLite) Open() (*sql.DB, error) {
	return sql.Open(
		"sqlite3",
		fmt.Sprintf("file:%s?cache=shared&_foreign_keys=on", driver.Path),
	)
}

func (driver *driverSQLite) Dialect() dsql.Dialect {
	return dsql.DialectSQLite()
}

func (driver *driverSQLite) usesFirstInsertID() bool {
	// SQLite reports the last generated id of a multi-row insert
	return false
}

package executor

import (
	"database/sql"
	"errors"

	"github.com/lunagic/dsql-go/dsql"
)

var (
	ErrNoRows     = errors.New("no rows found")
	ErrBlankQuery = errors.New("blank query")
)

// Driver pairs a database/sql connection with the dsql dialect whose
// rendering rules match the engine the connection talks to.
type Driver interface {
	Open() (*sql.DB, error)
	Dialect() dsql.Dialect
	usesFirstInsertID() bool
}

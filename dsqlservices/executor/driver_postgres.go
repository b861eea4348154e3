package executor

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/lunagic/dsql-go/dsql"
)

func NewDriverPostgres(config DriverPostgresConfig) Driver {
	return &driverPostgres{
		config: config,
	}
}

type DriverPostgresConfig struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

type driverPostgres struct {
	config DriverPostgresConfig
}

func (driver *driverPostgres) Open() (*sql.DB, error) {
	return sql.Open(
		"postgres",
		fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			driver.config.Host,
			driver.config.Port,
			driver.config.User,
			driver.config.Pass,
			driver.config.Name,
		),
	)
}

func (driver *driverPostgres) Dialect() dsql.Dialect {
	return dsql.DialectPostgres()
}

func (driver *driverPostgres) usesFirstInsertID() bool {
	// Not consulted, inserted ids come back through RETURNING
	return false
}

package executor_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lunagic/dsql-go/dsql"
	"github.com/lunagic/dsql-go/dsqlservices/executor"
	"gotest.tools/v3/assert"
)

func newSQLiteService(t *testing.T, configFuncs ...executor.ServiceConfigFunc) *executor.Service {
	t.Helper()

	service, err := executor.New(
		executor.NewDriverSQLite(fmt.Sprintf("%s/database.sqlite", t.TempDir())),
		configFuncs...,
	)
	assert.NilError(t, err)

	return service
}

func TestDryRun(t *testing.T) {
	t.Parallel()

	output := bytes.Buffer{}
	service := newSQLiteService(t, executor.WithDryRun(&output))

	// The table does not exist, a dry run never touches the database
	rows, err := service.Select(t.Context(), dsql.SelectQuery{
		Table: "missing",
		Where: []dsql.ConditionGroup{
			{dsql.Equal("name", "John")},
		},
	})
	assert.NilError(t, err)
	assert.Equal(t, 0, len(rows))

	_, err = service.Insert(t.Context(), "missing", dsql.Record{"name": "John"})
	assert.NilError(t, err)

	dump := output.String()
	assert.Assert(t, strings.Contains(dump, `SELECT * FROM "missing" WHERE "name" = ?`))
	assert.Assert(t, strings.Contains(dump, `INSERT INTO "missing" ("name") VALUES (?)`))
	assert.Assert(t, !strings.Contains(dump, `'John'`))
}

func TestPreRunFunc(t *testing.T) {
	t.Parallel()

	errBlocked := errors.New("blocked")

	statements := []string{}
	service := newSQLiteService(t,
		executor.WithPreRunFunc(func(ctx context.Context, statement string, args []any) error {
			statements = append(statements, statement)

			if strings.HasPrefix(statement, "DELETE") {
				return errBlocked
			}

			return nil
		}),
	)

	_, err := service.Raw(t.Context(), `CREATE TABLE "things" ("id" INTEGER PRIMARY KEY, "name" TEXT)`)
	assert.NilError(t, err)

	_, err = service.Delete(t.Context(), dsql.DeleteQuery{Table: "things"})
	assert.ErrorIs(t, err, errBlocked)

	assert.Equal(t, 2, len(statements))
}

func TestBlankQuery(t *testing.T) {
	t.Parallel()

	service := newSQLiteService(t)

	_, err := service.Raw(t.Context(), "")
	assert.ErrorIs(t, err, executor.ErrBlankQuery)
}

func TestRenderErrorsSurfaceBeforeExecution(t *testing.T) {
	t.Parallel()

	executed := 0
	service := newSQLiteService(t,
		executor.WithPreRunFunc(func(ctx context.Context, statement string, args []any) error {
			executed++
			return nil
		}),
	)

	_, err := service.Select(t.Context(), dsql.SelectQuery{})
	assert.ErrorIs(t, err, dsql.ErrInvalidInput)

	_, err = service.Insert(t.Context(), "people",
		dsql.Record{"name": "John"},
		dsql.Record{"age": 30},
	)
	assert.ErrorIs(t, err, dsql.ErrInvalidInput)

	assert.Equal(t, 0, executed)
}

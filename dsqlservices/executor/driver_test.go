package executor_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/lunagic/dsql-go/dsql"
	"github.com/lunagic/dsql-go/dsqlservices/executor"
	"gotest.tools/v3/assert"
)

func testSuite(t *testing.T, driver executor.Driver, schema string) {
	service, err := executor.New(driver, executor.WithLogger(slog.Default()))
	assert.NilError(t, err)
	assert.NilError(t, service.Ping())

	_, err = service.Raw(t.Context(), schema)
	assert.NilError(t, err)

	{ // Insert a batch and get back the generated ids
		ids, err := service.Insert(t.Context(), "people",
			dsql.Record{"name": "John", "age": 34, "occupation": "engineer"},
			dsql.Record{"name": "Jane", "age": 29, "occupation": "artist"},
		)
		assert.NilError(t, err)
		assert.DeepEqual(t, []int64{1, 2}, ids)
	}

	{ // Condition groups combine with OR across groups
		rows, err := service.Select(t.Context(), dsql.SelectQuery{
			Table:  "people",
			Fields: []string{"name"},
			Where: []dsql.ConditionGroup{
				{dsql.GreaterThan("age", 30)},
				{dsql.In("occupation", "artist")},
			},
			OrderBy: []string{"name"},
		})
		assert.NilError(t, err)
		assert.DeepEqual(t, []executor.Row{
			{"name": "Jane"},
			{"name": "John"},
		}, rows)
	}

	{ // SelectSingle returns the first row or ErrNoRows
		row, err := service.SelectSingle(t.Context(), dsql.SelectQuery{
			Table: "people",
			Where: []dsql.ConditionGroup{
				{dsql.Equal("name", "John")},
			},
		})
		assert.NilError(t, err)
		assert.Equal(t, "John", row["name"])

		_, err = service.SelectSingle(t.Context(), dsql.SelectQuery{
			Table: "people",
			Where: []dsql.ConditionGroup{
				{dsql.Equal("name", "Nobody")},
			},
		})
		assert.ErrorIs(t, err, executor.ErrNoRows)
	}

	{ // Update reports the affected row count
		affected, err := service.Update(t.Context(), dsql.UpdateQuery{
			Table: "people",
			Set: dsql.Record{
				"age": 35,
			},
			Where: []dsql.ConditionGroup{
				{dsql.Equal("name", "John")},
			},
		})
		assert.NilError(t, err)
		assert.Equal(t, int64(1), affected)

		row, err := service.SelectSingle(t.Context(), dsql.SelectQuery{
			Table: "people",
			Where: []dsql.ConditionGroup{
				{dsql.Equal("name", "John")},
			},
		})
		assert.NilError(t, err)
		assert.Equal(t, int64(35), row["age"])
	}

	{ // A failed transaction rolls everything back
		errAbort := errors.New("abort")

		err := service.Transaction(t.Context(), func(session *executor.Session) error {
			if _, err := session.Insert(t.Context(), "people",
				dsql.Record{"name": "Temp", "age": 1, "occupation": "none"},
			); err != nil {
				return err
			}

			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		_, err = service.SelectSingle(t.Context(), dsql.SelectQuery{
			Table: "people",
			Where: []dsql.ConditionGroup{
				{dsql.Equal("name", "Temp")},
			},
		})
		assert.ErrorIs(t, err, executor.ErrNoRows)
	}

	{ // A successful transaction commits
		assert.NilError(t, service.Transaction(t.Context(), func(session *executor.Session) error {
			_, err := session.Insert(t.Context(), "people",
				dsql.Record{"name": "Kim", "age": 41, "occupation": "pilot"},
			)

			return err
		}))

		row, err := service.SelectSingle(t.Context(), dsql.SelectQuery{
			Table: "people",
			Where: []dsql.ConditionGroup{
				{dsql.Equal("name", "Kim")},
			},
		})
		assert.NilError(t, err)
		assert.Equal(t, "Kim", row["name"])
	}

	{ // Delete reports the affected row count
		affected, err := service.Delete(t.Context(), dsql.DeleteQuery{
			Table: "people",
			Where: []dsql.ConditionGroup{
				{dsql.In("name", "Jane", "Kim")},
			},
		})
		assert.NilError(t, err)
		assert.Equal(t, int64(2), affected)
	}

	{ // Raw passes statements through unmodified
		rows, err := service.RawSelect(t.Context(), "SELECT COUNT(*) AS total FROM people")
		assert.NilError(t, err)
		assert.Equal(t, 1, len(rows))
	}
}

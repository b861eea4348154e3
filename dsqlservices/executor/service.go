package executor

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/lunagic/dsql-go/dsql"
)

// Row is one result row shaped as a field to value mapping.
type Row map[string]any

// databaseRunner is the slice of database/sql shared by *sql.DB and
// *sql.Tx, so the same execution path serves autocommit calls and
// transactions.
type databaseRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Service struct {
	driver            Driver
	dialect           dsql.Dialect
	standardLibraryDB *sql.DB
	preRunFuncs       []func(ctx context.Context, statement string, args []any) error
	postRunFuncs      []func(ctx context.Context) error
	dryRunTarget      io.Writer
}

func New(
	driver Driver,
	configFuncs ...ServiceConfigFunc,
) (*Service, error) {
	db, err := driver.Open()
	if err != nil {
		return nil, err
	}

	service := &Service{
		driver:            driver,
		dialect:           driver.Dialect(),
		standardLibraryDB: db,
		preRunFuncs:       []func(ctx context.Context, statement string, args []any) error{},
		postRunFuncs:      []func(ctx context.Context) error{},
	}

	for _, configFunc := range configFuncs {
		if err := configFunc(service); err != nil {
			return nil, err
		}
	}

	return service, nil
}

func (service *Service) Ping() error {
	return service.standardLibraryDB.Ping()
}

func (service *Service) Dialect() dsql.Dialect {
	return service.dialect
}

func (service *Service) Select(ctx context.Context, query dsql.SelectQuery) ([]Row, error) {
	return service.session().Select(ctx, query)
}

func (service *Service) SelectSingle(ctx context.Context, query dsql.SelectQuery) (Row, error) {
	return service.session().SelectSingle(ctx, query)
}

func (service *Service) Insert(ctx context.Context, table string, records ...dsql.Record) ([]int64, error) {
	return service.session().Insert(ctx, table, records...)
}

func (service *Service) Update(ctx context.Context, query dsql.UpdateQuery) (int64, error) {
	return service.session().Update(ctx, query)
}

func (service *Service) Delete(ctx context.Context, query dsql.DeleteQuery) (int64, error) {
	return service.session().Delete(ctx, query)
}

func (service *Service) Raw(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return service.session().Raw(ctx, query, args...)
}

func (service *Service) RawSelect(ctx context.Context, query string, args ...any) ([]Row, error) {
	return service.session().RawSelect(ctx, query, args...)
}

// Transaction runs the callback inside a single transaction, committing
// when it returns nil and rolling back when it returns an error.
func (service *Service) Transaction(ctx context.Context, callback func(session *Session) error) error {
	tx, err := service.standardLibraryDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := callback(&Session{service: service, runner: tx}); err != nil {
		_ = tx.Rollback()

		return err
	}

	return tx.Commit()
}

func (service *Service) session() *Session {
	return &Session{
		service: service,
		runner:  service.standardLibraryDB,
	}
}

// Session executes rendered statements against either the shared
// connection pool or one open transaction.
type Session struct {
	service *Service
	runner  databaseRunner
}

func (session *Session) Select(ctx context.Context, query dsql.SelectQuery) ([]Row, error) {
	statement, err := session.service.dialect.Select(query)
	if err != nil {
		return nil, err
	}

	return session.runSelect(ctx, statement)
}

// SelectSingle caps the query at one row and returns it, or ErrNoRows.
func (session *Session) SelectSingle(ctx context.Context, query dsql.SelectQuery) (Row, error) {
	query.Limit = 1
	query.Offset = 0

	rows, err := session.Select(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(rows) < 1 {
		return nil, ErrNoRows
	}

	return rows[0], nil
}

func (session *Session) Insert(ctx context.Context, table string, records ...dsql.Record) ([]int64, error) {
	statement, err := session.service.dialect.Insert(table, records)
	if err != nil {
		return nil, err
	}

	skipped, err := session.begin(ctx, statement)
	if err != nil {
		return nil, err
	}

	if skipped {
		return nil, nil
	}

	if _, usesReturning := session.service.dialect.InsertReturning(); usesReturning {
		return session.insertIDsFromRows(ctx, statement)
	}

	result, err := session.runner.ExecContext(ctx, statement.Query, statement.Args...)
	if err != nil {
		return nil, err
	}

	ids, err := session.insertIDsFromResult(result)
	if err != nil {
		return nil, err
	}

	return ids, session.finish(ctx)
}

func (session *Session) Update(ctx context.Context, query dsql.UpdateQuery) (int64, error) {
	statement, err := session.service.dialect.Update(query)
	if err != nil {
		return 0, err
	}

	return session.runExecute(ctx, statement)
}

func (session *Session) Delete(ctx context.Context, query dsql.DeleteQuery) (int64, error) {
	statement, err := session.service.dialect.Delete(query)
	if err != nil {
		return 0, err
	}

	return session.runExecute(ctx, statement)
}

func (session *Session) Raw(ctx context.Context, query string, args ...any) (sql.Result, error) {
	statement := dsql.Raw(query, args...)

	skipped, err := session.begin(ctx, statement)
	if err != nil {
		return nil, err
	}

	if skipped {
		return nil, nil
	}

	result, err := session.runner.ExecContext(ctx, statement.Query, statement.Args...)
	if err != nil {
		return nil, err
	}

	return result, session.finish(ctx)
}

func (session *Session) RawSelect(ctx context.Context, query string, args ...any) ([]Row, error) {
	return session.runSelect(ctx, dsql.Raw(query, args...))
}

// begin runs the pre-run hooks and, in dry-run mode, dumps the statement
// instead of executing it. The bool reports whether execution was
// skipped.
func (session *Session) begin(ctx context.Context, statement dsql.Statement) (bool, error) {
	if statement.Query == "" {
		return false, ErrBlankQuery
	}

	for _, preRunFunc := range session.service.preRunFuncs {
		if err := preRunFunc(ctx, statement.Query, statement.Args); err != nil {
			return false, err
		}
	}

	if session.service.dryRunTarget != nil {
		fmt.Fprintf(session.service.dryRunTarget, "%s\n%v\n", statement.Query, statement.Args)

		return true, nil
	}

	return false, nil
}

func (session *Session) finish(ctx context.Context) error {
	for _, postRunFunc := range session.service.postRunFuncs {
		if err := postRunFunc(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (session *Session) runSelect(ctx context.Context, statement dsql.Statement) ([]Row, error) {
	skipped, err := session.begin(ctx, statement)
	if err != nil {
		return nil, err
	}

	if skipped {
		return []Row{}, nil
	}

	rows, err := session.runner.QueryContext(ctx, statement.Query, statement.Args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	return result, session.finish(ctx)
}

func (session *Session) runExecute(ctx context.Context, statement dsql.Statement) (int64, error) {
	skipped, err := session.begin(ctx, statement)
	if err != nil {
		return 0, err
	}

	if skipped {
		return 0, nil
	}

	result, err := session.runner.ExecContext(ctx, statement.Query, statement.Args...)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return affected, session.finish(ctx)
}

func (session *Session) insertIDsFromRows(ctx context.Context, statement dsql.Statement) ([]int64, error) {
	rows, err := session.runner.QueryContext(ctx, statement.Query, statement.Args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, session.finish(ctx)
}

func (session *Session) insertIDsFromResult(result sql.Result) ([]int64, error) {
	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	firstInsertID := lastInsertID
	if !session.service.driver.usesFirstInsertID() {
		firstInsertID = lastInsertID - affected + 1
	}

	ids := make([]int64, 0, affected)
	for i := range affected {
		ids = append(ids, firstInsertID+i)
	}

	return ids, nil
}

func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		row := Row{}
		for i, column := range columns {
			value := values[i]
			// Text-protocol drivers hand text columns back as []byte
			if b, ok := value.([]byte); ok {
				value = string(b)
			}

			row[column] = value
		}

		result = append(result, row)
	}

	return result, rows.Err()
}

package dsql

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/lunagic/dsql-go/dsqltools"
)

type SelectQuery struct {
	Table   string
	Fields  []string
	Where   []ConditionGroup
	GroupBy []string
	Having  []ConditionGroup
	OrderBy []string
	Limit   int
	Offset  int
}

type UpdateQuery struct {
	Table   string
	Set     Record
	Where   []ConditionGroup
	OrderBy []string
	Limit   int
	Offset  int
}

type DeleteQuery struct {
	Table   string
	Where   []ConditionGroup
	OrderBy []string
}

// Select renders SELECT fields FROM table [WHERE] [GROUP BY] [HAVING]
// [ORDER BY] [LIMIT] [OFFSET]. Empty clauses are omitted entirely and an
// empty field list renders as "*".
func (dialect Dialect) Select(query SelectQuery) (Statement, error) {
	r := newRenderer(dialect)

	tableIdentifier, err := r.tableName(query.Table)
	if err != nil {
		return Statement{}, err
	}

	fields := "*"
	if len(query.Fields) > 0 {
		quoted, err := dsqltools.MapErr(query.Fields, r.quotedIdentifier("field"))
		if err != nil {
			return Statement{}, err
		}

		fields = strings.Join(quoted, ", ")
	}

	r.add("SELECT " + fields)
	r.add("FROM " + tableIdentifier)

	if err := r.conditionClause("WHERE", query.Where); err != nil {
		return Statement{}, err
	}

	if err := r.groupByClause(query.GroupBy); err != nil {
		return Statement{}, err
	}

	if err := r.conditionClause("HAVING", query.Having); err != nil {
		return Statement{}, err
	}

	if err := r.orderByClause(query.OrderBy); err != nil {
		return Statement{}, err
	}

	if err := r.limitOffsetClause(query.Limit, query.Offset); err != nil {
		return Statement{}, err
	}

	return r.statement(), nil
}

// Insert renders a single multi-row statement for the whole batch. Every
// record must carry the exact same field set; fields render in
// lexicographic order and the bind values follow record-major,
// field-minor.
func (dialect Dialect) Insert(table string, records []Record) (Statement, error) {
	r := newRenderer(dialect)

	tableIdentifier, err := r.tableName(table)
	if err != nil {
		return Statement{}, err
	}

	if len(records) == 0 {
		return Statement{}, fmt.Errorf("%w: insert requires at least one record", ErrInvalidInput)
	}

	fields := slices.Sorted(maps.Keys(records[0]))
	if len(fields) == 0 {
		return Statement{}, fmt.Errorf("%w: insert record has no fields", ErrInvalidInput)
	}

	for i, record := range records {
		for _, field := range fields {
			if _, found := record[field]; !found {
				return Statement{}, fmt.Errorf("%w: record %d is missing field %q", ErrInvalidInput, i, field)
			}
		}

		if len(record) != len(fields) {
			return Statement{}, fmt.Errorf("%w: record %d does not share the field set of record 0", ErrInvalidInput, i)
		}
	}

	columns, err := dsqltools.MapErr(fields, r.quotedIdentifier("field"))
	if err != nil {
		return Statement{}, err
	}

	rows := dsqltools.Map(records, func(record Record) string {
		placeholders := dsqltools.Map(fields, func(field string) string {
			return r.bind(record[field])
		})

		return "(" + strings.Join(placeholders, ", ") + ")"
	})

	r.add(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		tableIdentifier,
		strings.Join(columns, ", "),
		strings.Join(rows, ", "),
	))

	if column, found := dialect.InsertReturning(); found {
		r.add("RETURNING " + dialect.quote(column))
	}

	return r.statement(), nil
}

// Update renders UPDATE table SET ... [WHERE] [ORDER BY] [LIMIT]
// [OFFSET]. Assignments render in lexicographic field order, their bind
// values ahead of the WHERE values.
func (dialect Dialect) Update(query UpdateQuery) (Statement, error) {
	r := newRenderer(dialect)

	tableIdentifier, err := r.tableName(query.Table)
	if err != nil {
		return Statement{}, err
	}

	if len(query.Set) == 0 {
		return Statement{}, fmt.Errorf("%w: update requires at least one field to set", ErrInvalidInput)
	}

	assignments, err := dsqltools.MapErr(slices.Sorted(maps.Keys(query.Set)), func(field string) (string, error) {
		if err := validateIdentifier("field", field); err != nil {
			return "", err
		}

		return dialect.quote(field) + " = " + r.bind(query.Set[field]), nil
	})
	if err != nil {
		return Statement{}, err
	}

	r.add("UPDATE " + tableIdentifier + " SET " + strings.Join(assignments, ", "))

	if err := r.conditionClause("WHERE", query.Where); err != nil {
		return Statement{}, err
	}

	if err := r.orderByClause(query.OrderBy); err != nil {
		return Statement{}, err
	}

	if err := r.limitOffsetClause(query.Limit, query.Offset); err != nil {
		return Statement{}, err
	}

	return r.statement(), nil
}

// Delete renders DELETE FROM table [WHERE] [ORDER BY].
func (dialect Dialect) Delete(query DeleteQuery) (Statement, error) {
	r := newRenderer(dialect)

	tableIdentifier, err := r.tableName(query.Table)
	if err != nil {
		return Statement{}, err
	}

	r.add("DELETE FROM " + tableIdentifier)

	if err := r.conditionClause("WHERE", query.Where); err != nil {
		return Statement{}, err
	}

	if err := r.orderByClause(query.OrderBy); err != nil {
		return Statement{}, err
	}

	return r.statement(), nil
}

// renderer accumulates statement parts and the bind values their
// placeholders refer to. Appending through bind is what keeps Query and
// Args in the same order.
type renderer struct {
	dialect Dialect
	parts   []string
	args    []any
}

func newRenderer(dialect Dialect) *renderer {
	return &renderer{
		dialect: dialect,
		parts:   []string{},
		args:    []any{},
	}
}

func (r *renderer) add(part string) {
	r.parts = append(r.parts, part)
}

func (r *renderer) bind(value any) string {
	r.args = append(r.args, value)

	return r.dialect.placeholder(len(r.args))
}

func (r *renderer) statement() Statement {
	return Statement{
		Query: strings.Join(r.parts, " "),
		Args:  r.args,
	}
}

func (r *renderer) tableName(name string) (string, error) {
	if err := validateIdentifier("table", name); err != nil {
		return "", err
	}

	return r.dialect.quote(name), nil
}

func (r *renderer) quotedIdentifier(kind string) func(name string) (string, error) {
	return func(name string) (string, error) {
		if err := validateIdentifier(kind, name); err != nil {
			return "", err
		}

		return r.dialect.quote(name), nil
	}
}

func (r *renderer) conditionClause(keyword string, groups []ConditionGroup) error {
	groups = dsqltools.Filter(groups, func(group ConditionGroup) bool {
		return len(group) > 0
	})
	if len(groups) == 0 {
		return nil
	}

	groupParts, err := dsqltools.MapErr(groups, r.conditionGroup)
	if err != nil {
		return err
	}

	// Parentheses only matter once multiple groups get OR-joined
	if len(groupParts) > 1 {
		groupParts = dsqltools.Map(groupParts, func(part string) string {
			return "(" + part + ")"
		})
	}

	r.add(keyword + " " + strings.Join(groupParts, " OR "))

	return nil
}

func (r *renderer) conditionGroup(group ConditionGroup) (string, error) {
	parts, err := dsqltools.MapErr(group, r.condition)
	if err != nil {
		return "", err
	}

	return strings.Join(parts, " AND "), nil
}

func (r *renderer) condition(condition Condition) (string, error) {
	if err := validateIdentifier("field", condition.Field); err != nil {
		return "", err
	}

	token, err := r.dialect.operatorToken(condition)
	if err != nil {
		return "", err
	}

	if condition.Op.takesSequence() {
		values, err := sequenceValues(condition)
		if err != nil {
			return "", err
		}

		placeholders := dsqltools.Map(values, r.bind)

		return fmt.Sprintf(
			"%s %s (%s)",
			r.dialect.quote(condition.Field),
			token,
			strings.Join(placeholders, ", "),
		), nil
	}

	value, err := scalarValue(condition)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"%s %s %s",
		r.dialect.quote(condition.Field),
		token,
		r.bind(value),
	), nil
}

func (r *renderer) groupByClause(groupBy []string) error {
	if len(groupBy) == 0 {
		return nil
	}

	parts, err := dsqltools.MapErr(groupBy, r.quotedIdentifier("group field"))
	if err != nil {
		return err
	}

	r.add("GROUP BY " + strings.Join(parts, ", "))

	return nil
}

func (r *renderer) orderByClause(orderBy []string) error {
	if len(orderBy) == 0 {
		return nil
	}

	parts, err := dsqltools.MapErr(orderBy, func(field string) (string, error) {
		direction := "ASC"
		if after, found := strings.CutPrefix(field, "-"); found {
			field = after
			direction = "DESC"
		}

		if err := validateIdentifier("order field", field); err != nil {
			return "", err
		}

		return r.dialect.quote(field) + " " + direction, nil
	})
	if err != nil {
		return err
	}

	r.add("ORDER BY " + strings.Join(parts, ", "))

	return nil
}

func (r *renderer) limitOffsetClause(limit int, offset int) error {
	if limit < 0 || offset < 0 {
		return fmt.Errorf("%w: limit and offset must not be negative", ErrInvalidInput)
	}

	// Validated integers rendered as literals, the one deliberate
	// exception to binding every value.
	if limit > 0 {
		r.add("LIMIT " + strconv.Itoa(limit))
	}

	if offset > 0 {
		r.add("OFFSET " + strconv.Itoa(offset))
	}

	return nil
}

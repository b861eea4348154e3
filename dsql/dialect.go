package dsql

import (
	"fmt"
	"maps"
	"strings"
	"sync"
)

// Dialect is a read-only set of rendering rules for one SQL engine:
// identifier quoting, placeholder style, and the operator tokens the
// engine accepts. Dialect values are safe to share across goroutines.
type Dialect struct {
	name            string
	quoteOpen       string
	quoteClose      string
	numberedArgs    bool
	operators       map[Operator]string
	insertReturning string
}

var standardOperatorTokens = map[Operator]string{
	OperatorEqual:              "=",
	OperatorNotEqual:           "!=",
	OperatorLessThan:           "<",
	OperatorLessThanOrEqual:    "<=",
	OperatorGreaterThan:        ">",
	OperatorGreaterThanOrEqual: ">=",
	OperatorLike:               "LIKE",
	OperatorNotLike:            "NOT LIKE",
	OperatorIn:                 "IN",
	OperatorNotIn:              "NOT IN",
}

type DialectConfigFunc func(dialect *Dialect)

func NewDialect(name string, configFuncs ...DialectConfigFunc) Dialect {
	dialect := Dialect{
		name:       name,
		quoteOpen:  `"`,
		quoteClose: `"`,
		operators:  maps.Clone(standardOperatorTokens),
	}

	for _, configFunc := range configFuncs {
		configFunc(&dialect)
	}

	return dialect
}

func WithIdentifierQuotes(open string, close string) DialectConfigFunc {
	return func(dialect *Dialect) {
		dialect.quoteOpen = open
		dialect.quoteClose = close
	}
}

// WithNumberedPlaceholders switches the dialect from the fixed "?" token
// to positional "$1", "$2", ... tokens.
func WithNumberedPlaceholders() DialectConfigFunc {
	return func(dialect *Dialect) {
		dialect.numberedArgs = true
	}
}

func WithOperatorToken(operator Operator, token string) DialectConfigFunc {
	return func(dialect *Dialect) {
		dialect.operators = maps.Clone(dialect.operators)
		dialect.operators[operator] = token
	}
}

func WithoutOperator(operator Operator) DialectConfigFunc {
	return func(dialect *Dialect) {
		dialect.operators = maps.Clone(dialect.operators)
		delete(dialect.operators, operator)
	}
}

// WithInsertReturning makes Insert append a RETURNING clause for the
// given column so drivers without LastInsertId can report generated ids.
func WithInsertReturning(column string) DialectConfigFunc {
	return func(dialect *Dialect) {
		dialect.insertReturning = column
	}
}

func (dialect Dialect) Name() string {
	return dialect.name
}

// InsertReturning reports the column name Insert statements return, if
// the dialect has one configured.
func (dialect Dialect) InsertReturning() (string, bool) {
	return dialect.insertReturning, dialect.insertReturning != ""
}

func (dialect Dialect) quote(name string) string {
	return dialect.quoteOpen + name + dialect.quoteClose
}

func (dialect Dialect) placeholder(position int) string {
	if !dialect.numberedArgs {
		return "?"
	}

	return fmt.Sprintf("$%d", position)
}

func (dialect Dialect) operatorToken(condition Condition) (string, error) {
	token, found := dialect.operators[condition.Op]
	if !found {
		return "", fmt.Errorf("%w: %q (field %q, dialect %q)", ErrUnsupportedOperator, string(condition.Op), condition.Field, dialect.name)
	}

	return token, nil
}

func DialectStandard() Dialect {
	return NewDialect("standard")
}

func DialectMySQL() Dialect {
	return NewDialect("mysql", WithIdentifierQuotes("`", "`"))
}

func DialectPostgres() Dialect {
	return NewDialect("postgresql",
		WithNumberedPlaceholders(),
		WithInsertReturning("id"),
	)
}

func DialectSQLite() Dialect {
	return NewDialect("sqlite")
}

var dialectRegistry = struct {
	sync.RWMutex
	byName map[string]Dialect
}{
	byName: map[string]Dialect{
		"standard":   DialectStandard(),
		"mysql":      DialectMySQL(),
		"postgres":   DialectPostgres(),
		"postgresql": DialectPostgres(),
		"sqlite":     DialectSQLite(),
	},
}

// DialectByName looks up a registered dialect. An unknown name is a
// configuration error, never a silent fallback to the standard profile,
// so a mismatch with the actual driver surfaces immediately.
func DialectByName(name string) (Dialect, error) {
	dialectRegistry.RLock()
	defer dialectRegistry.RUnlock()

	dialect, found := dialectRegistry.byName[strings.ToLower(name)]
	if !found {
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}

	return dialect, nil
}

// RegisterDialect adds a new profile to the process-wide table, keyed by
// the dialect's own name. Meant for setup time, before statements are
// being rendered.
func RegisterDialect(dialect Dialect) error {
	if dialect.name == "" {
		return fmt.Errorf("%w: dialect has no name", ErrInvalidInput)
	}

	dialectRegistry.Lock()
	defer dialectRegistry.Unlock()

	dialectRegistry.byName[strings.ToLower(dialect.name)] = dialect

	return nil
}

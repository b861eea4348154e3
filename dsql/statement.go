// Package dsql renders CRUD operations into parameterized SQL for a
// chosen dialect, keeping every caller value out of the statement text.
package dsql

// Statement is a rendered SQL string plus the bind values for its
// placeholders, in placeholder order. Values never appear inside Query,
// only inside Args.
type Statement struct {
	Query string
	Args  []any
}

// Raw wraps a caller-supplied query and bind values unmodified, for
// statements beyond what the builder can express.
func Raw(query string, args ...any) Statement {
	if args == nil {
		args = []any{}
	}

	return Statement{
		Query: query,
		Args:  args,
	}
}

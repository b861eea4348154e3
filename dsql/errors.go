package dsql

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnsupportedOperator = errors.New("unsupported operator")
	ErrUnknownDialect      = errors.New("unknown dialect")
)

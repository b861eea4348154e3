package dsql

import (
	"fmt"
	"reflect"
	"strings"
)

type Operator string

const (
	OperatorEqual              Operator = "="
	OperatorNotEqual           Operator = "!="
	OperatorLessThan           Operator = "<"
	OperatorLessThanOrEqual    Operator = "<="
	OperatorGreaterThan        Operator = ">"
	OperatorGreaterThanOrEqual Operator = ">="
	OperatorLike               Operator = "like"
	OperatorNotLike            Operator = "not like"
	OperatorIn                 Operator = "in"
	OperatorNotIn              Operator = "not in"
)

func (operator Operator) takesSequence() bool {
	return operator == OperatorIn || operator == OperatorNotIn
}

// Condition is a single field-operator-value predicate.
type Condition struct {
	Field string
	Op    Operator
	Value any
}

// ConditionGroup is an ordered conjunction (AND) of predicates. A list of
// groups combines by disjunction (OR).
type ConditionGroup []Condition

// ParseCondition builds a Condition from the "field operator" predicate
// string form, e.g. ParseCondition("age >", 30). The operator token is
// case-insensitive.
func ParseCondition(predicate string, value any) (Condition, error) {
	field, token, found := strings.Cut(strings.TrimSpace(predicate), " ")
	if !found {
		return Condition{}, fmt.Errorf("%w: predicate %q is missing an operator", ErrInvalidInput, predicate)
	}

	operator := Operator(strings.ToLower(strings.TrimSpace(token)))
	if _, found := standardOperatorTokens[operator]; !found {
		return Condition{}, fmt.Errorf("%w: %q", ErrUnsupportedOperator, token)
	}

	return Condition{
		Field: field,
		Op:    operator,
		Value: value,
	}, nil
}

func Equal(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorEqual, Value: value}
}

func NotEqual(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorNotEqual, Value: value}
}

func LessThan(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorLessThan, Value: value}
}

func LessThanOrEqual(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorLessThanOrEqual, Value: value}
}

func GreaterThan(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorGreaterThan, Value: value}
}

func GreaterThanOrEqual(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorGreaterThanOrEqual, Value: value}
}

func Like(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorLike, Value: value}
}

func NotLike(field string, value any) Condition {
	return Condition{Field: field, Op: OperatorNotLike, Value: value}
}

func In(field string, values ...any) Condition {
	return Condition{Field: field, Op: OperatorIn, Value: values}
}

func NotIn(field string, values ...any) Condition {
	return Condition{Field: field, Op: OperatorNotIn, Value: values}
}

// Record maps field names to scalar values for insert and update
// statements. Fields render in lexicographic order so identical input
// always produces identical output.
type Record map[string]any

// Identifiers can not be bound as parameters, so anything that could
// break out of the dialect quoting is rejected outright.
const reservedIdentifierCharacters = "\"'`?$;\\*"

func validateIdentifier(kind string, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty %s name", ErrInvalidInput, kind)
	}

	if strings.ContainsAny(name, reservedIdentifierCharacters) || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: %s name %q contains reserved characters", ErrInvalidInput, kind, name)
	}

	return nil
}

// sequenceValues expands an IN-family value into its elements, rejecting
// anything that is not a non-empty sequence. []byte counts as a scalar.
func sequenceValues(condition Condition) ([]any, error) {
	if _, isBytes := condition.Value.([]byte); isBytes || condition.Value == nil {
		return nil, fmt.Errorf("%w: %s value for field %q must be a sequence", ErrInvalidInput, condition.Op, condition.Field)
	}

	valueOf := reflect.ValueOf(condition.Value)
	if valueOf.Kind() != reflect.Slice && valueOf.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %s value for field %q must be a sequence", ErrInvalidInput, condition.Op, condition.Field)
	}

	if valueOf.Len() == 0 {
		return nil, fmt.Errorf("%w: %s value for field %q must not be empty", ErrInvalidInput, condition.Op, condition.Field)
	}

	values := make([]any, 0, valueOf.Len())
	for i := range valueOf.Len() {
		values = append(values, valueOf.Index(i).Interface())
	}

	return values, nil
}

func scalarValue(condition Condition) (any, error) {
	if _, isBytes := condition.Value.([]byte); isBytes || condition.Value == nil {
		return condition.Value, nil
	}

	kind := reflect.ValueOf(condition.Value).Kind()
	if kind == reflect.Slice || kind == reflect.Array || kind == reflect.Map {
		return nil, fmt.Errorf("%w: %s value for field %q must be a scalar", ErrInvalidInput, condition.Op, condition.Field)
	}

	return condition.Value, nil
}

package assertions

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrInvalidAssertion marks an expression Parse cannot read.
var ErrInvalidAssertion = errors.New("invalid assertion")

// Operator compares an actual value with an expected one.
type Operator string

const (
	OpEquals         Operator = "=="
	OpNotEquals      Operator = "!="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpContains       Operator = "contains"
	OpNotContains    Operator = "!contains"
	OpStartsWith     Operator = "startsWith"
	OpEndsWith       Operator = "endsWith"
	OpMatches        Operator = "matches"
	OpExists         Operator = "exists"
	OpNotExists      Operator = "!exists"
	OpLength         Operator = "length"
	OpIncludes       Operator = "includes"
	OpNotIncludes    Operator = "!includes"
	OpIn             Operator = "in"
	OpNotIn          Operator = "!in"
	OpType           Operator = "type"
	OpSchema         Operator = "schema"
	OpEach           Operator = "each"
)

var operators = map[Operator]bool{
	OpEquals: true, OpNotEquals: true, OpGreaterThan: true, OpGreaterOrEqual: true,
	OpLessThan: true, OpLessOrEqual: true, OpContains: true, OpNotContains: true,
	OpStartsWith: true, OpEndsWith: true, OpMatches: true, OpExists: true,
	OpNotExists: true, OpLength: true, OpIncludes: true, OpNotIncludes: true,
	OpIn: true, OpNotIn: true, OpType: true, OpSchema: true, OpEach: true,
}

// unary operators take no expected value.
func (op Operator) unary() bool {
	return op == OpExists || op == OpNotExists
}

// Assertion is one expectation.
type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

func (a *Assertion) String() string {
	if a.Operator.unary() {
		return a.Subject + " " + string(a.Operator)
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

// Parse reads "subject operator [expected]". The subject is status,
// duration, body, body.<path>, or "header <Name>".
func Parse(expr string) (*Assertion, error) {
	fields := strings.Fields(expr)
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: %q: want subject operator [value]", ErrInvalidAssertion, expr)
	}

	subject, rest := fields[0], fields[1:]
	if subject == "header" {
		if len(rest) < 2 {
			return nil, fmt.Errorf("%w: %q: header needs a name and an operator", ErrInvalidAssertion, expr)
		}
		subject, rest = "header "+rest[0], rest[1:]
	}

	op := Operator(rest[0])
	if !operators[op] {
		return nil, fmt.Errorf("%w: %q: unknown operator %q", ErrInvalidAssertion, expr, rest[0])
	}

	a := &Assertion{Subject: subject, Operator: op}
	if op.unary() {
		if len(rest) > 1 {
			return nil, fmt.Errorf("%w: %q: %s takes no value", ErrInvalidAssertion, expr, op)
		}
		return a, nil
	}
	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: %q: %s needs a value", ErrInvalidAssertion, expr, op)
	}

	a.Expected = parseValue(afterFields(expr, len(fields)-len(rest)+1))
	if op == OpIn || op == OpNotIn {
		if _, ok := a.Expected.([]any); !ok {
			a.Expected = splitList(fmt.Sprint(a.Expected))
		}
	}
	return a, nil
}

// afterFields returns expr without its first n fields, inner spacing kept.
func afterFields(expr string, n int) string {
	s := strings.TrimSpace(expr)
	for range n {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		s = strings.TrimSpace(s[i:])
	}
	return s
}

// parseValue decodes JSON literals and leaves anything else as text.
func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err == nil {
		return v
	}
	return s
}

// splitList reads the unquoted form [a, b, c].
func splitList(s string) []any {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	var out []any
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, parseValue(item))
		}
	}
	return out
}

// ParseAll parses every expression, stopping at the first error.
func ParseAll(exprs []string) ([]*Assertion, error) {
	out := make([]*Assertion, 0, len(exprs))
	for _, expr := range exprs {
		a, err := Parse(expr)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

package assertions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/easyhttp/packages/capture"
	"github.com/tidwall/gjson"
)

// Response is the part of an exchange an assertion can look at.
type Response struct {
	Status   int
	Header   http.Header
	Body     []byte
	Duration time.Duration
}

// Result is the outcome of one assertion.
type Result struct {
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
}

// Failed returns the results that did not pass.
func Failed(results []*Result) []*Result {
	var out []*Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

type Evaluator struct {
	response *Response
	bodyJSON gjson.Result
}

func NewEvaluator(resp *Response) *Evaluator {
	e := &Evaluator{response: resp}
	if gjson.ValidBytes(resp.Body) {
		e.bodyJSON = gjson.ParseBytes(resp.Body)
	}
	return e
}

func (e *Evaluator) Evaluate(a *Assertion) *Result {
	result := &Result{
		Subject:  a.Subject,
		Operator: string(a.Operator),
		Expected: a.Expected,
	}

	actual := e.actualValue(a.Subject)
	result.Actual = actual
	result.Passed, result.Message = e.compare(actual, a.Operator, a.Expected)

	if a.Operator == OpLength {
		result.Actual = computeLength(actual)
	}
	return result
}

// EvaluateAll runs every assertion against resp.
func EvaluateAll(resp *Response, assertions []*Assertion) []*Result {
	e := NewEvaluator(resp)
	results := make([]*Result, len(assertions))
	for i, a := range assertions {
		results[i] = e.Evaluate(a)
	}
	return results
}

func (e *Evaluator) actualValue(subject string) any {
	switch {
	case subject == "status":
		return e.response.Status
	case subject == "duration":
		return e.response.Duration.Milliseconds()
	case strings.HasPrefix(subject, "header "):
		name := strings.TrimSpace(strings.TrimPrefix(subject, "header "))
		if v := e.response.Header.Values(name); len(v) > 0 {
			return strings.Join(v, ", ")
		}
		return nil
	case subject == "body" || strings.HasPrefix(subject, "body.") || strings.HasPrefix(subject, "body["):
		return e.bodyValue(strings.TrimPrefix(subject, "body"))
	default:
		return e.bodyValue(subject)
	}
}

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// gjsonPath turns "items[0].tags[1]" into "items.0.tags.1".
func gjsonPath(path string) string {
	path = bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(path, ".")
}

func (e *Evaluator) bodyValue(path string) any {
	path = gjsonPath(path)
	if !e.bodyJSON.Exists() {
		if path == "" {
			return string(e.response.Body)
		}
		return nil
	}
	if path == "" {
		return e.bodyJSON.Value()
	}
	r := e.bodyJSON.Get(path)
	if !r.Exists() {
		return nil
	}
	return r.Value()
}

func (e *Evaluator) compare(actual any, op Operator, expected any) (bool, string) {
	switch op {
	case OpEquals:
		return equals(actual, expected)
	case OpNotEquals:
		return negate(equals(actual, expected))("expected not to equal %v", expected)
	case OpGreaterThan, OpGreaterOrEqual, OpLessThan, OpLessOrEqual:
		return compareNumeric(actual, expected, op)
	case OpContains:
		return contains(actual, expected)
	case OpNotContains:
		return negate(contains(actual, expected))("expected not to contain %v", expected)
	case OpStartsWith:
		if strings.HasPrefix(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to start with '%v'", actual, expected)
	case OpEndsWith:
		if strings.HasSuffix(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' to end with '%v'", actual, expected)
	case OpMatches:
		return matches(actual, expected)
	case OpExists:
		if actual == nil {
			return false, "expected to exist"
		}
		return true, ""
	case OpNotExists:
		if actual != nil {
			return false, "expected not to exist"
		}
		return true, ""
	case OpLength:
		return length(actual, expected)
	case OpIncludes:
		return includes(actual, expected)
	case OpNotIncludes:
		return negate(includes(actual, expected))("expected not to include %v", expected)
	case OpIn:
		return in(actual, expected)
	case OpNotIn:
		return negate(in(actual, expected))("expected not to be in %v", expected)
	case OpType:
		return typeCheck(actual, expected)
	case OpSchema:
		return schema(actual, expected)
	case OpEach:
		return each(actual, expected)
	default:
		return false, fmt.Sprintf("unknown operator: %v", op)
	}
}

// negate flips a check result, reporting msg when the original passed.
func negate(passed bool, _ string) func(format string, args ...any) (bool, string) {
	return func(format string, args ...any) (bool, string) {
		if passed {
			return false, fmt.Sprintf(format, args...)
		}
		return true, ""
	}
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}
	a, aOk := toFloat64(actual)
	b, bOk := toFloat64(expected)
	if aOk && bOk && a == b {
		return true, ""
	}
	if actual != nil && fmt.Sprint(actual) == fmt.Sprint(expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func compareNumeric(actual, expected any, op Operator) (bool, string) {
	a, aOk := toFloat64(actual)
	b, bOk := toFloat64(expected)
	if !aOk || !bOk {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, op, expected)
	}

	var passed bool
	switch op {
	case OpGreaterThan:
		passed = a > b
	case OpGreaterOrEqual:
		passed = a >= b
	case OpLessThan:
		passed = a < b
	case OpLessOrEqual:
		passed = a <= b
	}
	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v", actual, op, expected)
}

func contains(actual, expected any) (bool, string) {
	if actual != nil && strings.Contains(fmt.Sprint(actual), fmt.Sprint(expected)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to contain '%v'", actual, expected)
}

func matches(actual, expected any) (bool, string) {
	pattern := strings.TrimSuffix(strings.TrimPrefix(fmt.Sprint(expected), "/"), "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}
	if actual != nil && re.MatchString(fmt.Sprint(actual)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match /%v/", actual, pattern)
}

// computeLength returns -1 for values without a length.
func computeLength(actual any) int {
	switch v := actual.(type) {
	case string:
		return len(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	}
	return -1
}

func length(actual, expected any) (bool, string) {
	want, ok := toInt(expected)
	if !ok {
		return false, fmt.Sprintf("expected length must be a number, got %v", expected)
	}
	got := computeLength(actual)
	if got == -1 {
		return false, fmt.Sprintf("cannot get length of %T", actual)
	}
	if got == want {
		return true, ""
	}
	return false, fmt.Sprintf("expected length %d, got %d", want, got)
}

func includes(actual, expected any) (bool, string) {
	arr, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	for _, item := range arr {
		if passed, _ := equals(item, expected); passed {
			return true, ""
		}
	}
	return false, fmt.Sprintf("expected array to include %v", expected)
}

func in(actual, expected any) (bool, string) {
	arr, ok := expected.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'in' operator, got %T", expected)
	}
	for _, item := range arr {
		if passed, _ := equals(actual, item); passed {
			return true, ""
		}
	}
	return false, fmt.Sprintf("expected %v to be in %v", actual, expected)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

func typeCheck(actual, expected any) (bool, string) {
	want, got := fmt.Sprint(expected), typeName(actual)
	if want == got {
		return true, ""
	}
	return false, fmt.Sprintf("expected type %s, got %s", want, got)
}

// schema validates actual against the JSON Schema file named by expected.
func schema(actual, expected any) (bool, string) {
	doc, err := json.Marshal(actual)
	if err != nil {
		return false, fmt.Sprintf("failed to marshal actual value: %v", err)
	}
	if err := capture.ValidateSchema(fmt.Sprint(expected), doc); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// each applies expected to every element. expected is either a plain
// value or {"operator": ..., "value": ...}.
func each(actual, expected any) (bool, string) {
	arr, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'each' operator, got %T", actual)
	}

	op, want := OpEquals, expected
	if m, ok := expected.(map[string]any); ok {
		if o, hasOp := m["operator"]; hasOp {
			op, want = Operator(fmt.Sprint(o)), m["value"]
		}
	}
	if op == OpEach || op == OpSchema || !operators[op] {
		return false, fmt.Sprintf("unknown operator in each: %s", op)
	}

	var e Evaluator
	for i, item := range arr {
		if passed, msg := e.compare(item, op, want); !passed {
			return false, fmt.Sprintf("item[%d]: %s", i, msg)
		}
	}
	return true, ""
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i, true
		}
	}
	return 0, false
}

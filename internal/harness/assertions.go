package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/roach88/ifcpset/internal/store"
)

// validIdentifier matches valid SQL identifiers (table/column names).
// Only allows alphanumeric and underscore, must start with letter or underscore.
// This prevents SQL injection via identifier interpolation.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// dumper renders assertion details deterministically.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Detail   any          // Offending event or row, dumped when set
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Detail != nil {
		fmt.Fprintf(&buf, "\nDetail:\n%s", dumper.Sdump(e.Detail))
	}

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s (%d properties)\n", i+1, event.Entity, event.Set, len(event.Properties))
		}
	}

	return buf.String()
}

// findSet returns the first event of entity named set.
func findSet(trace []TraceEvent, entity, set string) (TraceEvent, bool) {
	for _, ev := range trace {
		if ev.Entity == entity && ev.Set == set {
			return ev, true
		}
	}
	return TraceEvent{}, false
}

// assertSetEmitted checks that entity carries set and that the listed
// values match (subset match on formatted values).
func assertSetEmitted(trace []TraceEvent, a Assertion) error {
	ev, ok := findSet(trace, a.Entity, a.Set)
	if !ok {
		return &AssertionError{
			Type:     AssertSetEmitted,
			Expected: fmt.Sprintf("set %q on %s", a.Set, a.Entity),
			Actual:   "not emitted",
			Trace:    trace,
		}
	}

	if a.Description != "" && ev.Description != a.Description {
		return &AssertionError{
			Type:     AssertSetEmitted,
			Expected: fmt.Sprintf("set %q on %s with description %q", a.Set, a.Entity, a.Description),
			Actual:   fmt.Sprintf("description %q", ev.Description),
			Detail:   ev,
		}
	}

	for _, name := range sortedKeys(a.Values) {
		want := a.Values[name]
		p, found := ev.Property(name)
		if !found {
			return &AssertionError{
				Type:     AssertSetEmitted,
				Expected: fmt.Sprintf("%s.%s = %s on %s", a.Set, name, want, a.Entity),
				Actual:   "property not in set",
				Detail:   ev,
			}
		}
		if p.Value != want {
			return &AssertionError{
				Type:     AssertSetEmitted,
				Expected: fmt.Sprintf("%s.%s = %s on %s", a.Set, name, want, a.Entity),
				Actual:   fmt.Sprintf("%s.%s = %s", a.Set, name, p.Value),
				Detail:   ev,
			}
		}
	}
	return nil
}

// assertSetAbsent checks that entity does not carry set.
func assertSetAbsent(trace []TraceEvent, a Assertion) error {
	if ev, ok := findSet(trace, a.Entity, a.Set); ok {
		return &AssertionError{
			Type:     AssertSetAbsent,
			Expected: fmt.Sprintf("no set %q on %s", a.Set, a.Entity),
			Actual:   "set emitted",
			Detail:   ev,
		}
	}
	return nil
}

// assertPropertyAbsent checks that set is emitted for entity without the
// property.
func assertPropertyAbsent(trace []TraceEvent, a Assertion) error {
	ev, ok := findSet(trace, a.Entity, a.Set)
	if !ok {
		return &AssertionError{
			Type:     AssertPropertyAbsent,
			Expected: fmt.Sprintf("set %q on %s without %s", a.Set, a.Entity, a.Property),
			Actual:   "set not emitted",
			Trace:    trace,
		}
	}
	if p, found := ev.Property(a.Property); found {
		return &AssertionError{
			Type:     AssertPropertyAbsent,
			Expected: fmt.Sprintf("set %q on %s without %s", a.Set, a.Entity, a.Property),
			Actual:   fmt.Sprintf("%s = %s", p.Name, p.Value),
			Detail:   ev,
		}
	}
	return nil
}

// assertSetOrder checks that the entity's sets appear in the specified order.
// Sets don't need to be consecutive (intervening sets are allowed).
func assertSetOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.Entity != a.Entity {
			continue
		}
		if _, seen := positions[ev.Set]; !seen {
			positions[ev.Set] = i
		}
	}

	for _, name := range a.Sets {
		if _, ok := positions[name]; !ok {
			return &AssertionError{
				Type:     AssertSetOrder,
				Expected: fmt.Sprintf("sets in order on %s: %v", a.Entity, a.Sets),
				Actual:   fmt.Sprintf("set %q not emitted", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Sets); i++ {
		prev, cur := a.Sets[i-1], a.Sets[i]
		if positions[prev] >= positions[cur] {
			return &AssertionError{
				Type:     AssertSetOrder,
				Expected: fmt.Sprintf("sets in order on %s: %v", a.Entity, a.Sets),
				Actual:   fmt.Sprintf("%q appears before %q", cur, prev),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertSetCount counts emitted sets, filtered by entity and set name
// when given.
func assertSetCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.Entity != "" && ev.Entity != a.Entity {
			continue
		}
		if a.Set != "" && ev.Set != a.Set {
			continue
		}
		count++
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertSetCount,
			Expected: fmt.Sprintf("%d sets%s", a.Count, filterDesc(a)),
			Actual:   fmt.Sprintf("%d sets", count),
			Trace:    trace,
		}
	}
	return nil
}

func filterDesc(a Assertion) string {
	var parts []string
	if a.Entity != "" {
		parts = append(parts, "entity="+a.Entity)
	}
	if a.Set != "" {
		parts = append(parts, "set="+a.Set)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// assertPropertyCount checks the number of stored property rows. Shared
// properties count once.
func assertPropertyCount(counts store.Counts, a Assertion) error {
	if counts.Properties != a.Count {
		return &AssertionError{
			Type:     AssertPropertyCount,
			Expected: fmt.Sprintf("%d stored properties", a.Count),
			Actual:   fmt.Sprintf("%d stored properties", counts.Properties),
			Detail:   counts,
		}
	}
	return nil
}

// assertFinalState queries a store table and verifies the single matching
// row holds the expected values.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if assertion.Table == "" {
		return fmt.Errorf("final_state assertion requires table name")
	}

	// Identifiers can't be parameterized.
	if !validIdentifier.MatchString(assertion.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", assertion.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(assertion.Where)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("SELECT * FROM %s", assertion.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.Query(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", assertion.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "row not found",
		}
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	// Several matches make the assertion ambiguous.
	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, formatWhereClause(assertion.Where)),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	actualRow := make(map[string]interface{})
	for i, col := range columns {
		actualRow[col] = values[i]
	}

	// Subset semantics: only fields in Expect are checked.
	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actualRow[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expectedValue, expectedValue),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actualValue, actualValue),
				Detail:   actualRow,
			}
		}
	}

	return nil
}

// buildWhereClause constructs parameterized WHERE clause from assertion.Where.
// Returns SQL fragment, arguments slice, and error. Keys are sorted for determinism.
//
// Column names are validated against a whitelist pattern to prevent
// SQL injection via identifier interpolation.
func buildWhereClause(where map[string]interface{}) (string, []interface{}, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))

	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		args = append(args, toSQLValue(where[key]))
	}

	return strings.Join(clauses, " AND "), args, nil
}

// toSQLValue converts a YAML-parsed value to a SQL-compatible value.
func toSQLValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, int, int64, float64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// formatWhereClause creates a human-readable description of WHERE conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}

	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// stateValuesEqual compares expected and actual values from store tables.
// Handles type coercion for SQLite values which may be returned as different types.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil && actual == nil {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}

	if b, ok := actual.([]byte); ok {
		actual = string(b)
	}

	switch exp := expected.(type) {
	case string:
		if actualStr, ok := actual.(string); ok {
			return exp == actualStr
		}
		return false
	case int:
		return stateValuesEqual(int64(exp), actual)
	case int64:
		switch act := actual.(type) {
		case int64:
			return exp == act
		case float64:
			return float64(exp) == act
		}
		return false
	case float64:
		switch act := actual.(type) {
		case float64:
			return exp == act
		case int64:
			return exp == float64(act)
		}
		return false
	case bool:
		if actualBool, ok := actual.(bool); ok {
			return exp == actualBool
		}
		// SQLite stores booleans as integers
		if actualInt, ok := actual.(int64); ok {
			return exp == (actualInt != 0)
		}
		return false
	}

	return reflect.DeepEqual(expected, actual)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSetEmitted:
			err = assertSetEmitted(result.Trace, assertion)
		case AssertSetAbsent:
			err = assertSetAbsent(result.Trace, assertion)
		case AssertPropertyAbsent:
			err = assertPropertyAbsent(result.Trace, assertion)
		case AssertSetOrder:
			err = assertSetOrder(result.Trace, assertion)
		case AssertSetCount:
			err = assertSetCount(result.Trace, assertion)
		case AssertPropertyCount:
			err = assertPropertyCount(result.Counts, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

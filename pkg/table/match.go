package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// MatchesFilter checks if a row satisfies every structured filter.
// An absent or nil field never matches its filter.
func MatchesFilter(row domain.Row, filter map[string]interface{}) bool {
	for field, expectedValue := range filter {
		actualValue, exists := row.Field(field)
		if !exists {
			return false
		}

		if !ValuesMatch(actualValue, expectedValue) {
			return false
		}
	}
	return true
}

// ValuesMatch compares two values for equality. Values that both coerce to a
// number are compared numerically ("3" equals 3); anything else is compared
// through its string form, exactly.
func ValuesMatch(actual, expected interface{}) bool {
	if actual == nil || expected == nil {
		return false
	}

	actualNum, ok1 := ToFloat64(actual)
	expectedNum, ok2 := ToFloat64(expected)
	if ok1 && ok2 {
		return actualNum == expectedNum
	}
	if ok1 != ok2 {
		return false
	}

	actualStr, ok1 := FormatValue(actual)
	expectedStr, ok2 := FormatValue(expected)
	if !ok1 || !ok2 {
		return false
	}
	return actualStr == expectedStr
}

// ToFloat64 converts numeric values, and strings holding a number, to float64.
func ToFloat64(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), !math.IsNaN(float64(v))
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// FormatValue renders a primitive field value the way it is displayed and
// exported. The second result is false for nil and for non-primitive values.
func FormatValue(value interface{}) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case time.Time:
		return v.Format(time.RFC3339), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// textMatcher performs the case-insensitive substring test of a free-text query.
// A cases.Caser may keep state, so each Filter call builds its own matcher.
type textMatcher struct {
	folder cases.Caser
	needle string
}

// Only the empty query passes everything; whitespace is part of the needle.
func newTextMatcher(text string) *textMatcher {
	if text == "" {
		return nil
	}
	folder := cases.Fold()
	return &textMatcher{
		folder: folder,
		needle: folder.String(text),
	}
}

// matches reports whether any field of row contains the needle.
func (m *textMatcher) matches(row domain.Row) bool {
	for _, name := range row.Fields() {
		value, exists := row.Field(name)
		if !exists {
			continue
		}
		s, ok := FormatValue(value)
		if !ok || s == "" {
			continue
		}
		if strings.Contains(m.folder.String(s), m.needle) {
			return true
		}
	}
	return false
}

// MatchesText reports whether any field of row contains text, ignoring case.
// Empty text matches every row.
func MatchesText(row domain.Row, text string) bool {
	m := newTextMatcher(text)
	if m == nil {
		return true
	}
	return m.matches(row)
}

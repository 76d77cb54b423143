package reservation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is one catalog entry as returned by the platform. Field names vary
// between endpoints, so it is kept as an opaque map and read through Lookup.
type Record map[string]any

// Candidate keys per logical attribute, in lookup order.
var (
	TimeKeys   = []string{"timeid", "time", "startTime"}
	NameKeys   = []string{"className", "name", "activity"}
	BookedKeys = []string{"booked", "isBooked", "reservada"}
	IDKeys     = []string{"id", "classId", "sessionId"}
)

// Lookup returns the value of the first key present in r.
func Lookup(r Record, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// LookupString is Lookup with the value stringified; missing keys yield "".
func LookupString(r Record, keys ...string) string {
	v, ok := Lookup(r, keys...)
	if !ok {
		return ""
	}
	return Stringify(v)
}

// FirstTruthy reports whether any of keys holds a truthy value.
func FirstTruthy(r Record, keys ...string) bool {
	for _, k := range keys {
		if Truthy(r[k]) {
			return true
		}
	}
	return false
}

// Stringify renders a decoded JSON/YAML scalar. Integral floats are printed
// without exponent so numeric ids survive the round trip.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Truthy follows the platform's loose flags: true, non-zero numbers and
// non-empty strings other than "0"/"false".
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.TrimSpace(strings.ToLower(t))
		return s != "" && s != "0" && s != "false"
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// NumberEquals reports whether v is a number (or bool) equal to n.
func NumberEquals(v any, n int64) bool {
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err == nil {
			return i == n
		}
		f, err := t.Float64()
		return err == nil && f == float64(n)
	case float64:
		return t == float64(n)
	case int:
		return int64(t) == n
	case int64:
		return t == n
	case bool:
		return (t && n == 1) || (!t && n == 0)
	default:
		return false
	}
}

package reservation

import (
	"fmt"
	"strings"
)

// Match is the catalog record chosen for a ClassRequest. The record itself is
// never modified; whether it was already booked travels alongside it.
type Match struct {
	Record        Record
	AlreadyBooked bool
}

func (m Match) ID() string   { return LookupString(m.Record, IDKeys...) }
func (m Match) Name() string { return LookupString(m.Record, NameKeys...) }
func (m Match) Time() string { return LookupString(m.Record, TimeKeys...) }

// NormalizeTime maps the platform's time formats onto a 4-digit "HHMM" key:
// "0700_60" -> "0700", "07:00" -> "0700", "19:00:00" -> "1900".
func NormalizeTime(raw any) string {
	s := Stringify(raw)
	if i := strings.Index(s, "_"); i >= 0 {
		return s[:i]
	}
	s = strings.ReplaceAll(s, ":", "")
	if len(s) > 4 {
		s = s[:4]
	}
	return s
}

// DisplayTime renders a raw catalog time as "HH:MM".
func DisplayTime(raw any) string {
	s := NormalizeTime(raw)
	if len(s) < 3 {
		return s
	}
	return s[:2] + ":" + s[2:]
}

// ChooseClass returns the first record, in catalog order, whose time matches
// req.Time and whose name contains req.ClassName (case-insensitive).
func ChooseClass(records []Record, req ClassRequest) (Match, bool) {
	wantTime := NormalizeTime(req.Time)
	wantName := strings.ToLower(req.ClassName)

	for _, r := range records {
		if NormalizeTime(LookupString(r, TimeKeys...)) != wantTime {
			continue
		}
		if !strings.Contains(strings.ToLower(LookupString(r, NameKeys...)), wantName) {
			continue
		}
		return Match{Record: r, AlreadyBooked: FirstTruthy(r, BookedKeys...)}, true
	}
	return Match{}, false
}

// Describe lists up to n records as "name at time" for diagnostics.
func Describe(records []Record, n int) []string {
	if n > len(records) {
		n = len(records)
	}
	if n < 0 {
		n = 0
	}
	out := make([]string, 0, n)
	for _, r := range records[:n] {
		name := LookupString(r, NameKeys[:2]...)
		if name == "" {
			name = "?"
		}
		t := LookupString(r, TimeKeys[:2]...)
		if t == "" {
			t = "?"
		}
		out = append(out, fmt.Sprintf("%s at %s", name, t))
	}
	return out
}

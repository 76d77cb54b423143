package digest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
)

// Element is one workout entry of the activity feed.
type Element struct {
	Day       string     `json:"day"`
	Class     text       `json:"wodClass"`
	UserName  text       `json:"userName"`
	Sections  []Section  `json:"TIPOWODs"`
	Exercises []Exercise `json:"ejerRate"`
	Desc      any        `json:"desc"`
	Info      any        `json:"info"`
}

// Label is the class label, "General" when the feed omits it.
func (e Element) Label() string {
	if e.Class == "" {
		return "General"
	}
	return string(e.Class)
}

type Section struct {
	Title  text `json:"title"`
	Notes  text `json:"notes"`
	Notes2 text `json:"notes2"`
}

type Exercise struct {
	// Section is the index into Element.Sections; nil means unassigned.
	Section  *sectionIndex `json:"tipoWOD"`
	Name     text          `json:"ejerName"`
	Quantity firstValue    `json:"valor1"`
	Load     text          `json:"valor2"`
	Round    text          `json:"notes"`
}

// text accepts any JSON scalar and keeps it as a string.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v.(type) {
	case []any, map[string]any:
		*t = ""
	default:
		*t = text(reservation.Stringify(v))
	}
	return nil
}

// firstValue is the first element of a list; anything else decodes to "".
type firstValue string

func (f *firstValue) UnmarshalJSON(b []byte) error {
	var list []text
	if err := json.Unmarshal(b, &list); err != nil || len(list) == 0 {
		*f = ""
		return nil
	}
	*f = firstValue(list[0])
	return nil
}

// sectionIndex accepts 1, 1.0 or "1". Fractions are truncated.
type sectionIndex int

func (s *sectionIndex) UnmarshalJSON(b []byte) error {
	var t text
	if err := t.UnmarshalJSON(b); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		f = -1
	}
	*s = sectionIndex(int(f))
	return nil
}

// feed is the activity endpoint envelope. Elements is nil when the key is
// missing, which means "no data" rather than an error.
type feed struct {
	Elements []json.RawMessage `json:"elements"`
}

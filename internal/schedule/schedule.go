package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"gopkg.in/yaml.v3"
)

// Box is one resolved box and its weekly plan. Immutable after Resolve.
type Box struct {
	ID   int
	Name string
	Days map[time.Weekday]reservation.ClassRequest
}

func (b Box) Ref() reservation.BoxRef { return reservation.BoxRef{ID: b.ID, Name: b.Name} }

// For returns the class planned for the weekday; false means nothing is
// scheduled, which is a skip rather than an error.
func (b Box) For(day time.Weekday) (reservation.ClassRequest, bool) {
	req, ok := b.Days[day]
	return req, ok
}

// Identity is a (name, id) pair; zero values mean "not provided".
type Identity struct {
	Name string
	ID   int
}

type Options struct {
	// Override comes from explicit CLI flags and beats the file.
	Override Identity
	// Fallback is the environment value, or the built-in default, and fills
	// whatever neither the override nor the file provided.
	Fallback Identity
	// Only keeps the box whose id or name equals it exactly.
	Only string
}

// Load reads and resolves a schedule file. JSON is the native format;
// .yaml/.yml files are accepted in the same shapes.
func Load(path string, opts Options) ([]Box, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read schedule %s: %v", internaltypes.ErrConfig, path, err)
	}
	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return Parse(data, format, opts)
}

// Parse decodes and resolves schedule data in either the single-box shape
//
//	{"Monday": {"time": "18:30", "class_name": "CrossFit"}, "id": 10002, "name": "mybox"}
//
// or the multi-box shape (a list of such objects, or {"boxes": [...]}).
func Parse(data []byte, format string, opts Options) ([]Box, error) {
	var raw any
	var err error
	if format == "yaml" {
		err = yaml.Unmarshal(data, &raw)
	} else {
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule %s: %v", internaltypes.ErrConfig, format, err)
	}

	var entries []map[string]any
	single := false
	switch v := raw.(type) {
	case []any:
		if entries, err = asObjects(v); err != nil {
			return nil, err
		}
	case map[string]any:
		if list, ok := v["boxes"].([]any); ok {
			if entries, err = asObjects(list); err != nil {
				return nil, err
			}
		} else {
			entries = []map[string]any{v}
			single = true
		}
	default:
		return nil, fmt.Errorf("%w: schedule must be an object or a list", internaltypes.ErrConfig)
	}

	boxes := make([]Box, 0, len(entries))
	for i, e := range entries {
		b, err := parseBox(e)
		if err != nil {
			return nil, fmt.Errorf("box #%d: %w", i+1, err)
		}
		if single {
			b.Name = firstNonEmpty(opts.Override.Name, b.Name, opts.Fallback.Name)
			b.ID = firstNonZero(opts.Override.ID, b.ID, opts.Fallback.ID)
		} else {
			b.Name = firstNonEmpty(b.Name, opts.Fallback.Name)
			b.ID = firstNonZero(b.ID, opts.Fallback.ID)
		}
		if b.Name == "" || b.ID == 0 {
			return nil, fmt.Errorf("%w: box #%d has no id or name", internaltypes.ErrConfig, i+1)
		}
		boxes = append(boxes, b)
	}

	boxes = Filter(boxes, opts.Only)
	if len(boxes) == 0 {
		return nil, fmt.Errorf("%w: no boxes to process", internaltypes.ErrConfig)
	}
	return boxes, nil
}

// Filter keeps boxes whose id or name equals only. Empty only keeps all.
func Filter(boxes []Box, only string) []Box {
	if only == "" {
		return boxes
	}
	var out []Box
	for _, b := range boxes {
		if b.Name == only || strconv.Itoa(b.ID) == only {
			out = append(out, b)
		}
	}
	return out
}

// FromIdentity builds a box with no weekly plan, for commands that only need
// to log into a box (the digest).
func FromIdentity(id Identity) Box {
	return Box{ID: id.ID, Name: id.Name, Days: map[time.Weekday]reservation.ClassRequest{}}
}

// Weekdays lists the scheduled weekdays in calendar order.
func (b Box) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 0, len(b.Days))
	for d := range b.Days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseBox(m map[string]any) (Box, error) {
	b := Box{Days: map[time.Weekday]reservation.ClassRequest{}}

	name, _ := reservation.Lookup(m, "name", "box_name")
	b.Name = strings.TrimSpace(reservation.Stringify(name))

	if rawID, ok := reservation.Lookup(m, "id", "box_id"); ok && rawID != nil {
		id, err := strconv.Atoi(strings.TrimSpace(reservation.Stringify(rawID)))
		if err != nil {
			return Box{}, fmt.Errorf("%w: invalid box id %v", internaltypes.ErrConfig, rawID)
		}
		b.ID = id
	}

	days := m
	if nested, ok := m["schedule"].(map[string]any); ok {
		days = nested
	}
	for k, v := range days {
		wd, ok := weekdayNames[strings.ToLower(k)]
		if !ok {
			continue
		}
		if v == nil {
			continue
		}
		entry, ok := v.(map[string]any)
		if !ok {
			return Box{}, fmt.Errorf("%w: %s must be an object with time and class_name", internaltypes.ErrConfig, k)
		}
		req := reservation.ClassRequest{
			Time:      strings.TrimSpace(reservation.LookupString(entry, "time")),
			ClassName: strings.TrimSpace(reservation.LookupString(entry, "class_name")),
		}
		if req.Time == "" || req.ClassName == "" {
			return Box{}, fmt.Errorf("%w: %s needs both time and class_name", internaltypes.ErrConfig, k)
		}
		b.Days[wd] = req
	}
	return b, nil
}

func asObjects(list []any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: box #%d is not an object", internaltypes.ErrConfig, i+1)
		}
		out = append(out, m)
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

// Package digest turns the platform's activity feed into chat messages that
// list the published workouts for the coming days.
package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/htmltext"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/example/aimharder-scheduler/internal/locale"
	"github.com/example/aimharder-scheduler/internal/logger"
	"golang.org/x/net/html"
)

const (
	// MaxChunk is kept under Telegram's 4096 limit.
	MaxChunk = 4000
	Divider  = "\n\n" + rule + "\n\n"
	rule     = "━━━━━━━━━━━━━━━"

	// feed windows accepted by the activity endpoint
	WindowDigest = 100
	WindowDay    = 7
)

var userIDPattern = regexp.MustCompile(`userID:\s*(\d+)`)

type Builder struct {
	Feed reservation.ActivityFeed
	HTML htmltext.Extractor
	Log  *logger.Logger
}

type Request struct {
	BoxName string
	// Dates are the calendar days to include, in the order they are shown.
	Dates []time.Time
	// Category keeps only classes whose label contains it (case-insensitive).
	Category string
}

// Day collects the formatted blocks published for one date.
type Day struct {
	Date    time.Time
	Label   string
	Display string
	// Blocks are in discovery order; Text renders them newest first.
	Blocks []string
	Run    bool
}

func (d Day) Text() string {
	rev := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		rev[len(d.Blocks)-1-i] = b
	}
	return "🗓 <b>" + d.Display + "</b>\n" + strings.Join(rev, "\n\n")
}

func (b *Builder) log() *logger.Logger {
	if b.Log == nil {
		return logger.Nop()
	}
	return b.Log
}

// Build returns the digest messages for req, each at most MaxChunk runes.
func (b *Builder) Build(ctx context.Context, req Request) ([]string, error) {
	days, err := b.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	return Assemble(req.BoxName, days, len(req.Dates)), nil
}

// Collect fetches the feed and groups the matching workouts by requested date.
func (b *Builder) Collect(ctx context.Context, req Request) ([]Day, error) {
	elements, err := b.fetch(ctx, WindowDigest)
	if err != nil {
		return nil, err
	}

	days := make([]Day, len(req.Dates))
	index := make(map[string]int, len(req.Dates))
	for i, date := range req.Dates {
		days[i] = Day{Date: date, Label: locale.ShortLabel(date), Display: locale.FullLabel(date)}
		index[days[i].Label] = i
	}

	for _, el := range elements {
		i, ok := index[el.Day]
		if !ok {
			continue
		}
		if !BoxMatches(req.BoxName, string(el.UserName)) {
			b.log().Debugw("skipping workout from another box", "user", string(el.UserName), "class", el.Label())
			continue
		}
		if req.Category != "" && !strings.Contains(strings.ToLower(el.Label()), strings.ToLower(req.Category)) {
			continue
		}
		if block := b.Block(el); block != "" {
			days[i].Blocks = append(days[i].Blocks, block)
		}
	}

	for i := range days {
		days[i].Run = len(days[i].Blocks) > 0 && strings.Contains(strings.ToLower(days[i].Text()), "run")
	}
	return days, nil
}

// ForDay returns every workout published for date, regardless of box, or ""
// when there is none. It uses the short feed window.
func (b *Builder) ForDay(ctx context.Context, date time.Time) (string, error) {
	elements, err := b.fetch(ctx, WindowDay)
	if err != nil {
		return "", err
	}
	label := locale.ShortLabel(date)
	var blocks []string
	for _, el := range elements {
		if el.Day != label {
			continue
		}
		if block := b.Block(el); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n"), nil
}

func (b *Builder) fetch(ctx context.Context, window int) ([]Element, error) {
	page, err := b.Feed.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	m := userIDPattern.FindStringSubmatch(page)
	if m == nil {
		return nil, internaltypes.ErrUserIDNotFound
	}

	body, err := b.Feed.Activity(ctx, m[1], window)
	if err != nil {
		return nil, err
	}
	var f feed
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", internaltypes.ErrFeedParse, err)
	}
	if f.Elements == nil {
		b.log().Infow("activity feed has no elements")
		return nil, nil
	}

	out := make([]Element, 0, len(f.Elements))
	for i, raw := range f.Elements {
		var el Element
		if err := json.Unmarshal(raw, &el); err != nil {
			b.log().Debugw("skipping undecodable feed element", "index", i, "error", err)
			continue
		}
		out = append(out, el)
	}
	return out, nil
}

// Block formats one workout as "<icon> <b>CLASS</b>" followed by its
// sections, or returns "" when the element carries no content.
func (b *Builder) Block(el Element) string {
	label := el.Label()
	parts := b.sections(el)
	if len(parts) == 0 {
		for _, raw := range []any{el.Desc, el.Info} {
			s, ok := raw.(string)
			if !ok || s == "" {
				continue
			}
			if clean := b.clean(s); clean != "" {
				parts = append(parts, html.EscapeString(clean))
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return Icon(label) + " <b>" + html.EscapeString(locale.Upper(label)) + "</b>\n" + strings.Join(parts, "\n\n")
}

func (b *Builder) sections(el Element) []string {
	bySection := map[int][]string{}
	for _, ex := range el.Exercises {
		if ex.Section == nil {
			continue
		}
		if line := ex.format(); line != "" {
			idx := int(*ex.Section)
			bySection[idx] = append(bySection[idx], line)
		}
	}

	var out []string
	for idx, sec := range el.Sections {
		var lines []string
		if sec.Title != "" {
			lines = append(lines, "<u>"+html.EscapeString(string(sec.Title))+"</u>")
		}
		for _, note := range []text{sec.Notes, sec.Notes2} {
			if note == "" || strings.EqualFold(strings.TrimSpace(string(note)), el.Label()) {
				continue
			}
			clean := html.EscapeString(b.clean(string(note)))
			if clean != "" && !slices.Contains(lines, clean) {
				lines = append(lines, clean)
			}
		}
		lines = append(lines, bySection[idx]...)
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
		}
	}
	return out
}

func (b *Builder) clean(fragment string) string {
	if b.HTML == nil {
		return htmltext.Clean(fragment)
	}
	return htmltext.Clean(b.HTML.Text(fragment))
}

// format renders "[<b>round</b> ]quantity[m] name[ (load)]". Distances for
// runs and rows get an "m" unless the name or quantity already carries one.
func (ex Exercise) format() string {
	name := string(ex.Name)
	qty := string(ex.Quantity)

	unit := ""
	lname := strings.ToLower(name)
	if qty != "" && (strings.Contains(lname, "run") || strings.Contains(lname, "row")) {
		if !strings.Contains(lname, "m") && !strings.Contains(strings.ToLower(qty), "m") {
			unit = "m"
		}
	}

	prefix := ""
	if ex.Round != "" {
		prefix = "<b>" + html.EscapeString(string(ex.Round)) + "</b> "
	}
	line := strings.TrimSpace(prefix + html.EscapeString(qty) + unit + " " + html.EscapeString(name))
	if ex.Load != "" {
		line += " (" + html.EscapeString(string(ex.Load)) + ")"
	}
	return line
}

var icons = []struct {
	keys []string
	icon string
}{
	{[]string{"open gym"}, "🔓"},
	{[]string{"halterofilia", "weightlifting"}, "🏋️‍♀️"},
	{[]string{"crossfit"}, "🏋️"},
	{[]string{"hyrox"}, "🏃"},
	{[]string{"gymnastics", "gimnasia"}, "🤸"},
	{[]string{"endurance", "pulse"}, "❤️"},
}

// Icon picks the emoji shown next to a class label.
func Icon(label string) string {
	l := strings.ToLower(label)
	for _, entry := range icons {
		for _, k := range entry.keys {
			if strings.Contains(l, k) {
				return entry.icon
			}
		}
	}
	return "📌"
}

// BoxMatches reports whether a feed entry published by userName belongs to
// box. Both sides are reduced to lowercase letters and digits; either may
// contain the other. Entries from any box of the Wezone chain are accepted
// for a Wezone box since the chain publishes under a shared account.
func BoxMatches(box, userName string) bool {
	target := normalize(box)
	got := normalize(html.UnescapeString(userName))
	if strings.Contains(got, target) || strings.Contains(target, got) {
		return true
	}
	return strings.Contains(target, "wezone") && strings.Contains(got, "wezone")
}

func normalize(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// NoContent is the notice sent when nothing was published.
func NoContent(box string, days int) string {
	return fmt.Sprintf("ℹ️ No hay entrenamientos publicados en <b>%s</b> para los próximos %d días.", html.EscapeString(box), days)
}

// Assemble renders the header and the non-empty days, in the given order,
// packed into chunks of at most MaxChunk runes.
func Assemble(box string, days []Day, requested int) []string {
	var blocks, runDays []string
	for _, d := range days {
		if len(d.Blocks) == 0 {
			continue
		}
		if d.Run {
			runDays = append(runDays, d.Display)
		}
		blocks = append(blocks, d.Text())
	}
	if len(blocks) == 0 {
		return []string{NoContent(box, requested)}
	}

	header := []string{"📅 <b>AGENDA DE ENTRENAMIENTOS - " + html.EscapeString(box) + "</b>"}
	if len(runDays) > 0 {
		header = append(header, "\n🏃‍♂️ <b>RUN days:</b>")
		for _, d := range runDays {
			header = append(header, "• "+d)
		}
	}
	return pack(strings.Join(header, "\n")+"\n\n", blocks)
}

func pack(header string, blocks []string) []string {
	var chunks []string
	current := header
	dividerLen := utf8.RuneCountInString(Divider)

	for _, block := range blocks {
		for _, piece := range split(block, MaxChunk-dividerLen) {
			if utf8.RuneCountInString(current)+utf8.RuneCountInString(piece)+dividerLen > MaxChunk {
				chunks = appendChunk(chunks, current)
				current = ""
			}
			current += piece + Divider
		}
	}
	return appendChunk(chunks, current)
}

func appendChunk(chunks []string, chunk string) []string {
	chunk = strings.TrimSpace(chunk)
	chunk = strings.TrimSpace(strings.TrimSuffix(chunk, rule))
	if chunk == "" {
		return chunks
	}
	return append(chunks, chunk)
}

// split breaks a block that cannot fit in one chunk at line boundaries.
// Single lines longer than limit are cut at cutPoint.
func split(block string, limit int) []string {
	if utf8.RuneCountInString(block) <= limit {
		return []string{block}
	}
	var out []string
	var cur []rune
	for _, line := range strings.Split(block, "\n") {
		r := []rune(line)
		for len(r) > limit {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
			cut := cutPoint(r, limit)
			out = append(out, string(r[:cut]))
			r = r[cut:]
		}
		switch {
		case len(cur) == 0:
			cur = r
		case len(cur)+1+len(r) <= limit:
			cur = append(append(cur, '\n'), r...)
		default:
			out = append(out, string(cur))
			cur = r
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// cutPoint is where an overlong line is cut: limit, moved back before an
// unterminated tag or entity and before an element left open in r[:limit].
// It never returns 0.
func cutPoint(r []rune, limit int) int {
	pending, element := -1, -1
	for i := 0; i < limit; i++ {
		switch r[i] {
		case '<', '&':
			pending = i
		case '>':
			if pending < 0 || r[pending] != '<' {
				continue
			}
			if pending+1 < len(r) && r[pending+1] == '/' {
				element = -1
			} else if element < 0 {
				element = pending
			}
			pending = -1
		case ';':
			if pending >= 0 && r[pending] == '&' {
				pending = -1
			}
		}
	}
	cut := limit
	if pending > 0 {
		cut = pending
	}
	if element > 0 && element < cut {
		cut = element
	}
	return cut
}

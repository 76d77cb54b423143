// Package locale renders the Spanish date labels used by the platform's
// activity feed. The formats are fixed by the platform and not configurable.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var months = [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

var weekdays = map[time.Weekday]string{
	time.Monday:    "Lunes",
	time.Tuesday:   "Martes",
	time.Wednesday: "Miércoles",
	time.Thursday:  "Jueves",
	time.Friday:    "Viernes",
	time.Saturday:  "Sábado",
	time.Sunday:    "Domingo",
}

var upper = cases.Upper(language.Spanish)

// ShortLabel formats t as "19 Ene", the day key used by the activity feed.
func ShortLabel(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), months[t.Month()-1])
}

// FullLabel formats t as "LUNES 19 ENE" for display.
func FullLabel(t time.Time) string {
	return fmt.Sprintf("%s %d %s", Upper(weekdays[t.Weekday()]), t.Day(), Upper(months[t.Month()-1]))
}

// Upper upper-cases s with Spanish casing rules.
func Upper(s string) string {
	return upper.String(s)
}

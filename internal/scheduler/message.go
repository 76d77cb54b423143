package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/aimharder-scheduler/internal/digest"
	"github.com/example/aimharder-scheduler/internal/domain/reservation"
	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/example/aimharder-scheduler/internal/locale"
	"golang.org/x/net/html"
)

func outcomeMessage(box string, day time.Time, out reservation.Outcome, wod string) string {
	var head string
	switch {
	case out.Kind == reservation.Success && out.Simulated:
		head = "🔵 <b>SIMULACIÓN</b>: se reservaría"
	case out.Kind == reservation.Success:
		head = "✅ <b>Reserva confirmada</b>"
	case out.Kind == reservation.AlreadyBooked:
		head = "ℹ️ <b>Ya estabas apuntado</b>"
	default:
		head = "❌ <b>Reserva fallida</b>"
	}

	lines := []string{
		head,
		"🏋️ " + html.EscapeString(out.ClassName),
		"🗓 " + locale.FullLabel(day) + " · " + out.DisplayTime,
		"📍 " + html.EscapeString(box),
	}
	if !out.Booked() {
		lines = append(lines, "Motivo: "+html.EscapeString(reason(out)))
	}
	msg := strings.Join(lines, "\n")
	// a workout too long for one chunk is left out rather than cut mid-tag
	if wod != "" && utf8.RuneCountInString(msg)+2+utf8.RuneCountInString(wod) <= digest.MaxChunk {
		msg += "\n\n" + wod
	}
	return msg
}

func reason(out reservation.Outcome) string {
	switch out.Kind {
	case reservation.SessionExpired:
		return "sesión caducada"
	case reservation.NoCredit:
		return "sin créditos disponibles"
	case reservation.TooSoonToBook:
		return "todavía no se puede reservar"
	case reservation.TransportError:
		if out.Status == 0 {
			return "sin respuesta: " + out.Message
		}
		return fmt.Sprintf("HTTP %d", out.Status)
	default:
		return out.Message
	}
}

func failureMessage(box string, req reservation.ClassRequest, day time.Time, err error) string {
	why := "error inesperado"
	switch {
	case errors.Is(err, internaltypes.ErrAuth):
		why = "login fallido"
	case errors.Is(err, internaltypes.ErrNotFound):
		why = "clase no encontrada"
	case errors.Is(err, internaltypes.ErrTransport):
		why = "error de conexión"
	}
	return strings.Join([]string{
		"❌ <b>Reserva fallida</b>",
		"🏋️ " + html.EscapeString(req.ClassName),
		"🗓 " + locale.FullLabel(day) + " · " + req.Time,
		"📍 " + html.EscapeString(box),
		"Motivo: " + why,
	}, "\n")
}

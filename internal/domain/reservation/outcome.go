package reservation

import (
	"bytes"
	"encoding/json"
)

type OutcomeKind int

const (
	Success OutcomeKind = iota
	AlreadyBooked
	SessionExpired
	NoCredit
	TooSoonToBook
	GenericError
	TransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case AlreadyBooked:
		return "already_booked"
	case SessionExpired:
		return "session_expired"
	case NoCredit:
		return "no_credit"
	case TooSoonToBook:
		return "too_soon"
	case GenericError:
		return "error"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// platform bookState codes
const (
	bookStateNoCredit = -2
	bookStateTooSoon  = -12
)

const maxBodyInOutcome = 500

// Outcome is the result of one booking attempt. Every attempt is terminal:
// nothing here is retried.
type Outcome struct {
	Kind OutcomeKind

	// Message is set for GenericError and TransportError.
	Message string
	// Status is the HTTP status for TransportError (0 when no response arrived).
	Status int
	// Simulated marks a dry-run Success.
	Simulated bool

	ClassName   string
	DisplayTime string
	DayLabel    string
}

// Booked reports whether the class is (or would be, for dry runs) reserved.
func (o Outcome) Booked() bool {
	return o.Kind == Success || o.Kind == AlreadyBooked
}

// ClassifyResponse interprets the reply to a booking request.
func ClassifyResponse(status int, body []byte) Outcome {
	if status < 200 || status >= 300 {
		return Outcome{Kind: TransportError, Status: status, Message: truncate(string(body), maxBodyInOutcome)}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		// the platform sometimes answers a successful booking with an empty body
		return Outcome{Kind: Success}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return Outcome{Kind: Success}
	}

	if NumberEquals(obj["logout"], 1) {
		return Outcome{Kind: SessionExpired}
	}
	if v, ok := obj["bookState"]; ok {
		if NumberEquals(v, bookStateNoCredit) {
			return Outcome{Kind: NoCredit}
		}
		if NumberEquals(v, bookStateTooSoon) {
			return Outcome{Kind: TooSoonToBook}
		}
	}
	_, hasMsg := obj["errorMssg"]
	_, hasMsgLang := obj["errorMssgLang"]
	if hasMsg || hasMsgLang {
		msg := Stringify(obj["errorMssg"])
		if msg == "" {
			msg = Stringify(obj["errorMssgLang"])
		}
		return Outcome{Kind: GenericError, Message: msg}
	}
	return Outcome{Kind: Success}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

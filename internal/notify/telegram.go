package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/aimharder-scheduler/internal/internaltypes"
)

const (
	telegramAPI     = "https://api.telegram.org"
	telegramTimeout = 10 * time.Second
)

// Telegram posts HTML formatted messages through the Bot API.
type Telegram struct {
	token   string
	chatID  string
	apiBase string
	hc      *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:   token,
		chatID:  chatID,
		apiBase: telegramAPI,
		hc:      &http.Client{Timeout: telegramTimeout},
	}
}

// WithAPIBase points the notifier at another Bot API server.
func (t *Telegram) WithAPIBase(base string) *Telegram {
	t.apiBase = strings.TrimRight(base, "/")
	return t
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type telegramReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(telegramMessage{ChatID: t.chatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.hc.Do(req)
	if err != nil {
		// the request URL carries the bot token
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		msg := err.Error()
		if t.token != "" {
			msg = strings.ReplaceAll(msg, t.token, "<redacted>")
		}
		return fmt.Errorf("%w: telegram: %s", internaltypes.ErrTransport, msg)
	}
	defer res.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

	var reply telegramReply
	_ = json.Unmarshal(body, &reply)
	if res.StatusCode < 200 || res.StatusCode >= 300 || !reply.OK {
		return fmt.Errorf("%w: telegram status=%d: %s", internaltypes.ErrTransport, res.StatusCode, reply.Description)
	}
	return nil
}

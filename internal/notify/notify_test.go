package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/example/aimharder-scheduler/internal/logger"
	"github.com/example/aimharder-scheduler/internal/mocks"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestTelegramSend(t *testing.T) {
	var got telegramMessage
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer ts.Close()

	n := NewTelegram("TOKEN", "-100").WithAPIBase(ts.URL)
	require.NoError(t, n.Send(context.Background(), "<b>hola</b>"))
	assert.Equal(t, telegramMessage{ChatID: "-100", Text: "<b>hola</b>", ParseMode: "HTML"}, got)
}

func TestTelegramRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	}))
	defer ts.Close()

	err := NewTelegram("TOKEN", "1").WithAPIBase(ts.URL).Send(context.Background(), "<b>")
	require.Error(t, err)
	assert.ErrorIs(t, err, internaltypes.ErrTransport)
	assert.Contains(t, err.Error(), "can't parse entities")
}

func TestTelegramNetworkErrorHidesToken(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	const token = "123456:SECRET-TOKEN"
	err := NewTelegram(token, "1").WithAPIBase(base).Send(context.Background(), "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, internaltypes.ErrTransport)
	assert.NotContains(t, err.Error(), token)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestSlackSend(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "C123", r.PostForm.Get("channel"))
		assert.Equal(t, "*HYROX*\n_WOD_\n5 &amp; 3", r.PostForm.Get("text"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	defer ts.Close()

	n := NewSlack("xoxb-test", "C123", slack.OptionAPIURL(ts.URL+"/"))
	require.NoError(t, n.Send(context.Background(), "<b>HYROX</b>\n<u>WOD</u>\n5 &amp; 3"))
}

func TestSlackError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer ts.Close()

	err := NewSlack("xoxb-test", "C404", slack.OptionAPIURL(ts.URL+"/")).Send(context.Background(), "hi")
	assert.ErrorIs(t, err, internaltypes.ErrTransport)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestToMrkdwn(t *testing.T) {
	assert.Equal(t, "🗓 *LUNES 19 ENE*\n_Warm up_\n*R1* 400m Run", ToMrkdwn("🗓 <b>LUNES 19 ENE</b>\n<u>Warm up</u>\n<b>R1</b> 400m Run"))
	assert.Equal(t, "60' Free <training>", ToMrkdwn("60&#39; Free &lt;training&gt;<br/>"))
}

func TestMultiTriesEveryNotifier(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockNotifier(ctrl)
	second := mocks.NewMockNotifier(ctrl)
	boom := errors.New("boom")

	first.EXPECT().Send(gomock.Any(), "msg").Return(boom)
	second.EXPECT().Send(gomock.Any(), "msg").Return(nil)

	err := Multi{first, second}.Send(context.Background(), "msg")
	assert.ErrorIs(t, err, boom)
}

func TestSendAllKeepsOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := mocks.NewMockNotifier(ctrl)
	gomock.InOrder(
		n.EXPECT().Send(gomock.Any(), "one").Return(nil),
		n.EXPECT().Send(gomock.Any(), "two").Return(errors.New("down")),
		n.EXPECT().Send(gomock.Any(), "three").Return(nil),
	)
	err := SendAll(context.Background(), n, []string{"one", "two", "three"})
	assert.EqualError(t, err, "down")
}

func TestNewPicksTransports(t *testing.T) {
	log := logger.Nop()
	assert.IsType(t, Log{}, New(Options{Log: log}))
	assert.IsType(t, &Telegram{}, New(Options{TelegramToken: "t", TelegramChatID: "c", Log: log}))
	assert.IsType(t, &Slack{}, New(Options{SlackToken: "s", SlackChannel: "c", Log: log}))
	assert.IsType(t, Multi{}, New(Options{TelegramToken: "t", TelegramChatID: "c", SlackToken: "s", SlackChannel: "c", Log: log}))
	assert.NoError(t, Log{Logger: log}.Send(context.Background(), "x"))
}

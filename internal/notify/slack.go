package notify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/example/aimharder-scheduler/internal/internaltypes"
	"github.com/slack-go/slack"
	"golang.org/x/net/html"
)

// SlackPoster is the part of the slack client the notifier uses.
type SlackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack posts messages to a channel, converting the HTML emphasis used by the
// digests into mrkdwn.
type Slack struct {
	client  SlackPoster
	channel string
}

func NewSlack(token, channel string, opts ...slack.Option) *Slack {
	return NewSlackWithClient(slack.New(token, opts...), channel)
}

func NewSlackWithClient(client SlackPoster, channel string) *Slack {
	return &Slack{client: client, channel: channel}
}

func (s *Slack) Send(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(ToMrkdwn(text), true),
		slack.MsgOptionAsUser(false),
	)
	if err != nil {
		return fmt.Errorf("%w: slack: %v", internaltypes.ErrTransport, err)
	}
	return nil
}

var (
	boldTag      = regexp.MustCompile(`(?s)<b>(.*?)</b>`)
	underlineTag = regexp.MustCompile(`(?s)<u>(.*?)</u>`)
	anyTag       = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// ToMrkdwn converts <b> and <u> to Slack's *bold* and _italic_, drops any other
// tag and decodes entities. Slack escaping is applied by the client.
func ToMrkdwn(text string) string {
	text = boldTag.ReplaceAllString(text, "*$1*")
	text = underlineTag.ReplaceAllString(text, "_${1}_")
	text = anyTag.ReplaceAllString(text, "")
	return html.UnescapeString(strings.TrimSpace(text))
}

package notify

import (
	"fmt"
	"strings"

	"github.com/fuglede/slack-electricity-prices/slice"
)

// WebhookPrefix marks Slack-style incoming webhooks. Anything else is
// treated as a Mastodon instance with the access token appended after a
// question mark; there is no upfront validation, a malformed destination
// surfaces as a delivery error.
const WebhookPrefix = "https://hooks.slack.com/"

type Kind int

const (
	KindSlackWebhook Kind = iota
	KindMastodon
)

func (k Kind) String() string {
	switch k {
	case KindSlackWebhook:
		return "slack_webhook"
	case KindMastodon:
		return "mastodon"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Destination is a classified delivery endpoint. For a Slack webhook, URL is
// the complete webhook URL. For Mastodon, URL is the instance base URL and
// Token the bearer credential that followed the first question mark.
type Destination struct {
	Kind  Kind
	URL   string
	Token string
}

// Classify tags a raw destination argument once, so the send path can switch
// on the kind instead of re-inspecting the string.
func Classify(raw string) Destination {
	if strings.HasPrefix(raw, WebhookPrefix) {
		return Destination{Kind: KindSlackWebhook, URL: raw}
	}

	base, token, _ := strings.Cut(raw, "?")
	return Destination{Kind: KindMastodon, URL: base, Token: token}
}

// ClassifyAll tags every raw destination in order.
func ClassifyAll(raw []string) []Destination {
	return slice.Map(raw, Classify)
}

// Redacted is the loggable form of the destination: webhook paths and access
// tokens are secrets and never written out in full.
func (d Destination) Redacted() string {
	switch d.Kind {
	case KindSlackWebhook:
		return WebhookPrefix + "..."
	default:
		return d.URL
	}
}

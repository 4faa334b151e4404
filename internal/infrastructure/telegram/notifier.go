package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
)

// Telegram rejects messages over 4096 chars; stay under with headroom.
const maxMessageChars = 4000

// Notifier delivers approved artifacts to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Deliver posts the artifact's segments as one Markdown message, each segment
// in its own code block so it can be copied with a single tap.
func (n *Notifier) Deliver(ctx context.Context, artifact domain.Artifact) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", formatThread(artifact))
	form.Set("parse_mode", "Markdown")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

func formatThread(artifact domain.Artifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📖 *THREAD FOR: %s*\n%s\n", artifact.Title, strings.Repeat("-", 20))

	for i, segment := range artifact.Segments {
		// The newline after the opening fence keeps Telegram from treating
		// the first word as a syntax-highlight language.
		fmt.Fprintf(&b, "\nPost %d:\n```\n%s\n```\n", i+1, segment)
	}

	message := b.String()
	if len(message) > maxMessageChars {
		message = message[:maxMessageChars-3] + "..."
	}
	return message
}

package telegram

import (
	"context"
	"strings"
	"testing"

	"threadcurator/internal/domain"
)

func TestFormatThreadWrapsSegmentsInCodeBlocks(t *testing.T) {
	t.Parallel()

	artifact := domain.Artifact{
		CandidateID: "a",
		Title:       "Why everyone is wrong about X",
		Segments:    []string{"hook text", "1/2\n\ndetail", "2/2\n\nclose"},
	}

	msg := formatThread(artifact)

	if !strings.Contains(msg, "THREAD FOR: Why everyone is wrong about X") {
		t.Fatalf("header missing: %q", msg)
	}
	if got := strings.Count(msg, "```"); got != 6 {
		t.Fatalf("expected 3 fenced blocks (6 fences), got %d", got)
	}
	// A newline must follow the opening fence so Telegram does not treat the
	// first word as a language tag.
	if strings.Contains(msg, "```hook") {
		t.Fatalf("opening fence glued to content: %q", msg)
	}
	if !strings.Contains(msg, "Post 2:") {
		t.Fatalf("segment labels missing: %q", msg)
	}
}

func TestFormatThreadTruncatesLongMessages(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 3000)
	artifact := domain.Artifact{
		Title:    "long",
		Segments: []string{long, long},
	}

	msg := formatThread(artifact)
	if len(msg) > maxMessageChars {
		t.Fatalf("message exceeds limit: %d chars", len(msg))
	}
	if !strings.HasSuffix(msg, "...") {
		t.Fatal("truncated message missing ellipsis")
	}
}

func TestDeliverRequiresCredentials(t *testing.T) {
	t.Parallel()

	n := NewNotifier("", "")
	if err := n.Deliver(context.Background(), domain.Artifact{Title: "x"}); err == nil {
		t.Fatal("expected misconfigured notifier to fail")
	}
}

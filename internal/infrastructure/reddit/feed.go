package reddit

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
)

const defaultBaseURL = "https://www.reddit.com"

// listingPaths maps a listing strategy to its feed path template.
var listingPaths = map[string]string{
	"hot":    "/r/%s/.rss",
	"new":    "/r/%s/new/.rss",
	"top":    "/r/%s/top/.rss?t=day",
	"rising": "/r/%s/rising/.rss",
}

// Feed pulls raw candidates from subreddit RSS listings. A channel that fails
// to fetch is logged and skipped; the remaining channels still contribute.
type Feed struct {
	parser     *gofeed.Parser
	baseURL    string
	channels   []string
	listing    string
	perChannel int
	logger     *slog.Logger
}

var _ ports.SourceFeed = (*Feed)(nil)

// NewFeed wires the subscribed channels. perChannel caps how many posts each
// channel contributes; listing falls back to "hot" when unknown.
func NewFeed(client *http.Client, userAgent string, channels []string, listing string, perChannel int, logger *slog.Logger) *Feed {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if perChannel <= 0 {
		perChannel = 3
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Feed{
		parser:     parser,
		baseURL:    defaultBaseURL,
		channels:   channels,
		listing:    listing,
		perChannel: perChannel,
		logger:     logger,
	}
}

// Fetch aggregates candidates across all channels in subscription order.
func (f *Feed) Fetch(ctx context.Context) ([]domain.Candidate, error) {
	var all []domain.Candidate
	for _, channel := range f.channels {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		posts, err := f.fetchChannel(ctx, channel)
		if err != nil {
			f.logger.Error("channel fetch failed", "channel", channel, "error", err)
			continue
		}
		all = append(all, posts...)
	}
	return all, nil
}

func (f *Feed) fetchChannel(ctx context.Context, channel string) ([]domain.Candidate, error) {
	path, ok := listingPaths[f.listing]
	if !ok {
		path = listingPaths["hot"]
	}
	feedURL := f.baseURL + fmt.Sprintf(path, channel)

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	var posts []domain.Candidate
	for _, item := range feed.Items {
		if len(posts) >= f.perChannel {
			break
		}

		author := authorName(item)
		if strings.Contains(strings.ToLower(author), "moderator") {
			continue
		}

		link := item.Link
		posts = append(posts, domain.Candidate{
			ID:      candidateID(link),
			Channel: channel,
			Title:   item.Title,
			Link:    link,
			Author:  author,
			Summary: stripHTML(itemBody(item)),
		})
	}

	return posts, nil
}

// candidateID derives a stable identifier from the post link, the dedup key
// within a run.
func candidateID(link string) string {
	sum := md5.Sum([]byte(link))
	return hex.EncodeToString(sum[:])[:10]
}

func authorName(item *gofeed.Item) string {
	if item.Author != nil && item.Author.Name != "" {
		return item.Author.Name
	}
	return "unknown"
}

func itemBody(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

// stripHTML reduces the RSS body to plain text.
func stripHTML(raw string) string {
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(doc.Text())
}

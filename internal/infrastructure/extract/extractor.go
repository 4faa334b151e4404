package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"threadcurator/internal/domain"
	"threadcurator/internal/ports"
)

const maxBodyChars = 5000

// Extractor fetches the full text behind a candidate's link. Reddit posts go
// through the .json endpoint to pull the selftext directly; anything else is
// fetched as HTML and reduced to visible text.
type Extractor struct {
	client    *http.Client
	userAgent string
}

var _ ports.Extractor = (*Extractor)(nil)

// NewExtractor wires an HTTP client for deep fetching.
func NewExtractor(client *http.Client, userAgent string) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Extractor{client: client, userAgent: userAgent}
}

// Extract returns the full body text for a candidate or fails.
func (e *Extractor) Extract(ctx context.Context, c domain.Candidate) (string, error) {
	if c.Link == "" {
		return "", fmt.Errorf("candidate %s has no link", c.ID)
	}

	if strings.Contains(c.Link, "reddit.com") {
		if text, err := e.extractSelftext(ctx, c.Link); err == nil {
			return text, nil
		}
		// JSON endpoint unavailable; fall through to HTML scraping.
	}

	return e.extractHTML(ctx, c.Link)
}

// extractSelftext reads the post body from Reddit's JSON listing endpoint.
func (e *Extractor) extractSelftext(ctx context.Context, link string) (string, error) {
	jsonURL := strings.TrimRight(link, "/") + ".json"

	resp, err := e.get(ctx, jsonURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var listing []struct {
		Data struct {
			Children []struct {
				Data struct {
					Selftext string `json:"selftext"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return "", fmt.Errorf("decode listing: %w", err)
	}

	if len(listing) == 0 || len(listing[0].Data.Children) == 0 {
		return "", fmt.Errorf("listing has no post data")
	}

	text := listing[0].Data.Children[0].Data.Selftext
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("post has no selftext")
	}
	return capText(text), nil
}

// extractHTML scrapes the linked page and returns its visible text.
func (e *Extractor) extractHTML(ctx context.Context, link string) (string, error) {
	resp, err := e.get(ctx, link)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	doc.Find("script, style, nav, footer, header").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	if text == "" {
		return "", fmt.Errorf("page has no extractable text")
	}
	return capText(text), nil
}

func (e *Extractor) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", rawURL, resp.Status)
	}
	return resp, nil
}

func capText(text string) string {
	if len(text) > maxBodyChars {
		return text[:maxBodyChars] + "..."
	}
	return text
}

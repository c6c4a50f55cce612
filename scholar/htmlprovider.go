package scholar

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	scribe "github.com/arcoslabs/scribe"
)

// HTMLProvider extracts a single PaperMeta from an arbitrary landing
// page when none of the structured APIs return a match — the query is
// treated as a direct URL rather than a search term. It exists for
// publisher pages and preprint mirrors the structured providers miss.
type HTMLProvider struct{}

func (HTMLProvider) Name() string { return "html_fallback" }

func (HTMLProvider) Search(ctx context.Context, query string) ([]scribe.PaperMeta, error) {
	pageURL, err := url.Parse(strings.TrimSpace(query))
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return nil, nil // not a URL; this provider has nothing to contribute
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "scribe-scholar-adapter/1.0")

	client := &http.Client{Timeout: 20 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return nil, err
	}

	abstract := article.Excerpt
	if abstract == "" {
		abstract = truncateText(article.TextContent, 1000)
	}

	return []scribe.PaperMeta{{
		ID:       pageURL.String(),
		Title:    article.Title,
		Authors:  splitByline(article.Byline),
		Abstract: abstract,
		URL:      pageURL.String(),
		Source:   "html_fallback",
	}}, nil
}

func splitByline(byline string) []string {
	byline = strings.TrimSpace(byline)
	if byline == "" {
		return nil
	}
	parts := strings.Split(byline, ",")
	authors := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			authors = append(authors, p)
		}
	}
	return authors
}

func truncateText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

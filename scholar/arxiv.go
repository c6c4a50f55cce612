package scholar

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// ArxivProvider queries the arXiv Atom export API.
type ArxivProvider struct{}

func (ArxivProvider) Name() string { return "arxiv" }

type arxivFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink   `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

func (ArxivProvider) Search(ctx context.Context, query string) ([]scribe.PaperMeta, error) {
	params := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {"10"},
	}
	full := "http://export.arxiv.org/api/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "scribe-scholar-adapter/1.0")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scholar: arxiv request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scholar: arxiv returned %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("scholar: arxiv parse: %w", err)
	}

	papers := make([]scribe.PaperMeta, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		var authors []string
		for _, a := range entry.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				authors = append(authors, name)
			}
		}
		year := 0
		if len(entry.Published) >= 4 {
			if y, err := strconv.Atoi(entry.Published[:4]); err == nil {
				year = y
			}
		}
		var pdfURL string
		for _, l := range entry.Links {
			if l.Title == "pdf" {
				pdfURL = l.Href
				break
			}
		}
		paperID := entry.ID
		if idx := strings.LastIndex(entry.ID, "/"); idx >= 0 {
			paperID = entry.ID[idx+1:]
		}
		papers = append(papers, scribe.PaperMeta{
			ID:       paperID,
			Title:    strings.TrimSpace(entry.Title),
			Authors:  authors,
			Year:     year,
			Abstract: strings.TrimSpace(entry.Summary),
			URL:      entry.ID,
			PDFURL:   pdfURL,
			Source:   "arxiv",
		})
	}
	return papers, nil
}

// Package scholar implements concrete ScholarProvider adapters against
// real academic search APIs (Semantic Scholar, Crossref, arXiv, OpenAlex)
// plus a generic-HTML fallback and an optional Postgres dedupe ledger.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	scribe "github.com/arcoslabs/scribe"
)

// httpClient is shared across providers; each call carries its own
// context-derived timeout so a slow host can't stall the whole pool.
var httpClient = &http.Client{Timeout: 60 * time.Second}

func getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "scribe-scholar-adapter/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scholar: request %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("scholar: %s returned %d: %s", rawURL, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SemanticScholarProvider queries the Semantic Scholar Graph API.
type SemanticScholarProvider struct{}

func (SemanticScholarProvider) Name() string { return "semantic_scholar" }

func (SemanticScholarProvider) Search(ctx context.Context, query string) ([]scribe.PaperMeta, error) {
	params := url.Values{
		"query":  {query},
		"limit":  {"10"},
		"fields": {"title,authors,venue,year,abstract,doi,url,openAccessPdf"},
	}
	full := "https://api.semanticscholar.org/graph/v1/paper/search?" + params.Encode()

	var raw struct {
		Data []struct {
			PaperID string `json:"paperId"`
			Title   string `json:"title"`
			Authors []struct {
				Name string `json:"name"`
			} `json:"authors"`
			Venue    string `json:"venue"`
			Year     int    `json:"year"`
			Abstract string `json:"abstract"`
			DOI      string `json:"doi"`
			URL      string `json:"url"`
			OpenAccessPdf struct {
				URL string `json:"url"`
			} `json:"openAccessPdf"`
		} `json:"data"`
	}
	if err := getJSON(ctx, full, &raw); err != nil {
		return nil, err
	}

	papers := make([]scribe.PaperMeta, 0, len(raw.Data))
	for _, item := range raw.Data {
		var authors []string
		for _, a := range item.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}
		papers = append(papers, scribe.PaperMeta{
			ID:       item.PaperID,
			Title:    item.Title,
			Authors:  authors,
			Venue:    item.Venue,
			Year:     item.Year,
			Abstract: item.Abstract,
			DOI:      item.DOI,
			URL:      item.URL,
			PDFURL:   item.OpenAccessPdf.URL,
			Source:   "semantic_scholar",
		})
	}
	return papers, nil
}

package scholar

import (
	"context"
	"net/url"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// CrossrefProvider queries the Crossref works API.
type CrossrefProvider struct{}

func (CrossrefProvider) Name() string { return "crossref" }

func (CrossrefProvider) Search(ctx context.Context, query string) ([]scribe.PaperMeta, error) {
	params := url.Values{
		"query":  {query},
		"rows":   {"10"},
		"select": {"title,author,published-print,DOI,URL"},
	}
	full := "https://api.crossref.org/works?" + params.Encode()

	var raw struct {
		Message struct {
			Items []struct {
				Title  []string `json:"title"`
				Author []struct {
					Given  string `json:"given"`
					Family string `json:"family"`
				} `json:"author"`
				PublishedPrint struct {
					DateParts [][]int `json:"date-parts"`
				} `json:"published-print"`
				DOI string `json:"DOI"`
				URL string `json:"URL"`
			} `json:"items"`
		} `json:"message"`
	}
	if err := getJSON(ctx, full, &raw); err != nil {
		return nil, err
	}

	papers := make([]scribe.PaperMeta, 0, len(raw.Message.Items))
	for _, item := range raw.Message.Items {
		var authors []string
		for _, a := range item.Author {
			name := strings.TrimSpace(a.Given + " " + a.Family)
			if a.Family != "" {
				authors = append(authors, name)
			}
		}
		year := 0
		if len(item.PublishedPrint.DateParts) > 0 && len(item.PublishedPrint.DateParts[0]) > 0 {
			year = item.PublishedPrint.DateParts[0][0]
		}
		papers = append(papers, scribe.PaperMeta{
			ID:      item.DOI,
			Title:   strings.Join(item.Title, " "),
			Authors: authors,
			Year:    year,
			DOI:     item.DOI,
			URL:     item.URL,
			Source:  "crossref",
		})
	}
	return papers, nil
}

package scholar

import (
	"context"
	"net/url"
	"sort"
	"strings"

	scribe "github.com/arcoslabs/scribe"
)

// OpenAlexProvider queries the OpenAlex works API. OpenAlex has
// generous rate limits so it carries no dedicated backoff tuning.
type OpenAlexProvider struct{}

func (OpenAlexProvider) Name() string { return "openalex" }

func (OpenAlexProvider) Search(ctx context.Context, query string) ([]scribe.PaperMeta, error) {
	params := url.Values{
		"search":   {query},
		"per-page": {"10"},
		"select":   {"id,title,authorships,publication_year,primary_location,abstract_inverted_index,doi,open_access"},
	}
	full := "https://api.openalex.org/works?" + params.Encode()

	var raw struct {
		Results []struct {
			ID            string `json:"id"`
			Title         string `json:"title"`
			Authorships   []struct {
				Author struct {
					DisplayName string `json:"display_name"`
				} `json:"author"`
			} `json:"authorships"`
			PublicationYear int `json:"publication_year"`
			PrimaryLocation struct {
				Source struct {
					DisplayName string `json:"display_name"`
				} `json:"source"`
			} `json:"primary_location"`
			AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
			DOI                   string           `json:"doi"`
			OpenAccess            struct {
				OaURL string `json:"oa_url"`
			} `json:"open_access"`
		} `json:"results"`
	}
	if err := getJSON(ctx, full, &raw); err != nil {
		return nil, err
	}

	papers := make([]scribe.PaperMeta, 0, len(raw.Results))
	for _, item := range raw.Results {
		var authors []string
		for _, a := range item.Authorships {
			if a.Author.DisplayName != "" {
				authors = append(authors, a.Author.DisplayName)
			}
		}
		abstract := reconstructAbstract(item.AbstractInvertedIndex)
		id := item.ID
		if idx := strings.LastIndex(id, "/"); idx >= 0 {
			id = id[idx+1:]
		}
		papers = append(papers, scribe.PaperMeta{
			ID:       id,
			Title:    item.Title,
			Authors:  authors,
			Venue:    item.PrimaryLocation.Source.DisplayName,
			Year:     item.PublicationYear,
			Abstract: abstract,
			DOI:      item.DOI,
			URL:      item.ID,
			PDFURL:   item.OpenAccess.OaURL,
			Source:   "openalex",
		})
	}
	return papers, nil
}

// reconstructAbstract flattens OpenAlex's inverted-index abstract
// representation back into ordinary prose.
func reconstructAbstract(inv map[string][]int) string {
	if len(inv) == 0 {
		return ""
	}
	type posWord struct {
		pos  int
		word string
	}
	var tokens []posWord
	for word, positions := range inv {
		for _, pos := range positions {
			tokens = append(tokens, posWord{pos, word})
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].pos < tokens[j].pos })

	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.word
	}
	return strings.Join(words, " ")
}

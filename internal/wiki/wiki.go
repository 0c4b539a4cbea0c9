// internal/wiki/wiki.go
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spacedog-labs/wikiracer/internal/fault"
)

// Span is a run of article text, optionally carrying an outbound link target.
type Span struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

// Paragraph is one block of the rendered article. Level 0 is body text;
// levels 1+ are headings.
type Paragraph struct {
	Level int    `json:"level"`
	Spans []Span `json:"spans"`
}

// Article is the resolved content for a topic key. The core only depends on
// Title (finish detection); spans and links feed the presentation layer.
type Article struct {
	Title      string      `json:"title"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// SearchResult is one hit from the owner's topic search.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Fetcher is the content-fetch collaborator contract.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (*Article, error)
	Search(ctx context.Context, term string) ([]SearchResult, error)
}

// Client fetches articles from a MediaWiki action API endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a client with a bounded request timeout so a slow upstream
// cannot hang a navigation request.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type parseResponse struct {
	Parse struct {
		Title    string `json:"title"`
		Wikitext struct {
			Content string `json:"*"`
		} `json:"wikitext"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Fetch resolves a topic key to its article. A missing page surfaces as
// fault.NotFound; transport failures as fault.Upstream.
func (c *Client) Fetch(ctx context.Context, key string) (*Article, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", key)
	params.Set("prop", "wikitext")
	params.Set("redirects", "1")
	params.Set("format", "json")

	var resp parseResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		if resp.Error.Code == "missingtitle" || resp.Error.Code == "invalidtitle" {
			return nil, fault.New(fault.NotFound, "article not found")
		}
		return nil, fault.New(fault.Upstream, fmt.Sprintf("content fetch failed: %s", resp.Error.Code))
	}

	return &Article{
		Title:      resp.Parse.Title,
		Paragraphs: ParseWikitext(resp.Parse.Wikitext.Content),
	}, nil
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Search runs a full-text topic search.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", term)
	params.Set("srlimit", "10")
	params.Set("format", "json")

	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Query.Search))
	for _, hit := range resp.Query.Search {
		results = append(results, SearchResult{Title: hit.Title, Snippet: hit.Snippet})
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fault.Wrap(fault.Upstream, "content fetch request failed", err)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fault.Wrap(fault.Upstream, "content fetch unavailable", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fault.New(fault.Upstream, fmt.Sprintf("content fetch returned status %d", res.StatusCode))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fault.Wrap(fault.Upstream, "content fetch response corrupt", err)
	}
	return nil
}

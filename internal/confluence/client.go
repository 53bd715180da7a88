// Package confluence is a documentation search adapter over the Confluence
// REST API. Every call returns a structured payload; failures are reported
// inside the payload, never as a Go error, so the adapter is safe to
// expose directly to tool-calling surfaces.
package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const (
	searchLimit      = 10
	excerptMaxLength = 200
	requestTimeout   = 30 * time.Second
)

// Config holds Confluence connection settings. All fields are optional;
// an unconfigured client reports missing configuration in its payloads.
type Config struct {
	BaseURL  string
	Username string
	APIToken string
	SpaceKey string
	Logger   *zap.Logger
}

// Client talks to the Confluence REST API with basic auth.
type Client struct {
	baseURL      string
	username     string
	apiToken     string
	defaultSpace string
	http         *http.Client
	log          *zap.Logger
}

// New creates a Confluence client.
func New(cfg *Config) *Client {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		username:     cfg.Username,
		apiToken:     cfg.APIToken,
		defaultSpace: cfg.SpaceKey,
		http:         &http.Client{Timeout: requestTimeout},
		log:          log,
	}
}

// SearchResult is one search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt"`
	ID      string `json:"id"`
	Type    string `json:"type"`
}

// SearchPayload is the structured result of a search. On failure Status is
// "error" and Error/Message describe what went wrong.
type SearchPayload struct {
	Total   int            `json:"total"`
	Results []SearchResult `json:"results"`
	Status  string         `json:"status,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

// PagePayload is the structured result of a page retrieval.
type PagePayload struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
	ID      string `json:"id,omitempty"`
	Type    string `json:"type,omitempty"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (c *Client) configured() bool {
	return c.baseURL != "" && c.username != "" && c.apiToken != ""
}

// Search runs a CQL full-text search. spaceKey narrows the search to one
// space; empty falls back to the configured default space, and no space
// at all searches everything.
func (c *Client) Search(ctx context.Context, query, spaceKey string) *SearchPayload {
	if !c.configured() {
		return &SearchPayload{
			Results: []SearchResult{},
			Status:  "error",
			Error:   "Missing Confluence configuration",
			Message: "Confluence URL, username, or API token not provided",
		}
	}

	cql := fmt.Sprintf("text ~ %q", query)
	if space := firstNonEmpty(spaceKey, c.defaultSpace); space != "" {
		cql += fmt.Sprintf(" AND space = %q", space)
	}

	params := url.Values{}
	params.Set("cql", cql)
	params.Set("limit", fmt.Sprintf("%d", searchLimit))
	params.Set("expand", "metadata.labels,body.view.value")

	var resp struct {
		Size    int `json:"size"`
		Results []struct {
			ID    string `json:"id"`
			Type  string `json:"type"`
			Title string `json:"title"`
			Body  struct {
				View struct {
					Value string `json:"value"`
				} `json:"view"`
			} `json:"body"`
			Links struct {
				WebUI string `json:"webui"`
			} `json:"_links"`
		} `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/content/search", params, &resp); err != nil {
		c.log.Warn("confluence search failed", zap.String("cql", cql), zap.Error(err))
		return &SearchPayload{
			Results: []SearchResult{},
			Status:  "error",
			Error:   err.Error(),
			Message: "Failed to search Confluence: " + err.Error(),
		}
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = "Untitled"
		}
		results = append(results, SearchResult{
			Title:   title,
			URL:     c.baseURL + r.Links.WebUI,
			Excerpt: extractExcerpt(r.Body.View.Value, excerptMaxLength),
			ID:      r.ID,
			Type:    r.Type,
		})
	}

	return &SearchPayload{Total: resp.Size, Results: results}
}

// Page retrieves the full storage-format content of one page.
func (c *Client) Page(ctx context.Context, pageID string) *PagePayload {
	if !c.configured() {
		return &PagePayload{
			Status:  "error",
			Error:   "Missing Confluence configuration",
			Message: "Confluence URL, username, or API token not provided",
		}
	}

	params := url.Values{}
	params.Set("expand", "body.storage,metadata.labels")

	var resp struct {
		ID    string `json:"id"`
		Type  string `json:"type"`
		Title string `json:"title"`
		Body  struct {
			Storage struct {
				Value string `json:"value"`
			} `json:"storage"`
		} `json:"body"`
		Links struct {
			WebUI string `json:"webui"`
		} `json:"_links"`
	}
	if err := c.get(ctx, "/rest/api/content/"+url.PathEscape(pageID), params, &resp); err != nil {
		c.log.Warn("confluence page retrieval failed", zap.String("page_id", pageID), zap.Error(err))
		return &PagePayload{
			Status:  "error",
			Error:   err.Error(),
			Message: "Failed to retrieve page content: " + err.Error(),
		}
	}

	title := resp.Title
	if title == "" {
		title = "Untitled"
	}
	return &PagePayload{
		Title:   title,
		URL:     c.baseURL + resp.Links.WebUI,
		Content: resp.Body.Storage.Value,
		ID:      resp.ID,
		Type:    resp.Type,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// extractExcerpt strips HTML tags, collapses whitespace, and truncates to
// maxLength characters with an ellipsis.
func extractExcerpt(htmlContent string, maxLength int) string {
	if htmlContent == "" {
		return ""
	}

	node, err := html.Parse(strings.NewReader(htmlContent))
	var text string
	if err != nil {
		text = htmlContent
	} else {
		var b strings.Builder
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
				return
			}
			if n.Type == html.TextNode {
				b.WriteString(n.Data)
				b.WriteString(" ")
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(node)
		text = b.String()
	}

	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxLength {
		return string(runes[:maxLength]) + "..."
	}
	return text
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxSearchResults = 5

// WebSearchTool performs a web search through the DuckDuckGo answer API and
// formats the top results as a plain-text digest.
type WebSearchTool struct {
	httpClient *http.Client
	baseURL    string
}

// NewWebSearchTool creates a WebSearchTool with a bounded HTTP timeout.
func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.duckduckgo.com",
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for documentation, solutions, or libraries."
}

func (t *WebSearchTool) Parameters() Schema {
	return ObjectSchema(map[string]interface{}{
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The search query.",
		},
	}, "query")
}

type searchResult struct {
	Title   string
	Link    string
	Snippet string
}

// ddgResponse mirrors the fields of the DuckDuckGo answer API we use.
type ddgResponse struct {
	Heading       string     `json:"Heading"`
	AbstractText  string     `json:"AbstractText"`
	AbstractURL   string     `json:"AbstractURL"`
	RelatedTopics []ddgTopic `json:"RelatedTopics"`
}

type ddgTopic struct {
	Text     string     `json:"Text"`
	FirstURL string     `json:"FirstURL"`
	Topics   []ddgTopic `json:"Topics"` // category groupings nest one level
}

func (t *WebSearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query")

	results, err := t.search(ctx, query)
	if err != nil {
		return fmt.Sprintf("Error performing web search: %v", err), nil
	}
	if len(results) == 0 {
		return "No results found.", nil
	}

	var blocks []string
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("Title: %s\nLink: %s\nSnippet: %s\n", r.Title, r.Link, r.Snippet))
	}
	return strings.Join(blocks, "\n---"), nil
}

func (t *WebSearchTool) search(ctx context.Context, query string) ([]searchResult, error) {
	u := fmt.Sprintf("%s/?q=%s&format=json&no_html=1&skip_disambig=1", t.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var parsed ddgResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	var results []searchResult
	if parsed.AbstractText != "" {
		results = append(results, searchResult{
			Title:   parsed.Heading,
			Link:    parsed.AbstractURL,
			Snippet: parsed.AbstractText,
		})
	}
	results = append(results, flattenTopics(parsed.RelatedTopics)...)
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results, nil
}

func flattenTopics(topics []ddgTopic) []searchResult {
	var results []searchResult
	for _, topic := range topics {
		if len(topic.Topics) > 0 {
			results = append(results, flattenTopics(topic.Topics)...)
			continue
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		// Topic text reads "Title - description"; fall back to the whole
		// text when there is no separator.
		title, snippet := topic.Text, topic.Text
		if idx := strings.Index(topic.Text, " - "); idx > 0 {
			title = topic.Text[:idx]
			snippet = topic.Text[idx+3:]
		}
		results = append(results, searchResult{Title: title, Link: topic.FirstURL, Snippet: snippet})
	}
	return results
}

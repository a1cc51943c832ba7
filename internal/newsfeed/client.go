package newsfeed

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"SignalDesk/internal/model"
)

// Source supplies timestamped news items for a symbol. Polarity scoring is
// the engine's responsibility, not the provider's; implementations return
// raw headlines and this package scores them.
type Source interface {
	News(ctx context.Context, symbol string, since time.Time) ([]model.NewsItem, error)
}

// article is the wire shape of one item from the news API.
type article struct {
	PublishedAt time.Time `json:"published_at"`
	Headline    string    `json:"headline"`
	Source      string    `json:"source"`
}

// Client fetches news from an HTTP JSON feed:
// GET {base}/v1/news?symbol=X&since=RFC3339 → [{published_at, headline, source}].
type Client struct {
	http *resty.Client
}

// NewClient creates a news client with a bounded request timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2)
	if apiKey != "" {
		c.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &Client{http: c}
}

func (c *Client) News(ctx context.Context, symbol string, since time.Time) ([]model.NewsItem, error) {
	var articles []article
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetQueryParam("since", since.UTC().Format(time.RFC3339)).
		SetResult(&articles).
		Get("/v1/news")
	if err != nil {
		return nil, fmt.Errorf("fetch news for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news api returned %s for %s", resp.Status(), symbol)
	}

	items := make([]model.NewsItem, 0, len(articles))
	for _, a := range articles {
		items = append(items, model.NewsItem{
			PublishedAt: a.PublishedAt,
			Headline:    a.Headline,
			Source:      a.Source,
			Polarity:    ScoreHeadline(a.Headline),
		})
	}
	return items, nil
}

// Empty is a Source with no articles, used when no feed is configured.
// The sentiment evaluator treats an empty feed as Neutral at minimum
// confidence, so analysis still runs.
type Empty struct{}

func (Empty) News(context.Context, string, time.Time) ([]model.NewsItem, error) {
	return nil, nil
}

// Package search wraps the DuckDuckGo HTML endpoint as the free-text
// search collaborator.
package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lookout/internal/model"
)

const (
	defaultBaseURL = "https://html.duckduckgo.com"
	userAgent      = "Mozilla/5.0 (compatible; LookoutBot/1.0)"

	// maxResults caps a response; the cap belongs here, callers never
	// re-truncate.
	maxResults = 10
)

// Response is one search call's output: the capped result list plus any
// insights derived inline from the result links themselves.
type Response struct {
	Results  []model.SearchResult
	Insights []model.Insight
}

// Client performs free-text searches.
type Client interface {
	Search(ctx context.Context, query string) (*Response, error)
}

// Option configures the client.
type Option func(*ddgClient)

// WithBaseURL overrides the DuckDuckGo HTML endpoint base URL.
func WithBaseURL(u string) Option {
	return func(c *ddgClient) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *ddgClient) {
		c.http = hc
	}
}

type ddgClient struct {
	baseURL string
	http    *http.Client
	// complaintDomains are hosts whose presence among result links
	// yields an inline reputation insight.
	complaintDomains []string
}

// NewClient creates a DuckDuckGo search client. complaintDomains lists
// the complaint-site hosts recognized for inline reputation insights.
func NewClient(complaintDomains []string, opts ...Option) Client {
	c := &ddgClient{
		baseURL:          defaultBaseURL,
		complaintDomains: complaintDomains,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Search fetches and parses one results page. Malformed individual
// results are skipped; a failed fetch or parse is returned as an error
// for the caller to surface.
func (c *ddgClient) Search(ctx context.Context, query string) (*Response, error) {
	reqURL := c.baseURL + "/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "search: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "search: fetch results page")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("search: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "search: parse results page")
	}

	out := &Response{}
	doc.Find(".result__title").Each(func(_ int, sel *goquery.Selection) {
		if len(out.Results) >= maxResults {
			return
		}

		title := strings.TrimSpace(sel.Text())
		rawLink, _ := sel.Find("a").Attr("href")
		link := decodeResultLink(rawLink)
		if title == "" || link == "" {
			return
		}

		out.Results = append(out.Results, model.SearchResult{Title: title, Link: link})

		if domain := matchDomain(link, c.complaintDomains); domain != "" {
			out.Insights = append(out.Insights, model.Insight{
				Kind:    model.InsightReputation,
				Content: "Possible complaint-site profile found: " + link,
				Source:  link,
			})
		}
	})

	zap.L().Debug("search: results page parsed",
		zap.String("query", query),
		zap.Int("results", len(out.Results)),
		zap.Int("inline_insights", len(out.Insights)),
	)

	return out, nil
}

// decodeResultLink unwraps DuckDuckGo's redirect URL (the target lives
// in the uddg query parameter). Direct http(s) hrefs pass through;
// anything else is dropped.
func decodeResultLink(rawLink string) string {
	if rawLink == "" {
		return ""
	}
	u, err := url.Parse(rawLink)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "http" || u.Scheme == "https" {
		return rawLink
	}
	return ""
}

// matchDomain returns the first domain in domains that link's host
// falls under, or "".
func matchDomain(link string, domains []string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return d
		}
	}
	return ""
}

package insight

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/lookout/internal/metrics"
	"github.com/sells-group/lookout/internal/model"
)

const pageUserAgent = "Mozilla/5.0 (compatible; LookoutBot/1.0)"

// Excerpt window around the first vocabulary hit.
const (
	excerptBefore = 100
	excerptAfter  = 300
)

// Extractor derives typed insights from arbitrary web pages. Failures
// never escape: a page that cannot be fetched or parsed contributes an
// empty slice, logged and counted.
type Extractor interface {
	ExtractFromPage(ctx context.Context, pageURL string) []model.Insight
}

// PageExtractor is the HTTP-backed Extractor.
type PageExtractor struct {
	rules   *Rules
	client  *http.Client
	metrics *metrics.Metrics
}

// NewPageExtractor creates a PageExtractor with its own bounded
// timeout.
func NewPageExtractor(rules *Rules, m *metrics.Metrics, timeout time.Duration) *PageExtractor {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &PageExtractor{
		rules:   rules,
		metrics: m,
		client:  &http.Client{Timeout: timeout},
	}
}

// ExtractFromPage fetches one URL and runs every heuristic over it.
func (e *PageExtractor) ExtractFromPage(ctx context.Context, pageURL string) []model.Insight {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return e.swallow(pageURL, err)
	}
	req.Header.Set("User-Agent", pageUserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return e.swallow(pageURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return e.swallow(pageURL, err)
	}

	return Derive(doc, e.rules, pageURL)
}

// swallow logs a degraded page fetch and returns the empty
// contribution. Per policy these failures are observable but never
// surfaced to the caller.
func (e *PageExtractor) swallow(pageURL string, err error) []model.Insight {
	zap.L().Warn("insight: page fetch degraded to empty",
		zap.String("url", pageURL),
		zap.Error(err),
	)
	if e.metrics != nil {
		e.metrics.SwallowedFailures.WithLabelValues("page_insight").Inc()
	}
	return nil
}

var spaceRe = regexp.MustCompile(`\s+`)

// Derive runs the vocabulary and anchor heuristics over a parsed page.
// Split from the fetch so tests can feed documents directly.
func Derive(doc *goquery.Document, rules *Rules, pageURL string) []model.Insight {
	text := spaceRe.ReplaceAllString(doc.Find("body").Text(), " ")
	folded := Fold(text)

	var insights []model.Insight

	if excerpt := excerptAround(folded, rules.Institutional); excerpt != "" {
		insights = append(insights, model.Insight{
			Kind:    model.InsightInstitutional,
			Content: excerpt,
			Source:  pageURL,
		})
	}

	if excerpt := excerptAround(folded, rules.Services); excerpt != "" {
		insights = append(insights, model.Insight{
			Kind:    model.InsightServices,
			Content: excerpt,
			Source:  pageURL,
		})
	}

	if links := socialLinks(doc, rules); len(links) > 0 {
		insights = append(insights, model.Insight{
			Kind:    model.InsightSocialLinks,
			Details: links,
			Source:  pageURL,
		})
	}

	if containsAny(folded, rules.Complaints) {
		insights = append(insights, model.Insight{
			Kind:    model.InsightReputation,
			Content: "Complaint-related vocabulary found on this page.",
			Source:  pageURL,
		})
	}

	for _, domain := range rules.ComplaintDomains {
		href, ok := doc.Find(`a[href*="` + domain + `"]`).First().Attr("href")
		if ok && href != "" {
			insights = append(insights, model.Insight{
				Kind:    model.InsightReputation,
				Content: "Possible complaint-site profile: " + href,
				Source:  href,
			})
		}
	}

	return insights
}

// excerptAround returns a window of folded text around the earliest
// keyword hit, or "" when no keyword occurs.
func excerptAround(folded string, keywords []string) string {
	earliest := -1
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if idx := strings.Index(folded, kw); idx >= 0 && (earliest < 0 || idx < earliest) {
			earliest = idx
		}
	}
	if earliest < 0 {
		return ""
	}

	start := earliest - excerptBefore
	if start < 0 {
		start = 0
	}
	end := earliest + excerptAfter
	if end > len(folded) {
		return strings.TrimSpace(folded[start:])
	}
	return strings.TrimSpace(folded[start:end]) + "..."
}

func containsAny(folded string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// socialLinks collects the first anchor per social network, skipping
// excluded aggregator hrefs.
func socialLinks(doc *goquery.Document, rules *Rules) map[string]string {
	links := make(map[string]string)
	for label, domain := range rules.SocialDomains {
		doc.Find(`a[href*="` + domain + `"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, ok := sel.Attr("href")
			if !ok || href == "" || excludedSocial(href, rules.SocialExcludes) {
				return true
			}
			links[label] = href
			return false
		})
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

func excludedSocial(href string, excludes []string) bool {
	lower := strings.ToLower(href)
	for _, ex := range excludes {
		if ex != "" && strings.Contains(lower, strings.ToLower(ex)) {
			return true
		}
	}
	return false
}

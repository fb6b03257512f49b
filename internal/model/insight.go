package model

import (
	"sort"
	"strings"
)

// InsightKind classifies a derived insight.
type InsightKind string

const (
	InsightInstitutional InsightKind = "institutional"
	InsightServices      InsightKind = "services"
	InsightReputation    InsightKind = "reputation"
	InsightSocialLinks   InsightKind = "social_links"
)

// SearchResult is one title/link pair from the search collaborator.
// Immutable once produced.
type SearchResult struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Insight is a typed finding derived from a search result or a fetched
// page. Content carries the textual form; Details carries structured
// content (e.g. the social-link map). Insights are appended to growing
// sequences and never mutated after creation.
type Insight struct {
	Kind    InsightKind       `json:"kind"`
	Content string            `json:"content,omitempty"`
	Details map[string]string `json:"details,omitempty"`
	Source  string            `json:"source,omitempty"`
}

// Text flattens the insight's content for pattern scanning, folding the
// structured details into a deterministic string.
func (i Insight) Text() string {
	if len(i.Details) == 0 {
		return i.Content
	}
	keys := make([]string, 0, len(i.Details))
	for k := range i.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(i.Content)
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(i.Details[k])
	}
	return b.String()
}

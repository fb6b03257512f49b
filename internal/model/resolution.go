package model

// RegistryRecord holds the normalized company registration returned by
// the registry collaborator.
type RegistryRecord struct {
	CNPJ      string `json:"cnpj"`
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Activity  string `json:"activity,omitempty"`
	Status    string `json:"status,omitempty"`
}

// Names returns the distinct non-empty name fields, trade name first.
func (r *RegistryRecord) Names() []string {
	var names []string
	if r.TradeName != "" {
		names = append(names, r.TradeName)
	}
	if r.LegalName != "" && r.LegalName != r.TradeName {
		names = append(names, r.LegalName)
	}
	return names
}

// ResolutionKind tags the terminal shape of a resolution.
type ResolutionKind string

const (
	// KindCNPJLookup is a direct registry lookup for an identifier query.
	KindCNPJLookup ResolutionKind = "cnpj_lookup"
	// KindKeywordEscalated is a keyword query promoted to a registry
	// lookup after an identifier surfaced in its search results.
	KindKeywordEscalated ResolutionKind = "keyword_escalated"
	// KindKeyword is a plain aggregated-insight result.
	KindKeyword ResolutionKind = "keyword"
	// KindPhone is a phone-number query; same data shape as KindKeyword.
	KindPhone ResolutionKind = "phone"
	// KindError is a surfaced primary-fetch failure.
	KindError ResolutionKind = "error"
)

// ErrorKind classifies a surfaced resolution failure.
type ErrorKind string

const (
	ErrKindTransport ErrorKind = "transport_failure"
	ErrKindNotFound  ErrorKind = "not_found"
	ErrKindInternal  ErrorKind = "internal"
)

// ResolutionError is the structured failure carried inside a resolution.
// The HTTP layer returns it in a 200 envelope; callers inspect the
// payload, not the status code.
type ResolutionError struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail"`
}

// NameInsights bundles the supplementary insights fetched for one of a
// registry record's names.
type NameInsights struct {
	Name     string    `json:"name"`
	Insights []Insight `json:"insights"`
}

// Resolution is the closed tagged union over every terminal result
// shape. Kind selects which fields are populated:
//
//	cnpj_lookup        Record, NameInsights
//	keyword_escalated  EscalatedFrom, Escalated (the wrapped lookup)
//	keyword, phone     Results, Insights
//	error              Error
//
// Query always carries the original (trimmed) input; TraceID correlates
// log lines across a single resolution.
type Resolution struct {
	Query   string         `json:"query"`
	Kind    ResolutionKind `json:"kind"`
	TraceID string         `json:"trace_id,omitempty"`

	Record       *RegistryRecord `json:"record,omitempty"`
	NameInsights []NameInsights  `json:"name_insights,omitempty"`

	Results  []SearchResult `json:"results,omitempty"`
	Insights []Insight      `json:"insights,omitempty"`

	// EscalatedFrom is the identifier that triggered promotion of a
	// keyword query into a registry lookup.
	EscalatedFrom string      `json:"escalated_from,omitempty"`
	Escalated     *Resolution `json:"escalated,omitempty"`

	Error *ResolutionError `json:"error,omitempty"`
}

// Failed reports whether the resolution carries a surfaced error.
func (r *Resolution) Failed() bool {
	return r != nil && r.Error != nil
}

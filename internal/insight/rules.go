package insight

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Rules holds the heuristic vocabulary driving page-insight extraction.
// Keyword lists are matched against folded text (see Fold), so entries
// should be written lowercase without diacritics.
type Rules struct {
	// Institutional triggers an institutional insight (mission/vision
	// vocabulary).
	Institutional []string `yaml:"institutional"`
	// Services triggers a services insight.
	Services []string `yaml:"services"`
	// Complaints triggers a reputation insight from page vocabulary.
	Complaints []string `yaml:"complaints"`
	// ComplaintDomains are complaint-site hosts; anchors to them (and
	// search-result links on them) yield reputation insights.
	ComplaintDomains []string `yaml:"complaint_domains"`
	// SocialDomains maps a network label to its host for social-link
	// discovery.
	SocialDomains map[string]string `yaml:"social_domains"`
	// SocialExcludes drops social anchors whose href contains any of
	// these substrings (directory aggregators, not the company's own
	// profile).
	SocialExcludes []string `yaml:"social_excludes"`
}

// DefaultRules parses the embedded vocabulary.
func DefaultRules() (*Rules, error) {
	return parseRules(defaultRulesYAML)
}

// LoadRules reads a vocabulary file, for deployments that override the
// embedded defaults.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "insight: read rules %s", path)
	}
	return parseRules(data)
}

func parseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, eris.Wrap(err, "insight: parse rules")
	}
	return &r, nil
}

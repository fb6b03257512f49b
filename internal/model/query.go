package model

import "strings"

// Classification describes how a raw query is routed.
type Classification string

const (
	ClassCNPJ    Classification = "cnpj"
	ClassPhone   Classification = "phone"
	ClassKeyword Classification = "keyword"
)

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Classify derives the routing class from a raw query. Exactly 14 digits
// (after stripping separators) is a CNPJ, 10 or 11 digits is a Brazilian
// phone number, anything else is a free-text keyword. The class is always
// derived from the raw string, never stored alongside it.
func Classify(raw string) Classification {
	n := len(Digits(strings.TrimSpace(raw)))
	switch {
	case n == 14:
		return ClassCNPJ
	case n == 10 || n == 11:
		return ClassPhone
	default:
		return ClassKeyword
	}
}

// Package cnpj extracts and normalizes CNPJ identifiers (14-digit
// Brazilian company-registry numbers) from arbitrary text. Pure string
// scanning, no I/O.
package cnpj

// Length is the number of digits in a CNPJ.
const Length = 14

// separatorAt reports whether the conventional formatted CNPJ
// (XX.XXX.XXX/XXXX-XX) places a separator after the given digit count,
// and which rune it is.
func separatorAt(digits int) (byte, bool) {
	switch digits {
	case 2, 5:
		return '.', true
	case 8:
		return '/', true
	case 12:
		return '-', true
	}
	return 0, false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// Normalize strips every non-digit byte from s.
func Normalize(s string) string {
	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			buf = append(buf, s[i])
		}
	}
	return string(buf)
}

// Valid reports whether s normalizes to exactly 14 digits.
func Valid(s string) bool {
	return len(Normalize(s)) == Length
}

// Extract scans text for CNPJ candidates and returns their digit-only
// forms, deduplicated, in first-seen order. A candidate is either a run
// of exactly 14 contiguous digits, or the same 14 digits written with
// the conventional separators at their fixed positions. Longer digit
// runs never match: a 15-digit run is not a CNPJ with a digit glued on.
func Extract(text string) []string {
	var (
		found []string
		seen  map[string]struct{}
	)

	for i := 0; i < len(text); i++ {
		if !isDigit(text[i]) {
			continue
		}
		// A candidate must not be preceded by a digit, or it would be
		// the tail of a longer run.
		if i > 0 && isDigit(text[i-1]) {
			continue
		}

		if m, end := matchAt(text, i); m != "" {
			if seen == nil {
				seen = make(map[string]struct{})
			}
			if _, dup := seen[m]; !dup {
				seen[m] = struct{}{}
				found = append(found, m)
			}
			i = end - 1
			continue
		}

		// Skip past this digit run so its interior is not rescanned.
		for i+1 < len(text) && isDigit(text[i+1]) {
			i++
		}
	}
	return found
}

// matchAt tries to read one CNPJ starting at text[start], either as 14
// bare digits or in the separated form. Returns the normalized match
// and the index one past its end, or "" on no match.
func matchAt(text string, start int) (string, int) {
	// Bare 14-digit run.
	end := start
	for end < len(text) && isDigit(text[end]) {
		end++
	}
	if end-start == Length {
		return text[start:end], end
	}

	// Separated form: digits with the fixed separators interleaved.
	digits := make([]byte, 0, Length)
	i := start
	for i < len(text) && len(digits) < Length {
		switch {
		case isDigit(text[i]):
			digits = append(digits, text[i])
		default:
			sep, ok := separatorAt(len(digits))
			if !ok || text[i] != sep {
				return "", 0
			}
		}
		i++
	}
	if len(digits) != Length {
		return "", 0
	}
	// Reject if the run keeps going: 14 separated digits immediately
	// followed by another digit is a longer number, not a CNPJ.
	if i < len(text) && isDigit(text[i]) {
		return "", 0
	}
	return string(digits), i
}

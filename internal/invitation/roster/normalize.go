package roster

import "strings"

// NormalizeHeader maps an arbitrary CSV column header to a canonical key:
// lowercase, runs of whitespace and hyphens collapse to a single
// underscore, every remaining character outside [a-z0-9_] is stripped.
// Empty input yields the empty string. Pure and total.
func NormalizeHeader(header string) string {
	var b strings.Builder
	b.Grow(len(header))

	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(header)) {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-':
			pendingSep = true
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			// dropped
		}
	}

	return b.String()
}

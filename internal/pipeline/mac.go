package pipeline

import (
	"regexp"
	"strings"
)

var canonicalMACPattern = regexp.MustCompile(`^([0-9a-f]{2}:){5}[0-9a-f]{2}$`)

// CanonicalMAC lowers and trims a MAC address, converts dash separators to
// colons, and inserts colons into a bare 12-character string. It does not
// validate; a shape it cannot repair is returned as-is so the validator can
// flag it with the original value intact.
func CanonicalMAC(mac string) string {
	m := strings.ToLower(strings.TrimSpace(mac))
	m = strings.ReplaceAll(m, "-", ":")
	if !strings.Contains(m, ":") && len(m) == 12 {
		var b strings.Builder
		for i := 0; i < 12; i += 2 {
			if i > 0 {
				b.WriteByte(':')
			}
			b.WriteString(m[i : i+2])
		}
		m = b.String()
	}
	return m
}

// ValidCanonicalMAC reports whether mac is in canonical form: lower-case,
// colon-separated, six groups of two hex digits.
func ValidCanonicalMAC(mac string) bool {
	return canonicalMACPattern.MatchString(mac)
}

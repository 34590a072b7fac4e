package request

import "regexp"

var argbPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}$`)

// NormalizeColor rotates an AARRGGBB value to RRGGBBAA. Every other input,
// including six-digit and malformed values, is returned unchanged.
func NormalizeColor(v string) string {
	if argbPattern.MatchString(v) {
		return v[2:8] + v[0:2]
	}
	return v
}

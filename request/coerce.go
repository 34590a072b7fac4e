package request

import (
	"regexp"
	"strconv"
)

var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// colorKeys pass through NormalizeColor.
var colorKeys = map[string]bool{
	"color": true,
	"bg":    true,
	"fill":  true,
	"glow":  true,
}

// stringKeys are never coerced, even when the value looks numeric ("000000", "123").
var stringKeys = map[string]bool{
	"color":     true,
	"bg":        true,
	"fill":      true,
	"glow":      true,
	"theme":     true,
	"mode":      true,
	"direction": true,
	"font":      true,
	"lang":      true,
	"format":    true,
	"position":  true,
	"text":      true,
	"effect":    true,
	"face":      true,
	"style":     true,
	"tz":        true,
	"date":      true,
}

// Coerce turns a raw query value into a bool, float64 or string for the
// already-normalized key. It never fails: anything unrecognized stays a string.
func Coerce(raw, key string) any {
	if colorKeys[key] {
		return NormalizeColor(raw)
	}
	if stringKeys[key] {
		return raw
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if decimalPattern.MatchString(raw) {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}

// IsStringKey reports whether key is kept as a string by Coerce.
func IsStringKey(key string) bool {
	return stringKeys[key]
}

// IsColorKey reports whether key is normalized by NormalizeColor.
func IsColorKey(key string) bool {
	return colorKeys[key]
}

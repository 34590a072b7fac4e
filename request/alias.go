package request

// aliases maps short query parameter names to their canonical key.
var aliases = map[string]string{
	"t":   "theme",
	"c":   "color",
	"b":   "bg",
	"f":   "fill",
	"g":   "glow",
	"s":   "speed",
	"sz":  "size",
	"sc":  "scale",
	"p":   "position",
	"pad": "padding",
	"dir": "direction",
	"w":   "wakelock",
	"cur": "cursor",
	"l":   "lang",
	"m":   "mode",
	"fnt": "font",
	"e":   "effect",
	"fmt": "format",
}

// CanonicalKey resolves an alias to its canonical parameter name.
// Unknown keys are returned unchanged.
func CanonicalKey(key string) string {
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// Aliases returns a copy of the alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}

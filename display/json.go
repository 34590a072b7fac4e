package display

import (
	"encoding/json"
	"os"
)

// MarshalJSON marshals JSON with pretty formatting for humans and compact
// formatting when MARQUEE_COMPACT_JSON is set (scripts, log shippers).
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv("MARQUEE_COMPACT_JSON") != "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}

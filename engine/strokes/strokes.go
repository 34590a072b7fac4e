// Package strokes encodes drawing board content into URL-safe tokens.
//
// A token is the unpadded base64url form of an lz4 frame holding the strokes
// as JSON. Tokens travel in the request path after /draw/.
package strokes

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/pierrec/lz4"

	"github.com/teranos/marquee/errors"
)

// MaxDecodedSize caps the decompressed size of a token.
const MaxDecodedSize = 1 << 20

// Point is a position in normalized board coordinates (0..1).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Stroke is one continuous pen movement.
type Stroke struct {
	Color  string  `json:"c,omitempty"`
	Width  float64 `json:"w,omitempty"`
	Points []Point `json:"p"`
}

var encoding = base64.RawURLEncoding

// Encode serializes strokes into a token.
func Encode(strokes []Stroke) (string, error) {
	if strokes == nil {
		strokes = []Stroke{}
	}
	data, err := json.Marshal(strokes)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal strokes")
	}

	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", errors.Wrap(err, "failed to compress strokes")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to compress strokes")
	}

	return encoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses a token. Errors are marked as malformed requests.
func Decode(token string) ([]Stroke, error) {
	token = strings.TrimRight(strings.TrimSpace(token), "=")
	if token == "" {
		return nil, errors.WrapMalformed(errors.New("empty token"), "decode draw token")
	}

	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, errors.WrapMalformed(err, "decode draw token")
	}

	reader := lz4.NewReader(bytes.NewReader(raw))
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(reader, MaxDecodedSize+1))
	if err != nil {
		return nil, errors.WrapMalformed(err, "decompress draw token")
	}
	if n > MaxDecodedSize {
		return nil, errors.WrapMalformed(errors.Newf("token expands beyond %d bytes", MaxDecodedSize), "decompress draw token")
	}

	var strokes []Stroke
	if err := json.Unmarshal(buf.Bytes(), &strokes); err != nil {
		return nil, errors.WrapMalformed(err, "unmarshal draw token")
	}
	return strokes, nil
}

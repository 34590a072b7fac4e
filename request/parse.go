// Package request turns a display request path and query string into a
// product, its content payload and a coerced configuration map.
package request

import (
	"net/url"
	"strings"

	"github.com/teranos/marquee/errors"
	"github.com/teranos/marquee/param"
)

// Product is the top-level display mode selected by the first path segment.
type Product string

const (
	ProductText   Product = "text"
	ProductLight  Product = "light"
	ProductSound  Product = "sound"
	ProductTime   Product = "time"
	ProductQR     Product = "qr"
	ProductCamera Product = "camera"
	ProductDraw   Product = "draw"
)

// Products lists every product in a stable order.
var Products = []Product{
	ProductText, ProductLight, ProductSound, ProductTime, ProductQR, ProductCamera, ProductDraw,
}

// Valid reports whether p is a known product.
func (p Product) Valid() bool {
	for _, known := range Products {
		if p == known {
			return true
		}
	}
	return false
}

// Parsed is the product and content a request path selects.
type Parsed struct {
	Product Product `json:"product"`
	// Text is the display string, QR payload or opaque draw-data token.
	Text string `json:"text"`
}

// Parse splits path into product and content and normalizes rawQuery into a
// param.Map. Malformed percent-encoding is the only failure; the returned
// error wraps errors.ErrMalformedRequest.
func Parse(path, rawQuery string) (Parsed, param.Map, error) {
	parsed, err := ParsePath(path)
	if err != nil {
		return Parsed{}, nil, err
	}
	cfg, err := ParseQuery(rawQuery)
	if err != nil {
		return Parsed{}, nil, err
	}
	return parsed, cfg, nil
}

// ParseURL is Parse for a full or relative URL string.
func ParseURL(raw string) (Parsed, param.Map, error) {
	raw, _, _ = strings.Cut(raw, "#")
	path, query, _ := strings.Cut(raw, "?")
	if !strings.HasPrefix(path, "/") {
		if i := strings.Index(path, "://"); i >= 0 {
			// drop scheme and host
			rest := path[i+3:]
			if slash := strings.IndexByte(rest, '/'); slash >= 0 {
				path = rest[slash:]
			} else {
				path = ""
			}
		}
	}
	return Parse(path, query)
}

// ParsePath maps a request path to a product and its content.
//
// The first segment is matched case-insensitively against the product
// keywords. An unrecognized first segment is not an error: the whole decoded
// path becomes the display text of a text product.
func ParsePath(path string) (Parsed, error) {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return Parsed{Product: ProductText}, nil
	}

	head, rest, _ := strings.Cut(path, "/")
	switch Product(strings.ToLower(head)) {
	case ProductLight:
		return Parsed{Product: ProductLight}, nil
	case ProductSound:
		return Parsed{Product: ProductSound}, nil
	case ProductTime:
		return Parsed{Product: ProductTime}, nil
	case ProductCamera:
		return Parsed{Product: ProductCamera}, nil
	case ProductDraw:
		return Parsed{Product: ProductDraw, Text: rest}, nil
	case ProductQR:
		text, err := decode(rest)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Product: ProductQR, Text: text}, nil
	case ProductText:
		text, err := decode(rest)
		if err != nil {
			return Parsed{}, err
		}
		return Parsed{Product: ProductText, Text: text}, nil
	}

	text, err := decode(path)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{Product: ProductText, Text: text}, nil
}

// ParseQuery resolves aliases and coerces every key=value pair. The last
// occurrence of a key wins; keys absent from the query are absent from the map.
func ParseQuery(rawQuery string) (param.Map, error) {
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	cfg := param.Map{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errors.WrapMalformed(err, "failed to decode query key")
		}
		if key == "" {
			continue
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, errors.WrapMalformed(err, "failed to decode query value for "+key)
		}
		key = CanonicalKey(key)
		cfg[key] = Coerce(value, key)
	}
	return cfg, nil
}

func decode(s string) (string, error) {
	out, err := url.PathUnescape(s)
	if err != nil {
		return "", errors.WrapMalformed(err, "failed to decode request path")
	}
	return out, nil
}

package qr

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/skip2/go-qrcode"

	"github.com/teranos/marquee/errors"
)

// Matrix is an encoded QR symbol as an SVG path over a size x size grid.
type Matrix struct {
	Size int
	Path string
}

// Encoder turns payloads into matrices, caching the result per payload and
// recovery level.
type Encoder struct {
	cache *cache.Cache
}

// NewEncoder creates an encoder whose entries live for ttl. A non-positive ttl
// keeps entries until the process exits.
func NewEncoder(ttl time.Duration) *Encoder {
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &Encoder{cache: cache.New(ttl, cleanup)}
}

// Encode returns the matrix for content at the given recovery level
// ("L", "M", "Q" or "H"; anything else is M).
func (e *Encoder) Encode(content, level string) (Matrix, error) {
	lvl, name := recoveryLevel(level)
	key := name + ":" + content
	if x, found := e.cache.Get(key); found {
		return x.(Matrix), nil
	}

	code, err := qrcode.New(content, lvl)
	if err != nil {
		return Matrix{}, errors.Wrap(err, "failed to encode qr payload")
	}
	code.DisableBorder = true
	m := toMatrix(code.Bitmap())

	e.cache.Set(key, m, cache.DefaultExpiration)
	return m, nil
}

// Len returns the number of cached matrices.
func (e *Encoder) Len() int {
	return e.cache.ItemCount()
}

func recoveryLevel(level string) (qrcode.RecoveryLevel, string) {
	switch strings.ToUpper(level) {
	case "L":
		return qrcode.Low, "L"
	case "Q":
		return qrcode.High, "Q"
	case "H":
		return qrcode.Highest, "H"
	default:
		return qrcode.Medium, "M"
	}
}

// toMatrix collapses each row's dark runs into horizontal path segments.
func toMatrix(bitmap [][]bool) Matrix {
	var b strings.Builder
	for y, row := range bitmap {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			b.WriteString("M" + strconv.Itoa(start) + " " + strconv.Itoa(y) +
				"h" + strconv.Itoa(x-start) + "v1h-" + strconv.Itoa(x-start) + "z")
		}
	}
	return Matrix{Size: len(bitmap), Path: b.String()}
}

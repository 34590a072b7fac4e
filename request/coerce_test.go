package request

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ff336699", "336699ff"},
		{"80FFFFFF", "FFFFFF80"},
		{"336699", "336699"},
		{"notacolor", "notacolor"},
		{"ff33669", "ff33669"},
		{"ff3366990", "ff3366990"},
		{"zz336699", "zz336699"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeColor(tt.in))
		})
	}
}

func TestNormalizeColorSixDigitIsIdempotent(t *testing.T) {
	once := NormalizeColor("336699")
	assert.Equal(t, once, NormalizeColor(once))
}

func TestCoerceNumbers(t *testing.T) {
	for _, s := range []string{"0", "5", "1.5", "0.25", "0010", "300.125"} {
		t.Run(s, func(t *testing.T) {
			want, err := strconv.ParseFloat(s, 64)
			assert.NoError(t, err)
			assert.Equal(t, want, Coerce(s, "speed"))
		})
	}
}

func TestCoerceNonNumbers(t *testing.T) {
	// Only unsigned plain decimals become numbers.
	for _, s := range []string{"-1", "1.", ".5", "1e3", "1,5", " 1", "0x10", "abc", ""} {
		t.Run(s, func(t *testing.T) {
			assert.Equal(t, s, Coerce(s, "speed"))
		})
	}
}

func TestCoerceBooleans(t *testing.T) {
	assert.Equal(t, true, Coerce("true", "wakelock"))
	assert.Equal(t, false, Coerce("false", "cursor"))
	assert.Equal(t, "TRUE", Coerce("TRUE", "cursor"))
}

func TestCoerceProtectedKeysStayStrings(t *testing.T) {
	for key := range stringKeys {
		t.Run(key, func(t *testing.T) {
			got := Coerce("123", key)
			assert.IsType(t, "", got)
			assert.Equal(t, "123", got)
			assert.Equal(t, "true", Coerce("true", key))
		})
	}
}

func TestCoerceColorKeysNormalize(t *testing.T) {
	for key := range colorKeys {
		assert.Equal(t, "336699ff", Coerce("ff336699", key), key)
		assert.Equal(t, "000000", Coerce("000000", key), key)
	}
	// theme is protected but not a color key
	assert.Equal(t, "ff336699", Coerce("ff336699", "theme"))
	assert.True(t, IsColorKey("glow"))
	assert.True(t, IsStringKey("lang"))
	assert.False(t, IsStringKey("speed"))
}

package param

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/teranos/marquee/errors"
)

// Decode copies m into out, a pointer to an effect's settings struct.
//
// Fields are matched by their `param` tag. Input is weakly typed, so a number
// arriving for a string field (or "1" for a bool) still lands. Numeric fields
// read strings the way Float does; an unparseable string leaves the field at
// the value out already held. A field tagged `param:",remain"` of type
// map[string]any receives every unrecognized key.
//
//	type neonSettings struct {
//	    Color string         `param:"color"`
//	    Speed float64        `param:"speed"`
//	    Extra map[string]any `param:",remain"`
//	}
func Decode(m Map, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "param",
		WeaklyTypedInput: true,
		DecodeHook:       lenientNumber,
	})
	if err != nil {
		return errors.Wrap(err, "failed to build param decoder")
	}
	if err := dec.Decode(map[string]any(m)); err != nil {
		return errors.Wrap(err, "failed to decode params")
	}
	return nil
}

// lenientNumber converts strings bound for numeric fields.
func lenientNumber(from, to reflect.Value) (any, error) {
	if from.Kind() != reflect.String {
		return from.Interface(), nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return from.Interface(), nil
	}
	f, ok := parseLeadingFloat(from.String())
	if !ok {
		return to.Interface(), nil
	}
	if f < 0 && to.Kind() >= reflect.Uint && to.Kind() <= reflect.Uint64 {
		return to.Interface(), nil
	}
	return f, nil
}

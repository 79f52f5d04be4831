// Package codec holds the CBOR encoding used for opaque property values and
// for the field maps written by the SQLite store. Decoding into an empty
// interface yields int64 for integers, float64 for floats, []byte, string,
// bool, time.Time for tagged times, []any and map[string]any.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{
		Sort:    cbor.SortCanonical,
		Time:    cbor.TimeRFC3339Nano,
		TimeTag: cbor.EncTagRequired,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		IntDec:         cbor.IntDecConvertSigned,
		TimeTagToAny:   cbor.TimeTagToTime,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}

// Marshal encodes v as canonical CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into dst.
func Unmarshal(data []byte, dst any) error {
	return decMode.Unmarshal(data, dst)
}

// Decode decodes data into a generic value.
func Decode(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// EncodeFields encodes a raw field map.
func EncodeFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	return encMode.Marshal(fields)
}

// DecodeFields decodes a raw field map written by EncodeFields.
func DecodeFields(data []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := decMode.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

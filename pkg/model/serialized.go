package model

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/dsmodel/internal/codec"
)

// NewPickled declares an unindexed property holding an arbitrary Go value.
// Values are CBOR-encoded and then stored through the blob pipeline.
// Validation yields the generic decoded form (int64, float64, string,
// []byte, []any, map[string]any, time.Time), which is what reads return.
func NewPickled(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypePickled, attr, false, opts, func(s settings) variant {
		return serializedVariant{
			codec:  blobCodec{compressed: s.compressed},
			encode: codec.Marshal,
			decode: codec.Decode,
		}
	})
}

// NewJSON declares an unindexed property holding a JSON-encodable value.
// Validation yields the decoded JSON form (float64, string, bool, []any,
// map[string]any). A Schema option is kept for callers but not enforced.
func NewJSON(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeJSON, attr, false, opts, func(s settings) variant {
		return serializedVariant{
			codec:  blobCodec{compressed: s.compressed},
			encode: json.Marshal,
			decode: decodeJSON,
		}
	})
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// serializedVariant accepts any value and layers an object encoding on top
// of the blob codec.
type serializedVariant struct {
	passthrough
	codec  blobCodec
	encode func(any) ([]byte, error)
	decode func([]byte) (any, error)
}

// validate returns the value as it will read back: decode(encode(v)).
func (s serializedVariant) validate(v any) (any, error) {
	data, err := s.encode(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	out, err := s.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %T: %w", v, err)
	}
	return out, nil
}

func (s serializedVariant) toBase(v any) (any, error) {
	data, err := s.encode(v)
	if err != nil {
		return nil, fmt.Errorf("encoding: %w", err)
	}
	return s.codec.encode(data)
}

func (s serializedVariant) fromBase(v any) (any, error) {
	raw, err := rawBytes(v)
	if err != nil {
		return nil, err
	}
	data, err := s.codec.decode(raw)
	if err != nil {
		return nil, err
	}
	out, err := s.decode(data)
	if err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	return out, nil
}

func (serializedVariant) fromDB(v any) (any, error) {
	return rawBytes(v)
}

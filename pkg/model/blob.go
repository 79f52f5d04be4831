package model

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"reflect"
	"unicode/utf8"
)

// NewBlob declares a property holding a []byte. With Compressed the stored
// form is zlib-compressed.
func NewBlob(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeBlob, attr, false, opts, func(s settings) variant {
		return blobVariant{codec: blobCodec{compressed: s.compressed}}
	})
}

// NewText declares an unindexed UTF-8 text property. []byte input is
// decoded as UTF-8 on assignment.
func NewText(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeText, attr, false, opts, func(s settings) variant {
		return textVariant{codec: blobCodec{compressed: s.compressed}}
	})
}

// NewString declares an indexed UTF-8 text property.
func NewString(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeString, attr, true, opts, func(s settings) variant {
		return textVariant{codec: blobCodec{compressed: s.compressed}}
	})
}

// blobCodec is the storage stage shared by every blob-family variant.
type blobCodec struct {
	compressed bool
}

func (c blobCodec) encode(b []byte) ([]byte, error) {
	if !c.compressed {
		return append([]byte(nil), b...), nil
	}
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compressing: %w", err)
	}
	return buf.Bytes(), nil
}

func (c blobCodec) decode(b []byte) ([]byte, error) {
	if !c.compressed {
		return append([]byte(nil), b...), nil
	}
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}

// rawBytes accepts the byte forms a store may hand back.
func rawBytes(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	}
	return nil, fmt.Errorf("expected bytes, got %T", v)
}

type blobVariant struct {
	passthrough
	codec blobCodec
}

func (blobVariant) validate(v any) (any, error) {
	if b, ok := v.([]byte); ok {
		return b, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return rv.Bytes(), nil
	}
	return nil, fmt.Errorf("expected a byte slice, got %T", v)
}

func (b blobVariant) toBase(v any) (any, error) {
	raw, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("expected a byte slice, got %T", v)
	}
	return b.codec.encode(raw)
}

func (b blobVariant) fromBase(v any) (any, error) {
	raw, err := rawBytes(v)
	if err != nil {
		return nil, err
	}
	return b.codec.decode(raw)
}

func (blobVariant) fromDB(v any) (any, error) {
	return rawBytes(v)
}

// textVariant keeps text as a string in memory. When compressed the base
// form is the compressed UTF-8 encoding.
type textVariant struct {
	passthrough
	codec blobCodec
}

func decodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("bytes are not valid UTF-8")
	}
	return string(b), nil
}

func (textVariant) validate(v any) (any, error) {
	switch s := v.(type) {
	case string:
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("string is not valid UTF-8")
		}
		return s, nil
	case []byte:
		return decodeUTF8(s)
	}
	return nil, fmt.Errorf("expected text, got %T", v)
}

func (t textVariant) toBase(v any) (any, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		d, err := decodeUTF8(x)
		if err != nil {
			return nil, err
		}
		s = d
	default:
		return nil, fmt.Errorf("expected text, got %T", v)
	}
	if !t.codec.compressed {
		return s, nil
	}
	return t.codec.encode([]byte(s))
}

func (t textVariant) fromBase(v any) (any, error) {
	if !t.codec.compressed {
		switch x := v.(type) {
		case string:
			return x, nil
		case []byte:
			return decodeUTF8(x)
		}
		return nil, fmt.Errorf("expected text, got %T", v)
	}
	raw, err := rawBytes(v)
	if err != nil {
		return nil, err
	}
	plain, err := t.codec.decode(raw)
	if err != nil {
		return nil, err
	}
	return decodeUTF8(plain)
}

// fromDB decodes raw bytes into text. Compressed text stays as bytes until
// fromBase inflates it.
func (t textVariant) fromDB(v any) (any, error) {
	if t.codec.compressed {
		return rawBytes(v)
	}
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return decodeUTF8(x)
	}
	return nil, fmt.Errorf("expected text, got %T", v)
}

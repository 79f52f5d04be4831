package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGenericValues(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "positive int", in: int64(7), want: int64(7)},
		{name: "negative int", in: int64(-7), want: int64(-7)},
		{name: "float", in: 2.5, want: 2.5},
		{name: "string", in: "héllo", want: "héllo"},
		{name: "bytes", in: []byte{0, 1, 2}, want: []byte{0, 1, 2}},
		{name: "bool", in: true, want: true},
		{name: "nil", in: nil, want: nil},
		{name: "list", in: []any{int64(1), "a"}, want: []any{int64(1), "a"}},
		{name: "map", in: map[string]any{"a": int64(1)}, want: map[string]any{"a": int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Marshal(tt.in)
			require.NoError(t, err)
			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTimeKeepsInstant(t *testing.T) {
	ts := time.Date(2024, 3, 9, 12, 30, 45, 123456789, time.UTC)
	data, err := Marshal(ts)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.IsType(t, time.Time{}, got)
	assert.True(t, ts.Equal(got.(time.Time)))
}

func TestFieldsRoundTrip(t *testing.T) {
	fields := map[string]any{
		"age":  int64(30),
		"name": "Ada",
		"blob": []byte("raw"),
		"gone": nil,
	}
	data, err := EncodeFields(fields)
	require.NoError(t, err)

	got, err := DecodeFields(data)
	require.NoError(t, err)
	assert.Equal(t, fields, got)

	empty, err := DecodeFields(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

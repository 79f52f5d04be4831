package model

import (
	"fmt"
	"math"
	"reflect"
)

// NewBoolean declares a property holding a bool.
func NewBoolean(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeBoolean, attr, true, opts, func(settings) variant { return booleanVariant{} })
}

// NewInteger declares a property holding an int64. Any Go integer is
// accepted on assignment.
func NewInteger(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeInteger, attr, true, opts, func(settings) variant { return integerVariant{} })
}

// NewFloat declares a property holding a float64. Go integers and floats
// are accepted on assignment.
func NewFloat(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeFloat, attr, true, opts, func(settings) variant { return floatVariant{} })
}

type booleanVariant struct{ passthrough }

func (booleanVariant) validate(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Bool {
		return nil, fmt.Errorf("expected a boolean, got %T", v)
	}
	return rv.Bool(), nil
}

type integerVariant struct{ passthrough }

func (integerVariant) validate(v any) (any, error) {
	return toInt64(v)
}

func (integerVariant) toBase(v any) (any, error) {
	return toInt64(v)
}

func (integerVariant) fromDB(v any) (any, error) {
	if n, err := toInt64(v); err == nil {
		return n, nil
	}
	return v, nil
}

type floatVariant struct{ passthrough }

func (floatVariant) validate(v any) (any, error) {
	return toFloat64(v)
}

func (floatVariant) toBase(v any) (any, error) {
	return toFloat64(v)
}

func (floatVariant) fromDB(v any) (any, error) {
	if f, err := toFloat64(v); err == nil {
		return f, nil
	}
	return v, nil
}

func toInt64(v any) (int64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", u)
		}
		return int64(u), nil
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toFloat64(v any) (float64, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), nil
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}

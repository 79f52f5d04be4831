package model

import (
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// Type enumerates the property variants.
type Type int

// Property variants.
const (
	TypeBoolean Type = iota + 1
	TypeInteger
	TypeFloat
	TypeBlob
	TypeText
	TypeString
	TypePickled
	TypeJSON
	TypeDateTime
	TypeDate
	TypeTime
)

var typeNames = map[Type]string{
	TypeBoolean:  "boolean",
	TypeInteger:  "integer",
	TypeFloat:    "float",
	TypeBlob:     "blob",
	TypeText:     "text",
	TypeString:   "string",
	TypePickled:  "pickled",
	TypeJSON:     "json",
	TypeDateTime: "datetime",
	TypeDate:     "date",
	TypeTime:     "time",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// blobFamily reports whether the variant stores through the blob codec.
func (t Type) blobFamily() bool {
	switch t {
	case TypeBlob, TypeText, TypeString, TypePickled, TypeJSON:
		return true
	}
	return false
}

// dateTimeFamily reports whether the variant supports auto-stamping.
func (t Type) dateTimeFamily() bool {
	return t == TypeDateTime || t == TypeDate || t == TypeTime
}

// variant is the per-type half of the pipeline. The shared half (nil
// short-circuit, required, choices, repeated values, custom validator) lives
// on Property.
type variant interface {
	validate(v any) (any, error)
	toBase(v any) (any, error)
	fromBase(v any) (any, error)
	fromDB(v any) (any, error)
	prepareForPut(p *Property, inst *Instance) error
}

// passthrough supplies identity conversions and a no-op put hook.
type passthrough struct{}

func (passthrough) toBase(v any) (any, error) { return v, nil }
func (passthrough) fromBase(v any) (any, error) { return v, nil }
func (passthrough) fromDB(v any) (any, error) { return v, nil }
func (passthrough) prepareForPut(*Property, *Instance) error { return nil }

// Property describes one field of a model kind: how values are validated,
// converted to and from their stored form, and prepared before a put.
// Properties are immutable once constructed and belong to at most one kind.
type Property struct {
	typ  Type
	attr string
	s    settings
	v    variant

	owner atomic.Pointer[Kind]
}

func newProperty(typ Type, attr string, indexedByDefault bool, opts []Option, build func(settings) variant) (*Property, error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if attr == "" {
		return nil, fmt.Errorf("%w: %s property needs an attribute name", types.ErrConfig, typ)
	}
	if s.name == "" {
		s.name = attr
	}
	if s.indexed == nil {
		s.indexed = &indexedByDefault
	}

	p := &Property{typ: typ, attr: attr, s: s}
	if err := p.checkOptions(); err != nil {
		return nil, err
	}
	p.v = build(s)

	for i, c := range s.choices {
		cv, err := p.v.validate(c)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q choice %v: %w", types.ErrConfig, attr, c, err)
		}
		p.s.choices[i] = cv
	}
	if s.hasDefault {
		dv, err := p.Validate(s.def)
		if err != nil {
			return nil, fmt.Errorf("%w: property %q default: %w", types.ErrConfig, attr, err)
		}
		p.s.def = dv
	}
	return p, nil
}

func (p *Property) checkOptions() error {
	s := p.s
	switch {
	case s.compressed && !p.typ.blobFamily():
		return p.configErr("compressed does not apply")
	case s.compressed && *s.indexed:
		return p.configErr("cannot be compressed and indexed at the same time")
	case (s.autoNow || s.autoNowAdd) && !p.typ.dateTimeFamily():
		return p.configErr("auto_now and auto_now_add do not apply")
	case (s.autoNow || s.autoNowAdd) && s.repeated:
		return p.configErr("auto_now and auto_now_add cannot be combined with repeated")
	case s.schema != nil && p.typ != TypeJSON:
		return p.configErr("schema does not apply")
	}
	return nil
}

func (p *Property) configErr(msg string) error {
	return fmt.Errorf("%w: %s property %q: %s", types.ErrConfig, p.typ, p.attr, msg)
}

// Must returns p or panics when err is non-nil. It is meant for property
// declarations evaluated at startup.
func Must(p *Property, err error) *Property {
	if err != nil {
		panic(err)
	}
	return p
}

// Type returns the property variant.
func (p *Property) Type() Type { return p.typ }

// Attr returns the attribute name the property is accessed by.
func (p *Property) Attr() string { return p.attr }

// Name returns the storage name.
func (p *Property) Name() string { return p.s.name }

func (p *Property) Indexed() bool { return *p.s.indexed }
func (p *Property) Repeated() bool { return p.s.repeated }
func (p *Property) Required() bool { return p.s.required }

// Default returns the validated default value and whether one was declared.
func (p *Property) Default() (any, bool) { return p.s.def, p.s.hasDefault }

// Choices returns a copy of the canonical choice set.
func (p *Property) Choices() []any { return append([]any(nil), p.s.choices...) }

func (p *Property) Compressed() bool { return p.s.compressed }
func (p *Property) AutoNow() bool { return p.s.autoNow }
func (p *Property) AutoNowAdd() bool { return p.s.autoNowAdd }

// Schema returns the informational schema of a JSON property.
func (p *Property) Schema() any { return p.s.schema }

// Kind returns the kind the property is registered on, or nil.
func (p *Property) Kind() *Kind { return p.owner.Load() }

// Validate checks v and returns its canonical form. Choice membership is
// tested after type validation, and the custom validator runs last with the
// final say. Failures wrap types.ErrValidation.
func (p *Property) Validate(v any) (any, error) {
	if p.s.repeated {
		return p.validateRepeated(v)
	}
	if v == nil {
		if p.s.required {
			return nil, p.invalid(fmt.Errorf("value is required"))
		}
		return nil, nil
	}
	return p.validateOne(v)
}

func (p *Property) validateRepeated(v any) (any, error) {
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() == reflect.Slice && rv.IsNil()) {
		if p.s.required {
			return nil, p.invalid(fmt.Errorf("value is required"))
		}
		return nil, nil
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, p.invalid(fmt.Errorf("repeated property needs a slice, got %T", v))
	}
	if rv.Len() == 0 && p.s.required {
		return nil, p.invalid(fmt.Errorf("value is required"))
	}
	out := make([]any, rv.Len())
	for i := range out {
		e := rv.Index(i).Interface()
		if e == nil {
			return nil, p.invalid(fmt.Errorf("element %d is nil", i))
		}
		ev, err := p.validateOne(e)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if ev == nil {
			return nil, p.invalid(fmt.Errorf("element %d is nil", i))
		}
		out[i] = ev
	}
	return out, nil
}

func (p *Property) validateOne(v any) (any, error) {
	out, err := p.v.validate(v)
	if err != nil {
		return nil, p.invalid(err)
	}
	if len(p.s.choices) > 0 && !containsValue(p.s.choices, out) {
		return nil, p.invalid(fmt.Errorf("%v is not one of the allowed choices", out))
	}
	if p.s.validator != nil {
		out, err = p.s.validator(p, out)
		if err != nil {
			return nil, p.invalid(err)
		}
		if out == nil && p.s.required {
			return nil, p.invalid(fmt.Errorf("value is required"))
		}
	}
	return out, nil
}

func (p *Property) invalid(err error) error {
	return fmt.Errorf("property %q: %w: %w", p.attr, types.ErrValidation, err)
}

// ToBase converts an application value into the representation stored on
// the instance.
func (p *Property) ToBase(v any) (any, error) {
	return p.convert(v, "to base", p.v.toBase)
}

// FromBase converts a stored representation back into an application value.
func (p *Property) FromBase(v any) (any, error) {
	return p.convert(v, "from base", p.v.fromBase)
}

// FromDB decodes a raw value freshly fetched from the store into the base
// representation.
func (p *Property) FromDB(v any) (any, error) {
	return p.convert(v, "from db", p.v.fromDB)
}

// PrepareForPut runs the pre-persistence hook against inst.
func (p *Property) PrepareForPut(inst *Instance) error {
	return p.v.prepareForPut(p, inst)
}

func (p *Property) convert(v any, stage string, fn func(any) (any, error)) (any, error) {
	if v == nil {
		return nil, nil
	}
	if !p.s.repeated {
		out, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("property %q %s: %w", p.attr, stage, err)
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("property %q %s: repeated value is %T, not a slice", p.attr, stage, v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		e := rv.Index(i).Interface()
		if e == nil {
			continue
		}
		ev, err := fn(e)
		if err != nil {
			return nil, fmt.Errorf("property %q %s: element %d: %w", p.attr, stage, i, err)
		}
		out[i] = ev
	}
	return out, nil
}

func containsValue(set []any, v any) bool {
	for _, c := range set {
		if equalValues(c, v) {
			return true
		}
	}
	return false
}

func equalValues(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

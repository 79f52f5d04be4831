package model

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// epochDay is the date a Time property value is widened onto.
var epochDay = civil.Date{Year: 1970, Month: time.January, Day: 1}

// NewDateTime declares a property holding a time.Time. AutoNow and
// AutoNowAdd stamp the registry clock on put.
func NewDateTime(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeDateTime, attr, true, opts, func(settings) variant {
		return dateTimeVariant{now: func(t time.Time) any { return t }}
	})
}

// NewDate declares a property holding a civil.Date. A time.Time assigned to
// it is narrowed to its date. The stored form is midnight UTC of that day.
func NewDate(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeDate, attr, true, opts, func(settings) variant {
		return dateVariant{dateTimeVariant{now: func(t time.Time) any { return civil.DateOf(t) }}}
	})
}

// NewTime declares a property holding a civil.Time. The stored form is that
// time of day on 1970-01-01 UTC.
func NewTime(attr string, opts ...Option) (*Property, error) {
	return newProperty(TypeTime, attr, true, opts, func(settings) variant {
		return timeVariant{dateTimeVariant{now: func(t time.Time) any { return civil.TimeOf(t) }}}
	})
}

// dateTimeVariant holds the stamping hook shared by the date-time family.
// now maps the registry clock reading to the variant's application value.
type dateTimeVariant struct {
	passthrough
	now func(time.Time) any
}

func (dateTimeVariant) validate(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("expected a time.Time, got %T", v)
	}
	return t, nil
}

func (d dateTimeVariant) prepareForPut(p *Property, inst *Instance) error {
	empty := inst.values[p.Name()] == nil
	if !p.s.autoNow && !(p.s.autoNowAdd && empty) {
		return nil
	}
	return inst.assign(p, d.now(inst.kind.reg.now()))
}

type dateVariant struct{ dateTimeVariant }

func (dateVariant) validate(v any) (any, error) {
	switch d := v.(type) {
	case civil.Date:
		if !d.IsValid() {
			return nil, fmt.Errorf("invalid date %s", d)
		}
		return d, nil
	case time.Time:
		return civil.DateOf(d), nil
	}
	return nil, fmt.Errorf("expected a civil.Date, got %T", v)
}

func (dateVariant) toBase(v any) (any, error) {
	d, ok := v.(civil.Date)
	if !ok {
		return nil, fmt.Errorf("expected a civil.Date, got %T", v)
	}
	return d.In(time.UTC), nil
}

func (dateVariant) fromBase(v any) (any, error) {
	switch x := v.(type) {
	case civil.Date:
		return x, nil
	case time.Time:
		return civil.DateOf(x.UTC()), nil
	}
	return nil, fmt.Errorf("expected a stored date, got %T", v)
}

type timeVariant struct{ dateTimeVariant }

func (timeVariant) validate(v any) (any, error) {
	switch t := v.(type) {
	case civil.Time:
		if !t.IsValid() {
			return nil, fmt.Errorf("invalid time of day %s", t)
		}
		return t, nil
	case time.Time:
		return civil.TimeOf(t), nil
	}
	return nil, fmt.Errorf("expected a civil.Time, got %T", v)
}

func (timeVariant) toBase(v any) (any, error) {
	t, ok := v.(civil.Time)
	if !ok {
		return nil, fmt.Errorf("expected a civil.Time, got %T", v)
	}
	return civil.DateTime{Date: epochDay, Time: t}.In(time.UTC), nil
}

func (timeVariant) fromBase(v any) (any, error) {
	switch x := v.(type) {
	case civil.Time:
		return x, nil
	case time.Time:
		return civil.TimeOf(x.UTC()), nil
	}
	return nil, fmt.Errorf("expected a stored time of day, got %T", v)
}

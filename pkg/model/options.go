package model

// ValidatorFunc is a custom validator run after type validation. The value
// it returns replaces the input; a non-nil error rejects the assignment.
type ValidatorFunc func(p *Property, v any) (any, error)

// Option configures a property at construction.
type Option func(*settings)

// settings carries every property attribute; variants read the subset that
// applies to them and reject the rest at construction.
type settings struct {
	name       string
	indexed    *bool
	repeated   bool
	required   bool
	def        any
	hasDefault bool
	choices    []any
	validator  ValidatorFunc

	compressed bool
	autoNow    bool
	autoNowAdd bool
	schema     any
}

// StoredAs sets the storage name. It defaults to the attribute name.
func StoredAs(name string) Option {
	return func(s *settings) { s.name = name }
}

// Indexed overrides the variant's default indexed flag.
func Indexed(indexed bool) Option {
	return func(s *settings) { s.indexed = &indexed }
}

// Repeated makes the property hold a list of values.
func Repeated() Option {
	return func(s *settings) { s.repeated = true }
}

// Required rejects absent values.
func Required() Option {
	return func(s *settings) { s.required = true }
}

// Default sets the value applied when an instance is constructed without one.
func Default(v any) Option {
	return func(s *settings) {
		s.def = v
		s.hasDefault = true
	}
}

// Choices restricts values to the given set.
func Choices(values ...any) Option {
	return func(s *settings) { s.choices = append(s.choices, values...) }
}

// Validator installs a custom validator.
func Validator(fn ValidatorFunc) Option {
	return func(s *settings) { s.validator = fn }
}

// Compressed stores the value zlib-compressed. Blob family only; the
// property must not be indexed.
func Compressed() Option {
	return func(s *settings) { s.compressed = true }
}

// AutoNow stamps the current time on every put. Date-time family only.
func AutoNow() Option {
	return func(s *settings) { s.autoNow = true }
}

// AutoNowAdd stamps the current time on put when the value is empty.
// Date-time family only.
func AutoNowAdd() Option {
	return func(s *settings) { s.autoNowAdd = true }
}

// Schema attaches an informational schema to a JSON property. It is not
// used for validation.
func Schema(schema any) Option {
	return func(s *settings) { s.schema = schema }
}

package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PathElement is one (kind, identifier) segment of a Key path. A complete
// segment carries exactly one of ID or Name. A segment with neither is
// incomplete and may only appear last.
type PathElement struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Complete reports whether the segment has an identifier.
func (e PathElement) Complete() bool {
	return e.ID != 0 || e.Name != ""
}

// Identifier returns the segment identifier as int64 or string, or nil when
// the segment is incomplete.
func (e PathElement) Identifier() any {
	switch {
	case e.Name != "":
		return e.Name
	case e.ID != 0:
		return e.ID
	default:
		return nil
	}
}

// Pair is a (kind, identifier) tuple accepted by KeyFromPairs. ID must be a
// Go integer or a string.
type Pair struct {
	Kind string
	ID   any
}

// Key identifies a stored entity by its ancestor path. Keys are immutable;
// the With* and In* methods return copies.
type Key struct {
	path      []PathElement
	dataset   string
	namespace string
}

// KeyOption sets a whole-key attribute at construction.
type KeyOption func(*Key)

// WithDataset binds the key to a dataset (application) identifier.
func WithDataset(dataset string) KeyOption {
	return func(k *Key) { k.dataset = dataset }
}

// WithNamespace binds the key to a namespace.
func WithNamespace(namespace string) KeyOption {
	return func(k *Key) { k.namespace = namespace }
}

// NewKey builds a key from a flattened kind, identifier, kind, identifier
// sequence. Odd or empty sequences fail with ErrMalformedKey.
func NewKey(flat ...any) (*Key, error) {
	if len(flat) == 0 || len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: flat path needs kind/identifier pairs, got %d values", ErrMalformedKey, len(flat))
	}
	pairs := make([]Pair, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		kind, ok := flat[i].(string)
		if !ok {
			return nil, fmt.Errorf("%w: kind at position %d is %T, not string", ErrMalformedKey, i, flat[i])
		}
		pairs = append(pairs, Pair{Kind: kind, ID: flat[i+1]})
	}
	return KeyFromPairs(pairs)
}

// KeyFromPairs builds a key from an ordered list of (kind, identifier) pairs.
func KeyFromPairs(pairs []Pair, opts ...KeyOption) (*Key, error) {
	path := make([]PathElement, 0, len(pairs))
	for _, p := range pairs {
		id, name, err := classifyIdentifier(p.ID)
		if err != nil {
			return nil, fmt.Errorf("kind %q: %w", p.Kind, err)
		}
		path = append(path, PathElement{Kind: p.Kind, ID: id, Name: name})
	}
	return KeyFromPath(path, opts...)
}

// KeyFromPath builds a key from pre-built path segments. The slice is copied.
func KeyFromPath(path []PathElement, opts ...KeyOption) (*Key, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}
	k := &Key{path: append([]PathElement(nil), path...)}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// NewIncompleteKey builds a key for kind whose identifier is not yet known.
// The parent, when non-nil, must be complete; its dataset and namespace are
// inherited before opts are applied.
func NewIncompleteKey(kind string, parent *Key, opts ...KeyOption) (*Key, error) {
	var path []PathElement
	var inherit []KeyOption
	if parent != nil {
		if !parent.Complete() {
			return nil, fmt.Errorf("parent %s: %w", parent, ErrIncompleteKey)
		}
		path = append(path, parent.path...)
		inherit = append(inherit, WithDataset(parent.dataset), WithNamespace(parent.namespace))
	}
	path = append(path, PathElement{Kind: kind})
	return KeyFromPath(path, append(inherit, opts...)...)
}

// DecodeKey would parse a portable encoded key. Portable encodings belong
// to the storage client and are not handled here.
func DecodeKey(encoded string) (*Key, error) {
	return nil, fmt.Errorf("decoding portable key %q: %w", encoded, ErrNotSupported)
}

// classifyIdentifier maps Go integers to numeric IDs and strings to names.
func classifyIdentifier(v any) (int64, string, error) {
	var n int64
	switch id := v.(type) {
	case string:
		if id == "" {
			return 0, "", fmt.Errorf("%w: empty name", ErrInvalidIdentifier)
		}
		return 0, id, nil
	case int:
		n = int64(id)
	case int8:
		n = int64(id)
	case int16:
		n = int64(id)
	case int32:
		n = int64(id)
	case int64:
		n = id
	case uint:
		if uint64(id) > math.MaxInt64 {
			return 0, "", fmt.Errorf("%w: %d overflows int64", ErrInvalidIdentifier, id)
		}
		n = int64(id)
	case uint8:
		n = int64(id)
	case uint16:
		n = int64(id)
	case uint32:
		n = int64(id)
	case uint64:
		if id > math.MaxInt64 {
			return 0, "", fmt.Errorf("%w: %d overflows int64", ErrInvalidIdentifier, id)
		}
		n = int64(id)
	default:
		return 0, "", fmt.Errorf("%w: got %T", ErrInvalidIdentifier, v)
	}
	if n <= 0 {
		return 0, "", fmt.Errorf("%w: got %d", ErrInvalidIdentifier, n)
	}
	return n, "", nil
}

func validatePath(path []PathElement) error {
	if len(path) == 0 {
		return fmt.Errorf("%w: empty path", ErrMalformedKey)
	}
	for i, e := range path {
		if e.Kind == "" {
			return fmt.Errorf("%w: empty kind at segment %d", ErrMalformedKey, i)
		}
		if e.ID < 0 {
			return fmt.Errorf("segment %d: %w: got %d", i, ErrInvalidIdentifier, e.ID)
		}
		if e.ID != 0 && e.Name != "" {
			return fmt.Errorf("segment %d: %w: both id and name set", i, ErrInvalidIdentifier)
		}
		if !e.Complete() && i != len(path)-1 {
			return fmt.Errorf("%w: incomplete ancestor at segment %d", ErrMalformedKey, i)
		}
	}
	return nil
}

// WithID returns a copy of k whose final segment identifier is replaced by
// id. Used once a generated identifier becomes known.
func (k *Key) WithID(id any) (*Key, error) {
	n, name, err := classifyIdentifier(id)
	if err != nil {
		return nil, err
	}
	c := k.clone()
	last := &c.path[len(c.path)-1]
	last.ID, last.Name = n, name
	return c, nil
}

// InDataset returns a copy of k bound to dataset.
func (k *Key) InDataset(dataset string) *Key {
	c := k.clone()
	c.dataset = dataset
	return c
}

// InNamespace returns a copy of k bound to namespace.
func (k *Key) InNamespace(namespace string) *Key {
	c := k.clone()
	c.namespace = namespace
	return c
}

func (k *Key) clone() *Key {
	return &Key{
		path:      append([]PathElement(nil), k.path...),
		dataset:   k.dataset,
		namespace: k.namespace,
	}
}

func (k *Key) last() PathElement { return k.path[len(k.path)-1] }

// Kind returns the kind of the final segment.
func (k *Key) Kind() string { return k.last().Kind }

// ID returns the numeric identifier of the final segment, or 0.
func (k *Key) ID() int64 { return k.last().ID }

// Name returns the string identifier of the final segment, or "".
func (k *Key) Name() string { return k.last().Name }

// Identifier returns the final identifier as int64 or string, nil if incomplete.
func (k *Key) Identifier() any { return k.last().Identifier() }

// Complete reports whether the final segment has an identifier.
func (k *Key) Complete() bool { return k.last().Complete() }

// Dataset returns the dataset the key is bound to.
func (k *Key) Dataset() string { return k.dataset }

// Namespace returns the namespace the key is bound to.
func (k *Key) Namespace() string { return k.namespace }

// Path returns a copy of the key path.
func (k *Key) Path() []PathElement {
	return append([]PathElement(nil), k.path...)
}

// Parent returns the key of the parent segment, or nil for a root key.
func (k *Key) Parent() *Key {
	if len(k.path) < 2 {
		return nil
	}
	return &Key{
		path:      append([]PathElement(nil), k.path[:len(k.path)-1]...),
		dataset:   k.dataset,
		namespace: k.namespace,
	}
}

// Equal reports whether two keys have the same path, dataset and namespace.
func (k *Key) Equal(o *Key) bool {
	if k == nil || o == nil {
		return k == o
	}
	if k.dataset != o.dataset || k.namespace != o.namespace || len(k.path) != len(o.path) {
		return false
	}
	for i := range k.path {
		if k.path[i] != o.path[i] {
			return false
		}
	}
	return true
}

// String renders the path as /Kind,id/Kind,"name". Incomplete segments
// render as /Kind,?.
func (k *Key) String() string {
	if k == nil {
		return "<nil>"
	}
	var b strings.Builder
	for _, e := range k.path {
		b.WriteByte('/')
		b.WriteString(e.Kind)
		b.WriteByte(',')
		switch {
		case e.Name != "":
			b.WriteString(strconv.Quote(e.Name))
		case e.ID != 0:
			b.WriteString(strconv.FormatInt(e.ID, 10))
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

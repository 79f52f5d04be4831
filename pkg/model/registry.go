package model

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// Registry maps kind names to their schemas and binds them to a store and a
// dataset. Register every kind before serving reads; lookups are safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]*Kind

	store     types.Store
	dataset   string
	namespace string
	log       zerolog.Logger
	clock     func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDataset sets the dataset new keys are bound to.
func WithDataset(dataset string) RegistryOption {
	return func(r *Registry) { r.dataset = dataset }
}

// WithNamespace sets the namespace new keys are bound to.
func WithNamespace(namespace string) RegistryOption {
	return func(r *Registry) { r.namespace = namespace }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) RegistryOption {
	return func(r *Registry) { r.log = log }
}

// WithClock replaces the clock used by AutoNow and AutoNowAdd.
func WithClock(clock func() time.Time) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// NewRegistry creates an empty registry over store. A nil store is allowed
// for registries that only convert entities; fetches and puts then fail with
// types.ErrNotAttached.
func NewRegistry(store types.Store, opts ...RegistryOption) *Registry {
	r := &Registry{
		kinds: make(map[string]*Kind),
		store: store,
		log:   zerolog.Nop(),
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) now() time.Time { return r.clock() }

// Dataset returns the dataset new keys are bound to.
func (r *Registry) Dataset() string { return r.dataset }

// Namespace returns the namespace new keys are bound to.
func (r *Registry) Namespace() string { return r.namespace }

func (r *Registry) keyOptions() []types.KeyOption {
	return []types.KeyOption{types.WithDataset(r.dataset), types.WithNamespace(r.namespace)}
}

// Register declares kind with the given properties, in schema order.
// Registering the same kind again with the same property list returns the
// existing Kind. A different list under a taken kind name fails with
// types.ErrDuplicateKind.
func (r *Registry) Register(kind string, props ...*Property) (*Kind, error) {
	if kind == "" {
		return nil, fmt.Errorf("%w: kind name is empty", types.ErrConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.kinds[kind]; ok {
		if sameProperties(existing.props, props) {
			return existing, nil
		}
		return nil, fmt.Errorf("%w: %w: kind %q", types.ErrConfig, types.ErrDuplicateKind, kind)
	}

	k := &Kind{
		name:   kind,
		reg:    r,
		props:  append([]*Property(nil), props...),
		byAttr: make(map[string]*Property, len(props)),
	}
	byName := make(map[string]bool, len(props))
	for _, p := range props {
		if p == nil {
			return nil, fmt.Errorf("%w: kind %q has a nil property", types.ErrConfig, kind)
		}
		if _, dup := k.byAttr[p.Attr()]; dup {
			return nil, fmt.Errorf("%w: kind %q declares attribute %q twice", types.ErrConfig, kind, p.Attr())
		}
		if byName[p.Name()] {
			return nil, fmt.Errorf("%w: kind %q declares storage name %q twice", types.ErrConfig, kind, p.Name())
		}
		k.byAttr[p.Attr()] = p
		byName[p.Name()] = true
	}

	for i, p := range k.props {
		if !p.owner.CompareAndSwap(nil, k) {
			for _, q := range k.props[:i] {
				q.owner.CompareAndSwap(k, nil)
			}
			return nil, fmt.Errorf("%w: property %q already belongs to kind %q", types.ErrConfig, p.Attr(), p.Kind().Name())
		}
	}

	r.kinds[kind] = k
	r.log.Debug().Str("kind", kind).Int("properties", len(props)).Msg("registered kind")
	return k, nil
}

func sameProperties(a, b []*Property) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Lookup returns the registered kind, or types.ErrUnknownKind.
func (r *Registry) Lookup(kind string) (*Kind, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
	return k, nil
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromEntity converts a raw entity into an instance of its registered kind.
func (r *Registry) FromEntity(e *types.Entity) (*Instance, error) {
	if e == nil || e.Key == nil {
		return nil, fmt.Errorf("%w: entity has no key", types.ErrMalformedKey)
	}
	k, err := r.Lookup(e.Key.Kind())
	if err != nil {
		return nil, err
	}
	return k.FromEntity(e)
}

// GetMulti fetches keys of any registered kinds. The result has one slot per
// key in input order; a nil slot means the store had no entity. An entity of
// an unregistered kind fails the whole call with types.ErrUnknownKind.
func (r *Registry) GetMulti(keys []*types.Key) ([]*Instance, error) {
	ents, err := r.fetch(keys)
	if err != nil {
		return nil, err
	}
	out := make([]*Instance, len(ents))
	for i, e := range ents {
		if e == nil {
			continue
		}
		inst, err := r.FromEntity(e)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", keys[i], err)
		}
		out[i] = inst
	}
	return out, nil
}

func (r *Registry) fetch(keys []*types.Key) ([]*types.Entity, error) {
	if r.store == nil {
		return nil, types.ErrNotAttached
	}
	ents, err := r.store.FetchEntities(keys)
	if err != nil {
		return nil, fmt.Errorf("fetching %d keys: %w", len(keys), err)
	}
	if len(ents) != len(keys) {
		return nil, fmt.Errorf("fetching %d keys: store returned %d results", len(keys), len(ents))
	}
	r.log.Debug().Int("keys", len(keys)).Msg("fetched entities")
	return ents, nil
}

// Kind is a registered model type: a kind name and its fixed schema.
type Kind struct {
	name   string
	reg    *Registry
	props  []*Property
	byAttr map[string]*Property
}

// Name returns the kind name.
func (k *Kind) Name() string { return k.name }

// Registry returns the registry the kind belongs to.
func (k *Kind) Registry() *Registry { return k.reg }

// Properties returns the schema in declaration order.
func (k *Kind) Properties() []*Property {
	return append([]*Property(nil), k.props...)
}

// Property returns the property declared under attr.
func (k *Kind) Property(attr string) (*Property, bool) {
	p, ok := k.byAttr[attr]
	return p, ok
}

func (k *Kind) property(attr string) (*Property, error) {
	p, ok := k.byAttr[attr]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", types.ErrUnknownProperty, k.name, attr)
	}
	return p, nil
}

// Key builds a complete key for id under the registry's dataset and
// namespace.
func (k *Kind) Key(id any) (*types.Key, error) {
	return types.KeyFromPairs([]types.Pair{{Kind: k.name, ID: id}}, k.reg.keyOptions()...)
}

// New constructs an instance. A nil id leaves the key incomplete so the
// store allocates one on put. Defaults are applied first, then fields are
// assigned through the normal set path; a required property left unset
// fails with types.ErrValidation.
func (k *Kind) New(id any, fields map[string]any) (*Instance, error) {
	var key *types.Key
	var err error
	if id == nil {
		key, err = types.NewIncompleteKey(k.name, nil, k.reg.keyOptions()...)
	} else {
		key, err = k.Key(id)
	}
	if err != nil {
		return nil, err
	}

	for attr := range fields {
		if _, err := k.property(attr); err != nil {
			return nil, err
		}
	}

	inst := newInstance(k, key)
	for _, p := range k.props {
		v, given := fields[p.Attr()]
		if !given {
			def, ok := p.Default()
			if !ok {
				if _, err := p.Validate(nil); err != nil {
					return nil, err
				}
				continue
			}
			v = def
		}
		if err := inst.assign(p, v); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// FromEntity rebuilds an instance from a raw entity of this kind. Every
// schema field is decoded with FromDB; absent fields come back nil.
func (k *Kind) FromEntity(e *types.Entity) (*Instance, error) {
	if e == nil || e.Key == nil {
		return nil, fmt.Errorf("%w: entity has no key", types.ErrMalformedKey)
	}
	if e.Key.Kind() != k.name {
		return nil, fmt.Errorf("%w: entity is %q, model is %q", types.ErrKindMismatch, e.Key.Kind(), k.name)
	}
	inst := newInstance(k, e.Key)
	for _, p := range k.props {
		v, err := p.FromDB(e.Fields[p.Name()])
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", k.name, e.Key, err)
		}
		inst.values[p.Name()] = v
	}
	return inst, nil
}

// GetByID fetches one instance. It returns nil and no error when the store
// holds no entity for id.
func (k *Kind) GetByID(id any) (*Instance, error) {
	insts, err := k.GetMulti([]any{id})
	if err != nil {
		return nil, err
	}
	return insts[0], nil
}

// GetMulti fetches instances by identifier, preserving input order. Absent
// entities leave nil slots.
func (k *Kind) GetMulti(ids []any) ([]*Instance, error) {
	keys := make([]*types.Key, len(ids))
	for i, id := range ids {
		key, err := k.Key(id)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	ents, err := k.reg.fetch(keys)
	if err != nil {
		return nil, err
	}
	out := make([]*Instance, len(ents))
	for i, e := range ents {
		if e == nil {
			continue
		}
		if out[i], err = k.FromEntity(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

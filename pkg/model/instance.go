package model

import (
	"fmt"
	"maps"
	"strings"

	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// Instance is one record of a registered kind. It holds the base form of
// each field keyed by storage name; Get and Set convert through the
// property pipeline. An Instance is not safe for concurrent mutation.
type Instance struct {
	kind   *Kind
	key    *types.Key
	values map[string]any
}

func newInstance(k *Kind, key *types.Key) *Instance {
	return &Instance{kind: k, key: key, values: make(map[string]any, len(k.props))}
}

func (i *Instance) Kind() *Kind { return i.kind }
func (i *Instance) Key() *types.Key { return i.key }

// SetKey replaces the instance key. The key kind must match.
func (i *Instance) SetKey(key *types.Key) error {
	if key == nil {
		return fmt.Errorf("%w: nil key", types.ErrMalformedKey)
	}
	if key.Kind() != i.kind.name {
		return fmt.Errorf("%w: key is %q, model is %q", types.ErrKindMismatch, key.Kind(), i.kind.name)
	}
	i.key = key
	return nil
}

// Get returns the application value of attr.
func (i *Instance) Get(attr string) (any, error) {
	p, err := i.kind.property(attr)
	if err != nil {
		return nil, err
	}
	return p.FromBase(i.values[p.Name()])
}

// Set validates v and stores its base form. On error the previous value is
// kept.
func (i *Instance) Set(attr string, v any) error {
	p, err := i.kind.property(attr)
	if err != nil {
		return err
	}
	return i.assign(p, v)
}

// Unset clears attr. Required properties cannot be cleared.
func (i *Instance) Unset(attr string) error {
	p, err := i.kind.property(attr)
	if err != nil {
		return err
	}
	if _, err := p.Validate(nil); err != nil {
		return err
	}
	delete(i.values, p.Name())
	return nil
}

func (i *Instance) assign(p *Property, v any) error {
	valid, err := p.Validate(v)
	if err != nil {
		return err
	}
	base, err := p.ToBase(valid)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrValidation, err)
	}
	i.values[p.Name()] = base
	return nil
}

// Raw returns a copy of the stored field map keyed by storage name.
func (i *Instance) Raw() map[string]any {
	return maps.Clone(i.values)
}

// Entity returns the raw entity for the instance's current state. It does
// not run the put hooks.
func (i *Instance) Entity() *types.Entity {
	return &types.Entity{Key: i.key, Fields: i.Raw()}
}

// Prepare runs every property's put hook in schema order.
func (i *Instance) Prepare() error {
	for _, p := range i.kind.props {
		if err := p.PrepareForPut(i); err != nil {
			return err
		}
	}
	return nil
}

// Put runs the put hooks and persists the instance. When the store
// allocates an identifier the instance key is updated and returned.
func (i *Instance) Put() (*types.Key, error) {
	if i.kind.reg.store == nil {
		return nil, types.ErrNotAttached
	}
	if err := i.Prepare(); err != nil {
		return nil, err
	}
	key, err := i.kind.reg.store.PersistEntity(i.key, i.Raw())
	if err != nil {
		return nil, fmt.Errorf("putting %s: %w", i.key, err)
	}
	i.key = key
	i.kind.reg.log.Debug().Str("key", key.String()).Msg("put entity")
	return key, nil
}

func (i *Instance) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<%s %s", i.kind.name, i.key)
	for _, p := range i.kind.props {
		v, err := p.FromBase(i.values[p.Name()])
		if err != nil {
			v = i.values[p.Name()]
		}
		fmt.Fprintf(&b, " %s=%v", p.Attr(), v)
	}
	b.WriteByte('>')
	return b.String()
}

package model

import (
	"errors"
	"maps"

	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// memStore is an in-memory types.Store keyed by the key's path string.
type memStore struct {
	entities map[string]*types.Entity
	nextID   int64
	failWith error
}

func newMemStore() *memStore {
	return &memStore{entities: make(map[string]*types.Entity)}
}

func (s *memStore) FetchEntities(keys []*types.Key) ([]*types.Entity, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	out := make([]*types.Entity, len(keys))
	for i, k := range keys {
		if e, ok := s.entities[k.String()]; ok {
			out[i] = &types.Entity{Key: e.Key, Fields: maps.Clone(e.Fields)}
		}
	}
	return out, nil
}

func (s *memStore) PersistEntity(key *types.Key, fields map[string]any) (*types.Key, error) {
	if s.failWith != nil {
		return nil, s.failWith
	}
	if !key.Complete() {
		s.nextID++
		var err error
		if key, err = key.WithID(s.nextID); err != nil {
			return nil, err
		}
	}
	s.entities[key.String()] = &types.Entity{Key: key, Fields: maps.Clone(fields)}
	return key, nil
}

var errStoreDown = errors.New("store down")

// shortStore drops the last slot of every fetch.
type shortStore struct{ *memStore }

func (s shortStore) FetchEntities(keys []*types.Key) ([]*types.Entity, error) {
	out, err := s.memStore.FetchEntities(keys)
	if err != nil || len(out) == 0 {
		return out, err
	}
	return out[:len(out)-1], nil
}

package docstore

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
)

var _ Store = (*Memory)(nil)

// Memory is an in-process Store used for tests and local development.
// Documents are kept as encoded BSON so callers never share state with the
// store.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	docs   []bson.Raw
	unique []string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

func (s *Memory) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{}
		s.collections[name] = c
	}
	return c
}

// Create implements Store.
func (s *Memory) Create(_ context.Context, collection string, doc any) (string, error) {
	m, id, err := Encode(doc)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if err := c.insert(m); err != nil {
		return "", err
	}
	return id, nil
}

// FindOne implements Store.
func (s *Memory) FindOne(_ context.Context, collection string, filter Filter, out any) error {
	f, err := Normalize(filter)
	if err != nil {
		return errors.Wrap(err, "normalize filter")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return ErrNotFound
	}
	for _, raw := range c.docs {
		m, err := decodeM(raw)
		if err != nil {
			return err
		}
		if !Matches(m, f) {
			continue
		}
		if err := bson.Unmarshal(raw, out); err != nil {
			return errors.Wrap(err, "decode document")
		}
		return nil
	}
	return ErrNotFound
}

// FindMany implements Store.
func (s *Memory) FindMany(_ context.Context, collection string, filter Filter, sort Sort, out any) error {
	f, err := Normalize(filter)
	if err != nil {
		return errors.Wrap(err, "normalize filter")
	}

	type match struct {
		raw bson.Raw
		doc bson.M
	}
	var matches []match

	s.mu.RLock()
	if c, ok := s.collections[collection]; ok {
		for _, raw := range c.docs {
			m, err := decodeM(raw)
			if err != nil {
				s.mu.RUnlock()
				return err
			}
			if Matches(m, f) {
				matches = append(matches, match{raw: raw, doc: m})
			}
		}
	}
	s.mu.RUnlock()

	if sort.Field != "" {
		slices.SortStableFunc(matches, func(a, b match) int {
			r := Compare(a.doc[sort.Field], b.doc[sort.Field])
			if sort.Desc {
				return -r
			}
			return r
		})
	}

	raws := make([]bson.Raw, len(matches))
	for i, m := range matches {
		raws[i] = m.raw
	}
	return DecodeAll(raws, out)
}

// Update implements Store.
func (s *Memory) Update(_ context.Context, collection string, filter Filter, patch Patch, upsert bool) (UpdateResult, error) {
	f, err := Normalize(filter)
	if err != nil {
		return UpdateResult{}, errors.Wrap(err, "normalize filter")
	}
	p, err := Normalize(patch)
	if err != nil {
		return UpdateResult{}, errors.Wrap(err, "normalize patch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	for i, raw := range c.docs {
		m, err := decodeM(raw)
		if err != nil {
			return UpdateResult{}, err
		}
		if !Matches(m, f) {
			continue
		}
		for k, v := range p {
			m[k] = v
		}
		if err := c.checkUnique(m, i); err != nil {
			return UpdateResult{}, err
		}
		updated, err := bson.Marshal(m)
		if err != nil {
			return UpdateResult{}, errors.Wrap(err, "marshal document")
		}
		c.docs[i] = updated
		return UpdateResult{Matched: 1}, nil
	}

	if !upsert {
		return UpdateResult{}, nil
	}
	m, _, err := Encode(Merge(Filter(f), Patch(p)))
	if err != nil {
		return UpdateResult{}, err
	}
	if err := c.insert(m); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Upserted: true}, nil
}

// EnsureIndex implements Store. Only unique indexes change behavior.
func (s *Memory) EnsureIndex(_ context.Context, collection, field string, unique bool) error {
	if !unique {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(collection)
	if !slices.Contains(c.unique, field) {
		c.unique = append(c.unique, field)
	}
	return nil
}

// Ping implements Store.
func (s *Memory) Ping(context.Context) error { return nil }

func (c *memCollection) insert(m bson.M) error {
	if err := c.checkUnique(m, -1); err != nil {
		return err
	}
	raw, err := bson.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}
	c.docs = append(c.docs, raw)
	return nil
}

// checkUnique rejects m if another document (other than the one at skip)
// holds the same value in a unique field. The "_id" field is always unique.
func (c *memCollection) checkUnique(m bson.M, skip int) error {
	fields := append([]string{IDField}, c.unique...)
	for i, raw := range c.docs {
		if i == skip {
			continue
		}
		other, err := decodeM(raw)
		if err != nil {
			return err
		}
		for _, field := range fields {
			v, ok := m[field]
			if !ok || v == nil {
				continue
			}
			if ov, ok := other[field]; ok && reflect.DeepEqual(v, ov) {
				return errors.Wrapf(ErrDuplicateKey, "%s", field)
			}
		}
	}
	return nil
}

func decodeM(raw bson.Raw) (bson.M, error) {
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "decode document")
	}
	return m, nil
}

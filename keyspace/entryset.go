package keyspace

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/conduit-lang/hyperspace/schema"
)

// EntrySet is an entry whose items are activated per identifier. Items are
// cached by identifier for the lifetime of the set.
type EntrySet[I comparable, W Handle] struct {
	Entry

	items map[I]W
}

// IdentifierType implements schema.SetDescriptor
func (s *EntrySet[I, W]) IdentifierType() reflect.Type { return reflect.TypeFor[I]() }

// ItemType implements schema.SetDescriptor
func (s *EntrySet[I, W]) ItemType() reflect.Type { return reflect.TypeFor[W]() }

// Lookup returns the item identified by id, activating it on first use
func (s *EntrySet[I, W]) Lookup(id I) (W, error) {
	if w, ok := s.items[id]; ok {
		return w, nil
	}

	var zero W
	if s.meta == nil || s.kctx == nil {
		return zero, &schema.InvalidStateError{Op: "Lookup", Reason: "entry-set is not bound to an open context"}
	}
	item, ok := s.meta.Item()
	if !ok {
		return zero, &schema.InvalidStateError{Op: "Lookup", Reason: s.meta.Path() + " has no item template"}
	}

	ids := make([]any, len(s.ids)+1)
	copy(ids, s.ids)
	ids[len(s.ids)] = id

	w, err := activate[W](item, s.kctx, &s.Entry, ids)
	if err != nil {
		return zero, err
	}
	if s.items == nil {
		s.items = make(map[I]W)
	}
	s.items[id] = w
	return w, nil
}

// Item is Lookup for accessor methods; it panics when activation fails
func (s *EntrySet[I, W]) Item(id I) W {
	w, err := s.Lookup(id)
	if err != nil {
		panic(err)
	}
	return w
}

// Cached returns the number of items activated so far
func (s *EntrySet[I, W]) Cached() int {
	return len(s.items)
}

// Scan lists the identifiers of items that have at least one key in Redis.
// Identifiers come back in the order SCAN yields them, without duplicates.
func (s *EntrySet[I, W]) Scan(ctx context.Context) ([]I, error) {
	conv := s.meta.Converter()
	if conv == nil {
		return nil, &schema.InvalidStateError{Op: "Scan", Reason: s.meta.Path() + " has no identifier converter"}
	}

	prefix := s.key + schema.Separator
	var (
		ids  []I
		seen = make(map[string]struct{})
	)
	iter := s.kctx.client.Scan(ctx, 0, schema.EscapeGlob(prefix)+"*", 0).Iterator()
	for iter.Next(ctx) {
		rest := strings.TrimPrefix(iter.Val(), prefix)
		raw, _, _ := strings.Cut(rest, schema.Separator)
		if raw == "" {
			continue
		}
		if _, dup := seen[raw]; dup {
			continue
		}
		seen[raw] = struct{}{}

		parsed, err := conv.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.meta.Path(), err)
		}
		id, ok := parsed.(I)
		if !ok {
			return nil, &schema.TypeMismatchError{Name: s.meta.Path(), Expected: reflect.TypeFor[I](), Actual: reflect.TypeOf(parsed)}
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

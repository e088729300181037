package keyspace

import (
	"context"
	"reflect"

	"github.com/conduit-lang/hyperspace/schema"
)

// Set is a Redis set of V
type Set[V any] struct {
	Entry
}

// EntryKind implements schema.Kinded
func (s *Set[V]) EntryKind() schema.EntryKind { return schema.KindSet }

// ValueType implements schema.Valued
func (s *Set[V]) ValueType() reflect.Type { return reflect.TypeFor[V]() }

// Add inserts members and returns how many were new
func (s *Set[V]) Add(ctx context.Context, members ...V) (int64, error) {
	args, err := encodeAll(CodecFor[V](), members)
	if err != nil {
		return 0, err
	}
	return s.kctx.client.SAdd(ctx, s.key, args...).Result()
}

// Remove deletes members and returns how many existed
func (s *Set[V]) Remove(ctx context.Context, members ...V) (int64, error) {
	args, err := encodeAll(CodecFor[V](), members)
	if err != nil {
		return 0, err
	}
	return s.kctx.client.SRem(ctx, s.key, args...).Result()
}

// Contains reports whether v is a member
func (s *Set[V]) Contains(ctx context.Context, v V) (bool, error) {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return false, err
	}
	return s.kctx.client.SIsMember(ctx, s.key, raw).Result()
}

// Members returns every member in no particular order
func (s *Set[V]) Members(ctx context.Context) ([]V, error) {
	raw, err := s.kctx.client.SMembers(ctx, s.key).Result()
	if err != nil || s.kctx.queued {
		return nil, err
	}
	return decodeAll(CodecFor[V](), raw)
}

// Pop removes and returns a random member, or ErrNotFound on an empty set
func (s *Set[V]) Pop(ctx context.Context) (V, error) {
	var zero V
	raw, err := s.kctx.client.SPop(ctx, s.key).Result()
	if err != nil {
		return zero, notFound(err)
	}
	if s.kctx.queued {
		return zero, nil
	}
	return CodecFor[V]().Decode(raw)
}

// Len returns the number of members
func (s *Set[V]) Len(ctx context.Context) (int64, error) {
	return s.kctx.client.SCard(ctx, s.key).Result()
}

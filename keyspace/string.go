package keyspace

import (
	"context"
	"reflect"
	"time"

	"github.com/conduit-lang/hyperspace/schema"
)

// String is a Redis string holding one V
type String[V any] struct {
	Entry
}

// EntryKind implements schema.Kinded
func (s *String[V]) EntryKind() schema.EntryKind { return schema.KindString }

// ValueType implements schema.Valued
func (s *String[V]) ValueType() reflect.Type { return reflect.TypeFor[V]() }

// Get returns the stored value, or ErrNotFound
func (s *String[V]) Get(ctx context.Context) (V, error) {
	var zero V
	raw, err := s.kctx.client.Get(ctx, s.key).Result()
	if err != nil {
		return zero, notFound(err)
	}
	if s.kctx.queued {
		return zero, nil
	}
	return CodecFor[V]().Decode(raw)
}

// Set stores v. A zero ttl keeps the key without expiry.
func (s *String[V]) Set(ctx context.Context, v V, ttl time.Duration) error {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return err
	}
	return s.kctx.client.Set(ctx, s.key, raw, ttl).Err()
}

// SetNX stores v only when the key does not exist yet
func (s *String[V]) SetNX(ctx context.Context, v V, ttl time.Duration) (bool, error) {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return false, err
	}
	return s.kctx.client.SetNX(ctx, s.key, raw, ttl).Result()
}

// GetDel returns the stored value and removes the key
func (s *String[V]) GetDel(ctx context.Context) (V, error) {
	var zero V
	raw, err := s.kctx.client.GetDel(ctx, s.key).Result()
	if err != nil {
		return zero, notFound(err)
	}
	if s.kctx.queued {
		return zero, nil
	}
	return CodecFor[V]().Decode(raw)
}

// Incr adds one to an integer value and returns the result
func (s *String[V]) Incr(ctx context.Context) (int64, error) {
	return s.kctx.client.Incr(ctx, s.key).Result()
}

// IncrBy adds n to an integer value and returns the result
func (s *String[V]) IncrBy(ctx context.Context, n int64) (int64, error) {
	return s.kctx.client.IncrBy(ctx, s.key, n).Result()
}

// IncrByFloat adds f to a numeric value and returns the result
func (s *String[V]) IncrByFloat(ctx context.Context, f float64) (float64, error) {
	return s.kctx.client.IncrByFloat(ctx, s.key, f).Result()
}

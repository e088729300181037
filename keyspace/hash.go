package keyspace

import (
	"context"
	"reflect"

	"github.com/conduit-lang/hyperspace/schema"
)

// Hash is a Redis hash mapping field names to V
type Hash[V any] struct {
	Entry
}

// EntryKind implements schema.Kinded
func (h *Hash[V]) EntryKind() schema.EntryKind { return schema.KindHash }

// ValueType implements schema.Valued
func (h *Hash[V]) ValueType() reflect.Type { return reflect.TypeFor[V]() }

// Get returns the value of field, or ErrNotFound
func (h *Hash[V]) Get(ctx context.Context, field string) (V, error) {
	var zero V
	raw, err := h.kctx.client.HGet(ctx, h.key, field).Result()
	if err != nil {
		return zero, notFound(err)
	}
	if h.kctx.queued {
		return zero, nil
	}
	return CodecFor[V]().Decode(raw)
}

// Set stores v under field
func (h *Hash[V]) Set(ctx context.Context, field string, v V) error {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return err
	}
	return h.kctx.client.HSet(ctx, h.key, field, raw).Err()
}

// SetAll stores every field of values in one command
func (h *Hash[V]) SetAll(ctx context.Context, values map[string]V) error {
	if len(values) == 0 {
		return nil
	}
	codec := CodecFor[V]()
	args := make([]any, 0, len(values)*2)
	for field, v := range values {
		raw, err := codec.Encode(v)
		if err != nil {
			return err
		}
		args = append(args, field, raw)
	}
	return h.kctx.client.HSet(ctx, h.key, args...).Err()
}

// GetAll returns every field
func (h *Hash[V]) GetAll(ctx context.Context) (map[string]V, error) {
	raw, err := h.kctx.client.HGetAll(ctx, h.key).Result()
	if err != nil || h.kctx.queued {
		return nil, err
	}
	codec := CodecFor[V]()
	out := make(map[string]V, len(raw))
	for field, s := range raw {
		v, err := codec.Decode(s)
		if err != nil {
			return nil, err
		}
		out[field] = v
	}
	return out, nil
}

// Has reports whether field exists
func (h *Hash[V]) Has(ctx context.Context, field string) (bool, error) {
	return h.kctx.client.HExists(ctx, h.key, field).Result()
}

// Remove deletes fields and returns how many existed
func (h *Hash[V]) Remove(ctx context.Context, fields ...string) (int64, error) {
	return h.kctx.client.HDel(ctx, h.key, fields...).Result()
}

// Fields returns every field name
func (h *Hash[V]) Fields(ctx context.Context) ([]string, error) {
	return h.kctx.client.HKeys(ctx, h.key).Result()
}

// Len returns the number of fields
func (h *Hash[V]) Len(ctx context.Context) (int64, error) {
	return h.kctx.client.HLen(ctx, h.key).Result()
}

// IncrBy adds n to an integer field and returns the result
func (h *Hash[V]) IncrBy(ctx context.Context, field string, n int64) (int64, error) {
	return h.kctx.client.HIncrBy(ctx, h.key, field, n).Result()
}

package keyspace

import (
	"context"
	"reflect"

	"github.com/conduit-lang/hyperspace/schema"
)

// List is a Redis list of V
type List[V any] struct {
	Entry
}

// EntryKind implements schema.Kinded
func (l *List[V]) EntryKind() schema.EntryKind { return schema.KindList }

// ValueType implements schema.Valued
func (l *List[V]) ValueType() reflect.Type { return reflect.TypeFor[V]() }

// Push appends values to the tail and returns the new length
func (l *List[V]) Push(ctx context.Context, values ...V) (int64, error) {
	args, err := encodeAll(CodecFor[V](), values)
	if err != nil {
		return 0, err
	}
	return l.kctx.client.RPush(ctx, l.key, args...).Result()
}

// PushFront prepends values to the head and returns the new length
func (l *List[V]) PushFront(ctx context.Context, values ...V) (int64, error) {
	args, err := encodeAll(CodecFor[V](), values)
	if err != nil {
		return 0, err
	}
	return l.kctx.client.LPush(ctx, l.key, args...).Result()
}

// Pop removes and returns the tail, or ErrNotFound on an empty list
func (l *List[V]) Pop(ctx context.Context) (V, error) {
	return l.decode(l.kctx.client.RPop(ctx, l.key).Result())
}

// PopFront removes and returns the head, or ErrNotFound on an empty list
func (l *List[V]) PopFront(ctx context.Context) (V, error) {
	return l.decode(l.kctx.client.LPop(ctx, l.key).Result())
}

// Index returns the element at i; negative indexes count from the tail
func (l *List[V]) Index(ctx context.Context, i int64) (V, error) {
	return l.decode(l.kctx.client.LIndex(ctx, l.key, i).Result())
}

// SetIndex replaces the element at i
func (l *List[V]) SetIndex(ctx context.Context, i int64, v V) error {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return err
	}
	return l.kctx.client.LSet(ctx, l.key, i, raw).Err()
}

// Range returns the elements from start to stop inclusive
func (l *List[V]) Range(ctx context.Context, start, stop int64) ([]V, error) {
	raw, err := l.kctx.client.LRange(ctx, l.key, start, stop).Result()
	if err != nil || l.kctx.queued {
		return nil, err
	}
	return decodeAll(CodecFor[V](), raw)
}

// All returns every element
func (l *List[V]) All(ctx context.Context) ([]V, error) {
	return l.Range(ctx, 0, -1)
}

// Trim keeps only the elements from start to stop inclusive
func (l *List[V]) Trim(ctx context.Context, start, stop int64) error {
	return l.kctx.client.LTrim(ctx, l.key, start, stop).Err()
}

// Len returns the number of elements
func (l *List[V]) Len(ctx context.Context) (int64, error) {
	return l.kctx.client.LLen(ctx, l.key).Result()
}

func (l *List[V]) decode(raw string, err error) (V, error) {
	var zero V
	if err != nil {
		return zero, notFound(err)
	}
	if l.kctx.queued {
		return zero, nil
	}
	return CodecFor[V]().Decode(raw)
}

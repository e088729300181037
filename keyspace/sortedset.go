package keyspace

import (
	"context"
	"reflect"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/conduit-lang/hyperspace/schema"
)

// Scored is a sorted set member with its score
type Scored[V any] struct {
	Value V
	Score float64
}

// SortedSet is a Redis sorted set of V
type SortedSet[V any] struct {
	Entry
}

// EntryKind implements schema.Kinded
func (z *SortedSet[V]) EntryKind() schema.EntryKind { return schema.KindSortedSet }

// ValueType implements schema.Valued
func (z *SortedSet[V]) ValueType() reflect.Type { return reflect.TypeFor[V]() }

// Add inserts or rescores members and returns how many were new
func (z *SortedSet[V]) Add(ctx context.Context, members ...Scored[V]) (int64, error) {
	codec := CodecFor[V]()
	args := make([]redis.Z, len(members))
	for i, m := range members {
		raw, err := codec.Encode(m.Value)
		if err != nil {
			return 0, err
		}
		args[i] = redis.Z{Score: m.Score, Member: raw}
	}
	return z.kctx.client.ZAdd(ctx, z.key, args...).Result()
}

// Remove deletes members and returns how many existed
func (z *SortedSet[V]) Remove(ctx context.Context, members ...V) (int64, error) {
	args, err := encodeAll(CodecFor[V](), members)
	if err != nil {
		return 0, err
	}
	return z.kctx.client.ZRem(ctx, z.key, args...).Result()
}

// Score returns the score of v, or ErrNotFound when v is not a member
func (z *SortedSet[V]) Score(ctx context.Context, v V) (float64, error) {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return 0, err
	}
	score, err := z.kctx.client.ZScore(ctx, z.key, raw).Result()
	return score, notFound(err)
}

// IncrBy adds delta to the score of v and returns the new score
func (z *SortedSet[V]) IncrBy(ctx context.Context, v V, delta float64) (float64, error) {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return 0, err
	}
	return z.kctx.client.ZIncrBy(ctx, z.key, delta, raw).Result()
}

// Rank returns the zero-based rank of v by ascending score
func (z *SortedSet[V]) Rank(ctx context.Context, v V) (int64, error) {
	raw, err := CodecFor[V]().Encode(v)
	if err != nil {
		return 0, err
	}
	rank, err := z.kctx.client.ZRank(ctx, z.key, raw).Result()
	return rank, notFound(err)
}

// Range returns members by ascending score between ranks start and stop
func (z *SortedSet[V]) Range(ctx context.Context, start, stop int64) ([]V, error) {
	raw, err := z.kctx.client.ZRange(ctx, z.key, start, stop).Result()
	if err != nil || z.kctx.queued {
		return nil, err
	}
	return decodeAll(CodecFor[V](), raw)
}

// RangeWithScores is Range returning scores alongside members
func (z *SortedSet[V]) RangeWithScores(ctx context.Context, start, stop int64) ([]Scored[V], error) {
	raw, err := z.kctx.client.ZRangeWithScores(ctx, z.key, start, stop).Result()
	if err != nil || z.kctx.queued {
		return nil, err
	}
	return z.scored(raw)
}

// RangeByScore returns members whose score lies in [lo, hi]
func (z *SortedSet[V]) RangeByScore(ctx context.Context, lo, hi float64) ([]V, error) {
	raw, err := z.kctx.client.ZRangeByScore(ctx, z.key, &redis.ZRangeBy{
		Min: strconv.FormatFloat(lo, 'g', -1, 64),
		Max: strconv.FormatFloat(hi, 'g', -1, 64),
	}).Result()
	if err != nil || z.kctx.queued {
		return nil, err
	}
	return decodeAll(CodecFor[V](), raw)
}

// Len returns the number of members
func (z *SortedSet[V]) Len(ctx context.Context) (int64, error) {
	return z.kctx.client.ZCard(ctx, z.key).Result()
}

func (z *SortedSet[V]) scored(raw []redis.Z) ([]Scored[V], error) {
	codec := CodecFor[V]()
	out := make([]Scored[V], len(raw))
	for i, m := range raw {
		s, ok := m.Member.(string)
		if !ok {
			continue
		}
		v, err := codec.Decode(s)
		if err != nil {
			return nil, err
		}
		out[i] = Scored[V]{Value: v, Score: m.Score}
	}
	return out, nil
}

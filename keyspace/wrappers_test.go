package keyspace_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/hyperspace/keyspace"
	"github.com/conduit-lang/hyperspace/schema"
)

func TestString_GetSet(t *testing.T) {
	b, mr := setupBoard(t)
	ctx := context.Background()
	annt := b.Announcement()

	_, err := annt.Get(ctx)
	assert.True(t, keyspace.IsNotFound(err))

	require.NoError(t, annt.Set(ctx, "maintenance tonight", 0))
	got, err := annt.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "maintenance tonight", got)

	raw, err := mr.Get("pfx:annt")
	require.NoError(t, err)
	assert.Equal(t, "maintenance tonight", raw, "strings are stored verbatim")

	ok, err := annt.SetNX(ctx, "other", 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = annt.GetDel(ctx)
	require.NoError(t, err)
	assert.Equal(t, "maintenance tonight", got)
	assert.False(t, mr.Exists("pfx:annt"))
}

func TestString_Counters(t *testing.T) {
	b, _ := setupBoard(t)
	ctx := context.Background()
	visits := b.Visits()

	require.NoError(t, visits.Set(ctx, 41, 0))
	n, err := visits.Incr(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = visits.IncrBy(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(50), n)

	got, err := visits.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got)

	f, err := visits.IncrByFloat(ctx, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 50.5, f, 1e-9)
}

func TestString_JSONValues(t *testing.T) {
	b, mr := setupBoard(t)
	ctx := context.Background()
	r := b.Topics().Item(firstTopic).Replies().Item(1)

	require.NoError(t, r.Set(ctx, profile{Author: "ada", Body: "hello"}, 0))

	raw, err := mr.Get(r.Key())
	require.NoError(t, err)
	assert.JSONEq(t, `{"author":"ada","body":"hello"}`, raw)

	got, err := r.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile{Author: "ada", Body: "hello"}, got)

	require.NoError(t, mr.Set(r.Key(), "{broken"))
	_, err = r.Get(ctx)
	assert.Error(t, err)
}

func TestEntry_KeyOperations(t *testing.T) {
	b, mr := setupBoard(t)
	ctx := context.Background()
	annt := b.Announcement()

	exists, err := annt.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	kind, err := annt.Type(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.KindUnknown, kind)

	require.NoError(t, annt.Set(ctx, "hi", 0))
	exists, err = annt.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	kind, err = annt.Type(ctx)
	require.NoError(t, err)
	assert.Equal(t, schema.KindString, kind)

	ttl, err := annt.TTL(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl)

	ok, err := annt.Expire(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("pfx:annt"))

	ok, err = annt.Persist(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), mr.TTL("pfx:annt"))

	ok, err = annt.ExpireAt(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, annt.Delete(ctx))
	assert.False(t, mr.Exists("pfx:annt"))
}

func TestList(t *testing.T) {
	b, _ := setupBoard(t)
	ctx := context.Background()
	recent := b.Recent()

	n, err := recent.Push(ctx, "b", "c")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	_, err = recent.PushFront(ctx, "a")
	require.NoError(t, err)

	all, err := recent.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	v, err := recent.Index(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	require.NoError(t, recent.SetIndex(ctx, 1, "B"))
	v, err = recent.PopFront(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", v)
	v, err = recent.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "c", v)

	require.NoError(t, recent.Trim(ctx, 0, 0))
	n, err = recent.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = recent.Pop(ctx)
	require.NoError(t, err)
	_, err = recent.Pop(ctx)
	assert.True(t, keyspace.IsNotFound(err))
}

func TestHash(t *testing.T) {
	b, mr := setupBoard(t)
	ctx := context.Background()
	settings := b.Settings()

	require.NoError(t, settings.Set(ctx, "theme", "dark"))
	require.NoError(t, settings.SetAll(ctx, map[string]string{"lang": "en", "tz": "UTC"}))
	require.NoError(t, settings.SetAll(ctx, nil))

	v, err := settings.Get(ctx, "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", v)
	assert.Equal(t, "en", mr.HGet("pfx:Settings", "lang"))

	_, err = settings.Get(ctx, "missing")
	assert.True(t, keyspace.IsNotFound(err))

	all, err := settings.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark", "lang": "en", "tz": "UTC"}, all)

	has, err := settings.Has(ctx, "tz")
	require.NoError(t, err)
	assert.True(t, has)

	fields, err := settings.Fields(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"theme", "lang", "tz"}, fields)

	removed, err := settings.Remove(ctx, "tz", "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := settings.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := settings.IncrBy(ctx, "hits", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSet(t *testing.T) {
	b, _ := setupBoard(t)
	ctx := context.Background()
	members := b.Members()

	added, err := members.Add(ctx, "ada", "bob", "ada")
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	ok, err := members.Contains(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	all, err := members.Members(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ada", "bob"}, all)

	removed, err := members.Remove(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := members.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	v, err := members.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", v)

	_, err = members.Pop(ctx)
	assert.True(t, keyspace.IsNotFound(err))
}

func TestSortedSet(t *testing.T) {
	b, _ := setupBoard(t)
	ctx := context.Background()
	ranking := b.Ranking()

	added, err := ranking.Add(ctx,
		keyspace.Scored[string]{Value: "ada", Score: 30},
		keyspace.Scored[string]{Value: "bob", Score: 10},
		keyspace.Scored[string]{Value: "cy", Score: 20},
	)
	require.NoError(t, err)
	assert.Equal(t, int64(3), added)

	asc, err := ranking.Range(ctx, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "cy", "ada"}, asc)

	scored, err := ranking.RangeWithScores(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []keyspace.Scored[string]{{Value: "bob", Score: 10}}, scored)

	mid, err := ranking.RangeByScore(ctx, 15, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"cy", "ada"}, mid)

	score, err := ranking.IncrBy(ctx, "bob", 25)
	require.NoError(t, err)
	assert.Equal(t, float64(35), score)

	rank, err := ranking.Rank(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rank)

	score, err = ranking.Score(ctx, "cy")
	require.NoError(t, err)
	assert.Equal(t, float64(20), score)

	_, err = ranking.Score(ctx, "nobody")
	assert.True(t, keyspace.IsNotFound(err))
	_, err = ranking.Rank(ctx, "nobody")
	assert.True(t, keyspace.IsNotFound(err))

	removed, err := ranking.Remove(ctx, "cy")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	n, err := ranking.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestEntrySet_Scan(t *testing.T) {
	b, _ := setupBoard(t)
	ctx := context.Background()
	second := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	require.NoError(t, b.Topics().Item(firstTopic).Set(ctx, "state", "open"))
	require.NoError(t, b.Topics().Item(firstTopic).Title().Set(ctx, "Welcome", 0))
	require.NoError(t, b.Topics().Item(second).Replies().Item(1).Set(ctx, profile{Author: "bob"}, 0))
	require.NoError(t, b.Announcement().Set(ctx, "unrelated", 0))

	ids, err := b.Topics().Scan(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{firstTopic, second}, ids)

	replies, err := b.Topics().Item(second).Replies().Scan(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, replies)
}

func TestEntrySet_ScanRejectsForeignKeys(t *testing.T) {
	b, mr := setupBoard(t)
	require.NoError(t, mr.Set("pfx:tpcs:not-a-uuid", "x"))

	_, err := b.Topics().Scan(context.Background())
	assert.Error(t, err)
}

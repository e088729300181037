package keyspace_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/hyperspace/keyspace"
	"github.com/conduit-lang/hyperspace/schema"
)

type profile struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// board is a consumer keyspace covering every wrapper kind:
//
//	pfx:annt
//	pfx:Visits
//	pfx:Recent
//	pfx:Settings
//	pfx:Members
//	pfx:Ranking
//	pfx:tpcs:{ID}
//	pfx:tpcs:{ID}:Title
//	pfx:tpcs:{ID}:r:{ID}
type board struct {
	keyspace.Context
}

func (b *board) DescribeKeyspace(mb *schema.ModelBuilder[board]) {
	mb.Prefix("pfx")
	schema.Entry(mb, (*board).Announcement).MapTo("annt")
	schema.Entry(mb, (*board).Visits)
	schema.Entry(mb, (*board).Recent)
	schema.Entry(mb, (*board).Settings)
	schema.Entry(mb, (*board).Members)
	schema.Entry(mb, (*board).Ranking)

	topics := schema.EntrySet(mb, (*board).Topics).MapTo("tpcs")
	schema.Identifier(topics, (*topic).ID)
	schema.EntryItem(topics, func(t *schema.EntryBuilder[*topic]) {
		schema.SubEntry(t, (*topic).Title)
		replies := schema.SubEntrySet(t, (*topic).Replies).MapTo("r")
		schema.Identifier(replies, (*reply).ID)
		schema.EntryItem[*reply](replies, nil)
	})
}

func (b *board) Announcement() *keyspace.String[string] {
	return keyspace.Child[*keyspace.String[string]](b, "Announcement")
}

func (b *board) Visits() *keyspace.String[int64] {
	return keyspace.Child[*keyspace.String[int64]](b, "Visits")
}

func (b *board) Recent() *keyspace.List[string] {
	return keyspace.Child[*keyspace.List[string]](b, "Recent")
}

func (b *board) Settings() *keyspace.Hash[string] {
	return keyspace.Child[*keyspace.Hash[string]](b, "Settings")
}

func (b *board) Members() *keyspace.Set[string] {
	return keyspace.Child[*keyspace.Set[string]](b, "Members")
}

func (b *board) Ranking() *keyspace.SortedSet[string] {
	return keyspace.Child[*keyspace.SortedSet[string]](b, "Ranking")
}

func (b *board) Topics() *keyspace.EntrySet[uuid.UUID, *topic] {
	return keyspace.Child[*keyspace.EntrySet[uuid.UUID, *topic]](b, "Topics")
}

type topic struct {
	keyspace.Hash[string]
}

func (t *topic) ID() uuid.UUID {
	return keyspace.IdentifierOf[uuid.UUID](t)
}

func (t *topic) Title() *keyspace.String[string] {
	return keyspace.Child[*keyspace.String[string]](t, "Title")
}

func (t *topic) Replies() *keyspace.EntrySet[int, *reply] {
	return keyspace.Child[*keyspace.EntrySet[int, *reply]](t, "Replies")
}

type reply struct {
	keyspace.String[profile]
}

func (r *reply) ID() int {
	return keyspace.IdentifierOf[int](r)
}

var firstTopic = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func setupBoard(t *testing.T) (*board, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	b, err := keyspace.Open[board](context.Background(), client)
	require.NoError(t, err)
	return b, mr
}

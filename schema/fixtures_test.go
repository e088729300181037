package schema

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Minimal wrapper types standing in for the keyspace package wrappers.

type stringEntry struct{}

func (*stringEntry) EntryKind() EntryKind { return KindString }
func (*stringEntry) ValueType() reflect.Type { return reflect.TypeFor[string]() }

type hashEntry struct{}

func (*hashEntry) EntryKind() EntryKind { return KindHash }

type listEntry struct{}

func (*listEntry) EntryKind() EntryKind { return KindList }

type kindless struct{}

func (*kindless) EntryKind() EntryKind { return KindUnknown }

type discussionSet struct{}

func (*discussionSet) IdentifierType() reflect.Type { return reflect.TypeFor[uuid.UUID]() }
func (*discussionSet) ItemType() reflect.Type { return reflect.TypeFor[*discussion]() }

type commentSet struct{}

func (*commentSet) IdentifierType() reflect.Type { return reflect.TypeFor[int64]() }
func (*commentSet) ItemType() reflect.Type { return reflect.TypeFor[*comment]() }

type opaqueID struct{ hi, lo uint64 }

type opaqueSet struct{}

func (*opaqueSet) IdentifierType() reflect.Type { return reflect.TypeFor[opaqueID]() }
func (*opaqueSet) ItemType() reflect.Type { return reflect.TypeFor[*opaqueItem]() }

type opaqueItem struct{ stringEntry }

func (*opaqueItem) ID() opaqueID { return opaqueID{} }

type discussion struct{ hashEntry }

func (*discussion) ID() uuid.UUID { return uuid.Nil }
func (*discussion) Slug() string { return "" }
func (*discussion) Title() *stringEntry { return nil }
func (*discussion) Body() *stringEntry { return nil }
func (*discussion) Tags() *listEntry { return nil }
func (*discussion) Comments() *commentSet { return nil }

type comment struct{ stringEntry }

func (*comment) ID() int64 { return 0 }

type forum struct{}

func (*forum) Announcement() *stringEntry { return nil }
func (*forum) Motd() *stringEntry { return nil }
func (*forum) Settings() *hashEntry { return nil }
func (*forum) Broken() *kindless { return nil }
func (*forum) Discussions() *discussionSet { return nil }
func (*forum) Archive() *discussionSet { return nil }
func (*forum) Opaque() *opaqueSet { return nil }

func announcement(*forum) *stringEntry { return nil }

type pageSet struct{}

func (*pageSet) IdentifierType() reflect.Type { return reflect.TypeFor[string]() }
func (*pageSet) ItemType() reflect.Type { return reflect.TypeFor[*page]() }

type page struct{ stringEntry }

func (*page) ID() string { return "" }
func (*page) Title() *stringEntry { return nil }

type wiki struct{}

func (*wiki) Pages() *pageSet { return nil }

// describeWiki declares a string-indexed set:
//
//	Pages:{ID}
//	Pages:{ID}:Title
func describeWiki(b *ModelBuilder[wiki]) {
	pages := EntrySet(b, (*wiki).Pages)
	Identifier(pages, (*page).ID)
	EntryItem(pages, func(p *EntryBuilder[*page]) {
		SubEntry(p, (*page).Title)
	})
}

// describeForum declares the reference forum keyspace:
//
//	pfx:annt
//	pfx:Settings
//	pfx:dscs:{ID}
//	pfx:dscs:{ID}:Title
//	pfx:dscs:{ID}:Tags
//	pfx:dscs:{ID}:cmts:{ID}
func describeForum(b *ModelBuilder[forum]) {
	b.Prefix("pfx")
	Entry(b, (*forum).Announcement).MapTo("annt")
	Entry(b, (*forum).Settings)
	discussions := EntrySet(b, (*forum).Discussions).MapTo("dscs")
	Identifier(discussions, (*discussion).ID)
	EntryItem(discussions, func(d *EntryBuilder[*discussion]) {
		SubEntry(d, (*discussion).Title)
		SubEntry(d, (*discussion).Tags)
		comments := SubEntrySet(d, (*discussion).Comments).ShortName("cmts")
		Identifier(comments, (*comment).ID)
		EntryItem[*comment](comments, nil)
	})
}

func buildForum(t *testing.T) *ModelMetadata {
	t.Helper()
	m, err := Build(context.Background(), NewRegistry(), describeForum)
	require.NoError(t, err)
	return m
}

func mustChild(t *testing.T, parent interface {
	Child(string) (*EntryMetadata, bool)
}, names ...string) *EntryMetadata {
	t.Helper()
	var e *EntryMetadata
	for _, name := range names {
		var ok bool
		e, ok = parent.Child(name)
		require.True(t, ok, "missing child %q", name)
		parent = e
	}
	return e
}

func mustItem(t *testing.T, set *EntryMetadata) *EntryMetadata {
	t.Helper()
	item, ok := set.Item()
	require.True(t, ok, "%s has no item template", set.Path())
	return item
}

package keyspace

import (
	"context"
	"time"

	"github.com/conduit-lang/hyperspace/schema"
)

// Handle is implemented by every wrapper type through an embedded Entry
type Handle interface {
	entry() *Entry
}

// Entry is the part every wrapper shares: the resolved key, the metadata it
// was activated from, and the context it issues commands through. Wrapper
// types embed it by value.
type Entry struct {
	key    string
	meta   *schema.EntryMetadata
	kctx   *Context
	parent *Entry
	ids    []any

	scope owner
}

func (e *Entry) entry() *Entry { return e }

func (e *Entry) owner() *owner { return &e.scope }

func (e *Entry) bind(key string, meta *schema.EntryMetadata, kctx *Context, parent *Entry, ids []any) {
	e.key = key
	e.meta = meta
	e.kctx = kctx
	e.parent = parent
	e.ids = ids
	e.scope = owner{kctx: kctx, entry: e}
}

// Key returns the literal Redis key
func (e *Entry) Key() string { return e.key }

// String returns the key
func (e *Entry) String() string { return e.key }

// Metadata returns the frozen metadata the entry was activated from
func (e *Entry) Metadata() *schema.EntryMetadata { return e.meta }

// Context returns the owning context
func (e *Entry) Context() *Context { return e.kctx }

// Parent returns the enclosing entry, or nil for root entries
func (e *Entry) Parent() *Entry { return e.parent }

// Identifiers returns the identifiers of every entry-set item on the path,
// outermost first
func (e *Entry) Identifiers() []any {
	out := make([]any, len(e.ids))
	copy(out, e.ids)
	return out
}

// Equal reports whether e and other address the same key
func (e *Entry) Equal(other Handle) bool {
	if other == nil {
		return false
	}
	o := other.entry()
	return o != nil && o.key == e.key
}

// IdentifierOf returns the identifier of the nearest entry-set item enclosing
// h, h included. It returns the zero value when there is none or it is not
// an I.
func IdentifierOf[I any](h Handle) I {
	var zero I
	for e := h.entry(); e != nil; e = e.parent {
		if e.meta == nil || !e.meta.IsItem() {
			continue
		}
		if len(e.ids) == 0 {
			return zero
		}
		id, _ := e.ids[len(e.ids)-1].(I)
		return id
	}
	return zero
}

// Delete removes the key
func (e *Entry) Delete(ctx context.Context) error {
	return e.kctx.client.Del(ctx, e.key).Err()
}

// Exists reports whether the key exists
func (e *Entry) Exists(ctx context.Context) (bool, error) {
	n, err := e.kctx.client.Exists(ctx, e.key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Expire sets a time to live on the key
func (e *Entry) Expire(ctx context.Context, ttl time.Duration) (bool, error) {
	return e.kctx.client.Expire(ctx, e.key, ttl).Result()
}

// ExpireAt sets an absolute expiry on the key
func (e *Entry) ExpireAt(ctx context.Context, at time.Time) (bool, error) {
	return e.kctx.client.ExpireAt(ctx, e.key, at).Result()
}

// Persist removes the time to live of the key
func (e *Entry) Persist(ctx context.Context) (bool, error) {
	return e.kctx.client.Persist(ctx, e.key).Result()
}

// TTL returns the remaining time to live. Redis reports -1 for keys without
// expiry and -2 for missing keys.
func (e *Entry) TTL(ctx context.Context) (time.Duration, error) {
	return e.kctx.client.TTL(ctx, e.key).Result()
}

// Type returns the kind of the value stored at the key, or KindUnknown when
// the key does not exist
func (e *Entry) Type(ctx context.Context) (schema.EntryKind, error) {
	s, err := e.kctx.client.Type(ctx, e.key).Result()
	if err != nil {
		return schema.KindUnknown, err
	}
	if s == "none" || e.kctx.queued {
		return schema.KindUnknown, nil
	}
	return schema.ParseEntryKind(s)
}

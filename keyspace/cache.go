package keyspace

import (
	"fmt"
	"reflect"

	"github.com/conduit-lang/hyperspace/schema"
)

// Owner is anything children can be looked up on: a Context, or an Entry
// through the wrapper embedding it.
type Owner interface {
	owner() *owner
}

// owner memoizes the children of one Context or Entry by declared name. It is
// not synchronized.
type owner struct {
	kctx     *Context
	entry    *Entry
	children map[string]Handle
}

func (o *owner) child(name string) (*schema.EntryMetadata, bool) {
	if o.entry == nil {
		return o.kctx.model.Child(name)
	}
	return o.entry.meta.Child(name)
}

func (o *owner) path() string {
	if o.entry == nil {
		return o.kctx.model.Name()
	}
	return o.entry.meta.Path()
}

func (o *owner) ids() []any {
	if o.entry == nil {
		return nil
	}
	return o.entry.ids
}

// Lookup returns the child declared under name, activating it on first use.
// Repeated lookups through the same owner return the same wrapper.
func Lookup[W Handle](o Owner, name string) (W, error) {
	var zero W
	s := o.owner()
	if s.kctx == nil || s.kctx.model == nil {
		return zero, &schema.InvalidStateError{Op: "Lookup", Reason: "owner is not bound to an open context"}
	}

	if h, ok := s.children[name]; ok {
		w, ok := h.(W)
		if !ok {
			return zero, &schema.TypeMismatchError{Name: name, Expected: reflect.TypeFor[W](), Actual: reflect.TypeOf(h)}
		}
		return w, nil
	}

	meta, ok := s.child(name)
	if !ok {
		return zero, &schema.ConfigurationError{
			Model:    s.kctx.model.Name(),
			Path:     s.path(),
			Problems: []string{fmt.Sprintf("no entry named %q", name)},
		}
	}

	w, err := activate[W](meta, s.kctx, s.entry, s.ids())
	if err != nil {
		return zero, err
	}
	if s.children == nil {
		s.children = make(map[string]Handle)
	}
	s.children[name] = w
	return w, nil
}

// Child is Lookup for accessor methods. A failed lookup is a mismatch between
// the accessor and the declared model, so it panics.
func Child[W Handle](o Owner, name string) W {
	w, err := Lookup[W](o, name)
	if err != nil {
		panic(err)
	}
	return w
}

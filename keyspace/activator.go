package keyspace

import (
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"

	"github.com/conduit-lang/hyperspace/schema"
)

// activator allocates an unbound wrapper
type activator func() Handle

type activation struct {
	new activator
	err error
}

var (
	activators = xsync.NewMap[reflect.Type, activation]()
	handleType = reflect.TypeFor[Handle]()
)

// Register installs the constructor used to allocate wrappers of type W.
// Types without one get a constructor derived on first use, which requires W
// to be a pointer to a struct embedding Entry by value.
func Register[W Handle](newFn func() W) {
	activators.Store(reflect.TypeFor[W](), activation{new: func() Handle { return newFn() }})
}

// activatorFor returns the cached constructor of t. Concurrent first
// derivations may race; they produce equivalent constructors and the first
// stored one wins.
func activatorFor(t reflect.Type) (activator, error) {
	a, _ := activators.LoadOrCompute(t, func() (activation, bool) {
		fn, err := deriveActivator(t)
		return activation{new: fn, err: err}, false
	})
	return a.new, a.err
}

func deriveActivator(t reflect.Type) (activator, error) {
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct || !t.Implements(handleType) {
		return nil, fmt.Errorf("wrapper type %s must be a pointer to a struct embedding keyspace.Entry", t)
	}
	elem := t.Elem()
	fn := func() Handle {
		return reflect.New(elem).Interface().(Handle)
	}
	if !embedsEntry(fn) {
		return nil, fmt.Errorf("wrapper type %s must embed keyspace.Entry by value, not through a pointer", t)
	}
	return fn, nil
}

func embedsEntry(fn activator) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn().entry() != nil
}

// activate builds and binds the wrapper of meta. ids are the identifiers of
// every entry-set item on the path, outermost first.
func activate[W Handle](meta *schema.EntryMetadata, kctx *Context, parent *Entry, ids []any) (W, error) {
	var zero W
	if !meta.IsFrozen() {
		return zero, &schema.InvalidStateError{Op: "Activate", Reason: "metadata of " + meta.Path() + " is not frozen"}
	}
	want := reflect.TypeFor[W]()
	if declared := meta.WrapperType(); declared != nil && declared != want {
		return zero, &schema.TypeMismatchError{Name: meta.Path(), Expected: want, Actual: declared}
	}

	newFn, err := activatorFor(want)
	if err != nil {
		return zero, &schema.ConfigurationError{
			Model:    meta.Model().Name(),
			Path:     meta.Path(),
			Problems: []string{err.Error()},
		}
	}

	key, err := meta.Key(ids...)
	if err != nil {
		return zero, err
	}

	h := newFn()
	w, ok := h.(W)
	if !ok {
		return zero, &schema.TypeMismatchError{Name: meta.Path(), Expected: want, Actual: reflect.TypeOf(h)}
	}
	h.entry().bind(key, meta, kctx, parent, ids)

	kctx.logger.Debug("keyspace entry activated", zap.String("key", key), zap.String("path", meta.Path()))
	return w, nil
}

package schema

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Describer is implemented by context types that declare their own keyspace
type Describer[C any] interface {
	DescribeKeyspace(b *ModelBuilder[C])
}

// BuildFunc builds and freezes a model. ctx carries the set of models being
// built; nested Build calls should pass it on so that work started on other
// goroutines is also checked for cycles.
type BuildFunc func(ctx context.Context) (*ModelMetadata, error)

// Registry caches one frozen model per schema type. Lookups after the first
// build are lock-free; concurrent first builds of a type share one build.
type Registry struct {
	models     *xsync.Map[reflect.Type, *ModelMetadata]
	group      singleflight.Group
	builders   *xsync.Map[reflect.Type, uint64] // type -> goroutine running its build
	waiting    *xsync.Map[uint64, reflect.Type] // goroutine -> type it waits for
	converters *Converters
	logger     *zap.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithLogger sets the registry logger
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithConverters sets the identifier converter table used when freezing
func WithConverters(c *Converters) RegistryOption {
	return func(r *Registry) {
		if c != nil {
			r.converters = c
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		models:     xsync.NewMap[reflect.Type, *ModelMetadata](),
		builders:   xsync.NewMap[reflect.Type, uint64](),
		waiting:    xsync.NewMap[uint64, reflect.Type](),
		converters: defaultConverters,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used when none is given
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Converters returns the converter table models are frozen with
func (r *Registry) Converters() *Converters {
	return r.converters
}

// Lookup returns the frozen model of t, if it has been built
func (r *Registry) Lookup(t reflect.Type) (*ModelMetadata, bool) {
	return r.models.Load(t)
}

// Models returns every built model ordered by name
func (r *Registry) Models() []*ModelMetadata {
	var models []*ModelMetadata
	r.models.Range(func(_ reflect.Type, m *ModelMetadata) bool {
		models = append(models, m)
		return true
	})
	sort.Slice(models, func(i, j int) bool { return models[i].Name() < models[j].Name() })
	return models
}

// GetOrBuild returns the model of t, building it with build on first access.
// A call that would wait on a build which is itself waiting on the caller
// fails with an InvalidStateError. Cycles are found through ctx and through
// the goroutines running and awaiting each build, so a nested call made with
// an unrelated context is rejected as well.
func (r *Registry) GetOrBuild(ctx context.Context, t reflect.Type, build BuildFunc) (*ModelMetadata, error) {
	if m, ok := r.models.Load(t); ok {
		return m, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	gid := goroutineID()
	if isBuilding(ctx, t) || r.waitsOn(gid, t) {
		return nil, &InvalidStateError{Op: "Build", Reason: "model " + t.String() + " is already being built"}
	}

	r.waiting.Store(gid, t)
	defer r.waiting.Delete(gid)

	buildCtx := withBuilding(context.WithoutCancel(ctx), t)
	ch := r.group.DoChan(typeKey(t), func() (any, error) {
		if m, ok := r.models.Load(t); ok {
			return m, nil
		}
		r.builders.Store(t, goroutineID())
		defer r.builders.Delete(t)
		return r.build(buildCtx, t, build)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*ModelMetadata), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitsOn reports whether the build of t depends on goroutine gid, following
// the chain of builds each builder is waiting for
func (r *Registry) waitsOn(gid uint64, t reflect.Type) bool {
	seen := make(map[reflect.Type]bool)
	for !seen[t] {
		seen[t] = true
		owner, ok := r.builders.Load(t)
		if !ok {
			return false
		}
		if owner == gid {
			return true
		}
		if t, ok = r.waiting.Load(owner); !ok {
			return false
		}
	}
	return false
}

func (r *Registry) build(ctx context.Context, t reflect.Type, build BuildFunc) (m *ModelMetadata, err error) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			m, err = nil, fmt.Errorf("building model %s panicked: %v", t, p)
		}
		if err != nil {
			r.logger.Warn("keyspace model rejected", zap.Stringer("type", t), zap.Error(err))
		}
	}()

	m, err = build(ctx)
	if err != nil {
		return nil, err
	}
	if !m.IsFrozen() {
		return nil, &InvalidStateError{Op: "Build", Reason: "model " + t.String() + " was not frozen"}
	}
	actual, _ := r.models.LoadOrStore(t, m)

	r.logger.Debug("keyspace model built",
		zap.String("model", actual.Name()),
		zap.String("prefix", actual.Prefix()),
		zap.Int("entries", countEntries(actual)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return actual, nil
}

// Build returns the frozen model of C from r, declaring it with describe on
// first access. A nil registry means DefaultRegistry.
func Build[C any](ctx context.Context, r *Registry, describe func(*ModelBuilder[C])) (*ModelMetadata, error) {
	if r == nil {
		r = defaultRegistry
	}
	return r.GetOrBuild(ctx, reflect.TypeFor[C](), func(ctx context.Context) (*ModelMetadata, error) {
		b := NewModelBuilder[C](ctx)
		describe(b)
		return b.Complete(r.converters)
	})
}

type buildingKey struct{}

type buildFrame struct {
	t    reflect.Type
	next *buildFrame
}

func isBuilding(ctx context.Context, t reflect.Type) bool {
	for f, _ := ctx.Value(buildingKey{}).(*buildFrame); f != nil; f = f.next {
		if f.t == t {
			return true
		}
	}
	return false
}

func withBuilding(ctx context.Context, t reflect.Type) context.Context {
	next, _ := ctx.Value(buildingKey{}).(*buildFrame)
	return context.WithValue(ctx, buildingKey{}, &buildFrame{t: t, next: next})
}

// goroutineID reads the current goroutine number from its stack header,
// "goroutine 18 [running]:"
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(field, ' '); i >= 0 {
		field = field[:i]
	}
	id, _ := strconv.ParseUint(string(field), 10, 64)
	return id
}

func typeKey(t reflect.Type) string {
	return t.PkgPath() + "." + t.String()
}

func countEntries(m *ModelMetadata) int {
	n := 0
	m.Walk(func(*EntryMetadata) bool {
		n++
		return true
	})
	return n
}

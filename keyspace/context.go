// Package keyspace binds frozen schema models to a Redis client and hands out
// typed, cached wrappers for the keys they describe.
//
// A consumer declares its keyspace on a struct embedding Context and exposes
// entries through accessors:
//
//	type Forum struct{ keyspace.Context }
//
//	func (f *Forum) DescribeKeyspace(b *schema.ModelBuilder[Forum]) {
//		b.Prefix("pfx")
//		schema.Entry(b, (*Forum).Announcement).MapTo("annt")
//	}
//
//	func (f *Forum) Announcement() *keyspace.String[string] {
//		return keyspace.Child[*keyspace.String[string]](f, "Announcement")
//	}
//
//	forum, err := keyspace.Open[Forum](ctx, client)
//
// A context and the entries it hands out are confined to one goroutine at a
// time. Open a context per goroutine; the frozen model is shared.
package keyspace

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/hyperspace/schema"
)

// Context is the root owner of a keyspace. It holds the frozen model, the
// client every entry issues commands on, and the cache of root entries.
type Context struct {
	model  *schema.ModelMetadata
	client redis.Cmdable
	logger *zap.Logger
	queued bool

	scope owner
}

// Option configures a Context
type Option func(*options)

type options struct {
	registry *schema.Registry
	logger   *zap.Logger
}

// WithRegistry sets the registry models are built in and cached by
func WithRegistry(r *schema.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithLogger sets the logger entries report activations to
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		registry: schema.DefaultRegistry(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type contextual interface {
	keyspaceContext() *Context
}

// Open builds or reuses the model of C, declared by its DescribeKeyspace
// method, and returns a new C bound to client.
func Open[C any, PC interface {
	*C
	schema.Describer[C]
	contextual
}](ctx context.Context, client redis.Cmdable, opts ...Option) (PC, error) {
	o := newOptions(opts)
	model, err := schema.Build(ctx, o.registry, func(b *schema.ModelBuilder[C]) {
		PC(new(C)).DescribeKeyspace(b)
	})
	if err != nil {
		return nil, err
	}

	c := PC(new(C))
	c.keyspaceContext().init(model, client, o.logger)
	return c, nil
}

// NewContext binds a frozen model to client without a consumer type
func NewContext(model *schema.ModelMetadata, client redis.Cmdable, opts ...Option) (*Context, error) {
	if model == nil || !model.IsFrozen() {
		return nil, &schema.InvalidStateError{Op: "NewContext", Reason: "model is not frozen"}
	}
	o := newOptions(opts)
	c := &Context{}
	c.init(model, client, o.logger)
	return c, nil
}

func (c *Context) init(model *schema.ModelMetadata, client redis.Cmdable, logger *zap.Logger) {
	c.model = model
	c.client = client
	c.logger = logger.With(zap.String("model", model.Name()))
	c.scope = owner{kctx: c}
}

func (c *Context) keyspaceContext() *Context { return c }

func (c *Context) owner() *owner { return &c.scope }

// Model returns the frozen model the context is bound to
func (c *Context) Model() *schema.ModelMetadata { return c.model }

// Client returns the client entries issue commands on. Inside Pipelined and
// TxPipelined this is the pipeline.
func (c *Context) Client() redis.Cmdable { return c.client }

// Logger returns the context logger
func (c *Context) Logger() *zap.Logger { return c.logger }

// Queued reports whether commands are being queued on a pipeline
func (c *Context) Queued() bool { return c.queued }

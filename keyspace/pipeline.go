package keyspace

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/conduit-lang/hyperspace/schema"
)

// Pipelined runs fn against a copy of c whose entries queue their commands on
// a pipeline, then sends them in one round trip. Reads inside fn return zero
// values; their replies are in the returned commands, in issue order.
func Pipelined[C any, PC interface {
	*C
	contextual
}](ctx context.Context, c PC, fn func(PC) error) ([]redis.Cmder, error) {
	client, err := pipelineClient(c, "Pipelined")
	if err != nil {
		return nil, err
	}
	return client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(queuedCopy(c, pipe))
	})
}

// TxPipelined is Pipelined wrapped in MULTI/EXEC
func TxPipelined[C any, PC interface {
	*C
	contextual
}](ctx context.Context, c PC, fn func(PC) error) ([]redis.Cmder, error) {
	client, err := pipelineClient(c, "TxPipelined")
	if err != nil {
		return nil, err
	}
	return client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(queuedCopy(c, pipe))
	})
}

// ErrConditionFailed is returned by Watch when a watched key changed before
// the transaction executed. fn may return it to abandon the transaction when
// the state it read does not hold.
var ErrConditionFailed error = redis.TxFailedErr

// IsConditionFailed reports whether err is or wraps ErrConditionFailed
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

type watcher interface {
	Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// Txn is an optimistic transaction started by Watch
type Txn[C any, PC interface {
	*C
	contextual
}] struct {
	tx   *redis.Tx
	view PC
}

// View returns the keyspace bound to the watching connection. Reads are
// answered immediately.
func (t *Txn[C, PC]) View() PC {
	return t.view
}

// Exec queues the commands fn issues and runs them in MULTI/EXEC. It fails
// with ErrConditionFailed when a watched key changed since Watch began.
func (t *Txn[C, PC]) Exec(ctx context.Context, fn func(PC) error) ([]redis.Cmder, error) {
	return t.tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return fn(queuedCopy(t.view, pipe))
	})
}

// Watch runs fn as an optimistic transaction over the keys of watched. fn
// checks the current state through Txn.View and writes through Txn.Exec; the
// writes are discarded and Watch returns ErrConditionFailed if any watched
// key changes in between.
func Watch[C any, PC interface {
	*C
	contextual
}](ctx context.Context, c PC, fn func(*Txn[C, PC]) error, watched ...Handle) error {
	client, err := pipelineClient(c, "Watch")
	if err != nil {
		return err
	}
	w, ok := client.(watcher)
	if !ok {
		return &schema.InvalidStateError{Op: "Watch", Reason: "client does not support WATCH"}
	}
	if len(watched) == 0 {
		return &schema.InvalidStateError{Op: "Watch", Reason: "no entries to watch"}
	}

	keys := make([]string, 0, len(watched))
	for _, h := range watched {
		if h == nil {
			return &schema.InvalidStateError{Op: "Watch", Reason: "nil entry"}
		}
		keys = append(keys, h.entry().key)
	}

	return w.Watch(ctx, func(tx *redis.Tx) error {
		return fn(&Txn[C, PC]{tx: tx, view: boundCopy(c, tx, false)})
	}, keys...)
}

func pipelineClient(c contextual, op string) (redis.Cmdable, error) {
	kctx := c.keyspaceContext()
	switch {
	case kctx.model == nil:
		return nil, &schema.InvalidStateError{Op: op, Reason: "context is not open"}
	case kctx.queued:
		return nil, &schema.InvalidStateError{Op: op, Reason: "context is already queuing on a pipeline"}
	}
	return kctx.client, nil
}

// queuedCopy copies the consumer value and rebinds its context to pipe with
// an empty entry cache, so entries activated inside fn queue on the pipeline.
func queuedCopy[C any, PC interface {
	*C
	contextual
}](c PC, pipe redis.Pipeliner) PC {
	return boundCopy(c, pipe, true)
}

func boundCopy[C any, PC interface {
	*C
	contextual
}](c PC, client redis.Cmdable, queued bool) PC {
	cp := PC(new(C))
	*cp = *c
	kctx := cp.keyspaceContext()
	kctx.client = client
	kctx.queued = queued
	kctx.scope = owner{kctx: kctx}
	return cp
}

package keyspace

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/puzpuzpuz/xsync/v4"
)

// Codec converts values to and from their stored string form
type Codec[V any] interface {
	Encode(v V) (string, error)
	Decode(s string) (V, error)
}

type funcCodec[V any] struct {
	encode func(V) (string, error)
	decode func(string) (V, error)
}

func (c funcCodec[V]) Encode(v V) (string, error) { return c.encode(v) }
func (c funcCodec[V]) Decode(s string) (V, error) { return c.decode(s) }

// NewCodec builds a Codec from a pair of functions
func NewCodec[V any](encode func(V) (string, error), decode func(string) (V, error)) Codec[V] {
	return funcCodec[V]{encode: encode, decode: decode}
}

// JSONCodec stores values as JSON documents
func JSONCodec[V any]() Codec[V] {
	return NewCodec(
		func(v V) (string, error) {
			data, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("encode %T: %w", v, err)
			}
			return string(data), nil
		},
		func(s string) (V, error) {
			var v V
			if err := json.Unmarshal([]byte(s), &v); err != nil {
				return v, fmt.Errorf("decode %T: %w", v, err)
			}
			return v, nil
		},
	)
}

var codecs = xsync.NewMap[reflect.Type, any]()

// RegisterCodec replaces the codec used for values of type V
func RegisterCodec[V any](c Codec[V]) {
	codecs.Store(reflect.TypeFor[V](), c)
}

// CodecFor returns the codec for V. Strings and byte slices are stored
// verbatim; every other type defaults to JSON, which keeps numbers in the
// decimal form INCR and INCRBYFLOAT expect.
func CodecFor[V any]() Codec[V] {
	c, _ := codecs.LoadOrCompute(reflect.TypeFor[V](), func() (any, bool) {
		return defaultCodec[V](), false
	})
	return c.(Codec[V])
}

func defaultCodec[V any]() Codec[V] {
	var zero V
	switch any(zero).(type) {
	case string:
		return any(NewCodec(
			func(v string) (string, error) { return v, nil },
			func(s string) (string, error) { return s, nil },
		)).(Codec[V])
	case []byte:
		return any(NewCodec(
			func(v []byte) (string, error) { return string(v), nil },
			func(s string) ([]byte, error) { return []byte(s), nil },
		)).(Codec[V])
	default:
		return JSONCodec[V]()
	}
}

func encodeAll[V any](c Codec[V], values []V) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		s, err := c.Encode(v)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func decodeAll[V any](c Codec[V], values []string) ([]V, error) {
	out := make([]V, len(values))
	for i, s := range values {
		v, err := c.Decode(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

package schema

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IdentifierConverter turns entry-set identifiers into key segments and back.
// The same identifier type must always format to the same string within one
// schema, so converters have to be deterministic.
type IdentifierConverter interface {
	// Type returns the identifier type the converter accepts
	Type() reflect.Type
	// Format renders an identifier as a key segment
	Format(id any) (string, error)
	// Parse reads a key segment back into an identifier
	Parse(s string) (any, error)
}

type converter[I any] struct {
	format func(I) string
	parse  func(string) (I, error)
}

// NewConverter builds an IdentifierConverter from a typed pair of functions
func NewConverter[I any](format func(I) string, parse func(string) (I, error)) IdentifierConverter {
	return &converter[I]{format: format, parse: parse}
}

func (c *converter[I]) Type() reflect.Type {
	return reflect.TypeFor[I]()
}

func (c *converter[I]) Format(id any) (string, error) {
	v, ok := id.(I)
	if !ok {
		return "", &TypeMismatchError{Name: "identifier", Expected: c.Type(), Actual: reflect.TypeOf(id)}
	}
	return c.format(v), nil
}

func (c *converter[I]) Parse(s string) (any, error) {
	return c.parse(s)
}

// Converters is a table of identifier converters keyed by identifier type.
// It is safe for concurrent use.
type Converters struct {
	mu     sync.RWMutex
	byType map[reflect.Type]IdentifierConverter
}

// NewConverters returns a table preloaded with the built-in converters:
// string, signed and unsigned integers, and uuid.UUID.
func NewConverters() *Converters {
	c := &Converters{byType: make(map[reflect.Type]IdentifierConverter)}
	c.Register(NewConverter(func(s string) string { return s }, func(s string) (string, error) { return s, nil }))
	c.Register(NewConverter(strconv.Itoa, strconv.Atoi))
	registerInt[int8](c, 8)
	registerInt[int16](c, 16)
	registerInt[int32](c, 32)
	registerInt[int64](c, 64)
	registerUint[uint](c, 0)
	registerUint[uint8](c, 8)
	registerUint[uint16](c, 16)
	registerUint[uint32](c, 32)
	registerUint[uint64](c, 64)
	c.Register(NewConverter(uuid.UUID.String, uuid.Parse))
	return c
}

func registerInt[I ~int8 | ~int16 | ~int32 | ~int64](c *Converters, bits int) {
	c.Register(NewConverter(
		func(v I) string { return strconv.FormatInt(int64(v), 10) },
		func(s string) (I, error) {
			n, err := strconv.ParseInt(s, 10, bits)
			return I(n), err
		},
	))
}

func registerUint[I ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64](c *Converters, bits int) {
	c.Register(NewConverter(
		func(v I) string { return strconv.FormatUint(uint64(v), 10) },
		func(s string) (I, error) {
			n, err := strconv.ParseUint(s, 10, bits)
			return I(n), err
		},
	))
}

// Register installs conv for its identifier type, replacing any previous one
func (c *Converters) Register(conv IdentifierConverter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byType[conv.Type()] = conv
}

// Lookup returns the converter for t. Types without a registered converter
// fall back to encoding.TextMarshaler/TextUnmarshaler when they implement both.
func (c *Converters) Lookup(t reflect.Type) (IdentifierConverter, bool) {
	c.mu.RLock()
	conv, ok := c.byType[t]
	c.mu.RUnlock()
	if ok {
		return conv, true
	}

	conv, ok = textConverter(t)
	if !ok {
		return nil, false
	}
	c.Register(conv)
	return conv, true
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

type textIdentifier struct {
	t reflect.Type
}

func textConverter(t reflect.Type) (IdentifierConverter, bool) {
	if t == nil || t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return nil, false
	}
	if !t.Implements(textMarshalerType) || !reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return nil, false
	}
	return &textIdentifier{t: t}, true
}

func (c *textIdentifier) Type() reflect.Type { return c.t }

func (c *textIdentifier) Format(id any) (string, error) {
	if reflect.TypeOf(id) != c.t {
		return "", &TypeMismatchError{Name: "identifier", Expected: c.t, Actual: reflect.TypeOf(id)}
	}
	text, err := id.(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return "", fmt.Errorf("format identifier: %w", err)
	}
	return string(text), nil
}

func (c *textIdentifier) Parse(s string) (any, error) {
	v := reflect.New(c.t)
	if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, fmt.Errorf("parse identifier: %w", err)
	}
	return v.Elem().Interface(), nil
}

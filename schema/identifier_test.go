package schema

import (
	"net/netip"
	"reflect"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverters_BuiltIn(t *testing.T) {
	c := NewConverters()

	tests := []struct {
		name string
		id   any
		want string
	}{
		{name: "string", id: "abc", want: "abc"},
		{name: "int", id: 42, want: "42"},
		{name: "int8", id: int8(-8), want: "-8"},
		{name: "int64", id: int64(1) << 40, want: "1099511627776"},
		{name: "uint", id: uint(7), want: "7"},
		{name: "uint16", id: uint16(65535), want: "65535"},
		{name: "uuid", id: uuid.MustParse("11111111-1111-1111-1111-111111111111"), want: "11111111-1111-1111-1111-111111111111"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, ok := c.Lookup(reflect.TypeOf(tt.id))
			require.True(t, ok)

			s, err := conv.Format(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s)

			back, err := conv.Parse(s)
			require.NoError(t, err)
			assert.Equal(t, tt.id, back)
		})
	}
}

func TestConverters_ParseErrors(t *testing.T) {
	c := NewConverters()

	conv, ok := c.Lookup(reflect.TypeFor[uint8]())
	require.True(t, ok)
	_, err := conv.Parse("256")
	assert.Error(t, err)

	conv, ok = c.Lookup(reflect.TypeFor[uuid.UUID]())
	require.True(t, ok)
	_, err = conv.Parse("not-a-uuid")
	assert.Error(t, err)
}

func TestConverters_FormatTypeMismatch(t *testing.T) {
	conv, ok := NewConverters().Lookup(reflect.TypeFor[int64]())
	require.True(t, ok)

	_, err := conv.Format(42)
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
}

func TestConverters_TextMarshalerFallback(t *testing.T) {
	c := NewConverters()
	addr := netip.MustParseAddr("10.0.0.1")

	conv, ok := c.Lookup(reflect.TypeFor[netip.Addr]())
	require.True(t, ok)

	s, err := conv.Format(addr)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", s)

	back, err := conv.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, addr, back)

	_, err = conv.Format("10.0.0.1")
	assert.True(t, IsTypeMismatch(err))

	_, err = conv.Parse("not-an-ip")
	assert.Error(t, err)
}

func TestConverters_Unknown(t *testing.T) {
	_, ok := NewConverters().Lookup(reflect.TypeFor[opaqueID]())
	assert.False(t, ok)

	_, ok = NewConverters().Lookup(reflect.TypeFor[*netip.Addr]())
	assert.False(t, ok, "pointer identifiers are not supported")
}

type ticket int

func TestConverters_Register(t *testing.T) {
	c := NewConverters()
	c.Register(NewConverter(
		func(v ticket) string { return "T" + strconv.Itoa(int(v)) },
		func(s string) (ticket, error) {
			n, err := strconv.Atoi(s[1:])
			return ticket(n), err
		},
	))

	conv, ok := c.Lookup(reflect.TypeFor[ticket]())
	require.True(t, ok)
	s, err := conv.Format(ticket(9))
	require.NoError(t, err)
	assert.Equal(t, "T9", s)

	_, ok = NewConverters().Lookup(reflect.TypeFor[ticket]())
	assert.False(t, ok, "tables are independent")
}

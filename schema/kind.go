package schema

import (
	"fmt"
	"reflect"
)

// EntryKind is the Redis data type backing an entry
type EntryKind int

const (
	// KindUnknown marks a node whose kind has not been determined yet
	KindUnknown EntryKind = iota
	KindString
	KindList
	KindHash
	KindSet
	KindSortedSet
)

// String returns the Redis name of the kind, as reported by TYPE
func (k EntryKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindSortedSet:
		return "zset"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Valid reports whether k is one of the declared kinds
func (k EntryKind) Valid() bool {
	return k >= KindString && k <= KindSortedSet
}

// ParseEntryKind converts a Redis TYPE reply into an EntryKind
func ParseEntryKind(s string) (EntryKind, error) {
	switch s {
	case "string":
		return KindString, nil
	case "list":
		return KindList, nil
	case "hash":
		return KindHash, nil
	case "set":
		return KindSet, nil
	case "zset":
		return KindSortedSet, nil
	default:
		return KindUnknown, fmt.Errorf("unknown entry kind %q", s)
	}
}

// Kinded is implemented by wrapper types that map onto a single Redis key.
type Kinded interface {
	EntryKind() EntryKind
}

// Valued is optionally implemented by wrappers to tag the Go type of the
// values they store.
type Valued interface {
	ValueType() reflect.Type
}

// SetDescriptor is implemented by entry-set wrapper types. The methods must
// not depend on instance state; they are called on zero values at build time.
type SetDescriptor interface {
	IdentifierType() reflect.Type
	ItemType() reflect.Type
}

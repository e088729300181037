// Package schema describes how a Go object graph maps onto a flat Redis
// keyspace. A model is declared once per context type with a ModelBuilder,
// validated and sealed by Freeze, cached in a Registry, and afterwards read
// concurrently without locks.
package schema

import (
	"reflect"
	"strings"
)

// element carries the mutable-until-frozen state shared by every metadata node
type element struct {
	frozen bool
}

// IsFrozen reports whether the element has been sealed
func (e *element) IsFrozen() bool {
	return e.frozen
}

func (e *element) verifyChange(op string) error {
	if e.frozen {
		return frozenErr(op)
	}
	return nil
}

// ModelMetadata is the root of a keyspace schema
type ModelMetadata struct {
	element

	name     string
	prefix   string
	rootType reflect.Type
	children []*EntryMetadata

	index map[string]*EntryMetadata
}

// NewModelMetadata creates an empty, unfrozen model for the given root type
func NewModelMetadata(rootType reflect.Type) *ModelMetadata {
	m := &ModelMetadata{rootType: rootType}
	if rootType != nil {
		m.name = rootType.Name()
	}
	return m
}

// Name returns the model name (defaults to the root type name)
func (m *ModelMetadata) Name() string { return m.name }

// Prefix returns the outermost key segment, or "" when none is set
func (m *ModelMetadata) Prefix() string { return m.prefix }

// RootType returns the Go type the model was declared for
func (m *ModelMetadata) RootType() reflect.Type { return m.rootType }

// SetName overrides the model name
func (m *ModelMetadata) SetName(name string) error {
	if err := m.verifyChange("SetName"); err != nil {
		return err
	}
	m.name = name
	return nil
}

// SetPrefix sets the outermost key segment
func (m *ModelMetadata) SetPrefix(prefix string) error {
	if err := m.verifyChange("SetPrefix"); err != nil {
		return err
	}
	m.prefix = prefix
	return nil
}

// Children returns the root entries in declaration order
func (m *ModelMetadata) Children() []*EntryMetadata {
	out := make([]*EntryMetadata, len(m.children))
	copy(out, m.children)
	return out
}

// AddChild attaches a root entry to the model
func (m *ModelMetadata) AddChild(child *EntryMetadata) error {
	if err := m.verifyChange("AddChild"); err != nil {
		return err
	}
	if err := child.verifyChange("AddChild"); err != nil {
		return err
	}
	child.model = m
	child.parent = nil
	m.children = append(m.children, child)
	return nil
}

// Child returns the root entry declared under name. Only available once frozen.
func (m *ModelMetadata) Child(name string) (*EntryMetadata, bool) {
	child, ok := m.index[name]
	return child, ok
}

// Walk visits every entry depth-first, parents before children. Returning
// false from fn skips the entry's subtree.
func (m *ModelMetadata) Walk(fn func(*EntryMetadata) bool) {
	var visit func(*EntryMetadata)
	visit = func(e *EntryMetadata) {
		if !fn(e) {
			return
		}
		for _, c := range e.children {
			visit(c)
		}
	}
	for _, c := range m.children {
		visit(c)
	}
}

// EntryMetadata describes one node of the keyspace tree
type EntryMetadata struct {
	element

	model  *ModelMetadata
	parent *EntryMetadata

	name        string
	alias       string
	kind        EntryKind
	valueType   reflect.Type
	wrapperType reflect.Type

	isEntrySet bool
	isItem     bool

	// entry-set declaration state
	identifierName     string
	identifierType     reflect.Type
	identifierCalls    int
	identifierItemType reflect.Type
	converter          IdentifierConverter
	setIdentifierType  reflect.Type
	setItemType        reflect.Type

	children []*EntryMetadata

	// derived at freeze
	template *KeyTemplate
	index    map[string]*EntryMetadata
}

// NewEntryMetadata creates a single-valued node
func NewEntryMetadata(name string) *EntryMetadata {
	return &EntryMetadata{name: name}
}

// NewEntrySetMetadata creates an identifier-indexed node. Its only child is
// the item template.
func NewEntrySetMetadata(name string) *EntryMetadata {
	return &EntryMetadata{
		name:       name,
		isEntrySet: true,
		children:   make([]*EntryMetadata, 0, 1),
	}
}

// Name returns the declared member name
func (e *EntryMetadata) Name() string { return e.name }

// Alias returns the key segment override, or ""
func (e *EntryMetadata) Alias() string { return e.alias }

// Segment returns the effective key segment: the alias when set, else the name
func (e *EntryMetadata) Segment() string {
	if e.alias != "" {
		return e.alias
	}
	return e.name
}

// Kind returns the Redis data type of the entry
func (e *EntryMetadata) Kind() EntryKind { return e.kind }

// ValueType returns the Go type of stored values, when known
func (e *EntryMetadata) ValueType() reflect.Type { return e.valueType }

// WrapperType returns the Go type used to access the entry at runtime
func (e *EntryMetadata) WrapperType() reflect.Type { return e.wrapperType }

// IdentifierType returns the identifier type of an entry-set
func (e *EntryMetadata) IdentifierType() reflect.Type { return e.identifierType }

// IdentifierName returns the item member that exposes the identifier
func (e *EntryMetadata) IdentifierName() string { return e.identifierName }

// Converter returns the identifier converter of an entry-set. Resolved at freeze.
func (e *EntryMetadata) Converter() IdentifierConverter { return e.converter }

// Parent returns the enclosing entry, or nil for root entries
func (e *EntryMetadata) Parent() *EntryMetadata { return e.parent }

// Model returns the model the entry belongs to
func (e *EntryMetadata) Model() *ModelMetadata { return e.model }

// IsEntrySet reports whether children are instantiated per identifier
func (e *EntryMetadata) IsEntrySet() bool { return e.isEntrySet }

// IsItem reports whether the entry is the item template of an entry-set
func (e *EntryMetadata) IsItem() bool { return e.isItem }

// Children returns the child entries in declaration order
func (e *EntryMetadata) Children() []*EntryMetadata {
	out := make([]*EntryMetadata, len(e.children))
	copy(out, e.children)
	return out
}

// Item returns the item template of an entry-set
func (e *EntryMetadata) Item() (*EntryMetadata, bool) {
	if !e.isEntrySet || len(e.children) != 1 {
		return nil, false
	}
	return e.children[0], true
}

// Child returns the child declared under name. Only available once frozen.
func (e *EntryMetadata) Child(name string) (*EntryMetadata, bool) {
	child, ok := e.index[name]
	return child, ok
}

// Template returns the key template computed at freeze, or nil before
func (e *EntryMetadata) Template() *KeyTemplate { return e.template }

// Path returns a dotted declaration path such as Forum.Discussions[ID].Title
func (e *EntryMetadata) Path() string {
	var parts []string
	for n := e; n != nil; n = n.parent {
		if n.isItem {
			parts = append(parts, "["+n.placeholderName()+"]")
			continue
		}
		parts = append(parts, n.name)
	}
	var b strings.Builder
	if e.model != nil && e.model.name != "" {
		b.WriteString(e.model.name)
	}
	for i := len(parts) - 1; i >= 0; i-- {
		if !strings.HasPrefix(parts[i], "[") && b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(parts[i])
	}
	return b.String()
}

func (e *EntryMetadata) placeholderName() string {
	if e.parent != nil && e.parent.identifierName != "" {
		return e.parent.identifierName
	}
	return "*"
}

// SetName sets the declared member name
func (e *EntryMetadata) SetName(name string) error {
	if err := e.verifyChange("SetName"); err != nil {
		return err
	}
	e.name = name
	return nil
}

// SetAlias sets the key segment override
func (e *EntryMetadata) SetAlias(alias string) error {
	if err := e.verifyChange("SetAlias"); err != nil {
		return err
	}
	e.alias = alias
	return nil
}

// SetKind sets the Redis data type
func (e *EntryMetadata) SetKind(kind EntryKind) error {
	if err := e.verifyChange("SetKind"); err != nil {
		return err
	}
	e.kind = kind
	return nil
}

// SetValueType tags the Go type of stored values
func (e *EntryMetadata) SetValueType(t reflect.Type) error {
	if err := e.verifyChange("SetValueType"); err != nil {
		return err
	}
	e.valueType = t
	return nil
}

// SetWrapperType tags the Go type used to access the entry
func (e *EntryMetadata) SetWrapperType(t reflect.Type) error {
	if err := e.verifyChange("SetWrapperType"); err != nil {
		return err
	}
	e.wrapperType = t
	return nil
}

// SetSetTypes records the identifier and item types an entry-set wrapper declares
func (e *EntryMetadata) SetSetTypes(identifier, item reflect.Type) error {
	if err := e.verifyChange("SetSetTypes"); err != nil {
		return err
	}
	e.setIdentifierType = identifier
	e.setItemType = item
	return nil
}

// SetIdentifier records an Identifier declaration. Every call is counted;
// freezing requires exactly one.
func (e *EntryMetadata) SetIdentifier(member string, t, itemType reflect.Type) error {
	if err := e.verifyChange("SetIdentifier"); err != nil {
		return err
	}
	e.identifierCalls++
	e.identifierName = member
	e.identifierType = t
	e.identifierItemType = itemType
	return nil
}

// SetConverter pins an identifier converter for this entry-set
func (e *EntryMetadata) SetConverter(c IdentifierConverter) error {
	if err := e.verifyChange("SetConverter"); err != nil {
		return err
	}
	e.converter = c
	return nil
}

// AddChild attaches a child entry. Entry-set templates are added with AddItem.
func (e *EntryMetadata) AddChild(child *EntryMetadata) error {
	if err := e.verifyChange("AddChild"); err != nil {
		return err
	}
	if err := child.verifyChange("AddChild"); err != nil {
		return err
	}
	child.parent = e
	child.model = e.model
	e.children = append(e.children, child)
	return nil
}

// AddItem attaches an item template to an entry-set
func (e *EntryMetadata) AddItem(item *EntryMetadata) error {
	if err := e.AddChild(item); err != nil {
		return err
	}
	item.isItem = true
	return nil
}

// setModel propagates the model pointer through a subtree built before it
// was attached to the root.
func (e *EntryMetadata) setModel(m *ModelMetadata) {
	e.model = m
	for _, c := range e.children {
		c.setModel(m)
	}
}

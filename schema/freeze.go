package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// ConverterLookup resolves identifier converters by type during freeze
type ConverterLookup interface {
	Lookup(t reflect.Type) (IdentifierConverter, bool)
}

var defaultConverters = NewConverters()

// DefaultConverters returns the process-wide converter table used by Freeze
func DefaultConverters() *Converters {
	return defaultConverters
}

// Freeze validates the model with the default converter table and seals it.
// See FreezeWith.
func (m *ModelMetadata) Freeze() error {
	return m.FreezeWith(defaultConverters)
}

// FreezeWith validates every invariant of the tree, computes key templates
// and child indexes, and marks every node frozen. It is the only validation
// gate: builders accept any shape and problems surface here, all at once.
// A model can be frozen once; later calls return an InvalidStateError.
func (m *ModelMetadata) FreezeWith(converters ConverterLookup) error {
	if m.frozen {
		return &InvalidStateError{Op: "Freeze", Reason: "model " + m.name + " is already frozen"}
	}

	v := &freezeValidator{converters: converters}
	for _, c := range m.children {
		c.setModel(m)
	}
	v.checkSiblings(m.name, m.children)
	for _, c := range m.children {
		v.validate(c)
	}
	if len(v.problems) > 0 {
		return &ConfigurationError{Model: m.name, Problems: v.problems}
	}

	for _, c := range m.children {
		seal(c)
	}
	m.index = indexChildren(m.children)
	m.frozen = true
	return nil
}

type freezeValidator struct {
	converters ConverterLookup
	problems   []string
}

func (v *freezeValidator) addf(e *EntryMetadata, format string, args ...any) {
	v.problems = append(v.problems, e.Path()+": "+fmt.Sprintf(format, args...))
}

// validate checks e's subtree post-order
func (v *freezeValidator) validate(e *EntryMetadata) {
	if e.frozen {
		v.addf(e, "entry is already frozen")
		return
	}

	v.checkSiblings(e.Path(), e.children)
	for _, c := range e.children {
		v.validate(c)
	}

	if e.isItem && e.alias != "" {
		v.addf(e, "item templates contribute their identifier and cannot be aliased")
	}
	if !e.isItem {
		switch {
		case e.name == "":
			v.addf(e, "entry has no name")
		case strings.Contains(e.Segment(), Separator):
			v.addf(e, "key segment %q contains %q", e.Segment(), Separator)
		}
	}

	if e.isEntrySet {
		v.validateEntrySet(e)
		return
	}
	if !e.kind.Valid() {
		v.addf(e, "wrapper type %s does not declare an entry kind", typeName(e.wrapperType))
	}
}

func (v *freezeValidator) validateEntrySet(e *EntryMetadata) {
	switch {
	case len(e.children) == 0:
		v.addf(e, "entry-set declares no item template")
	case len(e.children) > 1:
		v.addf(e, "entry-set declares %d item templates, expected exactly one", len(e.children))
	default:
		item := e.children[0]
		if e.setItemType != nil && item.wrapperType != nil && item.wrapperType != e.setItemType {
			v.addf(e, "item template type %s does not match entry-set item type %s",
				item.wrapperType, e.setItemType)
		}
		// an entry-set's kind is the kind of its items
		if !item.isEntrySet {
			e.kind = item.kind
		}
	}

	switch {
	case e.identifierCalls == 0:
		v.addf(e, "entry-set has no Identifier declaration")
		return
	case e.identifierCalls > 1:
		v.addf(e, "entry-set declares Identifier %d times, expected exactly one", e.identifierCalls)
		return
	}

	if e.setIdentifierType != nil && e.identifierType != e.setIdentifierType {
		v.addf(e, "identifier %s has type %s, entry-set is indexed by %s",
			e.identifierName, typeName(e.identifierType), e.setIdentifierType)
	}
	if e.setItemType != nil && e.identifierItemType != nil && e.identifierItemType != e.setItemType {
		v.addf(e, "identifier %s is declared on %s, entry-set items are %s",
			e.identifierName, e.identifierItemType, e.setItemType)
	}

	if e.converter != nil {
		if e.converter.Type() != e.identifierType {
			v.addf(e, "identifier converter handles %s, identifier is %s",
				e.converter.Type(), typeName(e.identifierType))
		}
		return
	}
	conv, ok := v.converters.Lookup(e.identifierType)
	if !ok {
		v.addf(e, "no identifier converter registered for %s", typeName(e.identifierType))
		return
	}
	e.converter = conv
}

// checkSiblings rejects two non-item siblings sharing an effective segment
func (v *freezeValidator) checkSiblings(path string, children []*EntryMetadata) {
	seen := make(map[string]string, len(children))
	for _, c := range children {
		if c.isItem {
			continue
		}
		seg := c.Segment()
		if other, dup := seen[seg]; dup {
			v.problems = append(v.problems, fmt.Sprintf("%s: entries %s and %s both map to key segment %q",
				path, other, c.name, seg))
			continue
		}
		seen[seg] = c.name
	}
}

// seal computes derived state parents-first, then freezes children before
// their parent.
func seal(e *EntryMetadata) {
	e.template = newKeyTemplate(e)
	for _, c := range e.children {
		seal(c)
	}
	e.index = indexChildren(e.children)
	e.frozen = true
}

func indexChildren(children []*EntryMetadata) map[string]*EntryMetadata {
	index := make(map[string]*EntryMetadata, len(children))
	for _, c := range children {
		if c.isItem {
			continue
		}
		index[c.name] = c
	}
	return index
}

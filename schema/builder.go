package schema

import (
	"context"
	"fmt"
	"reflect"
)

// builderState collects selector problems across a model's sub-builders.
// Shape problems are left to Freeze.
type builderState struct {
	problems []string
}

func (s *builderState) addf(path string, err error) {
	if path == "" {
		s.problems = append(s.problems, err.Error())
		return
	}
	s.problems = append(s.problems, path+": "+err.Error())
}

func (s *builderState) record(err error) {
	if err != nil {
		s.addf("", err)
	}
}

// ModelBuilder declares the keyspace of the context type C. Selectors are
// method expressions on C or on wrapper types, e.g.
//
//	schema.Entry(b, (*Forum).Announcement).MapTo("annt")
//	set := schema.EntrySet(b, (*Forum).Discussions).MapTo("dscs")
//	schema.Identifier(set, (*Discussion).ID)
//	schema.EntryItem(set, func(d *schema.EntryBuilder[*Discussion]) {
//		schema.SubEntry(d, (*Discussion).Title)
//	})
//
// A ModelBuilder is not safe for concurrent use.
type ModelBuilder[C any] struct {
	ctx   context.Context
	model *ModelMetadata
	state *builderState
}

// NewModelBuilder starts an empty model for C
func NewModelBuilder[C any](ctx context.Context) *ModelBuilder[C] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ModelBuilder[C]{
		ctx:   ctx,
		model: NewModelMetadata(reflect.TypeFor[C]()),
		state: &builderState{},
	}
}

// Context returns the build context. Nested Build calls made while declaring
// a model should pass it on, in particular from goroutines the declaration
// starts itself.
func (b *ModelBuilder[C]) Context() context.Context {
	return b.ctx
}

// Name overrides the model name
func (b *ModelBuilder[C]) Name(name string) *ModelBuilder[C] {
	b.state.record(b.model.SetName(name))
	return b
}

// Prefix sets the outermost key segment of every key in the model
func (b *ModelBuilder[C]) Prefix(prefix string) *ModelBuilder[C] {
	b.state.record(b.model.SetPrefix(prefix))
	return b
}

// Metadata returns the model being built
func (b *ModelBuilder[C]) Metadata() *ModelMetadata {
	return b.model
}

// Complete reports selector problems, then freezes the model
func (b *ModelBuilder[C]) Complete(converters ConverterLookup) (*ModelMetadata, error) {
	if len(b.state.problems) > 0 {
		problems := make([]string, len(b.state.problems))
		copy(problems, b.state.problems)
		return nil, &ConfigurationError{Model: b.model.name, Problems: problems}
	}
	if err := b.model.FreezeWith(converters); err != nil {
		return nil, err
	}
	return b.model, nil
}

// EntryBuilder configures a single-valued entry whose wrapper type is W
type EntryBuilder[W any] struct {
	state *builderState
	meta  *EntryMetadata
}

// MapTo sets the key segment emitted for the entry instead of its name
func (b *EntryBuilder[W]) MapTo(alias string) *EntryBuilder[W] {
	b.state.record(b.meta.SetAlias(alias))
	return b
}

// ShortName is an alias of MapTo
func (b *EntryBuilder[W]) ShortName(alias string) *EntryBuilder[W] {
	return b.MapTo(alias)
}

// With runs build against b, for nesting declarations inline
func (b *EntryBuilder[W]) With(build func(*EntryBuilder[W])) *EntryBuilder[W] {
	build(b)
	return b
}

// Metadata returns the node being built
func (b *EntryBuilder[W]) Metadata() *EntryMetadata {
	return b.meta
}

// EntrySetBuilder configures an identifier-indexed entry
type EntrySetBuilder struct {
	state *builderState
	meta  *EntryMetadata
}

// MapTo sets the key segment emitted for the entry-set instead of its name
func (b *EntrySetBuilder) MapTo(alias string) *EntrySetBuilder {
	b.state.record(b.meta.SetAlias(alias))
	return b
}

// ShortName is an alias of MapTo
func (b *EntrySetBuilder) ShortName(alias string) *EntrySetBuilder {
	return b.MapTo(alias)
}

// Converter pins the identifier converter used for this entry-set
func (b *EntrySetBuilder) Converter(c IdentifierConverter) *EntrySetBuilder {
	b.state.record(b.meta.SetConverter(c))
	return b
}

// With runs build against b, for nesting declarations inline
func (b *EntrySetBuilder) With(build func(*EntrySetBuilder)) *EntrySetBuilder {
	build(b)
	return b
}

// Metadata returns the node being built
func (b *EntrySetBuilder) Metadata() *EntryMetadata {
	return b.meta
}

// Entry declares a root entry read by sel
func Entry[C any, W Kinded](b *ModelBuilder[C], sel func(*C) W) *EntryBuilder[W] {
	meta := newEntryNode[W](b.state, b.model.name, sel, reflect.TypeFor[*C]())
	if meta.name != "" {
		b.state.record(b.model.AddChild(meta))
	}
	return &EntryBuilder[W]{state: b.state, meta: meta}
}

// EntrySet declares a root entry-set read by sel. The returned builder needs
// exactly one Identifier call and one item template.
func EntrySet[C any, S SetDescriptor](b *ModelBuilder[C], sel func(*C) S) *EntrySetBuilder {
	meta := newEntrySetNode[S](b.state, b.model.name, sel, reflect.TypeFor[*C]())
	if meta.name != "" {
		b.state.record(b.model.AddChild(meta))
	}
	return &EntrySetBuilder{state: b.state, meta: meta}
}

// SubEntry declares a child entry of the entry built by b
func SubEntry[P any, W Kinded](b *EntryBuilder[P], sel func(P) W) *EntryBuilder[W] {
	meta := newEntryNode[W](b.state, b.meta.Path(), sel, reflect.TypeFor[P]())
	if meta.name != "" {
		b.state.record(b.meta.AddChild(meta))
	}
	return &EntryBuilder[W]{state: b.state, meta: meta}
}

// SubEntrySet declares a child entry-set of the entry built by b
func SubEntrySet[P any, S SetDescriptor](b *EntryBuilder[P], sel func(P) S) *EntrySetBuilder {
	meta := newEntrySetNode[S](b.state, b.meta.Path(), sel, reflect.TypeFor[P]())
	if meta.name != "" {
		b.state.record(b.meta.AddChild(meta))
	}
	return &EntrySetBuilder{state: b.state, meta: meta}
}

// Identifier declares the item member that exposes the identifier. Its
// return type is the identifier type.
func Identifier[W any, I any](b *EntrySetBuilder, sel func(W) I) *EntrySetBuilder {
	member, err := memberName(sel, reflect.TypeFor[W]())
	if err != nil {
		b.state.addf(b.meta.Path(), err)
		return b
	}
	b.state.record(b.meta.SetIdentifier(member, reflect.TypeFor[I](), reflect.TypeFor[W]()))
	return b
}

// EntryItem declares the template shared by every item of the entry-set
func EntryItem[W Kinded](b *EntrySetBuilder, build func(*EntryBuilder[W])) *EntrySetBuilder {
	item := NewEntryMetadata("")
	describeEntry[W](b.state, item)
	b.state.record(b.meta.AddItem(item))
	if build != nil {
		build(&EntryBuilder[W]{state: b.state, meta: item})
	}
	return b
}

// EntrySetItem declares an item template that is itself an entry-set
func EntrySetItem[S SetDescriptor](b *EntrySetBuilder, build func(*EntrySetBuilder)) *EntrySetBuilder {
	item := NewEntrySetMetadata("")
	describeEntrySet[S](b.state, item)
	b.state.record(b.meta.AddItem(item))
	if build != nil {
		build(&EntrySetBuilder{state: b.state, meta: item})
	}
	return b
}

func newEntryNode[W Kinded](state *builderState, path string, sel any, recv reflect.Type) *EntryMetadata {
	name, err := memberName(sel, recv)
	if err != nil {
		state.addf(path, err)
	}
	meta := NewEntryMetadata(name)
	describeEntry[W](state, meta)
	return meta
}

func newEntrySetNode[S SetDescriptor](state *builderState, path string, sel any, recv reflect.Type) *EntryMetadata {
	name, err := memberName(sel, recv)
	if err != nil {
		state.addf(path, err)
	}
	meta := NewEntrySetMetadata(name)
	describeEntrySet[S](state, meta)
	return meta
}

func describeEntry[W Kinded](state *builderState, meta *EntryMetadata) {
	state.record(meta.SetWrapperType(reflect.TypeFor[W]()))
	if !probeable(reflect.TypeFor[W]()) {
		state.addf(meta.name, fmt.Errorf("wrapper type %s must be a pointer to a struct", reflect.TypeFor[W]()))
		return
	}
	w := probe[W]()
	state.record(meta.SetKind(w.EntryKind()))
	if valued, ok := any(w).(Valued); ok {
		state.record(meta.SetValueType(valued.ValueType()))
	}
}

func describeEntrySet[S SetDescriptor](state *builderState, meta *EntryMetadata) {
	state.record(meta.SetWrapperType(reflect.TypeFor[S]()))
	if !probeable(reflect.TypeFor[S]()) {
		state.addf(meta.name, fmt.Errorf("entry-set type %s must be a pointer to a struct", reflect.TypeFor[S]()))
		return
	}
	s := probe[S]()
	state.record(meta.SetSetTypes(s.IdentifierType(), s.ItemType()))
}

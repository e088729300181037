package schema

import (
	"fmt"
	"strings"
)

// Separator joins key segments
const Separator = ":"

// KeyTemplate is the frozen key path of an entry. Literal chunks are
// precomputed at freeze; only identifier segments are formatted per call.
//
// A template with n placeholders has n+1 chunks:
//
//	chunks[0] id[0] chunks[1] id[1] ... chunks[n]
type KeyTemplate struct {
	chunks       []string
	placeholders []placeholder
}

type placeholder struct {
	name      string
	converter IdentifierConverter
}

// newKeyTemplate walks from the outermost ancestor to e. An item node
// contributes a placeholder bound to its entry-set's converter.
func newKeyTemplate(e *EntryMetadata) *KeyTemplate {
	var lineage []*EntryMetadata
	for n := e; n != nil; n = n.parent {
		lineage = append(lineage, n)
	}

	t := &KeyTemplate{}
	var b strings.Builder
	first := true
	if e.model != nil && e.model.prefix != "" {
		b.WriteString(e.model.prefix)
		first = false
	}
	for i := len(lineage) - 1; i >= 0; i-- {
		n := lineage[i]
		if !first {
			b.WriteString(Separator)
		}
		first = false
		if n.isItem {
			t.chunks = append(t.chunks, b.String())
			b.Reset()
			t.placeholders = append(t.placeholders, placeholder{
				name:      n.placeholderName(),
				converter: n.parent.converter,
			})
			continue
		}
		b.WriteString(n.Segment())
	}
	t.chunks = append(t.chunks, b.String())
	return t
}

// Placeholders returns the number of identifiers Resolve expects
func (t *KeyTemplate) Placeholders() int {
	return len(t.placeholders)
}

// Static returns the full key of a template without placeholders
func (t *KeyTemplate) Static() (string, bool) {
	if len(t.placeholders) > 0 {
		return "", false
	}
	return t.chunks[0], true
}

// Resolve builds the literal key. ids are supplied outermost first, one per
// entry-set item on the path.
func (t *KeyTemplate) Resolve(ids ...any) (string, error) {
	if len(ids) != len(t.placeholders) {
		return "", &ConfigurationError{Path: t.String(), Problems: []string{
			fmt.Sprintf("key needs %d identifier(s), got %d", len(t.placeholders), len(ids)),
		}}
	}
	if len(ids) == 0 {
		return t.chunks[0], nil
	}

	formatted := make([]string, len(ids))
	size := 0
	for i, id := range ids {
		s, err := t.placeholders[i].converter.Format(id)
		if err != nil {
			return "", err
		}
		if err := t.checkIdentifier(i, s); err != nil {
			return "", err
		}
		formatted[i] = s
		size += len(s) + len(t.chunks[i])
	}
	size += len(t.chunks[len(ids)])

	var b strings.Builder
	b.Grow(size)
	for i, s := range formatted {
		b.WriteString(t.chunks[i])
		b.WriteString(s)
	}
	b.WriteString(t.chunks[len(formatted)])
	return b.String(), nil
}

// ResolveStrings builds the literal key from already formatted identifiers
func (t *KeyTemplate) ResolveStrings(ids ...string) (string, error) {
	if len(ids) != len(t.placeholders) {
		return "", &ConfigurationError{Path: t.String(), Problems: []string{
			fmt.Sprintf("key needs %d identifier(s), got %d", len(t.placeholders), len(ids)),
		}}
	}
	for i, s := range ids {
		if err := t.checkIdentifier(i, s); err != nil {
			return "", err
		}
	}
	var b strings.Builder
	for i, s := range ids {
		b.WriteString(t.chunks[i])
		b.WriteString(s)
	}
	b.WriteString(t.chunks[len(ids)])
	return b.String(), nil
}

// checkIdentifier rejects formatted identifiers that would split into
// several key segments
func (t *KeyTemplate) checkIdentifier(i int, s string) error {
	if !strings.Contains(s, Separator) {
		return nil
	}
	return &ConfigurationError{Path: t.String(), Problems: []string{
		fmt.Sprintf("identifier %q for %s contains the key separator %q", s, t.placeholders[i].name, Separator),
	}}
}

// Match reverse-resolves key, returning the identifier strings in order.
// Identifiers cannot contain the separator.
func (t *KeyTemplate) Match(key string) ([]string, bool) {
	rest, ok := strings.CutPrefix(key, t.chunks[0])
	if !ok {
		return nil, false
	}
	ids := make([]string, 0, len(t.placeholders))
	for i := range t.placeholders {
		next := t.chunks[i+1]
		var id string
		if idx := strings.Index(rest, Separator); idx >= 0 {
			id, rest = rest[:idx], rest[idx:]
		} else {
			id, rest = rest, ""
		}
		if id == "" {
			return nil, false
		}
		if rest, ok = strings.CutPrefix(rest, next); !ok {
			return nil, false
		}
		ids = append(ids, id)
	}
	if rest != "" {
		return nil, false
	}
	return ids, true
}

// Pattern renders the template as a Redis glob for SCAN MATCH
func (t *KeyTemplate) Pattern() string {
	var b strings.Builder
	for i, c := range t.chunks {
		if i > 0 {
			b.WriteByte('*')
		}
		b.WriteString(EscapeGlob(c))
	}
	return b.String()
}

// String renders placeholders as {Name}
func (t *KeyTemplate) String() string {
	var b strings.Builder
	for i, c := range t.chunks {
		if i > 0 {
			b.WriteString("{" + t.placeholders[i-1].name + "}")
		}
		b.WriteString(c)
	}
	return b.String()
}

// EscapeGlob quotes the characters Redis glob patterns treat specially
func EscapeGlob(s string) string {
	if !strings.ContainsAny(s, `*?[]\`) {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Key resolves the literal key of e for the given identifiers
func (e *EntryMetadata) Key(ids ...any) (string, error) {
	if !e.frozen || e.template == nil {
		return "", &InvalidStateError{Op: "Key", Reason: "metadata is not frozen"}
	}
	return e.template.Resolve(ids...)
}

// Match finds the entry a literal key belongs to and the identifier strings
// embedded in it. Deeper entries win when several templates match.
func (m *ModelMetadata) Match(key string) (*EntryMetadata, []string, bool) {
	var (
		found *EntryMetadata
		ids   []string
	)
	m.Walk(func(e *EntryMetadata) bool {
		if e.template == nil {
			return false
		}
		if got, ok := e.template.Match(key); ok {
			found, ids = e, got
		}
		return true
	})
	return found, ids, found != nil
}

package commands

import (
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/hyperspace/internal/cli/ui"
	"github.com/conduit-lang/hyperspace/schema"
)

// entryView is the JSON form of one entry
type entryView struct {
	Path        string            `json:"path"`
	Key         string            `json:"key"`
	Kind        string            `json:"kind"`
	Type        string            `json:"type"`
	Identifiers map[string]string `json:"identifiers,omitempty"`
}

func newInspectCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [path]",
		Short: "Show the entry tree of a model",
		Long: `Show every entry of the model with its key template, Redis kind and Go type.
With a path such as Discussions or Discussions[ID].Title only that subtree is shown.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: a.completeEntryPath,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(cmd)
			if err != nil {
				return err
			}

			var entries []*schema.EntryMetadata
			if len(args) == 1 {
				root, err := a.findEntry(cmd, m, args[0])
				if err != nil {
					return err
				}
				entries = subtree(root)
			} else {
				m.Walk(func(e *schema.EntryMetadata) bool {
					entries = append(entries, e)
					return true
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				views := make([]entryView, len(entries))
				for i, e := range entries {
					views[i] = viewOf(m, e)
				}
				return writeJSON(out, views)
			}

			title := m.Name()
			if m.Prefix() != "" {
				title += fmt.Sprintf(" (prefix %s)", m.Prefix())
			}
			ui.Header(out, title, a.noColor)
			table := ui.NewTable(out, a.noColor, "PATH", "KEY", "KIND", "TYPE")
			for _, e := range entries {
				v := viewOf(m, e)
				table.AddRow(v.Path, v.Key, v.Kind, v.Type)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newResolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path> [identifier...]",
		Short: "Print the Redis key of an entry",
		Long: `Print the concrete key of an entry. Entries inside entry-sets need one
identifier per enclosing set, outermost first:

  hyperspace resolve Discussions[ID].Comments[ID] 0b9a3f63-8c1e-4b4e-9f43-9d1a2c8f6e10 12`,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: a.completeEntryPath,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(cmd)
			if err != nil {
				return err
			}
			e, err := a.findEntry(cmd, m, args[0])
			if err != nil {
				return err
			}

			ids, err := parseIdentifiers(e, args[1:])
			if err != nil {
				return err
			}
			key, err := e.Key(ids...)
			if err != nil {
				return err
			}
			a.logger.Debug("resolved key", zap.String("path", e.Path()), zap.String("key", key))
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func newMatchCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <key>",
		Short: "Find the entry a Redis key belongs to",
		Long:  "Reverse-resolve a concrete key into its entry path and identifiers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.model(cmd)
			if err != nil {
				return err
			}

			key := args[0]
			e, raw, ok := m.Match(key)
			if !ok {
				fmt.Fprint(cmd.ErrOrStderr(), ui.UnmatchedKeyError(m.Name(), key, a.noColor))
				return reported(fmt.Errorf("key %q matches no entry", key))
			}
			if _, err := parseIdentifiers(e, raw); err != nil {
				return err
			}

			v := viewOf(m, e)
			v.Key = key
			v.Identifiers = make(map[string]string, len(raw))
			names := identifierLabels(e)
			for i, id := range raw {
				v.Identifiers[names[i]] = id
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			kv := ui.NewKeyValueTable(cmd.OutOrStdout(), a.noColor)
			kv.AddRow("Entry", v.Path)
			kv.AddRow("Template", e.Template().String())
			kv.AddRow("Kind", v.Kind)
			kv.AddRow("Type", v.Type)
			for i, id := range raw {
				kv.AddRow(names[i], id)
			}
			kv.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

// findEntry accepts a path with or without the model name in front
func (a *app) findEntry(cmd *cobra.Command, m *schema.ModelMetadata, path string) (*schema.EntryMetadata, error) {
	path = strings.TrimPrefix(path, m.Name()+".")

	var (
		found *schema.EntryMetadata
		paths []string
	)
	m.Walk(func(e *schema.EntryMetadata) bool {
		rel := relativePath(m, e)
		if rel == path {
			found = e
		}
		paths = append(paths, rel)
		return found == nil
	})
	if found != nil {
		return found, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), ui.EntryNotFoundError(m.Name(), path, ui.FindSimilar(path, paths, nil), a.noColor))
	return nil, reported(fmt.Errorf("model %s has no entry %q", m.Name(), path))
}

// entrySets returns the entry-sets whose items enclose e, outermost first
func entrySets(e *schema.EntryMetadata) []*schema.EntryMetadata {
	var sets []*schema.EntryMetadata
	for n := e; n != nil; n = n.Parent() {
		if n.IsItem() {
			sets = append(sets, n.Parent())
		}
	}
	slices.Reverse(sets)
	return sets
}

// identifierLabels names each identifier of e's key, e.g. Discussions.ID
func identifierLabels(e *schema.EntryMetadata) []string {
	sets := entrySets(e)
	labels := make([]string, len(sets))
	for i, s := range sets {
		labels[i] = s.Name() + "." + s.IdentifierName()
	}
	return labels
}

// parseIdentifiers converts identifier strings with each entry-set's converter
func parseIdentifiers(e *schema.EntryMetadata, raw []string) ([]any, error) {
	sets := entrySets(e)
	if len(raw) != len(sets) {
		return nil, fmt.Errorf("%s needs %d identifier(s) (%s), got %d",
			e.Path(), len(sets), strings.Join(identifierLabels(e), ", "), len(raw))
	}

	ids := make([]any, len(raw))
	for i, s := range raw {
		id, err := sets[i].Converter().Parse(s)
		if err != nil {
			return nil, fmt.Errorf("identifier %q of %s is not a valid %s: %w",
				s, sets[i].Name(), typeString(sets[i].IdentifierType()), err)
		}
		ids[i] = id
	}
	return ids, nil
}

func subtree(e *schema.EntryMetadata) []*schema.EntryMetadata {
	out := []*schema.EntryMetadata{e}
	for _, c := range e.Children() {
		out = append(out, subtree(c)...)
	}
	return out
}

func relativePath(m *schema.ModelMetadata, e *schema.EntryMetadata) string {
	return strings.TrimPrefix(e.Path(), m.Name()+".")
}

func viewOf(m *schema.ModelMetadata, e *schema.EntryMetadata) entryView {
	v := entryView{
		Path: relativePath(m, e),
		Key:  e.Template().String(),
		Kind: e.Kind().String(),
		Type: typeString(e.WrapperType()),
	}
	if e.IsEntrySet() {
		v.Kind = "entry-set"
		item := "-"
		if it, ok := e.Item(); ok {
			item = typeString(it.WrapperType())
		}
		v.Type = typeString(e.IdentifierType()) + " → " + item
	}
	return v
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "-"
	}
	return t.String()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

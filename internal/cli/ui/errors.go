package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/hyperspace/schema"
)

// ErrorLevel is the severity of a formatted message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

var levelStyles = map[ErrorLevel]struct {
	symbol string
	attr   color.Attribute
}{
	ErrorLevelError:   {"❌", color.FgRed},
	ErrorLevelWarning: {"⚠️", color.FgYellow},
	ErrorLevelInfo:    {"ℹ️", color.FgCyan},
}

// ErrorOptions describes one formatted message
type ErrorOptions struct {
	Level   ErrorLevel
	Context string
	Problem string
	// Details are printed one per line below the problem
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a message with optional details, suggestions and
// help commands:
//
//	❌ ENTRY NOT FOUND: Forum.Discusions
//	   Model Forum has no entry at path 'Discusions'.
//
//	   Did you mean: Discussions?
//
//	   → List entries: hyperspace inspect
func FormatError(opts ErrorOptions) string {
	style := levelStyles[opts.Level]
	header := paint(opts.NoColor, style.attr, color.Bold)
	body := paint(opts.NoColor, style.attr)

	var b strings.Builder
	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", style.symbol, strings.ToUpper(opts.Context))
		body.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", style.symbol, opts.Problem)
	}

	if len(opts.Details) > 0 {
		b.WriteString("\n")
		for _, d := range opts.Details {
			body.Fprintf(&b, "   - %s\n", d)
		}
	}
	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		paint(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}
	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		help := paint(opts.NoColor, color.FgCyan)
		for _, h := range opts.HelpCommands {
			help.Fprintf(&b, "   → %s\n", h)
		}
	}
	return b.String()
}

// WriteError writes FormatError(opts) to w
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// WriteSuccess writes a green check line
func WriteSuccess(w io.Writer, message string, noColor bool) {
	paint(noColor, color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", message)
}

// EntryNotFoundError reports an entry path the model does not declare
func EntryNotFoundError(model, path string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "entry not found",
		Problem:     fmt.Sprintf("Model %s has no entry at path '%s'.", model, path),
		Suggestions: suggestions,
		HelpCommands: []string{
			"List entries: hyperspace inspect --model " + strings.ToLower(model),
		},
		NoColor: noColor,
	})
}

// ModelNotFoundError reports a --model name missing from the catalog
func ModelNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "model not found",
		Problem:      fmt.Sprintf("No model named '%s' is registered.", name),
		Suggestions:  suggestions,
		HelpCommands: []string{"Get help: hyperspace --help"},
		NoColor:      noColor,
	})
}

// UnmatchedKeyError reports a key no entry template accepts
func UnmatchedKeyError(model, key string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Context: "key not matched",
		Problem: fmt.Sprintf("No entry of %s produces the key '%s'.", model, key),
		HelpCommands: []string{
			"Show key templates: hyperspace inspect --model " + strings.ToLower(model),
		},
		NoColor: noColor,
	})
}

// SchemaError renders a schema error, listing every problem of a
// configuration error on its own line
func SchemaError(err error, noColor bool) string {
	var cfg *schema.ConfigurationError
	if errors.As(err, &cfg) {
		where := cfg.Model
		if cfg.Path != "" {
			where = cfg.Path
		}
		return FormatError(ErrorOptions{
			Level:   ErrorLevelError,
			Context: "invalid schema",
			Problem: fmt.Sprintf("%s cannot be used as a keyspace model.", where),
			Details: cfg.Problems,
			NoColor: noColor,
		})
	}
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "schema error",
		Problem: err.Error(),
		NoColor: noColor,
	})
}

// ConnectionError reports a Redis endpoint that could not be reached
func ConnectionError(addr string, err error, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "connection failed",
		Problem: fmt.Sprintf("Cannot reach Redis at %s: %v", addr, err),
		Suggestions: []string{
			"HYPERSPACE_REDIS_ADDR=host:port",
			"--addr host:port",
		},
		HelpCommands: []string{"Check connectivity: hyperspace ping"},
		NoColor:      noColor,
	})
}

// ConfigError reports an unreadable or invalid configuration
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "configuration error",
		Problem:      message,
		HelpCommands: []string{"View config: cat hyperspace.yaml"},
		NoColor:      noColor,
	})
}

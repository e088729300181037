package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/conduit-lang/hyperspace/examples/forum"
	"github.com/conduit-lang/hyperspace/schema"
)

// ModelFunc builds a frozen model into reg
type ModelFunc func(ctx context.Context, reg *schema.Registry) (*schema.ModelMetadata, error)

var catalog = map[string]ModelFunc{
	"forum": forum.Model,
}

// RegisterModel makes a model available to --model under name. It is not
// safe for concurrent use and is meant to be called from init.
func RegisterModel(name string, fn ModelFunc) {
	catalog[strings.ToLower(name)] = fn
}

func lookupModel(name string) (ModelFunc, bool) {
	fn, ok := catalog[strings.ToLower(name)]
	return fn, ok
}

func modelNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package docs

import (
	"context"
	"sort"

	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/schema"
)

// ParamKey selects which documentation list a parameter set feeds.
type ParamKey string

const (
	PathParams  ParamKey = "pathParams"
	QueryParams ParamKey = "queryParams"
)

// NormalizeParams reconciles a function-configuration parameter set (name
// to required flag) with the event's documented parameter list:
//
//   - an entry whose schema is a model-name string has it resolved in place
//   - a parameter with no documented entry gets a default appended
//     ({name, required, schema: {type: string}})
//   - a parameter with an entry keeps every field the author wrote; the
//     default only fills the gaps, and the entry keeps its list position
//
// Parameters are processed in name order so output is deterministic.
func NormalizeParams(ctx context.Context, resolver schema.Resolver, params map[string]bool, doc *manifest.Documentation, key ParamKey) error {
	if len(params) == 0 || doc == nil {
		return nil
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	list := paramList(doc, key)
	for _, name := range names {
		existing := findParam(*list, name)
		if existing != nil {
			if ref, ok := existing.Schema.(string); ok {
				resolved, err := resolver.Resolve(ctx, ref)
				if err != nil {
					return err
				}
				existing.Schema = resolved
			}
		}

		required := params[name]
		def := manifest.ParamDoc{
			Name:     name,
			Required: &required,
			Schema:   map[string]any{"type": "string"},
		}
		if existing == nil {
			*list = append(*list, def)
			continue
		}
		if existing.Required == nil {
			existing.Required = def.Required
		}
		if existing.Schema == nil {
			existing.Schema = def.Schema
		}
	}
	return nil
}

func paramList(doc *manifest.Documentation, key ParamKey) *[]manifest.ParamDoc {
	if key == QueryParams {
		return &doc.QueryParams
	}
	return &doc.PathParams
}

func findParam(list []manifest.ParamDoc, name string) *manifest.ParamDoc {
	for i := range list {
		if list[i].Name == name {
			return &list[i]
		}
	}
	return nil
}

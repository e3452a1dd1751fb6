// Package docs synthesizes documentation metadata for a service manifest:
// it scans functions for HTTP events, derives model names from the event
// method, resolves their schemas and normalizes parameter documentation.
package docs

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/schema"
)

const contentTypeJSON = "application/json"

// ModelRegistry accumulates model definitions in registration order. It is
// append-only: entries are never rewritten or removed, and a name
// registered twice simply appears twice.
type ModelRegistry struct {
	defs []manifest.ModelDef
}

// Add appends a definition to the registry.
func (r *ModelRegistry) Add(def manifest.ModelDef) {
	r.defs = append(r.defs, def)
}

// Models returns a copy of the registered definitions in order.
func (r *ModelRegistry) Models() []manifest.ModelDef {
	out := make([]manifest.ModelDef, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len reports how many definitions have been registered.
func (r *ModelRegistry) Len() int { return len(r.defs) }

// MergeModels appends newly registered definitions onto a manifest's
// existing model list without disturbing it.
func MergeModels(existing, registered []manifest.ModelDef) []manifest.ModelDef {
	if len(registered) == 0 {
		return existing
	}
	out := make([]manifest.ModelDef, 0, len(existing)+len(registered))
	out = append(out, existing...)
	out = append(out, registered...)
	return out
}

// Synthesizer fills in request/response documentation for one HTTP event
// at a time, registering every model it references.
type Synthesizer struct {
	namespace string
	resolver  schema.Resolver
	registry  *ModelRegistry
}

// NewSynthesizer builds a synthesizer for the given model namespace.
func NewSynthesizer(namespace string, resolver schema.Resolver, registry *ModelRegistry) *Synthesizer {
	return &Synthesizer{namespace: namespace, resolver: resolver, registry: registry}
}

// Synthesize applies the method rules to a documented event. The rules
// are keyed on the event's HTTP method, case-insensitively:
//
//	DELETE            a fixed 204 response with no models
//	POST, PUT, PATCH  a request body model, then a 200 response model
//	GET               a 200 response model
//
// Any other method leaves the documentation untouched. Synthesized fields
// overwrite whatever the event declared for them.
func (s *Synthesizer) Synthesize(ctx context.Context, ev *manifest.HttpEvent, functionName string) error {
	doc := ev.Documentation
	if doc == nil {
		return nil
	}
	prefix := s.namespace + "." + PascalCase(functionName)

	switch strings.ToUpper(strings.TrimSpace(ev.Method)) {
	case http.MethodDelete:
		s.applyDeleteRule(doc)
		return nil
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if err := s.applyRequestRule(ctx, doc, prefix); err != nil {
			return err
		}
		return s.applyResponseRule(ctx, doc, prefix)
	case http.MethodGet:
		return s.applyResponseRule(ctx, doc, prefix)
	default:
		return nil
	}
}

func (s *Synthesizer) applyDeleteRule(doc *manifest.Documentation) {
	doc.MethodResponses = []manifest.MethodResponse{{
		StatusCode:     http.StatusNoContent,
		ResponseModels: manifest.ResponseModels{},
	}}
}

func (s *Synthesizer) applyRequestRule(ctx context.Context, doc *manifest.Documentation, prefix string) error {
	name := prefix + ".Request.Body"
	if err := s.register(ctx, name); err != nil {
		return err
	}
	doc.RequestModels = map[string]string{contentTypeJSON: name}
	doc.RequestBody = &manifest.BodyDoc{}
	return nil
}

func (s *Synthesizer) applyResponseRule(ctx context.Context, doc *manifest.Documentation, prefix string) error {
	name := prefix + ".Response"
	if err := s.register(ctx, name); err != nil {
		return err
	}
	doc.MethodResponses = []manifest.MethodResponse{{
		StatusCode:     http.StatusOK,
		ResponseBody:   &manifest.BodyDoc{},
		ResponseModels: manifest.ResponseModels{contentTypeJSON: name},
	}}
	return nil
}

// register resolves a model name and appends the definition. Resolution
// failures abort the run.
func (s *Synthesizer) register(ctx context.Context, name string) error {
	resolved, err := s.resolver.Resolve(ctx, name)
	if err != nil {
		return err
	}
	s.registry.Add(manifest.ModelDef{
		Name:        name,
		ContentType: contentTypeJSON,
		Schema:      resolved,
	})
	return nil
}

// PascalCase converts a function name such as "get-user_profile" or
// "getUserProfile" to "GetUserProfile" for use in model names.
func PascalCase(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	upper := true
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			upper = true
		case upper:
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

package docs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/schema"
)

// MissingDocumentationError lists every function owning an HTTP event
// that neither carries documentation nor opts out of it.
type MissingDocumentationError struct {
	Functions []string
}

func (e *MissingDocumentationError) Error() string {
	return fmt.Sprintf("missing http event documentation for function(s): %s", strings.Join(e.Functions, ", "))
}

// Stats summarizes one scan.
type Stats struct {
	Functions  int
	HTTPEvents int
	Documented int
	OptedOut   int
}

// Scanner walks a manifest's functions and synthesizes documentation for
// every documented HTTP event. Events marked private or explicitly
// opted out are skipped; events missing documentation entirely are
// collected and reported after the full scan so one run surfaces every
// offender.
type Scanner struct {
	synth    *Synthesizer
	resolver schema.Resolver
	registry *ModelRegistry
	stats    Stats
}

// NewScanner builds a scanner for the given model namespace. The resolver
// is wrapped with memoization so each distinct model name is compiled at
// most once per scan.
func NewScanner(namespace string, resolver schema.Resolver) *Scanner {
	cached := schema.NewCached(resolver)
	registry := &ModelRegistry{}
	return &Scanner{
		synth:    NewSynthesizer(namespace, cached, registry),
		resolver: cached,
		registry: registry,
	}
}

// Scan processes every function in name order. Synthesis and parameter
// normalization errors abort immediately; completeness is checked only
// after all functions have been visited.
func (s *Scanner) Scan(ctx context.Context, functions map[string]*manifest.Function) error {
	var missing []string

	for _, name := range sortedKeys(functions) {
		fn := functions[name]
		if fn == nil {
			continue
		}
		s.stats.Functions++
		for i := range fn.Events {
			ev := fn.Events[i].HTTP
			if ev == nil {
				continue
			}
			s.stats.HTTPEvents++
			switch {
			case ev.Documented():
				if err := s.document(ctx, ev, name); err != nil {
					return err
				}
				s.stats.Documented++
			case ev.OptedOut() || ev.Private:
				s.stats.OptedOut++
			default:
				missing = append(missing, name)
			}
		}
	}

	if len(missing) > 0 {
		return &MissingDocumentationError{Functions: dedupe(missing)}
	}
	return nil
}

func (s *Scanner) document(ctx context.Context, ev *manifest.HttpEvent, functionName string) error {
	if err := s.synth.Synthesize(ctx, ev, functionName); err != nil {
		return err
	}
	if err := NormalizeParams(ctx, s.resolver, ev.PathParams(), ev.Documentation, PathParams); err != nil {
		return err
	}
	return NormalizeParams(ctx, s.resolver, ev.QueryParams(), ev.Documentation, QueryParams)
}

// Models returns the definitions registered during the scan, in order.
func (s *Scanner) Models() []manifest.ModelDef {
	return s.registry.Models()
}

// Stats returns counters for the completed scan.
func (s *Scanner) Stats() Stats { return s.stats }

func sortedKeys(functions map[string]*manifest.Function) []string {
	keys := make([]string, 0, len(functions))
	for k := range functions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

package plugin

import (
	"context"
	"errors"
	"fmt"

	"github.com/sls2openapi/sls2openapi/internal/docs"
	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/schema"
	"github.com/sls2openapi/sls2openapi/internal/spec"
)

// OrderError reports a host whose lifecycle lacks the generation command
// the engine hooks around. Construction fails and nothing is registered.
type OrderError struct {
	Command string
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("plugin: host does not provide the %q command; register the document generator first", e.Command)
}

// Config wires one plugin instance.
type Config struct {
	// Manifest is scanned and enriched in place before generation.
	Manifest *manifest.Manifest
	// Resolver compiles model names to JSON Schemas.
	Resolver schema.Resolver
	// Namespace prefixes every synthesized model name.
	Namespace string
	// Output is the path the generator writes the document to; the
	// finalizer rewrites it there.
	Output string
}

// Plugin runs the synthesis phase before document generation and the
// finalization phase after it.
type Plugin struct {
	cfg     Config
	scanner *docs.Scanner
}

// New validates the host and attaches the lifecycle hooks. A host without
// the generation command yields an OrderError and no hooks at all.
func New(host Host, cfg Config) (*Plugin, error) {
	if host == nil || !host.HasCommand(GenerateCommand) {
		return nil, &OrderError{Command: GenerateCommand}
	}
	if cfg.Manifest == nil {
		return nil, errors.New("plugin: manifest is required")
	}
	if cfg.Namespace == "" {
		return nil, errors.New("plugin: model namespace is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.New("plugin: schema resolver is required")
	}
	if cfg.Output == "" {
		return nil, errors.New("plugin: output path is required")
	}

	p := &Plugin{
		cfg:     cfg,
		scanner: docs.NewScanner(cfg.Namespace, cfg.Resolver),
	}
	host.Hook(BeforeGenerate, p.beforeGenerate)
	host.Hook(AfterGenerate, p.afterGenerate)
	return p, nil
}

// beforeGenerate synthesizes documentation for every documented HTTP
// event and folds the registered models into custom.documentation, where
// the generator picks them up.
func (p *Plugin) beforeGenerate(ctx context.Context) error {
	if err := p.scanner.Scan(ctx, p.cfg.Manifest.Functions); err != nil {
		return err
	}
	cfg := p.cfg.Manifest.EnsureDocumentation()
	cfg.Models = docs.MergeModels(cfg.Models, p.scanner.Models())
	return nil
}

// afterGenerate finalizes the document the generator wrote.
func (p *Plugin) afterGenerate(ctx context.Context) error {
	return spec.Finalize(ctx, p.cfg.Output)
}

// Stats reports scan counters once the before phase has run.
func (p *Plugin) Stats() docs.Stats {
	return p.scanner.Stats()
}

// Models returns the definitions registered by the before phase.
func (p *Plugin) Models() []manifest.ModelDef {
	return p.scanner.Models()
}

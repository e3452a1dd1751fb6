package manifest

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Service manifest model. The manifest is the single configuration source
// for documentation synthesis: it declares the service, its functions and
// their HTTP events, and carries the run options under custom.openapi.
// Unrecognized keys are preserved verbatim through inline maps so that a
// loaded manifest can be written back without loss.

// Defaults for the custom.openapi run options.
const (
	DefaultModelPath    = "api.d.ts"
	DefaultTsconfigPath = "tsconfig.json"
	DefaultOutput       = "openapi.yml"
)

// Manifest is the root of a service manifest file.
type Manifest struct {
	Service   string               `yaml:"service" validate:"required"`
	Functions map[string]*Function `yaml:"functions,omitempty" validate:"dive"`
	Custom    *Custom              `yaml:"custom,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// Custom holds the manifest's custom section. Only the openapi run options
// and the documentation block are interpreted; everything else passes
// through untouched.
type Custom struct {
	OpenAPI       *Options             `yaml:"openapi,omitempty"`
	Documentation *DocumentationConfig `yaml:"documentation,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// Options are the recognized run-configuration keys under custom.openapi.
type Options struct {
	// APINamespace prefixes every synthesized model name. Required.
	APINamespace string `yaml:"apiNamespace,omitempty"`
	// TypescriptAPIModelPath locates the TypeScript declaration file the
	// schema compiler reads. Defaults to api.d.ts.
	TypescriptAPIModelPath string `yaml:"typescriptApiModelPath,omitempty"`
	// TsconfigPath locates the project type configuration. Defaults to
	// tsconfig.json.
	TsconfigPath string `yaml:"tsconfigPath,omitempty"`
	// Output is the path the external generator writes the OpenAPI
	// document to. Defaults to openapi.yml.
	Output string `yaml:"output,omitempty"`
	// GenerateCommand is the argv of the external document generator.
	// {manifest} and {output} placeholders expand to the enriched
	// manifest path and the output path.
	GenerateCommand []string `yaml:"generateCommand,omitempty"`
}

// DocumentationConfig is the custom.documentation block consumed by the
// external generator: document metadata plus the registered models.
type DocumentationConfig struct {
	Title       string     `yaml:"title,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Version     string     `yaml:"version,omitempty"`
	Models      []ModelDef `yaml:"models,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// ModelDef is one registered model: a named JSON Schema usable as a
// request or response body definition.
type ModelDef struct {
	Name        string `yaml:"name" json:"name"`
	ContentType string `yaml:"contentType" json:"contentType"`
	Schema      any    `yaml:"schema" json:"schema"`
}

// Function is one declared function with its event triggers.
type Function struct {
	Handler string  `yaml:"handler,omitempty"`
	Events  []Event `yaml:"events,omitempty" validate:"dive"`

	Extras map[string]any `yaml:",inline"`
}

// Event is a single trigger; only http events are interpreted.
type Event struct {
	HTTP *HttpEvent `yaml:"http,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// HttpEvent describes an HTTP trigger. Its documentation field is
// tri-state: key absent means the event still needs documentation,
// an explicit null opts out intentionally, and a mapping is documented
// content. DocumentationSet records whether the key appeared at all.
type HttpEvent struct {
	Method        string         `yaml:"method,omitempty"`
	Path          string         `yaml:"path,omitempty"`
	Private       bool           `yaml:"private,omitempty"`
	Request       *RequestSpec   `yaml:"request,omitempty"`
	Documentation *Documentation `yaml:"documentation,omitempty"`

	DocumentationSet bool `yaml:"-"`

	Extras map[string]any `yaml:",inline"`
}

// RequestSpec carries the function-configuration parameter sets.
type RequestSpec struct {
	Parameters *RequestParameters `yaml:"parameters,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// RequestParameters maps parameter names to their required flag.
type RequestParameters struct {
	Paths        map[string]bool `yaml:"paths,omitempty"`
	Querystrings map[string]bool `yaml:"querystrings,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// Documentation is the documentation block of an HTTP event. Recognized
// keys are typed; anything else the user wrote rides along in Extras.
type Documentation struct {
	RequestModels   map[string]string `yaml:"requestModels,omitempty"`
	RequestBody     *BodyDoc          `yaml:"requestBody,omitempty"`
	MethodResponses []MethodResponse  `yaml:"methodResponses,omitempty" validate:"dive"`
	PathParams      []ParamDoc        `yaml:"pathParams,omitempty" validate:"unique=Name,dive"`
	QueryParams     []ParamDoc        `yaml:"queryParams,omitempty" validate:"unique=Name,dive"`

	Extras map[string]any `yaml:",inline"`
}

// MethodResponse documents one response status of an operation.
type MethodResponse struct {
	StatusCode     int            `yaml:"statusCode" validate:"required,gte=100,lte=599"`
	ResponseModels ResponseModels `yaml:"responseModels,omitempty"`
	ResponseBody   *BodyDoc       `yaml:"responseBody,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// ResponseModels maps a content type to a registered model name. A non-nil
// empty map serializes as {} (a DELETE response documents "no models"
// explicitly) while a nil map omits the key.
type ResponseModels map[string]string

// IsZero implements yaml.IsZeroer so omitempty drops only nil maps.
func (m ResponseModels) IsZero() bool { return m == nil }

// BodyDoc is the requestBody/responseBody description stub.
type BodyDoc struct {
	Description string `yaml:"description"`

	Extras map[string]any `yaml:",inline"`
}

// ParamDoc documents one path or query parameter. Required is a pointer
// so an explicit "required: false" survives merging; Schema is either a
// model-name string awaiting resolution or an inline schema object.
type ParamDoc struct {
	Name     string `yaml:"name" validate:"required"`
	Required *bool  `yaml:"required,omitempty"`
	Schema   any    `yaml:"schema,omitempty"`

	Extras map[string]any `yaml:",inline"`
}

// Documented reports whether the event carries a documentation mapping.
func (e *HttpEvent) Documented() bool {
	return e.Documentation != nil
}

// OptedOut reports whether the event was explicitly marked undocumented
// (a documentation key holding null).
func (e *HttpEvent) OptedOut() bool {
	return e.DocumentationSet && e.Documentation == nil
}

// PathParams returns the declared path-parameter set; nil when the
// event configures none.
func (e *HttpEvent) PathParams() map[string]bool {
	if e.Request == nil || e.Request.Parameters == nil {
		return nil
	}
	return e.Request.Parameters.Paths
}

// QueryParams returns the declared querystring-parameter set.
func (e *HttpEvent) QueryParams() map[string]bool {
	if e.Request == nil || e.Request.Parameters == nil {
		return nil
	}
	return e.Request.Parameters.Querystrings
}

// UnmarshalYAML decodes an http event from either the mapping form or the
// "METHOD /path" shorthand, and records whether the documentation key was
// present so explicit opt-outs can be told apart from omissions.
func (e *HttpEvent) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Tag == "!!null" {
			return fmt.Errorf("http event: null is not a valid event")
		}
		fields := strings.Fields(node.Value)
		if len(fields) != 2 {
			return fmt.Errorf("http event: shorthand %q must be \"METHOD /path\"", node.Value)
		}
		e.Method, e.Path = fields[0], fields[1]
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("http event: expected mapping or shorthand string")
	}

	type plain HttpEvent
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*e = HttpEvent(p)

	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "documentation" {
			e.DocumentationSet = true
			break
		}
	}
	return nil
}

// MarshalYAML re-emits the event, writing an explicit "documentation: null"
// for opted-out events so the opt-out survives a save/load round trip.
func (e HttpEvent) MarshalYAML() (any, error) {
	type plain HttpEvent
	if !e.OptedOut() {
		return plain(e), nil
	}
	node := &yaml.Node{}
	if err := node.Encode(plain(e)); err != nil {
		return nil, err
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "documentation"},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"},
	)
	return node, nil
}

// OpenAPIOptions returns the run options from custom.openapi with the
// documented defaults filled in. The returned value is a copy.
func (m *Manifest) OpenAPIOptions() Options {
	var opts Options
	if m.Custom != nil && m.Custom.OpenAPI != nil {
		opts = *m.Custom.OpenAPI
	}
	if strings.TrimSpace(opts.TypescriptAPIModelPath) == "" {
		opts.TypescriptAPIModelPath = DefaultModelPath
	}
	if strings.TrimSpace(opts.TsconfigPath) == "" {
		opts.TsconfigPath = DefaultTsconfigPath
	}
	if strings.TrimSpace(opts.Output) == "" {
		opts.Output = DefaultOutput
	}
	return opts
}

// EnsureDocumentation returns the custom.documentation block, creating it
// (and the custom section) when absent. The title falls back to the
// service name so the generated document always has a tag source.
func (m *Manifest) EnsureDocumentation() *DocumentationConfig {
	if m.Custom == nil {
		m.Custom = &Custom{}
	}
	if m.Custom.Documentation == nil {
		m.Custom.Documentation = &DocumentationConfig{}
	}
	if strings.TrimSpace(m.Custom.Documentation.Title) == "" {
		m.Custom.Documentation.Title = m.Service
	}
	return m.Custom.Documentation
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/plugin"
	"github.com/sls2openapi/sls2openapi/internal/schema"
	"github.com/sls2openapi/sls2openapi/internal/spec"
)

// GenerateConfig captures all inputs that influence the generate command
// after merging defaults, config file values, and CLI overrides. Options
// left empty fall back to the manifest's custom.openapi section.
type GenerateConfig struct {
	ManifestPath string
	Output       string
	APINamespace string
	ModelPath    string
	Tsconfig     string
	GenerateCmd  []string
	ConfigPath   string
	Verbose      bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{ManifestPath: "serverless.yml"}
}

var generateRunner = runGenerate

// newResolver builds the schema resolver for a run; swapped in tests.
var newResolver = func(opts manifest.Options) schema.Resolver {
	return &schema.Compiler{
		ModelPath:    opts.TypescriptAPIModelPath,
		TsconfigPath: opts.TsconfigPath,
	}
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Synthesize documentation, run the generator, and finalize the OpenAPI document",
		Long: "Scan the service manifest for HTTP events, synthesize request/response models, " +
			"run the configured document generator against the enriched manifest, and finalize " +
			"the document it wrote. Options can be provided via flags, config files, or the manifest.",
		Example: strings.TrimSpace(`  sls2openapi generate --manifest serverless.yml --api-namespace Orders
  sls2openapi --config sls2openapi.yaml generate --output build/openapi.yml`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("manifest", "", "Path to the service manifest (defaults to serverless.yml)")
	flags.String("output", "", "Path the generator writes the OpenAPI document to")
	flags.String("api-namespace", "", "Namespace prefix for synthesized model names")
	flags.String("model-path", "", "TypeScript declaration file holding the API types")
	flags.String("tsconfig", "", "Project tsconfig used by the schema compiler")
	flags.StringArray("generate-cmd", nil, "Generator argv; {manifest} and {output} expand to the enriched manifest and output paths (repeat per argument)")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		values, err := loadConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		values.applyToGenerate(&cfg)
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	if flags.Changed("manifest") {
		value, err := flags.GetString("manifest")
		if err != nil {
			return err
		}
		cfg.ManifestPath = strings.TrimSpace(value)
	}
	if flags.Changed("output") {
		value, err := flags.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = strings.TrimSpace(value)
	}
	if flags.Changed("api-namespace") {
		value, err := flags.GetString("api-namespace")
		if err != nil {
			return err
		}
		cfg.APINamespace = strings.TrimSpace(value)
	}
	if flags.Changed("model-path") {
		value, err := flags.GetString("model-path")
		if err != nil {
			return err
		}
		cfg.ModelPath = strings.TrimSpace(value)
	}
	if flags.Changed("tsconfig") {
		value, err := flags.GetString("tsconfig")
		if err != nil {
			return err
		}
		cfg.Tsconfig = strings.TrimSpace(value)
	}
	if flags.Changed("generate-cmd") {
		value, err := flags.GetStringArray("generate-cmd")
		if err != nil {
			return err
		}
		cfg.GenerateCmd = sanitizeArgv(value)
	}
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.ManifestPath = strings.TrimSpace(c.ManifestPath)
	c.Output = strings.TrimSpace(c.Output)
	c.APINamespace = strings.TrimSpace(c.APINamespace)
	c.ModelPath = strings.TrimSpace(c.ModelPath)
	c.Tsconfig = strings.TrimSpace(c.Tsconfig)
	c.GenerateCmd = sanitizeArgv(c.GenerateCmd)
}

func (c *GenerateConfig) validate() error {
	if c.ManifestPath == "" {
		return newUsageError("generate: --manifest is required (set via flag or config file)")
	}
	return nil
}

// mergeInto overlays the CLI values onto the manifest's run options.
func (c *GenerateConfig) mergeInto(opts *manifest.Options) {
	if c.APINamespace != "" {
		opts.APINamespace = c.APINamespace
	}
	if c.ModelPath != "" {
		opts.TypescriptAPIModelPath = c.ModelPath
	}
	if c.Tsconfig != "" {
		opts.TsconfigPath = c.Tsconfig
	}
	if c.Output != "" {
		opts.Output = c.Output
	}
	if len(c.GenerateCmd) > 0 {
		opts.GenerateCommand = c.GenerateCmd
	}
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	opts := m.OpenAPIOptions()
	cfg.mergeInto(&opts)

	if strings.TrimSpace(opts.APINamespace) == "" {
		return newUsageError("generate: apiNamespace is required (set custom.openapi.apiNamespace in the manifest or pass --api-namespace)")
	}

	if cfg.Verbose {
		fmt.Fprintf(os.Stdout, "Loaded %s (%d functions)\n", cfg.ManifestPath, len(m.Functions))
	}

	runner := plugin.NewRunner()
	if len(opts.GenerateCommand) > 0 {
		runner.RegisterCommand(plugin.GenerateCommand, func(ctx context.Context) error {
			return runGeneratorCommand(ctx, m, opts, cfg.Verbose)
		})
	}

	p, err := plugin.New(runner, plugin.Config{
		Manifest:  m,
		Resolver:  newResolver(opts),
		Namespace: opts.APINamespace,
		Output:    opts.Output,
	})
	if err != nil {
		var oe *plugin.OrderError
		if errors.As(err, &oe) {
			return newUsageError(fmt.Sprintf("generate: %v\nHint: set custom.openapi.generateCommand in the manifest or pass --generate-cmd.", err))
		}
		return err
	}

	if err := runner.Run(ctx, plugin.GenerateCommand); err != nil {
		return describeDocErr(err)
	}

	if cfg.Verbose {
		stats := p.Stats()
		fmt.Fprintf(os.Stdout, "Documented %d of %d http event(s), %d opted out, %d model(s) registered\n",
			stats.Documented, stats.HTTPEvents, stats.OptedOut, len(p.Models()))
	}
	fmt.Fprintf(os.Stdout, "Wrote %s\n", opts.Output)
	return nil
}

// runGeneratorCommand saves the enriched manifest to a staging directory
// and executes the external generator with the placeholders expanded.
func runGeneratorCommand(ctx context.Context, m *manifest.Manifest, opts manifest.Options, verbose bool) error {
	dir, err := os.MkdirTemp("", "sls2openapi-")
	if err != nil {
		return fmt.Errorf("generate: create staging directory: %w", err)
	}
	defer os.RemoveAll(dir)

	enriched := filepath.Join(dir, "manifest.yml")
	if err := m.Save(enriched); err != nil {
		return err
	}

	argv := expandPlaceholders(opts.GenerateCommand, enriched, opts.Output)
	if verbose {
		fmt.Fprintf(os.Stdout, "Running generator: %s\n", strings.Join(argv, " "))
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("generate: generator command failed: %w", err)
	}
	return nil
}

func expandPlaceholders(argv []string, manifestPath, outputPath string) []string {
	out := make([]string, len(argv))
	for i, a := range argv {
		a = strings.ReplaceAll(a, "{manifest}", manifestPath)
		a = strings.ReplaceAll(a, "{output}", outputPath)
		out[i] = a
	}
	return out
}

// describeDocErr turns structured document errors into messages carrying
// their location and pointer.
func describeDocErr(err error) error {
	var de *spec.DocError
	if errors.As(err, &de) {
		msg := fmt.Sprintf("document: %s", de.Message)
		if de.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, de.Location)
		}
		if de.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, de.JSONPointer)
		}
		return errors.New(msg)
	}
	return err
}

func sanitizeArgv(argv []string) []string {
	if len(argv) == 0 {
		return nil
	}
	result := make([]string, 0, len(argv))
	for _, arg := range argv {
		trimmed := strings.TrimSpace(arg)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// configFileValues is the recognized --config schema, shared by generate
// and check so one file serves both commands.
type configFileValues struct {
	Manifest     string
	Output       string
	APINamespace string
	ModelPath    string
	Tsconfig     string
	GenerateCmd  []string
	Verbose      *bool
}

func (v *configFileValues) applyToGenerate(cfg *GenerateConfig) {
	if v.Manifest != "" {
		cfg.ManifestPath = v.Manifest
	}
	if v.Output != "" {
		cfg.Output = v.Output
	}
	if v.APINamespace != "" {
		cfg.APINamespace = v.APINamespace
	}
	if v.ModelPath != "" {
		cfg.ModelPath = v.ModelPath
	}
	if v.Tsconfig != "" {
		cfg.Tsconfig = v.Tsconfig
	}
	if len(v.GenerateCmd) > 0 {
		cfg.GenerateCmd = v.GenerateCmd
	}
	if v.Verbose != nil {
		cfg.Verbose = *v.Verbose
	}
}

func loadConfigFile(path string) (*configFileValues, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newUsageError(fmt.Sprintf("read config file %q: %v", path, err))
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, newUsageError(fmt.Sprintf("parse config file %q: %v", path, err))
	}

	values := &configFileValues{}
	for key, value := range raw {
		switch normalizeKey(key) {
		case "manifest":
			str, err := valueAsString(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.Manifest = str
		case "output":
			str, err := valueAsString(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.Output = str
		case "apinamespace":
			str, err := valueAsString(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.APINamespace = str
		case "modelpath":
			str, err := valueAsString(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.ModelPath = str
		case "tsconfig", "tsconfigpath":
			str, err := valueAsString(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.Tsconfig = str
		case "generatecmd", "generatecommand":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.GenerateCmd = sanitizeArgv(list)
		case "verbose":
			val, err := valueAsBool(value)
			if err != nil {
				return nil, newUsageError(fmt.Sprintf("config field %q: %v", key, err))
			}
			values.Verbose = &val
		default:
			return nil, newUsageError(fmt.Sprintf("config file %q: unknown field %q", path, key))
		}
	}

	return values, nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return strings.Fields(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		trimmed := strings.ToLower(strings.TrimSpace(val))
		switch trimmed {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n":
			return false, nil
		case "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

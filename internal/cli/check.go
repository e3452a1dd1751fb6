package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sls2openapi/sls2openapi/internal/docs"
	"github.com/sls2openapi/sls2openapi/internal/manifest"
)

// CheckConfig captures the options for the check command.
type CheckConfig struct {
	ManifestPath string
	APINamespace string
	ModelPath    string
	Tsconfig     string
	ConfigPath   string
	Verbose      bool
}

func defaultCheckConfig() CheckConfig {
	return CheckConfig{ManifestPath: "serverless.yml"}
}

var checkRunner = runCheck

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every HTTP event is documented and every model resolves",
		Long: "Run the synthesis phase without generating anything: scan the manifest, " +
			"resolve every referenced model, and report functions whose HTTP events are " +
			"missing documentation. Nothing is written.",
		Example: strings.TrimSpace(`  sls2openapi check --manifest serverless.yml --api-namespace Orders`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveCheckConfig(cmd)
			if err != nil {
				return err
			}
			return checkRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("manifest", "", "Path to the service manifest (defaults to serverless.yml)")
	flags.String("api-namespace", "", "Namespace prefix for synthesized model names")
	flags.String("model-path", "", "TypeScript declaration file holding the API types")
	flags.String("tsconfig", "", "Project tsconfig used by the schema compiler")

	return cmd
}

func resolveCheckConfig(cmd *cobra.Command) (*CheckConfig, error) {
	cfg := defaultCheckConfig()

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
		values.applyToCheck(&cfg)
	}

	if err := applyCheckFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.ManifestPath = strings.TrimSpace(cfg.ManifestPath)
	if cfg.ManifestPath == "" {
		return nil, newUsageError("check: --manifest is required (set via flag or config file)")
	}

	return &cfg, nil
}

func (v *configFileValues) applyToCheck(cfg *CheckConfig) {
	if v.Manifest != "" {
		cfg.ManifestPath = v.Manifest
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
	if v.Verbose != nil {
		cfg.Verbose = *v.Verbose
	}
}

func applyCheckFlagOverrides(flags *pflag.FlagSet, cfg *CheckConfig) error {
	if flags.Changed("manifest") {
		value, err := flags.GetString("manifest")
		if err != nil {
			return err
		}
		cfg.ManifestPath = strings.TrimSpace(value)
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
	if flags.Changed("verbose") {
		value, err := flags.GetBool("verbose")
		if err != nil {
			return err
		}
		cfg.Verbose = value
	}
	return nil
}

func runCheck(ctx context.Context, cfg *CheckConfig) error {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return err
	}

	opts := m.OpenAPIOptions()
	if cfg.APINamespace != "" {
		opts.APINamespace = cfg.APINamespace
	}
	if cfg.ModelPath != "" {
		opts.TypescriptAPIModelPath = cfg.ModelPath
	}
	if cfg.Tsconfig != "" {
		opts.TsconfigPath = cfg.Tsconfig
	}
	if strings.TrimSpace(opts.APINamespace) == "" {
		return newUsageError("check: apiNamespace is required (set custom.openapi.apiNamespace in the manifest or pass --api-namespace)")
	}

	scanner := docs.NewScanner(opts.APINamespace, newResolver(opts))
	if err := scanner.Scan(ctx, m.Functions); err != nil {
		return err
	}

	stats := scanner.Stats()
	fmt.Fprintf(os.Stdout, "Documentation complete: %d function(s), %d http event(s) documented, %d opted out, %d model(s) resolved\n",
		stats.Functions, stats.Documented, stats.OptedOut, len(scanner.Models()))
	if cfg.Verbose {
		for _, def := range scanner.Models() {
			fmt.Fprintf(os.Stdout, "- %s (%s)\n", def.Name, def.ContentType)
		}
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample service manifest wired for documentation synthesis",
		Long:  "Scaffold a commented service manifest showing the custom.openapi options, a documented HTTP event, and an explicit documentation opt-out.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			cfg := &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			}
			return initRunner(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("out", "serverless.yml", "Where to write the sample manifest")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	_ = ctx

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = "serverless.yml"
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return newUsageError(fmt.Sprintf("init: %q already exists (use --force to overwrite)", absPath))
		}
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot create parent directory: %v", err))
	}

	content := strings.TrimSpace(sampleManifestYAML) + "\n"

	// Atomic write via temp + rename
	tmp := absPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return newUsageError(fmt.Sprintf("init: cannot write temp file: %v\nHint: choose a different --out or check directory permissions.", err))
	}
	if err := os.Rename(tmp, absPath); err != nil {
		_ = os.Remove(tmp)
		return newUsageError(fmt.Sprintf("init: cannot place file at %s: %v", absPath, err))
	}
	fmt.Fprintf(os.Stdout, "Wrote sample manifest to %s\n", absPath)
	return nil
}

// sampleManifestYAML is a commented example manifest covering the options
// the pipeline reads.
const sampleManifestYAML = `# Sample service manifest for sls2openapi.
# Flags and --config values override the custom.openapi options below.
service: my-service

provider:
  name: aws
  runtime: nodejs18.x

custom:
  openapi:
    # Namespace prefix for synthesized model names. Required.
    apiNamespace: MyService
    # TypeScript declaration file the schema compiler reads.
    typescriptApiModelPath: api.d.ts
    # Project type configuration for the compiler.
    tsconfigPath: tsconfig.json
    # Where the generator writes the OpenAPI document.
    output: openapi.yml
    # External generator argv. {manifest} expands to the enriched manifest
    # path, {output} to the output path.
    # generateCommand: ["npx", "serverless", "openapi", "generate", "-o", "{output}"]
  documentation:
    title: My Service API
    description: Service endpoints.
    version: 0.0.1

functions:
  getUser:
    handler: src/users.get
    events:
      - http:
          method: get
          path: /users/{id}
          request:
            parameters:
              paths:
                id: true
          # An empty mapping is enough; request/response metadata is
          # synthesized from the method and the TypeScript types.
          documentation: {}

  healthCheck:
    handler: src/health.check
    events:
      - http:
          method: get
          path: /health
          # Explicitly opt this endpoint out of documentation.
          documentation: null
`

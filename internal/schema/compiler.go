package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// Default argv prefix for the TypeScript schema compiler. The tool is
// expected on the project's node toolchain path.
var defaultCompilerCommand = []string{"npx", "typescript-json-schema"}

// Compiler resolves model names by invoking typescript-json-schema
// against a fixed declaration file and project configuration.
type Compiler struct {
	// ModelPath is the TypeScript declaration file holding the API types.
	ModelPath string
	// TsconfigPath is the project type configuration.
	TsconfigPath string
	// Command overrides the argv prefix used to launch the compiler.
	// Mostly useful in tests.
	Command []string
}

// Resolve shells out to the schema compiler and decodes its stdout as a
// JSON Schema object.
func (c *Compiler) Resolve(ctx context.Context, modelName string) (map[string]any, error) {
	if strings.TrimSpace(modelName) == "" {
		return nil, &ResolutionError{Model: modelName, Cause: fmt.Errorf("model name is empty")}
	}

	prefix := c.Command
	if len(prefix) == 0 {
		prefix = defaultCompilerCommand
	}
	args := make([]string, 0, len(prefix)+4)
	args = append(args, prefix[1:]...)
	args = append(args, c.TsconfigPath, modelName, "--include", c.ModelPath, "--required")

	cmd := exec.CommandContext(ctx, prefix[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := firstLine(stderr.String())
		if detail == "" {
			return nil, &ResolutionError{Model: modelName, Cause: err}
		}
		return nil, &ResolutionError{Model: modelName, Cause: fmt.Errorf("%w: %s", err, detail)}
	}

	var schema map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &schema); err != nil {
		return nil, &ResolutionError{Model: modelName, Cause: fmt.Errorf("decode compiler output: %w", err)}
	}
	return schema, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

package cli

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUnknownFlag_ShowsHelpAndUsageError(t *testing.T) {
	t.Parallel()

	for _, sub := range []string{"generate", "check", "init"} {
		sub := sub
		t.Run(sub, func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs([]string{sub, "--unknown-flag"})

			err := root.Execute()
			if err == nil {
				t.Fatalf("expected error for unknown flag")
			}
			if !errors.Is(err, ErrUsage) {
				t.Fatalf("expected usage error, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), "unknown flag") || !strings.Contains(err.Error(), "Usage:") {
				t.Fatalf("unexpected error text: %v", err)
			}
		})
	}
}

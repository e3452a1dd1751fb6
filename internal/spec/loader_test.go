package spec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "  ")
	if err == nil {
		t.Fatalf("expected error for empty path")
	}
	var de *DocError
	if !errors.As(err, &de) || de.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	var de *DocError
	if !errors.As(err, &de) || de.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
	if de.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

func TestLoad_ValidDocument(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "openapi.yml", `
openapi: 3.0.3
info:
  title: Orders API
  version: "1.0.0"
paths:
  "/users":
    get:
      responses:
        "200":
          description: ok
`)

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Info == nil || doc.Info.Title != "Orders API" {
		t.Fatalf("expected title to survive loading, got %+v", doc.Info)
	}
}

func TestLoad_RejectsSwaggerV2(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "swagger.yml", `
swagger: "2.0"
info:
  title: Old
  version: "1.0.0"
paths: {}
`)

	_, err := Load(context.Background(), path)
	if err == nil {
		t.Fatalf("expected error for swagger 2.0 input")
	}
	var de *DocError
	if !errors.As(err, &de) || de.Code != ParseError {
		t.Fatalf("expected ParseError, got %v (%T)", err, err)
	}
	if !strings.Contains(err.Error(), "swagger 2.0") {
		t.Fatalf("expected message to name the unsupported version, got %q", err)
	}
}

func TestLoad_InvalidDocument(t *testing.T) {
	t.Parallel()
	path := writeDoc(t, "bad.yml", `
openapi: 3.0.0
info:
  title: Bad
  version: "1.0.0"
paths:
  "/pet":
    get:
      responses: {}
`)

	_, err := Load(context.Background(), path)
	if err == nil {
		t.Fatalf("expected validation error for incomplete responses")
	}
	var de *DocError
	if !errors.As(err, &de) {
		t.Fatalf("expected DocError, got %T", err)
	}
	if de.Code != ValidationError && de.Code != ParseError { // parser version differences
		t.Fatalf("expected ValidationError/ParseError, got %v", de.Code)
	}
	if de.Location == "" {
		t.Fatalf("expected location to be set")
	}
}

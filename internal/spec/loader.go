// Package spec loads and finalizes the OpenAPI documents produced by the
// external generator. Loading is strict about structure (the file must be
// an OpenAPI v3 document) but permissive about unresolved references,
// which generators commonly leave behind.
package spec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes document errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError      ErrorCode = "InputError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
)

// DocError is a structured document error with optional location and
// JSON Pointer.
type DocError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *DocError) Error() string { return e.Message }
func (e *DocError) Unwrap() error { return e.Cause }

// Load reads and validates an OpenAPI v3 document from a local file. The
// file may be YAML or JSON; external refs are resolved relative to it.
func Load(ctx context.Context, path string) (*openapi3.T, error) {
	if strings.TrimSpace(path) == "" {
		return nil, &DocError{Code: InputError, Message: "document: path is empty"}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &DocError{Code: InputError, Message: fmt.Sprintf("resolve path: %v", err), Location: path, Cause: err}
	}

	raw, err := os.ReadFile(abs)
	if err != nil {
		return nil, &DocError{Code: InputError, Message: fmt.Sprintf("read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	if err := ensureV3(raw); err != nil {
		return nil, &DocError{Code: ParseError, Message: err.Error(), Location: abs, Cause: err}
	}

	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true
	doc, err := loader.LoadFromFile(abs)
	if err != nil {
		return nil, mapValidateOrParseErr(err, abs)
	}
	if err := doc.Validate(ctx); err != nil {
		if !canProceedDespiteValidation(err) {
			return nil, mapValidateOrParseErr(err, abs)
		}
		// proceed in permissive mode
	}
	return doc, nil
}

// ensureV3 rejects files that are not OpenAPI v3 documents before handing
// them to the loader, so version mistakes get a direct message.
func ensureV3(data []byte) error {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	if v, ok := root["openapi"]; ok {
		if s, _ := v.(string); strings.HasPrefix(strings.TrimSpace(s), "3.") {
			return nil
		}
	}
	if _, ok := root["swagger"]; ok {
		return fmt.Errorf("document: swagger 2.0 is not supported; the generator must emit OpenAPI 3")
	}
	return fmt.Errorf("document: missing or unknown version (expected 'openapi: 3.x')")
}

func mapValidateOrParseErr(err error, location string) error {
	pointer := extractJSONPointer(err)
	code := ValidationError
	// Heuristics: some loader errors are parse errors.
	if strings.Contains(strings.ToLower(err.Error()), "parse") || strings.Contains(strings.ToLower(err.Error()), "invalid character") {
		code = ParseError
	}
	return &DocError{Code: code, Message: err.Error(), Location: location, JSONPointer: pointer, Cause: err}
}

var jsonPtrRe = regexp.MustCompile(`#/[^\s'\"]+`)

func extractJSONPointer(err error) string {
	if err == nil {
		return ""
	}
	// Unwrap MultiError and take the first for brevity.
	if me, ok := err.(openapi3.MultiError); ok {
		if len(me) > 0 {
			return extractJSONPointer(me[0])
		}
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		if parts := se.JSONPointer(); len(parts) > 0 {
			return "#/" + strings.Join(parts, "/")
		}
		if se.SchemaField != "" {
			return se.SchemaField
		}
	}
	// Fallback: parse from the error message if a pointer literal appears.
	msg := err.Error()
	if m := jsonPtrRe.FindString(msg); m != "" {
		return m
	}
	return ""
}

// canProceedDespiteValidation returns true for validation errors a
// finalized document can carry anyway (e.g. unresolved $ref entries left
// by the generator).
func canProceedDespiteValidation(err error) bool {
	if err == nil {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unresolved ref")
}

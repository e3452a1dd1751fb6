package spec

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/yaml"
)

// TargetVersion is stamped into every finalized document.
const TargetVersion = "3.0.3"

// Finalize rewrites the generated document at path in place:
//
//  1. the openapi version is forced to TargetVersion
//  2. the tag list is replaced with a single tag named after info.title,
//     carrying info.description when present
//  3. every operation's tags are replaced with that one tag name
//
// The document is decoded into plain maps and re-encoded so generator
// output the pipeline knows nothing about survives untouched. After the
// rewrite the file is loaded and validated again, so a document the
// finalizer damaged fails the run instead of shipping.
func Finalize(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &DocError{Code: InputError, Message: fmt.Sprintf("read generated document %s: %v", path, err), Location: path, Cause: err}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return &DocError{Code: ParseError, Message: fmt.Sprintf("parse generated document: %v", err), Location: path, Cause: err}
	}

	if err := stampAndRetag(doc, path); err != nil {
		return err
	}

	out, err := encodeDocument(doc, path)
	if err != nil {
		return &DocError{Code: ParseError, Message: fmt.Sprintf("encode finalized document: %v", err), Location: path, Cause: err}
	}
	if err := writeDocument(path, out); err != nil {
		return &DocError{Code: InputError, Message: err.Error(), Location: path, Cause: err}
	}

	if _, err := Load(ctx, path); err != nil {
		return err
	}
	return nil
}

// stampAndRetag applies the in-place mutations. It needs an info.title to
// derive the tag from; a generated document without one is rejected.
func stampAndRetag(doc map[string]any, path string) error {
	doc["openapi"] = TargetVersion

	info, _ := doc["info"].(map[string]any)
	title := ""
	if info != nil {
		title = asString(info["title"])
	}
	if strings.TrimSpace(title) == "" {
		return &DocError{Code: ValidationError, Message: "document: info.title is required to derive the API tag", Location: path}
	}

	tag := map[string]any{"name": title}
	if desc := asString(info["description"]); desc != "" {
		tag["description"] = desc
	}
	doc["tags"] = []any{tag}

	paths, _ := doc["paths"].(map[string]any)
	for _, pim := range paths {
		pi, ok := pim.(map[string]any)
		if !ok {
			continue
		}
		for method, opm := range pi {
			switch strings.ToLower(method) {
			case "get", "post", "put", "delete", "patch", "options", "head", "trace":
			default:
				continue
			}
			op, ok := opm.(map[string]any)
			if !ok {
				continue
			}
			op["tags"] = []any{title}
		}
	}
	return nil
}

// encodeDocument re-encodes the document in the format its path implies.
func encodeDocument(doc map[string]any, path string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return json.MarshalIndent(doc, "", "  ")
	}
	return yaml.Marshal(doc)
}

// writeDocument replaces path atomically via a temp file in the same
// directory.
func writeDocument(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".openapi-*")
	if err != nil {
		return fmt.Errorf("create temp file: %v", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %v", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %v", path, err)
	}
	return nil
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

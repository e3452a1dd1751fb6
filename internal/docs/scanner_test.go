package docs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/schema"
)

func parseManifest(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse manifest fixture: %v", err)
	}
	return m
}

func TestScanSynthesizesDocumentedEvents(t *testing.T) {
	t.Parallel()

	m := parseManifest(t, `
service: orders
functions:
  createUser:
    events:
      - http:
          method: post
          path: /users
          documentation: {}
  deleteUser:
    events:
      - http:
          method: delete
          path: /users/{id}
          documentation: {}
  getUser:
    events:
      - http:
          method: get
          path: /users/{id}
          request:
            parameters:
              paths:
                id: true
          documentation: {}
  healthCheck:
    events:
      - http:
          method: get
          path: /health
          private: true
  legacyHook:
    events:
      - http:
          method: post
          path: /hook
          documentation: null
`)

	r := &countingResolver{}
	s := NewScanner("Orders", r)
	if err := s.Scan(context.Background(), m.Functions); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}

	models := s.Models()
	wantNames := []string{
		"Orders.CreateUser.Request.Body",
		"Orders.CreateUser.Response",
		"Orders.GetUser.Response",
	}
	if len(models) != len(wantNames) {
		t.Fatalf("registered %d models, want %d: %+v", len(models), len(wantNames), models)
	}
	for i, want := range wantNames {
		if models[i].Name != want {
			t.Errorf("models[%d] = %q, want %q", i, models[i].Name, want)
		}
	}

	getDoc := m.Functions["getUser"].Events[0].HTTP.Documentation
	if len(getDoc.PathParams) != 1 || getDoc.PathParams[0].Name != "id" {
		t.Errorf("path params not normalized: %+v", getDoc.PathParams)
	}

	stats := s.Stats()
	if stats.Functions != 5 || stats.HTTPEvents != 5 {
		t.Errorf("stats = %+v, want 5 functions with 5 http events", stats)
	}
	if stats.Documented != 3 || stats.OptedOut != 2 {
		t.Errorf("stats = %+v, want 3 documented and 2 opted out", stats)
	}
}

func TestScanReportsEveryMissingFunction(t *testing.T) {
	t.Parallel()

	m := parseManifest(t, `
service: orders
functions:
  alpha:
    events:
      - http:
          method: get
          path: /a
      - http:
          method: post
          path: /a
  bravo:
    events:
      - http:
          method: get
          path: /b
          documentation: {}
  charlie:
    events:
      - http:
          method: get
          path: /c
`)

	r := &countingResolver{}
	s := NewScanner("Orders", r)
	err := s.Scan(context.Background(), m.Functions)
	if err == nil {
		t.Fatalf("Scan succeeded, want missing documentation error")
	}

	var missing *MissingDocumentationError
	if !errors.As(err, &missing) {
		t.Fatalf("error %T is not a MissingDocumentationError", err)
	}
	if len(missing.Functions) != 2 || missing.Functions[0] != "alpha" || missing.Functions[1] != "charlie" {
		t.Errorf("Functions = %v, want [alpha charlie]", missing.Functions)
	}
	if !strings.Contains(err.Error(), "alpha") || !strings.Contains(err.Error(), "charlie") {
		t.Errorf("error message %q does not list the offenders", err)
	}

	// The documented function was still synthesized before the gate fired.
	if len(s.Models()) != 1 || s.Models()[0].Name != "Orders.Bravo.Response" {
		t.Errorf("documented function not processed: %+v", s.Models())
	}
}

func TestScanAbortsOnResolutionFailure(t *testing.T) {
	t.Parallel()

	m := parseManifest(t, `
service: orders
functions:
  aardvark:
    events:
      - http:
          method: get
          path: /a
          documentation: {}
  badger:
    events:
      - http:
          method: get
          path: /b
          documentation: {}
  zebra:
    events:
      - http:
          method: get
          path: /z
          documentation: {}
`)

	r := &countingResolver{failOn: "Orders.Badger.Response"}
	s := NewScanner("Orders", r)
	err := s.Scan(context.Background(), m.Functions)
	if err == nil {
		t.Fatalf("Scan succeeded, want resolution error")
	}
	var re *schema.ResolutionError
	if !errors.As(err, &re) || re.Model != "Orders.Badger.Response" {
		t.Fatalf("error = %v, want resolution failure for Orders.Badger.Response", err)
	}
	if len(r.calls) != 2 {
		t.Errorf("resolver calls = %v, scan should stop at the failure", r.calls)
	}
}

func TestScanIgnoresNonHTTPEvents(t *testing.T) {
	t.Parallel()

	m := parseManifest(t, `
service: orders
functions:
  worker:
    events:
      - sqs: arn:aws:sqs:us-east-1:000000000000:jobs
  cron: {}
`)

	s := NewScanner("Orders", &countingResolver{})
	if err := s.Scan(context.Background(), m.Functions); err != nil {
		t.Fatalf("Scan returned error: %v", err)
	}
	stats := s.Stats()
	if stats.HTTPEvents != 0 || stats.Documented != 0 {
		t.Errorf("stats = %+v, want no http events", stats)
	}
}

func TestScanTwiceYieldsIdenticalModels(t *testing.T) {
	t.Parallel()

	src := `
service: orders
functions:
  getUser:
    events:
      - http:
          method: get
          path: /users/{id}
          request:
            parameters:
              paths:
                id: true
          documentation: {}
`
	m := parseManifest(t, src)

	first := NewScanner("Orders", &countingResolver{})
	if err := first.Scan(context.Background(), m.Functions); err != nil {
		t.Fatalf("first Scan returned error: %v", err)
	}

	// A second pass over the already-synthesized manifest regenerates the
	// same metadata instead of stacking duplicates onto the event.
	second := NewScanner("Orders", &countingResolver{})
	if err := second.Scan(context.Background(), m.Functions); err != nil {
		t.Fatalf("second Scan returned error: %v", err)
	}

	a, b := first.Models(), second.Models()
	if len(a) != 1 || len(b) != 1 || a[0].Name != b[0].Name {
		t.Fatalf("scans diverged: %+v vs %+v", a, b)
	}

	doc := m.Functions["getUser"].Events[0].HTTP.Documentation
	if len(doc.MethodResponses) != 1 {
		t.Errorf("responses accumulated across scans: %+v", doc.MethodResponses)
	}
	if len(doc.PathParams) != 1 {
		t.Errorf("path params accumulated across scans: %+v", doc.PathParams)
	}

	merged := MergeModels(a, b)
	if len(merged) != 2 {
		t.Errorf("merged registry = %d entries, want simple concatenation", len(merged))
	}
}

package docs

import (
	"context"
	"fmt"
	"testing"

	"github.com/sls2openapi/sls2openapi/internal/manifest"
	"github.com/sls2openapi/sls2openapi/internal/schema"
)

// countingResolver records every requested model name and answers with a
// synthetic schema keyed by the name.
type countingResolver struct {
	calls  []string
	failOn string
}

func (r *countingResolver) Resolve(_ context.Context, name string) (map[string]any, error) {
	r.calls = append(r.calls, name)
	if name == r.failOn {
		return nil, &schema.ResolutionError{Model: name, Cause: fmt.Errorf("no such type")}
	}
	return map[string]any{"type": "object", "title": name}, nil
}

func documentedEvent(method string) *manifest.HttpEvent {
	return &manifest.HttpEvent{
		Method:           method,
		Path:             "/things",
		Documentation:    &manifest.Documentation{},
		DocumentationSet: true,
	}
}

func TestSynthesizeGetBuildsResponse(t *testing.T) {
	t.Parallel()

	r := &countingResolver{}
	reg := &ModelRegistry{}
	synth := NewSynthesizer("Orders", r, reg)

	ev := documentedEvent("get")
	if err := synth.Synthesize(context.Background(), ev, "getUser"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	doc := ev.Documentation
	if doc.RequestModels != nil || doc.RequestBody != nil {
		t.Errorf("GET must not synthesize request documentation: %+v", doc)
	}
	if len(doc.MethodResponses) != 1 {
		t.Fatalf("MethodResponses = %d entries, want 1", len(doc.MethodResponses))
	}
	resp := doc.MethodResponses[0]
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.ResponseBody == nil || resp.ResponseBody.Description != "" {
		t.Errorf("ResponseBody = %+v, want empty description stub", resp.ResponseBody)
	}
	if got := resp.ResponseModels["application/json"]; got != "Orders.GetUser.Response" {
		t.Errorf("response model = %q, want Orders.GetUser.Response", got)
	}

	models := reg.Models()
	if len(models) != 1 {
		t.Fatalf("registry holds %d models, want 1", len(models))
	}
	if models[0].Name != "Orders.GetUser.Response" || models[0].ContentType != "application/json" {
		t.Errorf("registered model = %+v", models[0])
	}
	if s, ok := models[0].Schema.(map[string]any); !ok || s["title"] != "Orders.GetUser.Response" {
		t.Errorf("registered schema = %+v, want resolver output", models[0].Schema)
	}
}

func TestSynthesizeMutatingMethodsBuildRequestAndResponse(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"post", "PUT", "Patch"} {
		method := method
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			r := &countingResolver{}
			reg := &ModelRegistry{}
			synth := NewSynthesizer("Orders", r, reg)

			ev := documentedEvent(method)
			if err := synth.Synthesize(context.Background(), ev, "createUser"); err != nil {
				t.Fatalf("Synthesize returned error: %v", err)
			}

			doc := ev.Documentation
			if got := doc.RequestModels["application/json"]; got != "Orders.CreateUser.Request.Body" {
				t.Errorf("request model = %q, want Orders.CreateUser.Request.Body", got)
			}
			if doc.RequestBody == nil || doc.RequestBody.Description != "" {
				t.Errorf("RequestBody = %+v, want empty description stub", doc.RequestBody)
			}
			if len(doc.MethodResponses) != 1 || doc.MethodResponses[0].StatusCode != 200 {
				t.Fatalf("MethodResponses = %+v, want single 200", doc.MethodResponses)
			}

			models := reg.Models()
			if len(models) != 2 {
				t.Fatalf("registry holds %d models, want 2", len(models))
			}
			if models[0].Name != "Orders.CreateUser.Request.Body" || models[1].Name != "Orders.CreateUser.Response" {
				t.Errorf("registration order = [%s, %s], want request body then response",
					models[0].Name, models[1].Name)
			}
		})
	}
}

func TestSynthesizeDeleteNeedsNoModels(t *testing.T) {
	t.Parallel()

	r := &countingResolver{}
	reg := &ModelRegistry{}
	synth := NewSynthesizer("Orders", r, reg)

	ev := documentedEvent("DELETE")
	ev.Documentation.MethodResponses = []manifest.MethodResponse{{StatusCode: 200}}
	if err := synth.Synthesize(context.Background(), ev, "deleteUser"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	doc := ev.Documentation
	if len(doc.MethodResponses) != 1 {
		t.Fatalf("MethodResponses = %+v, want single entry", doc.MethodResponses)
	}
	resp := doc.MethodResponses[0]
	if resp.StatusCode != 204 {
		t.Errorf("StatusCode = %d, want 204", resp.StatusCode)
	}
	if resp.ResponseModels == nil || len(resp.ResponseModels) != 0 {
		t.Errorf("ResponseModels = %v, want explicit empty map", resp.ResponseModels)
	}
	if resp.ResponseBody != nil {
		t.Errorf("ResponseBody = %+v, want none", resp.ResponseBody)
	}
	if len(r.calls) != 0 {
		t.Errorf("resolver called for DELETE: %v", r.calls)
	}
	if reg.Len() != 0 {
		t.Errorf("registry holds %d models, want 0", reg.Len())
	}
}

func TestSynthesizeLeavesOtherMethodsAlone(t *testing.T) {
	t.Parallel()

	r := &countingResolver{}
	reg := &ModelRegistry{}
	synth := NewSynthesizer("Orders", r, reg)

	for _, method := range []string{"options", "head", ""} {
		ev := documentedEvent(method)
		ev.Documentation.MethodResponses = []manifest.MethodResponse{{StatusCode: 418}}
		if err := synth.Synthesize(context.Background(), ev, "misc"); err != nil {
			t.Fatalf("Synthesize(%q) returned error: %v", method, err)
		}
		if got := ev.Documentation.MethodResponses[0].StatusCode; got != 418 {
			t.Errorf("method %q: documentation modified, status now %d", method, got)
		}
	}
	if len(r.calls) != 0 || reg.Len() != 0 {
		t.Errorf("no-op methods touched the resolver or registry: calls=%v len=%d", r.calls, reg.Len())
	}
}

func TestSynthesizeOverwritesAuthoredResponses(t *testing.T) {
	t.Parallel()

	r := &countingResolver{}
	synth := NewSynthesizer("Orders", r, &ModelRegistry{})

	ev := documentedEvent("get")
	ev.Documentation.MethodResponses = []manifest.MethodResponse{
		{StatusCode: 301}, {StatusCode: 404},
	}
	if err := synth.Synthesize(context.Background(), ev, "getUser"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if got := ev.Documentation.MethodResponses; len(got) != 1 || got[0].StatusCode != 200 {
		t.Errorf("authored responses not overwritten: %+v", got)
	}
}

func TestSynthesizeSkipsEventsWithoutDocumentation(t *testing.T) {
	t.Parallel()

	r := &countingResolver{}
	synth := NewSynthesizer("Orders", r, &ModelRegistry{})

	ev := &manifest.HttpEvent{Method: "get", Path: "/x"}
	if err := synth.Synthesize(context.Background(), ev, "getThing"); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("resolver called for undocumented event: %v", r.calls)
	}
}

func TestSynthesizeStopsOnResolutionFailure(t *testing.T) {
	t.Parallel()

	r := &countingResolver{failOn: "Orders.CreateUser.Request.Body"}
	reg := &ModelRegistry{}
	synth := NewSynthesizer("Orders", r, reg)

	ev := documentedEvent("post")
	err := synth.Synthesize(context.Background(), ev, "createUser")
	if err == nil {
		t.Fatalf("Synthesize succeeded, want resolution error")
	}
	if reg.Len() != 0 {
		t.Errorf("registry holds %d models after failure, want 0", reg.Len())
	}
	if ev.Documentation.RequestModels != nil {
		t.Errorf("documentation mutated despite failure: %+v", ev.Documentation)
	}
}

func TestPascalCase(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"getUser", "GetUser"},
		{"get-user-profile", "GetUserProfile"},
		{"get_user profile", "GetUserProfile"},
		{"v2.search", "V2Search"},
		{"ALLCAPS", "ALLCAPS"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := PascalCase(tc.in); got != tc.want {
			t.Errorf("PascalCase(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRegistryAccumulatesDuplicates(t *testing.T) {
	t.Parallel()

	reg := &ModelRegistry{}
	def := manifest.ModelDef{Name: "Orders.X.Response", ContentType: "application/json"}
	reg.Add(def)
	reg.Add(def)
	if reg.Len() != 2 {
		t.Errorf("Len = %d, want duplicates kept", reg.Len())
	}
}

func TestMergeModels(t *testing.T) {
	t.Parallel()

	existing := []manifest.ModelDef{{Name: "Keep.Me"}}
	registered := []manifest.ModelDef{{Name: "Add.Me"}, {Name: "Add.Me.Too"}}

	merged := MergeModels(existing, registered)
	if len(merged) != 3 {
		t.Fatalf("merged length = %d, want 3", len(merged))
	}
	if merged[0].Name != "Keep.Me" || merged[1].Name != "Add.Me" || merged[2].Name != "Add.Me.Too" {
		t.Errorf("merge order wrong: %+v", merged)
	}

	same := MergeModels(existing, nil)
	if len(same) != 1 || same[0].Name != "Keep.Me" {
		t.Errorf("merging nothing changed the list: %+v", same)
	}
}

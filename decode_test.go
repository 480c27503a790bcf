package entities

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type articleView struct {
	Title  string `json:"title"`
	Status string `json:"status"`
	Kind   string `json:"kind"`
}

func (a articleView) Validate() error {
	if a.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

type pointerValidated struct {
	Title string `json:"title"`
}

func (p *pointerValidated) Validate() error {
	if p.Title == "blocked" {
		return errors.New("blocked title")
	}
	return nil
}

func TestDecodeHydratesExport(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore(P("post_title", "Hello")))

	view, err := Decode[articleView](entity)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view != (articleView{Title: "Hello", Status: "draft", Kind: "article"}) {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestDecodeRunsValidation(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore(P("post_title", "")))

	_, err := Decode[articleView](entity)
	if err == nil || !strings.Contains(err.Error(), "title is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := Decode[articleView](entity, DecodeSkipValidation()); err != nil {
		t.Fatalf("expected validation skipped, got %v", err)
	}

	blocked := New(articleSchema(), newRecordingStore(P("post_title", "blocked")))
	if _, err := Decode[pointerValidated](blocked); err == nil {
		t.Fatalf("expected pointer receiver validation to run")
	}
	if _, err := Decode[*pointerValidated](blocked); err == nil {
		t.Fatalf("expected validation through pointer target")
	}
}

func TestDecodeStrictRejectsUnknownAttributes(t *testing.T) {
	type titleOnly struct {
		Title string `json:"title"`
	}
	entity := New(articleSchema(), newRecordingStore(P("post_title", "Hello")))

	if _, err := Decode[titleOnly](entity); err != nil {
		t.Fatalf("expected lenient decode, got %v", err)
	}
	_, err := Decode[titleOnly](entity, DecodeStrict())
	if err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestDecodeUseNumber(t *testing.T) {
	schema := NewSchema(map[string]Property{"count": Direct("count")}, nil)
	entity := New(schema, newRecordingStore(P("count", 3)))

	type loose struct {
		Count any `json:"count"`
	}
	out, err := Decode[loose](entity, DecodeUseNumber())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := out.Count.(json.Number); !ok {
		t.Fatalf("expected json.Number, got %T", out.Count)
	}
}

func TestDecodePropagatesExportErrors(t *testing.T) {
	entity := New(articleSchema(), newRecordingStore())
	if _, err := Decode[articleView](entity); !IsMissing(err) {
		t.Fatalf("expected missing title to fail decode, got %v", err)
	}
}

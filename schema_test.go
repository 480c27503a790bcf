package entities

import (
	"reflect"
	"testing"
)

func TestNewSchemaCopiesInputs(t *testing.T) {
	properties := map[string]Property{"title": Direct("post_title")}
	defaults := map[string]any{"title": "untitled"}
	schema := NewSchema(properties, defaults)

	properties["extra"] = Direct("extra")
	defaults["title"] = "changed"

	if _, ok := schema.Property("extra"); ok {
		t.Fatalf("expected schema detached from caller properties")
	}
	if value, _ := schema.Default("title"); value != "untitled" {
		t.Fatalf("expected schema detached from caller defaults, got %v", value)
	}

	copied := schema.Properties()
	delete(copied, "title")
	if _, ok := schema.Property("title"); !ok {
		t.Fatalf("expected Properties to return a copy")
	}
	schema.Defaults()["title"] = "mutated"
	if value, _ := schema.Default("title"); value != "untitled" {
		t.Fatalf("expected Defaults to return a copy, got %v", value)
	}
}

func TestSchemaNilSafe(t *testing.T) {
	var schema *Schema
	if len(schema.Properties()) != 0 || len(schema.Defaults()) != 0 || schema.Names() != nil {
		t.Fatalf("expected nil schema to be empty")
	}
	if _, ok := schema.Property("a"); ok {
		t.Fatalf("expected no property on nil schema")
	}
}

func TestDescribe(t *testing.T) {
	evaluator := NewExprEvaluator()
	schema := NewSchema(map[string]Property{
		"title":    Decorate(Direct("post_title"), nil, nil),
		"status":   Defaulting("post_status", "legacy_status"),
		"kind":     Static("article"),
		"slug":     ExprDecorate(Direct("post_slug"), evaluator, "lower(value)", ""),
		"headline": Computed(evaluator, "title + status", []string{"title", "status"}),
		"raw":      Callback(nil, nil),
		"custom":   failingProperty{},
	}, map[string]any{
		"status": "draft",
	})

	fields := Describe(schema)
	byName := map[string]FieldDescriptor{}
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		byName[field.Name] = field
		names = append(names, field.Name)
	}

	if !reflect.DeepEqual(names, []string{"custom", "headline", "kind", "raw", "slug", "status", "title"}) {
		t.Fatalf("expected sorted descriptors, got %v", names)
	}

	cases := map[string]struct {
		kind string
		keys []string
	}{
		"title":    {KindDecorator, []string{"post_title"}},
		"status":   {KindDefaulting, []string{"post_status", "legacy_status"}},
		"kind":     {KindStatic, nil},
		"slug":     {KindDecorator, []string{"post_slug"}},
		"headline": {KindComputed, nil},
		"raw":      {KindCallback, nil},
		"custom":   {KindCustom, nil},
	}
	for name, want := range cases {
		field := byName[name]
		if field.Kind != want.kind || !reflect.DeepEqual(field.Keys, want.keys) {
			t.Fatalf("%s: expected %s %v, got %s %v", name, want.kind, want.keys, field.Kind, field.Keys)
		}
	}

	status := byName["status"]
	if !status.HasDefault || status.DefaultType != "string" {
		t.Fatalf("unexpected default metadata %+v", status)
	}
}

func TestDefaultSchemaGenerator(t *testing.T) {
	doc, err := DefaultSchemaGenerator().Generate(articleSchema())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if doc.Format != SchemaFormatDescriptors {
		t.Fatalf("expected descriptor format, got %q", doc.Format)
	}
	fields, ok := doc.Document.([]FieldDescriptor)
	if !ok || len(fields) != 3 {
		t.Fatalf("expected 3 descriptors, got %#v", doc.Document)
	}
}

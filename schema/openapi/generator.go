package openapi

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	entities "github.com/goliatone/go-entities"
)

var timeType = reflect.TypeOf(time.Time{})

type generator struct {
	config generatorConfig
}

// NewGenerator constructs a generator rendering an entity schema as an
// OpenAPI document with an export (read) and a change batch (write)
// operation.
func NewGenerator(opts ...GeneratorOption) entities.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{config: cfg}
}

func (g generator) Generate(schema *entities.Schema) (entities.SchemaDocument, error) {
	schemas, err := describeAttributes(schema)
	if err != nil {
		return entities.SchemaDocument{}, err
	}
	document, err := newDocumentBuilder(g.config, schemas).build()
	if err != nil {
		return entities.SchemaDocument{}, err
	}
	return entities.SchemaDocument{
		Format:   entities.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

// describeAttributes types each attribute from its default value, or from
// the fixed value of a static property. Other attributes accept any value.
// Static and computed attributes are read-only and left out of the writable
// view; unknown names are rejected there since Set fails on them. A
// successful export carries every attribute, so all are required.
func describeAttributes(schema *entities.Schema) (attributeSchemas, error) {
	exported := map[string]any{}
	writable := map[string]any{}
	var required []string
	for _, field := range entities.Describe(schema) {
		property, _ := schema.Property(field.Name)
		attribute, err := attributeSchema(schema, field, property)
		if err != nil {
			return attributeSchemas{}, fmt.Errorf("openapi: attribute %q: %w", field.Name, err)
		}
		exported[field.Name] = attribute
		required = append(required, field.Name)
		if attribute["readOnly"] != true {
			writable[field.Name] = attribute
		}
	}
	exportedSchema := objectSchema(exported)
	if len(required) > 0 {
		exportedSchema["required"] = required
	}
	return attributeSchemas{
		exported: exportedSchema,
		writable: map[string]any{
			"type":                 "object",
			"properties":           writable,
			"additionalProperties": false,
		},
	}, nil
}

func attributeSchema(schema *entities.Schema, field entities.FieldDescriptor, property entities.Property) (map[string]any, error) {
	attribute := map[string]any{}
	if value, ok := schema.Default(field.Name); ok {
		typed, err := valueSchema(reflect.ValueOf(value))
		if err != nil {
			return nil, err
		}
		attribute = typed
		attribute["default"] = value
	}

	switch typed := property.(type) {
	case *entities.StaticProperty:
		if _, ok := attribute["type"]; !ok {
			inferred, err := valueSchema(reflect.ValueOf(typed.Value))
			if err != nil {
				return nil, err
			}
			attribute = inferred
		}
		if isScalar(typed.Value) {
			attribute["enum"] = []any{typed.Value}
		}
		attribute["readOnly"] = true
	case *entities.ComputedProperty:
		attribute["readOnly"] = true
		if len(typed.Deps) > 0 {
			attribute["x-depends-on"] = append([]string(nil), typed.Deps...)
		}
	}

	attribute["x-entity-kind"] = field.Kind
	if len(field.Keys) > 0 {
		attribute["x-store-keys"] = append([]string(nil), field.Keys...)
	}
	return attribute, nil
}

func isScalar(value any) bool {
	switch reflect.ValueOf(value).Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func objectSchema(properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

// valueSchema derives a JSON schema from a sample value.
func valueSchema(rv reflect.Value) (map[string]any, error) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return map[string]any{"type": "null"}, nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == timeType {
			return map[string]any{"type": "string", "format": "date-time"}, nil
		}
		return structSchema(rv)
	case reflect.Map:
		return mapSchema(rv)
	case reflect.Slice, reflect.Array:
		return listSchema(rv)
	default:
		return map[string]any{
			"type":   "string",
			"format": "go:" + rv.Type().String(),
		}, nil
	}
}

func mapSchema(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("openapi: map key type %s unsupported", rv.Type().Key())
	}
	properties := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		child, err := valueSchema(iter.Value())
		if err != nil {
			return nil, err
		}
		properties[iter.Key().String()] = child
	}
	return objectSchema(properties), nil
}

func structSchema(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	properties := map[string]any{}
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := jsonName(field)
		if name == "" {
			continue
		}
		child, err := valueSchema(rv.Field(i))
		if err != nil {
			return nil, err
		}
		properties[name] = child
	}
	return objectSchema(properties), nil
}

func jsonName(field reflect.StructField) string {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	default:
		return name
	}
}

func listSchema(rv reflect.Value) (map[string]any, error) {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return map[string]any{"type": "string", "format": "byte"}, nil
	}
	items := map[string]any{}
	if rv.Len() > 0 {
		first, err := valueSchema(rv.Index(0))
		if err != nil {
			return nil, err
		}
		items = first
	}
	return map[string]any{"type": "array", "items": items}, nil
}

package entities

import (
	"fmt"
	"sort"
)

// Schema is an immutable collection of properties keyed by attribute name,
// plus optional per-attribute default values. A default is only consulted
// for a name that also has a property; keeping the two consistent is the
// caller's responsibility.
type Schema struct {
	properties map[string]Property
	defaults   map[string]any
}

// NewSchema copies properties and defaults into a new Schema.
func NewSchema(properties map[string]Property, defaults map[string]any) *Schema {
	s := &Schema{
		properties: make(map[string]Property, len(properties)),
		defaults:   make(map[string]any, len(defaults)),
	}
	for name, property := range properties {
		s.properties[name] = property
	}
	for name, value := range defaults {
		s.defaults[name] = value
	}
	return s
}

// Properties returns a copy of the attribute to property mapping.
func (s *Schema) Properties() map[string]Property {
	if s == nil {
		return map[string]Property{}
	}
	out := make(map[string]Property, len(s.properties))
	for name, property := range s.properties {
		out[name] = property
	}
	return out
}

// Defaults returns a copy of the attribute to default value mapping.
func (s *Schema) Defaults() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(s.defaults))
	for name, value := range s.defaults {
		out[name] = value
	}
	return out
}

// Property returns the property registered under name.
func (s *Schema) Property(name string) (Property, bool) {
	if s == nil {
		return nil, false
	}
	property, ok := s.properties[name]
	return property, ok
}

// Default returns the default registered under name.
func (s *Schema) Default(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	value, ok := s.defaults[name]
	return value, ok
}

// Names returns the attribute names sorted alphabetically.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.properties))
	for name := range s.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FieldDescriptor describes one schema attribute.
type FieldDescriptor struct {
	Name        string
	Kind        string
	Keys        []string
	HasDefault  bool
	DefaultType string
}

// Property kinds reported by Describe.
const (
	KindDirect     = "direct"
	KindDefaulting = "defaulting"
	KindStatic     = "static"
	KindCallback   = "callback"
	KindDecorator  = "decorator"
	KindComputed   = "computed"
	KindCustom     = "custom"
)

// Describe returns one descriptor per attribute, sorted by name.
func Describe(schema *Schema) []FieldDescriptor {
	names := schema.Names()
	fields := make([]FieldDescriptor, 0, len(names))
	for _, name := range names {
		property, _ := schema.Property(name)
		field := FieldDescriptor{
			Name: name,
			Kind: propertyKind(property),
			Keys: StoreKeys(property),
		}
		if value, ok := schema.Default(name); ok {
			field.HasDefault = true
			field.DefaultType = typeName(value)
		}
		fields = append(fields, field)
	}
	return fields
}

// StoreKeys returns the store keys a property reads from, following
// decorators down to the property they wrap.
func StoreKeys(property Property) []string {
	switch typed := property.(type) {
	case *DirectProperty:
		return []string{typed.Key}
	case *DefaultingProperty:
		return append([]string(nil), typed.Keys...)
	case *DecoratorProperty:
		return StoreKeys(typed.Inner)
	case *ExprDecoratorProperty:
		return StoreKeys(typed.Inner)
	default:
		return nil
	}
}

func propertyKind(property Property) string {
	switch property.(type) {
	case *DirectProperty:
		return KindDirect
	case *DefaultingProperty:
		return KindDefaulting
	case *StaticProperty:
		return KindStatic
	case *CallbackProperty:
		return KindCallback
	case *DecoratorProperty, *ExprDecoratorProperty:
		return KindDecorator
	case *ComputedProperty:
		return KindComputed
	default:
		return KindCustom
	}
}

// DefaultSchemaGenerator returns the built-in descriptor-based schema generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(schema *Schema) (SchemaDocument, error) {
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: Describe(schema),
	}, nil
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

package openapi

import (
	"errors"
	"fmt"
	"strings"
)

const changesSuffix = "Changes"

var errNoOperations = errors.New("openapi: document must publish the read or write operation")

// attributeSchemas holds the two views of an entity schema: every exported
// attribute, and the subset a write may name.
type attributeSchemas struct {
	exported map[string]any
	writable map[string]any
}

type documentBuilder struct {
	config  generatorConfig
	schemas attributeSchemas
}

func newDocumentBuilder(config generatorConfig, schemas attributeSchemas) *documentBuilder {
	return &documentBuilder{config: config, schemas: schemas}
}

func (b *documentBuilder) build() (map[string]any, error) {
	if b.schemas.exported == nil || b.schemas.writable == nil {
		return nil, fmt.Errorf("openapi: attribute schemas cannot be nil")
	}
	if b.config.read.Disabled && b.config.write.Disabled {
		return nil, errNoOperations
	}

	exported, writable := any(b.schemas.exported), any(b.schemas.writable)
	document := map[string]any{
		"openapi": b.config.openAPIVersion,
		"info":    b.buildInfo(),
	}
	if name := sanitizeComponentName(b.config.rootComponent); name != "" {
		document["components"] = map[string]any{
			"schemas": map[string]any{
				name:                 b.schemas.exported,
				name + changesSuffix: b.schemas.writable,
			},
		}
		exported = componentRef(name)
		writable = componentRef(name + changesSuffix)
	}

	pathItem := map[string]any{}
	if !b.config.read.Disabled {
		pathItem[b.config.read.Method] = b.readOperation(exported)
	}
	if !b.config.write.Disabled {
		pathItem[b.config.write.Method] = b.writeOperation(writable)
	}
	document["paths"] = map[string]any{b.config.path: pathItem}

	if err := validateDocument(document); err != nil {
		return nil, err
	}
	return document, nil
}

func (b *documentBuilder) buildInfo() map[string]any {
	info := map[string]any{
		"title":   b.config.info.Title,
		"version": b.config.info.Version,
	}
	if b.config.info.Description != "" {
		info["description"] = b.config.info.Description
	}
	return info
}

func (b *documentBuilder) readOperation(schema any) map[string]any {
	operation := b.operation(b.config.read)
	operation["responses"] = map[string]any{
		"200": map[string]any{
			"description": "Exported attributes",
			"content":     b.content(schema),
		},
		"422": map[string]any{"description": "Attribute without value or default"},
	}
	return operation
}

func (b *documentBuilder) writeOperation(schema any) map[string]any {
	operation := b.operation(b.config.write)
	operation["requestBody"] = map[string]any{
		"required": true,
		"content":  b.content(schema),
	}
	operation["responses"] = map[string]any{
		"204": map[string]any{"description": "Committed"},
		"422": map[string]any{"description": "Unknown attribute or rejected write"},
	}
	return operation
}

func (b *documentBuilder) operation(cfg operationConfig) map[string]any {
	operation := map[string]any{
		"operationId": operationID(cfg, b.config.path),
	}
	if summary := strings.TrimSpace(cfg.Summary); summary != "" {
		operation["summary"] = summary
	}
	return operation
}

func (b *documentBuilder) content(schema any) map[string]any {
	return map[string]any{
		b.config.contentType: map[string]any{"schema": schema},
	}
}

func operationID(cfg operationConfig, path string) string {
	if cfg.OperationID != "" {
		return cfg.OperationID
	}
	return cfg.Method + ":" + path
}

func componentRef(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func sanitizeComponentName(name string) string {
	var builder strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

func validateDocument(document map[string]any) error {
	if document == nil {
		return fmt.Errorf("openapi: document cannot be nil")
	}
	if version, _ := document["openapi"].(string); version == "" {
		return fmt.Errorf("openapi: document missing version string")
	}
	info, _ := document["info"].(map[string]any)
	if info == nil {
		return fmt.Errorf("openapi: document missing info section")
	}
	if title, _ := info["title"].(string); title == "" {
		return fmt.Errorf("openapi: info.title must be set")
	}
	if version, _ := info["version"].(string); version == "" {
		return fmt.Errorf("openapi: info.version must be set")
	}
	paths, _ := document["paths"].(map[string]any)
	if len(paths) == 0 {
		return fmt.Errorf("openapi: document must define at least one path")
	}
	for pathKey, pathValue := range paths {
		pathItem, _ := pathValue.(map[string]any)
		if len(pathItem) == 0 {
			return errNoOperations
		}
		for method, operationValue := range pathItem {
			operation, _ := operationValue.(map[string]any)
			if operation == nil {
				return fmt.Errorf("openapi: operation %s %s invalid payload", method, pathKey)
			}
			if id, _ := operation["operationId"].(string); id == "" {
				return fmt.Errorf("openapi: operation %s %s missing operationId", method, pathKey)
			}
			if responses, _ := operation["responses"].(map[string]any); len(responses) == 0 {
				return fmt.Errorf("openapi: operation %s %s missing responses", method, pathKey)
			}
			if method == "get" {
				continue
			}
			requestBody, _ := operation["requestBody"].(map[string]any)
			if content, _ := requestBody["content"].(map[string]any); len(content) == 0 {
				return fmt.Errorf("openapi: operation %s %s missing request body", method, pathKey)
			}
		}
	}
	return nil
}

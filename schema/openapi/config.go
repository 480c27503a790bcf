package openapi

import "strings"

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	path           string
	read           operationConfig
	write          operationConfig
	contentType    string
	rootComponent  string
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

// operationConfig describes one of the two entity operations: reading the
// exported attributes or writing a change batch.
type operationConfig struct {
	Disabled    bool
	Method      string
	OperationID string
	Summary     string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: openapiInfo{
			Title:   "Entity Schema",
			Version: "1.0.0",
		},
		path: "/entities",
		read: operationConfig{
			Method:  "get",
			Summary: "Export entity attributes",
		},
		write: operationConfig{
			Method:  "patch",
			Summary: "Write entity attributes",
		},
		contentType: "application/json",
	}
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version != "" {
			cfg.openAPIVersion = version
		}
	}
}

// InfoOption configures optional fields on the info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the info description.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo configures the info block. Empty strings keep the defaults.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// WithPath sets the path both entity operations are published under.
func WithPath(path string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if path = strings.TrimSpace(path); path != "" {
			cfg.path = path
		}
	}
}

// OperationOption configures optional operation metadata.
type OperationOption func(*operationConfig)

// WithOperationSummary attaches a summary to an operation.
func WithOperationSummary(summary string) OperationOption {
	return func(operation *operationConfig) {
		operation.Summary = summary
	}
}

// WithReadOperation sets the operationId of the export operation.
func WithReadOperation(operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.read.Disabled = false
		applyOperation(&cfg.read, operationID, opts)
	}
}

// WithWriteOperation sets the method and operationId of the write operation.
// Only post, put and patch carry a request body; other methods keep the
// current one.
func WithWriteOperation(method, operationID string, opts ...OperationOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.write.Disabled = false
		switch method = strings.ToLower(strings.TrimSpace(method)); method {
		case "post", "put", "patch":
			cfg.write.Method = method
		}
		applyOperation(&cfg.write, operationID, opts)
	}
}

// WithoutReadOperation omits the export operation.
func WithoutReadOperation() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.read.Disabled = true
	}
}

// WithoutWriteOperation omits the write operation, publishing a read-only
// document.
func WithoutWriteOperation() GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.write.Disabled = true
	}
}

// WithContentType sets the media type of request and response bodies.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if contentType != "" {
			cfg.contentType = contentType
		}
	}
}

// WithRootComponent publishes the attribute schemas under components.schemas.
// The exported attributes use name and the writable subset uses name plus
// "Changes"; both operations reference them.
func WithRootComponent(name string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.rootComponent = name
	}
}

func applyOperation(operation *operationConfig, operationID string, opts []OperationOption) {
	if operationID != "" {
		operation.OperationID = operationID
	}
	for _, opt := range opts {
		if opt != nil {
			opt(operation)
		}
	}
}

// Package tool provides a small registry/server for JSON-argument tools with
// schema validation and rate limiting. It is the local equivalent of an MCP
// tool surface: callers invoke tools by name with a map of arguments.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is a named operation with a JSON-argument handler.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Handler     Handler `json:"-"`
	Schema      Schema  `json:"input_schema"`
}

// Handler is the function signature for tool handlers.
type Handler func(context.Context, Args) (any, error)

// Schema describes a tool's input fields.
type Schema map[string]SchemaField

// SchemaField describes one input field.
type SchemaField struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Args provides type-safe access to tool arguments.
type Args map[string]any

// String returns a string argument, or "" when absent or mistyped.
func (a Args) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns a boolean argument.
func (a Args) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// Int returns an integer argument, tolerating JSON number decoding.
func (a Args) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}

// ValidateArgs checks the arguments against the schema: required fields must
// be present, types must match, enum values must be allowed.
func (s Schema) ValidateArgs(args Args) error {
	for name, field := range s {
		val, exists := args[name]
		if field.Required && !exists {
			return &ValidationError{Field: name, Reason: "missing required field"}
		}
		if !exists {
			continue
		}
		if err := validateField(name, val, field); err != nil {
			return err
		}
	}
	return nil
}

func validateField(name string, val any, field SchemaField) error {
	switch field.Type {
	case "string":
		str, ok := val.(string)
		if !ok {
			return &ValidationError{Field: name, Reason: "expected string"}
		}
		if len(field.Enum) > 0 {
			for _, allowed := range field.Enum {
				if allowedStr, ok := allowed.(string); ok && allowedStr == str {
					return nil
				}
			}
			return &ValidationError{Field: name, Reason: "value not in allowed list"}
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return &ValidationError{Field: name, Reason: "expected boolean"}
		}
	case "object":
		if _, ok := val.(map[string]any); !ok {
			return &ValidationError{Field: name, Reason: "expected object"}
		}
	}
	return nil
}

// ValidationError reports a schema violation in tool arguments.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "field " + e.Field + ": " + e.Reason
}

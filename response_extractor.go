package kamba

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ResponseExtractor defines the interface for extracting structured data from LLM responses.
type ResponseExtractor interface {
	// Extract processes the LLM response and returns the extracted data.
	Extract(response LLMResponse) (interface{}, error)
}

// JSONExtractor implements ResponseExtractor for JSON formatted responses.
// When Schema is set the document is validated against it before decoding.
type JSONExtractor struct {
	// Target is a pointer to the struct where JSON data should be unmarshaled.
	Target interface{}
	// Schema is an optional JSON schema the document must satisfy.
	Schema gojsonschema.JSONLoader
}

// NewJSONExtractor creates a new JSONExtractor with the specified target struct.
func NewJSONExtractor(target interface{}) *JSONExtractor {
	return &JSONExtractor{Target: target}
}

// NewSchemaJSONExtractor creates a JSONExtractor that validates against schema first.
func NewSchemaJSONExtractor(target interface{}, schema string) *JSONExtractor {
	return &JSONExtractor{
		Target: target,
		Schema: gojsonschema.NewStringLoader(schema),
	}
}

// Extract implements ResponseExtractor.Extract for JSON data.
func (e *JSONExtractor) Extract(response LLMResponse) (interface{}, error) {
	// Models often wrap JSON in a markdown code block despite instructions.
	jsonContent := extractFromCodeBlock(response.Text, "json")
	if jsonContent == "" {
		jsonContent = extractFromCodeBlock(response.Text, "")
	}
	if jsonContent == "" {
		jsonContent = strings.TrimSpace(response.Text)
	}

	if e.Schema != nil {
		result, err := gojsonschema.Validate(e.Schema, gojsonschema.NewStringLoader(jsonContent))
		if err != nil {
			return nil, fmt.Errorf("failed to validate JSON: %w", err)
		}
		if !result.Valid() {
			problems := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				problems = append(problems, desc.String())
			}
			return nil, fmt.Errorf("JSON does not match schema: %s", strings.Join(problems, "; "))
		}
	}

	if err := json.Unmarshal([]byte(jsonContent), e.Target); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return e.Target, nil
}

// Helper function to extract content from markdown code blocks
func extractFromCodeBlock(text, language string) string {
	pattern := fmt.Sprintf("```%s\\s*\\n([\\s\\S]*?)```", regexp.QuoteMeta(language))
	re := regexp.MustCompile(pattern)
	matches := re.FindStringSubmatch(text)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}

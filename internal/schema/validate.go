// Package schema validates raw HAR documents before they are decoded.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/har-extractor/pkg/har"
)

// maxReportedErrors caps the violations listed in a ValidationError.
const maxReportedErrors = 20

// ValidationError lists the schema violations found in a document.
type ValidationError struct {
	Errors  []string // "<instance path>: <message>", sorted
	Omitted int      // Violations beyond maxReportedErrors
}

func (e *ValidationError) Error() string {
	msg := "invalid HAR document: " + strings.Join(e.Errors, "; ")
	if e.Omitted > 0 {
		msg += fmt.Sprintf(" (and %d more)", e.Omitted)
	}
	return msg
}

// Validator validates JSON documents against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewHARValidator compiles a schema reflected from the har package types.
// Fields the extractor relies on (log.entries, request.url,
// response.content) are required; unknown fields are allowed.
func NewHARValidator() (*Validator, error) {
	reflector := &invopop.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		Anonymous:                 true,
	}
	return compileSchema(reflector.Reflect(&har.Archive{}))
}

// compileSchema compiles a reflected schema into a validator.
func compileSchema(schema *invopop.Schema) (*Validator, error) {
	// Convert to JSON and back to get a clean map[string]any
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	schemaValue, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("har.json", schemaValue); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("har.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate checks a raw JSON document. It returns a *ValidationError when
// the document parses but violates the schema.
func (v *Validator) Validate(data []byte) error {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(har.StripBOM(data)))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(value); err != nil {
		return newValidationError(err)
	}
	return nil
}

func newValidationError(err error) error {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return err
	}

	msgs := extractDetailedErrors(validationErr)
	result := &ValidationError{Errors: msgs}
	if len(msgs) > maxReportedErrors {
		result.Errors = msgs[:maxReportedErrors]
		result.Omitted = len(msgs) - maxReportedErrors
	}
	return result
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens a ValidationError tree into sorted,
// deduplicated "path: message" strings.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	seen := make(map[string]bool)
	var result []string
	for path, msgs := range errorsByPath {
		for _, msg := range msgs {
			line := msg
			if path != "" {
				line = path + ": " + msg
			}
			if !seen[line] {
				seen[line] = true
				result = append(result, line)
			}
		}
	}
	sort.Strings(result)
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref and oneOf wrappers only repeat their causes.
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}

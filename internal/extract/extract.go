// Package extract recovers the structured generation payload from free-text model output.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// ErrMalformedResponse is returned when no valid payload object can be recovered.
var ErrMalformedResponse = errors.New("malformed model response")

const (
	// DefaultFreshDescription is used when a fresh generation omits its description.
	DefaultFreshDescription = "Generated Next.js application"
	// DefaultUpdateDescription is used when an update omits its description.
	DefaultUpdateDescription = "Updated Next.js application files"
)

var fenceMarker = regexp.MustCompile("(?i)```(?:json)?")

// Extract parses raw model output into a payload. A missing description is filled in
// according to isUpdate; the returned payload carries isUpdate as well.
func Extract(raw string, isUpdate bool) (*model.GenerationPayload, error) {
	payload, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	payload.IsUpdate = isUpdate
	if strings.TrimSpace(payload.Description) == "" {
		payload.Description = DefaultFreshDescription
		if isUpdate {
			payload.Description = DefaultUpdateDescription
		}
	}

	return payload, nil
}

// Parse locates the first top-level JSON object in text that carries a valid files
// mapping. Description is returned as found, possibly empty.
func Parse(text string) (*model.GenerationPayload, error) {
	reason := "no JSON object found"

	tried := make(map[string]bool)
	for _, candidate := range Objects(text) {
		tried[candidate] = true
		payload, err := decode(candidate)
		if err == nil {
			return payload, nil
		}
		reason = err.Error()
	}

	if candidate, ok := outermost(text); ok && !tried[candidate] {
		payload, err := decode(candidate)
		if err == nil {
			return payload, nil
		}
		reason = err.Error()
	}

	return nil, fmt.Errorf("%w: %s", ErrMalformedResponse, reason)
}

// Objects returns every balanced top-level {...} span of text, in order. Braces inside
// JSON strings are ignored. An opening brace that is never closed is skipped.
func Objects(text string) []string {
	var objects []string

	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := matchBrace(text, i)
		if end < 0 {
			continue
		}
		objects = append(objects, text[i:end+1])
		i = end
	}

	return objects
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// outermost strips code fences and returns the text between the first '{' and the last '}'.
func outermost(text string) (string, bool) {
	t := fenceMarker.ReplaceAllString(strings.TrimSpace(text), "")
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end < start {
		return "", false
	}
	return t[start : end+1], true
}

func decode(candidate string) (*model.GenerationPayload, error) {
	var envelope struct {
		Files       json.RawMessage `json:"files"`
		Description json.RawMessage `json:"description"`
	}
	if err := json.Unmarshal([]byte(candidate), &envelope); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}

	if len(envelope.Files) == 0 || string(envelope.Files) == "null" {
		return nil, errors.New("missing files object")
	}

	var files model.FileSet
	if err := json.Unmarshal(envelope.Files, &files); err != nil {
		return nil, errors.New("files must map paths to strings")
	}

	// A non-string description is treated as absent.
	var description string
	if len(envelope.Description) > 0 {
		_ = json.Unmarshal(envelope.Description, &description)
	}

	return &model.GenerationPayload{
		Description: description,
		Files:       files,
	}, nil
}

// Package history converts between stored conversation turns and the structures used
// for prompting and display.
package history

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/capitalize-ai/appbuilder/internal/extract"
	"github.com/capitalize-ai/appbuilder/internal/model"
)

// Kind discriminates decoded message content.
type Kind int

const (
	// KindText is plain text.
	KindText Kind = iota
	// KindGeneration is a structured generation result.
	KindGeneration
)

// Content is a decoded message body.
//
// For KindGeneration, Text is the description. For KindText, Text is the raw content and
// Payload is set only when a legacy row embeds a recoverable file set in its text.
type Content struct {
	Kind    Kind
	Text    string
	Payload *model.GenerationPayload
}

// Files returns the recovered file set, or nil.
func (c Content) Files() model.FileSet {
	if c.Payload == nil {
		return nil
	}
	return c.Payload.Files
}

// EncodeGeneration serializes a generation result as assistant message content.
func EncodeGeneration(p *model.GenerationPayload) (string, model.Format, error) {
	files := p.Files
	if files == nil {
		files = model.FileSet{}
	}

	data, err := json.Marshal(&model.GenerationPayload{
		Description: p.Description,
		Files:       files,
		IsUpdate:    p.IsUpdate,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to encode generation: %w", err)
	}

	return string(data), model.FormatGenerationV1, nil
}

// Decode classifies a stored message. Tagged rows are decoded by their format; legacy
// rows try a structured parse first and an embedded-JSON search second.
func Decode(msg model.Message) Content {
	raw := Content{Kind: KindText, Text: msg.Content}

	if msg.Role != model.RoleAssistant {
		return raw
	}

	switch msg.Format {
	case model.FormatText:
		return raw
	case model.FormatGenerationV1:
		if p, ok := decodeStructured(msg.Content); ok {
			return Content{Kind: KindGeneration, Text: p.Description, Payload: p}
		}
		return raw
	}

	if p, ok := decodeStructured(msg.Content); ok {
		return Content{Kind: KindGeneration, Text: p.Description, Payload: p}
	}

	if p, err := extract.Parse(msg.Content); err == nil {
		raw.Payload = p
	}

	return raw
}

func decodeStructured(content string) (*model.GenerationPayload, bool) {
	if !gjson.Valid(content) || !gjson.Get(content, "files").IsObject() {
		return nil, false
	}

	var p model.GenerationPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, false
	}
	if p.Files == nil {
		p.Files = model.FileSet{}
	}

	return &p, true
}

// RecoverForPrompting returns the file set of the most recent assistant turn that has
// one, together with its JSON encoding. ok is false when there is no prior codebase.
func RecoverForPrompting(messages []model.Message) (files model.FileSet, encoded string, ok bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Role != model.RoleAssistant || msg.Content == "" {
			continue
		}

		content := Decode(msg)
		if content.Payload == nil {
			continue
		}

		data, err := json.Marshal(content.Payload.Files)
		if err != nil {
			continue
		}
		return content.Payload.Files, string(data), true
	}

	return nil, "", false
}

// RecoverForDisplay maps stored messages to chat turns in chronological order and
// surfaces the file set of the latest assistant turn that carries one.
func RecoverForDisplay(messages []model.Message) model.Transcript {
	transcript := model.Transcript{
		Turns: make([]model.DisplayTurn, 0, len(messages)),
		Files: model.FileSet{},
		State: model.StateEmpty,
	}

	for _, msg := range messages {
		content := Decode(msg)

		transcript.Turns = append(transcript.Turns, model.DisplayTurn{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   content.Text,
			CreatedAt: msg.CreatedAt,
		})

		if files := content.Files(); files != nil {
			transcript.Files = files
			transcript.State = model.StateInProgress
		}
	}

	return transcript
}

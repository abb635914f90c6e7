package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// Valid reports whether r is a storable role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Format tags how a message's content is encoded.
type Format string

const (
	// FormatLegacy marks rows written before content was tagged; they are classified by parsing.
	FormatLegacy Format = ""
	// FormatText is plain text content.
	FormatText Format = "text"
	// FormatGenerationV1 is a JSON encoded GenerationPayload.
	FormatGenerationV1 Format = "generation/v1"
)

// Message represents one immutable conversation turn.
type Message struct {
	ID             string    `json:"id" db:"id"`
	ConversationID string    `json:"conversationId" db:"conversation_id"`
	Role           Role      `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	Format         Format    `json:"format,omitempty" db:"format"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// FileSet maps repository-relative paths to file contents.
type FileSet map[string]string

// Clone returns a shallow copy of the file set.
func (f FileSet) Clone() FileSet {
	out := make(FileSet, len(f))
	for path, content := range f {
		out[path] = content
	}
	return out
}

// Merge returns a copy of f with every path of update applied on top.
func (f FileSet) Merge(update FileSet) FileSet {
	out := f.Clone()
	for path, content := range update {
		out[path] = content
	}
	return out
}

// GenerationPayload is the structured result of one generation round. It is also the
// persisted content of assistant generation turns.
type GenerationPayload struct {
	Description string  `json:"description"`
	Files       FileSet `json:"files"`
	IsUpdate    bool    `json:"isUpdate"`
}

// GenerationContext is the per-request state assembled before calling the model.
type GenerationContext struct {
	Prompt     string
	PriorFiles FileSet
	PriorJSON  string
	Template   string
	State      ConversationState
}

// IsUpdate reports whether the request refines an existing codebase.
func (g *GenerationContext) IsUpdate() bool {
	return g.State == StateInProgress
}

// HistoryEntry is an optional client-supplied turn; informational only.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the request body of the generation endpoint.
type GenerateRequest struct {
	Prompt         string         `json:"prompt"`
	ConversationID string         `json:"conversationId"`
	History        []HistoryEntry `json:"history,omitempty"`
}

// GenerateResponse is the success body of the generation endpoint.
type GenerateResponse struct {
	Success bool               `json:"success"`
	Data    *GenerationPayload `json:"data"`
}

// AppendMessageRequest is the request to append a raw message.
type AppendMessageRequest struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DisplayTurn is a chat bubble reconstructed from a stored message.
type DisplayTurn struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Transcript is a conversation prepared for display.
type Transcript struct {
	Turns []DisplayTurn     `json:"messages"`
	Files FileSet           `json:"files"`
	State ConversationState `json:"state"`
}

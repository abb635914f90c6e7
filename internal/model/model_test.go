package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestDisplayTitle(t *testing.T) {
	msgs := []Message{
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "  "},
		{Role: RoleUser, Content: "Build a todo app"},
	}

	tests := []struct {
		name     string
		title    *string
		messages []Message
		want     string
	}{
		{"explicit title", strPtr("Shop"), msgs, "Shop"},
		{"nil title uses first user message", nil, msgs, "Build a todo app"},
		{"sentinel title uses first user message", strPtr(DefaultTitle), msgs, "Build a todo app"},
		{"blank title uses first user message", strPtr("   "), msgs, "Build a todo app"},
		{"no messages", nil, nil, DefaultTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Conversation{Title: tt.title}
			assert.Equal(t, tt.want, c.DisplayTitle(tt.messages))
		})
	}
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", TruncateTitle("short"))

	exact := strings.Repeat("x", TitleMaxRunes)
	assert.Equal(t, exact, TruncateTitle(exact))

	long := strings.Repeat("é", TitleMaxRunes+5)
	assert.Equal(t, strings.Repeat("é", TitleMaxRunes)+"...", TruncateTitle(long))
}

func TestFileSetMerge(t *testing.T) {
	prior := FileSet{"a.js": "A", "b.js": "B"}

	merged := prior.Merge(FileSet{"b.js": "B2", "c.js": "C"})

	assert.Equal(t, FileSet{"a.js": "A", "b.js": "B2", "c.js": "C"}, merged)
	assert.Equal(t, FileSet{"a.js": "A", "b.js": "B"}, prior)
}

func TestHasDefaultTitle(t *testing.T) {
	assert.True(t, (&Conversation{}).HasDefaultTitle())
	assert.True(t, (&Conversation{Title: strPtr(DefaultTitle)}).HasDefaultTitle())
	assert.False(t, (&Conversation{Title: strPtr("Mine")}).HasDefaultTitle())
}

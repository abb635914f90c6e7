package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

func turn(role model.Role, content string, format model.Format) model.Message {
	return model.Message{Role: role, Content: content, Format: format, CreatedAt: time.Now()}
}

func generation(t *testing.T, description string, files model.FileSet, isUpdate bool) model.Message {
	t.Helper()
	content, format, err := EncodeGeneration(&model.GenerationPayload{
		Description: description,
		Files:       files,
		IsUpdate:    isUpdate,
	})
	require.NoError(t, err)
	return turn(model.RoleAssistant, content, format)
}

func TestRecoverForPromptingNoAssistant(t *testing.T) {
	for name, msgs := range map[string][]model.Message{
		"empty":     nil,
		"user only": {turn(model.RoleUser, `{"files":{"a.js":"1"}}`, model.FormatText)},
	} {
		t.Run(name, func(t *testing.T) {
			files, encoded, ok := RecoverForPrompting(msgs)
			assert.False(t, ok)
			assert.Nil(t, files)
			assert.Empty(t, encoded)
		})
	}
}

func TestRecoverForPromptingLatestStructured(t *testing.T) {
	msgs := []model.Message{
		turn(model.RoleUser, "Build a todo app", model.FormatText),
		generation(t, "first", model.FileSet{"a.js": "1"}, false),
		turn(model.RoleUser, "Add b", model.FormatText),
		generation(t, "second", model.FileSet{"a.js": "1", "b.js": "2"}, true),
		turn(model.RoleUser, "Failed attempt with no answer", model.FormatText),
	}

	files, encoded, ok := RecoverForPrompting(msgs)
	require.True(t, ok)
	assert.Equal(t, model.FileSet{"a.js": "1", "b.js": "2"}, files)
	assert.JSONEq(t, `{"a.js":"1","b.js":"2"}`, encoded)
}

func TestRecoverForPromptingLegacy(t *testing.T) {
	t.Run("untagged structured payload", func(t *testing.T) {
		msgs := []model.Message{
			turn(model.RoleAssistant, `{"description":"old","files":{"x.js":"1"},"isUpdate":false}`, model.FormatLegacy),
		}
		files, _, ok := RecoverForPrompting(msgs)
		require.True(t, ok)
		assert.Equal(t, model.FileSet{"x.js": "1"}, files)
	})

	t.Run("json embedded in prose", func(t *testing.T) {
		msgs := []model.Message{
			turn(model.RoleAssistant, "Here is your app:\n```json\n{\"files\":{\"y.js\":\"2\"}}\n```", model.FormatLegacy),
		}
		files, encoded, ok := RecoverForPrompting(msgs)
		require.True(t, ok)
		assert.Equal(t, model.FileSet{"y.js": "2"}, files)
		assert.JSONEq(t, `{"y.js":"2"}`, encoded)
	})

	t.Run("plain description skipped for older payload", func(t *testing.T) {
		msgs := []model.Message{
			generation(t, "first", model.FileSet{"a.js": "1"}, false),
			turn(model.RoleAssistant, "Generated a landing page!", model.FormatLegacy),
		}
		files, _, ok := RecoverForPrompting(msgs)
		require.True(t, ok)
		assert.Equal(t, model.FileSet{"a.js": "1"}, files)
	})

	t.Run("plain text only", func(t *testing.T) {
		msgs := []model.Message{
			turn(model.RoleAssistant, "Generated a landing page!", model.FormatLegacy),
		}
		_, _, ok := RecoverForPrompting(msgs)
		assert.False(t, ok)
	})
}

func TestDecodeTaggedText(t *testing.T) {
	// Text-tagged rows are never probed for JSON.
	content := Decode(turn(model.RoleAssistant, `{"files":{"a.js":"1"}}`, model.FormatText))
	assert.Equal(t, KindText, content.Kind)
	assert.Nil(t, content.Payload)
}

func TestDecodeCorruptGeneration(t *testing.T) {
	content := Decode(turn(model.RoleAssistant, `{"files":`, model.FormatGenerationV1))
	assert.Equal(t, KindText, content.Kind)
	assert.Equal(t, `{"files":`, content.Text)
	assert.Nil(t, content.Files())
}

func TestRecoverForDisplay(t *testing.T) {
	msgs := []model.Message{
		turn(model.RoleUser, "Build a todo app", model.FormatText),
		generation(t, "A todo app", model.FileSet{"a.js": "1"}, false),
		turn(model.RoleUser, "Old style", model.FormatText),
		turn(model.RoleAssistant, "Generated a blog!", model.FormatLegacy),
		turn(model.RoleUser, "Add b", model.FormatText),
		generation(t, "Added b", model.FileSet{"a.js": "1", "b.js": "2"}, true),
	}

	transcript := RecoverForDisplay(msgs)

	require.Len(t, transcript.Turns, len(msgs))
	assert.Equal(t, "A todo app", transcript.Turns[1].Content)
	assert.Equal(t, "Generated a blog!", transcript.Turns[3].Content)
	assert.Equal(t, "Added b", transcript.Turns[5].Content)
	assert.Equal(t, model.RoleAssistant, transcript.Turns[5].Role)
	assert.Equal(t, model.FileSet{"a.js": "1", "b.js": "2"}, transcript.Files)
	assert.Equal(t, model.StateInProgress, transcript.State)
}

func TestDisplayAndPromptingAgree(t *testing.T) {
	msgs := []model.Message{
		generation(t, "first", model.FileSet{"a.js": "1"}, false),
		turn(model.RoleAssistant, "prose {\"files\":{\"legacy.js\":\"x\"}}", model.FormatLegacy),
	}

	files, _, ok := RecoverForPrompting(msgs)
	require.True(t, ok)
	assert.Equal(t, files, RecoverForDisplay(msgs).Files)
}

func TestRecoverForDisplayEmpty(t *testing.T) {
	transcript := RecoverForDisplay(nil)
	assert.Empty(t, transcript.Turns)
	assert.Empty(t, transcript.Files)
	assert.Equal(t, model.StateEmpty, transcript.State)
}

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/appbuilder/internal/extract"
	"github.com/capitalize-ai/appbuilder/internal/model"
	"github.com/capitalize-ai/appbuilder/internal/store"
	"github.com/capitalize-ai/appbuilder/pkg/logger"
)

// fakeGenerator replays responses in order and records the prompts it saw.
type fakeGenerator struct {
	responses []string
	errs      []error
	prompts   []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	i := len(g.prompts)
	g.prompts = append(g.prompts, prompt)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", errors.New("no scripted response")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*model.ConversationEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, e *model.ConversationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.EventType
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store         *store.Memory
	gen           *fakeGenerator
	pub           *recordingPublisher
	conversations *ConversationService
	generation    *GenerationService
}

func newFixture(responses ...string) *fixture {
	f := &fixture{
		store: store.NewMemory(),
		gen:   &fakeGenerator{responses: responses},
		pub:   &recordingPublisher{},
	}
	log := logger.NewNop()
	f.conversations = NewConversationService(f.store, f.pub, log)
	f.generation = NewGenerationService(f.conversations, f.gen, f.pub, log)
	return f
}

func (f *fixture) newConversation(t *testing.T, userID string) *model.Conversation {
	t.Helper()
	conv, err := f.conversations.Create(context.Background(), userID, nil)
	require.NoError(t, err)
	return conv
}

func (f *fixture) messages(t *testing.T, convID string) []model.Message {
	t.Helper()
	msgs, err := f.store.ListMessages(context.Background(), convID)
	require.NoError(t, err)
	return msgs
}

const todoResponse = "Here is your app:\n```json\n" +
	`{"description":"A todo app","files":{"app/page.js":"export default function Page() { return <ul>{/* todos */}</ul> }","app/layout.js":"export default function Layout({children}) { return children }"}}` +
	"\n```\nEnjoy!"

func TestGenerateFreshThenUpdate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(todoResponse, `{"files":{"app/page.js":"dark page","app/globals.css":"body { background: #000 }"}}`)
	conv := f.newConversation(t, "user-1")

	// first round
	payload, err := f.generation.Generate(ctx, "user-1", &model.GenerateRequest{
		Prompt:         "Build a todo app",
		ConversationID: conv.ID,
	})
	require.NoError(t, err)
	assert.False(t, payload.IsUpdate)
	assert.Equal(t, "A todo app", payload.Description)
	assert.Len(t, payload.Files, 2)
	assert.Contains(t, payload.Files, "app/page.js")

	require.Len(t, f.gen.prompts, 1)
	assert.NotContains(t, f.gen.prompts[0], "Current codebase JSON:")
	assert.True(t, strings.HasSuffix(f.gen.prompts[0], "User Request: Build a todo app"))

	msgs := f.messages(t, conv.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Build a todo app", msgs[0].Content)
	assert.Equal(t, model.FormatText, msgs[0].Format)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, model.FormatGenerationV1, msgs[1].Format)

	stored, err := f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Title)
	assert.Equal(t, "Build a todo app", *stored.Title)

	// second round refines the codebase
	payload, err = f.generation.Generate(ctx, "user-1", &model.GenerateRequest{
		Prompt:         "Add dark mode",
		ConversationID: conv.ID,
	})
	require.NoError(t, err)
	assert.True(t, payload.IsUpdate)
	assert.Equal(t, extract.DefaultUpdateDescription, payload.Description)
	assert.Equal(t, model.FileSet{
		"app/page.js":     "dark page",
		"app/globals.css": "body { background: #000 }",
	}, payload.Files, "response carries only the returned files")

	require.Len(t, f.gen.prompts, 2)
	assert.Contains(t, f.gen.prompts[1], "Current codebase JSON:\n{")
	assert.Contains(t, f.gen.prompts[1], `"app/layout.js"`)
	assert.True(t, strings.HasSuffix(f.gen.prompts[1], "User Request: Add dark mode"))

	// the latest assistant turn holds the complete file set
	transcript, err := f.conversations.Transcript(ctx, "user-1", conv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateInProgress, transcript.State)
	assert.Equal(t, model.FileSet{
		"app/page.js":     "dark page",
		"app/layout.js":   "export default function Layout({children}) { return children }",
		"app/globals.css": "body { background: #000 }",
	}, transcript.Files)
	require.Len(t, transcript.Turns, 4)
	assert.Equal(t, "A todo app", transcript.Turns[1].Content)
	assert.Equal(t, extract.DefaultUpdateDescription, transcript.Turns[3].Content)

	// title is only bootstrapped once
	stored, err = f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Build a todo app", *stored.Title)

	assert.Equal(t, []model.EventType{
		model.EventTypeConversationCreated,
		model.EventTypeGenerationCompleted,
		model.EventTypeGenerationCompleted,
	}, f.pub.types())
}

func TestGenerateTitleTruncation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(`{"files":{}}`)
	conv := f.newConversation(t, "user-1")

	longPrompt := strings.Repeat("a", 45) + strings.Repeat("b", 15)
	_, err := f.generation.Generate(ctx, "user-1", &model.GenerateRequest{Prompt: longPrompt, ConversationID: conv.ID})
	require.NoError(t, err)

	stored, err := f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 45)+"bbbbb...", *stored.Title)
}

func TestGenerateKeepsExplicitTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(`{"files":{}}`)
	title := "My shop"
	conv, err := f.conversations.Create(ctx, "user-1", &model.CreateConversationRequest{Title: &title})
	require.NoError(t, err)

	_, err = f.generation.Generate(ctx, "user-1", &model.GenerateRequest{Prompt: "Build a store", ConversationID: conv.ID})
	require.NoError(t, err)

	stored, err := f.store.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "My shop", *stored.Title)
}

func TestGenerateEmptyFilesAccepted(t *testing.T) {
	f := newFixture(`{"description":"nothing","files":{}}`)
	conv := f.newConversation(t, "user-1")

	payload, err := f.generation.Generate(context.Background(), "user-1", &model.GenerateRequest{Prompt: "noop", ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Empty(t, payload.Files)
	assert.NotNil(t, payload.Files)
}

func TestGenerateUpstreamFailureKeepsUserTurn(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.gen.errs = []error{errors.New("model overloaded")}
	conv := f.newConversation(t, "user-1")

	payload, err := f.generation.Generate(ctx, "user-1", &model.GenerateRequest{Prompt: "Build a blog", ConversationID: conv.ID})
	assert.Nil(t, payload)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "model overloaded", upstream.Details())

	msgs := f.messages(t, conv.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Contains(t, f.pub.types(), model.EventTypeGenerationFailed)
}

func TestGenerateMalformedResponse(t *testing.T) {
	f := newFixture("Sorry, I cannot help with that.")
	conv := f.newConversation(t, "user-1")

	_, err := f.generation.Generate(context.Background(), "user-1", &model.GenerateRequest{Prompt: "Build", ConversationID: conv.ID})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.ErrorIs(t, err, extract.ErrMalformedResponse)
	assert.Len(t, f.messages(t, conv.ID), 1)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owned := f.newConversation(t, "owner")

	tests := []struct {
		name   string
		userID string
		req    *model.GenerateRequest
		check  func(t *testing.T, err error)
	}{
		{
			name:   "no session",
			userID: "",
			req:    &model.GenerateRequest{Prompt: "x", ConversationID: owned.ID},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrUnauthenticated) },
		},
		{
			name:   "missing prompt",
			userID: "owner",
			req:    &model.GenerateRequest{Prompt: "  ", ConversationID: owned.ID},
			check: func(t *testing.T, err error) {
				var v *ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, "prompt", v.Field)
			},
		},
		{
			name:   "missing conversation id",
			userID: "owner",
			req:    &model.GenerateRequest{Prompt: "x"},
			check: func(t *testing.T, err error) {
				var v *ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, "Conversation ID is required", v.Error())
			},
		},
		{
			name:   "unknown conversation",
			userID: "owner",
			req:    &model.GenerateRequest{Prompt: "x", ConversationID: uuid.NewString()},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrNotFound) },
		},
		{
			name:   "other user's conversation",
			userID: "intruder",
			req:    &model.GenerateRequest{Prompt: "x", ConversationID: owned.ID},
			check:  func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrForbidden) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.generation.Generate(ctx, tt.userID, tt.req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	assert.Empty(t, f.gen.prompts, "model is never called")
	assert.Empty(t, f.messages(t, owned.ID), "nothing is persisted")

	list, err := f.conversations.List(ctx, "owner", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total, "no conversation is created implicitly")
}

func TestGetOrCreateDefault(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	first, created, err := f.conversations.GetOrCreateDefault(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.conversations.GetOrCreateDefault(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	_, _, err = f.conversations.GetOrCreateDefault(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestListDisplayTitles(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	untitled := f.newConversation(t, "user-1")
	_, err := f.conversations.AppendMessage(ctx, "user-1", untitled.ID, &model.AppendMessageRequest{
		Role:    model.RoleUser,
		Content: "Make me a portfolio site",
	})
	require.NoError(t, err)

	empty := f.newConversation(t, "user-1")
	f.newConversation(t, "user-2")

	list, err := f.conversations.List(ctx, "user-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.False(t, list.HasMore)

	titles := map[string]string{}
	for _, c := range list.Conversations {
		titles[c.ID] = c.DisplayTitle
	}
	assert.Equal(t, "Make me a portfolio site", titles[untitled.ID])
	assert.Equal(t, model.DefaultTitle, titles[empty.ID])
}

func TestUpdateTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	conv := f.newConversation(t, "user-1")

	view, err := f.conversations.UpdateTitle(ctx, "user-1", conv.ID, &model.UpdateConversationRequest{Title: " Landing page "})
	require.NoError(t, err)
	assert.Equal(t, "Landing page", view.DisplayTitle)

	_, err = f.conversations.UpdateTitle(ctx, "user-1", conv.ID, &model.UpdateConversationRequest{Title: ""})
	var v *ValidationError
	assert.ErrorAs(t, err, &v)

	_, err = f.conversations.UpdateTitle(ctx, "user-2", conv.ID, &model.UpdateConversationRequest{Title: "mine"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	conv := f.newConversation(t, "user-1")

	assert.ErrorIs(t, f.conversations.Delete(ctx, "user-2", conv.ID), ErrForbidden)
	require.NoError(t, f.conversations.Delete(ctx, "user-1", conv.ID))

	_, err := f.conversations.Get(ctx, "user-1", conv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, f.pub.types(), model.EventTypeConversationDeleted)
}

func TestAppendMessageValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	conv := f.newConversation(t, "user-1")

	_, err := f.conversations.AppendMessage(ctx, "user-1", conv.ID, &model.AppendMessageRequest{Role: "SYSTEM", Content: "hi"})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "role", v.Field)

	_, err = f.conversations.AppendMessage(ctx, "user-1", "not-a-uuid", &model.AppendMessageRequest{Role: model.RoleUser, Content: "hi"})
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "conversationId", v.Field)

	msg, err := f.conversations.AppendMessage(ctx, "user-1", conv.ID, &model.AppendMessageRequest{Role: model.RoleAssistant, Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, model.FormatText, msg.Format)
}

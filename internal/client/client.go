// Package client is a typed HTTP client for the app builder API.
package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/capitalize-ai/appbuilder/internal/model"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string `json:"error"`
	Details string `json:"details"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	if e.Details != "" {
		msg += " (" + e.Details + ")"
	}
	return msg
}

// Client calls the API on behalf of one user.
type Client struct {
	http *resty.Client
}

// New creates a client for the API rooted at baseURL, authenticating with token.
func New(baseURL, token string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")+"/api/v1").
			SetAuthToken(token).
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Minute),
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return apiErr
	}
	return nil
}

// Generate runs one generation round in a conversation.
func (c *Client) Generate(ctx context.Context, conversationID, prompt string) (*model.GenerationPayload, error) {
	var out model.GenerateResponse
	err := c.do(ctx, resty.MethodPost, "/generate", model.GenerateRequest{
		Prompt:         prompt,
		ConversationID: conversationID,
	}, &out)
	if err != nil {
		return nil, err
	}
	if !out.Success || out.Data == nil {
		return nil, fmt.Errorf("generate: empty response")
	}
	return out.Data, nil
}

// ListConversations lists the caller's conversations, most recent first.
func (c *Client) ListConversations(ctx context.Context, limit, offset int) (*model.ListConversationsResponse, error) {
	var out model.ListConversationsResponse
	path := "/conversations?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	if err := c.do(ctx, resty.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation creates a conversation. A nil title leaves it untitled.
func (c *Client) CreateConversation(ctx context.Context, title *string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.do(ctx, resty.MethodPost, "/conversations", model.CreateConversationRequest{Title: title}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DefaultConversation returns the most recent conversation, creating one if needed.
func (c *Client) DefaultConversation(ctx context.Context) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.do(ctx, resty.MethodPost, "/conversations/default", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation deletes a conversation and its messages.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.do(ctx, resty.MethodDelete, "/conversations/"+id, nil, nil)
}

// Transcript returns a conversation's display transcript and current files.
func (c *Client) Transcript(ctx context.Context, id string) (*model.Transcript, error) {
	var out model.Transcript
	if err := c.do(ctx, resty.MethodGet, "/conversations/"+id+"/messages", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

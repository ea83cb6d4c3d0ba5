// ABOUTME: Conversation endpoints: document contexts, chat queries and chat history
// ABOUTME: History accepts both the bare list and the {"history": [...]} envelope

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListContexts returns the selectable document contexts.
func (c *Client) ListContexts(ctx context.Context) ([]Context, error) {
	var env contextsEnvelope
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/documents/contexts", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Contexts, nil
}

// Query asks the backend a question.
func (c *Client) Query(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.doJSON(ctx, c.authed, http.MethodPost, "/chat/query", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns the user's past chat sessions.
func (c *Client) History(ctx context.Context) ([]HistorySession, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, c.authed, http.MethodGet, "/chat/history", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeHistory(raw)
}

func decodeHistory(raw json.RawMessage) ([]HistorySession, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			History []HistorySession `json:"history"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decoding history: %w", err)
		}
		return env.History, nil
	}
	var sessions []HistorySession
	if err := json.Unmarshal(trimmed, &sessions); err != nil {
		return nil, fmt.Errorf("decoding history: %w", err)
	}
	return sessions, nil
}

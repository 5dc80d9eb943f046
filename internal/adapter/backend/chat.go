package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message             string     `json:"message"`
	ConversationHistory []chatTurn `json:"conversation_history"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Send posts a message and the conversation so far to the assistant endpoint
func (c *Client) Send(ctx context.Context, message string, history []domain.ChatMessage) (string, error) {
	req := chatRequest{
		Message:             message,
		ConversationHistory: make([]chatTurn, 0, len(history)),
	}
	for _, m := range history {
		req.ConversationHistory = append(req.ConversationHistory, chatTurn{Role: string(m.Role), Content: m.Content})
	}

	var resp chatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("failed to send chat message: %w", err)
	}
	return resp.Response, nil
}

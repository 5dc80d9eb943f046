package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
	"github.com/bharadwajkrishnan/finai/internal/usecase/assetsync"
)

// ErrEmptyMessage is returned when Send is called with blank text
var ErrEmptyMessage = errors.New("message is empty")

// Service keeps a conversation with the backend assistant.
// The assistant may create or change assets, so every answered message triggers the refresh callback.
type Service struct {
	ChatRepo domain.ChatRepository

	ids       *assetsync.IDGenerator
	now       func() time.Time
	onRefresh func(ctx context.Context) error

	mu      sync.Mutex
	history []domain.ChatMessage
}

// NewService creates a new assistant service.
// onRefresh may be nil.
func NewService(chatRepo domain.ChatRepository, ids *assetsync.IDGenerator, onRefresh func(ctx context.Context) error) *Service {
	return &Service{
		ChatRepo:  chatRepo,
		ids:       ids,
		now:       time.Now,
		onRefresh: onRefresh,
	}
}

// Send posts text with the conversation so far and records both turns.
// When the backend fails nothing is recorded. A failing refresh is logged, not returned.
func (s *Service) Send(ctx context.Context, text string) (domain.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ChatMessage{}, ErrEmptyMessage
	}

	prior := s.History()
	reply, err := s.ChatRepo.Send(ctx, text, prior)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("assistant: %w", err)
	}

	question := domain.ChatMessage{ID: s.ids.Next(), Role: domain.ChatRoleUser, Content: text, Timestamp: s.now()}
	answer := domain.ChatMessage{ID: s.ids.Next(), Role: domain.ChatRoleAssistant, Content: reply, Timestamp: s.now()}

	s.mu.Lock()
	s.history = append(s.history, question, answer)
	s.mu.Unlock()

	if s.onRefresh != nil {
		if err := s.onRefresh(ctx); err != nil {
			logger.FromContext(ctx).Warn("Failed to refresh assets after assistant reply", "error", err)
		}
	}
	return answer, nil
}

// History returns a copy of the conversation
func (s *Service) History() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.history...)
}

// Reset clears the conversation
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

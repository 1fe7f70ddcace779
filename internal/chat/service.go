// Package chat exposes the conversational endpoints: send a message, read
// the transcript, clear it.
package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/calmsphere/calmsphere/internal/conversation"
	"github.com/calmsphere/calmsphere/internal/gateway"
)

// Gateway is the slice of the generation gateway the chat service uses.
type Gateway interface {
	RequestGeneration(ctx context.Context, userID, query string, recentTurns []conversation.Turn, language string) (*gateway.Reply, error)
}

// RecentWindow is the fast-path cache for the casual context window.
type RecentWindow interface {
	Append(ctx context.Context, turn conversation.Turn) error
	Recent(ctx context.Context, userID string, limit int) ([]conversation.Turn, error)
	Clear(ctx context.Context, userID string) error
}

// Service runs one chat exchange: look up the recent window, generate a
// metered reply, persist both turns.
type Service struct {
	gw              Gateway
	store           conversation.Store
	cache           RecentWindow
	casualWindow    int
	historyLimit    int
	defaultLanguage string
	logger          *slog.Logger
}

// NewService wires the chat service. cache may be nil; the durable store
// then serves the recent window directly.
func NewService(gw Gateway, store conversation.Store, cache RecentWindow, casualWindow, historyLimit int, defaultLanguage string, logger *slog.Logger) *Service {
	return &Service{
		gw:              gw,
		store:           store,
		cache:           cache,
		casualWindow:    casualWindow,
		historyLimit:    historyLimit,
		defaultLanguage: defaultLanguage,
		logger:          logger,
	}
}

// Send runs one exchange for userID. Nothing is persisted when the request
// is rejected (quota, unknown user): a rejected message never happened as
// far as the transcript is concerned. A degraded reply is persisted: the
// user saw it, so the transcript must show it.
func (s *Service) Send(ctx context.Context, userID, message, language string) (*SendMessageResponse, error) {
	if language == "" {
		language = s.defaultLanguage
	}

	recent, err := s.recentWindow(ctx, userID)
	if err != nil {
		return nil, err
	}

	reply, err := s.gw.RequestGeneration(ctx, userID, message, recent, language)
	if err != nil {
		return nil, err
	}

	s.persist(ctx, conversation.NewTurn(userID, conversation.RoleUser, message))
	s.persist(ctx, conversation.NewTurn(userID, conversation.RoleAssistant, reply.Text))

	return &SendMessageResponse{
		Reply:    reply.Text,
		Mode:     reply.Mode,
		Degraded: reply.Degraded,
		Usage:    reply.Usage,
	}, nil
}

// recentWindow prefers the cache and falls back to the durable store on a
// cache error or a cold (empty) cache.
func (s *Service) recentWindow(ctx context.Context, userID string) ([]conversation.Turn, error) {
	if s.cache != nil {
		turns, err := s.cache.Recent(ctx, userID, s.casualWindow)
		if err != nil {
			s.logger.Warn("recent-window cache read failed, using store", "user_id", userID, "error", err)
		} else if len(turns) > 0 {
			return turns, nil
		}
	}

	turns, err := s.store.RecentTurns(ctx, userID, s.casualWindow, false)
	if err != nil {
		return nil, fmt.Errorf("loading recent turns for %s: %w", userID, err)
	}
	return turns, nil
}

// persist writes a turn to the durable store and the cache. Failures are
// logged, not returned: the reply has already been generated and charged,
// a storage hiccup must not turn it into a user-facing error.
func (s *Service) persist(ctx context.Context, turn conversation.Turn) {
	if err := s.store.AppendTurn(ctx, turn); err != nil {
		s.logger.Error("persisting turn", "user_id", turn.UserID, "role", turn.Role, "error", err)
	}
	if s.cache != nil {
		if err := s.cache.Append(ctx, turn); err != nil {
			s.logger.Warn("caching turn", "user_id", turn.UserID, "error", err)
		}
	}
}

// History returns up to limit persisted turns, oldest first. limit is
// capped at the service's history limit.
func (s *Service) History(ctx context.Context, userID string, limit int) (*HistoryResponse, error) {
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	turns, err := s.store.RecentTurns(ctx, userID, limit, false)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", userID, err)
	}
	return &HistoryResponse{Turns: turns, Count: len(turns)}, nil
}

// Clear wipes the user's transcript from the store and the cache.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.store.ClearAll(ctx, userID); err != nil {
		return fmt.Errorf("clearing history for %s: %w", userID, err)
	}
	if s.cache != nil {
		if err := s.cache.Clear(ctx, userID); err != nil {
			s.logger.Warn("clearing recent-window cache", "user_id", userID, "error", err)
		}
	}
	return nil
}
